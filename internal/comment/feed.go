package comment

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/educheia/educheia/internal/auth"
)

// Status lines shown under the comment form.
const (
	StatusSignInRequired = "Trebuie să fii autentificat pentru a comenta."
	StatusEmptyBody      = "Scrie un comentariu înainte de a-l trimite."
	StatusBodyTooLong    = "Comentariul este prea lung."
	StatusForbidden      = "Nu poți modifica acest comentariu."
	StatusBusy           = "Așteaptă finalizarea acțiunii anterioare."
	StatusLoadFailed     = "Nu am putut încărca comentariile."
	StatusSaveFailed     = "Nu am putut salva comentariul."
	StatusDeleteFailed   = "Nu am putut șterge comentariul."
	StatusNotFound       = "Comentariul nu mai există."
	StatusNoEpisode      = "Niciun episod selectat."
)

type IdentitySource interface {
	Current() (auth.Identity, bool)
}

// Entry is a comment as rendered for the current viewer.
type Entry struct {
	Comment
	CanEdit bool
}

type View interface {
	ShowComments(episodeID string, entries []Entry)
	SetStatus(msg string)
	SetPending(pending bool)
	ClearInput()
}

// Feed is the comment panel of the open episode. Loads are tagged with a
// request id and only the latest one may update the view. View methods are
// called with the feed lock held and must not call back into the feed.
type Feed struct {
	store Store
	ids   IdentitySource
	view  View

	mu        sync.Mutex
	episodeID string
	requestID uint64
	comments  []Comment
	pending   bool
}

func NewFeed(store Store, ids IdentitySource, view View) *Feed {
	return &Feed{store: store, ids: ids, view: view}
}

func (f *Feed) EpisodeID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.episodeID
}

func (f *Feed) Comments() []Comment {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Comment(nil), f.comments...)
}

func (f *Feed) Pending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending
}

// Load fetches the newest comments for episodeID. A response that arrives
// after a newer Load or a Clear is dropped.
func (f *Feed) Load(ctx context.Context, episodeID string) error {
	return f.Fetch(ctx, f.Begin(episodeID))
}

// Begin binds the feed to episodeID and returns the request id a following
// Fetch must carry. Any earlier request becomes stale.
func (f *Feed) Begin(episodeID string) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if episodeID != f.episodeID {
		f.comments = nil
	}
	f.episodeID = episodeID
	f.requestID++
	return f.requestID
}

// Fetch runs the query for request reqID. It is a no-op once reqID has been
// superseded by Begin, Load or Clear.
func (f *Feed) Fetch(ctx context.Context, reqID uint64) error {
	f.mu.Lock()
	if reqID != f.requestID {
		f.mu.Unlock()
		slog.Debug("comment: skipping stale load", "request_id", reqID)
		return nil
	}
	episodeID := f.episodeID
	f.mu.Unlock()

	comments, err := f.store.List(ctx, episodeID, PageSize)

	f.mu.Lock()
	defer f.mu.Unlock()
	if reqID != f.requestID {
		slog.Debug("comment: dropping stale load", "episode_id", episodeID, "request_id", reqID)
		return nil
	}
	if err != nil {
		slog.Warn("comment: load failed", "episode_id", episodeID, "error", err)
		f.setStatusLocked(StatusLoadFailed)
		return err
	}
	f.comments = comments
	f.renderLocked()
	return nil
}

// Clear forgets the open episode and invalidates in-flight loads.
func (f *Feed) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requestID++
	f.episodeID = ""
	f.comments = nil
	if f.view != nil {
		f.view.ShowComments("", nil)
		f.view.SetStatus("")
	}
}

// Refresh re-renders the loaded comments for the current identity.
func (f *Feed) Refresh() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.episodeID == "" {
		return
	}
	f.renderLocked()
}

func (f *Feed) Submit(ctx context.Context, body string) error {
	id, ok := f.identity()
	if !ok {
		return f.reject(ErrSignInRequired)
	}
	episodeID := f.EpisodeID()
	if episodeID == "" {
		return f.reject(ErrNoEpisode)
	}
	body, err := NormalizeBody(body)
	if err != nil {
		return f.reject(err)
	}
	if !f.begin() {
		return f.reject(ErrBusy)
	}

	_, err = f.store.Create(ctx, Comment{
		EpisodeID:  episodeID,
		AuthorUID:  id.UID,
		AuthorName: authorName(id),
		Body:       body,
	})
	f.end()
	if err != nil {
		slog.Warn("comment: create failed", "episode_id", episodeID, "error", err)
		f.setStatus(StatusSaveFailed)
		return err
	}

	f.mu.Lock()
	if f.view != nil {
		f.view.ClearInput()
		f.view.SetStatus("")
	}
	f.mu.Unlock()
	return f.reload(ctx, episodeID)
}

func (f *Feed) Edit(ctx context.Context, commentID, newBody string) error {
	episodeID, err := f.authorize(commentID)
	if err != nil {
		return f.reject(err)
	}
	body, err := NormalizeBody(newBody)
	if err != nil {
		return f.reject(err)
	}
	if !f.begin() {
		return f.reject(ErrBusy)
	}

	err = f.store.UpdateBody(ctx, episodeID, commentID, body)
	f.end()
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			f.setStatus(StatusNotFound)
		} else {
			slog.Warn("comment: update failed", "comment_id", commentID, "error", err)
			f.setStatus(StatusSaveFailed)
		}
		_ = f.reload(ctx, episodeID)
		return err
	}
	return f.reload(ctx, episodeID)
}

func (f *Feed) Delete(ctx context.Context, commentID string) error {
	episodeID, err := f.authorize(commentID)
	if err != nil {
		return f.reject(err)
	}
	if !f.begin() {
		return f.reject(ErrBusy)
	}

	err = f.store.Delete(ctx, episodeID, commentID)
	f.end()
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			f.setStatus(StatusNotFound)
		} else {
			slog.Warn("comment: delete failed", "comment_id", commentID, "error", err)
			f.setStatus(StatusDeleteFailed)
		}
		_ = f.reload(ctx, episodeID)
		return err
	}
	return f.reload(ctx, episodeID)
}

// authorize checks the caller against a loaded comment before any store call.
func (f *Feed) authorize(commentID string) (string, error) {
	id, ok := f.identity()
	if !ok {
		return "", ErrSignInRequired
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.episodeID == "" {
		return "", ErrNoEpisode
	}
	for _, c := range f.comments {
		if c.ID != commentID {
			continue
		}
		if !CanModify(c, id) {
			return "", ErrForbidden
		}
		return f.episodeID, nil
	}
	return "", ErrNotFound
}

// reload refreshes the feed unless the panel moved on to another episode.
func (f *Feed) reload(ctx context.Context, episodeID string) error {
	if f.EpisodeID() != episodeID {
		return nil
	}
	return f.Load(ctx, episodeID)
}

func (f *Feed) identity() (auth.Identity, bool) {
	if f.ids == nil {
		return auth.Identity{}, false
	}
	return f.ids.Current()
}

func (f *Feed) begin() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending {
		return false
	}
	f.pending = true
	if f.view != nil {
		f.view.SetPending(true)
	}
	return true
}

func (f *Feed) end() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = false
	if f.view != nil {
		f.view.SetPending(false)
	}
}

func (f *Feed) reject(err error) error {
	f.setStatus(statusFor(err))
	return err
}

func (f *Feed) setStatus(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setStatusLocked(msg)
}

func (f *Feed) setStatusLocked(msg string) {
	if f.view != nil {
		f.view.SetStatus(msg)
	}
}

func (f *Feed) renderLocked() {
	if f.view == nil {
		return
	}
	id, _ := f.identity()
	entries := make([]Entry, 0, len(f.comments))
	for _, c := range f.comments {
		entries = append(entries, Entry{Comment: c, CanEdit: CanModify(c, id)})
	}
	f.view.ShowComments(f.episodeID, entries)
}

func statusFor(err error) string {
	switch {
	case errors.Is(err, ErrSignInRequired):
		return StatusSignInRequired
	case errors.Is(err, ErrEmptyBody):
		return StatusEmptyBody
	case errors.Is(err, ErrBodyTooLong):
		return StatusBodyTooLong
	case errors.Is(err, ErrForbidden):
		return StatusForbidden
	case errors.Is(err, ErrBusy):
		return StatusBusy
	case errors.Is(err, ErrNotFound):
		return StatusNotFound
	case errors.Is(err, ErrNoEpisode):
		return StatusNoEpisode
	}
	return StatusSaveFailed
}
