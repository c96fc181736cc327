// Package shell is the modal player page: it opens and closes the player for
// a catalog episode, routes keyboard shortcuts and keeps the URL fragment in
// step with the open episode.
package shell

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/educheia/educheia/internal/catalog"
	"github.com/educheia/educheia/internal/player"
	"github.com/educheia/educheia/internal/timefmt"
)

var ErrUnknownEpisode = errors.New("unknown episode")

// Location is the page URL fragment, without the leading '#'.
type Location interface {
	Hash() string
	PushHash(hash string)
	ReplaceHash(hash string)
}

// Focus tracks the focused element by an opaque handle.
type Focus interface {
	Active() string
	InFormControl() bool
	Restore(handle string)
}

type Modal interface {
	Show()
	Hide()
}

type Episodes interface {
	Find(id string) (catalog.Episode, bool)
	ToggleSortOrder() catalog.SortOrder
	Episodes() []catalog.Episode
}

type Player interface {
	Open(ctx context.Context, e player.Episode)
	Close(ctx context.Context) string
	TogglePlay()
	SeekRelative(delta float64)
	ToggleMute()
	ToggleFullscreen()
}

type Comments interface {
	Begin(episodeID string) uint64
	Fetch(ctx context.Context, reqID uint64) error
	Clear()
}

// Cards renders the episode carousel.
type Cards interface {
	ShowEpisodes(episodes []catalog.Episode)
}

// Scroller resets the page to the top of the carousel.
type Scroller interface {
	Reset()
}

type Config struct {
	Episodes Episodes
	Player   Player
	Comments Comments
	Location Location
	Focus    Focus
	Modal    Modal
	Cards    Cards
	Scroller Scroller
}

type Shell struct {
	cfg Config

	mu        sync.Mutex
	open      bool
	current   string
	lastFocus string
	loads     sync.WaitGroup
}

func New(cfg Config) *Shell {
	return &Shell{cfg: cfg}
}

func (s *Shell) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func (s *Shell) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Open shows the player for episode id and records it in the URL fragment.
func (s *Shell) Open(ctx context.Context, id string) error {
	return s.openEpisode(ctx, id, true)
}

func (s *Shell) openEpisode(ctx context.Context, id string, push bool) error {
	e, ok := s.cfg.Episodes.Find(id)
	if !ok {
		slog.Debug("shell: unknown episode", "episode_id", id)
		return ErrUnknownEpisode
	}

	s.mu.Lock()
	if s.open && s.current == id {
		s.mu.Unlock()
		return nil
	}
	switching := s.open
	if !switching && s.cfg.Focus != nil {
		s.lastFocus = s.cfg.Focus.Active()
	}
	s.open = true
	s.current = id
	s.mu.Unlock()

	if switching {
		s.cfg.Player.Close(ctx)
	}
	if push && s.cfg.Location != nil && s.cfg.Location.Hash() != id {
		s.cfg.Location.PushHash(id)
	}
	if s.cfg.Modal != nil {
		s.cfg.Modal.Show()
	}
	s.cfg.Player.Open(ctx, PlayerEpisode(e))

	if s.cfg.Comments != nil {
		reqID := s.cfg.Comments.Begin(id)
		s.loads.Add(1)
		go func() {
			defer s.loads.Done()
			_ = s.cfg.Comments.Fetch(context.WithoutCancel(ctx), reqID)
		}()
	}
	return nil
}

// Close hides the player, clears the fragment and gives focus back.
func (s *Shell) Close(ctx context.Context) {
	s.close(ctx, true)
}

func (s *Shell) close(ctx context.Context, clearHash bool) {
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return
	}
	id := s.current
	focus := s.lastFocus
	s.open = false
	s.current = ""
	s.lastFocus = ""
	s.mu.Unlock()

	s.cfg.Player.Close(ctx)
	if clearHash && s.cfg.Location != nil && s.cfg.Location.Hash() == id {
		s.cfg.Location.ReplaceHash("")
	}
	if s.cfg.Comments != nil {
		s.cfg.Comments.Clear()
	}
	if s.cfg.Modal != nil {
		s.cfg.Modal.Hide()
	}
	if s.cfg.Focus != nil && focus != "" {
		s.cfg.Focus.Restore(focus)
	}
}

// OnHashChange follows back/forward navigation: an empty fragment closes the
// player, an episode fragment opens it.
func (s *Shell) OnHashChange(ctx context.Context) {
	hash := ""
	if s.cfg.Location != nil {
		hash = strings.TrimPrefix(s.cfg.Location.Hash(), "#")
	}
	if hash == "" {
		s.close(ctx, false)
		return
	}
	if hash == s.Current() {
		return
	}
	if err := s.openEpisode(ctx, hash, false); err != nil {
		s.close(ctx, false)
	}
}

// Restore opens the episode named by the fragment at page load.
func (s *Shell) Restore(ctx context.Context) bool {
	if s.cfg.Location == nil {
		return false
	}
	hash := strings.TrimPrefix(s.cfg.Location.Hash(), "#")
	if hash == "" {
		return false
	}
	return s.openEpisode(ctx, hash, false) == nil
}

// HandleKey runs the shortcut bound to key while the player is open. Keys
// typed into form controls are left alone.
func (s *Shell) HandleKey(ctx context.Context, key string) bool {
	if !s.IsOpen() {
		return false
	}
	if s.cfg.Focus != nil && s.cfg.Focus.InFormControl() {
		return false
	}
	switch key {
	case "Escape":
		s.Close(ctx)
	case "ArrowLeft":
		s.cfg.Player.SeekRelative(-player.SeekStep)
	case "ArrowRight":
		s.cfg.Player.SeekRelative(player.SeekStep)
	case " ", "k", "K":
		s.cfg.Player.TogglePlay()
	case "m", "M":
		s.cfg.Player.ToggleMute()
	case "f", "F":
		s.cfg.Player.ToggleFullscreen()
	default:
		return false
	}
	return true
}

// ToggleSort flips the catalog order, re-renders the cards and scrolls the
// page back to the top.
func (s *Shell) ToggleSort() catalog.SortOrder {
	order := s.cfg.Episodes.ToggleSortOrder()
	if s.cfg.Cards != nil {
		s.cfg.Cards.ShowEpisodes(s.cfg.Episodes.Episodes())
	}
	if s.cfg.Scroller != nil {
		s.cfg.Scroller.Reset()
	}
	return order
}

// Wait blocks until background comment loads finish.
func (s *Shell) Wait() {
	s.loads.Wait()
}

// PlayerEpisode maps a catalog episode to the metadata the player shows.
func PlayerEpisode(e catalog.Episode) player.Episode {
	duration, _ := timefmt.ISOSeconds(e.Duration)
	return player.Episode{
		ID:          e.ID,
		VideoID:     e.VideoID,
		Title:       e.Title,
		Description: e.Description,
		Date:        timefmt.Date(e.PublishedAt),
		Number:      e.DisplayNumber,
		Cover:       e.CoverURL(),
		Duration:    duration,
	}
}
