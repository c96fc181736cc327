package comment

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/educheia/educheia/internal/auth"
	"github.com/educheia/educheia/internal/httputil"
	"github.com/educheia/educheia/internal/validate"
)

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

type bodyRequest struct {
	Body string `json:"body"`
}

// Routes mounts the comment endpoints under /episodes/{id}/comments. Reads
// are public; mutations go through requireAuth.
func (h *Handler) Routes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Get("/episodes/{id}/comments", h.List)
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/episodes/{id}/comments", h.Create)
		r.Patch("/episodes/{id}/comments/{commentId}", h.Update)
		r.Delete("/episodes/{id}/comments/{commentId}", h.Delete)
	})
}

func episodeParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if msg := validate.EpisodeID(id); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return "", false
	}
	return id, true
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	episodeID, ok := episodeParam(w, r)
	if !ok {
		return
	}
	comments, err := h.store.List(r.Context(), episodeID, PageSize)
	if err != nil {
		slog.Error("comment: list failed", "episode_id", episodeID, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "could not fetch comments")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, comments)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	id, signedIn := auth.IdentityFromContext(r.Context())
	if !signedIn {
		httputil.WriteError(w, http.StatusUnauthorized, "sign in required")
		return
	}
	episodeID, ok := episodeParam(w, r)
	if !ok {
		return
	}

	body, ok := readBody(w, r)
	if !ok {
		return
	}

	created, err := h.store.Create(r.Context(), Comment{
		EpisodeID:  episodeID,
		AuthorUID:  id.UID,
		AuthorName: authorName(id),
		Body:       body,
	})
	if err != nil {
		slog.Error("comment: create failed", "episode_id", episodeID, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "could not save comment")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	episodeID, commentID, ok := h.authorizeRequest(w, r)
	if !ok {
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	if err := h.store.UpdateBody(r.Context(), episodeID, commentID, body); err != nil {
		writeStoreError(w, err, "could not update comment")
		return
	}
	updated, err := h.store.Get(r.Context(), episodeID, commentID)
	if err != nil {
		writeStoreError(w, err, "could not fetch comment")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	episodeID, commentID, ok := h.authorizeRequest(w, r)
	if !ok {
		return
	}
	if err := h.store.Delete(r.Context(), episodeID, commentID); err != nil {
		writeStoreError(w, err, "could not delete comment")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// authorizeRequest loads the target comment and checks that the caller is
// its author or an admin.
func (h *Handler) authorizeRequest(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	id, signedIn := auth.IdentityFromContext(r.Context())
	if !signedIn {
		httputil.WriteError(w, http.StatusUnauthorized, "sign in required")
		return "", "", false
	}
	episodeID, ok := episodeParam(w, r)
	if !ok {
		return "", "", false
	}
	commentID := chi.URLParam(r, "commentId")

	existing, err := h.store.Get(r.Context(), episodeID, commentID)
	if err != nil {
		writeStoreError(w, err, "could not fetch comment")
		return "", "", false
	}
	if !CanModify(existing, id) {
		httputil.WriteError(w, http.StatusForbidden, "not allowed to modify this comment")
		return "", "", false
	}
	return episodeID, commentID, true
}

func readBody(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req bodyRequest
	if err := httputil.ReadJSON(w, r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return "", false
	}
	body, err := NormalizeBody(req.Body)
	if errors.Is(err, ErrEmptyBody) {
		httputil.WriteError(w, http.StatusBadRequest, "comment body is required")
		return "", false
	}
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, validate.CommentBody(req.Body))
		return "", false
	}
	return body, true
}

func writeStoreError(w http.ResponseWriter, err error, message string) {
	if errors.Is(err, ErrNotFound) {
		httputil.WriteError(w, http.StatusNotFound, "comment not found")
		return
	}
	slog.Error("comment: store failed", "error", err)
	httputil.WriteError(w, http.StatusInternalServerError, message)
}
