package server

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/educheia/educheia/internal/auth"
	"github.com/educheia/educheia/internal/catalog"
	"github.com/educheia/educheia/internal/feed"
	"github.com/educheia/educheia/internal/httputil"
	"github.com/educheia/educheia/internal/position"
	"github.com/educheia/educheia/internal/timefmt"
	"github.com/educheia/educheia/internal/validate"
)

const (
	defaultGuestLimit = 6
	maxGuestLimit     = 50
)

type episodeResponse struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	PublishedAt   string `json:"publishedAt,omitempty"`
	Date          string `json:"date,omitempty"`
	DisplayNumber int    `json:"displayNumber"`
	CoverURL      string `json:"coverUrl"`
	Duration      string `json:"duration,omitempty"`
	DurationLabel string `json:"durationLabel,omitempty"`
	Placeholder   bool   `json:"placeholder,omitempty"`
}

type episodesResponse struct {
	Episodes         []episodeResponse `json:"episodes"`
	NumberOfEpisodes int               `json:"numberOfEpisodes"`
	Order            string            `json:"order"`
	Placeholder      bool              `json:"placeholder"`
	Latest           *episodeResponse  `json:"latest,omitempty"`
}

type channelResponse struct {
	SubscriberCount string `json:"subscriberCount"`
	ViewCount       string `json:"viewCount"`
	VideoCount      string `json:"videoCount"`
	SubscriberLabel string `json:"subscriberLabel"`
	ViewLabel       string `json:"viewLabel"`
	VideoLabel      string `json:"videoLabel"`
	FetchedAt       string `json:"fetchedAt,omitempty"`
}

type guestResponse struct {
	Name      string `json:"name"`
	Topic     string `json:"topic"`
	EpisodeID string `json:"episodeId"`
	Date      string `json:"date"`
	Image     string `json:"image,omitempty"`
	Link      string `json:"link"`
}

type guestsResponse struct {
	Guests []guestResponse `json:"guests"`
	Count  int             `json:"count"`
}

type positionRequest struct {
	Seconds *float64 `json:"seconds"`
}

func toEpisodeResponse(e catalog.Episode) episodeResponse {
	resp := episodeResponse{
		ID:            e.ID,
		Title:         e.Title,
		Description:   e.Description,
		Date:          timefmt.Date(e.PublishedAt),
		DisplayNumber: e.DisplayNumber,
		CoverURL:      e.CoverURL(),
		Duration:      e.Duration,
		Placeholder:   e.Placeholder,
	}
	if !e.PublishedAt.IsZero() {
		resp.PublishedAt = e.PublishedAt.UTC().Format(time.RFC3339)
	}
	if label, ok := timefmt.ISODuration(e.Duration); ok {
		resp.DurationLabel = label
	}
	return resp
}

// loadCatalog builds a request-scoped catalog in the requested order.
func (s *Server) loadCatalog(r *http.Request, order catalog.SortOrder) *catalog.Catalog {
	c := catalog.New(s.feed)
	c.SetSortOrder(order)
	c.Load(r.Context())
	return c
}

func (s *Server) handleEpisodes(w http.ResponseWriter, r *http.Request) {
	order := catalog.ParseSortOrder(r.URL.Query().Get("order"))
	c := s.loadCatalog(r, order)
	episodes := c.Episodes()

	resp := episodesResponse{
		Episodes:         make([]episodeResponse, 0, len(episodes)),
		NumberOfEpisodes: c.NumberOfEpisodes(),
		Order:            order.String(),
		Placeholder:      c.IsPlaceholder(),
	}
	for _, e := range episodes {
		resp.Episodes = append(resp.Episodes, toEpisodeResponse(e))
	}
	if latest, ok := catalog.Latest(sortedNewestFirst(c, order)); ok {
		l := toEpisodeResponse(latest)
		resp.Latest = &l
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// sortedNewestFirst returns the catalog's episodes newest first regardless
// of the display order.
func sortedNewestFirst(c *catalog.Catalog, order catalog.SortOrder) []catalog.Episode {
	episodes := c.Episodes()
	if order == catalog.Descending {
		return episodes
	}
	reversed := make([]catalog.Episode, len(episodes))
	for i, e := range episodes {
		reversed[len(episodes)-1-i] = e
	}
	return reversed
}

func (s *Server) handleChannel(w http.ResponseWriter, r *http.Request) {
	ch, err := s.feed.Channel(r.Context())
	if err != nil {
		if !errors.Is(err, feed.ErrUnavailable) {
			slog.Error("server: channel lookup failed", "error", err)
		}
		httputil.WriteError(w, http.StatusServiceUnavailable, "channel statistics unavailable")
		return
	}

	resp := channelResponse{
		SubscriberCount: ch.Statistics.SubscriberCount,
		ViewCount:       ch.Statistics.ViewCount,
		VideoCount:      ch.Statistics.VideoCount,
		SubscriberLabel: compactLabel(ch.Statistics.SubscriberCount),
		ViewLabel:       compactLabel(ch.Statistics.ViewCount),
		VideoLabel:      compactLabel(ch.Statistics.VideoCount),
	}
	if !ch.FetchedAt.IsZero() {
		resp.FetchedAt = ch.FetchedAt.UTC().Format(time.RFC3339)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func compactLabel(count string) string {
	n, err := strconv.ParseFloat(count, 64)
	if err != nil {
		return "0"
	}
	return timefmt.CompactNumber(n)
}

func (s *Server) handleGuests(w http.ResponseWriter, r *http.Request) {
	limit := defaultGuestLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			httputil.WriteError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = min(n, maxGuestLimit)
	}

	c := s.loadCatalog(r, catalog.Descending)
	episodes := c.Episodes()
	if c.IsPlaceholder() {
		episodes = nil
	}

	guests := catalog.RecentGuests(episodes, limit, func(e catalog.Episode) string {
		return timefmt.ShortDate(e.PublishedAt)
	})
	resp := guestsResponse{
		Guests: make([]guestResponse, 0, len(guests)),
		Count:  catalog.CountGuests(episodes),
	}
	for _, g := range guests {
		resp.Guests = append(resp.Guests, guestResponse{
			Name:      g.Name,
			Topic:     g.Topic,
			EpisodeID: g.EpisodeID,
			Date:      g.Date,
			Image:     g.Image,
			Link:      g.Link,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLimits(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, validate.FieldLimits())
}

func (s *Server) userPositions(w http.ResponseWriter, r *http.Request) (*position.Store, string, bool) {
	uid := auth.UserIDFromContext(r.Context())
	if uid == "" {
		httputil.WriteError(w, http.StatusUnauthorized, "sign in required")
		return nil, "", false
	}
	episodeID := chi.URLParam(r, "episodeId")
	if msg := validate.EpisodeID(episodeID); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return nil, "", false
	}
	return s.positions.ForUser(uid), episodeID, true
}

func (s *Server) handleGetPosition(w http.ResponseWriter, r *http.Request) {
	store, episodeID, ok := s.userPositions(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, position.Record{Seconds: store.Load(r.Context(), episodeID)})
}

func (s *Server) handlePutPosition(w http.ResponseWriter, r *http.Request) {
	store, episodeID, ok := s.userPositions(w, r)
	if !ok {
		return
	}

	var req positionRequest
	if err := httputil.ReadJSON(w, r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Seconds == nil || math.IsNaN(*req.Seconds) || math.IsInf(*req.Seconds, 0) || *req.Seconds < 0 {
		httputil.WriteError(w, http.StatusBadRequest, "seconds must be a non-negative number")
		return
	}

	store.Save(r.Context(), episodeID, *req.Seconds)
	w.WriteHeader(http.StatusNoContent)
}
