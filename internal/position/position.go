package position

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"strings"
)

var ErrNotFound = errors.New("position not found")

// Backend is a durable key/value store.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

type Record struct {
	Seconds int `json:"seconds"`
}

// Store persists the last observed playback position per episode. Every
// failure degrades to "nothing persisted": Load returns 0 and Save drops
// the write.
type Store struct {
	backend Backend
	prefix  string
}

func New(b Backend) *Store {
	return &Store{backend: b, prefix: "position:"}
}

// ForUser returns a store whose keys are scoped to uid.
func (s *Store) ForUser(uid string) *Store {
	return &Store{backend: s.backend, prefix: s.prefix + uid + ":"}
}

func (s *Store) key(episodeID string) string {
	return s.prefix + strings.TrimSpace(episodeID)
}

// Load returns the stored position in whole seconds, or 0.
func (s *Store) Load(ctx context.Context, episodeID string) int {
	if s == nil || s.backend == nil || strings.TrimSpace(episodeID) == "" {
		return 0
	}
	raw, err := s.backend.Get(ctx, s.key(episodeID))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			slog.Debug("position: read failed", "episode_id", episodeID, "error", err)
		}
		return 0
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		slog.Debug("position: corrupt record", "episode_id", episodeID, "error", err)
		return 0
	}
	if rec.Seconds < 0 {
		return 0
	}
	return rec.Seconds
}

// Save stores seconds floored to whole seconds and bounded to >= 0.
func (s *Store) Save(ctx context.Context, episodeID string, seconds float64) {
	if s == nil || s.backend == nil || strings.TrimSpace(episodeID) == "" {
		return
	}
	raw, err := json.Marshal(Record{Seconds: WholeSeconds(seconds)})
	if err != nil {
		return
	}
	if err := s.backend.Set(ctx, s.key(episodeID), raw); err != nil {
		slog.Debug("position: write failed", "episode_id", episodeID, "error", err)
	}
}

func WholeSeconds(seconds float64) int {
	if math.IsNaN(seconds) || seconds <= 0 {
		return 0
	}
	if math.IsInf(seconds, 1) || seconds > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(math.Floor(seconds))
}
