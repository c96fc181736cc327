package comment

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps comments in process. It backs the service when no
// database is configured.
type MemoryStore struct {
	now func() time.Time

	mu       sync.RWMutex
	episodes map[string][]Comment
}

func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{now: now, episodes: make(map[string][]Comment)}
}

func (s *MemoryStore) List(_ context.Context, episodeID string, limit int) ([]Comment, error) {
	if limit <= 0 || limit > PageSize {
		limit = PageSize
	}
	s.mu.RLock()
	comments := append([]Comment(nil), s.episodes[episodeID]...)
	s.mu.RUnlock()

	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].CreatedAt.After(comments[j].CreatedAt)
	})
	if len(comments) > limit {
		comments = comments[:limit]
	}
	if comments == nil {
		comments = []Comment{}
	}
	return comments, nil
}

func (s *MemoryStore) Create(_ context.Context, c Comment) (Comment, error) {
	c.ID = uuid.NewString()
	c.CreatedAt = s.now().UTC()
	c.UpdatedAt = nil

	s.mu.Lock()
	defer s.mu.Unlock()
	s.episodes[c.EpisodeID] = append(s.episodes[c.EpisodeID], c)
	return c, nil
}

func (s *MemoryStore) Get(_ context.Context, episodeID, id string) (Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.episodes[episodeID] {
		if c.ID == id {
			return c, nil
		}
	}
	return Comment{}, ErrNotFound
}

func (s *MemoryStore) UpdateBody(_ context.Context, episodeID, id, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	comments := s.episodes[episodeID]
	for i := range comments {
		if comments[i].ID == id {
			now := s.now().UTC()
			comments[i].Body = body
			comments[i].UpdatedAt = &now
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) Delete(_ context.Context, episodeID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	comments := s.episodes[episodeID]
	for i := range comments {
		if comments[i].ID == id {
			s.episodes[episodeID] = append(comments[:i:i], comments[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}
