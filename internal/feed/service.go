package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/webtor-io/lazymap"
)

const (
	DefaultEpisodesTTL = time.Hour
	DefaultChannelTTL  = 24 * time.Hour
	DefaultErrorTTL    = 30 * time.Second

	episodesKey = "episodes"
	channelKey  = "channel"
)

var ErrUnavailable = errors.New("feed unavailable")

type Fetcher interface {
	FetchEpisodes(ctx context.Context) (*Episodes, error)
	FetchChannel(ctx context.Context) (*Channel, error)
}

// SnapshotStore keeps the last good responses across restarts.
type SnapshotStore interface {
	PutJSON(ctx context.Context, key string, v any) error
	GetJSON(ctx context.Context, key string, v any) error
}

type Config struct {
	EpisodesTTL time.Duration
	ChannelTTL  time.Duration
	ErrorTTL    time.Duration
	Now         func() time.Time
}

// Service caches the episode and channel feeds. A failed refresh serves the
// last good value (from memory, then from the snapshot store) and only
// reports ErrUnavailable when neither exists.
type Service struct {
	fetcher   Fetcher
	snapshots SnapshotStore
	now       func() time.Time

	episodes *lazymap.LazyMap[*Episodes]
	channel  *lazymap.LazyMap[*Channel]

	mu           sync.Mutex
	lastEpisodes *Episodes
	lastChannel  *Channel
}

func NewService(f Fetcher, snapshots SnapshotStore, cfg Config) *Service {
	if cfg.EpisodesTTL <= 0 {
		cfg.EpisodesTTL = DefaultEpisodesTTL
	}
	if cfg.ChannelTTL <= 0 {
		cfg.ChannelTTL = DefaultChannelTTL
	}
	if cfg.ErrorTTL <= 0 {
		cfg.ErrorTTL = DefaultErrorTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		fetcher:   f,
		snapshots: snapshots,
		now:       cfg.Now,
		episodes: lazymap.New[*Episodes](&lazymap.Config{
			Expire:      cfg.EpisodesTTL,
			ErrorExpire: cfg.ErrorTTL,
		}),
		channel: lazymap.New[*Channel](&lazymap.Config{
			Expire:      cfg.ChannelTTL,
			ErrorExpire: cfg.ErrorTTL,
		}),
	}
}

func (s *Service) Episodes(ctx context.Context) (*Episodes, error) {
	episodes, err := s.episodes.Get(episodesKey, func() (*Episodes, error) {
		return s.refreshEpisodes(context.WithoutCancel(ctx))
	})
	if err == nil {
		return episodes, nil
	}
	slog.Warn("feed: episodes refresh failed, using fallback", "error", err)

	s.mu.Lock()
	last := s.lastEpisodes
	s.mu.Unlock()
	if last != nil {
		return last, nil
	}

	if s.snapshots != nil {
		var snap Episodes
		if err := s.snapshots.GetJSON(ctx, episodesKey, &snap); err == nil {
			s.mu.Lock()
			s.lastEpisodes = &snap
			s.mu.Unlock()
			return &snap, nil
		} else {
			slog.Debug("feed: no episodes snapshot", "error", err)
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func (s *Service) Channel(ctx context.Context) (*Channel, error) {
	channel, err := s.channel.Get(channelKey, func() (*Channel, error) {
		return s.refreshChannel(context.WithoutCancel(ctx))
	})
	if err == nil {
		return channel, nil
	}
	slog.Warn("feed: channel refresh failed, using fallback", "error", err)

	s.mu.Lock()
	last := s.lastChannel
	s.mu.Unlock()
	if last != nil {
		return last, nil
	}

	if s.snapshots != nil {
		var snap Channel
		if err := s.snapshots.GetJSON(ctx, channelKey, &snap); err == nil {
			s.mu.Lock()
			s.lastChannel = &snap
			s.mu.Unlock()
			return &snap, nil
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func (s *Service) refreshEpisodes(ctx context.Context) (*Episodes, error) {
	episodes, err := s.fetcher.FetchEpisodes(ctx)
	if err != nil {
		return nil, err
	}
	episodes.FetchedAt = s.now()

	s.mu.Lock()
	s.lastEpisodes = episodes
	s.mu.Unlock()

	s.saveSnapshot(ctx, episodesKey, episodes)
	return episodes, nil
}

func (s *Service) refreshChannel(ctx context.Context) (*Channel, error) {
	channel, err := s.fetcher.FetchChannel(ctx)
	if err != nil {
		return nil, err
	}
	channel.FetchedAt = s.now()

	s.mu.Lock()
	s.lastChannel = channel
	s.mu.Unlock()

	s.saveSnapshot(ctx, channelKey, channel)
	return channel, nil
}

func (s *Service) saveSnapshot(ctx context.Context, key string, v any) {
	if s.snapshots == nil {
		return
	}
	if err := s.snapshots.PutJSON(ctx, key, v); err != nil {
		slog.Warn("feed: snapshot write failed", "key", key, "error", err)
	}
}
