package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/educheia/educheia/internal/feed"
)

const (
	PlaceholderCount   = 8
	placeholderVideoID = "jNQXAC9IVRw"
	logoPath           = "/assets/logo.png"
)

type SortOrder int

const (
	Descending SortOrder = iota
	Ascending
)

func (o SortOrder) String() string {
	if o == Ascending {
		return "asc"
	}
	return "desc"
}

// ParseSortOrder accepts "asc"/"desc" and falls back to Descending.
func ParseSortOrder(s string) SortOrder {
	if strings.EqualFold(strings.TrimSpace(s), "asc") {
		return Ascending
	}
	return Descending
}

// DisplayNumber is the human-facing ordinal of the card at index.
func DisplayNumber(index int, order SortOrder, total int) int {
	if order == Descending {
		return total - index
	}
	return index + 1
}

type Episode struct {
	ID            string
	VideoID       string
	Title         string
	Description   string
	PublishedAt   time.Time
	Thumbnails    map[string]feed.Thumbnail
	Duration      string
	DisplayNumber int
	Placeholder   bool
}

// CoverURL picks the largest available thumbnail.
func (e Episode) CoverURL() string {
	for _, k := range []string{"maxres", "high", "medium"} {
		if t, ok := e.Thumbnails[k]; ok && t.URL != "" {
			return t.URL
		}
	}
	if e.VideoID != "" {
		return "https://img.youtube.com/vi/" + e.VideoID + "/hqdefault.jpg"
	}
	return logoPath
}

type Source interface {
	Episodes(ctx context.Context) (*feed.Episodes, error)
}

// Catalog holds the ordered episode list. Episodes are immutable after Load
// apart from their display numbers.
type Catalog struct {
	src Source

	mu          sync.RWMutex
	episodes    []Episode
	order       SortOrder
	total       int
	placeholder bool
	raw         []feed.Item
}

func New(src Source) *Catalog {
	return &Catalog{src: src, order: Descending}
}

// Load fetches and normalizes the feed. It never fails: a fetch error yields
// the placeholder set.
func (c *Catalog) Load(ctx context.Context) []Episode {
	var (
		episodes []Episode
		raw      []feed.Item
		total    int
		fallback bool
	)

	data, err := c.fetch(ctx)
	if err != nil {
		slog.Warn("catalog: feed fetch failed, using placeholders", "error", err)
		episodes = Placeholders(time.Now())
		fallback = true
	} else {
		raw = data.Items
		episodes = Normalize(data.Items)
		total = data.NumberOfEpisodes
	}
	if total <= 0 {
		total = len(episodes)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.episodes = episodes
	c.raw = raw
	c.total = total
	c.placeholder = fallback
	if !fallback {
		c.sortLocked()
	} else {
		c.numberLocked()
	}
	return c.snapshotLocked()
}

func (c *Catalog) fetch(ctx context.Context) (*feed.Episodes, error) {
	if c.src == nil {
		return nil, fmt.Errorf("no episode source")
	}
	data, err := c.src.Episodes(ctx)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("empty feed response")
	}
	return data, nil
}

// SetSortOrder re-sorts the full list and recomputes every display number.
func (c *Catalog) SetSortOrder(order SortOrder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setOrderLocked(order)
}

// ToggleSortOrder flips the order and re-sorts in one step.
func (c *Catalog) ToggleSortOrder() SortOrder {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := Ascending
	if c.order == Ascending {
		next = Descending
	}
	c.setOrderLocked(next)
	return next
}

func (c *Catalog) setOrderLocked(order SortOrder) {
	c.order = order
	if c.placeholder {
		c.numberLocked()
		return
	}
	c.sortLocked()
}

func (c *Catalog) Order() SortOrder {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.order
}

// Episodes returns a copy of the current ordered list.
func (c *Catalog) Episodes() []Episode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

func (c *Catalog) Find(id string) (Episode, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.episodes {
		if e.ID == id {
			return e, true
		}
	}
	return Episode{}, false
}

func (c *Catalog) IndexOf(id string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i, e := range c.episodes {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// NumberOfEpisodes is the upstream count, or the list length when unknown.
func (c *Catalog) NumberOfEpisodes() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.total
}

func (c *Catalog) IsPlaceholder() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.placeholder
}

// Items returns the raw feed items of the last successful load, in feed order.
func (c *Catalog) Items() []feed.Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]feed.Item(nil), c.raw...)
}

func (c *Catalog) sortLocked() {
	if c.order == Ascending {
		sort.SliceStable(c.episodes, func(i, j int) bool {
			return c.episodes[i].PublishedAt.Before(c.episodes[j].PublishedAt)
		})
	} else {
		sort.SliceStable(c.episodes, func(i, j int) bool {
			return c.episodes[i].PublishedAt.After(c.episodes[j].PublishedAt)
		})
	}
	c.numberLocked()
}

func (c *Catalog) numberLocked() {
	n := len(c.episodes)
	for i := range c.episodes {
		c.episodes[i].DisplayNumber = DisplayNumber(i, c.order, n)
	}
}

func (c *Catalog) snapshotLocked() []Episode {
	out := make([]Episode, len(c.episodes))
	copy(out, c.episodes)
	return out
}

// Normalize converts raw feed items into episodes, skipping items that carry
// no video id.
func Normalize(items []feed.Item) []Episode {
	episodes := make([]Episode, 0, len(items))
	for i, item := range items {
		e, ok := normalizeItem(item)
		if !ok {
			slog.Debug("catalog: skipping item without video id", "index", i)
			continue
		}
		episodes = append(episodes, e)
	}
	return episodes
}

func normalizeItem(item feed.Item) (Episode, bool) {
	e := Episode{
		Title:       item.Title,
		Description: item.Description,
		Thumbnails:  item.Thumbnails,
	}
	published := item.PublishedAt
	videoID := item.VideoID

	if s := item.Snippet; s != nil {
		e.Title = s.Title
		e.Description = s.Description
		e.Thumbnails = s.Thumbnails
		published = s.PublishedAt
		if s.ResourceID != nil && s.ResourceID.VideoID != "" {
			videoID = s.ResourceID.VideoID
		}
	}
	if cd := item.ContentDetails; cd != nil {
		if videoID == "" {
			videoID = cd.VideoID
		}
		if published == "" {
			published = cd.VideoPublishedAt
		}
		e.Duration = cd.Duration
	}
	if videoID == "" {
		return Episode{}, false
	}
	e.ID = videoID
	e.VideoID = videoID
	if t, err := time.Parse(time.RFC3339, published); err == nil {
		e.PublishedAt = t
	}
	return e, true
}

// Placeholders is the synthetic set shown when the feed cannot be loaded.
func Placeholders(now time.Time) []Episode {
	episodes := make([]Episode, PlaceholderCount)
	for i := range episodes {
		episodes[i] = Episode{
			ID:          fmt.Sprintf("placeholder-%d", i+1),
			VideoID:     placeholderVideoID,
			Title:       fmt.Sprintf("Perspective Digitale: Episodul %d", i+1),
			Description: "O discuție despre viitorul tehnologiei și impactul inteligenței artificiale în educație.",
			PublishedAt: now,
			Placeholder: true,
		}
	}
	return episodes
}
