package feed

import "time"

type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

type ResourceID struct {
	VideoID string `json:"videoId"`
}

type Snippet struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	PublishedAt string               `json:"publishedAt"`
	Thumbnails  map[string]Thumbnail `json:"thumbnails,omitempty"`
	ResourceID  *ResourceID          `json:"resourceId,omitempty"`
}

type ContentDetails struct {
	VideoID          string `json:"videoId,omitempty"`
	VideoPublishedAt string `json:"videoPublishedAt,omitempty"`
	Duration         string `json:"duration,omitempty"`
}

// Item is one raw feed entry. The upstream serves playlist items (snippet
// plus contentDetails) but older caches hold a flat shape, so both are kept.
type Item struct {
	Snippet        *Snippet        `json:"snippet,omitempty"`
	ContentDetails *ContentDetails `json:"contentDetails,omitempty"`

	VideoID     string               `json:"videoId,omitempty"`
	Title       string               `json:"title,omitempty"`
	Description string               `json:"description,omitempty"`
	PublishedAt string               `json:"publishedAt,omitempty"`
	Thumbnails  map[string]Thumbnail `json:"thumbnails,omitempty"`
}

// Episodes is the episode feed as returned by the upstream worker.
type Episodes struct {
	Items            []Item    `json:"items"`
	NumberOfEpisodes int       `json:"numberOfEpisodes"`
	FetchedAt        time.Time `json:"fetchedAt"`
}

type Statistics struct {
	SubscriberCount string `json:"subscriberCount"`
	ViewCount       string `json:"viewCount"`
	VideoCount      string `json:"videoCount"`
}

type Channel struct {
	ID         string     `json:"id,omitempty"`
	Statistics Statistics `json:"statistics"`
	FetchedAt  time.Time  `json:"fetchedAt"`
}
