package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const DefaultTimeout = 12 * time.Second

// Client talks to the worker that proxies the channel's video feed.
type Client struct {
	baseURL string
	cl      *http.Client
	timeout time.Duration
}

func NewClient(baseURL string, cl *http.Client, timeout time.Duration) *Client {
	if cl == nil {
		cl = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		cl:      cl,
		timeout: timeout,
	}
}

func (c *Client) FetchEpisodes(ctx context.Context) (*Episodes, error) {
	var raw struct {
		Items            []Item   `json:"items"`
		NumberOfEpisodes *float64 `json:"numberOfEpisodes"`
	}
	if err := c.getJSON(ctx, "/episodes", &raw); err != nil {
		return nil, err
	}
	episodes := &Episodes{Items: raw.Items}
	if episodes.Items == nil {
		episodes.Items = []Item{}
	}
	if raw.NumberOfEpisodes != nil {
		episodes.NumberOfEpisodes = int(*raw.NumberOfEpisodes)
	}
	return episodes, nil
}

func (c *Client) FetchChannel(ctx context.Context) (*Channel, error) {
	var raw struct {
		ChannelInfo *Channel `json:"channelInfo"`
	}
	if err := c.getJSON(ctx, "/channel", &raw); err != nil {
		return nil, err
	}
	if raw.ChannelInfo == nil {
		return &Channel{}, nil
	}
	return raw.ChannelInfo, nil
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.cl.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request %s: unexpected status code %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
