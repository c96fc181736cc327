package comment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// TokenFunc returns the bearer token of the signed-in user, or "" when
// nobody is signed in.
type TokenFunc func(ctx context.Context) (string, error)

// APIClient is a Store backed by the comment endpoints of the site API.
type APIClient struct {
	baseURL string
	client  *http.Client
	token   TokenFunc
}

func NewAPIClient(baseURL string, client *http.Client, token TokenFunc) *APIClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &APIClient{baseURL: strings.TrimRight(baseURL, "/"), client: client, token: token}
}

func (c *APIClient) commentsURL(episodeID string, commentID ...string) string {
	u := c.baseURL + "/api/episodes/" + url.PathEscape(episodeID) + "/comments"
	if len(commentID) > 0 {
		u += "/" + url.PathEscape(commentID[0])
	}
	return u
}

func (c *APIClient) List(ctx context.Context, episodeID string, limit int) ([]Comment, error) {
	var comments []Comment
	if err := c.do(ctx, http.MethodGet, c.commentsURL(episodeID), nil, &comments); err != nil {
		return nil, err
	}
	if limit > 0 && len(comments) > limit {
		comments = comments[:limit]
	}
	return comments, nil
}

func (c *APIClient) Create(ctx context.Context, cm Comment) (Comment, error) {
	var created Comment
	err := c.do(ctx, http.MethodPost, c.commentsURL(cm.EpisodeID), bodyRequest{Body: cm.Body}, &created)
	return created, err
}

func (c *APIClient) Get(ctx context.Context, episodeID, id string) (Comment, error) {
	comments, err := c.List(ctx, episodeID, PageSize)
	if err != nil {
		return Comment{}, err
	}
	for _, cm := range comments {
		if cm.ID == id {
			return cm, nil
		}
	}
	return Comment{}, ErrNotFound
}

func (c *APIClient) UpdateBody(ctx context.Context, episodeID, id, body string) error {
	return c.do(ctx, http.MethodPatch, c.commentsURL(episodeID, id), bodyRequest{Body: body}, nil)
}

func (c *APIClient) Delete(ctx context.Context, episodeID, id string) error {
	return c.do(ctx, http.MethodDelete, c.commentsURL(episodeID, id), nil, nil)
}

func (c *APIClient) do(ctx context.Context, method, target string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != nil {
		token, err := c.token(ctx)
		if err != nil {
			return fmt.Errorf("get token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	switch resp.StatusCode {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusUnauthorized:
		return ErrSignInRequired
	}
	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return fmt.Errorf("%s %s: status %d: %s", method, target, resp.StatusCode, e.Error)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
