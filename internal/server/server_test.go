package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/educheia/educheia/internal/auth"
	"github.com/educheia/educheia/internal/clock"
	"github.com/educheia/educheia/internal/comment"
	"github.com/educheia/educheia/internal/feed"
	"github.com/educheia/educheia/internal/position"
	"github.com/educheia/educheia/internal/server"
)

const testJWTSecret = "test-secret"

type mockPinger struct{ err error }

func (m *mockPinger) Ping(ctx context.Context) error { return m.err }

type fakeFeed struct {
	episodes *feed.Episodes
	channel  *feed.Channel
	err      error
}

func (f *fakeFeed) Episodes(context.Context) (*feed.Episodes, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.episodes, nil
}

func (f *fakeFeed) Channel(context.Context) (*feed.Channel, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.channel, nil
}

func sampleFeed() *fakeFeed {
	return &fakeFeed{
		episodes: &feed.Episodes{
			NumberOfEpisodes: 3,
			Items: []feed.Item{
				{
					Snippet: &feed.Snippet{
						Title:       "Maria Ionescu: educația viitorului | Educheia",
						Description: "Invitata noastră https://www.facebook.com/maria.ionescu.",
						PublishedAt: "2024-03-05T10:00:00Z",
						Thumbnails:  map[string]feed.Thumbnail{"high": {URL: "https://i.ytimg.com/vi/v3/hq.jpg"}},
						ResourceID:  &feed.ResourceID{VideoID: "v3"},
					},
					ContentDetails: &feed.ContentDetails{Duration: "PT1H2M3S"},
				},
				{VideoID: "v2", Title: "Trailer Educheia", PublishedAt: "2024-02-01T10:00:00Z"},
				{VideoID: "v1", Title: "Andrei Pop: AI în școli", PublishedAt: "2024-01-01T10:00:00Z"},
			},
		},
		channel: &feed.Channel{Statistics: feed.Statistics{SubscriberCount: "1500", ViewCount: "123456", VideoCount: "42"}},
	}
}

func newServer(t *testing.T, cfg server.Config) *server.Server {
	t.Helper()
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = testJWTSecret
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	}
	srv := server.New(cfg)
	t.Cleanup(srv.Close)
	return srv
}

func fullServer(t *testing.T) *server.Server {
	return newServer(t, server.Config{
		Pinger:    &mockPinger{},
		Feed:      sampleFeed(),
		Comments:  comment.NewMemoryStore(nil),
		Positions: position.New(position.NewMemoryBackend()),
		WebFS:     testWebFS(),
	})
}

func testWebFS() fstest.MapFS {
	return fstest.MapFS{
		"index.html":     {Data: []byte(`<html><script nonce="{{CSP_NONCE}}" src="/assets/app.js"></script></html>`)},
		"assets/app.js":  {Data: []byte("console.log('app')")},
		"assets/app.css": {Data: []byte("body{}")},
	}
}

func token(t *testing.T, uid string) string {
	t.Helper()
	tok, err := auth.GenerateAccessToken(testJWTSecret, auth.Profile{UserID: uid, Name: "Test"})
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func executeRequest(srv http.Handler, method, path, bearer, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %s)", err, rec.Body.String())
	}
	return v
}

func TestHealth(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		rec := executeRequest(fullServer(t), http.MethodGet, "/api/health", "", "")
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"ok"`) {
			t.Fatalf("expected healthy response, got %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("database down", func(t *testing.T) {
		srv := newServer(t, server.Config{Pinger: &mockPinger{err: errors.New("down")}})
		rec := executeRequest(srv, http.MethodGet, "/api/health", "", "")
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
		}
	})
}

type episodesBody struct {
	Episodes []struct {
		ID            string `json:"id"`
		DisplayNumber int    `json:"displayNumber"`
		CoverURL      string `json:"coverUrl"`
		Date          string `json:"date"`
		DurationLabel string `json:"durationLabel"`
	} `json:"episodes"`
	NumberOfEpisodes int    `json:"numberOfEpisodes"`
	Order            string `json:"order"`
	Placeholder      bool   `json:"placeholder"`
	Latest           *struct {
		ID string `json:"id"`
	} `json:"latest"`
}

func TestEpisodes(t *testing.T) {
	srv := fullServer(t)

	body := decode[episodesBody](t, executeRequest(srv, http.MethodGet, "/api/episodes", "", ""))
	if body.Order != "desc" || body.NumberOfEpisodes != 3 || body.Placeholder {
		t.Fatalf("unexpected envelope: %+v", body)
	}
	if len(body.Episodes) != 3 || body.Episodes[0].ID != "v3" || body.Episodes[0].DisplayNumber != 3 {
		t.Fatalf("expected newest first numbered 3, got %+v", body.Episodes)
	}
	first := body.Episodes[0]
	if first.CoverURL != "https://i.ytimg.com/vi/v3/hq.jpg" || first.Date != "5 martie 2024" || first.DurationLabel != "1:02:03" {
		t.Errorf("unexpected first episode: %+v", first)
	}
	if body.Latest == nil || body.Latest.ID != "v3" {
		t.Errorf("expected latest v3, got %+v", body.Latest)
	}

	asc := decode[episodesBody](t, executeRequest(srv, http.MethodGet, "/api/episodes?order=asc", "", ""))
	if asc.Order != "asc" || asc.Episodes[0].ID != "v1" || asc.Episodes[0].DisplayNumber != 1 {
		t.Errorf("expected oldest first numbered 1, got %+v", asc.Episodes)
	}
	if asc.Latest == nil || asc.Latest.ID != "v3" {
		t.Errorf("expected latest independent of order, got %+v", asc.Latest)
	}
}

func TestEpisodesPlaceholderOnFeedFailure(t *testing.T) {
	srv := newServer(t, server.Config{Feed: &fakeFeed{err: feed.ErrUnavailable}})

	rec := executeRequest(srv, http.MethodGet, "/api/episodes", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body := decode[episodesBody](t, rec)
	if !body.Placeholder || len(body.Episodes) != 8 {
		t.Errorf("expected 8 placeholders, got %d (placeholder=%v)", len(body.Episodes), body.Placeholder)
	}
}

func TestChannel(t *testing.T) {
	rec := executeRequest(fullServer(t), http.MethodGet, "/api/channel", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body := decode[map[string]string](t, rec)
	if body["subscriberLabel"] != "1.5K" || body["viewLabel"] != "123K" || body["videoLabel"] != "42" {
		t.Errorf("unexpected labels: %v", body)
	}

	down := newServer(t, server.Config{Feed: &fakeFeed{err: feed.ErrUnavailable}})
	if rec := executeRequest(down, http.MethodGet, "/api/channel", "", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", rec.Code)
	}
}

func TestGuests(t *testing.T) {
	srv := fullServer(t)

	rec := executeRequest(srv, http.MethodGet, "/api/guests?limit=1", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body := decode[struct {
		Guests []struct {
			Name  string `json:"name"`
			Topic string `json:"topic"`
			Link  string `json:"link"`
		} `json:"guests"`
		Count int `json:"count"`
	}](t, rec)
	if body.Count != 2 {
		t.Errorf("expected 2 unique guests, got %d", body.Count)
	}
	if len(body.Guests) != 1 || body.Guests[0].Name != "Maria Ionescu" {
		t.Fatalf("expected the latest guest only, got %+v", body.Guests)
	}
	if body.Guests[0].Link != "https://www.facebook.com/maria.ionescu" {
		t.Errorf("expected profile link from description, got %q", body.Guests[0].Link)
	}

	if rec := executeRequest(srv, http.MethodGet, "/api/guests?limit=abc", "", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for bad limit, got %d", rec.Code)
	}
}

func TestCommentsRoundTrip(t *testing.T) {
	srv := fullServer(t)
	tok := token(t, "u-1")

	rec := executeRequest(srv, http.MethodPost, "/api/episodes/v3/comments", tok, `{"body":"Excelent"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
	created := decode[comment.Comment](t, rec)

	if rec := executeRequest(srv, http.MethodPost, "/api/episodes/v3/comments", "", `{"body":"anonim"}`); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401 for anonymous post, got %d", rec.Code)
	}
	if rec := executeRequest(srv, http.MethodDelete, "/api/episodes/v3/comments/"+created.ID, token(t, "u-2"), ""); rec.Code != http.StatusForbidden {
		t.Errorf("expected status 403 for another user, got %d", rec.Code)
	}

	listed := decode[[]comment.Comment](t, executeRequest(srv, http.MethodGet, "/api/episodes/v3/comments", "", ""))
	if len(listed) != 1 || listed[0].Body != "Excelent" {
		t.Errorf("expected the created comment, got %+v", listed)
	}
}

func TestPositions(t *testing.T) {
	srv := fullServer(t)
	tok := token(t, "u-1")

	if rec := executeRequest(srv, http.MethodGet, "/api/positions/v3", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}

	rec := executeRequest(srv, http.MethodPut, "/api/positions/v3", tok, `{"seconds":42.9}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d: %s", rec.Code, rec.Body.String())
	}

	got := decode[position.Record](t, executeRequest(srv, http.MethodGet, "/api/positions/v3", tok, ""))
	if got.Seconds != 42 {
		t.Errorf("expected 42 whole seconds, got %d", got.Seconds)
	}

	other := decode[position.Record](t, executeRequest(srv, http.MethodGet, "/api/positions/v3", token(t, "u-2"), ""))
	if other.Seconds != 0 {
		t.Errorf("expected positions scoped per user, got %d", other.Seconds)
	}

	for _, bad := range []string{`{"seconds":-1}`, `{}`, `nope`} {
		if rec := executeRequest(srv, http.MethodPut, "/api/positions/v3", tok, bad); rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400 for %s, got %d", bad, rec.Code)
		}
	}
}

func TestLimits(t *testing.T) {
	body := decode[map[string]int](t, executeRequest(fullServer(t), http.MethodGet, "/api/limits", "", ""))
	if body["commentBody"] != 1000 || body["authorName"] != 100 {
		t.Errorf("unexpected limits: %v", body)
	}
}

func TestSPA(t *testing.T) {
	srv := fullServer(t)

	t.Run("index injects nonce", func(t *testing.T) {
		rec := executeRequest(srv, http.MethodGet, "/", "", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if strings.Contains(rec.Body.String(), "{{CSP_NONCE}}") {
			t.Error("expected nonce placeholder replaced")
		}
		if rec.Header().Get("Cache-Control") != "no-cache" {
			t.Errorf("expected no-cache on index, got %q", rec.Header().Get("Cache-Control"))
		}
	})

	t.Run("static asset", func(t *testing.T) {
		rec := executeRequest(srv, http.MethodGet, "/assets/app.js", "", "")
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "console.log") {
			t.Fatalf("expected asset served, got %d", rec.Code)
		}
		if !strings.Contains(rec.Header().Get("Cache-Control"), "immutable") {
			t.Errorf("expected immutable caching for assets, got %q", rec.Header().Get("Cache-Control"))
		}
	})

	t.Run("unknown path falls back to index", func(t *testing.T) {
		rec := executeRequest(srv, http.MethodGet, "/despre", "", "")
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "<html>") {
			t.Fatalf("expected index fallback, got %d %s", rec.Code, rec.Body.String())
		}
	})
}

func TestCORS(t *testing.T) {
	srv := newServer(t, server.Config{Feed: sampleFeed(), CORSOrigins: []string{"https://educheia.ro"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/episodes", nil)
	req.Header.Set("Origin", "https://educheia.ro")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://educheia.ro" {
		t.Errorf("expected allowed origin echoed, got %q", got)
	}
}

func TestRateLimit(t *testing.T) {
	srv := newServer(t, server.Config{})

	var last int
	for i := 0; i < 25; i++ {
		last = executeRequest(srv, http.MethodGet, "/api/limits", "", "").Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("expected status 429 after burst, got %d", last)
	}
}
