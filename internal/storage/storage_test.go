package storage_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/educheia/educheia/internal/storage"
)

// fakeS3 serves path-style object requests from memory.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch r.Method {
	case http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		f.objects[r.URL.Path] = data
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		data, ok := f.objects[r.URL.Path]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(data)
	case http.MethodDelete:
		delete(f.objects, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusOK)
	}
}

func newTestStorage(t *testing.T) (*storage.Storage, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: map[string][]byte{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	s, err := storage.New(context.Background(), storage.Config{
		Endpoint:  srv.URL,
		Bucket:    "educheia",
		AccessKey: "test",
		SecretKey: "test",
		Prefix:    "snapshots/",
	})
	if err != nil {
		t.Fatalf("expected no error creating storage client, got: %v", err)
	}
	return s, fake
}

func TestNewRequiresBucket(t *testing.T) {
	_, err := storage.New(context.Background(), storage.Config{Endpoint: "http://localhost:9000"})
	if err == nil {
		t.Fatal("expected error without bucket")
	}
}

func TestPutAndGetJSON(t *testing.T) {
	s, fake := newTestStorage(t)
	ctx := context.Background()

	type snapshot struct {
		Items []string `json:"items"`
	}
	if err := s.PutJSON(ctx, "episodes", snapshot{Items: []string{"a", "b"}}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, ok := fake.objects["/educheia/snapshots/episodes"]; !ok {
		t.Fatalf("expected object under prefixed key, got %v", fake.objects)
	}

	var got snapshot
	if err := s.GetJSON(ctx, "episodes", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Items) != 2 || got.Items[1] != "b" {
		t.Errorf("unexpected snapshot: %+v", got)
	}
}

func TestGetJSONMissing(t *testing.T) {
	s, _ := newTestStorage(t)

	var v map[string]any
	err := s.GetJSON(context.Background(), "channel", &v)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteObject(t *testing.T) {
	s, fake := newTestStorage(t)
	ctx := context.Background()

	_ = s.PutJSON(ctx, "episodes", []int{1})
	if err := s.DeleteObject(ctx, "episodes"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(fake.objects) != 0 {
		t.Errorf("expected object removed, got %v", fake.objects)
	}
}
