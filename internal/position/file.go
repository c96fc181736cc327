package position

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// FileBackend keeps every key in a single JSON document on disk.
type FileBackend struct {
	path string

	mu   sync.RWMutex
	data map[string]json.RawMessage
}

// NewFileBackend loads path if it exists. A corrupt file starts empty.
func NewFileBackend(path string) (*FileBackend, error) {
	f := &FileBackend{path: path, data: make(map[string]json.RawMessage)}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create positions dir: %w", err)
	}
	raw, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return f, nil
	case err != nil:
		return nil, fmt.Errorf("read positions file: %w", err)
	}
	if err := json.Unmarshal(raw, &f.data); err != nil {
		slog.Warn("position: ignoring corrupt positions file", "path", path, "error", err)
		f.data = make(map[string]json.RawMessage)
	}
	return f, nil
}

func (f *FileBackend) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (f *FileBackend) Set(_ context.Context, key string, value []byte) error {
	if !json.Valid(value) {
		return fmt.Errorf("invalid json value for %s", key)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = append(json.RawMessage(nil), value...)
	return f.saveLocked()
}

func (f *FileBackend) saveLocked() error {
	tmp := f.path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create positions file: %w", err)
	}
	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(f.data); err != nil {
		_ = file.Close()
		return fmt.Errorf("encode positions: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close positions file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace positions file: %w", err)
	}
	return nil
}
