package server

import (
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/educheia/educheia/internal/httputil"
)

type spaFileServer struct {
	fileServer http.Handler
	fileSystem fs.FS
}

func newSPAFileServer(fsys fs.FS) *spaFileServer {
	return &spaFileServer{
		fileServer: http.FileServer(http.FS(fsys)),
		fileSystem: fsys,
	}
}

// ServeHTTP serves static files and falls back to index.html so that
// client-side routes and episode fragments load the app.
func (s *spaFileServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/")
	if path == "" || path == "index.html" {
		s.serveIndex(w, r)
		return
	}

	info, err := fs.Stat(s.fileSystem, path)
	if err != nil || info.IsDir() {
		s.serveIndex(w, r)
		return
	}

	if strings.HasPrefix(path, "assets/") {
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	}
	s.fileServer.ServeHTTP(w, r)
}

func (s *spaFileServer) serveIndex(w http.ResponseWriter, r *http.Request) {
	data, err := fs.ReadFile(s.fileSystem, "index.html")
	if err != nil {
		slog.Error("server: index.html missing", "error", err)
		http.NotFound(w, r)
		return
	}
	data = httputil.StampNonce(r.Context(), data)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
