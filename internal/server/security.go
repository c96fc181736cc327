package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/educheia/educheia/internal/httputil"
)

const (
	youtubeFrames  = "https://www.youtube.com https://www.youtube-nocookie.com"
	youtubeScripts = "https://www.youtube.com https://s.ytimg.com"
	youtubeImages  = "https://i.ytimg.com https://img.youtube.com"
)

type SecurityConfig struct {
	BaseURL string
	// ConnectSources are extra origins the page may fetch from.
	ConnectSources []string
}

func securityHeaders(cfg SecurityConfig) func(http.Handler) http.Handler {
	strictTransport := strings.HasPrefix(cfg.BaseURL, "https://")

	connectSuffix := ""
	if len(cfg.ConnectSources) > 0 {
		connectSuffix = " " + strings.Join(cfg.ConnectSources, " ")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			nonce, err := httputil.NewNonce()
			if err != nil {
				slog.Error("server: csp nonce", "error", err)
			}
			ctx := httputil.WithNonce(r.Context(), nonce)

			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "SAMEORIGIN")
			w.Header().Set("Permissions-Policy", `autoplay=(self "https://www.youtube.com"), fullscreen=(self "https://www.youtube.com"), camera=(), microphone=(), geolocation=()`)

			csp := fmt.Sprintf(
				"default-src 'self'; img-src 'self' data: %s; script-src 'self' 'nonce-%s' %s; style-src 'self' 'nonce-%s'; frame-src %s; connect-src 'self'%s; frame-ancestors 'self';",
				youtubeImages, nonce, youtubeScripts, nonce, youtubeFrames, connectSuffix,
			)
			w.Header().Set("Content-Security-Policy", csp)

			if strictTransport {
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
