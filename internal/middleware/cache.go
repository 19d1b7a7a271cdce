package middleware

import (
	"net/http"
	"strings"
)

// CacheControl sets Cache-Control headers by route:
// writes and per-user reads are never cached, aggregates are cached briefly.
func CacheControl(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", cachePolicy(r))
		next.ServeHTTP(w, r)
	})
}

func cachePolicy(r *http.Request) string {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return "no-store"
	}

	path := r.URL.Path
	switch {
	case strings.HasPrefix(path, "/api/v1/images/"):
		// image keys are content-unique
		return "public, max-age=31536000, immutable"
	case strings.HasPrefix(path, "/swagger/"):
		return "public, max-age=3600"
	case path == "/metrics":
		return "no-store"
	case r.Header.Get("Authorization") != "",
		strings.HasSuffix(path, "/votes"),
		strings.HasSuffix(path, "/balance"):
		return "private, no-cache"
	case strings.HasPrefix(path, "/api/"):
		return "public, max-age=60, must-revalidate"
	default:
		return "no-cache"
	}
}
