package middleware

import (
	"net"
	"net/http"
	"strings"
)

// ExtractIP returns the client IP of the request without port.
//
// When trustProxy is set, X-Forwarded-For (first entry) and X-Real-IP are
// honoured. Only enable it behind a reverse proxy that overwrites these
// headers; otherwise clients can spoof them to dodge rate limiting.
func ExtractIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return xri
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
