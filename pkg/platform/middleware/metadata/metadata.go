package metadata

import (
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"discovery/pkg/requestcontext"
)

// ClientMetadata records the client IP, User-Agent and crawler detection in
// the request context. Apply early in the chain.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua := r.Header.Get("User-Agent")
		ctx := requestcontext.WithClient(r.Context(), requestcontext.Client{
			IP:        ClientIPFromRequest(r),
			UserAgent: ua,
			Bot:       IsBot(ua),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// IsBot reports whether a User-Agent belongs to a crawler.
func IsBot(userAgent string) bool {
	if userAgent == "" {
		return false
	}
	return useragent.New(userAgent).Bot()
}

// ClientIPFromRequest extracts the client IP, preferring proxy headers.
func ClientIPFromRequest(r *http.Request) string {
	// X-Forwarded-For is "client, proxy1, proxy2".
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if addr := r.RemoteAddr; addr != "" {
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return addr[:idx]
		}
		return addr
	}
	return "unknown"
}
