package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// RequestLogger logs method, path, status, duration and the client's X-Request-ID.
func RequestLogger(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start),
				"request_id", r.Header.Get("X-Request-ID"),
			)
		})
	}
}

// RequireAuth rejects requests without a valid bearer token, except for the listed "METHOD /path" routes.
func RequireAuth(issuer *TokenIssuer, public ...string) Middleware {
	open := make(map[string]bool, len(public))
	for _, route := range public {
		open[route] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if open[r.Method+" "+r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			userID, err := issuer.Verify(raw)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			next.ServeHTTP(w, r.WithContext(withSubject(r.Context(), userID)))
		})
	}
}
