package httpapi

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/avolkovs/runbase/internal/logging"
	"github.com/avolkovs/runbase/internal/server/accounts"
)

type ctxKey int

const (
	ctxKeyUser ctxKey = iota
	ctxKeyTokenKey
)

func userFromContext(ctx context.Context) *accounts.User {
	u, _ := ctx.Value(ctxKeyUser).(*accounts.User)
	return u
}

func tokenKeyFromContext(ctx context.Context) string {
	k, _ := ctx.Value(ctxKeyTokenKey).(string)
	return k
}

// requireAuth authenticates the request via the Authorization header
// ("Token <key>") and stores the user on the request context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeDetail(w, http.StatusUnauthorized, msgNoCredentials)
			return
		}

		scheme, key, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Token") || key == "" {
			writeDetail(w, http.StatusUnauthorized, msgInvalidToken)
			return
		}

		user, err := s.accounts.Authenticate(r.Context(), key)
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, msgInvalidToken)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyUser, user)
		ctx = context.WithValue(ctx, ctxKeyTokenKey, key)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// allowedHosts rejects requests whose Host header is not in the
// configured list. An empty list or a "*" entry allows everything.
func allowedHosts(hosts []string) func(http.Handler) http.Handler {
	allowAll := len(hosts) == 0
	allowed := map[string]bool{}
	for _, h := range hosts {
		if h == "*" {
			allowAll = true
		}
		allowed[strings.ToLower(h)] = true
	}

	return func(next http.Handler) http.Handler {
		if allowAll {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := r.Host
			if h, _, err := net.SplitHostPort(host); err == nil {
				host = h
			}
			if !allowed[strings.ToLower(host)] {
				writeDetail(w, http.StatusBadRequest, "Invalid host header.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// sslRedirect sends plain-HTTP requests to the HTTPS equivalent. The
// original scheme is taken from X-Forwarded-Proto since the server runs
// behind a proxy in deployed environments.
func sslRedirect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		proto := r.Header.Get("X-Forwarded-Proto")
		if proto == "" && r.TLS == nil {
			proto = "http"
		}
		if proto == "http" {
			target := "https://" + r.Host + r.URL.RequestURI()
			http.Redirect(w, r, target, http.StatusMovedPermanently)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// requestLogger logs one line per request after it completes.
func requestLogger(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info(r.Context(), "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start).String(),
			)
		})
	}
}

// recoverer turns panics into 500 responses instead of dropped
// connections.
func recoverer(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error(r.Context(), "panic serving request", "path", r.URL.Path, "panic", rec)
					writeDetail(w, http.StatusInternalServerError, "Internal server error.")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
