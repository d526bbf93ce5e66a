package handler

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/msomdec/birthday-bot/internal/service"
	"github.com/msomdec/birthday-bot/internal/view"
)

type contextKey string

const (
	viewerContextKey    contextKey = "viewer"
	requestIDContextKey contextKey = "request_id"
)

const viewerCookie = "viewer_token"

// ViewerFromContext returns the member ID the viewer token was issued
// to, or "" when the request carries none.
func ViewerFromContext(ctx context.Context) string {
	id, _ := ctx.Value(viewerContextKey).(string)
	return id
}

// RequestIDFromContext returns the ID assigned by RequestID.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}

// RequireViewer protects the web directory. A valid token in the
// "token" query parameter is moved into an HttpOnly cookie; later
// requests authenticate with the cookie alone. Returns 401 otherwise.
func RequireViewer(viewer *service.ViewerService, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		fromQuery := token != ""
		if !fromQuery {
			if cookie, err := r.Cookie(viewerCookie); err == nil {
				token = cookie.Value
			}
		}

		userID, err := viewer.Validate(token)
		if err != nil {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusUnauthorized)
			view.ErrorPage(http.StatusUnauthorized, "Link Expired", "Ask the bot for a new link with the link command.").Render(r.Context(), w)
			return
		}

		if fromQuery {
			http.SetCookie(w, &http.Cookie{
				Name:     viewerCookie,
				Value:    token,
				Path:     "/birthdays",
				HttpOnly: true,
				Secure:   r.TLS != nil,
				SameSite: http.SameSiteLaxMode,
				MaxAge:   int(service.ViewerTokenTTL / time.Second),
			})
		}

		ctx := context.WithValue(r.Context(), viewerContextKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RateLimit rejects requests from a client IP that has exhausted its
// bucket with 429.
func RateLimit(limiter *service.TokenBucket, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow(clientIP(r)) {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RequestID tags each request with a fresh ID, echoed in the
// X-Request-ID header, and logs the request once it completes.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-ID", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestIDContextKey, id)))

		slog.Debug("request",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
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

// Flush lets SSE responses stream through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// SecurityHeaders sets conservative browser security headers on every
// response. Datastar compiles its expressions with Function, so script-src
// has to admit 'unsafe-eval'.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", "default-src 'self'; script-src 'self' 'unsafe-eval' https://cdn.jsdelivr.net; style-src 'self' 'unsafe-inline'; connect-src 'self'")
		next.ServeHTTP(w, r)
	})
}
