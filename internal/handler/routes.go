package handler

import (
	"net/http"

	"github.com/msomdec/birthday-bot/internal/service"
)

// Routes holds the dependencies of every HTTP route.
type Routes struct {
	// Platform serves the signed Slack endpoints; nil leaves them
	// unregistered, for Socket Mode only deployments.
	Platform *PlatformHandler
	Limiter  *service.TokenBucket
	// Viewer and Directory enable the web directory when both are set.
	Viewer    *service.ViewerService
	Directory EntryLister
}

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, rt Routes) {
	mux.HandleFunc("GET /healthz", HandleHealthz)
	mux.HandleFunc("GET /{$}", HandleHome)

	limited := func(h http.HandlerFunc) http.Handler {
		if rt.Limiter == nil {
			return h
		}
		return RateLimit(rt.Limiter, h)
	}
	if rt.Platform != nil {
		mux.Handle("POST /birthday/interactivity", limited(rt.Platform.HandleInteractivity))
		mux.Handle("POST /birthday/events", limited(rt.Platform.HandleEvents))
		mux.Handle("POST /birthday/cron", limited(rt.Platform.HandleCron))
	}

	if rt.Viewer != nil && rt.Directory != nil {
		dir := NewDirectoryHandler(rt.Directory)
		mux.Handle("GET /birthdays", RequireViewer(rt.Viewer, http.HandlerFunc(dir.HandlePage)))
		mux.Handle("GET /birthdays/refresh", RequireViewer(rt.Viewer, http.HandlerFunc(dir.HandleRefresh)))
	}
}
