package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/msomdec/birthday-bot/internal/domain"
	"github.com/msomdec/birthday-bot/internal/service"
	"github.com/msomdec/birthday-bot/internal/view"
)

// EntryLister supplies the current directory.
type EntryLister interface {
	Entries(ctx context.Context) ([]domain.DirectoryEntry, error)
}

// DirectoryHandler serves the read-only web directory.
type DirectoryHandler struct {
	entries EntryLister
}

// NewDirectoryHandler creates a new DirectoryHandler.
func NewDirectoryHandler(entries EntryLister) *DirectoryHandler {
	return &DirectoryHandler{entries: entries}
}

func (h *DirectoryHandler) rows(ctx context.Context) ([]view.Row, error) {
	entries, err := h.entries.Entries(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]view.Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, view.Row{
			Name:     e.Member.Label(),
			Date:     service.DescribeBirthday(e.Birthday),
			Complete: e.Birthday != nil && e.Birthday.Complete(),
		})
	}
	return rows, nil
}

// HandlePage renders the directory page.
// GET /birthdays
func (h *DirectoryHandler) HandlePage(w http.ResponseWriter, r *http.Request) {
	rows, err := h.rows(r.Context())
	if err != nil {
		slog.Error("load directory", "request_id", RequestIDFromContext(r.Context()), "viewer", ViewerFromContext(r.Context()), "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	view.DirectoryPage(rows).Render(r.Context(), w)
}

// HandleRefresh streams a fresh table fragment.
// GET /birthdays/refresh
func (h *DirectoryHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	rows, err := h.rows(r.Context())
	if err != nil {
		slog.Error("refresh directory", "request_id", RequestIDFromContext(r.Context()), "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	sse := datastar.NewSSE(w, r)
	if err := sse.PatchElementTempl(
		view.DirectoryTable(rows),
		datastar.WithSelectorID(view.TableID),
		datastar.WithModeInner(),
	); err != nil {
		slog.Error("patch directory table", "error", err)
	}
}
