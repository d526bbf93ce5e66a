package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	slackapi "github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	"github.com/msomdec/birthday-bot/internal/domain"
	"github.com/msomdec/birthday-bot/internal/platform/slack"
)

const maxPlatformBody = 1 << 20

// PlatformHandler receives events pushed by the chat platform over HTTP.
type PlatformHandler struct {
	dispatch      func(domain.Event)
	signingSecret string
}

// NewPlatformHandler creates a PlatformHandler. Every request must carry
// a valid signature for signingSecret; with an empty secret all
// requests are rejected.
func NewPlatformHandler(dispatch func(domain.Event), signingSecret string) *PlatformHandler {
	return &PlatformHandler{dispatch: dispatch, signingSecret: signingSecret}
}

// readVerified reads the request body and checks the platform signature.
// It writes the error response itself and returns false on failure.
func (h *PlatformHandler) readVerified(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPlatformBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return nil, false
	}
	if h.signingSecret == "" {
		slog.Warn("platform request rejected: no signing secret configured", "request_id", RequestIDFromContext(r.Context()))
		writeError(w, http.StatusUnauthorized, "invalid signature")
		return nil, false
	}

	sv, err := slackapi.NewSecretsVerifier(r.Header, h.signingSecret)
	if err != nil {
		slog.Warn("platform request rejected", "request_id", RequestIDFromContext(r.Context()), "error", err)
		writeError(w, http.StatusUnauthorized, "invalid signature")
		return nil, false
	}
	if _, err := sv.Write(body); err != nil {
		writeError(w, http.StatusInternalServerError, "verify signature")
		return nil, false
	}
	if err := sv.Ensure(); err != nil {
		slog.Warn("platform request rejected", "request_id", RequestIDFromContext(r.Context()), "error", err)
		writeError(w, http.StatusUnauthorized, "invalid signature")
		return nil, false
	}
	return body, true
}

// HandleInteractivity accepts interactive payloads (widget selections).
// POST /birthday/interactivity
func (h *PlatformHandler) HandleInteractivity(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readVerified(w, r)
	if !ok {
		return
	}
	form, err := url.ParseQuery(string(body))
	if err != nil || form.Get("payload") == "" {
		writeError(w, http.StatusBadRequest, "missing payload")
		return
	}

	h.dispatch(slack.FromInteraction([]byte(form.Get("payload"))))
	w.WriteHeader(http.StatusOK)
}

// HandleEvents accepts Events API callbacks and answers the URL
// verification handshake.
// POST /birthday/events
func (h *PlatformHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readVerified(w, r)
	if !ok {
		return
	}

	evt, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		slog.Debug("unparseable event", "request_id", RequestIDFromContext(r.Context()), "error", err)
		writeError(w, http.StatusBadRequest, "malformed event")
		return
	}

	if evt.Type == slackevents.URLVerification {
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			writeError(w, http.StatusBadRequest, "malformed challenge")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"challenge": challenge.Challenge})
		return
	}

	h.dispatch(slack.FromEventsAPI(evt))
	w.WriteHeader(http.StatusOK)
}

// HandleCron is the scheduled reminder hook. Reminders are not sent yet;
// the endpoint exists so schedulers can be configured ahead of time.
// POST /birthday/cron
func (h *PlatformHandler) HandleCron(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
