package slack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	slackapi "github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/msomdec/birthday-bot/internal/domain"
)

// Listener receives events over a Socket Mode connection.
type Listener struct {
	client *socketmode.Client
}

// NewListener creates a Listener. The Client must have been created with
// an app-level token.
func NewListener(c *Client) *Listener {
	return &Listener{client: socketmode.New(c.api)}
}

// Run connects and forwards events to dispatch until ctx is done.
// Every request is acknowledged before dispatch so slow handlers never
// trigger redelivery.
func (l *Listener) Run(ctx context.Context, dispatch func(domain.Event)) error {
	errc := make(chan error, 1)
	go func() {
		errc <- l.client.RunContext(ctx)
	}()

	for {
		select {
		case <-ctx.Done():
			<-errc
			return nil
		case err := <-errc:
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("socket mode: %w", err)
		case evt := <-l.client.Events:
			l.handle(evt, dispatch)
		}
	}
}

func (l *Listener) handle(evt socketmode.Event, dispatch func(domain.Event)) {
	switch evt.Type {
	case socketmode.EventTypeConnected:
		slog.Info("socket mode connected")
	case socketmode.EventTypeConnectionError:
		slog.Warn("socket mode connection error", "data", evt.Data)
	case socketmode.EventTypeInvalidAuth:
		slog.Error("socket mode rejected the app token")
	case socketmode.EventTypeEventsAPI:
		l.ack(evt)
		apiEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok {
			return
		}
		dispatch(FromEventsAPI(apiEvent))
	case socketmode.EventTypeInteractive:
		l.ack(evt)
		callback, ok := evt.Data.(slackapi.InteractionCallback)
		if !ok || callback.Type != slackapi.InteractionTypeInteractionMessage || evt.Request == nil {
			return
		}
		dispatch(FromInteraction(evt.Request.Payload))
	}
}

func (l *Listener) ack(evt socketmode.Event) {
	if evt.Request != nil {
		l.client.Ack(*evt.Request)
	}
}
