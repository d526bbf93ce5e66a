package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/msomdec/birthday-bot/internal/domain"
)

// AssistantConfig holds the settings a Session needs from configuration.
type AssistantConfig struct {
	// Channel is the name of the channel whose members form the directory.
	Channel string
	// Welcome posts an introduction to Channel after connecting.
	Welcome bool
	// PublicURL is the externally reachable base URL of the web
	// directory. Empty disables viewer links.
	PublicURL string
}

// Assistant is the unconnected bot. Call Connect to obtain a Session.
type Assistant struct {
	platform domain.Platform
	records  *RecordService
	calendar *Calendar
	viewer   *ViewerService
	config   AssistantConfig
}

// NewAssistant creates a new Assistant. viewer may be nil.
func NewAssistant(platform domain.Platform, records *RecordService, calendar *Calendar, viewer *ViewerService, config AssistantConfig) *Assistant {
	return &Assistant{
		platform: platform,
		records:  records,
		calendar: calendar,
		viewer:   viewer,
		config:   config,
	}
}

// Connect authenticates against the platform, resolves the directory
// channel and returns a ready Session.
func (a *Assistant) Connect(ctx context.Context) (*Session, error) {
	if a.config.Channel == "" {
		return nil, fmt.Errorf("%w: channel is required", domain.ErrConfiguration)
	}

	self, err := a.platform.Authenticate(ctx)
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	channelID, err := a.platform.FindChannel(ctx, strings.TrimPrefix(a.config.Channel, "#"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: channel %q not found", domain.ErrConfiguration, a.config.Channel)
		}
		return nil, fmt.Errorf("find channel %q: %w", a.config.Channel, err)
	}

	gate := NewGate(a.platform, a.records)
	directory := NewDirectoryService(a.platform, a.records, a.calendar, channelID)
	s := &Session{
		self:      self,
		channelID: channelID,
		platform:  a.platform,
		directory: directory,
		commands:  NewCommandService(a.platform, a.records, directory, gate, a.viewer, a.config.PublicURL),
		edits:     NewEditFlow(a.platform, a.records, directory, a.calendar, gate, self),
	}

	if a.config.Welcome {
		msg := domain.Message{Text: fmt.Sprintf(textWelcome, self.UserID)}
		if _, err := a.platform.PostMessage(ctx, channelID, msg); err != nil {
			return nil, fmt.Errorf("post welcome message: %w", err)
		}
	}

	slog.Info("connected", "user_id", self.UserID, "bot_id", self.BotID, "channel_id", channelID)
	return s, nil
}

// Session is a connected bot. It is safe for concurrent use.
type Session struct {
	self      domain.Identity
	channelID string
	platform  domain.Platform
	directory *DirectoryService
	commands  *CommandService
	edits     *EditFlow
}

// Identity returns the bot's own identity.
func (s *Session) Identity() domain.Identity { return s.self }

// ChannelID returns the directory channel's ID.
func (s *Session) ChannelID() string { return s.channelID }

// Directory returns the session's directory service.
func (s *Session) Directory() *DirectoryService { return s.directory }

// HandleEvent classifies event and runs the matching command or edit.
func (s *Session) HandleEvent(ctx context.Context, event domain.Event) error {
	if Ignorable(event, s.self) {
		return nil
	}

	channelID := event.ChannelID
	if event.Kind == domain.EventInteraction && channelID == "" {
		in, err := ParseInteraction(event.Payload)
		if err != nil {
			slog.Debug("interactive payload dropped", "error", err)
			return nil
		}
		channelID = in.ChannelID
	}
	if channelID == "" {
		return nil
	}

	members, err := s.platform.ListChannelMembers(ctx, channelID)
	if err != nil {
		return fmt.Errorf("list channel members: %w", err)
	}

	c := Classify(event, s.self, members)
	switch c.Kind {
	case PlainCommand:
		return s.commands.Handle(ctx, c.Command)
	case InteractivePayload:
		_, err := s.edits.Handle(ctx, c.Interaction)
		return err
	default:
		return nil
	}
}

// EventHandler handles one inbound event.
type EventHandler interface {
	HandleEvent(ctx context.Context, event domain.Event) error
}

// Dispatcher runs each event on its own goroutine so a slow platform
// call never holds up the inbound stream.
type Dispatcher struct {
	ctx     context.Context
	handler EventHandler
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher whose handlers run under ctx.
func NewDispatcher(ctx context.Context, handler EventHandler) *Dispatcher {
	return &Dispatcher{ctx: ctx, handler: handler}
}

// Dispatch handles event in the background. Errors are logged.
func (d *Dispatcher) Dispatch(event domain.Event) {
	eventID := uuid.NewString()
	d.wg.Go(func() {
		if err := d.handler.HandleEvent(d.ctx, event); err != nil {
			slog.Error("handle event", "event_id", eventID, "kind", event.Kind, "error", err)
		}
	})
}

// Wait blocks until every dispatched event has been handled.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
