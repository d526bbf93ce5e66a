package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/msomdec/birthday-bot/internal/domain"
	"github.com/msomdec/birthday-bot/internal/platform/platformtest"
	"github.com/msomdec/birthday-bot/internal/repository/jsonfile"
	"github.com/msomdec/birthday-bot/internal/service"
)

func newAssistant(t *testing.T, fake *platformtest.Fake, cfg service.AssistantConfig) *service.Assistant {
	t.Helper()
	cal, err := service.LoadCalendar("")
	if err != nil {
		t.Fatalf("LoadCalendar: %v", err)
	}
	records := service.NewRecordService(jsonfile.New(filepath.Join(t.TempDir(), "state.json")))
	return service.NewAssistant(fake, records, cal, nil, cfg)
}

func TestConnectConfigurationErrors(t *testing.T) {
	tests := []struct {
		name    string
		channel string
	}{
		{"no channel", ""},
		{"unknown channel", "#nowhere"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := platformtest.New(self)
			fake.AddChannel("general", "C1", "UBOT")

			_, err := newAssistant(t, fake, service.AssistantConfig{Channel: tt.channel}).Connect(context.Background())
			if !errors.Is(err, domain.ErrConfiguration) {
				t.Fatalf("expected ErrConfiguration, got %v", err)
			}
		})
	}
}

func TestConnectPostsWelcome(t *testing.T) {
	fake := platformtest.New(self)
	fake.AddChannel("general", "C1", "UBOT")

	session, err := newAssistant(t, fake, service.AssistantConfig{Channel: "general", Welcome: true}).Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if session.ChannelID() != "C1" {
		t.Fatalf("channel id = %q, want C1", session.ChannelID())
	}
	if session.Identity() != self {
		t.Fatalf("identity = %+v, want %+v", session.Identity(), self)
	}

	posts := fake.Posts()
	if len(posts) != 1 {
		t.Fatalf("expected one welcome post, got %d", len(posts))
	}
	if posts[0].Ref.ChannelID != "C1" || !strings.Contains(posts[0].Message.Text, "<@UBOT>") {
		t.Fatalf("unexpected welcome post %+v", posts[0])
	}
}

func TestConnectWithoutWelcomeIsSilent(t *testing.T) {
	fake := platformtest.New(self)
	fake.AddChannel("general", "C1", "UBOT")

	if _, err := newAssistant(t, fake, service.AssistantConfig{Channel: "#general"}).Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if len(fake.Posts()) != 0 {
		t.Fatalf("expected no posts, got %d", len(fake.Posts()))
	}
}

func TestConnectAuthenticationFailure(t *testing.T) {
	fake := platformtest.New(self)
	fake.AddChannel("general", "C1", "UBOT")
	fake.Fail("Authenticate", 1)

	_, err := newAssistant(t, fake, service.AssistantConfig{Channel: "general"}).Connect(context.Background())
	if !errors.Is(err, platformtest.ErrTransient) {
		t.Fatalf("expected the platform error, got %v", err)
	}
}

func TestSessionIgnoresOwnMessages(t *testing.T) {
	h := newHarness(t)

	event := domain.Event{Kind: domain.EventMessage, UserID: "UBOT", BotID: "BBOT", ChannelID: "D1", Text: "help"}
	if err := h.session.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if len(h.fake.Posts()) != 0 {
		t.Fatal("expected the bot's own message to be ignored")
	}
	if h.fake.Calls("ListChannelMembers") != 0 {
		t.Fatal("expected no channel lookup for the bot's own message")
	}
}

func TestSessionIgnoresOtherEvents(t *testing.T) {
	h := newHarness(t)

	if err := h.session.HandleEvent(context.Background(), domain.Event{Kind: domain.EventOther, ChannelID: "D1"}); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if err := h.session.HandleEvent(context.Background(), domain.Event{Kind: domain.EventInteraction, Payload: []byte("{")}); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if len(h.fake.Posts()) != 0 || len(h.fake.Updates()) != 0 {
		t.Fatal("expected nothing to be sent")
	}
}

type countingHandler struct {
	n atomic.Int32
}

func (c *countingHandler) HandleEvent(ctx context.Context, event domain.Event) error {
	c.n.Add(1)
	if event.Text == "fail" {
		return errors.New("boom")
	}
	return nil
}

func TestDispatcherRunsEveryEvent(t *testing.T) {
	handler := &countingHandler{}
	d := service.NewDispatcher(context.Background(), handler)

	for _, text := range []string{"a", "fail", "b", "c"} {
		d.Dispatch(domain.Event{Kind: domain.EventMessage, Text: text})
	}
	d.Wait()

	if got := handler.n.Load(); got != 4 {
		t.Fatalf("handled %d events, want 4", got)
	}
}
