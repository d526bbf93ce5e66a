package service_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/msomdec/birthday-bot/internal/domain"
	"github.com/msomdec/birthday-bot/internal/service"
)

func TestParseInteraction(t *testing.T) {
	raw := []byte(`{
		"type": "interactive_message",
		"callback_id": "U2",
		"actions": [{"name": "day", "type": "select", "selected_options": [{"value": "14"}]}],
		"channel": {"id": "D1"},
		"user": {"id": "U1"},
		"message_ts": "1700000000.000100",
		"original_message": {"text": "Birthdays", "attachments": [{"callback_id": "U2", "text": "bob"}]}
	}`)

	got, err := service.ParseInteraction(raw)
	if err != nil {
		t.Fatalf("ParseInteraction: %v", err)
	}
	want := &service.Interaction{
		CallbackID: "U2",
		Action:     "day",
		Value:      "14",
		UserID:     "U1",
		ChannelID:  "D1",
		MessageTS:  "1700000000.000100",
		Original: &domain.Message{
			Text:        "Birthdays",
			Attachments: []domain.Attachment{{CallbackID: "U2", Text: "bob"}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("interaction mismatch (-want +got):\n%s", diff)
	}
}

func TestParseInteractionFallsBackToValue(t *testing.T) {
	got, err := service.ParseInteraction([]byte(`{"callback_id":"U1","actions":[{"name":"month","value":"May"}]}`))
	if err != nil {
		t.Fatalf("ParseInteraction: %v", err)
	}
	if got.Value != "May" {
		t.Fatalf("expected value May, got %q", got.Value)
	}
}

func TestParseInteractionRejectsMalformed(t *testing.T) {
	for _, raw := range []string{`not json`, `{"callback_id":"U1"}`, `{"callback_id":"U1","actions":[]}`} {
		if _, err := service.ParseInteraction([]byte(raw)); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("ParseInteraction(%s): expected ErrInvalidInput, got %v", raw, err)
		}
	}
}

func TestClassify(t *testing.T) {
	direct := []string{"UBOT", "U1"}
	group := []string{"UBOT", "U1", "U2"}
	payload := []byte(`{"callback_id":"U1","actions":[{"name":"month","value":"May"}],"channel":{"id":"D1"}}`)

	tests := []struct {
		name    string
		event   domain.Event
		members []string
		want    service.ClassKind
	}{
		{"direct message", domain.Event{Kind: domain.EventMessage, UserID: "U1", ChannelID: "D1", Text: "list"}, direct, service.PlainCommand},
		{"group message", domain.Event{Kind: domain.EventMessage, UserID: "U1", ChannelID: "G1", Text: "list"}, group, service.Ignored},
		{"direct channel without bot", domain.Event{Kind: domain.EventMessage, UserID: "U1", ChannelID: "D9", Text: "list"}, []string{"U1", "U2"}, service.Ignored},
		{"own message", domain.Event{Kind: domain.EventMessage, BotID: "BBOT", ChannelID: "D1", Text: "Birthdays"}, direct, service.Ignored},
		{"other bot", domain.Event{Kind: domain.EventMessage, UserID: "U1", BotID: "BOTHER", ChannelID: "D1", Text: "help"}, direct, service.PlainCommand},
		{"empty text", domain.Event{Kind: domain.EventMessage, UserID: "U1", ChannelID: "D1", Text: "  "}, direct, service.Ignored},
		{"other kind", domain.Event{Kind: domain.EventOther, ChannelID: "D1"}, direct, service.Ignored},
		{"interaction", domain.Event{Kind: domain.EventInteraction, ChannelID: "D1", Payload: payload}, direct, service.InteractivePayload},
		{"broken interaction", domain.Event{Kind: domain.EventInteraction, ChannelID: "D1", Payload: []byte(`{`)}, direct, service.Ignored},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := service.Classify(tt.event, self, tt.members)
			if got.Kind != tt.want {
				t.Fatalf("Classify = %s, want %s", got.Kind, tt.want)
			}
		})
	}
}

func TestClassifyCommandCarriesSender(t *testing.T) {
	event := domain.Event{Kind: domain.EventMessage, UserID: "U1", ChannelID: "D1", Text: "help"}
	got := service.Classify(event, self, []string{"U1", "UBOT"})

	want := service.Command{Text: "help", SenderID: "U1", ChannelID: "D1"}
	if diff := cmp.Diff(want, got.Command); diff != "" {
		t.Fatalf("command mismatch (-want +got):\n%s", diff)
	}
}
