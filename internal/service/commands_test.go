package service_test

import (
	"net/url"
	"strings"
	"testing"

	"github.com/msomdec/birthday-bot/internal/domain"
)

func TestCommandFromNonAdminIsIgnored(t *testing.T) {
	h := newHarness(t)

	h.send(t, "U2", "D2", "list")

	if posts := h.fake.Posts(); len(posts) != 0 {
		t.Fatalf("expected no reply to a non-admin, got %+v", posts)
	}
}

func TestCommandInGroupChannelIsIgnored(t *testing.T) {
	h := newHarness(t)

	h.send(t, "U1", "G1", "list")

	if posts := h.fake.Posts(); len(posts) != 0 {
		t.Fatalf("expected no reply outside a direct channel, got %+v", posts)
	}
}

func TestHelpCommand(t *testing.T) {
	h := newHarness(t)

	h.send(t, "U1", "D1", "help me")

	post := h.lastPost(t)
	if post.Ref.ChannelID != "D1" {
		t.Fatalf("expected reply in D1, got %s", post.Ref.ChannelID)
	}
	if !strings.Contains(post.Message.Text, "`list`") {
		t.Fatalf("expected help text, got %q", post.Message.Text)
	}
}

func TestHelpWinsOverList(t *testing.T) {
	h := newHarness(t)

	h.send(t, "U1", "D1", "list help")

	if !strings.Contains(h.lastPost(t).Message.Text, "Here is what I can do") {
		t.Fatalf("expected help to take priority, got %q", h.lastPost(t).Message.Text)
	}
}

func TestListCommand(t *testing.T) {
	h := newHarness(t)
	h.seed(t, &domain.State{Users: map[string]domain.Birthday{"U1": {Month: "March", Day: 5}}})

	h.send(t, "U1", "D1", "list")

	msg := h.lastPost(t).Message
	if len(msg.Attachments) != 3 {
		t.Fatalf("expected 3 directory entries, got %d", len(msg.Attachments))
	}
	if msg.Attachments[0].Text != "Alice - March 5" || msg.Attachments[0].Color != "good" {
		t.Fatalf("unexpected first entry: %+v", msg.Attachments[0])
	}
}

func TestManagerCommand(t *testing.T) {
	h := newHarness(t)

	h.send(t, "U1", "D1", "manager <@U2>")

	if got := h.state(t).Manager; got != "U2" {
		t.Fatalf("expected manager U2, got %q", got)
	}
	if text := h.lastPost(t).Message.Text; !strings.Contains(text, "<@U2>") {
		t.Fatalf("expected confirmation naming <@U2>, got %q", text)
	}

	// The new manager may now run commands from their own direct channel.
	h.send(t, "U2", "D2", "list")
	if post := h.lastPost(t); post.Ref.ChannelID != "D2" || len(post.Message.Attachments) == 0 {
		t.Fatalf("expected the manager to get the directory, got %+v", post)
	}
}

func TestManagerCommandRejectsBadTargets(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"no mention", "manager bob"},
		{"two mentions", "manager <@U2> <@U3>"},
		{"unknown member", "manager <@U404>"},
		{"bot", "manager <@UBOT>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			h.send(t, "U1", "D1", tt.text)

			if got := h.state(t).Manager; got != "" {
				t.Fatalf("expected no manager, got %q", got)
			}
			if text := h.lastPost(t).Message.Text; !strings.HasPrefix(text, "Wrong command") {
				t.Fatalf("expected wrong-command reply, got %q", text)
			}
		})
	}
}

func TestLinkCommand(t *testing.T) {
	h := newHarness(t)

	h.send(t, "U1", "D1", "link")

	text := h.lastPost(t).Message.Text
	i := strings.Index(text, "https://")
	if i < 0 {
		t.Fatalf("expected a link, got %q", text)
	}
	u, err := url.Parse(text[i:])
	if err != nil {
		t.Fatalf("parse link: %v", err)
	}
	if u.Host != "birthdays.example.com" || u.Path != "/birthdays" {
		t.Fatalf("unexpected link %s", u)
	}
	userID, err := h.viewer.Validate(u.Query().Get("token"))
	if err != nil {
		t.Fatalf("Validate link token: %v", err)
	}
	if userID != "U1" {
		t.Fatalf("expected token for U1, got %q", userID)
	}
}

func TestUnknownCommandFallsBack(t *testing.T) {
	h := newHarness(t)

	h.send(t, "U1", "D1", "what's up")

	if text := h.lastPost(t).Message.Text; !strings.HasPrefix(text, "Man, I don't understand you.") {
		t.Fatalf("expected fallback reply, got %q", text)
	}
}

func TestGreeting(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"hello", "hello there", "Hello, <@U1> !"},
		{"capitalized", "Hey bot", "Hello, <@U1> !"},
		{"inside a word", "is this on?", "Hello, <@U1> !"},
		{"list wins", "hi, list please", "Birthday list."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			h.send(t, "U1", "D1", tt.text)

			if text := h.lastPost(t).Message.Text; !strings.HasPrefix(text, tt.want) {
				t.Fatalf("reply = %q, want prefix %q", text, tt.want)
			}
		})
	}
}
