package domain

import "context"

// Platform is the chat platform as seen by the assistant. Reads are
// idempotent and safe to retry; PostMessage and UpdateMessage are not.
type Platform interface {
	Authenticate(ctx context.Context) (Identity, error)
	FindChannel(ctx context.Context, name string) (string, error)
	ListChannelMembers(ctx context.Context, channelID string) ([]string, error)
	ListMembers(ctx context.Context) ([]Member, error)
	GetMember(ctx context.Context, id string) (*Member, error)
	PostMessage(ctx context.Context, channelID string, msg Message) (MessageRef, error)
	UpdateMessage(ctx context.Context, ref MessageRef, msg Message) error
}

// MessageRef locates a posted message so it can be edited in place.
type MessageRef struct {
	ChannelID string
	Timestamp string
}

// Message is an outbound message: plain text plus optional attachments.
type Message struct {
	Text        string       `json:"text"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment is one block of a message. The directory renders one per
// member, correlated back through CallbackID.
type Attachment struct {
	CallbackID string   `json:"callback_id,omitempty"`
	Color      string   `json:"color,omitempty"`
	Fallback   string   `json:"fallback,omitempty"`
	Text       string   `json:"text,omitempty"`
	Actions    []Action `json:"actions,omitempty"`
}

// Action is an interactive widget inside an attachment.
type Action struct {
	Name            string   `json:"name"`
	Text            string   `json:"text,omitempty"`
	Type            string   `json:"type"`
	Options         []Option `json:"options,omitempty"`
	SelectedOptions []Option `json:"selected_options,omitempty"`
}

// Option is a selectable value of a select action.
type Option struct {
	Text  string `json:"text"`
	Value string `json:"value"`
}

// EventKind distinguishes inbound events.
type EventKind string

const (
	EventMessage     EventKind = "message"
	EventInteraction EventKind = "interaction"
	EventOther       EventKind = "other"
)

// Event is an inbound platform event, normalized by the adapters.
// Payload holds the raw interactive payload for EventInteraction.
type Event struct {
	Kind      EventKind
	UserID    string
	BotID     string
	ChannelID string
	Text      string
	Payload   []byte
}
