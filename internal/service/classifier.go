package service

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/msomdec/birthday-bot/internal/domain"
)

// ClassKind is the outcome of classifying an inbound event.
type ClassKind int

const (
	Ignored ClassKind = iota
	PlainCommand
	InteractivePayload
)

func (k ClassKind) String() string {
	switch k {
	case PlainCommand:
		return "command"
	case InteractivePayload:
		return "interaction"
	default:
		return "ignored"
	}
}

// Command is a plain-text message addressed to the bot.
type Command struct {
	Text      string
	SenderID  string
	ChannelID string
}

// Interaction is a widget selection on a previously sent directory
// message. CallbackID names the record being edited; ChannelID and
// MessageTS locate the message to edit in place.
type Interaction struct {
	CallbackID string
	Action     string
	Value      string
	UserID     string
	ChannelID  string
	MessageTS  string
	// Original is the message as the platform last showed it, if the
	// payload carried it.
	Original *domain.Message
}

// Classification is the result of Classify.
type Classification struct {
	Kind        ClassKind
	Command     Command
	Interaction *Interaction
}

type interactionPayload struct {
	Type       string `json:"type"`
	CallbackID string `json:"callback_id"`
	Actions    []struct {
		Name            string          `json:"name"`
		Value           string          `json:"value"`
		SelectedOptions []domain.Option `json:"selected_options"`
	} `json:"actions"`
	Channel struct {
		ID string `json:"id"`
	} `json:"channel"`
	User struct {
		ID string `json:"id"`
	} `json:"user"`
	MessageTS       string          `json:"message_ts"`
	OriginalMessage *domain.Message `json:"original_message"`
}

// ParseInteraction decodes a raw interactive payload. Payloads that are
// not JSON or carry no actions are rejected with ErrInvalidInput.
func ParseInteraction(raw []byte) (*Interaction, error) {
	var p interactionPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: malformed interactive payload: %v", domain.ErrInvalidInput, err)
	}
	if len(p.Actions) == 0 {
		return nil, fmt.Errorf("%w: interactive payload has no actions", domain.ErrInvalidInput)
	}

	action := p.Actions[0]
	value := action.Value
	if len(action.SelectedOptions) > 0 {
		value = action.SelectedOptions[0].Value
	}

	return &Interaction{
		CallbackID: p.CallbackID,
		Action:     action.Name,
		Value:      value,
		UserID:     p.User.ID,
		ChannelID:  p.Channel.ID,
		MessageTS:  p.MessageTS,
		Original:   p.OriginalMessage,
	}, nil
}

// Ignorable reports whether event can be dropped before any channel
// lookup: it is not a message or interaction, or the bot wrote it.
func Ignorable(event domain.Event, self domain.Identity) bool {
	if event.Kind != domain.EventMessage && event.Kind != domain.EventInteraction {
		return true
	}
	return event.BotID != "" && event.BotID == self.BotID
}

// IsDirectChannel reports whether members describe a two-party
// conversation between the bot and one other member.
func IsDirectChannel(members []string, self domain.Identity) bool {
	return len(members) == 2 && slices.Contains(members, self.UserID)
}

// Classify decides how an inbound event is handled. channelMembers are
// the members of the event's channel.
func Classify(event domain.Event, self domain.Identity, channelMembers []string) Classification {
	if Ignorable(event, self) {
		return Classification{Kind: Ignored}
	}
	if !IsDirectChannel(channelMembers, self) {
		return Classification{Kind: Ignored}
	}

	if len(event.Payload) > 0 {
		in, err := ParseInteraction(event.Payload)
		if err != nil {
			return Classification{Kind: Ignored}
		}
		return Classification{Kind: InteractivePayload, Interaction: in}
	}

	if strings.TrimSpace(event.Text) == "" {
		return Classification{Kind: Ignored}
	}
	return Classification{
		Kind: PlainCommand,
		Command: Command{
			Text:      event.Text,
			SenderID:  event.UserID,
			ChannelID: event.ChannelID,
		},
	}
}
