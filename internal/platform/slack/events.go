package slack

import (
	"github.com/slack-go/slack/slackevents"

	"github.com/msomdec/birthday-bot/internal/domain"
)

// FromEventsAPI normalizes an Events API callback. Only new messages
// and bot messages are surfaced; edits, deletions and other subtypes
// map to EventOther.
func FromEventsAPI(evt slackevents.EventsAPIEvent) domain.Event {
	if evt.Type != slackevents.CallbackEvent {
		return domain.Event{Kind: domain.EventOther}
	}
	msg, ok := evt.InnerEvent.Data.(*slackevents.MessageEvent)
	if !ok {
		return domain.Event{Kind: domain.EventOther}
	}
	if msg.SubType != "" && msg.SubType != "bot_message" {
		return domain.Event{Kind: domain.EventOther}
	}
	return domain.Event{
		Kind:      domain.EventMessage,
		UserID:    msg.User,
		BotID:     msg.BotID,
		ChannelID: msg.Channel,
		Text:      msg.Text,
	}
}

// FromInteraction wraps a raw interactive payload.
func FromInteraction(payload []byte) domain.Event {
	return domain.Event{Kind: domain.EventInteraction, Payload: payload}
}
