// Package slack adapts the Slack Web API, Events API and Socket Mode to
// the domain.Platform interface.
package slack

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	slackapi "github.com/slack-go/slack"

	"github.com/msomdec/birthday-bot/internal/domain"
	"github.com/msomdec/birthday-bot/internal/platform"
)

const pageSize = 200

// Config configures a Client.
type Config struct {
	// Token is the bot token (xoxb-...).
	Token string
	// AppToken is the app-level token (xapp-...) used by Socket Mode.
	AppToken string
	// APIURL overrides the API endpoint, for tests.
	APIURL string
	// HTTPClient overrides the HTTP client.
	HTTPClient *http.Client
}

// Client implements domain.Platform on top of the Slack Web API.
type Client struct {
	api *slackapi.Client
}

// New creates a Client.
func New(cfg Config) *Client {
	var opts []slackapi.Option
	if cfg.APIURL != "" {
		opts = append(opts, slackapi.OptionAPIURL(cfg.APIURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, slackapi.OptionHTTPClient(cfg.HTTPClient))
	}
	if cfg.AppToken != "" {
		opts = append(opts, slackapi.OptionAppLevelToken(cfg.AppToken))
	}
	return &Client{api: slackapi.New(cfg.Token, opts...)}
}

// API returns the underlying Slack client.
func (c *Client) API() *slackapi.Client { return c.api }

func (c *Client) Authenticate(ctx context.Context) (domain.Identity, error) {
	resp, err := c.api.AuthTestContext(ctx)
	if err != nil {
		return domain.Identity{}, mapError(err)
	}
	return domain.Identity{UserID: resp.UserID, BotID: resp.BotID}, nil
}

func (c *Client) FindChannel(ctx context.Context, name string) (string, error) {
	params := &slackapi.GetConversationsParameters{
		ExcludeArchived: true,
		Limit:           pageSize,
		Types:           []string{"public_channel", "private_channel"},
	}
	for {
		channels, cursor, err := c.api.GetConversationsContext(ctx, params)
		if err != nil {
			return "", mapError(err)
		}
		for _, ch := range channels {
			if ch.Name == name {
				return ch.ID, nil
			}
		}
		if cursor == "" {
			return "", fmt.Errorf("%w: channel %q", domain.ErrNotFound, name)
		}
		params.Cursor = cursor
	}
}

func (c *Client) ListChannelMembers(ctx context.Context, channelID string) ([]string, error) {
	params := &slackapi.GetUsersInConversationParameters{ChannelID: channelID, Limit: pageSize}
	var ids []string
	for {
		page, cursor, err := c.api.GetUsersInConversationContext(ctx, params)
		if err != nil {
			return nil, mapError(err)
		}
		ids = append(ids, page...)
		if cursor == "" {
			return ids, nil
		}
		params.Cursor = cursor
	}
}

func (c *Client) ListMembers(ctx context.Context) ([]domain.Member, error) {
	users, err := c.api.GetUsersContext(ctx, slackapi.GetUsersOptionLimit(pageSize))
	if err != nil {
		return nil, mapError(err)
	}
	members := make([]domain.Member, 0, len(users))
	for _, u := range users {
		members = append(members, toMember(u))
	}
	return members, nil
}

func (c *Client) GetMember(ctx context.Context, id string) (*domain.Member, error) {
	u, err := c.api.GetUserInfoContext(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	m := toMember(*u)
	return &m, nil
}

func (c *Client) PostMessage(ctx context.Context, channelID string, msg domain.Message) (domain.MessageRef, error) {
	channel, ts, err := c.api.PostMessageContext(ctx, channelID, msgOptions(msg)...)
	if err != nil {
		return domain.MessageRef{}, mapError(err)
	}
	return domain.MessageRef{ChannelID: channel, Timestamp: ts}, nil
}

func (c *Client) UpdateMessage(ctx context.Context, ref domain.MessageRef, msg domain.Message) error {
	if _, _, _, err := c.api.UpdateMessageContext(ctx, ref.ChannelID, ref.Timestamp, msgOptions(msg)...); err != nil {
		return mapError(err)
	}
	return nil
}

func toMember(u slackapi.User) domain.Member {
	display := u.Profile.DisplayName
	if display == "" {
		display = u.RealName
	}
	return domain.Member{
		ID:          u.ID,
		Name:        u.Name,
		DisplayName: display,
		IsBot:       u.IsBot || u.ID == "USLACKBOT",
		IsDeleted:   u.Deleted,
		IsAdmin:     u.IsAdmin || u.IsOwner || u.IsPrimaryOwner,
		HasProfile:  u.Profile.Email != "",
	}
}

func msgOptions(msg domain.Message) []slackapi.MsgOption {
	opts := []slackapi.MsgOption{slackapi.MsgOptionText(msg.Text, false)}
	if len(msg.Attachments) > 0 {
		opts = append(opts, slackapi.MsgOptionAttachments(toAttachments(msg.Attachments)...))
	}
	return opts
}

func toAttachments(in []domain.Attachment) []slackapi.Attachment {
	out := make([]slackapi.Attachment, 0, len(in))
	for _, a := range in {
		att := slackapi.Attachment{
			CallbackID: a.CallbackID,
			Color:      a.Color,
			Fallback:   a.Fallback,
			Text:       a.Text,
		}
		for _, act := range a.Actions {
			att.Actions = append(att.Actions, slackapi.AttachmentAction{
				Name:            act.Name,
				Text:            act.Text,
				Type:            slackapi.ActionType(act.Type),
				Options:         toOptions(act.Options),
				SelectedOptions: toOptions(act.SelectedOptions),
			})
		}
		out = append(out, att)
	}
	return out
}

func toOptions(in []domain.Option) []slackapi.AttachmentActionOption {
	if len(in) == 0 {
		return nil
	}
	out := make([]slackapi.AttachmentActionOption, len(in))
	for i, o := range in {
		out[i] = slackapi.AttachmentActionOption{Text: o.Text, Value: o.Value}
	}
	return out
}

// mapError translates Slack errors into domain and retry errors.
func mapError(err error) error {
	var limited *slackapi.RateLimitedError
	if errors.As(err, &limited) {
		return &platform.RateLimitError{Wait: limited.RetryAfter, Err: err}
	}
	var resp slackapi.SlackErrorResponse
	if errors.As(err, &resp) {
		switch resp.Err {
		case "user_not_found", "channel_not_found", "message_not_found":
			return fmt.Errorf("%w: %s", domain.ErrNotFound, resp.Err)
		case "invalid_auth", "not_authed", "account_inactive", "token_revoked":
			return fmt.Errorf("%w: %s", domain.ErrUnauthorized, resp.Err)
		}
	}
	return err
}
