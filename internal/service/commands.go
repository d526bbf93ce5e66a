package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/msomdec/birthday-bot/internal/domain"
)

// mentionPattern matches a user reference such as <@U123> or <@U123|jane>.
var mentionPattern = regexp.MustCompile(`<@([A-Z0-9]+)(?:\|[^>]*)?>`)

type commandRule struct {
	name     string
	keywords []string
	handle   func(ctx context.Context, cmd Command) (domain.Message, error)
}

func (r commandRule) matches(text string) bool {
	for _, k := range r.keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// CommandService answers plain-text commands sent in the direct channel.
// Rules are matched by substring in priority order; the first match wins.
type CommandService struct {
	platform  domain.Platform
	records   *RecordService
	directory *DirectoryService
	gate      *Gate
	viewer    *ViewerService
	publicURL string
	rules     []commandRule
}

// NewCommandService creates a new CommandService. viewer may be nil, in
// which case the link command falls through to the fallback reply.
func NewCommandService(platform domain.Platform, records *RecordService, directory *DirectoryService, gate *Gate, viewer *ViewerService, publicURL string) *CommandService {
	s := &CommandService{
		platform:  platform,
		records:   records,
		directory: directory,
		gate:      gate,
		viewer:    viewer,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
	s.rules = []commandRule{
		{name: "help", keywords: []string{"help"}, handle: s.help},
		{name: "list", keywords: []string{"list"}, handle: s.list},
		{name: "manager", keywords: []string{"manager"}, handle: s.manager},
		{name: "link", keywords: []string{"link"}, handle: s.link},
		// Matches inside words too: "this" and "which" greet.
		{name: "greet", keywords: []string{"Hi", "hi", "hey", "Hey", "Hello", "hello"}, handle: s.greet},
	}
	return s
}

// Handle runs cmd if the sender passes the gate. Unauthorized senders
// get no reply at all.
func (s *CommandService) Handle(ctx context.Context, cmd Command) error {
	allowed, err := s.gate.Allowed(ctx, cmd.SenderID)
	if err != nil {
		return fmt.Errorf("check permission: %w", err)
	}
	if !allowed {
		slog.Debug("command from unauthorized sender dropped", "user_id", cmd.SenderID)
		return nil
	}

	reply, err := s.dispatch(ctx, cmd)
	if err != nil {
		return err
	}
	if _, err := s.platform.PostMessage(ctx, cmd.ChannelID, reply); err != nil {
		return fmt.Errorf("post reply: %w", err)
	}
	return nil
}

func (s *CommandService) dispatch(ctx context.Context, cmd Command) (domain.Message, error) {
	for _, rule := range s.rules {
		if rule.matches(cmd.Text) {
			slog.Info("running command", "command", rule.name, "user_id", cmd.SenderID)
			return rule.handle(ctx, cmd)
		}
	}
	return domain.Message{Text: textFallback}, nil
}

func (s *CommandService) help(_ context.Context, _ Command) (domain.Message, error) {
	return domain.Message{Text: textHelp}, nil
}

func (s *CommandService) greet(_ context.Context, cmd Command) (domain.Message, error) {
	return domain.Message{Text: fmt.Sprintf(textGreeting, cmd.SenderID)}, nil
}

func (s *CommandService) list(ctx context.Context, _ Command) (domain.Message, error) {
	msg, err := s.directory.Message(ctx)
	if err != nil {
		return domain.Message{}, fmt.Errorf("render directory: %w", err)
	}
	return msg, nil
}

func (s *CommandService) manager(ctx context.Context, cmd Command) (domain.Message, error) {
	matches := mentionPattern.FindAllStringSubmatch(cmd.Text, -1)
	if len(matches) != 1 {
		return domain.Message{Text: textWrongCommand}, nil
	}
	userID := matches[0][1]

	member, err := s.platform.GetMember(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Message{Text: textWrongCommand}, nil
		}
		return domain.Message{}, fmt.Errorf("get member %s: %w", userID, err)
	}
	if member.IsBot {
		return domain.Message{Text: textWrongCommand}, nil
	}

	if err := s.records.SetManager(ctx, userID); err != nil {
		return domain.Message{}, err
	}
	slog.Info("manager assigned", "manager_id", userID, "by", cmd.SenderID)
	return domain.Message{Text: fmt.Sprintf(textManagerSet, userID)}, nil
}

func (s *CommandService) link(_ context.Context, cmd Command) (domain.Message, error) {
	if s.viewer == nil || s.publicURL == "" {
		return domain.Message{Text: textFallback}, nil
	}
	token, err := s.viewer.Issue(cmd.SenderID)
	if err != nil {
		return domain.Message{}, fmt.Errorf("issue viewer token: %w", err)
	}
	url := s.publicURL + "/birthdays?token=" + token
	return domain.Message{Text: fmt.Sprintf(textViewerLink, url)}, nil
}
