package service

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/msomdec/birthday-bot/internal/domain"
)

const (
	ColorComplete   = "good"
	ColorIncomplete = "danger"

	ActionMonth = "month"
	ActionDay   = "day"

	textNoBirthday = "birthday is not defined"
	textNoDay      = "birthday day is not defined"
)

// ListEntries joins channel members with their stored birthdays. Bots,
// deleted accounts and members without a profile are left out. Entries
// are ordered by label, then by member ID, so any permutation of the
// same members yields the same order.
func ListEntries(members []domain.Member, state *domain.State) []domain.DirectoryEntry {
	entries := make([]domain.DirectoryEntry, 0, len(members))
	for _, m := range members {
		if !m.Human() {
			continue
		}
		entry := domain.DirectoryEntry{Member: m}
		if b, ok := state.Record(m.ID); ok {
			entry.Birthday = &b
		}
		entries = append(entries, entry)
	}
	slices.SortStableFunc(entries, func(a, b domain.DirectoryEntry) int {
		if c := strings.Compare(a.Member.Label(), b.Member.Label()); c != 0 {
			return c
		}
		return strings.Compare(a.Member.ID, b.Member.ID)
	})
	return entries
}

// DescribeBirthday renders the date part of a directory line.
func DescribeBirthday(b *domain.Birthday) string {
	switch {
	case b == nil || b.Month == "":
		return textNoBirthday
	case b.Day == 0:
		return textNoDay
	default:
		return fmt.Sprintf("%s %d", b.Month, b.Day)
	}
}

// RenderEntry renders one directory entry as an attachment carrying a
// month selector and a day selector. The day options follow the
// selected month and are empty until a month is chosen.
func RenderEntry(cal *Calendar, entry domain.DirectoryEntry) domain.Attachment {
	var b domain.Birthday
	if entry.Birthday != nil {
		b = *entry.Birthday
	}

	text := entry.Member.Label() + " - " + DescribeBirthday(entry.Birthday)
	color := ColorIncomplete
	if b.Complete() {
		color = ColorComplete
	}

	monthSelect := domain.Action{Name: ActionMonth, Text: "Month", Type: "select"}
	for _, m := range cal.Months() {
		opt := domain.Option{Text: m, Value: m}
		monthSelect.Options = append(monthSelect.Options, opt)
		if m == b.Month {
			monthSelect.SelectedOptions = []domain.Option{opt}
		}
	}

	daySelect := domain.Action{Name: ActionDay, Text: "Day", Type: "select"}
	if n, ok := cal.DayCount(b.Month); ok {
		for d := 1; d <= n; d++ {
			opt := domain.Option{Text: strconv.Itoa(d), Value: strconv.Itoa(d)}
			daySelect.Options = append(daySelect.Options, opt)
			if d == b.Day {
				daySelect.SelectedOptions = []domain.Option{opt}
			}
		}
	}

	return domain.Attachment{
		CallbackID: entry.Member.ID,
		Color:      color,
		Fallback:   text,
		Text:       text,
		Actions:    []domain.Action{monthSelect, daySelect},
	}
}

// RenderDirectory renders the whole directory as one message.
func RenderDirectory(cal *Calendar, entries []domain.DirectoryEntry) domain.Message {
	if len(entries) == 0 {
		return domain.Message{Text: textEmptyDirectory}
	}
	msg := domain.Message{
		Text:        textDirectoryHeader,
		Attachments: make([]domain.Attachment, 0, len(entries)),
	}
	for _, e := range entries {
		msg.Attachments = append(msg.Attachments, RenderEntry(cal, e))
	}
	return msg
}

// SpliceEntry returns a copy of base with the attachment sharing fresh's
// callback ID replaced by fresh. Every other attachment is kept as is.
// It reports false when no attachment matches.
func SpliceEntry(base []domain.Attachment, fresh domain.Attachment) ([]domain.Attachment, bool) {
	i := slices.IndexFunc(base, func(a domain.Attachment) bool {
		return a.CallbackID == fresh.CallbackID
	})
	if i < 0 {
		return nil, false
	}
	patched := slices.Clone(base)
	patched[i] = fresh
	return patched, true
}

// DirectoryService builds the directory for the target channel.
type DirectoryService struct {
	platform  domain.Platform
	records   *RecordService
	calendar  *Calendar
	channelID string
}

// NewDirectoryService creates a new DirectoryService for channelID.
func NewDirectoryService(platform domain.Platform, records *RecordService, calendar *Calendar, channelID string) *DirectoryService {
	return &DirectoryService{platform: platform, records: records, calendar: calendar, channelID: channelID}
}

// Entries fetches the channel members, the member descriptors and the
// stored state concurrently and joins them.
func (s *DirectoryService) Entries(ctx context.Context) ([]domain.DirectoryEntry, error) {
	var (
		memberIDs []string
		members   []domain.Member
		state     *domain.State
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ids, err := s.platform.ListChannelMembers(gctx, s.channelID)
		if err != nil {
			return fmt.Errorf("list channel members: %w", err)
		}
		memberIDs = ids
		return nil
	})
	g.Go(func() error {
		all, err := s.platform.ListMembers(gctx)
		if err != nil {
			return fmt.Errorf("list members: %w", err)
		}
		members = all
		return nil
	})
	g.Go(func() error {
		st, err := s.records.Load(gctx)
		if err != nil {
			return err
		}
		state = st
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	inChannel := make(map[string]bool, len(memberIDs))
	for _, id := range memberIDs {
		inChannel[id] = true
	}
	channelMembers := make([]domain.Member, 0, len(memberIDs))
	for _, m := range members {
		if inChannel[m.ID] {
			channelMembers = append(channelMembers, m)
		}
	}
	return ListEntries(channelMembers, state), nil
}

// Message renders the current directory.
func (s *DirectoryService) Message(ctx context.Context) (domain.Message, error) {
	entries, err := s.Entries(ctx)
	if err != nil {
		return domain.Message{}, err
	}
	return RenderDirectory(s.calendar, entries), nil
}
