package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/msomdec/birthday-bot/internal/domain"
)

// EditState is the position of a record in the two-step edit flow. It
// is derived from the stored record alone; nothing else is remembered
// between interactions.
type EditState int

const (
	AwaitingMonth EditState = iota
	AwaitingDay
	Complete
)

func (s EditState) String() string {
	switch s {
	case AwaitingDay:
		return "awaiting_day"
	case Complete:
		return "complete"
	default:
		return "awaiting_month"
	}
}

// EditStateOf returns the edit state of a stored record.
func EditStateOf(b *domain.Birthday) EditState {
	switch {
	case b == nil || b.Month == "":
		return AwaitingMonth
	case b.Day == 0:
		return AwaitingDay
	default:
		return Complete
	}
}

// EditFlow applies month and day selections made on a directory message
// and re-renders that message in place.
type EditFlow struct {
	platform  domain.Platform
	records   *RecordService
	directory *DirectoryService
	calendar  *Calendar
	gate      *Gate
	self      domain.Identity

	// mu serializes re-renders. shown holds the attachments last sent to
	// each message, so concurrent edits of different rows build on each
	// other instead of on the stale payload copy.
	mu    sync.Mutex
	shown map[domain.MessageRef][]domain.Attachment
	order []domain.MessageRef
}

// maxShown bounds the number of messages whose last render is remembered.
const maxShown = 64

// NewEditFlow creates a new EditFlow.
func NewEditFlow(platform domain.Platform, records *RecordService, directory *DirectoryService, calendar *Calendar, gate *Gate, self domain.Identity) *EditFlow {
	return &EditFlow{
		platform:  platform,
		records:   records,
		directory: directory,
		calendar:  calendar,
		gate:      gate,
		self:      self,
		shown:     make(map[domain.MessageRef][]domain.Attachment),
	}
}

// Handle validates and applies in. It reports whether the selection was
// accepted. Rejected selections are logged and dropped without a reply.
func (f *EditFlow) Handle(ctx context.Context, in *Interaction) (bool, error) {
	logger := slog.With("record_id", in.CallbackID, "action", in.Action, "value", in.Value, "user_id", in.UserID)

	members, err := f.platform.ListChannelMembers(ctx, in.ChannelID)
	if err != nil {
		return false, fmt.Errorf("list channel members: %w", err)
	}
	if !IsDirectChannel(members, f.self) {
		logger.Warn("interaction from outside a direct channel dropped", "channel_id", in.ChannelID)
		return false, nil
	}

	allowed, err := f.gate.Allowed(ctx, in.UserID)
	if err != nil {
		return false, fmt.Errorf("check permission: %w", err)
	}
	if !allowed {
		logger.Info("interaction from unauthorized user dropped")
		return false, nil
	}

	patch, err := f.patchFor(in)
	if err != nil {
		logger.Info("invalid selection dropped", "error", err)
		return false, nil
	}

	var updated domain.Birthday
	_, err = f.records.Update(ctx, func(state *domain.State) error {
		current, _ := state.Record(in.CallbackID)
		if err := f.check(current, patch); err != nil {
			return err
		}
		updated = state.SetBirthday(in.CallbackID, patch)
		return nil
	})
	if errors.Is(err, domain.ErrInvalidInput) {
		logger.Info("invalid selection dropped", "error", err)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	logger.Info("birthday updated", "state", EditStateOf(&updated).String())

	if err := f.rerender(ctx, in); err != nil {
		return true, err
	}
	return true, nil
}

func (f *EditFlow) patchFor(in *Interaction) (domain.BirthdayPatch, error) {
	if in.CallbackID == "" {
		return domain.BirthdayPatch{}, fmt.Errorf("%w: missing record id", domain.ErrInvalidInput)
	}
	switch in.Action {
	case ActionMonth:
		if !f.calendar.MonthExists(in.Value) {
			return domain.BirthdayPatch{}, fmt.Errorf("%w: unknown month %q", domain.ErrInvalidInput, in.Value)
		}
		return domain.BirthdayPatch{Month: in.Value}, nil
	case ActionDay:
		day, err := ParseDay(in.Value)
		if err != nil {
			return domain.BirthdayPatch{}, err
		}
		return domain.BirthdayPatch{Day: day}, nil
	default:
		return domain.BirthdayPatch{}, fmt.Errorf("%w: unknown action %q", domain.ErrInvalidInput, in.Action)
	}
}

// check validates patch against the record as currently stored. It runs
// under the store lock so the month it checks cannot change underneath.
func (f *EditFlow) check(current domain.Birthday, patch domain.BirthdayPatch) error {
	if patch.Day != 0 {
		if current.Month == "" {
			return fmt.Errorf("%w: day selected before month", domain.ErrInvalidInput)
		}
		if !f.calendar.IsValidDay(current.Month, patch.Day) {
			return fmt.Errorf("%w: %s has no day %d", domain.ErrInvalidInput, current.Month, patch.Day)
		}
	}
	if patch.Month != "" && current.Day != 0 && !f.calendar.IsValidDay(patch.Month, current.Day) {
		return fmt.Errorf("%w: %s has no day %d", domain.ErrInvalidInput, patch.Month, current.Day)
	}
	return nil
}

// rerender replaces the edited record's block in the original message,
// leaving every other block exactly as it was last shown.
func (f *EditFlow) rerender(ctx context.Context, in *Interaction) error {
	if in.MessageTS == "" {
		return nil
	}
	ref := domain.MessageRef{ChannelID: in.ChannelID, Timestamp: in.MessageTS}

	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.directory.Entries(ctx)
	if err != nil {
		return fmt.Errorf("render directory: %w", err)
	}
	full := RenderDirectory(f.calendar, entries)

	msg := full
	base, ok := f.shown[ref]
	if !ok && in.Original != nil {
		base = in.Original.Attachments
	}
	if len(base) > 0 {
		var fresh *domain.Attachment
		for i := range full.Attachments {
			if full.Attachments[i].CallbackID == in.CallbackID {
				fresh = &full.Attachments[i]
				break
			}
		}
		if fresh != nil {
			if patched, ok := SpliceEntry(base, *fresh); ok {
				text := full.Text
				if in.Original != nil {
					text = in.Original.Text
				}
				msg = domain.Message{Text: text, Attachments: patched}
			}
		}
	}

	if err := f.platform.UpdateMessage(ctx, ref, msg); err != nil {
		return fmt.Errorf("update directory message: %w", err)
	}
	f.remember(ref, msg.Attachments)
	return nil
}

func (f *EditFlow) remember(ref domain.MessageRef, attachments []domain.Attachment) {
	if _, ok := f.shown[ref]; !ok {
		f.order = append(f.order, ref)
		if len(f.order) > maxShown {
			delete(f.shown, f.order[0])
			f.order = f.order[1:]
		}
	}
	f.shown[ref] = attachments
}
