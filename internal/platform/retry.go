// Package platform holds transport-independent helpers around the chat
// platform: bounded retries for idempotent reads.
package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/msomdec/birthday-bot/internal/domain"
)

// RateLimitError reports that the platform asked us to wait before
// calling again.
type RateLimitError struct {
	Wait time.Duration
	Err  error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s: %v", e.Wait, e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// RetryConfig bounds the retries of idempotent calls.
type RetryConfig struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryConfig retries three times starting at 250ms.
var DefaultRetryConfig = RetryConfig{
	MaxRetries:      3,
	InitialInterval: 250 * time.Millisecond,
	MaxInterval:     5 * time.Second,
}

// Retrying wraps a Platform and retries its read calls with exponential
// backoff. Posting and updating messages are passed through once so a
// timeout never produces a duplicate message.
type Retrying struct {
	next   domain.Platform
	config RetryConfig
}

// NewRetrying wraps next.
func NewRetrying(next domain.Platform, config RetryConfig) *Retrying {
	return &Retrying{next: next, config: config}
}

func (r *Retrying) retry(ctx context.Context, op string, fn func() error) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = r.config.InitialInterval
	eb.MaxInterval = r.config.MaxInterval
	eb.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, r.config.MaxRetries), ctx)

	attempt := func() error {
		err := fn()
		if err == nil {
			return nil
		}
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrUnauthorized) || errors.Is(err, context.Canceled) {
			return backoff.Permanent(err)
		}
		var limited *RateLimitError
		if errors.As(err, &limited) && limited.Wait > 0 {
			select {
			case <-ctx.Done():
				return backoff.Permanent(ctx.Err())
			case <-time.After(limited.Wait):
			}
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		slog.Warn("platform call failed, retrying", "op", op, "error", err, "backoff", wait)
	}
	return backoff.RetryNotify(attempt, policy, notify)
}

func (r *Retrying) Authenticate(ctx context.Context) (domain.Identity, error) {
	var self domain.Identity
	err := r.retry(ctx, "authenticate", func() (err error) {
		self, err = r.next.Authenticate(ctx)
		return err
	})
	return self, err
}

func (r *Retrying) FindChannel(ctx context.Context, name string) (string, error) {
	var id string
	err := r.retry(ctx, "find_channel", func() (err error) {
		id, err = r.next.FindChannel(ctx, name)
		return err
	})
	return id, err
}

func (r *Retrying) ListChannelMembers(ctx context.Context, channelID string) ([]string, error) {
	var ids []string
	err := r.retry(ctx, "list_channel_members", func() (err error) {
		ids, err = r.next.ListChannelMembers(ctx, channelID)
		return err
	})
	return ids, err
}

func (r *Retrying) ListMembers(ctx context.Context) ([]domain.Member, error) {
	var members []domain.Member
	err := r.retry(ctx, "list_members", func() (err error) {
		members, err = r.next.ListMembers(ctx)
		return err
	})
	return members, err
}

func (r *Retrying) GetMember(ctx context.Context, id string) (*domain.Member, error) {
	var member *domain.Member
	err := r.retry(ctx, "get_member", func() (err error) {
		member, err = r.next.GetMember(ctx, id)
		return err
	})
	return member, err
}

func (r *Retrying) PostMessage(ctx context.Context, channelID string, msg domain.Message) (domain.MessageRef, error) {
	return r.next.PostMessage(ctx, channelID, msg)
}

func (r *Retrying) UpdateMessage(ctx context.Context, ref domain.MessageRef, msg domain.Message) error {
	return r.next.UpdateMessage(ctx, ref, msg)
}
