package service

import (
	"context"
	"fmt"

	"github.com/msomdec/birthday-bot/internal/domain"
)

// Gate decides who may run commands and edit records: platform admins
// and the assigned manager.
type Gate struct {
	platform domain.Platform
	records  *RecordService
}

// NewGate creates a new Gate.
func NewGate(platform domain.Platform, records *RecordService) *Gate {
	return &Gate{platform: platform, records: records}
}

// Allowed reports whether userID passes the admin/manager check.
func (g *Gate) Allowed(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}

	state, err := g.records.Load(ctx)
	if err != nil {
		return false, err
	}
	if state.IsManager(userID) {
		return true, nil
	}

	member, err := g.platform.GetMember(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("get member %s: %w", userID, err)
	}
	return member.IsAdmin, nil
}
