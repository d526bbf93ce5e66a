package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/msomdec/birthday-bot/internal/domain"
)

// RecordService serializes every load-mutate-save cycle on the state
// store so concurrent handlers cannot overwrite each other's edits.
type RecordService struct {
	mu    sync.Mutex
	store domain.StateStore
}

// NewRecordService creates a new RecordService.
func NewRecordService(store domain.StateStore) *RecordService {
	return &RecordService{store: store}
}

// Load returns a fresh copy of the persisted state.
func (s *RecordService) Load(ctx context.Context) (*domain.State, error) {
	state, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	return state, nil
}

// Update loads the state, applies fn and saves the result while holding
// the store lock. If fn returns an error nothing is saved.
func (s *RecordService) Update(ctx context.Context, fn func(*domain.State) error) (*domain.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	if err := fn(state); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("save state: %w", err)
	}
	return state, nil
}

// SetBirthday applies patch to the record of userID and persists it.
func (s *RecordService) SetBirthday(ctx context.Context, userID string, patch domain.BirthdayPatch) (domain.Birthday, error) {
	var updated domain.Birthday
	_, err := s.Update(ctx, func(state *domain.State) error {
		updated = state.SetBirthday(userID, patch)
		return nil
	})
	return updated, err
}

// SetManager persists userID as the manager.
func (s *RecordService) SetManager(ctx context.Context, userID string) error {
	_, err := s.Update(ctx, func(state *domain.State) error {
		state.SetManager(userID)
		return nil
	})
	return err
}
