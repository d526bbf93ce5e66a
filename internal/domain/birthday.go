package domain

import "context"

// Birthday is a member's stored birthday. An empty Month or a zero Day
// means the field has not been chosen yet. A Day is only meaningful
// together with a Month.
type Birthday struct {
	Month string `json:"month,omitempty"`
	Day   int    `json:"day,omitempty"`
}

// Complete reports whether both month and day are set.
func (b Birthday) Complete() bool {
	return b.Month != "" && b.Day != 0
}

// BirthdayPatch carries the fields of a single edit. Zero values are
// treated as absent and leave the stored field untouched.
type BirthdayPatch struct {
	Month string
	Day   int
}

// State is the whole persisted document: the manager assignment plus
// every birthday record keyed by member ID.
type State struct {
	Manager string              `json:"manager,omitempty"`
	Users   map[string]Birthday `json:"users"`
}

// NewState returns the empty default state used when nothing has been
// persisted yet.
func NewState() *State {
	return &State{Users: make(map[string]Birthday)}
}

// Record returns the birthday stored for userID, if any.
func (s *State) Record(userID string) (Birthday, bool) {
	b, ok := s.Users[userID]
	return b, ok
}

// SetBirthday creates or updates the record for userID. Each present
// field of the patch is applied independently; absent fields never
// clear an existing value.
func (s *State) SetBirthday(userID string, patch BirthdayPatch) Birthday {
	if s.Users == nil {
		s.Users = make(map[string]Birthday)
	}
	b := s.Users[userID]
	if patch.Month != "" {
		b.Month = patch.Month
	}
	if patch.Day != 0 {
		b.Day = patch.Day
	}
	s.Users[userID] = b
	return b
}

// SetManager overwrites the manager assignment.
func (s *State) SetManager(userID string) {
	s.Manager = userID
}

// IsManager reports whether userID is the assigned manager.
func (s *State) IsManager(userID string) bool {
	return s.Manager != "" && s.Manager == userID
}

// StateStore persists the State as a single unit. Save replaces the
// entire persisted structure; callers load, mutate and save as one
// logical operation.
type StateStore interface {
	Load(ctx context.Context) (*State, error)
	Save(ctx context.Context, state *State) error
}
