// Package platformtest provides an in-memory chat platform for tests.
package platformtest

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/msomdec/birthday-bot/internal/domain"
)

// ErrTransient is returned by calls configured to fail with Fail.
var ErrTransient = errors.New("platformtest: transient failure")

// Post records a PostMessage call.
type Post struct {
	Ref     domain.MessageRef
	Message domain.Message
}

// Update records an UpdateMessage call.
type Update struct {
	Ref     domain.MessageRef
	Message domain.Message
}

// Fake implements domain.Platform in memory. It is safe for concurrent use.
type Fake struct {
	mu       sync.Mutex
	self     domain.Identity
	channels map[string]string   // name -> id
	members  map[string][]string // channel id -> member ids
	users    map[string]domain.Member
	posts    []Post
	updates  []Update
	failures map[string]int
	calls    map[string]int
	seq      int
}

// New returns a Fake whose bot identity is self.
func New(self domain.Identity) *Fake {
	return &Fake{
		self:     self,
		channels: make(map[string]string),
		members:  make(map[string][]string),
		users:    make(map[string]domain.Member),
		failures: make(map[string]int),
		calls:    make(map[string]int),
	}
}

// AddMember registers a workspace member.
func (f *Fake) AddMember(m domain.Member) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[m.ID] = m
}

// AddChannel registers a named channel with the given members.
func (f *Fake) AddChannel(name, id string, memberIDs ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channels[name] = id
	f.members[id] = slices.Clone(memberIDs)
}

// AddDirectChannel registers a two-party conversation between the bot
// and userID.
func (f *Fake) AddDirectChannel(id, userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members[id] = []string{f.self.UserID, userID}
}

// Fail makes the next n calls to method return ErrTransient.
func (f *Fake) Fail(method string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[method] = n
}

// Calls returns how often method was called.
func (f *Fake) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// Posts returns the messages posted so far.
func (f *Fake) Posts() []Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.posts)
}

// Updates returns the message updates made so far.
func (f *Fake) Updates() []Update {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.updates)
}

// call records a call and reports a configured failure. Caller holds mu.
func (f *Fake) call(method string) error {
	f.calls[method]++
	if f.failures[method] > 0 {
		f.failures[method]--
		return ErrTransient
	}
	return nil
}

func (f *Fake) Authenticate(ctx context.Context) (domain.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("Authenticate"); err != nil {
		return domain.Identity{}, err
	}
	return f.self, nil
}

func (f *Fake) FindChannel(ctx context.Context, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("FindChannel"); err != nil {
		return "", err
	}
	id, ok := f.channels[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return id, nil
}

func (f *Fake) ListChannelMembers(ctx context.Context, channelID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("ListChannelMembers"); err != nil {
		return nil, err
	}
	return slices.Clone(f.members[channelID]), nil
}

func (f *Fake) ListMembers(ctx context.Context) ([]domain.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("ListMembers"); err != nil {
		return nil, err
	}
	members := make([]domain.Member, 0, len(f.users))
	for _, m := range f.users {
		members = append(members, m)
	}
	return members, nil
}

func (f *Fake) GetMember(ctx context.Context, id string) (*domain.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("GetMember"); err != nil {
		return nil, err
	}
	m, ok := f.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &m, nil
}

func (f *Fake) PostMessage(ctx context.Context, channelID string, msg domain.Message) (domain.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("PostMessage"); err != nil {
		return domain.MessageRef{}, err
	}
	f.seq++
	ref := domain.MessageRef{ChannelID: channelID, Timestamp: fmt.Sprintf("1700000000.%06d", f.seq)}
	f.posts = append(f.posts, Post{Ref: ref, Message: msg})
	return ref, nil
}

func (f *Fake) UpdateMessage(ctx context.Context, ref domain.MessageRef, msg domain.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("UpdateMessage"); err != nil {
		return err
	}
	f.updates = append(f.updates, Update{Ref: ref, Message: msg})
	return nil
}
