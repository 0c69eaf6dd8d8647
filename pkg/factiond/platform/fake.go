package platform

import (
	"context"
	"fmt"
	"sync"
)

// Fake is an in-memory Client for tests and local development. It records
// every object and message so assertions can inspect platform state.
type Fake struct {
	mu       sync.Mutex
	nextID   int
	Roles    map[string]*Role
	Channels map[string]*Channel
	Users    map[string]*User
	// UserRoles maps user id to the set of role ids held.
	UserRoles map[string]map[string]bool
	// Overwrites records the access layout each channel was created with.
	Overwrites map[string][]Overwrite
	Nicknames  map[string]string
	DMs        map[string][]string
	Messages   map[string][]string

	// FailNext, when set, makes the next mutating call return this error.
	FailNext error
}

// NewFake returns an empty fake platform.
func NewFake() *Fake {
	return &Fake{
		Roles:      make(map[string]*Role),
		Channels:   make(map[string]*Channel),
		Users:      make(map[string]*User),
		UserRoles:  make(map[string]map[string]bool),
		Overwrites: make(map[string][]Overwrite),
		Nicknames:  make(map[string]string),
		DMs:        make(map[string][]string),
		Messages:   make(map[string][]string),
	}
}

// AddUser registers a user so ResolveUser and role grants succeed.
func (f *Fake) AddUser(id, username string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Users[id] = &User{ID: id, Username: username}
	if f.UserRoles[id] == nil {
		f.UserRoles[id] = make(map[string]bool)
	}
}

func (f *Fake) takeFailure() error {
	err := f.FailNext
	f.FailNext = nil
	return err
}

func (f *Fake) newID(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *Fake) CreateRole(_ context.Context, name, color string) (Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return Role{}, err
	}
	r := &Role{ID: f.newID("role"), Name: name, Color: color}
	f.Roles[r.ID] = r
	return *r, nil
}

func (f *Fake) RenameRole(_ context.Context, roleID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return err
	}
	r, ok := f.Roles[roleID]
	if !ok {
		return fmt.Errorf("renaming role %s: %w", roleID, ErrNotFound)
	}
	r.Name = name
	return nil
}

func (f *Fake) DeleteRole(_ context.Context, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return err
	}
	if _, ok := f.Roles[roleID]; !ok {
		return fmt.Errorf("deleting role %s: %w", roleID, ErrNotFound)
	}
	delete(f.Roles, roleID)
	for _, held := range f.UserRoles {
		delete(held, roleID)
	}
	return nil
}

func (f *Fake) CreateCategory(_ context.Context, name string) (Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return Channel{}, err
	}
	c := &Channel{ID: f.newID("cat"), Name: name, Kind: ChannelText}
	f.Channels[c.ID] = c
	return *c, nil
}

func (f *Fake) CreateChannel(_ context.Context, categoryID, name string, kind ChannelKind, overwrites []Overwrite) (Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return Channel{}, err
	}
	c := &Channel{ID: f.newID("chan"), Name: name, Kind: kind, CategoryID: categoryID}
	f.Channels[c.ID] = c
	f.Overwrites[c.ID] = overwrites
	return *c, nil
}

func (f *Fake) RenameChannel(_ context.Context, channelID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return err
	}
	c, ok := f.Channels[channelID]
	if !ok {
		return fmt.Errorf("renaming channel %s: %w", channelID, ErrNotFound)
	}
	c.Name = name
	return nil
}

func (f *Fake) DeleteChannel(_ context.Context, channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return err
	}
	if _, ok := f.Channels[channelID]; !ok {
		return fmt.Errorf("deleting channel %s: %w", channelID, ErrNotFound)
	}
	delete(f.Channels, channelID)
	delete(f.Overwrites, channelID)
	return nil
}

func (f *Fake) AddRole(_ context.Context, userID, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return err
	}
	if f.UserRoles[userID] == nil {
		f.UserRoles[userID] = make(map[string]bool)
	}
	f.UserRoles[userID][roleID] = true
	return nil
}

func (f *Fake) RemoveRole(_ context.Context, userID, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return err
	}
	delete(f.UserRoles[userID], roleID)
	return nil
}

func (f *Fake) SetNickname(_ context.Context, userID, nickname string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return err
	}
	if nickname == "" {
		delete(f.Nicknames, userID)
		return nil
	}
	f.Nicknames[userID] = nickname
	return nil
}

func (f *Fake) SendDM(_ context.Context, userID, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return err
	}
	f.DMs[userID] = append(f.DMs[userID], message)
	return nil
}

func (f *Fake) SendChannelMessage(_ context.Context, channelID, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return err
	}
	f.Messages[channelID] = append(f.Messages[channelID], message)
	return nil
}

func (f *Fake) ResolveUser(_ context.Context, userID string) (User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.Users[userID]
	if !ok {
		return User{}, fmt.Errorf("resolving user %s: %w", userID, ErrNotFound)
	}
	return *u, nil
}

// HasRole reports whether the user currently holds the role.
func (f *Fake) HasRole(userID, roleID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.UserRoles[userID][roleID]
}
