package platform

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a referenced platform object does not exist.
var ErrNotFound = errors.New("platform object not found")

// ChannelKind distinguishes text and voice channels.
type ChannelKind string

const (
	ChannelText  ChannelKind = "text"
	ChannelVoice ChannelKind = "voice"
)

// Role is a chat-platform role.
type Role struct {
	ID    string
	Name  string
	Color string
}

// Channel is a chat-platform channel, optionally nested under a category.
type Channel struct {
	ID         string
	Name       string
	Kind       ChannelKind
	CategoryID string
}

// User is the platform's view of a person.
type User struct {
	ID       string
	Username string
}

// Overwrite grants or withholds access on a channel for one role or for
// everyone when RoleID is empty.
type Overwrite struct {
	RoleID string
	View   bool
	Write  bool
	Speak  bool
}

// Client is the surface factiond needs from the chat platform. The real
// implementation lives in the gateway; tests and local runs use Fake.
type Client interface {
	CreateRole(ctx context.Context, name, color string) (Role, error)
	RenameRole(ctx context.Context, roleID, name string) error
	DeleteRole(ctx context.Context, roleID string) error

	CreateCategory(ctx context.Context, name string) (Channel, error)
	CreateChannel(ctx context.Context, categoryID, name string, kind ChannelKind, overwrites []Overwrite) (Channel, error)
	RenameChannel(ctx context.Context, channelID, name string) error
	DeleteChannel(ctx context.Context, channelID string) error

	AddRole(ctx context.Context, userID, roleID string) error
	RemoveRole(ctx context.Context, userID, roleID string) error

	SetNickname(ctx context.Context, userID, nickname string) error
	SendDM(ctx context.Context, userID, message string) error
	SendChannelMessage(ctx context.Context, channelID, message string) error

	ResolveUser(ctx context.Context, userID string) (User, error)
}
