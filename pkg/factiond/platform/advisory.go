package platform

import (
	"context"

	"github.com/rs/zerolog"
)

// Advisory wraps a Client for side effects that must never fail the
// operation that triggered them. Nickname updates, DMs, and log-channel
// messages fall in this class: failures are logged and swallowed.
type Advisory struct {
	client Client
	log    zerolog.Logger
}

// NewAdvisory wraps client with failure-swallowing semantics.
func NewAdvisory(client Client, log zerolog.Logger) *Advisory {
	return &Advisory{client: client, log: log}
}

// SetNickname tries to update the user's nickname.
func (a *Advisory) SetNickname(ctx context.Context, userID, nickname string) {
	if err := a.client.SetNickname(ctx, userID, nickname); err != nil {
		a.log.Warn().Err(err).Str("user_id", userID).Msg("nickname update failed")
	}
}

// SendDM tries to deliver a direct message.
func (a *Advisory) SendDM(ctx context.Context, userID, message string) {
	if err := a.client.SendDM(ctx, userID, message); err != nil {
		a.log.Warn().Err(err).Str("user_id", userID).Msg("direct message failed")
	}
}

// SendChannelMessage tries to post to a channel. No-op when channelID is
// empty, which covers unconfigured log and admin channels.
func (a *Advisory) SendChannelMessage(ctx context.Context, channelID, message string) {
	if channelID == "" {
		return
	}
	if err := a.client.SendChannelMessage(ctx, channelID, message); err != nil {
		a.log.Warn().Err(err).Str("channel_id", channelID).Msg("channel message failed")
	}
}
