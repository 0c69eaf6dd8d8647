package audit

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/xyn4x/factiond/pkg/factiond/platform"
)

// Recorder emits one structured log line per mutation and mirrors a short
// human-readable summary to the configured log channel. Channel delivery
// is best effort and never fails the mutation.
type Recorder struct {
	log          zerolog.Logger
	advisory     *platform.Advisory
	logChannelID string
}

// NewRecorder creates a recorder. logChannelID may be empty, in which case
// only structured logs are emitted.
func NewRecorder(log zerolog.Logger, advisory *platform.Advisory, logChannelID string) *Recorder {
	return &Recorder{log: log, advisory: advisory, logChannelID: logChannelID}
}

// Entry is one auditable mutation.
type Entry struct {
	Action      string
	ActorID     string
	TargetID    string
	FactionCode string
	Detail      string
}

// Record emits the entry.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	evt := r.log.Info().
		Str("action", e.Action).
		Str("actor_id", e.ActorID).
		Str("faction", e.FactionCode)
	if e.TargetID != "" {
		evt = evt.Str("target_id", e.TargetID)
	}
	if e.Detail != "" {
		evt = evt.Str("detail", e.Detail)
	}
	evt.Msg("audit")

	msg := fmt.Sprintf("[%s] %s by %s", e.FactionCode, e.Action, e.ActorID)
	if e.TargetID != "" {
		msg += " on " + e.TargetID
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	r.advisory.SendChannelMessage(ctx, r.logChannelID, msg)
}
