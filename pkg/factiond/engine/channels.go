package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xyn4x/factiond/pkg/factiond/directory"
	"github.com/xyn4x/factiond/pkg/factiond/models"
	"github.com/xyn4x/factiond/pkg/factiond/platform"
	"github.com/xyn4x/factiond/pkg/factiond/rank"
)

// ownerOnly resolves the actor's faction and rejects anyone below owner.
// Channel management is not policy-configurable.
func (e *Engine) ownerOnly(actorID string) (*models.Faction, error) {
	faction, _, level, err := e.actorIn(actorID)
	if err != nil {
		return nil, err
	}
	if level < rank.Owner {
		return nil, fmt.Errorf("%w: only the owner can manage channels", ErrUnauthorized)
	}
	return faction, nil
}

// AddChannel creates a platform channel under the faction's category with
// the named access preset and binds it.
func (e *Engine) AddChannel(ctx context.Context, actorID, name string, preset platform.AccessPreset) (binding *models.ChannelBinding, err error) {
	defer func() { e.observe("channel_add", err) }()

	if err = e.throttle(actorID, "channel_add"); err != nil {
		return nil, err
	}
	faction, err := e.ownerOnly(actorID)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: channel name is required", ErrValidation)
	}
	if !platform.ValidPreset(preset) {
		return nil, fmt.Errorf("%w: unknown access preset %q", ErrValidation, preset)
	}

	kind, overwrites, err := preset.Build(roleSet(faction))
	if err != nil {
		return nil, err
	}
	ch, err := e.client.CreateChannel(ctx, faction.CategoryID, name, kind, overwrites)
	if err != nil {
		return nil, fmt.Errorf("creating channel %s: %w", name, err)
	}

	binding = &models.ChannelBinding{
		FactionID: faction.ID,
		Kind:      string(kind),
		ChannelID: ch.ID,
		Name:      name,
	}
	if err = e.db.Create(binding).Error; err != nil {
		return nil, err
	}
	e.record(ctx, "channel_add", actorID, "", faction.UniqueCode,
		fmt.Sprintf("%s (%s)", name, preset))
	return binding, nil
}

// RemoveChannel deletes the binding and, best effort, the platform
// channel. The durable row always goes.
func (e *Engine) RemoveChannel(ctx context.Context, actorID, channelID string) (err error) {
	defer func() { e.observe("channel_remove", err) }()

	if err = e.throttle(actorID, "channel_remove"); err != nil {
		return err
	}
	faction, err := e.ownerOnly(actorID)
	if err != nil {
		return err
	}
	binding, err := e.dir.Channel(faction.ID, channelID)
	if errors.Is(err, directory.ErrNotFound) {
		return fmt.Errorf("%w: channel %s", ErrNotFound, channelID)
	}
	if err != nil {
		return err
	}

	if err = e.db.Delete(&models.ChannelBinding{}, binding.ID).Error; err != nil {
		return err
	}
	if delErr := e.client.DeleteChannel(ctx, channelID); delErr != nil {
		e.log.Warn().Err(delErr).Str("channel_id", channelID).Msg("channel deletion failed")
	}
	e.record(ctx, "channel_remove", actorID, "", faction.UniqueCode, binding.Name)
	return nil
}

// RenameChannel updates both the platform channel and the binding.
func (e *Engine) RenameChannel(ctx context.Context, actorID, channelID, name string) (err error) {
	defer func() { e.observe("channel_rename", err) }()

	if err = e.throttle(actorID, "channel_rename"); err != nil {
		return err
	}
	faction, err := e.ownerOnly(actorID)
	if err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: channel name is required", ErrValidation)
	}
	binding, err := e.dir.Channel(faction.ID, channelID)
	if errors.Is(err, directory.ErrNotFound) {
		return fmt.Errorf("%w: channel %s", ErrNotFound, channelID)
	}
	if err != nil {
		return err
	}

	old := binding.Name
	binding.Name = name
	if err = e.db.Save(binding).Error; err != nil {
		return err
	}
	if renameErr := e.client.RenameChannel(ctx, channelID, name); renameErr != nil {
		e.log.Warn().Err(renameErr).Str("channel_id", channelID).Msg("channel rename failed")
	}
	e.record(ctx, "channel_rename", actorID, "", faction.UniqueCode,
		fmt.Sprintf("%s -> %s", old, name))
	return nil
}
