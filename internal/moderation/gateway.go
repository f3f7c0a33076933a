// Package moderation decides who may perform admin actions and manages the
// secondary-admin and channel sets. The main admin comes from configuration
// and is never stored as a row, so it can be neither duplicated nor revoked.
package moderation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m3rciful/confessbot/internal/logging"
	"github.com/m3rciful/confessbot/internal/model"
	"github.com/m3rciful/confessbot/internal/storage"
)

// Gateway implements the authorization predicate and admin-set mutation.
type Gateway struct {
	repo      storage.Repository
	mainAdmin int64
	log       *slog.Logger
}

// NewGateway wires a Gateway for the configured main admin id.
func NewGateway(repo storage.Repository, mainAdmin int64) *Gateway {
	return &Gateway{
		repo:      repo,
		mainAdmin: mainAdmin,
		log:       logging.Component("moderation"),
	}
}

// MainAdmin returns the configured main admin id.
func (g *Gateway) MainAdmin() int64 { return g.mainAdmin }

// IsAdmin reports whether the id is the main admin or a stored secondary admin.
func (g *Gateway) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	if userID == g.mainAdmin {
		return true, nil
	}
	ok, err := g.repo.IsAdmin(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("admin lookup: %w", err)
	}
	return ok, nil
}

// Authorize returns NotAuthorizedError for non-admins and logs the denial as
// a security-relevant event.
func (g *Gateway) Authorize(ctx context.Context, userID int64) error {
	ok, err := g.IsAdmin(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		g.log.Warn("admin action denied",
			slog.String("event", "authz.denied"),
			slog.Int64("user_id", userID),
		)
		return &model.NotAuthorizedError{UserID: userID}
	}
	return nil
}

// GrantAdmin adds a secondary admin. Only the main admin may grant. A false
// return means no-op: the target is already an admin or is the main admin
// itself; callers report it to the operator instead of treating it as a fault.
func (g *Gateway) GrantAdmin(ctx context.Context, actor, target int64) (bool, error) {
	if err := g.authorizeMain(actor); err != nil {
		return false, err
	}
	if target == g.mainAdmin {
		return false, nil
	}
	added, err := g.repo.AddAdmin(ctx, target, actor)
	if err != nil {
		return false, fmt.Errorf("grant admin: %w", err)
	}
	if added {
		g.log.Info("admin granted",
			slog.String("event", "admin.grant"),
			slog.Int64("user_id", target),
		)
	}
	return added, nil
}

// RevokeAdmin removes a secondary admin. Only the main admin may revoke; the
// main admin has no row, so it cannot be targeted.
func (g *Gateway) RevokeAdmin(ctx context.Context, actor, target int64) (bool, error) {
	if err := g.authorizeMain(actor); err != nil {
		return false, err
	}
	removed, err := g.repo.RemoveAdmin(ctx, target)
	if err != nil {
		return false, fmt.Errorf("revoke admin: %w", err)
	}
	if removed {
		g.log.Info("admin revoked",
			slog.String("event", "admin.revoke"),
			slog.Int64("user_id", target),
		)
	}
	return removed, nil
}

// ListAdmins returns the secondary admin set; admin-only.
func (g *Gateway) ListAdmins(ctx context.Context, actor int64) ([]model.Admin, error) {
	if err := g.Authorize(ctx, actor); err != nil {
		return nil, err
	}
	return g.repo.ListAdmins(ctx)
}

// AddChannel registers a publish target; admin-only. False means the channel
// was already registered.
func (g *Gateway) AddChannel(ctx context.Context, actor int64, ch *model.Channel) (bool, error) {
	if err := g.Authorize(ctx, actor); err != nil {
		return false, err
	}
	ch.AddedBy = actor
	added, err := g.repo.AddChannel(ctx, ch)
	if err != nil {
		return false, fmt.Errorf("add channel: %w", err)
	}
	if added {
		g.log.Info("channel added",
			slog.String("event", "channel.add"),
			slog.Int64("channel_id", ch.ID),
		)
	}
	return added, nil
}

// RemoveChannel deregisters a publish target; admin-only.
func (g *Gateway) RemoveChannel(ctx context.Context, actor, channelID int64) (bool, error) {
	if err := g.Authorize(ctx, actor); err != nil {
		return false, err
	}
	removed, err := g.repo.RemoveChannel(ctx, channelID)
	if err != nil {
		return false, fmt.Errorf("remove channel: %w", err)
	}
	if removed {
		g.log.Info("channel removed",
			slog.String("event", "channel.remove"),
			slog.Int64("channel_id", channelID),
		)
	}
	return removed, nil
}

// ListChannels returns the configured publish targets; admin-only.
func (g *Gateway) ListChannels(ctx context.Context, actor int64) ([]model.Channel, error) {
	if err := g.Authorize(ctx, actor); err != nil {
		return nil, err
	}
	return g.repo.ListChannels(ctx)
}

func (g *Gateway) authorizeMain(actor int64) error {
	if actor != g.mainAdmin {
		g.log.Warn("admin mutation denied",
			slog.String("event", "authz.denied"),
			slog.Int64("user_id", actor),
		)
		return &model.NotAuthorizedError{UserID: actor}
	}
	return nil
}
