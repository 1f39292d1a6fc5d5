package authz

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/academia-erp/academia-erp/internal/shared"
)

// AuditSink records administrative role mutations.
type AuditSink interface {
	Record(ctx context.Context, entry shared.AuditLog) error
}

// Admin implements the grant/revoke workflow. A principal may only grant
// or revoke roles at or below its own dominance level, which prevents a
// manager from minting admins.
type Admin struct {
	store  Store
	engine *Engine
	audit  AuditSink
	logger *slog.Logger
}

// NewAdmin constructs an Admin. audit may be nil.
func NewAdmin(store Store, engine *Engine, audit AuditSink, logger *slog.Logger) *Admin {
	if logger == nil {
		logger = slog.Default()
	}
	return &Admin{store: store, engine: engine, audit: audit, logger: logger}
}

// Grant assigns roleName to the target principal. Idempotent: repeating a
// grant reactivates or refreshes the existing assignment rather than
// duplicating it. The target's cache entry is invalidated only after the
// store write commits.
func (a *Admin) Grant(ctx context.Context, targetID int64, roleName string, actingID int64) error {
	role, err := a.store.FindRoleByName(ctx, roleName)
	if err != nil {
		return err
	}
	if err := a.requireDominance(ctx, actingID, role); err != nil {
		return err
	}
	if err := a.store.UpsertRoleAssignment(ctx, targetID, role.ID, actingID); err != nil {
		return err
	}
	a.finishMutation(ctx, "role.grant", targetID, role, actingID)
	return nil
}

// Revoke deactivates every active assignment of roleName held by the
// target. The same dominance gate applies as for Grant.
func (a *Admin) Revoke(ctx context.Context, targetID int64, roleName string, actingID int64) error {
	role, err := a.store.FindRoleByName(ctx, roleName)
	if err != nil {
		return err
	}
	if err := a.requireDominance(ctx, actingID, role); err != nil {
		return err
	}
	if err := a.store.DeactivateRoleAssignments(ctx, targetID, role.ID); err != nil {
		return err
	}
	a.finishMutation(ctx, "role.revoke", targetID, role, actingID)
	return nil
}

func (a *Admin) requireDominance(ctx context.Context, actingID int64, role Role) error {
	actor, err := a.engine.Resolve(ctx, actingID)
	if err != nil {
		return err
	}
	if actor.Level < role.Level {
		return fmt.Errorf("%w: level %d cannot administer role %s (level %d)",
			ErrForbidden, actor.Level, role.Name, role.Level)
	}
	return nil
}

// finishMutation runs the post-commit tail of a grant or revoke: cache
// invalidation first, then the audit record. Both are best effort; the
// store write already succeeded and the cache TTL bounds any residue.
func (a *Admin) finishMutation(ctx context.Context, action string, targetID int64, role Role, actingID int64) {
	if err := a.engine.InvalidateCache(ctx, targetID); err != nil {
		a.logger.Warn("authz cache invalidate",
			slog.String("action", action),
			slog.Int64("principal_id", targetID),
			slog.Any("error", err))
	}
	if a.audit == nil {
		return
	}
	err := a.audit.Record(ctx, shared.AuditLog{
		ActorID:  actingID,
		Action:   action,
		Entity:   "role_assignment",
		EntityID: strconv.FormatInt(targetID, 10),
		Meta:     map[string]any{"role": role.Name, "level": role.Level},
	})
	if err != nil {
		a.logger.Warn("authz audit record", slog.String("action", action), slog.Any("error", err))
	}
}
