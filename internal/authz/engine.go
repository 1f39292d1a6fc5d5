package authz

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"
)

// Engine answers "may this principal perform this action" by resolving a
// cached PermissionSet per principal. Boolean checks are fail-closed: any
// internal fault logs and denies, so a caller can never distinguish an
// outage from an insufficient grant through the decision API.
//
// Store calls inherit the caller's context; the engine adds no timeouts
// and performs no retries of its own.
type Engine struct {
	store   Store
	cache   *Cache
	logger  *slog.Logger
	metrics *Metrics
	group   singleflight.Group
}

// NewEngine constructs an Engine. cache and metrics may be nil.
func NewEngine(store Store, cache *Cache, logger *slog.Logger, metrics *Metrics) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, cache: cache, logger: logger, metrics: metrics}
}

// Resolve returns the principal's PermissionSet, reading through the cache.
// A cache hit is returned as-is; TTL is the only freshness bound. On a miss
// concurrent resolutions for the same principal collapse into one store
// load. Returns ErrNotFound when the principal does not exist.
func (e *Engine) Resolve(ctx context.Context, principalID int64) (PermissionSet, error) {
	if set, ok, err := e.cache.Get(ctx, principalID); err != nil {
		e.logger.Warn("authz cache read", slog.Int64("principal_id", principalID), slog.Any("error", err))
	} else if ok {
		e.metrics.cacheResult("hit")
		return set, nil
	}
	e.metrics.cacheResult("miss")

	start := time.Now()
	defer e.metrics.observeResolve(start)

	v, err, _ := e.singleflightResolve(ctx, principalID)
	if err != nil {
		return PermissionSet{}, err
	}
	return v, nil
}

func (e *Engine) singleflightResolve(ctx context.Context, principalID int64) (PermissionSet, error, bool) {
	resultChan := e.group.DoChan(strconv.FormatInt(principalID, 10), func() (interface{}, error) {
		return e.loadPermissionSet(ctx, principalID)
	})
	select {
	case <-ctx.Done():
		return PermissionSet{}, ctx.Err(), false
	case res := <-resultChan:
		set, _ := res.Val.(PermissionSet)
		return set, res.Err, res.Shared
	}
}

func (e *Engine) loadPermissionSet(ctx context.Context, principalID int64) (PermissionSet, error) {
	exists, err := e.store.PrincipalExists(ctx, principalID)
	if err != nil {
		return PermissionSet{}, err
	}
	if !exists {
		return PermissionSet{}, fmt.Errorf("%w: principal %d", ErrNotFound, principalID)
	}
	grants, err := e.store.FindActiveRoleAssignments(ctx, principalID)
	if err != nil {
		return PermissionSet{}, err
	}
	set := NewPermissionSet(principalID, grants)
	if err := e.cache.Set(ctx, set); err != nil {
		// The set is still correct; only the next request pays the store
		// round trip again.
		e.logger.Warn("authz cache write", slog.Int64("principal_id", principalID), slog.Any("error", err))
	}
	return set, nil
}

// HasPermission reports whether the principal may perform action on
// resource. Internal errors deny and log.
func (e *Engine) HasPermission(ctx context.Context, principalID int64, resource, action string) bool {
	set, err := e.Resolve(ctx, principalID)
	if err != nil {
		e.denyOnError("has_permission", principalID, err)
		return false
	}
	allowed := set.Allows(resource, action)
	e.metrics.decision("has_permission", allowed)
	return allowed
}

// HasAny reports whether at least one of the named permissions is granted,
// short-circuiting on the first success. Malformed names evaluate false.
func (e *Engine) HasAny(ctx context.Context, principalID int64, permissions []string) bool {
	set, err := e.Resolve(ctx, principalID)
	if err != nil {
		e.denyOnError("has_any", principalID, err)
		return false
	}
	for _, name := range permissions {
		if resource, action, ok := SplitPermission(name); ok && set.Allows(resource, action) {
			e.metrics.decision("has_any", true)
			return true
		}
	}
	e.metrics.decision("has_any", false)
	return false
}

// HasAll reports whether every named permission is granted, short-
// circuiting on the first failure.
func (e *Engine) HasAll(ctx context.Context, principalID int64, permissions []string) bool {
	set, err := e.Resolve(ctx, principalID)
	if err != nil {
		e.denyOnError("has_all", principalID, err)
		return false
	}
	for _, name := range permissions {
		resource, action, ok := SplitPermission(name)
		if !ok || !set.Allows(resource, action) {
			e.metrics.decision("has_all", false)
			return false
		}
	}
	e.metrics.decision("has_all", true)
	return true
}

// CanAccessPrincipal reports whether caller may act on target's resources.
// Self-access is always allowed; otherwise the caller's level must be at
// least the target's. This is a level-dominance rule, independent of any
// enumerated permission.
func (e *Engine) CanAccessPrincipal(ctx context.Context, callerID, targetID int64) bool {
	if callerID == targetID {
		e.metrics.decision("can_access_principal", true)
		return true
	}
	caller, err := e.Resolve(ctx, callerID)
	if err != nil {
		e.denyOnError("can_access_principal", callerID, err)
		return false
	}
	target, err := e.Resolve(ctx, targetID)
	if err != nil {
		e.denyOnError("can_access_principal", targetID, err)
		return false
	}
	allowed := caller.Level >= target.Level
	e.metrics.decision("can_access_principal", allowed)
	return allowed
}

// InvalidateCache drops the principal's cached PermissionSet so the next
// decision re-derives it from the store.
func (e *Engine) InvalidateCache(ctx context.Context, principalID int64) error {
	return e.cache.Invalidate(ctx, principalID)
}

func (e *Engine) denyOnError(check string, principalID int64, err error) {
	e.metrics.denyError(check)
	e.logger.Error("authz check degraded to deny",
		slog.String("check", check),
		slog.Int64("principal_id", principalID),
		slog.Any("error", err))
}
