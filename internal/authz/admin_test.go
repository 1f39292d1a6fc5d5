package authz

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/academia-erp/academia-erp/internal/shared"
)

type memAudit struct {
	mu      sync.Mutex
	entries []shared.AuditLog
}

func (a *memAudit) Record(ctx context.Context, entry shared.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
	return nil
}

func seedAdminFixture(store *memStore) (admin, manager, student Role) {
	admin = store.addRole("ADMIN", 100, "*:*")
	manager = store.addRole("MANAGER", 50, "students:*", "payments:read")
	student = store.addRole("STUDENT", 10, "courses:read")
	return admin, manager, student
}

func TestGrantRejectedBelowRoleLevel(t *testing.T) {
	store := newMemStore()
	_, managerRole, _ := seedAdminFixture(store)
	store.addPrincipal(1) // manager
	store.addPrincipal(2) // target
	store.assign(1, managerRole.ID)
	engine, _ := newTestEngine(t, store)
	adm := NewAdmin(store, engine, nil, testLogger())

	err := adm.Grant(context.Background(), 2, "ADMIN", 1)
	require.ErrorIs(t, err, ErrForbidden)
	require.Empty(t, store.activeAssignments(2), "no assignment row on refusal")
}

func TestGrantUnknownRole(t *testing.T) {
	store := newMemStore()
	store.addPrincipal(1)
	engine, _ := newTestEngine(t, store)
	adm := NewAdmin(store, engine, nil, testLogger())

	err := adm.Grant(context.Background(), 2, "WIZARD", 1)
	require.ErrorIs(t, err, ErrRoleNotFound)
}

func TestGrantIsIdempotent(t *testing.T) {
	store := newMemStore()
	_, managerRole, _ := seedAdminFixture(store)
	store.addPrincipal(1)
	store.addPrincipal(2)
	store.assign(1, managerRole.ID)
	engine, _ := newTestEngine(t, store)
	adm := NewAdmin(store, engine, nil, testLogger())

	ctx := context.Background()
	require.NoError(t, adm.Grant(ctx, 2, "STUDENT", 1))
	first, err := engine.Resolve(ctx, 2)
	require.NoError(t, err)

	require.NoError(t, adm.Grant(ctx, 2, "STUDENT", 1))
	second, err := engine.Resolve(ctx, 2)
	require.NoError(t, err)

	require.Equal(t, first.Level, second.Level)
	require.ElementsMatch(t, first.Permissions, second.Permissions)
	require.Len(t, store.activeAssignments(2), 1)
}

func TestGrantRevokeRoundTrip(t *testing.T) {
	store := newMemStore()
	store.addPrincipal(1)
	store.addPrincipal(2)
	adminRole := store.addRole("ADMIN", 100, "*:*")
	// Two roles sharing a permission name: revoking one must keep the
	// union over the remaining active role.
	store.addRole("AUDITOR", 20, "reports:read", "payments:read")
	store.addRole("CASHIER", 20, "payments:read", "payments:write")
	store.assign(1, adminRole.ID)
	engine, _ := newTestEngine(t, store)
	adm := NewAdmin(store, engine, nil, testLogger())

	ctx := context.Background()
	require.NoError(t, adm.Grant(ctx, 2, "AUDITOR", 1))
	require.NoError(t, adm.Grant(ctx, 2, "CASHIER", 1))
	require.NoError(t, adm.Revoke(ctx, 2, "CASHIER", 1))

	set, err := engine.Resolve(ctx, 2)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"reports:read", "payments:read"}, set.Permissions)
	require.False(t, set.Allows("payments", "write"))
}

func TestMutationsInvalidateCache(t *testing.T) {
	store := newMemStore()
	_, managerRole, _ := seedAdminFixture(store)
	store.addPrincipal(1)
	store.addPrincipal(2)
	store.assign(1, managerRole.ID)
	engine, _ := newTestEngine(t, store)
	adm := NewAdmin(store, engine, nil, testLogger())

	ctx := context.Background()
	before, err := engine.Resolve(ctx, 2)
	require.NoError(t, err)
	require.Empty(t, before.Permissions)

	// The cached empty set must not survive the grant.
	require.NoError(t, adm.Grant(ctx, 2, "STUDENT", 1))
	after, err := engine.Resolve(ctx, 2)
	require.NoError(t, err)
	require.True(t, after.Allows("courses", "read"))
	require.True(t, after.HasRole("STUDENT"))

	// And the cached granted set must not survive the revoke.
	require.NoError(t, adm.Revoke(ctx, 2, "STUDENT", 1))
	final, err := engine.Resolve(ctx, 2)
	require.NoError(t, err)
	require.False(t, final.Allows("courses", "read"))
}

func TestAdminRecordsAudit(t *testing.T) {
	store := newMemStore()
	_, managerRole, _ := seedAdminFixture(store)
	store.addPrincipal(1)
	store.addPrincipal(2)
	store.assign(1, managerRole.ID)
	engine, _ := newTestEngine(t, store)
	sink := &memAudit{}
	adm := NewAdmin(store, engine, sink, testLogger())

	ctx := context.Background()
	require.NoError(t, adm.Grant(ctx, 2, "STUDENT", 1))
	require.NoError(t, adm.Revoke(ctx, 2, "STUDENT", 1))

	require.Len(t, sink.entries, 2)
	require.Equal(t, "role.grant", sink.entries[0].Action)
	require.Equal(t, "role.revoke", sink.entries[1].Action)
	require.Equal(t, int64(1), sink.entries[0].ActorID)
	require.Equal(t, "role_assignment", sink.entries[0].Entity)
	require.Equal(t, "STUDENT", sink.entries[0].Meta["role"])
}

func TestRevokeRejectedBelowRoleLevel(t *testing.T) {
	store := newMemStore()
	adminRole, _, studentRole := seedAdminFixture(store)
	store.addPrincipal(1) // admin target
	store.addPrincipal(2) // student actor
	store.assign(1, adminRole.ID)
	store.assign(2, studentRole.ID)
	engine, _ := newTestEngine(t, store)
	adm := NewAdmin(store, engine, nil, testLogger())

	err := adm.Revoke(context.Background(), 1, "ADMIN", 2)
	require.ErrorIs(t, err, ErrForbidden)
	require.Len(t, store.activeAssignments(1), 1, "assignment stays active")
}
