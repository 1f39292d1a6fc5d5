package authz

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu          sync.Mutex
	principals  map[int64]struct{}
	roles       map[string]Role
	rolePerms   map[int64][]string
	assignments map[int64]map[int64]RoleAssignment
	owners      map[ResourceKind]map[int64]int64
	loadCalls   int
	failReads   bool
	nextRoleID  int64
}

func newMemStore() *memStore {
	return &memStore{
		principals:  make(map[int64]struct{}),
		roles:       make(map[string]Role),
		rolePerms:   make(map[int64][]string),
		assignments: make(map[int64]map[int64]RoleAssignment),
		owners:      make(map[ResourceKind]map[int64]int64),
	}
}

func (m *memStore) addPrincipal(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.principals[id] = struct{}{}
}

func (m *memStore) addRole(name string, level int, perms ...string) Role {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextRoleID++
	role := Role{ID: m.nextRoleID, Name: name, DisplayName: name, Level: level}
	m.roles[name] = role
	m.rolePerms[role.ID] = perms
	return role
}

func (m *memStore) assign(principalID, roleID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.assignments[principalID] == nil {
		m.assignments[principalID] = make(map[int64]RoleAssignment)
	}
	m.assignments[principalID][roleID] = RoleAssignment{
		PrincipalID: principalID,
		RoleID:      roleID,
		GrantedAt:   time.Now(),
		IsActive:    true,
	}
}

func (m *memStore) setOwner(kind ResourceKind, resourceID, ownerID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.owners[kind] == nil {
		m.owners[kind] = make(map[int64]int64)
	}
	m.owners[kind][resourceID] = ownerID
}

func (m *memStore) activeAssignments(principalID int64) []RoleAssignment {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []RoleAssignment
	for _, a := range m.assignments[principalID] {
		if a.IsActive {
			out = append(out, a)
		}
	}
	return out
}

func (m *memStore) PrincipalExists(ctx context.Context, principalID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failReads {
		return false, ErrStoreUnavailable
	}
	_, ok := m.principals[principalID]
	return ok, nil
}

func (m *memStore) FindActiveRoleAssignments(ctx context.Context, principalID int64) ([]RoleGrant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failReads {
		return nil, ErrStoreUnavailable
	}
	m.loadCalls++
	var grants []RoleGrant
	for _, a := range m.assignments[principalID] {
		if !a.IsActive {
			continue
		}
		for _, role := range m.roles {
			if role.ID == a.RoleID {
				grants = append(grants, RoleGrant{Role: role, Permissions: m.rolePerms[role.ID]})
			}
		}
	}
	return grants, nil
}

func (m *memStore) FindRoleByName(ctx context.Context, name string) (Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failReads {
		return Role{}, ErrStoreUnavailable
	}
	role, ok := m.roles[name]
	if !ok {
		return Role{}, ErrRoleNotFound
	}
	return role, nil
}

func (m *memStore) UpsertRoleAssignment(ctx context.Context, principalID, roleID, grantedBy int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.assignments[principalID] == nil {
		m.assignments[principalID] = make(map[int64]RoleAssignment)
	}
	m.assignments[principalID][roleID] = RoleAssignment{
		PrincipalID: principalID,
		RoleID:      roleID,
		GrantedBy:   grantedBy,
		GrantedAt:   time.Now(),
		IsActive:    true,
	}
	return nil
}

func (m *memStore) DeactivateRoleAssignments(ctx context.Context, principalID, roleID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.assignments[principalID][roleID]; ok {
		a.IsActive = false
		m.assignments[principalID][roleID] = a
	}
	return nil
}

func (m *memStore) FindResourceOwner(ctx context.Context, kind ResourceKind, resourceID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failReads {
		return 0, ErrStoreUnavailable
	}
	owner, ok := m.owners[kind][resourceID]
	if !ok {
		return 0, ErrResourceNotFound
	}
	return owner, nil
}

var _ Store = (*memStore)(nil)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTestEngine(t *testing.T, store Store) (*Engine, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewCache(client, time.Minute)
	return NewEngine(store, cache, testLogger(), nil), mr
}

func TestResolveWithoutAssignments(t *testing.T) {
	store := newMemStore()
	store.addPrincipal(1)
	engine, _ := newTestEngine(t, store)

	ctx := context.Background()
	set, err := engine.Resolve(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 0, set.Level)
	require.Empty(t, set.Permissions)
	require.False(t, engine.HasPermission(ctx, 1, "*", "*"))
}

func TestResolveUnknownPrincipal(t *testing.T) {
	store := newMemStore()
	engine, _ := newTestEngine(t, store)

	_, err := engine.Resolve(context.Background(), 42)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestResolveUnionsPermissionsAndMaxLevel(t *testing.T) {
	store := newMemStore()
	store.addPrincipal(1)
	student := store.addRole("STUDENT", 1, "courses:read")
	teacher := store.addRole("TEACHER", 2, "attendance:*")
	store.assign(1, student.ID)
	store.assign(1, teacher.ID)
	engine, _ := newTestEngine(t, store)

	set, err := engine.Resolve(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 2, set.Level)
	require.ElementsMatch(t, []string{"courses:read", "attendance:*"}, set.Permissions)
	require.ElementsMatch(t, []string{"STUDENT", "TEACHER"}, set.Roles)
}

func TestResolveCachesAcrossCalls(t *testing.T) {
	store := newMemStore()
	store.addPrincipal(1)
	role := store.addRole("STUDENT", 1, "courses:read")
	store.assign(1, role.ID)
	engine, mr := newTestEngine(t, store)

	ctx := context.Background()
	_, err := engine.Resolve(ctx, 1)
	require.NoError(t, err)
	_, err = engine.Resolve(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 1, store.loadCalls)

	// Past the TTL the entry is a miss and the store is consulted again.
	mr.FastForward(2 * time.Minute)
	_, err = engine.Resolve(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 2, store.loadCalls)
}

func TestWildcardGrammar(t *testing.T) {
	store := newMemStore()
	store.addPrincipal(1)
	role := store.addRole("OPS", 3, "users:*")
	store.assign(1, role.ID)
	store.addPrincipal(2)
	root := store.addRole("ROOT", 9, "*:*")
	store.assign(2, root.ID)
	engine, _ := newTestEngine(t, store)

	ctx := context.Background()
	require.True(t, engine.HasPermission(ctx, 1, "users", "read"))
	require.True(t, engine.HasPermission(ctx, 1, "users", "purge"))
	require.False(t, engine.HasPermission(ctx, 1, "courses", "read"))

	require.True(t, engine.HasPermission(ctx, 2, "courses", "read"))
	require.True(t, engine.HasPermission(ctx, 2, "anything", "at-all"))
}

func TestHasAnyAndHasAll(t *testing.T) {
	store := newMemStore()
	store.addPrincipal(1)
	role := store.addRole("TEACHER", 2, "attendance:*", "groups:read")
	store.assign(1, role.ID)
	engine, _ := newTestEngine(t, store)

	ctx := context.Background()
	require.True(t, engine.HasAny(ctx, 1, []string{"payments:read", "groups:read"}))
	require.False(t, engine.HasAny(ctx, 1, []string{"payments:read", "payments:write"}))
	require.True(t, engine.HasAll(ctx, 1, []string{"attendance:delete", "groups:read"}))
	require.False(t, engine.HasAll(ctx, 1, []string{"attendance:delete", "payments:read"}))
	// Malformed requirement names never grant.
	require.False(t, engine.HasAny(ctx, 1, []string{"groups"}))
	require.False(t, engine.HasAll(ctx, 1, []string{"groups"}))
}

func TestBooleanChecksFailClosed(t *testing.T) {
	store := newMemStore()
	store.addPrincipal(1)
	store.failReads = true
	engine, _ := newTestEngine(t, store)

	ctx := context.Background()
	require.False(t, engine.HasPermission(ctx, 1, "users", "read"))
	require.False(t, engine.HasAny(ctx, 1, []string{"users:read"}))
	require.False(t, engine.HasAll(ctx, 1, []string{"users:read"}))
	require.False(t, engine.CanAccessPrincipal(ctx, 1, 2))
}

func TestCanAccessPrincipalDominance(t *testing.T) {
	store := newMemStore()
	store.addPrincipal(1)
	store.addPrincipal(2)
	teacher := store.addRole("TEACHER", 2, "attendance:*", "groups:read")
	student := store.addRole("STUDENT", 1, "courses:read")
	store.assign(1, teacher.ID)
	store.assign(2, student.ID)
	engine, _ := newTestEngine(t, store)

	ctx := context.Background()
	require.True(t, engine.CanAccessPrincipal(ctx, 1, 2), "teacher dominates student")
	require.False(t, engine.CanAccessPrincipal(ctx, 2, 1), "student does not dominate teacher")
	require.True(t, engine.CanAccessPrincipal(ctx, 2, 2), "self access always allowed")
}

func TestResolveWorksWithoutCache(t *testing.T) {
	store := newMemStore()
	store.addPrincipal(1)
	role := store.addRole("STUDENT", 1, "courses:read")
	store.assign(1, role.ID)
	engine := NewEngine(store, nil, testLogger(), nil)

	set, err := engine.Resolve(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, []string{"courses:read"}, set.Permissions)
}

func TestSplitPermission(t *testing.T) {
	tests := []struct {
		name     string
		resource string
		action   string
		ok       bool
	}{
		{"users:read", "users", "read", true},
		{"users:*", "users", "*", true},
		{"*:*", "*", "*", true},
		{"users", "", "", false},
		{"users:", "", "", false},
		{":read", "", "", false},
	}
	for _, tc := range tests {
		resource, action, ok := SplitPermission(tc.name)
		require.Equal(t, tc.ok, ok, tc.name)
		require.Equal(t, tc.resource, resource, tc.name)
		require.Equal(t, tc.action, action, tc.name)
	}
}

func TestResolveContextCancellation(t *testing.T) {
	store := newMemStore()
	store.addPrincipal(1)
	engine := NewEngine(store, nil, testLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := engine.Resolve(ctx, 1)
	require.True(t, errors.Is(err, context.Canceled) || err == nil)
}
