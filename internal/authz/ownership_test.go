package authz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOwnershipAllowSelfShortCircuits(t *testing.T) {
	store := newMemStore()
	engine, _ := newTestEngine(t, store)
	resolver := NewOwnershipResolver(store, engine)

	// No principal or resource seeded: only the self shortcut can allow.
	allowed, err := resolver.Authorize(context.Background(), 5, ResourceStudents, 5, true)
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestOwnershipMissingResource(t *testing.T) {
	store := newMemStore()
	store.addPrincipal(1)
	engine, _ := newTestEngine(t, store)
	resolver := NewOwnershipResolver(store, engine)

	_, err := resolver.Authorize(context.Background(), 1, ResourcePayments, 404, false)
	require.ErrorIs(t, err, ErrResourceNotFound)
}

func TestOwnershipDominanceOverOwner(t *testing.T) {
	store := newMemStore()
	store.addPrincipal(1) // teacher
	store.addPrincipal(2) // student, owns the record
	teacher := store.addRole("TEACHER", 2, "attendance:*")
	student := store.addRole("STUDENT", 1, "courses:read")
	store.assign(1, teacher.ID)
	store.assign(2, student.ID)
	store.setOwner(ResourceStudents, 10, 2)
	engine, _ := newTestEngine(t, store)
	resolver := NewOwnershipResolver(store, engine)

	ctx := context.Background()
	allowed, err := resolver.Authorize(ctx, 1, ResourceStudents, 10, false)
	require.NoError(t, err)
	require.True(t, allowed, "teacher reaches student-owned record")

	allowed, err = resolver.Authorize(ctx, 2, ResourceStudents, 10, false)
	require.NoError(t, err)
	require.True(t, allowed, "owner reaches own record via self access")

	store.setOwner(ResourceCourses, 20, 1)
	allowed, err = resolver.Authorize(ctx, 2, ResourceCourses, 20, false)
	require.NoError(t, err)
	require.False(t, allowed, "student does not reach teacher-owned record")
}

func TestOwnershipUnknownKind(t *testing.T) {
	store := newMemStore()
	engine, _ := newTestEngine(t, store)
	resolver := NewOwnershipResolver(store, engine)

	_, err := resolver.Authorize(context.Background(), 1, ResourceKind("ledgers"), 1, false)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrResourceNotFound)
}

func TestResourceKindValid(t *testing.T) {
	require.True(t, ResourceStudents.Valid())
	require.True(t, ResourceCourses.Valid())
	require.True(t, ResourcePayments.Valid())
	require.False(t, ResourceKind("").Valid())
	require.False(t, ResourceKind("ledgers").Valid())
}
