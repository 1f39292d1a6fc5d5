package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the persistence port consumed by the engine. The engine only
// writes through UpsertRoleAssignment and DeactivateRoleAssignments; all
// other methods are reads.
type Store interface {
	// PrincipalExists reports whether the principal is known to the store.
	PrincipalExists(ctx context.Context, principalID int64) (bool, error)
	// FindActiveRoleAssignments returns each active role the principal
	// holds together with the permission names granted by that role.
	FindActiveRoleAssignments(ctx context.Context, principalID int64) ([]RoleGrant, error)
	// FindRoleByName fetches a role by its unique name.
	FindRoleByName(ctx context.Context, name string) (Role, error)
	// UpsertRoleAssignment activates the (principal, role) assignment,
	// reviving a soft-deleted row when one exists.
	UpsertRoleAssignment(ctx context.Context, principalID, roleID, grantedBy int64) error
	// DeactivateRoleAssignments marks all active assignments for the
	// (principal, role) pair inactive.
	DeactivateRoleAssignments(ctx context.Context, principalID, roleID int64) error
	// FindResourceOwner returns the owning principal id for a resource.
	FindResourceOwner(ctx context.Context, kind ResourceKind, resourceID int64) (int64, error)
}

// PGStore implements Store on PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a PGStore.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

var _ Store = (*PGStore)(nil)

// PrincipalExists checks the users table for the principal.
func (s *PGStore) PrincipalExists(ctx context.Context, principalID int64) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, principalID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: principal lookup: %v", ErrStoreUnavailable, err)
	}
	return exists, nil
}

// FindActiveRoleAssignments joins active assignments with granted
// permission edges and aggregates permission names per role.
func (s *PGStore) FindActiveRoleAssignments(ctx context.Context, principalID int64) ([]RoleGrant, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT r.id, r.name, r.display_name, r.description, r.level, r.is_system,
		       COALESCE(array_agg(p.name ORDER BY p.name) FILTER (WHERE p.name IS NOT NULL), '{}')
		FROM role_assignments ra
		JOIN roles r ON r.id = ra.role_id
		LEFT JOIN role_permissions rp ON rp.role_id = r.id AND rp.granted
		LEFT JOIN permissions p ON p.id = rp.permission_id
		WHERE ra.principal_id = $1 AND ra.is_active
		GROUP BY r.id, r.name, r.display_name, r.description, r.level, r.is_system
		ORDER BY r.level DESC, r.name`, principalID)
	if err != nil {
		return nil, fmt.Errorf("%w: assignments query: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var grants []RoleGrant
	for rows.Next() {
		var g RoleGrant
		if err := rows.Scan(&g.Role.ID, &g.Role.Name, &g.Role.DisplayName, &g.Role.Description, &g.Role.Level, &g.Role.IsSystem, &g.Permissions); err != nil {
			return nil, fmt.Errorf("%w: assignments scan: %v", ErrStoreUnavailable, err)
		}
		grants = append(grants, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: assignments rows: %v", ErrStoreUnavailable, err)
	}
	return grants, nil
}

// FindRoleByName fetches a role by unique name.
func (s *PGStore) FindRoleByName(ctx context.Context, name string) (Role, error) {
	var role Role
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, display_name, description, level, is_system, created_at, updated_at
		FROM roles WHERE name = $1`, name).
		Scan(&role.ID, &role.Name, &role.DisplayName, &role.Description, &role.Level, &role.IsSystem, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, ErrRoleNotFound
		}
		return Role{}, fmt.Errorf("%w: role lookup: %v", ErrStoreUnavailable, err)
	}
	return role, nil
}

// UpsertRoleAssignment inserts or reactivates the assignment. The conflict
// path keeps Grant idempotent: a duplicate grant refreshes granted_by and
// granted_at instead of failing.
func (s *PGStore) UpsertRoleAssignment(ctx context.Context, principalID, roleID, grantedBy int64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO role_assignments (principal_id, role_id, granted_by, granted_at, is_active)
		VALUES ($1, $2, $3, NOW(), TRUE)
		ON CONFLICT (principal_id, role_id)
		DO UPDATE SET is_active = TRUE, granted_by = EXCLUDED.granted_by, granted_at = NOW()`,
		principalID, roleID, grantedBy)
	if err != nil {
		return fmt.Errorf("%w: upsert assignment: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// DeactivateRoleAssignments soft-deletes every active assignment for the
// pair. Defined as a bulk update for robustness against duplicate rows.
func (s *PGStore) DeactivateRoleAssignments(ctx context.Context, principalID, roleID int64) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE role_assignments SET is_active = FALSE
		WHERE principal_id = $1 AND role_id = $2 AND is_active`,
		principalID, roleID)
	if err != nil {
		return fmt.Errorf("%w: deactivate assignments: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// FindResourceOwner resolves the owning principal for a resource. The kind
// switch is deliberately closed: an unmapped kind is a programming error,
// not a runtime lookup.
func (s *PGStore) FindResourceOwner(ctx context.Context, kind ResourceKind, resourceID int64) (int64, error) {
	var query string
	switch kind {
	case ResourceStudents:
		query = `SELECT user_id FROM students WHERE id = $1`
	case ResourceCourses:
		query = `SELECT teacher_id FROM courses WHERE id = $1`
	case ResourcePayments:
		query = `SELECT s.user_id FROM payments pm JOIN students s ON s.id = pm.student_id WHERE pm.id = $1`
	default:
		return 0, fmt.Errorf("authz: unmapped resource kind %q", kind)
	}
	var ownerID int64
	if err := s.pool.QueryRow(ctx, query, resourceID).Scan(&ownerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrResourceNotFound
		}
		return 0, fmt.Errorf("%w: owner lookup: %v", ErrStoreUnavailable, err)
	}
	return ownerID, nil
}
