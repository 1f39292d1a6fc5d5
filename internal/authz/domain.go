package authz

import (
	"strings"
	"time"
)

// Wildcard is the literal that matches every action on a resource. A
// permission named "*:*" matches everything.
const Wildcard = "*"

// Permission is an atomic capability expressed as "resource:action".
// Permissions are reference data seeded administratively; the engine never
// creates them at runtime.
type Permission struct {
	ID          int64
	Name        string
	Resource    string
	Action      string
	Description string
}

// Role bundles permission grants under a dominance level. Higher levels
// dominate lower ones for cross-principal access decisions.
type Role struct {
	ID          int64
	Name        string
	DisplayName string
	Description string
	Level       int
	IsSystem    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RoleAssignment links a principal to a role. Revocation soft-deletes the
// row (is_active=false) so grant history stays auditable.
type RoleAssignment struct {
	PrincipalID int64
	RoleID      int64
	GrantedBy   int64
	GrantedAt   time.Time
	IsActive    bool
}

// RoleGrant is the store read model for one active assignment: the role
// plus the permission names granted through it.
type RoleGrant struct {
	Role        Role
	Permissions []string
}

// PermissionSet is the resolved authorization state of a principal: the
// union of permission names across all active roles and the maximum role
// level. It is a derived value cached with a TTL; the store remains the
// source of truth.
type PermissionSet struct {
	PrincipalID int64    `json:"principal_id"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
	Level       int      `json:"level"`
}

// NewPermissionSet flattens active role grants into a PermissionSet. A
// principal without grants resolves to level 0 and no permissions.
func NewPermissionSet(principalID int64, grants []RoleGrant) PermissionSet {
	set := PermissionSet{PrincipalID: principalID}
	seen := make(map[string]struct{})
	for _, g := range grants {
		set.Roles = append(set.Roles, g.Role.Name)
		if g.Role.Level > set.Level {
			set.Level = g.Role.Level
		}
		for _, name := range g.Permissions {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			set.Permissions = append(set.Permissions, name)
		}
	}
	return set
}

// Allows reports whether the set grants the given resource/action pair,
// honouring resource-level ("resource:*") and universal ("*:*") wildcards.
func (s PermissionSet) Allows(resource, action string) bool {
	exact := resource + ":" + action
	scoped := resource + ":" + Wildcard
	universal := Wildcard + ":" + Wildcard
	for _, name := range s.Permissions {
		if name == exact || name == scoped || name == universal {
			return true
		}
	}
	return false
}

// HasRole reports whether the set includes the named role.
func (s PermissionSet) HasRole(name string) bool {
	for _, r := range s.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// SplitPermission parses a "resource:action" name. It reports false for
// names without a separator so malformed requirements evaluate fail-closed.
func SplitPermission(name string) (resource, action string, ok bool) {
	resource, action, ok = strings.Cut(name, ":")
	if !ok || resource == "" || action == "" {
		return "", "", false
	}
	return resource, action, true
}
