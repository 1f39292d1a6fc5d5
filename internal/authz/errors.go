package authz

import "errors"

// Sentinel errors surfaced by the engine. Boolean checks never return
// these; they degrade to a denial and log the cause instead.
var (
	// ErrNotFound indicates the principal does not exist in the store.
	// Distinct from a principal with zero grants, which is a valid state.
	ErrNotFound = errors.New("authz: principal not found")
	// ErrRoleNotFound indicates the named role is absent.
	ErrRoleNotFound = errors.New("authz: role not found")
	// ErrForbidden indicates the acting principal's level does not dominate
	// the role being granted or revoked.
	ErrForbidden = errors.New("authz: forbidden")
	// ErrResourceNotFound indicates an ownership lookup target is absent.
	// Callers map this to 404 semantics, never 403.
	ErrResourceNotFound = errors.New("authz: resource not found")
	// ErrStoreUnavailable wraps transient store failures.
	ErrStoreUnavailable = errors.New("authz: store unavailable")
)
