package authz

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/academia-erp/academia-erp/internal/platform/httpx"
	"github.com/academia-erp/academia-erp/internal/shared"
)

// Guard wires authorization checks into HTTP handlers. Required
// permissions are declared as data at route registration and passed
// verbatim to the engine; the guard holds no policy of its own.
type Guard struct {
	Engine    *Engine
	Ownership *OwnershipResolver
	Logger    *slog.Logger
}

// RequireAny admits the request when the session principal holds at least
// one of the given permissions.
func (g Guard) RequireAny(perms ...string) func(http.Handler) http.Handler {
	required := normalizeRequirements(perms)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(required) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			principalID, ok := g.currentPrincipalID(r)
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
				return
			}
			if g.Engine.HasAny(r.Context(), principalID, required) {
				next.ServeHTTP(w, r)
				return
			}
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "")
		})
	}
}

// RequireAll admits the request only when the session principal holds
// every one of the given permissions.
func (g Guard) RequireAll(perms ...string) func(http.Handler) http.Handler {
	required := normalizeRequirements(perms)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(required) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			principalID, ok := g.currentPrincipalID(r)
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
				return
			}
			if g.Engine.HasAll(r.Context(), principalID, required) {
				next.ServeHTTP(w, r)
				return
			}
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "")
		})
	}
}

// RequireOwner admits the request when the session principal owns the
// record addressed by the {id} route parameter, or dominates its owner.
// With allowSelf the principal always reaches records keyed by its own id.
// A missing record answers 404 so existence is not leaked through 403s.
func (g Guard) RequireOwner(kind ResourceKind, allowSelf bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principalID, ok := g.currentPrincipalID(r)
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
				return
			}
			resourceID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
			if err != nil {
				httpx.Problem(w, http.StatusNotFound, "Not Found", "")
				return
			}
			allowed, err := g.Ownership.Authorize(r.Context(), principalID, kind, resourceID, allowSelf)
			if err != nil {
				if errors.Is(err, ErrResourceNotFound) {
					httpx.Problem(w, http.StatusNotFound, "Not Found", "")
					return
				}
				if g.Logger != nil {
					g.Logger.Error("ownership check degraded to deny",
						slog.String("kind", string(kind)),
						slog.Int64("resource_id", resourceID),
						slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "")
				return
			}
			if !allowed {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (g Guard) currentPrincipalID(r *http.Request) (int64, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return 0, false
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		if g.Logger != nil {
			g.Logger.Error("parse session principal id", slog.String("value", raw))
		}
		return 0, false
	}
	return id, true
}

func normalizeRequirements(perms []string) []string {
	unique := make(map[string]struct{}, len(perms))
	normalized := make([]string, 0, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(strings.ToLower(p))
		if p == "" {
			continue
		}
		if _, ok := unique[p]; ok {
			continue
		}
		unique[p] = struct{}{}
		normalized = append(normalized, p)
	}
	return normalized
}
