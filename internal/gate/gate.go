// Package gate is the single enforcement point for resource access. Every
// protected route asks it for a decision; navigation listings are filtered
// through the same decision so denied resources are not discoverable. The
// storage layer still enforces authorization independently; this gate is
// defense in depth, not a substitute.
package gate

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/meridian-crm/meridian/internal/access"
	"github.com/meridian-crm/meridian/internal/identity"
	"github.com/meridian-crm/meridian/internal/platform/httpx"
	"github.com/meridian-crm/meridian/internal/shared"
)

// PortalPath is the restricted self-service area for client-role principals.
// Clients are routed there before the general resource set is evaluated.
const PortalPath = "/portal"

type principalContextKey struct{}

// ContextWithPrincipal stores the resolved principal in context.
func ContextWithPrincipal(ctx context.Context, p *identity.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal, nil when anonymous.
func PrincipalFromContext(ctx context.Context) *identity.Principal {
	p, _ := ctx.Value(principalContextKey{}).(*identity.Principal)
	return p
}

// DecisionRecorder counts allow/deny outcomes per resource.
type DecisionRecorder interface {
	RecordDecision(resource string, allowed bool)
}

// Gate wires principal resolution and access decisions into the HTTP layer.
type Gate struct {
	resolver *identity.Resolver
	logger   *slog.Logger
	recorder DecisionRecorder
}

// New constructs a Gate. recorder may be nil.
func New(resolver *identity.Resolver, logger *slog.Logger, recorder DecisionRecorder) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{resolver: resolver, logger: logger, recorder: recorder}
}

// WithPrincipal resolves the session's user into a Principal and stores it in
// the request context. Anonymous requests pass through with no principal;
// resolution itself never fails, it degrades to least privilege.
func (g *Gate) WithPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil || sess.User() == "" {
			next.ServeHTTP(w, r)
			return
		}
		principal := g.resolver.Resolve(r.Context(), sess.User(), sess.Get(shared.SessionEmailKey))
		ctx := ContextWithPrincipal(r.Context(), &principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RedirectClients routes client-role principals to the self-service portal.
// This is a routing decision made before the gate, not a gate exception: the
// policy table itself only grants clients the dashboard.
func (g *Gate) RedirectClients(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p := PrincipalFromContext(r.Context()); p != nil && p.Role == access.RoleClient {
			http.Redirect(w, r, PortalPath, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Protect enforces the access decision for one resource. Unauthenticated
// requests get 401; denied principals get a uniform 403 that reveals nothing
// about the resource. Denial is a normal outcome, never an error.
func (g *Gate) Protect(resource access.Resource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := PrincipalFromContext(r.Context())
			if principal == nil {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
				return
			}
			allowed := access.CanAccess(principal.Role, string(resource))
			if g.recorder != nil {
				g.recorder.RecordDecision(string(resource), allowed)
			}
			if !allowed {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
