// Package authz makes allow/deny decisions for verified principals.
package authz

import (
	"github.com/upb/hotel-booking-api/services"
	"github.com/upb/hotel-booking-api/services/token"
)

// Reason explains an authorization decision
type Reason string

const (
	ReasonAuthenticated      Reason = "authenticated"
	ReasonRoleMatched        Reason = "role_matched"
	ReasonOwner              Reason = "owner"
	ReasonAdminOverride      Reason = "admin_override"
	ReasonMissingPrincipal   Reason = "missing_principal"
	ReasonInsufficientRole   Reason = "insufficient_role"
	ReasonOwnershipViolation Reason = "ownership_violation"
)

// Preset role gates
var (
	AdminRoles       = []string{"admin", "administrator"}
	UserOrAdminRoles = []string{"user", "admin", "administrator"}
)

// Decision is the outcome of an authorization check
type Decision struct {
	Allowed       bool
	Reason        Reason
	RequiredRoles []string
	ActualRoles   []string
}

// Err converts a denial into a domain error; it returns nil when allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	switch d.Reason {
	case ReasonInsufficientRole:
		return services.NewDomainError(services.ErrorTypeInsufficientRole, "insufficient permissions", nil).
			WithDetail("required_roles", nonNil(d.RequiredRoles)).
			WithDetail("user_roles", nonNil(d.ActualRoles))
	case ReasonOwnershipViolation:
		return services.NewDomainError(services.ErrorTypeOwnershipViolation, "you can only access your own resources", nil)
	case ReasonMissingPrincipal:
		return services.NewDomainError(services.ErrorTypeMissingCredential, "access token required", nil)
	default:
		return services.NewDomainError(services.ErrorTypeForbidden, "access forbidden", nil)
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func rolesOf(p *token.Principal) []string {
	if p == nil {
		return nil
	}
	out := make([]string, len(p.Roles))
	copy(out, p.Roles)
	return out
}

// RoleAuthorizer grants access when the principal holds any allowed role
type RoleAuthorizer struct{}

// NewRoleAuthorizer creates a new role authorizer
func NewRoleAuthorizer() *RoleAuthorizer {
	return &RoleAuthorizer{}
}

// Authorize allows any verified principal when allowedRoles is empty;
// otherwise the principal must hold at least one of them.
func (a *RoleAuthorizer) Authorize(p *token.Principal, allowedRoles ...string) Decision {
	required := token.NormalizeRoles(allowedRoles...)
	if p == nil {
		return Decision{Reason: ReasonMissingPrincipal, RequiredRoles: required}
	}
	if len(required) == 0 {
		return Decision{Allowed: true, Reason: ReasonAuthenticated, ActualRoles: rolesOf(p)}
	}
	if p.HasAnyRole(required...) {
		return Decision{Allowed: true, Reason: ReasonRoleMatched, RequiredRoles: required, ActualRoles: rolesOf(p)}
	}
	return Decision{Reason: ReasonInsufficientRole, RequiredRoles: required, ActualRoles: rolesOf(p)}
}

// OwnershipGuard restricts a resource to its owner or an admin
type OwnershipGuard struct {
	adminRoles []string
}

// NewOwnershipGuard creates a guard; principals holding any of adminRoles
// bypass the owner comparison. With no roles given, AdminRoles is used.
func NewOwnershipGuard(adminRoles ...string) *OwnershipGuard {
	roles := token.NormalizeRoles(adminRoles...)
	if len(roles) == 0 {
		roles = token.NormalizeRoles(AdminRoles...)
	}
	return &OwnershipGuard{adminRoles: roles}
}

// AdminRoles returns the roles that bypass ownership checks
func (g *OwnershipGuard) AdminRoles() []string {
	out := make([]string, len(g.adminRoles))
	copy(out, g.adminRoles)
	return out
}

// AuthorizeOwnership allows admins, or a principal whose canonical id equals
// resourceOwnerID. An empty owner id is always denied for non-admins.
func (g *OwnershipGuard) AuthorizeOwnership(p *token.Principal, resourceOwnerID string) Decision {
	if p == nil {
		return Decision{Reason: ReasonMissingPrincipal}
	}
	if p.HasAnyRole(g.adminRoles...) {
		return Decision{Allowed: true, Reason: ReasonAdminOverride, ActualRoles: rolesOf(p)}
	}
	owner := token.CanonicalID(resourceOwnerID)
	if owner != "" && token.CanonicalID(p.ID) == owner {
		return Decision{Allowed: true, Reason: ReasonOwner, ActualRoles: rolesOf(p)}
	}
	return Decision{Reason: ReasonOwnershipViolation, ActualRoles: rolesOf(p)}
}
