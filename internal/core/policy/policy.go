// Package policy holds the single authorization decision used by every
// mutating or sensitive-read operation.
//
// Callers declare an operation class and pass the acting principal (nil for
// anonymous requests) plus, for ownership-scoped classes, the id of the
// account that owns the target resource. The package is pure: it performs no
// I/O and keeps no state.
package policy

import (
	"fmt"

	"github.com/postly/postly-api/internal/core/domain"
)

// Class is the rule family an operation belongs to.
type Class int

const (
	// Public needs no principal.
	Public Class = iota
	// AuthenticatedAny needs a principal of any role.
	AuthenticatedAny
	// SelfOrAdmin needs the resource owner or a principal ranked Moderator
	// or above.
	SelfOrAdmin
	// AdminOnly needs an Admin.
	AdminOnly
)

func (c Class) String() string {
	switch c {
	case Public:
		return "public"
	case AuthenticatedAny:
		return "authenticated"
	case SelfOrAdmin:
		return "self_or_admin"
	case AdminOnly:
		return "admin_only"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

// Reason explains a decision for logs and metrics.
type Reason string

const (
	ReasonPublic        Reason = "public"
	ReasonAuthenticated Reason = "authenticated"
	ReasonOwner         Reason = "owner"
	ReasonElevatedRole  Reason = "elevated_role"
	ReasonAdmin         Reason = "admin"
	ReasonAnonymous     Reason = "anonymous"
	ReasonNotOwner      Reason = "not_owner"
	ReasonNotAdmin      Reason = "not_admin"
	ReasonUnknownClass  Reason = "unknown_class"
)

// Decision is the derived outcome of an authorization check.
type Decision struct {
	Allow  bool
	Reason Reason
}

// moderationFloor is the lowest role that may act on other accounts'
// resources under SelfOrAdmin.
const moderationFloor = domain.RoleModerator

// Decide evaluates class for actor against a resource owned by ownerID.
// ownerID is ignored for classes that are not ownership scoped.
func Decide(actor *domain.Principal, class Class, ownerID int64) Decision {
	switch class {
	case Public:
		return Decision{Allow: true, Reason: ReasonPublic}
	case AuthenticatedAny, SelfOrAdmin, AdminOnly:
	default:
		return Decision{Allow: false, Reason: ReasonUnknownClass}
	}

	if actor == nil {
		return Decision{Allow: false, Reason: ReasonAnonymous}
	}

	switch class {
	case AuthenticatedAny:
		return Decision{Allow: true, Reason: ReasonAuthenticated}
	case SelfOrAdmin:
		if actor.ID == ownerID {
			return Decision{Allow: true, Reason: ReasonOwner}
		}
		if actor.Role.AtLeast(moderationFloor) {
			return Decision{Allow: true, Reason: ReasonElevatedRole}
		}
		return Decision{Allow: false, Reason: ReasonNotOwner}
	default: // AdminOnly
		if actor.Role.Compare(domain.RoleAdmin) == 0 {
			return Decision{Allow: true, Reason: ReasonAdmin}
		}
		return Decision{Allow: false, Reason: ReasonNotAdmin}
	}
}

// Err converts a decision into the error a caller must surface:
// nil when allowed, domain.ErrUnauthenticated when no principal was present,
// domain.ErrPermissionDenied otherwise.
func (d Decision) Err() error {
	switch {
	case d.Allow:
		return nil
	case d.Reason == ReasonAnonymous:
		return domain.ErrUnauthenticated
	default:
		return domain.ErrPermissionDenied
	}
}

// Authorize is Decide followed by Decision.Err.
func Authorize(actor *domain.Principal, class Class, ownerID int64) error {
	return Decide(actor, class, ownerID).Err()
}

// RoleChangeApplies reports whether an authorized role change on targetID
// should be written. An administrator changing their own role is accepted
// but has no effect, which guards against accidental self-demotion.
func RoleChangeApplies(actor *domain.Principal, targetID int64) bool {
	return actor != nil && actor.ID != targetID
}

// RegistrationRole picks the role a new account receives. A requested role is
// honoured only when the registering caller is an Admin; everyone else,
// including anonymous callers, gets RoleUser.
func RegistrationRole(actor *domain.Principal, requested *domain.Role) domain.Role {
	if requested == nil || !requested.Valid() {
		return domain.RoleUser
	}
	if !Decide(actor, AdminOnly, 0).Allow {
		return domain.RoleUser
	}
	return *requested
}
