// Package access is the authorization gate in front of every core operation.
package access

import (
	"fmt"
	"strings"

	"herbal-market-backend/internal/domain"
)

// Decision is the outcome of Guard. Reason is empty when Allowed.
type Decision struct {
	Allowed bool
	Reason  string
}

func Allow() Decision {
	return Decision{Allowed: true}
}

func Deny(reason string) Decision {
	return Decision{Reason: reason}
}

// Guard admits p when it is an admin or holds one of the allowed roles.
// A nil principal is a guest.
func Guard(allowed []domain.Role, p *domain.Principal) Decision {
	if p.HasRole(allowed...) {
		return Allow()
	}
	role := domain.RoleOf(p)
	if role == domain.RoleGuest {
		return Deny("authentication required")
	}
	return Deny(fmt.Sprintf("role %s is not allowed, requires one of: %s", role, joinRoles(allowed)))
}

func joinRoles(roles []domain.Role) string {
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, string(r))
	}
	return strings.Join(names, ", ")
}

// Role sets shared by the usecases and the router.
var (
	Members   = []domain.Role{domain.RoleUser, domain.RolePlanter}
	Providers = []domain.Role{domain.RolePlanter}
	Payments  = []domain.Role{domain.RoleSystem}
	Admins    = []domain.Role{domain.RoleAdmin}
)
