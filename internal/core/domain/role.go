package domain

import (
	"cmp"
	"fmt"
	"strings"
)

// Role is the coarse authorization tier of a principal. Roles are totally
// ordered: RoleUser < RoleModerator < RoleAdmin. Compare and AtLeast are the
// only place that ordering is defined; call sites must not compare the
// underlying integers.
type Role int

const (
	RoleUser Role = iota
	RoleModerator
	RoleAdmin
)

var roleNames = map[Role]string{
	RoleUser:      "User",
	RoleModerator: "Moderator",
	RoleAdmin:     "Admin",
}

// String returns the wire name of the role ("User", "Moderator", "Admin").
func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// Compare returns -1, 0 or +1 depending on whether r ranks below, equal to or
// above other.
func (r Role) Compare(other Role) int {
	return cmp.Compare(int(r), int(other))
}

// AtLeast reports whether r ranks at or above min.
func (r Role) AtLeast(min Role) bool {
	return r.Compare(min) >= 0
}

// ParseRole resolves a role name case-insensitively.
func ParseRole(s string) (Role, error) {
	needle := strings.TrimSpace(s)
	for r, name := range roleNames {
		if strings.EqualFold(name, needle) {
			return r, nil
		}
	}
	return RoleUser, fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

// MarshalText encodes the role by name so JSON payloads carry "Admin" rather
// than 2.
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRole, int(r))
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
