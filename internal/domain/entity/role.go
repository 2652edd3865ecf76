package entity

import "fmt"

// Role is the closed set of chat participants. Every role-dependent branch in
// the engine switches exhaustively over these two values.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleSeller Role = "seller"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleSeller:
		return RoleSeller, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Counterpart returns the opposite role. Unread counters are only ever
// incremented for the counterpart of the sender.
func (r Role) Counterpart() Role {
	if r == RoleAdmin {
		return RoleSeller
	}
	return RoleAdmin
}

func (r Role) String() string {
	return string(r)
}
