package user

import (
	"errors"
	"strings"
	"time"
)

var ErrUnknownRole = errors.New("unknown role")

// Role is assigned by the backend; the dashboard only reads it.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCashier Role = "cashier"
	RoleKitchen Role = "kitchen"
)

// Roles lists the closed role set in display order.
var Roles = []Role{RoleAdmin, RoleCashier, RoleKitchen}

func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleCashier, RoleKitchen:
		return r, nil
	default:
		return "", ErrUnknownRole
	}
}

// HomePath is the default dashboard for a role. Anything outside the
// known set lands on the kitchen screen.
func HomePath(r Role) string {
	switch r {
	case RoleAdmin:
		return "/admin"
	case RoleCashier:
		return "/cashier"
	case RoleKitchen:
		return "/kitchen"
	default:
		return "/kitchen"
	}
}

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// HasRole reports whether the user's role is one of allowed.
func (u User) HasRole(allowed ...Role) bool {
	for _, r := range allowed {
		if u.Role == r {
			return true
		}
	}
	return false
}
