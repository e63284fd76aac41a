package api

import (
	"context"
	"net/http"

	"github.com/MikeMC777/kitchen-dashboard/internal/user"
)

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type Registration struct {
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	Role      user.Role `json:"role"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone,omitempty"`
}

// AuthResult is the data of a successful login or registration.
type AuthResult struct {
	Token string    `json:"token"`
	User  user.User `json:"user"`
}

type AuthAPI struct{ c *Client }

func (a *AuthAPI) Login(ctx context.Context, cred Credentials) (*Envelope[AuthResult], error) {
	return call[AuthResult](ctx, a.c, http.MethodPost, "/api/auth/login", cred, "Login failed")
}

func (a *AuthAPI) Register(ctx context.Context, reg Registration) (*Envelope[AuthResult], error) {
	return call[AuthResult](ctx, a.c, http.MethodPost, "/api/auth/register", reg, "Registration failed")
}
