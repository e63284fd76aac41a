package httpx

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/kitchen-dashboard/internal/user"
)

const (
	UserKey       = "user"
	AccessDenied  = "Access denied"
	SignInPath    = "/signin"
	signInMessage = "Please sign in to continue"
)

type AuthState int

const (
	AuthLoading AuthState = iota
	AuthAnonymous
	AuthAuthenticated
)

// Authenticator reports who is signed in. AuthLoading means the stored
// session has not been read yet.
type Authenticator interface {
	Resolve(ctx context.Context) (AuthState, *user.User)
}

type DecisionKind int

const (
	Allow DecisionKind = iota
	ShowLoading
	RedirectSignIn
	RedirectHome
)

type Decision struct {
	Kind     DecisionKind
	Location string
	Message  string
}

// Decide maps the auth state of a request for path onto what the guard
// does. An empty allowed list admits any signed-in user.
func Decide(state AuthState, u *user.User, path string, allowed []user.Role) Decision {
	switch state {
	case AuthLoading:
		return Decision{Kind: ShowLoading}
	case AuthAuthenticated:
		if u == nil {
			break
		}
		if len(allowed) > 0 && !u.HasRole(allowed...) {
			home := user.HomePath(u.Role)
			return Decision{
				Kind:     RedirectHome,
				Location: home + "?" + url.Values{"error": {AccessDenied}}.Encode(),
				Message:  AccessDenied,
			}
		}
		return Decision{Kind: Allow}
	}
	return Decision{
		Kind:     RedirectSignIn,
		Location: SignInPath + "?" + url.Values{"from": {path}}.Encode(),
		Message:  signInMessage,
	}
}

// Guard applies Decide to every request. Browser routes are redirected;
// JSON callers get 401/403 and the loading state as 503.
func Guard(auth Authenticator, roles ...user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		state, u := auth.Resolve(c.Request.Context())
		d := Decide(state, u, c.Request.URL.RequestURI(), roles)
		jsonCall := WantsJSON(c)

		switch d.Kind {
		case Allow:
			c.Set(UserKey, *u)
			c.Next()
		case ShowLoading:
			if jsonCall {
				c.Header("Retry-After", "1")
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "session is loading"})
				return
			}
			c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(loadingPage))
			c.Abort()
		case RedirectSignIn:
			if jsonCall {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": d.Message})
				return
			}
			c.Redirect(http.StatusSeeOther, d.Location)
			c.Abort()
		case RedirectHome:
			if jsonCall {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": d.Message})
				return
			}
			c.Redirect(http.StatusSeeOther, d.Location)
			c.Abort()
		}
	}
}

// CurrentUser returns the user the guard admitted.
func CurrentUser(c *gin.Context) (user.User, bool) {
	u, ok := c.Get(UserKey)
	if !ok {
		return user.User{}, false
	}
	uu, ok := u.(user.User)
	return uu, ok
}

// WantsJSON reports whether the caller expects a JSON body: the board's
// state endpoint always does, other routes ask through the Accept header.
func WantsJSON(c *gin.Context) bool {
	if strings.HasSuffix(c.Request.URL.Path, "/state") {
		return true
	}
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}

const loadingPage = `<!doctype html>
<html><head><meta charset="utf-8"><meta http-equiv="refresh" content="1"><title>Loading</title></head>
<body style="font-family:sans-serif;display:flex;align-items:center;justify-content:center;height:100vh">
<p>Loading...</p>
</body></html>`
