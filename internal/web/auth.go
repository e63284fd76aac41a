package web

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/MikeMC777/kitchen-dashboard/internal/api"
	"github.com/MikeMC777/kitchen-dashboard/internal/httpx"
	"github.com/MikeMC777/kitchen-dashboard/internal/session"
	"github.com/MikeMC777/kitchen-dashboard/internal/user"
)

var errNoToken = errors.New("the server did not issue a session token")

type AuthAPI interface {
	Login(ctx context.Context, cred api.Credentials) (*api.Envelope[api.AuthResult], error)
	Register(ctx context.Context, reg api.Registration) (*api.Envelope[api.AuthResult], error)
}

// AuthProvider is the process-wide sign-in state. Until Rehydrate has run
// every request resolves to AuthLoading.
type AuthProvider struct {
	store    *session.Store
	api      AuthAPI
	resolved atomic.Bool
}

func NewAuthProvider(store *session.Store, authAPI AuthAPI) *AuthProvider {
	return &AuthProvider{store: store, api: authAPI}
}

// Rehydrate reads the stored session once at startup. The provider is
// resolved afterwards even when storage fails.
func (p *AuthProvider) Rehydrate(ctx context.Context) (*session.Session, error) {
	defer p.resolved.Store(true)
	sess, err := p.store.Current(ctx)
	if err != nil {
		log.Error().Err(err).Str("component", "auth").Msg("session rehydrate failed")
		return nil, err
	}
	if sess != nil {
		log.Info().Str("component", "auth").Str("user", sess.User.Username).Str("role", string(sess.User.Role)).Msg("session restored")
	}
	return sess, nil
}

func (p *AuthProvider) Resolve(ctx context.Context) (httpx.AuthState, *user.User) {
	if !p.resolved.Load() {
		return httpx.AuthLoading, nil
	}
	sess, err := p.store.Current(ctx)
	if err != nil || sess == nil {
		return httpx.AuthAnonymous, nil
	}
	return httpx.AuthAuthenticated, &sess.User
}

func (p *AuthProvider) SignIn(ctx context.Context, cred api.Credentials) (user.User, error) {
	env, err := p.api.Login(ctx, cred)
	if err != nil {
		return user.User{}, err
	}
	return p.establish(ctx, env.Data)
}

func (p *AuthProvider) SignUp(ctx context.Context, reg api.Registration) (user.User, error) {
	env, err := p.api.Register(ctx, reg)
	if err != nil {
		return user.User{}, err
	}
	return p.establish(ctx, env.Data)
}

func (p *AuthProvider) establish(ctx context.Context, res api.AuthResult) (user.User, error) {
	if res.Token == "" {
		return user.User{}, errNoToken
	}
	if err := p.store.Establish(ctx, res.Token, res.User); err != nil {
		return user.User{}, err
	}
	p.resolved.Store(true)
	log.Info().Str("component", "auth").Str("user", res.User.Username).Str("role", string(res.User.Role)).Msg("signed in")
	return res.User, nil
}

func (p *AuthProvider) SignOut(ctx context.Context) error {
	if err := p.store.Clear(ctx); err != nil {
		return err
	}
	log.Info().Str("component", "auth").Msg("signed out")
	return nil
}
