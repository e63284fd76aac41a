// Package session persists the signed-in (token, user) pair for the
// dashboard process.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/MikeMC777/kitchen-dashboard/internal/user"
)

const (
	KeyToken = "auth_token"
	KeyUser  = "auth_user"
)

type Session struct {
	Token string
	User  user.User
}

// Store writes and clears both keys together; a half-written or
// undecodable session is purged on read.
type Store struct {
	kv  KV
	box sealer
	now func() time.Time
}

func NewStore(kv KV, secret string) *Store {
	return &Store{kv: kv, box: newSealer(secret), now: time.Now}
}

func (s *Store) Establish(ctx context.Context, token string, u user.User) error {
	if token == "" || u.ID == "" {
		return errors.New("session needs a token and a user id")
	}
	raw, err := json.Marshal(u)
	if err != nil {
		return err
	}
	sealedToken, err := s.box.seal([]byte(token))
	if err != nil {
		return err
	}
	sealedUser, err := s.box.seal(raw)
	if err != nil {
		return err
	}
	if err := s.kv.SetAll(ctx, map[string]string{KeyToken: sealedToken, KeyUser: sealedUser}); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

// Current returns the stored session, or nil when there is none. Storage
// errors are returned; corrupt data is not an error.
func (s *Store) Current(ctx context.Context) (*Session, error) {
	vals, err := s.kv.GetAll(ctx, KeyToken, KeyUser)
	if errors.Is(err, ErrCorrupt) {
		s.purge(ctx, err.Error())
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	sealedToken, hasToken := vals[KeyToken]
	sealedUser, hasUser := vals[KeyUser]
	switch {
	case !hasToken && !hasUser:
		return nil, nil
	case !hasToken || !hasUser:
		s.purge(ctx, "only one of token and user present")
		return nil, nil
	}

	token, err := s.box.open(sealedToken)
	if err != nil {
		s.purge(ctx, "token: "+err.Error())
		return nil, nil
	}
	raw, err := s.box.open(sealedUser)
	if err != nil {
		s.purge(ctx, "user: "+err.Error())
		return nil, nil
	}
	var u user.User
	if err := json.Unmarshal(raw, &u); err != nil || u.ID == "" {
		s.purge(ctx, "user profile does not decode")
		return nil, nil
	}
	if s.expired(string(token)) {
		s.purge(ctx, "token expired")
		return nil, nil
	}
	return &Session{Token: string(token), User: u}, nil
}

func (s *Store) IsAuthenticated(ctx context.Context) bool {
	sess, err := s.Current(ctx)
	return err == nil && sess != nil
}

// Token is the bearer credential for API calls; "" when signed out.
func (s *Store) Token(ctx context.Context) string {
	sess, err := s.Current(ctx)
	if err != nil || sess == nil {
		return ""
	}
	return sess.Token
}

func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.DeleteAll(ctx, KeyToken, KeyUser); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *Store) purge(ctx context.Context, reason string) {
	log.Warn().Str("component", "session").Str("reason", reason).Msg("discarding stored session")
	if err := s.kv.DeleteAll(ctx, KeyToken, KeyUser); err != nil {
		log.Error().Err(err).Str("component", "session").Msg("purge failed")
	}
}

// expired only applies to JWTs carrying exp; opaque tokens never expire
// on the client side.
func (s *Store) expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(s.now())
}
