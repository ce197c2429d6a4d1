package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ragline/ragline/core"
)

// Login authenticates with email and password. On success the token
// issued via the Authorization response header is installed in the
// client's token store and reused on every later request.
func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	env, err := s.c.DoEnvelope(ctx, "/user/login", core.RequestOptions{
		Method:   http.MethodPost,
		Body:     map[string]string{"email": email, "password": password},
		SkipAuth: true,
	})
	if err != nil {
		return nil, err
	}
	return s.installSession(env)
}

// Register creates an account and, like Login, installs the issued
// session token.
func (s *Service) Register(ctx context.Context, nickname, email, password string) (*User, error) {
	env, err := s.c.DoEnvelope(ctx, "/user/register", core.RequestOptions{
		Method:   http.MethodPost,
		Body:     map[string]string{"nickname": nickname, "email": email, "password": password},
		SkipAuth: true,
	})
	if err != nil {
		return nil, err
	}
	return s.installSession(env)
}

// OAuthLogin exchanges a provider channel for a session. The redirect
// target travels in the X-Redirect-URI header, not the body.
func (s *Service) OAuthLogin(ctx context.Context, channel, redirectURI string) (*User, error) {
	headers := http.Header{}
	headers.Set("X-Redirect-URI", redirectURI)
	env, err := s.c.DoEnvelope(ctx, "/user/login/"+channel, core.RequestOptions{
		Method:   http.MethodGet,
		Headers:  headers,
		SkipAuth: true,
	})
	if err != nil {
		return nil, err
	}
	return s.installSession(env)
}

// installSession persists the issued token and user profile from a
// login-shaped envelope.
func (s *Service) installSession(env *core.Envelope) (*User, error) {
	var user User
	if err := decode(env.Data, &user); err != nil {
		return nil, err
	}
	if !env.AuthToken.IsEmpty() {
		if err := s.c.Tokens().SetToken(env.AuthToken); err != nil {
			return nil, err
		}
	}
	if blob, err := json.Marshal(user); err == nil {
		if err := s.c.Tokens().SetUser(blob); err != nil {
			return nil, err
		}
	}
	return &user, nil
}

// Logout tells the backend to drop the session, then clears the local
// token and profile regardless of the response.
func (s *Service) Logout(ctx context.Context) error {
	_, err := s.c.Do(ctx, "/user/logout", core.RequestOptions{Method: http.MethodGet})
	if cerr := s.c.Tokens().Clear(); cerr != nil && err == nil {
		err = cerr
	}
	if uerr := s.c.Tokens().SetUser(nil); uerr != nil && err == nil {
		err = uerr
	}
	return err
}

// CurrentUser returns the locally cached profile from the last login, or
// nil when no session is stored.
func (s *Service) CurrentUser() (*User, error) {
	blob, ok := s.c.Tokens().User()
	if !ok {
		return nil, nil
	}
	var user User
	if err := json.Unmarshal(blob, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
