package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ragline/ragline/core"
)

func newTestService(t *testing.T, handler http.Handler) (*Service, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(core.New(srv.URL)), srv
}

func TestLoginInstallsSession(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Authorization", "issued-token")
		w.Write([]byte(`{"retcode":0,"data":{"id":"u1","nickname":"Alex","email":"a@b.c"}}`))
	}))

	user, err := svc.Login(context.Background(), "a@b.c", "pw")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if gotPath != "/v1/user/login" {
		t.Errorf("path = %q, want /v1/user/login", gotPath)
	}
	if gotBody["email"] != "a@b.c" || gotBody["password"] != "pw" {
		t.Errorf("body = %v", gotBody)
	}
	if user.Nickname != "Alex" {
		t.Errorf("Nickname = %q, want Alex", user.Nickname)
	}

	tok, ok := svc.Client().Tokens().Token()
	if !ok || tok.Expose() != "issued-token" {
		t.Errorf("stored token = %q, %v; want issued-token", tok.Expose(), ok)
	}

	cached, err := svc.CurrentUser()
	if err != nil {
		t.Fatal(err)
	}
	if cached == nil || cached.ID != "u1" {
		t.Errorf("CurrentUser = %+v, want the logged-in profile", cached)
	}
}

func TestLoginBadCredentials(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"retcode":109,"retmsg":"email or password is wrong"}`))
	}))

	_, err := svc.Login(context.Background(), "a@b.c", "bad")
	var apiErr *core.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *core.APIError", err)
	}
	if apiErr.Code != "109" || apiErr.Message != "email or password is wrong" {
		t.Errorf("got code=%s msg=%q", apiErr.Code, apiErr.Message)
	}
	if _, ok := svc.Client().Tokens().Token(); ok {
		t.Error("token installed after a failed login")
	}
}

func TestLogoutClearsSession(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"retcode":0,"data":true}`))
	}))

	if err := svc.Client().Tokens().SetToken(core.NewSecret("tok-1")); err != nil {
		t.Fatal(err)
	}
	if err := svc.Client().Tokens().SetUser([]byte(`{"id":"u1"}`)); err != nil {
		t.Fatal(err)
	}

	if err := svc.Logout(context.Background()); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, ok := svc.Client().Tokens().Token(); ok {
		t.Error("token survived logout")
	}
	if u, _ := svc.CurrentUser(); u != nil {
		t.Errorf("user profile survived logout: %+v", u)
	}
}

func TestOAuthLoginSendsRedirectHeader(t *testing.T) {
	var gotHeader, gotPath string
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Redirect-URI")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Authorization", "oauth-token")
		w.Write([]byte(`{"retcode":0,"data":{"id":"u1"}}`))
	}))

	_, err := svc.OAuthLogin(context.Background(), "github", "https://app.example/callback")
	if err != nil {
		t.Fatalf("OAuthLogin failed: %v", err)
	}
	if gotPath != "/v1/user/login/github" {
		t.Errorf("path = %q", gotPath)
	}
	if gotHeader != "https://app.example/callback" {
		t.Errorf("X-Redirect-URI = %q", gotHeader)
	}
	tok, ok := svc.Client().Tokens().Token()
	if !ok || tok.Expose() != "oauth-token" {
		t.Errorf("stored token = %q, %v", tok.Expose(), ok)
	}
}
