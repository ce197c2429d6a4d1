package commands

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ragline/ragline/api"
	"github.com/ragline/ragline/cli/config"
	"github.com/ragline/ragline/core"
	"github.com/ragline/ragline/store"
)

// newTestApp wires the app against a fake backend with in-memory session
// storage and a fixed config, so no file I/O leaks out of the test.
func newTestApp(t *testing.T, handler http.Handler, stdin string) (*App, *bytes.Buffer, *core.Client) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := core.New(srv.URL, core.WithStorage(store.NewMemory()))

	var out bytes.Buffer
	app := NewApp(
		WithIO(strings.NewReader(stdin), &out, &out),
		WithConfigLoader(func(string) (*config.Config, error) {
			return &config.Config{BaseURL: srv.URL, DataDir: t.TempDir()}, nil
		}),
		WithServiceFactory(func(*config.Config) (*api.Service, func() error, error) {
			return api.New(client), nil, nil
		}),
	)
	return app, &out, client
}

func TestLoginCommand(t *testing.T) {
	var gotBody map[string]string
	app, out, client := newTestApp(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Authorization", "issued-token")
		w.Write([]byte(`{"retcode":0,"data":{"id":"u1","nickname":"Alex","email":"a@b.c"}}`))
	}), "hunter2\n")

	app.root.SetArgs([]string{"login", "--email", "a@b.c"})
	if err := app.Execute(); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	// Piped stdin falls back to a plain line read for the password.
	if gotBody["password"] != "hunter2" {
		t.Errorf("password = %q, want hunter2", gotBody["password"])
	}
	if !strings.Contains(out.String(), "Signed in as Alex") {
		t.Errorf("output = %q", out.String())
	}
	tok, ok := client.Tokens().Token()
	if !ok || tok.Expose() != "issued-token" {
		t.Errorf("stored token = %q, %v", tok.Expose(), ok)
	}
}

func TestLoginCommandEmptyPassword(t *testing.T) {
	app, _, _ := newTestApp(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("backend called despite an empty password")
	}), "\n")

	app.root.SetArgs([]string{"login", "--email", "a@b.c"})
	if err := app.Execute(); err == nil {
		t.Fatal("expected an error for an empty password")
	}
}

func TestLogoutCommand(t *testing.T) {
	app, out, client := newTestApp(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"retcode":0,"data":true}`))
	}), "")

	if err := client.Tokens().SetToken(core.NewSecret("tok-1")); err != nil {
		t.Fatal(err)
	}

	app.root.SetArgs([]string{"logout"})
	if err := app.Execute(); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if _, ok := client.Tokens().Token(); ok {
		t.Error("token survived logout")
	}
	if !strings.Contains(out.String(), "Signed out.") {
		t.Errorf("output = %q", out.String())
	}
}

func TestChatCommandStreamsAnswer(t *testing.T) {
	app, out, _ := newTestApp(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, line := range []string{
			`data: {"data":{"answer":"It "}}`,
			`data: {"data":{"answer":"It renews."}}`,
			`data: {"type":"done"}`,
		} {
			w.Write([]byte(line + "\n"))
			flusher.Flush()
		}
	}), "")

	app.root.SetArgs([]string{"chat", "--conversation", "c1", "--prompt", "renewal?"})
	if err := app.Execute(); err != nil {
		t.Fatalf("chat failed: %v", err)
	}

	// Snapshots overlap; each must be printed exactly once.
	if !strings.Contains(out.String(), "It renews.") {
		t.Errorf("output = %q", out.String())
	}
	if strings.Contains(out.String(), "It It") {
		t.Errorf("snapshot prefix printed twice: %q", out.String())
	}
}
