package core

import (
	"testing"

	"github.com/ragline/ragline/store"
)

func TestTokenStoreLifecycle(t *testing.T) {
	ts := NewTokenStore(store.NewMemory())

	if _, ok := ts.Token(); ok {
		t.Error("fresh store reported a token")
	}

	if err := ts.SetToken(NewSecret("tok-1")); err != nil {
		t.Fatal(err)
	}
	tok, ok := ts.Token()
	if !ok || tok.Expose() != "tok-1" {
		t.Errorf("Token() = %q, %v; want tok-1, true", tok.Expose(), ok)
	}

	if err := ts.Clear(); err != nil {
		t.Fatal(err)
	}
	if _, ok := ts.Token(); ok {
		t.Error("token survived Clear")
	}
}

func TestTokenStoreHydratesFromStorage(t *testing.T) {
	backing := store.NewMemory()
	if err := backing.Set("auth.token", "persisted"); err != nil {
		t.Fatal(err)
	}

	ts := NewTokenStore(backing)
	tok, ok := ts.Token()
	if !ok || tok.Expose() != "persisted" {
		t.Errorf("Token() = %q, %v; want persisted, true", tok.Expose(), ok)
	}
}

func TestTokenStorePersists(t *testing.T) {
	backing := store.NewMemory()
	ts := NewTokenStore(backing)

	if err := ts.SetToken(NewSecret("tok-1")); err != nil {
		t.Fatal(err)
	}
	if v, ok, _ := backing.Get("auth.token"); !ok || v != "tok-1" {
		t.Errorf("backing store has %q, %v; want tok-1, true", v, ok)
	}

	if err := ts.Clear(); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := backing.Get("auth.token"); ok {
		t.Error("backing store still holds the token after Clear")
	}
}

func TestTokenStoreUserBlob(t *testing.T) {
	ts := NewTokenStore(store.NewMemory())

	if _, ok := ts.User(); ok {
		t.Error("fresh store reported a user blob")
	}

	if err := ts.SetUser([]byte(`{"id":"u1"}`)); err != nil {
		t.Fatal(err)
	}
	blob, ok := ts.User()
	if !ok || string(blob) != `{"id":"u1"}` {
		t.Errorf("User() = %s, %v", blob, ok)
	}

	if err := ts.SetUser(nil); err != nil {
		t.Fatal(err)
	}
	if _, ok := ts.User(); ok {
		t.Error("user blob survived deletion")
	}
}

func TestNewTokenStoreNilStorage(t *testing.T) {
	ts := NewTokenStore(nil)
	if err := ts.SetToken(NewSecret("x")); err != nil {
		t.Fatalf("nil storage should fall back to memory: %v", err)
	}
}
