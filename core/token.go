package core

import (
	"sync"

	"github.com/ragline/ragline/store"
)

// Well-known storage keys for persisted session state.
const (
	tokenKey = "auth.token"
	userKey  = "auth.user"
)

// TokenStore holds the session bearer token shared by every request on a
// client, backed by a storage port. Writes are last-write-wins under a
// single lock. Any request answered with a 401 clears the store as a side
// effect, so callers must assume the ambient token can vanish between
// calls.
type TokenStore struct {
	mu       sync.Mutex
	store    store.Store
	token    Secret
	hydrated bool
}

// NewTokenStore creates a TokenStore over the given storage port.
func NewTokenStore(s store.Store) *TokenStore {
	if s == nil {
		s = store.NewMemory()
	}
	return &TokenStore{store: s}
}

// Token returns the current bearer token. On first use it hydrates once
// from storage and caches the result; a failed or empty read counts as
// absent.
func (t *TokenStore) Token() (Secret, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.hydrated {
		t.hydrated = true
		if v, ok, err := t.store.Get(tokenKey); err == nil && ok {
			t.token = NewSecret(v)
		}
	}
	if t.token.IsEmpty() {
		return Secret{}, false
	}
	return t.token, true
}

// SetToken replaces the token. A non-empty token is persisted under the
// well-known key; an empty one deletes the entry. The in-memory value is
// updated even when persistence fails.
func (t *TokenStore) SetToken(tok Secret) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.token = tok
	t.hydrated = true
	if tok.IsEmpty() {
		return t.store.Delete(tokenKey)
	}
	return t.store.Set(tokenKey, tok.Expose())
}

// Clear drops the token from memory and storage.
func (t *TokenStore) Clear() error {
	return t.SetToken(Secret{})
}

// SetUser persists the serialized user-info blob from the last login.
// A nil or empty blob deletes the entry.
func (t *TokenStore) SetUser(blob []byte) error {
	if len(blob) == 0 {
		return t.store.Delete(userKey)
	}
	return t.store.Set(userKey, string(blob))
}

// User returns the persisted user-info blob, if any.
func (t *TokenStore) User() ([]byte, bool) {
	v, ok, err := t.store.Get(userKey)
	if err != nil || !ok {
		return nil, false
	}
	return []byte(v), true
}
