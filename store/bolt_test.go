package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoltCRUD(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")

	b, err := OpenBolt(path)
	require.NoError(t, err)
	defer b.Close()

	_, ok, err := b.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, b.Set("auth.token", "tok-1"))
	v, ok, err := b.Get("auth.token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok-1", v)

	require.NoError(t, b.Delete("auth.token"))
	_, ok, err = b.Get("auth.token")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, b.Delete("auth.token"))
}

func TestBoltPersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")

	b, err := OpenBolt(path)
	require.NoError(t, err)
	require.NoError(t, b.Set("auth.token", "tok-1"))
	require.NoError(t, b.Close())

	b2, err := OpenBolt(path)
	require.NoError(t, err)
	defer b2.Close()

	v, ok, err := b2.Get("auth.token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok-1", v)
}
