package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "euphony.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPairings(t *testing.T) {
	s := openTestStore(t)

	ok, err := s.HasPairing(0xDEADBEEF)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.AddPairing(0xDEADBEEF))
	// idempotent
	require.NoError(t, s.AddPairing(0xDEADBEEF))

	ok, err = s.HasPairing(0xDEADBEEF)
	require.NoError(t, err)
	assert.True(t, ok)

	guids, err := s.Pairings()
	require.NoError(t, err)
	assert.Equal(t, []uint64{0xDEADBEEF}, guids)
}

func TestArtwork(t *testing.T) {
	s := openTestStore(t)

	_, ok, err := s.GetArtwork("marvin", "diodes")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.PutArtwork("marvin", "diodes", []byte{1, 2, 3}))
	data, ok, err := s.GetArtwork("marvin", "diodes")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, data)

	// distinct pairs do not collide
	_, ok, err = s.GetArtwork("marvin", "")
	require.NoError(t, err)
	assert.False(t, ok)
}
