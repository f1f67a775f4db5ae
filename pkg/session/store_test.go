//go:build unit || !integration

package session_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/do4u-project/do4u/pkg/session"
)

func TestTokenRoundTrip(t *testing.T) {
	store, err := session.NewStore(t.TempDir())
	require.NoError(t, err)

	require.Empty(t, store.Token())

	require.NoError(t, store.SetToken("abc123"))
	require.Equal(t, "abc123", store.Token())

	require.NoError(t, store.ClearToken())
	require.Empty(t, store.Token())

	// Clearing twice must stay quiet.
	require.NoError(t, store.ClearToken())
}

func TestReadIDs(t *testing.T) {
	store, err := session.NewStore(t.TempDir())
	require.NoError(t, err)

	require.Empty(t, store.ReadIDs())

	require.NoError(t, store.MarkRead("n1", "n2"))
	require.NoError(t, store.MarkRead("n2", "n3"))

	ids := store.ReadIDs()
	require.Len(t, ids, 3)
	require.Contains(t, ids, "n1")
	require.Contains(t, ids, "n3")
}
