package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ratchet-sdk/crosssign/internal/testhelpers"
	"github.com/ratchet-sdk/crosssign/store/sqlite"
)

func TestStore_PersistAndLoadDeviceVerification(t *testing.T) {
	db := testhelpers.CreateTestDB(t)
	store := sqlite.New(db)
	ctx := context.Background()

	_, found, err := store.LoadDeviceVerification(ctx, "@bob:example.org", "DEVICE1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.PersistDeviceVerification(ctx, "@bob:example.org", "DEVICE1", true))

	state, found, err := store.LoadDeviceVerification(ctx, "@bob:example.org", "DEVICE1")
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, state.Verified)
	assert.False(t, state.Blocked)

	require.NoError(t, store.PersistDeviceBlock(ctx, "@bob:example.org", "DEVICE1", true))
	state, found, err = store.LoadDeviceVerification(ctx, "@bob:example.org", "DEVICE1")
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, state.Verified, "blocking must not clobber a previously recorded verification")
	assert.True(t, state.Blocked)
}

func TestStore_PersistAndLoadCrossSigningVerification(t *testing.T) {
	db := testhelpers.CreateTestDB(t)
	store := sqlite.New(db)
	ctx := context.Background()

	require.NoError(t, store.PersistCrossSigningVerification(ctx, "@bob:example.org", "masterkeyid", true))

	state, found, err := store.LoadCrossSigningVerification(ctx, "@bob:example.org", "masterkeyid")
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, state.Verified)
}

func TestStore_UnknownKeyNotFound(t *testing.T) {
	db := testhelpers.CreateTestDB(t)
	store := sqlite.New(db)
	ctx := context.Background()

	_, found, err := store.LoadCrossSigningVerification(ctx, "@nobody:example.org", "ghost")
	require.NoError(t, err)
	assert.False(t, found)
}
