package tests

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/code-payments/iap-sandwich/settings"
)

func RunStoreTests(t *testing.T, s settings.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s settings.Store){
		testSettingsStore_HappyPath,
		testSettingsStore_Overwrite,
	} {
		tf(t, s)
		teardown()
	}
}

func testSettingsStore_HappyPath(t *testing.T, store settings.Store) {
	ctx := context.Background()

	_, err := store.Get(ctx, settings.SourceKey)
	require.ErrorIs(t, err, settings.ErrNotFound)

	require.NoError(t, store.Set(ctx, settings.SourceKey, "flutter"))
	require.NoError(t, store.Set(ctx, settings.SourceVersionKey, "4.2.0"))

	source, err := store.Get(ctx, settings.SourceKey)
	require.NoError(t, err)
	require.Equal(t, "flutter", source)

	version, err := store.Get(ctx, settings.SourceVersionKey)
	require.NoError(t, err)
	require.Equal(t, "4.2.0", version)
}

func testSettingsStore_Overwrite(t *testing.T, store settings.Store) {
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, settings.SourceKey, "flutter"))
	require.NoError(t, store.Set(ctx, settings.SourceKey, "react-native"))

	source, err := store.Get(ctx, settings.SourceKey)
	require.NoError(t, err)
	require.Equal(t, "react-native", source)

	// Empty values are stored, not treated as missing.
	require.NoError(t, store.Set(ctx, settings.SourceVersionKey, ""))
	version, err := store.Get(ctx, settings.SourceVersionKey)
	require.NoError(t, err)
	require.Empty(t, version)
}
