package memory

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/code-payments/iap-sandwich/sdk"
)

func TestMemorySDK_PurchaseGrantsPermission(t *testing.T) {
	s := New(zap.Must(zap.NewDevelopment()), DefaultCatalog())

	var permissions map[string]*sdk.Permission
	s.Purchase("weekly", func(p map[string]*sdk.Permission, err error, cancelled bool) {
		require.NoError(t, err)
		require.False(t, cancelled)
		permissions = p
	})

	require.Contains(t, permissions, "premium")
	premium := permissions["premium"]
	require.Equal(t, "weekly", premium.ProductID)
	require.True(t, premium.IsActive)
	require.Equal(t, sdk.PermissionRenewStateWillRenew, premium.RenewState)
	require.NotNil(t, premium.ExpirationDate)

	var launch *sdk.LaunchResult
	s.Launch("key", false, func(r *sdk.LaunchResult, err error) {
		require.NoError(t, err)
		launch = r
	})
	require.NotEmpty(t, launch.UID)
	require.Contains(t, launch.UserProducts, "weekly")
	require.Len(t, launch.Products, 2)
}

func TestMemorySDK_PurchaseUnknownProduct(t *testing.T) {
	s := New(zap.NewNop(), DefaultCatalog())

	s.Purchase("missing", func(p map[string]*sdk.Permission, err error, cancelled bool) {
		require.Nil(t, p)
		require.False(t, cancelled)

		var sdkErr *sdk.Error
		require.ErrorAs(t, err, &sdkErr)
		require.Equal(t, int(sdk.ErrorCodeProductNotFound), sdkErr.Code)
		require.Equal(t, sdk.ErrorDomain, sdkErr.Domain)
	})
}

func TestMemorySDK_FailNext(t *testing.T) {
	s := New(zap.NewNop(), DefaultCatalog())

	canceled := sdk.NewError(sdk.ErrorCodePurchaseCanceled, "User canceled")
	s.FailNext("Purchase", canceled, true)

	s.Purchase("weekly", func(p map[string]*sdk.Permission, err error, cancelled bool) {
		require.Equal(t, canceled, err)
		require.True(t, cancelled)
	})

	// Failures are consumed by a single call.
	s.Purchase("weekly", func(p map[string]*sdk.Permission, err error, cancelled bool) {
		require.NoError(t, err)
	})

	require.Equal(t, 2, s.CallCount("Purchase"))
}

func TestMemorySDK_Notifications(t *testing.T) {
	s := New(zap.NewNop(), Catalog{})

	s.SetNotificationsToken([]byte{0x0a, 0x1f})
	require.Equal(t, []byte{0x0a, 0x1f}, s.NotificationsToken())

	require.True(t, s.HandleNotification(map[string]any{NotificationKey: "screen"}))
	require.False(t, s.HandleNotification(map[string]any{"aps": "x"}))
}

func TestPrettyPrice(t *testing.T) {
	require.Equal(t, "$4.99", PrettyPrice(DefaultCatalog().Products["weekly"].StoreProduct.Price, USLocale))
}
