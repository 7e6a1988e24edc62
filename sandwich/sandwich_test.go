package sandwich

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/code-payments/iap-sandwich/bridge"
	"github.com/code-payments/iap-sandwich/sdk"
	memory_sdk "github.com/code-payments/iap-sandwich/sdk/memory"
	"github.com/code-payments/iap-sandwich/settings"
	memory_settings "github.com/code-payments/iap-sandwich/settings/memory"
)

type testEnv struct {
	sdk      *memory_sdk.SDK
	settings settings.Store
	listener *recordingListener
	sandwich *Sandwich
}

func setup(t *testing.T, opts ...Option) *testEnv {
	log := zap.NewNop()

	env := &testEnv{
		sdk:      memory_sdk.New(log, memory_sdk.DefaultCatalog()),
		settings: memory_settings.NewInMemory(),
		listener: &recordingListener{},
	}
	env.sandwich = New(log, env.sdk, env.settings, env.listener, opts...)
	return env
}

// result captures a single Completion invocation.
type result struct {
	calls int
	value bridge.Map
	err   *Error
}

func (r *result) completion() Completion {
	return func(value bridge.Map, err *Error) {
		r.calls++
		r.value = value
		r.err = err
	}
}

func (r *result) requireSuccess(t *testing.T) bridge.Map {
	require.Equal(t, 1, r.calls)
	require.Nil(t, r.err)
	require.NotNil(t, r.value)
	return r.value
}

func (r *result) requireError(t *testing.T) *Error {
	require.Equal(t, 1, r.calls)
	require.Nil(t, r.value)
	require.NotNil(t, r.err)
	return r.err
}

type recordingListener struct {
	sync.Mutex
	permissions []bridge.Map
	promos      []string
	events      []bridge.Map
	actions     []bridge.Map
}

func (l *recordingListener) OnUpdatedPermissions(permissions bridge.Map) {
	l.Lock()
	defer l.Unlock()
	l.permissions = append(l.permissions, permissions)
}

func (l *recordingListener) OnShouldPurchasePromoProduct(productID string) {
	l.Lock()
	defer l.Unlock()
	l.promos = append(l.promos, productID)
}

func (l *recordingListener) OnAutomationsEvent(event bridge.Map) {
	l.Lock()
	defer l.Unlock()
	l.events = append(l.events, event)
}

func (l *recordingListener) OnAutomationsActionFinished(result bridge.Map) {
	l.Lock()
	defer l.Unlock()
	l.actions = append(l.actions, result)
}

// basicListener does not implement AutomationsListener.
type basicListener struct {
	permissions int
}

func (l *basicListener) OnUpdatedPermissions(bridge.Map) { l.permissions++ }
func (l *basicListener) OnShouldPurchasePromoProduct(string) {}

func TestSandwich_Launch(t *testing.T) {
	env := setup(t)

	var first result
	env.sandwich.Launch("project", false, first.completion())
	launched := first.requireSuccess(t)

	assert.Equal(t, env.sdk.UID(), launched["uid"])
	assert.IsType(t, int64(0), launched["timestamp"])
	assert.Len(t, launched["products"], 2)
	assert.Equal(t, bridge.Map{}, launched["permissions"])

	var second result
	env.sandwich.Launch("project", true, second.completion())
	second.requireSuccess(t)

	assert.Equal(t, 2, env.sdk.CallCount("Launch"))
	assert.Equal(t, 1, env.sdk.CallCount("SetPurchasesDelegate"))
	assert.Equal(t, 1, env.sdk.CallCount("SetPromoPurchasesDelegate"))
	assert.Equal(t, 1, env.sdk.CallCount("SetAutomationsDelegate"))
}

func TestSandwich_LaunchFailure(t *testing.T) {
	env := setup(t)

	native := sdk.NewError(sdk.ErrorCodeLaunchError, "Launch failed")
	native.Info = map[string]any{sdk.DebugDescriptionKey: "no network"}
	env.sdk.FailNext("Launch", native, false)

	var r result
	env.sandwich.Launch("project", false, r.completion())
	err := r.requireError(t)

	assert.Equal(t, "7", err.Code)
	assert.Equal(t, sdk.ErrorDomain, err.Domain)
	assert.Equal(t, "Launch failed", err.Details)
	assert.Equal(t, "no network", err.AdditionalMessage)

	// Delegates are registered even when launching fails.
	assert.Equal(t, 1, env.sdk.CallCount("SetPurchasesDelegate"))
}

func TestSandwich_LaunchWithoutAutomationsListener(t *testing.T) {
	log := zap.NewNop()
	qonversion := memory_sdk.New(log, memory_sdk.DefaultCatalog())
	listener := &basicListener{}
	s := New(log, qonversion, memory_settings.NewInMemory(), listener)

	var r result
	s.Launch("project", false, r.completion())
	r.requireSuccess(t)

	assert.Equal(t, 1, qonversion.CallCount("SetPurchasesDelegate"))
	assert.Zero(t, qonversion.CallCount("SetAutomationsDelegate"))
	assert.False(t, qonversion.TriggerAutomationEvent(&sdk.AutomationEvent{Type: sdk.AutomationsEventTypeTrialStarted}))

	require.True(t, qonversion.PushPermissions())
	assert.Equal(t, 1, listener.permissions)
}

func TestSandwich_Purchase(t *testing.T) {
	env := setup(t)

	var r result
	env.sandwich.Purchase("weekly", r.completion())
	permissions := r.requireSuccess(t)

	premium, ok := permissions["premium"].(bridge.Map)
	require.True(t, ok)
	assert.Equal(t, "weekly", premium["associatedProduct"])
	assert.Equal(t, true, premium["active"])
	assert.Contains(t, premium, "expirationTimestamp")

	var lifetime result
	env.sandwich.Purchase("lifetime", lifetime.completion())
	premium = lifetime.requireSuccess(t)["premium"].(bridge.Map)
	assert.Equal(t, "lifetime", premium["associatedProduct"])
	assert.NotContains(t, premium, "expirationTimestamp")
}

func TestSandwich_PurchaseFailures(t *testing.T) {
	env := setup(t)

	env.sdk.FailNext("Purchase", sdk.NewError(sdk.ErrorCodePurchaseCanceled, "Canceled"), true)

	var cancelled result
	env.sandwich.Purchase("weekly", cancelled.completion())
	err := cancelled.requireError(t)
	assert.Equal(t, "1", err.Code)
	assert.True(t, err.IsCancelled())
	assert.Equal(t, bridge.Map{"isCancelled": true}, err.ToMap()["additionalInfo"])

	var missing result
	env.sandwich.Purchase("unknown", missing.completion())
	err = missing.requireError(t)
	assert.Equal(t, "4", err.Code)
	assert.False(t, err.IsCancelled())
	assert.Equal(t, bridge.Map{"isCancelled": false}, err.ToMap()["additionalInfo"])
}

func TestSandwich_PurchaseProduct(t *testing.T) {
	env := setup(t)

	var r result
	env.sandwich.PurchaseProduct("weekly", "main", r.completion())
	r.requireSuccess(t)

	assert.Equal(t, 1, env.sdk.CallCount("Offerings"))
	assert.Equal(t, 1, env.sdk.CallCount("PurchaseProduct"))
	assert.Zero(t, env.sdk.CallCount("Purchase"))

	calls := env.sdk.Calls()
	last := calls[len(calls)-1]
	assert.Equal(t, "PurchaseProduct", last.Method)
	assert.Equal(t, []any{"weekly", "main"}, last.Args)
}

func TestSandwich_PurchaseProductFallback(t *testing.T) {
	for _, tc := range []struct {
		name       string
		productID  string
		offeringID string
		fail       bool
	}{
		{name: "unknown offering", productID: "p1", offeringID: "off1"},
		{name: "unknown product in offering", productID: "p1", offeringID: "main"},
		{name: "offerings unavailable", productID: "weekly", offeringID: "main", fail: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			env := setup(t)
			if tc.fail {
				env.sdk.FailNext("Offerings", sdk.NewError(sdk.ErrorCodeNetworkConnectionFailed, "Offline"), false)
			}

			var r result
			env.sandwich.PurchaseProduct(tc.productID, tc.offeringID, r.completion())
			require.Equal(t, 1, r.calls)

			calls := env.sdk.Calls()
			require.Len(t, calls, 2)
			assert.Equal(t, "Offerings", calls[0].Method)
			assert.Equal(t, "Purchase", calls[1].Method)
			assert.Equal(t, []any{tc.productID}, calls[1].Args)
		})
	}
}

func TestSandwich_PromoPurchase(t *testing.T) {
	env := setup(t)

	var launch result
	env.sandwich.Launch("project", false, launch.completion())
	launch.requireSuccess(t)

	require.True(t, env.sdk.SimulatePromoPurchase("weekly"))
	assert.Equal(t, []string{"weekly"}, env.listener.promos)
	assert.True(t, env.sandwich.promos.has("weekly"))

	var first result
	env.sandwich.PromoPurchase("weekly", first.completion())
	permissions := first.requireSuccess(t)
	assert.Contains(t, permissions, "premium")
	assert.Equal(t, 1, env.sdk.CallCount("PromoPurchase"))
	assert.False(t, env.sandwich.promos.has("weekly"))

	var second result
	env.sandwich.PromoPurchase("weekly", second.completion())
	err := second.requireError(t)
	assert.Equal(t, "4", err.Code)
	assert.Equal(t, sdk.ErrorDomain, err.Domain)
	assert.Equal(t, 1, env.sdk.CallCount("PromoPurchase"))
}

func TestSandwich_PromoPurchaseWithoutAnnouncement(t *testing.T) {
	env := setup(t)

	var r result
	env.sandwich.PromoPurchase("weekly", r.completion())
	err := r.requireError(t)
	assert.Equal(t, "4", err.Code)
	assert.Zero(t, env.sdk.CallCount("PromoPurchase"))
	assert.Zero(t, env.sdk.CallCount("Purchase"))
}

func TestSandwich_PromoPurchaseReannounced(t *testing.T) {
	env := setup(t)

	var launch result
	env.sandwich.Launch("project", false, launch.completion())

	env.sdk.FailNext("PromoPurchase", sdk.NewError(sdk.ErrorCodePurchaseCanceled, "Canceled"), true)
	require.True(t, env.sdk.SimulatePromoPurchase("weekly"))
	require.True(t, env.sdk.SimulatePromoPurchase("weekly"))

	// The later announcement replaces the earlier one.
	var first result
	env.sandwich.PromoPurchase("weekly", first.completion())
	assert.True(t, first.requireError(t).IsCancelled())

	var second result
	env.sandwich.PromoPurchase("weekly", second.completion())
	second.requireError(t)
	assert.Equal(t, 1, env.sdk.CallCount("PromoPurchase"))
}

func TestSandwich_PermissionQueries(t *testing.T) {
	env := setup(t)

	expiration := time.Unix(1700000000, 0)
	env.sdk.GrantPermission(&sdk.Permission{
		PermissionID:   "premium",
		ProductID:      "weekly",
		RenewState:     sdk.PermissionRenewStateCancelled,
		StartedDate:    time.Unix(1650000000, 0),
		ExpirationDate: &expiration,
		IsActive:       true,
	})

	expected := bridge.Map{
		"premium": bridge.Map{
			"id":                  "premium",
			"associatedProduct":   "weekly",
			"renewState":          2,
			"startedTimestamp":    int64(1650000000000),
			"expirationTimestamp": int64(1700000000000),
			"active":              true,
		},
	}

	var checked result
	env.sandwich.CheckPermissions(checked.completion())
	assert.Equal(t, expected, checked.requireSuccess(t))

	var restored result
	env.sandwich.Restore(restored.completion())
	assert.Equal(t, expected, restored.requireSuccess(t))

	env.sdk.FailNext("Restore", sdk.NewError(sdk.ErrorCodeNetworkConnectionFailed, "Offline"), false)
	var failed result
	env.sandwich.Restore(failed.completion())
	assert.Equal(t, "5", failed.requireError(t).Code)
}

func TestSandwich_Catalog(t *testing.T) {
	env := setup(t)

	var offerings result
	env.sandwich.Offerings(offerings.completion())
	value := offerings.requireSuccess(t)
	main := value["main"].(bridge.Map)
	assert.Equal(t, "main", main["id"])
	assert.Len(t, main["products"], 2)
	assert.Len(t, value["availableOfferings"], 1)

	var products result
	env.sandwich.Products(products.completion())
	weekly := products.requireSuccess(t)["weekly"].(bridge.Map)
	assert.Equal(t, "$4.99", weekly["prettyPrice"])
	assert.Equal(t, "4.99", weekly["skProduct"].(bridge.Map)["price"])

	var eligibility result
	env.sandwich.CheckTrialIntroEligibility([]string{"weekly", "lifetime", "other"}, eligibility.completion())
	assert.Equal(t, bridge.Map{
		"weekly":   bridge.Map{"status": 2},
		"lifetime": bridge.Map{"status": 1},
		"other":    bridge.Map{"status": 0},
	}, eligibility.requireSuccess(t))

	var experiments result
	env.sandwich.Experiments(experiments.completion())
	assert.Equal(t, bridge.Map{
		"paywall": bridge.Map{"id": "paywall", "group": bridge.Map{"type": 1}},
	}, experiments.requireSuccess(t))
}

func TestSandwich_CatalogFailures(t *testing.T) {
	env := setup(t)
	offline := sdk.NewError(sdk.ErrorCodeNetworkConnectionFailed, "Offline")

	for _, tc := range []struct {
		method string
		call   func(Completion)
	}{
		{"Offerings", env.sandwich.Offerings},
		{"Products", env.sandwich.Products},
		{"Experiments", env.sandwich.Experiments},
		{"CheckTrialIntroEligibility", func(c Completion) {
			env.sandwich.CheckTrialIntroEligibility([]string{"weekly"}, c)
		}},
	} {
		method, call := tc.method, tc.call
		env.sdk.FailNext(method, offline, false)

		var r result
		call(r.completion())
		err := r.requireError(t)
		assert.Equal(t, "5", err.Code, method)
		assert.Equal(t, "Offline", err.Details, method)
	}
}

func TestSandwich_StoreSdkInfo(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	require.NoError(t, env.sandwich.StoreSdkInfo(ctx, "flutter", "4.2.0"))

	source, err := env.settings.Get(ctx, settings.SourceKey)
	require.NoError(t, err)
	assert.Equal(t, "flutter", source)

	version, err := env.settings.Get(ctx, settings.SourceVersionKey)
	require.NoError(t, err)
	assert.Equal(t, "4.2.0", version)

	require.NoError(t, env.sandwich.StoreSdkInfo(ctx, "react-native", "5.0.0"))
	source, err = env.settings.Get(ctx, settings.SourceKey)
	require.NoError(t, err)
	assert.Equal(t, "react-native", source)
}

func TestSandwich_Properties(t *testing.T) {
	env := setup(t)

	env.sandwich.SetDefinedProperty("Email", "a@b.c")
	value, ok := env.sdk.Property(sdk.PropertyEmail)
	require.True(t, ok)
	assert.Equal(t, "a@b.c", value)

	env.sandwich.SetDefinedProperty("Nickname", "x")
	assert.Equal(t, 1, env.sdk.CallCount("SetProperty"))

	env.sandwich.SetCustomProperty("plan", "pro")
	value, ok = env.sdk.UserProperty("plan")
	require.True(t, ok)
	assert.Equal(t, "pro", value)
}

func TestSandwich_Attribution(t *testing.T) {
	env := setup(t)

	data := map[string]any{"campaign": "spring"}
	env.sandwich.AddAttributionData("AppsFlyer", data)
	stored, ok := env.sdk.Attribution(sdk.AttributionProviderAppsFlyer)
	require.True(t, ok)
	assert.Equal(t, data, stored)

	env.sandwich.AddAttributionData("Singular", data)
	assert.Equal(t, 1, env.sdk.CallCount("AddAttributionData"))

	env.sandwich.SetAppleSearchAdsAttributionEnabled(true)
	assert.True(t, env.sdk.IsSearchAdsAttributionEnabled())

	env.sandwich.SetAdvertisingID()
	assert.Equal(t, 1, env.sdk.CallCount("SetAdvertisingID"))
}

func TestSandwich_Notifications(t *testing.T) {
	env := setup(t)

	env.sandwich.SetNotificationToken("0a1f")
	assert.Equal(t, []byte{0x0a, 0x1f}, env.sdk.NotificationsToken())

	assert.True(t, env.sandwich.HandleNotification(map[string]any{memory_sdk.NotificationKey: "paywall"}))
	assert.False(t, env.sandwich.HandleNotification(map[string]any{"aps": map[string]any{}}))
}

func TestSandwich_Session(t *testing.T) {
	env := setup(t)

	env.sandwich.SetDebugMode()
	assert.True(t, env.sdk.IsDebugMode())

	env.sandwich.Identify("user-1")
	assert.Equal(t, "user-1", env.sdk.UID())

	var r result
	env.sandwich.Purchase("weekly", r.completion())
	r.requireSuccess(t)

	env.sandwich.Logout()
	assert.Empty(t, env.sdk.UID())

	var checked result
	env.sandwich.CheckPermissions(checked.completion())
	assert.Equal(t, bridge.Map{}, checked.requireSuccess(t))
}

func TestSandwich_PresentCodeRedemptionSheet(t *testing.T) {
	env := setup(t)
	env.sandwich.PresentCodeRedemptionSheet()
	assert.Equal(t, 1, env.sdk.CallCount("PresentCodeRedemptionSheet"))

	limited := setup(t, WithCapabilities(Capabilities{}))
	limited.sandwich.PresentCodeRedemptionSheet()
	assert.Zero(t, limited.sdk.CallCount("PresentCodeRedemptionSheet"))
}

func TestSandwich_CapabilitiesApplyToProducts(t *testing.T) {
	env := setup(t, WithCapabilities(Capabilities{}))

	var r result
	env.sandwich.Products(r.completion())
	store := r.requireSuccess(t)["weekly"].(bridge.Map)["skProduct"].(bridge.Map)
	assert.NotContains(t, store, "subscriptionPeriod")
	assert.NotContains(t, store, "introductoryPrice")
}

func TestSandwich_PushEvents(t *testing.T) {
	env := setup(t)

	// Nothing is delivered before launch registers the delegates.
	assert.False(t, env.sdk.PushPermissions())

	var launch result
	env.sandwich.Launch("project", false, launch.completion())

	var purchase result
	env.sandwich.Purchase("weekly", purchase.completion())

	require.True(t, env.sdk.PushPermissions())
	require.Len(t, env.listener.permissions, 1)
	assert.Equal(t, purchase.requireSuccess(t), env.listener.permissions[0])

	date := time.Unix(1650000000, 0)
	require.True(t, env.sdk.TriggerAutomationEvent(&sdk.AutomationEvent{
		Type: sdk.AutomationsEventTypeSubscriptionRenewed,
		Date: date,
	}))
	assert.Equal(t, []bridge.Map{{
		"type":      "subscription_renewed",
		"timestamp": int64(1650000000000),
	}}, env.listener.events)

	require.True(t, env.sdk.FinishAutomationAction(&sdk.ActionResult{Type: sdk.ActionResultTypeClose}))
	assert.Equal(t, []bridge.Map{{"type": "close"}}, env.listener.actions)
}

func TestSandwich_ConcurrentPromoPurchases(t *testing.T) {
	env := setup(t)

	var launch result
	env.sandwich.Launch("project", false, launch.completion())
	require.True(t, env.sdk.SimulatePromoPurchase("weekly"))

	const workers = 16

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		failures  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			env.sandwich.PromoPurchase("weekly", func(_ bridge.Map, err *Error) {
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					failures++
				} else {
					successes++
				}
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, failures)
	assert.Equal(t, 1, env.sdk.CallCount("PromoPurchase"))
}
