package sandwich

import "github.com/code-payments/iap-sandwich/sdk"

var properties = map[string]sdk.Property{
	"Email":           sdk.PropertyEmail,
	"Name":            sdk.PropertyName,
	"AppsFlyerUserId": sdk.PropertyAppsFlyerUserID,
	"AdjustAdId":      sdk.PropertyAdjustUserID,
	"KochavaDeviceId": sdk.PropertyKochavaDeviceID,
	"CustomUserId":    sdk.PropertyUserID,
	"AdvertisingId":   sdk.PropertyAdvertisingID,
}

var attributionProviders = map[string]sdk.AttributionProvider{
	"AppsFlyer":       sdk.AttributionProviderAppsFlyer,
	"Branch":          sdk.AttributionProviderBranch,
	"Adjust":          sdk.AttributionProviderAdjust,
	"AppleSearchAds":  sdk.AttributionProviderAppleSearchAds,
	"AppleAdServices": sdk.AttributionProviderAppleAdServices,
}

var actionResultTypes = map[sdk.ActionResultType]string{
	sdk.ActionResultTypeURL:        "url",
	sdk.ActionResultTypeDeeplink:   "deeplink",
	sdk.ActionResultTypeNavigation: "navigate",
	sdk.ActionResultTypePurchase:   "purchase",
	sdk.ActionResultTypeRestore:    "restore",
	sdk.ActionResultTypeClose:      "close",
}

var automationsEventTypes = map[sdk.AutomationsEventType]string{
	sdk.AutomationsEventTypeTrialStarted:               "trial_started",
	sdk.AutomationsEventTypeTrialConverted:             "trial_converted",
	sdk.AutomationsEventTypeTrialCanceled:              "trial_canceled",
	sdk.AutomationsEventTypeTrialBillingRetry:          "trial_billing_retry_entered",
	sdk.AutomationsEventTypeSubscriptionStarted:        "subscription_started",
	sdk.AutomationsEventTypeSubscriptionRenewed:        "subscription_renewed",
	sdk.AutomationsEventTypeSubscriptionRefunded:       "subscription_refunded",
	sdk.AutomationsEventTypeSubscriptionCanceled:       "subscription_canceled",
	sdk.AutomationsEventTypeSubscriptionBillingRetry:   "subscription_billing_retry_entered",
	sdk.AutomationsEventTypeInAppPurchase:              "in_app_purchase",
	sdk.AutomationsEventTypeSubscriptionUpgraded:       "subscription_upgraded",
	sdk.AutomationsEventTypeTrialStillActive:           "trial_still_active",
	sdk.AutomationsEventTypeTrialExpired:               "trial_expired",
	sdk.AutomationsEventTypeSubscriptionExpired:        "subscription_expired",
	sdk.AutomationsEventTypeSubscriptionDowngraded:     "subscription_downgraded",
	sdk.AutomationsEventTypeSubscriptionProductChanged: "subscription_product_changed",
}

const unknownTag = "unknown"

// PropertyFromString resolves a host property tag. Matching is exact and
// case-sensitive.
func PropertyFromString(tag string) (sdk.Property, bool) {
	p, ok := properties[tag]
	return p, ok
}

// AttributionProviderFromString resolves a host attribution provider tag.
func AttributionProviderFromString(tag string) (sdk.AttributionProvider, bool) {
	p, ok := attributionProviders[tag]
	return p, ok
}

// ActionResultTypeString returns the wire tag for t, or "unknown".
func ActionResultTypeString(t sdk.ActionResultType) string {
	if tag, ok := actionResultTypes[t]; ok {
		return tag
	}
	return unknownTag
}

// AutomationsEventTypeString returns the wire tag for t, or "unknown".
func AutomationsEventTypeString(t sdk.AutomationsEventType) string {
	if tag, ok := automationsEventTypes[t]; ok {
		return tag
	}
	return unknownTag
}
