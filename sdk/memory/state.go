package memory

import (
	"time"

	"github.com/code-payments/iap-sandwich/sdk"
)

// SimulatePromoPurchase reports a storefront purchase of productID to the
// promo purchases delegate. It returns false if no delegate is registered.
//
// The executor handed to the delegate records a PromoPurchase call each time
// it runs.
func (s *SDK) SimulatePromoPurchase(productID string) bool {
	s.mu.Lock()
	delegate := s.promos
	s.mu.Unlock()

	if delegate == nil {
		return false
	}

	delegate.ShouldPurchasePromoProduct(productID, func(completion sdk.PurchaseCompletion) {
		s.mu.Lock()
		f, failed := s.record("PromoPurchase", productID)
		s.mu.Unlock()

		if failed {
			completion(nil, f.err, f.cancelled)
			return
		}
		s.purchase(productID, completion)
	})
	return true
}

// PushPermissions delivers the current permissions to the purchases delegate,
// as the SDK does after a background renewal. It returns false if no
// delegate is registered.
func (s *SDK) PushPermissions() bool {
	s.mu.Lock()
	delegate := s.purchases
	permissions := clonePermissions(s.permissions)
	s.mu.Unlock()

	if delegate == nil {
		return false
	}
	delegate.DidReceiveUpdatedPermissions(permissions)
	return true
}

// GrantPermission adds a permission outside of a purchase flow.
func (s *SDK) GrantPermission(permission *sdk.Permission) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *permission
	s.permissions[permission.PermissionID] = &clone
}

// TriggerAutomationEvent reports event to the automations delegate.
func (s *SDK) TriggerAutomationEvent(event *sdk.AutomationEvent) bool {
	s.mu.Lock()
	delegate := s.automations
	s.mu.Unlock()

	if delegate == nil {
		return false
	}
	delegate.AutomationsDidTriggerEvent(event)
	return true
}

// FinishAutomationAction reports an executed automation action.
func (s *SDK) FinishAutomationAction(result *sdk.ActionResult) bool {
	s.mu.Lock()
	delegate := s.automations
	s.mu.Unlock()

	if delegate == nil {
		return false
	}
	delegate.AutomationsDidFinishExecuting(result)
	return true
}

func (s *SDK) UID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.uid
}

func (s *SDK) Property(property sdk.Property) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.properties[property]
	return v, ok
}

func (s *SDK) UserProperty(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.userProperties[key]
	return v, ok
}

func (s *SDK) Attribution(provider sdk.AttributionProvider) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.attribution[provider]
	return v, ok
}

func (s *SDK) NotificationsToken() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]byte(nil), s.token...)
}

func (s *SDK) IsDebugMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.debug
}

func (s *SDK) IsSearchAdsAttributionEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.searchAds
}

func grant(permissionID string, product *sdk.Product, now time.Time) *sdk.Permission {
	permission := &sdk.Permission{
		PermissionID: permissionID,
		ProductID:    product.QonversionID,
		RenewState:   sdk.PermissionRenewStateNonRenewable,
		StartedDate:  now,
		IsActive:     true,
	}

	if period, ok := durationPeriod(product.Duration); ok {
		expiration := now.Add(period)
		permission.RenewState = sdk.PermissionRenewStateWillRenew
		permission.ExpirationDate = &expiration
	}

	return permission
}

func durationPeriod(duration sdk.ProductDuration) (time.Duration, bool) {
	const day = 24 * time.Hour

	switch duration {
	case sdk.ProductDurationWeekly:
		return 7 * day, true
	case sdk.ProductDurationMonthly:
		return 30 * day, true
	case sdk.ProductDuration3Months:
		return 90 * day, true
	case sdk.ProductDuration6Months:
		return 180 * day, true
	case sdk.ProductDurationAnnual:
		return 365 * day, true
	default:
		return 0, false
	}
}

func clonePermissions(permissions map[string]*sdk.Permission) map[string]*sdk.Permission {
	out := make(map[string]*sdk.Permission, len(permissions))
	for id, permission := range permissions {
		clone := *permission
		out[id] = &clone
	}
	return out
}

func cloneProducts(products map[string]*sdk.Product) map[string]*sdk.Product {
	out := make(map[string]*sdk.Product, len(products))
	for id, product := range products {
		out[id] = product
	}
	return out
}
