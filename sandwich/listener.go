package sandwich

import "github.com/code-payments/iap-sandwich/bridge"

// EventListener receives the events the SDK pushes without being asked.
type EventListener interface {
	// OnUpdatedPermissions is called with the full converted permission set
	// whenever it changes outside of a host-initiated call.
	OnUpdatedPermissions(permissions bridge.Map)

	// OnShouldPurchasePromoProduct is called when the storefront starts a
	// purchase of productID. The purchase is resumed with PromoPurchase.
	OnShouldPurchasePromoProduct(productID string)
}

// AutomationsListener is optionally implemented by an EventListener that
// also wants automation events.
type AutomationsListener interface {
	OnAutomationsEvent(event bridge.Map)
	OnAutomationsActionFinished(result bridge.Map)
}
