package sandwich

import (
	"sync"

	"github.com/code-payments/iap-sandwich/sdk"
)

// promoRegistry holds the pending executor of each storefront purchase,
// keyed by product id. An executor is handed out at most once.
type promoRegistry struct {
	mu        sync.Mutex
	executors map[string]sdk.PromoPurchaseExecutor
}

func newPromoRegistry() *promoRegistry {
	return &promoRegistry{
		executors: map[string]sdk.PromoPurchaseExecutor{},
	}
}

func (r *promoRegistry) put(productID string, executor sdk.PromoPurchaseExecutor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.executors[productID] = executor
}

// take removes and returns the executor for productID.
func (r *promoRegistry) take(productID string) (sdk.PromoPurchaseExecutor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	executor, ok := r.executors[productID]
	if ok {
		delete(r.executors, productID)
	}
	return executor, ok
}

func (r *promoRegistry) has(productID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.executors[productID]
	return ok
}
