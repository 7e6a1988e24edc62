package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/code-payments/iap-sandwich/sdk"
)

// NotificationKey marks a push payload as one the SDK handles.
const NotificationKey = "qonv.pick_screen"

// Call is a single recorded invocation of the SDK.
type Call struct {
	Method string
	Args   []any
}

// Catalog is the fixed product setup the in-memory SDK serves.
type Catalog struct {
	Products  map[string]*sdk.Product
	Offerings *sdk.Offerings

	// Grants maps a product id to the permission a purchase of it unlocks.
	Grants map[string]string

	Eligibility map[string]sdk.IntroEligibilityStatus
	Experiments map[string]*sdk.ExperimentInfo
}

type failure struct {
	err       error
	cancelled bool
}

// SDK is an in-memory sdk.SDK. Completions run synchronously on the calling
// goroutine, after internal locks are released.
type SDK struct {
	log *zap.Logger

	mu          sync.Mutex
	catalog     Catalog
	uid         string
	launched    bool
	debug       bool
	calls       []Call
	failures    map[string]failure
	permissions map[string]*sdk.Permission

	properties     map[sdk.Property]string
	userProperties map[string]string
	attribution    map[sdk.AttributionProvider]map[string]any
	searchAds      bool
	token          []byte

	purchases   sdk.PurchasesDelegate
	promos      sdk.PromoPurchasesDelegate
	automations sdk.AutomationsDelegate
}

func New(log *zap.Logger, catalog Catalog) *SDK {
	if catalog.Products == nil {
		catalog.Products = map[string]*sdk.Product{}
	}
	if catalog.Offerings == nil {
		catalog.Offerings = &sdk.Offerings{}
	}

	return &SDK{
		log:            log,
		catalog:        catalog,
		failures:       map[string]failure{},
		permissions:    map[string]*sdk.Permission{},
		properties:     map[sdk.Property]string{},
		userProperties: map[string]string{},
		attribution:    map[sdk.AttributionProvider]map[string]any{},
	}
}

// FailNext makes the next call to method complete with err.
func (s *SDK) FailNext(method string, err error, cancelled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failures[method] = failure{err: err, cancelled: cancelled}
}

// Calls returns every recorded invocation in order.
func (s *SDK) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()

	calls := make([]Call, len(s.calls))
	copy(calls, s.calls)
	return calls
}

// CallCount returns how many times method was invoked.
func (s *SDK) CallCount(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	for _, c := range s.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

func (s *SDK) record(method string, args ...any) (failure, bool) {
	s.calls = append(s.calls, Call{Method: method, Args: args})

	f, ok := s.failures[method]
	if ok {
		delete(s.failures, method)
	}
	return f, ok
}

func (s *SDK) Launch(projectKey string, observeMode bool, completion sdk.LaunchCompletion) {
	s.mu.Lock()
	f, failed := s.record("Launch", projectKey, observeMode)
	if failed {
		s.mu.Unlock()
		completion(nil, f.err)
		return
	}

	if s.uid == "" {
		s.uid = uuid.NewString()
	}
	s.launched = true

	result := &sdk.LaunchResult{
		UID:          s.uid,
		Timestamp:    time.Now(),
		Products:     cloneProducts(s.catalog.Products),
		Permissions:  clonePermissions(s.permissions),
		UserProducts: map[string]*sdk.Product{},
	}
	for _, permission := range s.permissions {
		if product, ok := s.catalog.Products[permission.ProductID]; ok {
			result.UserProducts[product.QonversionID] = product
		}
	}
	s.mu.Unlock()

	s.log.Debug("Launched", zap.String("uid", result.UID), zap.Bool("observe_mode", observeMode))
	completion(result, nil)
}

func (s *SDK) SetDebugMode() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.record("SetDebugMode")
	s.debug = true
}

func (s *SDK) Purchase(productID string, completion sdk.PurchaseCompletion) {
	s.mu.Lock()
	f, failed := s.record("Purchase", productID)
	s.mu.Unlock()

	if failed {
		completion(nil, f.err, f.cancelled)
		return
	}
	s.purchase(productID, completion)
}

func (s *SDK) PurchaseProduct(product *sdk.Product, completion sdk.PurchaseCompletion) {
	s.mu.Lock()
	f, failed := s.record("PurchaseProduct", product.QonversionID, product.OfferingID)
	s.mu.Unlock()

	if failed {
		completion(nil, f.err, f.cancelled)
		return
	}
	s.purchase(product.QonversionID, completion)
}

func (s *SDK) purchase(productID string, completion sdk.PurchaseCompletion) {
	s.mu.Lock()
	product, ok := s.catalog.Products[productID]
	if !ok {
		s.mu.Unlock()
		completion(nil, sdk.NewError(sdk.ErrorCodeProductNotFound, "Product not found"), false)
		return
	}

	permissionID, ok := s.catalog.Grants[productID]
	if !ok {
		permissionID = productID
	}
	s.permissions[permissionID] = grant(permissionID, product, time.Now())
	permissions := clonePermissions(s.permissions)
	s.mu.Unlock()

	s.log.Debug("Purchased", zap.String("product_id", productID), zap.String("permission_id", permissionID))
	completion(permissions, nil, false)
}

func (s *SDK) CheckPermissions(completion sdk.PermissionsCompletion) {
	s.mu.Lock()
	f, failed := s.record("CheckPermissions")
	permissions := clonePermissions(s.permissions)
	s.mu.Unlock()

	if failed {
		completion(nil, f.err)
		return
	}
	completion(permissions, nil)
}

func (s *SDK) Offerings(completion sdk.OfferingsCompletion) {
	s.mu.Lock()
	f, failed := s.record("Offerings")
	offerings := s.catalog.Offerings
	s.mu.Unlock()

	if failed {
		completion(nil, f.err)
		return
	}
	completion(offerings, nil)
}

func (s *SDK) Products(completion sdk.ProductsCompletion) {
	s.mu.Lock()
	f, failed := s.record("Products")
	products := cloneProducts(s.catalog.Products)
	s.mu.Unlock()

	if failed {
		completion(nil, f.err)
		return
	}
	completion(products, nil)
}

func (s *SDK) Restore(completion sdk.PermissionsCompletion) {
	s.mu.Lock()
	f, failed := s.record("Restore")
	permissions := clonePermissions(s.permissions)
	s.mu.Unlock()

	if failed {
		completion(nil, f.err)
		return
	}
	completion(permissions, nil)
}

func (s *SDK) CheckTrialIntroEligibility(productIDs []string, completion sdk.EligibilityCompletion) {
	s.mu.Lock()
	f, failed := s.record("CheckTrialIntroEligibility", productIDs)
	eligibilities := make(map[string]*sdk.IntroEligibility, len(productIDs))
	for _, id := range productIDs {
		eligibilities[id] = &sdk.IntroEligibility{Status: s.catalog.Eligibility[id]}
	}
	s.mu.Unlock()

	if failed {
		completion(nil, f.err)
		return
	}
	completion(eligibilities, nil)
}

func (s *SDK) Experiments(completion sdk.ExperimentsCompletion) {
	s.mu.Lock()
	f, failed := s.record("Experiments")
	experiments := make(map[string]*sdk.ExperimentInfo, len(s.catalog.Experiments))
	for id, experiment := range s.catalog.Experiments {
		experiments[id] = experiment
	}
	s.mu.Unlock()

	if failed {
		completion(nil, f.err)
		return
	}
	completion(experiments, nil)
}

func (s *SDK) PresentCodeRedemptionSheet() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.record("PresentCodeRedemptionSheet")
}

func (s *SDK) Identify(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.record("Identify", userID)
	s.uid = userID
}

func (s *SDK) SetProperty(property sdk.Property, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.record("SetProperty", property, value)
	s.properties[property] = value
}

func (s *SDK) SetUserProperty(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.record("SetUserProperty", key, value)
	s.userProperties[key] = value
}

func (s *SDK) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.record("Logout")
	s.uid = ""
	s.permissions = map[string]*sdk.Permission{}
}

func (s *SDK) AddAttributionData(data map[string]any, provider sdk.AttributionProvider) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.record("AddAttributionData", data, provider)
	s.attribution[provider] = data
}

func (s *SDK) SetAppleSearchAdsAttributionEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.record("SetAppleSearchAdsAttributionEnabled", enabled)
	s.searchAds = enabled
}

func (s *SDK) SetAdvertisingID() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.record("SetAdvertisingID")
}

func (s *SDK) SetNotificationsToken(token []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.record("SetNotificationsToken", token)
	s.token = append([]byte(nil), token...)
}

func (s *SDK) HandleNotification(payload map[string]any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.record("HandleNotification", payload)
	_, ok := payload[NotificationKey]
	return ok
}

func (s *SDK) SetPurchasesDelegate(delegate sdk.PurchasesDelegate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.record("SetPurchasesDelegate")
	s.purchases = delegate
}

func (s *SDK) SetPromoPurchasesDelegate(delegate sdk.PromoPurchasesDelegate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.record("SetPromoPurchasesDelegate")
	s.promos = delegate
}

func (s *SDK) SetAutomationsDelegate(delegate sdk.AutomationsDelegate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.record("SetAutomationsDelegate")
	s.automations = delegate
}
