package sdk

type (
	LaunchCompletion      func(result *LaunchResult, err error)
	PermissionsCompletion func(permissions map[string]*Permission, err error)
	OfferingsCompletion   func(offerings *Offerings, err error)
	ProductsCompletion    func(products map[string]*Product, err error)
	EligibilityCompletion func(eligibilities map[string]*IntroEligibility, err error)
	ExperimentsCompletion func(experiments map[string]*ExperimentInfo, err error)

	// PurchaseCompletion reports a purchase outcome. cancelled is set when
	// the user backed out of the store dialog, in which case err is set too.
	PurchaseCompletion func(permissions map[string]*Permission, err error, cancelled bool)

	// PromoPurchaseExecutor resumes a store-initiated purchase. It must be
	// called at most once.
	PromoPurchaseExecutor func(completion PurchaseCompletion)
)

// SDK is the purchase and entitlement SDK being bridged.
//
// Every method taking a completion is asynchronous and invokes its completion
// exactly once, possibly on another goroutine.
type SDK interface {
	Launch(projectKey string, observeMode bool, completion LaunchCompletion)
	SetDebugMode()

	Purchase(productID string, completion PurchaseCompletion)
	PurchaseProduct(product *Product, completion PurchaseCompletion)
	CheckPermissions(completion PermissionsCompletion)
	Offerings(completion OfferingsCompletion)
	Products(completion ProductsCompletion)
	Restore(completion PermissionsCompletion)
	CheckTrialIntroEligibility(productIDs []string, completion EligibilityCompletion)
	Experiments(completion ExperimentsCompletion)
	PresentCodeRedemptionSheet()

	Identify(userID string)
	SetProperty(property Property, value string)
	SetUserProperty(key, value string)
	Logout()
	AddAttributionData(data map[string]any, provider AttributionProvider)
	SetAppleSearchAdsAttributionEnabled(enabled bool)
	SetAdvertisingID()

	SetNotificationsToken(token []byte)
	HandleNotification(payload map[string]any) bool

	SetPurchasesDelegate(delegate PurchasesDelegate)
	SetPromoPurchasesDelegate(delegate PromoPurchasesDelegate)
	SetAutomationsDelegate(delegate AutomationsDelegate)
}

// PurchasesDelegate receives entitlement changes the SDK observes on its own,
// e.g. renewals processed in the background.
type PurchasesDelegate interface {
	DidReceiveUpdatedPermissions(permissions map[string]*Permission)
}

// PromoPurchasesDelegate receives purchases started from the storefront.
type PromoPurchasesDelegate interface {
	ShouldPurchasePromoProduct(productID string, executor PromoPurchaseExecutor)
}

type AutomationsDelegate interface {
	AutomationsDidTriggerEvent(event *AutomationEvent)
	AutomationsDidFinishExecuting(result *ActionResult)
}
