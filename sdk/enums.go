package sdk

// Raw values of the enums below are the SDK's own ordinals. They are passed
// through to the host untouched and may change between SDK versions.

type ProductType int

const (
	ProductTypeUnknown ProductType = iota - 1
	ProductTypeTrial
	ProductTypeDirectSubscription
	ProductTypeOneTime
)

type ProductDuration int

const (
	ProductDurationUnknown ProductDuration = iota - 1
	ProductDurationWeekly
	ProductDurationMonthly
	ProductDuration3Months
	ProductDuration6Months
	ProductDurationAnnual
	ProductDurationLifetime
)

type TrialDuration int

const (
	TrialDurationNotAvailable TrialDuration = iota - 1
	TrialDurationUnknown
	TrialDurationThreeDays
	TrialDurationWeek
	TrialDurationTwoWeeks
	TrialDurationMonth
	TrialDurationTwoMonths
	TrialDurationThreeMonths
	TrialDurationSixMonths
	TrialDurationYear
	TrialDurationOther
)

type PermissionRenewState int

const (
	PermissionRenewStateNonRenewable PermissionRenewState = iota - 1
	PermissionRenewStateUnknown
	PermissionRenewStateWillRenew
	PermissionRenewStateCancelled
	PermissionRenewStateBillingIssue
)

type OfferingTag int

const (
	OfferingTagNone OfferingTag = iota
	OfferingTagMain
)

type IntroEligibilityStatus int

const (
	IntroEligibilityStatusUnknown IntroEligibilityStatus = iota
	IntroEligibilityStatusNonIntroProduct
	IntroEligibilityStatusEligible
	IntroEligibilityStatusIneligible
)

type ExperimentGroupType int

const (
	ExperimentGroupTypeA ExperimentGroupType = iota
	ExperimentGroupTypeB
)

// Property is a user property key the SDK knows how to route to its
// integrations.
type Property int

const (
	PropertyEmail Property = iota
	PropertyName
	PropertyAppsFlyerUserID
	PropertyAdjustUserID
	PropertyKochavaDeviceID
	PropertyUserID
	PropertyAdvertisingID
	PropertyFacebookAttribution
)

type AttributionProvider int

const (
	AttributionProviderAppsFlyer AttributionProvider = iota
	AttributionProviderBranch
	AttributionProviderAdjust
	AttributionProviderAppleSearchAds
	AttributionProviderAppleAdServices
)

type ActionResultType int

const (
	ActionResultTypeUnknown ActionResultType = iota
	ActionResultTypeURL
	ActionResultTypeDeeplink
	ActionResultTypeNavigation
	ActionResultTypePurchase
	ActionResultTypeRestore
	ActionResultTypeClose
)

type AutomationsEventType int

const (
	AutomationsEventTypeUnknown AutomationsEventType = iota
	AutomationsEventTypeTrialStarted
	AutomationsEventTypeTrialConverted
	AutomationsEventTypeTrialCanceled
	AutomationsEventTypeTrialBillingRetry
	AutomationsEventTypeSubscriptionStarted
	AutomationsEventTypeSubscriptionRenewed
	AutomationsEventTypeSubscriptionRefunded
	AutomationsEventTypeSubscriptionCanceled
	AutomationsEventTypeSubscriptionBillingRetry
	AutomationsEventTypeInAppPurchase
	AutomationsEventTypeSubscriptionUpgraded
	AutomationsEventTypeTrialStillActive
	AutomationsEventTypeTrialExpired
	AutomationsEventTypeSubscriptionExpired
	AutomationsEventTypeSubscriptionDowngraded
	AutomationsEventTypeSubscriptionProductChanged
)

type PeriodUnit int

const (
	PeriodUnitDay PeriodUnit = iota
	PeriodUnitWeek
	PeriodUnitMonth
	PeriodUnitYear
)

type PaymentMode int

const (
	PaymentModePayAsYouGo PaymentMode = iota
	PaymentModePayUpFront
	PaymentModeFreeTrial
)

type DiscountType int

const (
	DiscountTypeIntroductory DiscountType = iota
	DiscountTypeSubscription
)
