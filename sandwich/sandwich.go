package sandwich

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/code-payments/iap-sandwich/bridge"
	"github.com/code-payments/iap-sandwich/sdk"
	"github.com/code-payments/iap-sandwich/settings"
)

// Completion delivers the outcome of an asynchronous call. Exactly one of
// result and err is non-nil.
type Completion func(result bridge.Map, err *Error)

// Sandwich exposes the SDK to a host application in terms of bridge Maps.
//
// It owns two pieces of state: whether the SDK push delegates are registered,
// and the pending storefront purchases waiting for PromoPurchase.
type Sandwich struct {
	log      *zap.Logger
	sdk      sdk.SDK
	settings settings.Store
	listener EventListener
	mapper   Mapper
	caps     Capabilities

	promos    *promoRegistry
	subscribe sync.Once
}

type Option func(*Sandwich)

// WithCapabilities restricts the optional store features the converters and
// PresentCodeRedemptionSheet rely on. All are enabled by default.
func WithCapabilities(caps Capabilities) Option {
	return func(s *Sandwich) {
		s.caps = caps
	}
}

func New(log *zap.Logger, qonversion sdk.SDK, store settings.Store, listener EventListener, opts ...Option) *Sandwich {
	s := &Sandwich{
		log:      log,
		sdk:      qonversion,
		settings: store,
		listener: listener,
		caps:     AllCapabilities(),
		promos:   newPromoRegistry(),
	}

	for _, opt := range opts {
		opt(s)
	}
	s.mapper = NewMapper(s.caps)

	return s
}

func (s *Sandwich) Launch(projectKey string, observeMode bool, completion Completion) {
	s.sdk.Launch(projectKey, observeMode, func(result *sdk.LaunchResult, err error) {
		if err != nil {
			s.log.Warn("Failed to launch", zap.Error(err))
			completion(nil, NewError(err))
			return
		}

		completion(s.mapper.LaunchResult(result), nil)
	})

	s.subscribeOnAsyncEvents()
}

// StoreSdkInfo records which host integration and version is running.
func (s *Sandwich) StoreSdkInfo(ctx context.Context, source, version string) error {
	if err := s.settings.Set(ctx, settings.SourceKey, source); err != nil {
		s.log.Warn("Failed to store sdk source", zap.String("source", source), zap.Error(err))
		return err
	}
	if err := s.settings.Set(ctx, settings.SourceVersionKey, version); err != nil {
		s.log.Warn("Failed to store sdk version", zap.String("version", version), zap.Error(err))
		return err
	}
	return nil
}

func (s *Sandwich) SetDebugMode() {
	s.sdk.SetDebugMode()
}

func (s *Sandwich) Purchase(productID string, completion Completion) {
	s.sdk.Purchase(productID, s.purchaseCompletion(productID, completion))
}

// PurchaseProduct purchases productID as part of the given offering. If the
// offering or the product within it cannot be resolved, it falls back to a
// plain Purchase by id.
func (s *Sandwich) PurchaseProduct(productID, offeringID string, completion Completion) {
	s.sdk.Offerings(func(offerings *sdk.Offerings, err error) {
		product := offerings.Offering(offeringID).Product(productID)
		if product == nil {
			s.log.Debug("Product not found in offering, purchasing by id",
				zap.String("product_id", productID),
				zap.String("offering_id", offeringID),
				zap.Error(err),
			)
			s.Purchase(productID, completion)
			return
		}

		s.sdk.PurchaseProduct(product, s.purchaseCompletion(productID, completion))
	})
}

// PromoPurchase resumes a storefront purchase previously announced through
// OnShouldPurchasePromoProduct. Each announcement can be resumed once.
func (s *Sandwich) PromoPurchase(productID string, completion Completion) {
	executor, ok := s.promos.take(productID)
	if !ok {
		s.log.Warn("No pending promo purchase", zap.String("product_id", productID))
		completion(nil, productNotFoundError())
		return
	}

	executor(s.purchaseCompletion(productID, completion))
}

func (s *Sandwich) CheckPermissions(completion Completion) {
	s.sdk.CheckPermissions(s.permissionsCompletion(completion))
}

func (s *Sandwich) Offerings(completion Completion) {
	s.sdk.Offerings(func(offerings *sdk.Offerings, err error) {
		if err != nil {
			completion(nil, NewError(err))
			return
		}
		completion(s.mapper.Offerings(offerings), nil)
	})
}

func (s *Sandwich) Products(completion Completion) {
	s.sdk.Products(func(products map[string]*sdk.Product, err error) {
		if err != nil {
			completion(nil, NewError(err))
			return
		}
		completion(s.mapper.Products(products), nil)
	})
}

func (s *Sandwich) Restore(completion Completion) {
	s.sdk.Restore(s.permissionsCompletion(completion))
}

func (s *Sandwich) CheckTrialIntroEligibility(productIDs []string, completion Completion) {
	s.sdk.CheckTrialIntroEligibility(productIDs, func(eligibilities map[string]*sdk.IntroEligibility, err error) {
		if err != nil {
			completion(nil, NewError(err))
			return
		}
		completion(Eligibilities(eligibilities), nil)
	})
}

func (s *Sandwich) Experiments(completion Completion) {
	s.sdk.Experiments(func(experiments map[string]*sdk.ExperimentInfo, err error) {
		if err != nil {
			completion(nil, NewError(err))
			return
		}
		completion(Experiments(experiments), nil)
	})
}

// PresentCodeRedemptionSheet is a no-op on platforms without offer codes.
func (s *Sandwich) PresentCodeRedemptionSheet() {
	if !s.caps.CodeRedemptionSheet {
		return
	}
	s.sdk.PresentCodeRedemptionSheet()
}

func (s *Sandwich) Identify(userID string) {
	s.sdk.Identify(userID)
}

// SetDefinedProperty sets one of the SDK's predefined user properties. An
// unrecognized property tag is ignored.
func (s *Sandwich) SetDefinedProperty(property, value string) {
	parsed, ok := PropertyFromString(property)
	if !ok {
		s.log.Debug("Ignoring unknown property", zap.String("property", property))
		return
	}

	s.sdk.SetProperty(parsed, value)
}

func (s *Sandwich) SetCustomProperty(property, value string) {
	s.sdk.SetUserProperty(property, value)
}

func (s *Sandwich) Logout() {
	s.sdk.Logout()
}

// AddAttributionData forwards attribution data from a known provider. An
// unrecognized provider tag is ignored.
func (s *Sandwich) AddAttributionData(provider string, data map[string]any) {
	parsed, ok := AttributionProviderFromString(provider)
	if !ok {
		s.log.Debug("Ignoring attribution from unknown provider", zap.String("provider", provider))
		return
	}

	s.sdk.AddAttributionData(data, parsed)
}

func (s *Sandwich) SetAppleSearchAdsAttributionEnabled(enabled bool) {
	s.sdk.SetAppleSearchAdsAttributionEnabled(enabled)
}

func (s *Sandwich) SetAdvertisingID() {
	s.sdk.SetAdvertisingID()
}

// SetNotificationToken forwards a hex encoded push token.
func (s *Sandwich) SetNotificationToken(token string) {
	s.sdk.SetNotificationsToken(DecodeToken(token))
}

// HandleNotification reports whether the SDK recognized and handled payload.
func (s *Sandwich) HandleNotification(payload map[string]any) bool {
	return s.sdk.HandleNotification(payload)
}

func (s *Sandwich) permissionsCompletion(completion Completion) sdk.PermissionsCompletion {
	return func(permissions map[string]*sdk.Permission, err error) {
		if err != nil {
			completion(nil, NewError(err))
			return
		}
		completion(Permissions(permissions), nil)
	}
}

func (s *Sandwich) purchaseCompletion(productID string, completion Completion) sdk.PurchaseCompletion {
	return func(permissions map[string]*sdk.Permission, err error, cancelled bool) {
		if err != nil {
			s.log.Debug("Purchase failed",
				zap.String("product_id", productID),
				zap.Bool("cancelled", cancelled),
				zap.Error(err),
			)

			wrapped := NewError(err)
			wrapped.AdditionalInfo[isCancelledKey] = cancelled
			completion(nil, wrapped)
			return
		}

		completion(Permissions(permissions), nil)
	}
}

func (s *Sandwich) subscribeOnAsyncEvents() {
	s.subscribe.Do(func() {
		d := &delegate{s: s}
		s.sdk.SetPurchasesDelegate(d)
		s.sdk.SetPromoPurchasesDelegate(d)

		if _, ok := s.listener.(AutomationsListener); ok {
			s.sdk.SetAutomationsDelegate(d)
		}
	})
}

// delegate adapts the SDK's push delegates onto the Sandwich and its listener.
type delegate struct {
	s *Sandwich
}

func (d *delegate) DidReceiveUpdatedPermissions(permissions map[string]*sdk.Permission) {
	d.s.listener.OnUpdatedPermissions(Permissions(permissions))
}

func (d *delegate) ShouldPurchasePromoProduct(productID string, executor sdk.PromoPurchaseExecutor) {
	d.s.promos.put(productID, executor)
	d.s.listener.OnShouldPurchasePromoProduct(productID)
}

func (d *delegate) AutomationsDidTriggerEvent(event *sdk.AutomationEvent) {
	if l, ok := d.s.listener.(AutomationsListener); ok {
		l.OnAutomationsEvent(AutomationEvent(event))
	}
}

func (d *delegate) AutomationsDidFinishExecuting(result *sdk.ActionResult) {
	if l, ok := d.s.listener.(AutomationsListener); ok {
		l.OnAutomationsActionFinished(ActionResult(result))
	}
}
