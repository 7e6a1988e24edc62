package channel

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/code-payments/iap-sandwich/bridge"
	"github.com/code-payments/iap-sandwich/sandwich"
)

const DefaultTimeout = 30 * time.Second

var (
	ErrUnknownMethod   = errors.New("unknown method")
	ErrInvalidArgument = errors.New("invalid argument")
)

type handler func(ctx context.Context, args bridge.Map) (bridge.Map, error)

// Dispatcher routes named method calls from the host to the Sandwich.
//
// Invoke blocks until the call's completion is delivered. An SDK failure is
// returned as a *sandwich.Error; every other error means the call never
// reached the SDK or its completion did not arrive in time.
type Dispatcher struct {
	log      *zap.Logger
	sandwich *sandwich.Sandwich
	timeout  time.Duration
	handlers map[string]handler
}

type Option func(*Dispatcher)

// WithTimeout bounds how long Invoke waits for a completion. Zero disables
// the bound, leaving only the caller's context.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		d.timeout = timeout
	}
}

func NewDispatcher(log *zap.Logger, s *sandwich.Sandwich, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		log:      log,
		sandwich: s,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}

	d.handlers = map[string]handler{
		"launch":                              d.launch,
		"storeSdkInfo":                        d.storeSdkInfo,
		"setDebugMode":                        d.setDebugMode,
		"purchase":                            d.purchase,
		"purchaseProduct":                     d.purchaseProduct,
		"promoPurchase":                       d.promoPurchase,
		"checkPermissions":                    d.checkPermissions,
		"restore":                             d.restore,
		"offerings":                           d.offerings,
		"products":                            d.products,
		"checkTrialIntroEligibility":          d.checkTrialIntroEligibility,
		"experiments":                         d.experiments,
		"presentCodeRedemptionSheet":          d.presentCodeRedemptionSheet,
		"identify":                            d.identify,
		"setDefinedProperty":                  d.setDefinedProperty,
		"setCustomProperty":                   d.setCustomProperty,
		"logout":                              d.logout,
		"addAttributionData":                  d.addAttributionData,
		"setAppleSearchAdsAttributionEnabled": d.setAppleSearchAdsAttributionEnabled,
		"setAdvertisingId":                    d.setAdvertisingID,
		"setNotificationToken":                d.setNotificationToken,
		"handleNotification":                  d.handleNotification,
	}

	return d
}

// Methods returns the names Invoke accepts, sorted.
func (d *Dispatcher) Methods() []string {
	methods := make([]string, 0, len(d.handlers))
	for method := range d.handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return methods
}

func (d *Dispatcher) Invoke(ctx context.Context, method string, args bridge.Map) (bridge.Map, error) {
	h, ok := d.handlers[method]
	if !ok {
		invocationsTotal.WithLabelValues(method, outcomeUnknownMethod).Inc()
		return nil, errors.Wrap(ErrUnknownMethod, method)
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	if args == nil {
		args = bridge.Map{}
	}

	log := d.log.With(zap.String("method", method))

	start := time.Now()
	result, err := h(ctx, args)
	invocationDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())

	outcome := outcomeOf(err)
	invocationsTotal.WithLabelValues(method, outcome).Inc()

	switch outcome {
	case outcomeSuccess:
		log.Debug("Invoked")
	case outcomeSDKError:
		log.Debug("SDK call failed", zap.Error(err))
	default:
		log.Warn("Failed to invoke", zap.String("outcome", outcome), zap.Error(err))
	}

	if err != nil {
		return nil, err
	}
	return result, nil
}

// await issues a completion-based call and blocks until it completes or ctx
// is done. A completion arriving after ctx is done is dropped.
func await(ctx context.Context, call func(sandwich.Completion)) (bridge.Map, error) {
	type outcome struct {
		result bridge.Map
		err    *sandwich.Error
	}

	ch := make(chan outcome, 1)
	call(func(result bridge.Map, err *sandwich.Error) {
		select {
		case ch <- outcome{result: result, err: err}:
		default:
		}
	})

	select {
	case o := <-ch:
		if o.err != nil {
			return nil, o.err
		}
		if o.result == nil {
			return bridge.Map{}, nil
		}
		return o.result, nil
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "completion not delivered")
	}
}

func (d *Dispatcher) launch(ctx context.Context, args bridge.Map) (bridge.Map, error) {
	projectKey, err := stringArg(args, "projectKey")
	if err != nil {
		return nil, err
	}
	observeMode, err := optionalBoolArg(args, "observeMode")
	if err != nil {
		return nil, err
	}

	return await(ctx, func(c sandwich.Completion) {
		d.sandwich.Launch(projectKey, observeMode, c)
	})
}

func (d *Dispatcher) storeSdkInfo(ctx context.Context, args bridge.Map) (bridge.Map, error) {
	source, err := stringArg(args, "source")
	if err != nil {
		return nil, err
	}
	version, err := stringArg(args, "version")
	if err != nil {
		return nil, err
	}

	if err := d.sandwich.StoreSdkInfo(ctx, source, version); err != nil {
		return nil, errors.Wrap(err, "failed to store sdk info")
	}
	return bridge.Map{}, nil
}

func (d *Dispatcher) setDebugMode(_ context.Context, _ bridge.Map) (bridge.Map, error) {
	d.sandwich.SetDebugMode()
	return bridge.Map{}, nil
}

func (d *Dispatcher) purchase(ctx context.Context, args bridge.Map) (bridge.Map, error) {
	productID, err := stringArg(args, "productId")
	if err != nil {
		return nil, err
	}

	return await(ctx, func(c sandwich.Completion) {
		d.sandwich.Purchase(productID, c)
	})
}

func (d *Dispatcher) purchaseProduct(ctx context.Context, args bridge.Map) (bridge.Map, error) {
	productID, err := stringArg(args, "productId")
	if err != nil {
		return nil, err
	}
	offeringID, err := stringArg(args, "offeringId")
	if err != nil {
		return nil, err
	}

	return await(ctx, func(c sandwich.Completion) {
		d.sandwich.PurchaseProduct(productID, offeringID, c)
	})
}

func (d *Dispatcher) promoPurchase(ctx context.Context, args bridge.Map) (bridge.Map, error) {
	productID, err := stringArg(args, "productId")
	if err != nil {
		return nil, err
	}

	return await(ctx, func(c sandwich.Completion) {
		d.sandwich.PromoPurchase(productID, c)
	})
}

func (d *Dispatcher) checkPermissions(ctx context.Context, _ bridge.Map) (bridge.Map, error) {
	return await(ctx, d.sandwich.CheckPermissions)
}

func (d *Dispatcher) restore(ctx context.Context, _ bridge.Map) (bridge.Map, error) {
	return await(ctx, d.sandwich.Restore)
}

func (d *Dispatcher) offerings(ctx context.Context, _ bridge.Map) (bridge.Map, error) {
	return await(ctx, d.sandwich.Offerings)
}

func (d *Dispatcher) products(ctx context.Context, _ bridge.Map) (bridge.Map, error) {
	return await(ctx, d.sandwich.Products)
}

func (d *Dispatcher) checkTrialIntroEligibility(ctx context.Context, args bridge.Map) (bridge.Map, error) {
	ids, err := stringsArg(args, "ids")
	if err != nil {
		return nil, err
	}

	return await(ctx, func(c sandwich.Completion) {
		d.sandwich.CheckTrialIntroEligibility(ids, c)
	})
}

func (d *Dispatcher) experiments(ctx context.Context, _ bridge.Map) (bridge.Map, error) {
	return await(ctx, d.sandwich.Experiments)
}

func (d *Dispatcher) presentCodeRedemptionSheet(_ context.Context, _ bridge.Map) (bridge.Map, error) {
	d.sandwich.PresentCodeRedemptionSheet()
	return bridge.Map{}, nil
}

func (d *Dispatcher) identify(_ context.Context, args bridge.Map) (bridge.Map, error) {
	userID, err := stringArg(args, "userId")
	if err != nil {
		return nil, err
	}

	d.sandwich.Identify(userID)
	return bridge.Map{}, nil
}

func (d *Dispatcher) setDefinedProperty(_ context.Context, args bridge.Map) (bridge.Map, error) {
	property, value, err := propertyArgs(args)
	if err != nil {
		return nil, err
	}

	d.sandwich.SetDefinedProperty(property, value)
	return bridge.Map{}, nil
}

func (d *Dispatcher) setCustomProperty(_ context.Context, args bridge.Map) (bridge.Map, error) {
	property, value, err := propertyArgs(args)
	if err != nil {
		return nil, err
	}

	d.sandwich.SetCustomProperty(property, value)
	return bridge.Map{}, nil
}

func propertyArgs(args bridge.Map) (string, string, error) {
	property, err := stringArg(args, "property")
	if err != nil {
		return "", "", err
	}
	value, err := stringArg(args, "value")
	if err != nil {
		return "", "", err
	}
	return property, value, nil
}

func (d *Dispatcher) logout(_ context.Context, _ bridge.Map) (bridge.Map, error) {
	d.sandwich.Logout()
	return bridge.Map{}, nil
}

func (d *Dispatcher) addAttributionData(_ context.Context, args bridge.Map) (bridge.Map, error) {
	provider, err := stringArg(args, "provider")
	if err != nil {
		return nil, err
	}
	data, err := mapArg(args, "data")
	if err != nil {
		return nil, err
	}

	d.sandwich.AddAttributionData(provider, data)
	return bridge.Map{}, nil
}

func (d *Dispatcher) setAppleSearchAdsAttributionEnabled(_ context.Context, args bridge.Map) (bridge.Map, error) {
	enabled, err := boolArg(args, "enabled")
	if err != nil {
		return nil, err
	}

	d.sandwich.SetAppleSearchAdsAttributionEnabled(enabled)
	return bridge.Map{}, nil
}

func (d *Dispatcher) setAdvertisingID(_ context.Context, _ bridge.Map) (bridge.Map, error) {
	d.sandwich.SetAdvertisingID()
	return bridge.Map{}, nil
}

func (d *Dispatcher) setNotificationToken(_ context.Context, args bridge.Map) (bridge.Map, error) {
	token, err := stringArg(args, "token")
	if err != nil {
		return nil, err
	}

	d.sandwich.SetNotificationToken(token)
	return bridge.Map{}, nil
}

func (d *Dispatcher) handleNotification(_ context.Context, args bridge.Map) (bridge.Map, error) {
	payload, err := mapArg(args, "notificationData")
	if err != nil {
		return nil, err
	}

	return bridge.Map{"handled": d.sandwich.HandleNotification(payload)}, nil
}
