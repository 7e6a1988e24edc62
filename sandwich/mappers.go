package sandwich

import (
	"time"

	"golang.org/x/text/currency"

	"github.com/code-payments/iap-sandwich/bridge"
	"github.com/code-payments/iap-sandwich/sdk"
)

// Mapper converts SDK entities into bridge Maps. Every method is pure and
// returns a cleaned Map; a nil entity converts to an empty Map.
//
// Only store product metadata depends on the capabilities, but products and
// everything containing them go through the Mapper so the flags apply at
// every depth.
type Mapper struct {
	caps Capabilities
}

func NewMapper(caps Capabilities) Mapper {
	return Mapper{caps: caps}
}

// ToMilliseconds converts t to whole milliseconds since the Unix epoch.
func ToMilliseconds(t time.Time) int64 {
	return t.UnixMilli()
}

func (m Mapper) LaunchResult(r *sdk.LaunchResult) bridge.Map {
	if r == nil {
		return bridge.Map{}
	}

	return bridge.Map{
		"uid":          r.UID,
		"timestamp":    ToMilliseconds(r.Timestamp),
		"products":     m.Products(r.Products),
		"permissions":  Permissions(r.Permissions),
		"userProducts": m.Products(r.UserProducts),
	}.Clean()
}

func (m Mapper) Products(products map[string]*sdk.Product) bridge.Map {
	out := make(bridge.Map, len(products))
	for id, product := range products {
		out[id] = m.Product(product)
	}
	return out
}

func (m Mapper) Product(p *sdk.Product) bridge.Map {
	if p == nil {
		return bridge.Map{}
	}

	return bridge.Map{
		"id":            p.QonversionID,
		"storeId":       p.StoreID,
		"type":          int(p.Type),
		"duration":      int(p.Duration),
		"skProduct":     optional(p.StoreProduct, m.StoreProduct),
		"prettyPrice":   p.PrettyPrice,
		"trialDuration": int(p.TrialDuration),
		"offeringId":    p.OfferingID,
	}.Clean()
}

func Permissions(permissions map[string]*sdk.Permission) bridge.Map {
	out := make(bridge.Map, len(permissions))
	for id, permission := range permissions {
		out[id] = Permission(permission)
	}
	return out
}

func Permission(p *sdk.Permission) bridge.Map {
	if p == nil {
		return bridge.Map{}
	}

	var expiration any
	if p.ExpirationDate != nil {
		expiration = ToMilliseconds(*p.ExpirationDate)
	}

	return bridge.Map{
		"id":                  p.PermissionID,
		"associatedProduct":   p.ProductID,
		"renewState":          int(p.RenewState),
		"startedTimestamp":    ToMilliseconds(p.StartedDate),
		"expirationTimestamp": expiration,
		"active":              p.IsActive,
	}.Clean()
}

func (m Mapper) Offerings(o *sdk.Offerings) bridge.Map {
	if o == nil {
		return bridge.Map{}
	}

	available := make([]any, 0, len(o.AvailableOfferings))
	for _, offering := range o.AvailableOfferings {
		available = append(available, m.Offering(offering))
	}

	return bridge.Map{
		"main":               optional(o.Main, m.Offering),
		"availableOfferings": available,
	}.Clean()
}

func (m Mapper) Offering(o *sdk.Offering) bridge.Map {
	if o == nil {
		return bridge.Map{}
	}

	products := make([]any, 0, len(o.Products))
	for _, product := range o.Products {
		products = append(products, m.Product(product))
	}

	return bridge.Map{
		"id":       o.Identifier,
		"tag":      int(o.Tag),
		"products": products,
	}.Clean()
}

func Eligibilities(eligibilities map[string]*sdk.IntroEligibility) bridge.Map {
	out := make(bridge.Map, len(eligibilities))
	for id, eligibility := range eligibilities {
		out[id] = IntroEligibility(eligibility)
	}
	return out
}

func IntroEligibility(e *sdk.IntroEligibility) bridge.Map {
	if e == nil {
		return bridge.Map{}
	}
	return bridge.Map{"status": int(e.Status)}
}

func Experiments(experiments map[string]*sdk.ExperimentInfo) bridge.Map {
	out := make(bridge.Map, len(experiments))
	for id, experiment := range experiments {
		out[id] = ExperimentInfo(experiment)
	}
	return out
}

func ExperimentInfo(e *sdk.ExperimentInfo) bridge.Map {
	if e == nil {
		return bridge.Map{}
	}

	var groupType any
	if e.Group != nil {
		groupType = int(e.Group.Type)
	}

	return bridge.Map{
		"id":    e.Identifier,
		"group": bridge.Map{"type": groupType},
	}.Clean()
}

func (m Mapper) StoreProduct(p *sdk.StoreProduct) bridge.Map {
	if p == nil {
		return bridge.Map{}
	}

	lengths := make([]any, len(p.DownloadContentLengths))
	for i, l := range p.DownloadContentLengths {
		lengths[i] = l
	}

	out := bridge.Map{
		"localizedDescription":   p.LocalizedDescription,
		"localizedTitle":         p.LocalizedTitle,
		"productIdentifier":      p.ProductIdentifier,
		"price":                  p.Price.String(),
		"priceLocale":            Locale(p.PriceLocale),
		"isDownloadable":         p.IsDownloadable,
		"downloadContentVersion": p.DownloadContentVersion,
		"downloadContentLengths": lengths,
	}

	if m.caps.SubscriptionPeriod {
		out["subscriptionPeriod"] = optional(p.SubscriptionPeriod, SubscriptionPeriod)
	}
	if m.caps.IntroductoryPrice {
		out["introductoryPrice"] = optional(p.IntroductoryPrice, m.Discount)
	}
	if m.caps.Discounts {
		discounts := make([]any, 0, len(p.Discounts))
		for _, discount := range p.Discounts {
			discounts = append(discounts, m.Discount(discount))
		}
		out["discounts"] = discounts
	}
	if m.caps.SubscriptionGroup && p.SubscriptionGroupIdentifier != nil {
		out["subscriptionGroupIdentifier"] = *p.SubscriptionGroupIdentifier
	}
	if m.caps.FamilyShareable {
		out["isFamilyShareable"] = p.IsFamilyShareable
	}

	return out.Clean()
}

func (m Mapper) Discount(d *sdk.ProductDiscount) bridge.Map {
	if d == nil {
		return bridge.Map{}
	}

	out := bridge.Map{
		"price":              d.Price.String(),
		"numberOfPeriods":    d.NumberOfPeriods,
		"subscriptionPeriod": SubscriptionPeriod(&d.SubscriptionPeriod),
		"paymentMode":        int(d.PaymentMode),
		"priceLocale":        Locale(d.PriceLocale),
	}

	if m.caps.DiscountDetails {
		out["type"] = int(d.Type)
		if d.Identifier != nil {
			out["identifier"] = *d.Identifier
		}
	}

	return out.Clean()
}

func SubscriptionPeriod(p *sdk.SubscriptionPeriod) bridge.Map {
	if p == nil {
		return bridge.Map{}
	}

	return bridge.Map{
		"numberOfUnits": p.NumberOfUnits,
		"unit":          int(p.Unit),
	}
}

func Locale(l sdk.Locale) bridge.Map {
	var code any
	if l.Currency != (currency.Unit{}) {
		code = l.Currency.String()
	}

	return bridge.Map{
		"currencySymbol":   optionalString(l.CurrencySymbol),
		"currencyCode":     code,
		"localeIdentifier": l.Tag.String(),
	}.Clean()
}

func ActionResult(r *sdk.ActionResult) bridge.Map {
	if r == nil {
		return bridge.Map{}
	}

	var value any
	if r.Parameters != nil {
		params := make(bridge.Map, len(r.Parameters))
		for k, v := range r.Parameters {
			params[k] = v
		}
		value = params
	}

	return bridge.Map{
		"type":  ActionResultTypeString(r.Type),
		"value": value,
		"error": nativeErrorMap(r.Err),
	}.Clean()
}

func AutomationEvent(e *sdk.AutomationEvent) bridge.Map {
	if e == nil {
		return bridge.Map{}
	}

	return bridge.Map{
		"type":      AutomationsEventTypeString(e.Type),
		"timestamp": ToMilliseconds(e.Date),
	}
}

// optional converts v, or yields an absent value when v is nil.
func optional[T any](v *T, convert func(*T) bridge.Map) any {
	if v == nil {
		return nil
	}
	return convert(v)
}
