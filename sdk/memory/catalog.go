package memory

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/code-payments/iap-sandwich/sdk"
)

// USLocale is the price locale of the default catalog.
var USLocale = sdk.Locale{
	Tag:            language.AmericanEnglish,
	Currency:       currency.USD,
	CurrencySymbol: "$",
}

// PrettyPrice formats price the way the store displays it for locale.
func PrettyPrice(price decimal.Decimal, locale sdk.Locale) string {
	p := message.NewPrinter(locale.Tag)
	return p.Sprintf("%s%v", locale.CurrencySymbol, number.Decimal(price.InexactFloat64(), number.Scale(2)))
}

// NewStoreProduct builds store metadata for a subscription or one-time
// product. A nil period marks a one-time product.
func NewStoreProduct(id, title string, price decimal.Decimal, period *sdk.SubscriptionPeriod) *sdk.StoreProduct {
	return &sdk.StoreProduct{
		LocalizedDescription:   title,
		LocalizedTitle:         title,
		ProductIdentifier:      id,
		Price:                  price,
		PriceLocale:            USLocale,
		DownloadContentLengths: []int64{},
		SubscriptionPeriod:     period,
		Discounts:              []*sdk.ProductDiscount{},
	}
}

// DefaultCatalog is a small catalog with one subscription with a free trial,
// one lifetime product and a main offering containing both.
func DefaultCatalog() Catalog {
	weeklyPrice := decimal.RequireFromString("4.99")
	weeklyStore := NewStoreProduct("io.sandwich.weekly", "Weekly", weeklyPrice, &sdk.SubscriptionPeriod{
		NumberOfUnits: 1,
		Unit:          sdk.PeriodUnitWeek,
	})
	weeklyStore.IntroductoryPrice = &sdk.ProductDiscount{
		Price:              decimal.Zero,
		NumberOfPeriods:    1,
		SubscriptionPeriod: sdk.SubscriptionPeriod{NumberOfUnits: 3, Unit: sdk.PeriodUnitDay},
		PaymentMode:        sdk.PaymentModeFreeTrial,
		PriceLocale:        USLocale,
		Type:               sdk.DiscountTypeIntroductory,
	}
	group := "premium"
	weeklyStore.SubscriptionGroupIdentifier = &group

	weekly := &sdk.Product{
		QonversionID:  "weekly",
		StoreID:       weeklyStore.ProductIdentifier,
		Type:          sdk.ProductTypeTrial,
		Duration:      sdk.ProductDurationWeekly,
		TrialDuration: sdk.TrialDurationThreeDays,
		PrettyPrice:   PrettyPrice(weeklyPrice, USLocale),
		OfferingID:    "main",
		StoreProduct:  weeklyStore,
	}

	lifetimePrice := decimal.RequireFromString("49.99")
	lifetime := &sdk.Product{
		QonversionID:  "lifetime",
		StoreID:       "io.sandwich.lifetime",
		Type:          sdk.ProductTypeOneTime,
		Duration:      sdk.ProductDurationLifetime,
		TrialDuration: sdk.TrialDurationNotAvailable,
		PrettyPrice:   PrettyPrice(lifetimePrice, USLocale),
		OfferingID:    "main",
		StoreProduct:  NewStoreProduct("io.sandwich.lifetime", "Lifetime", lifetimePrice, nil),
	}

	mainOffering := &sdk.Offering{
		Identifier: "main",
		Tag:        sdk.OfferingTagMain,
		Products:   []*sdk.Product{weekly, lifetime},
	}

	return Catalog{
		Products: map[string]*sdk.Product{
			weekly.QonversionID:   weekly,
			lifetime.QonversionID: lifetime,
		},
		Offerings: &sdk.Offerings{
			Main:               mainOffering,
			AvailableOfferings: []*sdk.Offering{mainOffering},
		},
		Grants: map[string]string{
			weekly.QonversionID:   "premium",
			lifetime.QonversionID: "premium",
		},
		Eligibility: map[string]sdk.IntroEligibilityStatus{
			weekly.QonversionID:   sdk.IntroEligibilityStatusEligible,
			lifetime.QonversionID: sdk.IntroEligibilityStatusNonIntroProduct,
		},
		Experiments: map[string]*sdk.ExperimentInfo{
			"paywall": {Identifier: "paywall", Group: &sdk.ExperimentGroup{Type: sdk.ExperimentGroupTypeB}},
		},
	}
}
