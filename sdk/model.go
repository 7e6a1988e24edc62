package sdk

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

type LaunchResult struct {
	UID          string
	Timestamp    time.Time
	Products     map[string]*Product
	Permissions  map[string]*Permission
	UserProducts map[string]*Product
}

type Product struct {
	QonversionID  string
	StoreID       string
	Type          ProductType
	Duration      ProductDuration
	TrialDuration TrialDuration
	PrettyPrice   string
	OfferingID    string

	// StoreProduct is nil until the store has returned product metadata.
	StoreProduct *StoreProduct
}

type Permission struct {
	PermissionID   string
	ProductID      string
	RenewState     PermissionRenewState
	StartedDate    time.Time
	ExpirationDate *time.Time
	IsActive       bool
}

type Offerings struct {
	Main               *Offering
	AvailableOfferings []*Offering
}

// Offering returns the offering with the given identifier, or nil.
func (o *Offerings) Offering(id string) *Offering {
	if o == nil {
		return nil
	}
	for _, offering := range o.AvailableOfferings {
		if offering.Identifier == id {
			return offering
		}
	}
	return nil
}

type Offering struct {
	Identifier string
	Tag        OfferingTag
	Products   []*Product
}

// Product returns the offering's product with the given identifier, or nil.
func (o *Offering) Product(id string) *Product {
	if o == nil {
		return nil
	}
	for _, product := range o.Products {
		if product.QonversionID == id {
			return product
		}
	}
	return nil
}

type IntroEligibility struct {
	Status IntroEligibilityStatus
}

type ExperimentInfo struct {
	Identifier string
	Group      *ExperimentGroup
}

type ExperimentGroup struct {
	Type ExperimentGroupType
}

// StoreProduct is the metadata the platform store returns for a product.
type StoreProduct struct {
	LocalizedDescription   string
	LocalizedTitle         string
	ProductIdentifier      string
	Price                  decimal.Decimal
	PriceLocale            Locale
	IsDownloadable         bool
	DownloadContentVersion string
	DownloadContentLengths []int64

	SubscriptionPeriod          *SubscriptionPeriod
	IntroductoryPrice           *ProductDiscount
	Discounts                   []*ProductDiscount
	SubscriptionGroupIdentifier *string
	IsFamilyShareable           bool
}

type SubscriptionPeriod struct {
	NumberOfUnits int
	Unit          PeriodUnit
}

type ProductDiscount struct {
	Price              decimal.Decimal
	NumberOfPeriods    int
	SubscriptionPeriod SubscriptionPeriod
	PaymentMode        PaymentMode
	PriceLocale        Locale
	Type               DiscountType
	Identifier         *string
}

// Locale describes how a store price is presented. A zero Currency means the
// store did not report one.
type Locale struct {
	Tag            language.Tag
	Currency       currency.Unit
	CurrencySymbol string
}

type ActionResult struct {
	Type       ActionResultType
	Parameters map[string]string
	Err        error
}

type AutomationEvent struct {
	Type AutomationsEventType
	Date time.Time
}
