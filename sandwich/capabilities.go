package sandwich

// Capabilities describes which optional store features the running platform
// supports. Converters omit a gated key entirely when its flag is off.
type Capabilities struct {
	SubscriptionPeriod  bool
	IntroductoryPrice   bool
	Discounts           bool
	DiscountDetails     bool // type and identifier on each discount
	SubscriptionGroup   bool
	FamilyShareable     bool
	CodeRedemptionSheet bool
}

// AllCapabilities enables every optional feature.
func AllCapabilities() Capabilities {
	return Capabilities{
		SubscriptionPeriod:  true,
		IntroductoryPrice:   true,
		Discounts:           true,
		DiscountDetails:     true,
		SubscriptionGroup:   true,
		FamilyShareable:     true,
		CodeRedemptionSheet: true,
	}
}
