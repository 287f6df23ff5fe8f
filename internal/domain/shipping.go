package domain

// ShippingOption is one of the closed set of fixed-cost delivery methods
// used for checkout total display. There is no live carrier-rate lookup on
// this path.
type ShippingOption string

const (
	ShippingFree   ShippingOption = "free"
	ShippingFlat   ShippingOption = "flat"
	ShippingPickup ShippingOption = "pickup"
)

const flatRateCost = 8.00

// Cost returns the fixed cost for the option. Unknown options cost nothing,
// matching the free default.
func (s ShippingOption) Cost() float64 {
	if s == ShippingFlat {
		return flatRateCost
	}
	return 0
}

// Valid reports whether s is a member of the closed enumeration.
func (s ShippingOption) Valid() bool {
	switch s {
	case ShippingFree, ShippingFlat, ShippingPickup:
		return true
	}
	return false
}

func (s ShippingOption) String() string {
	return string(s)
}
