package domain

import "math"

// Totals is the derived checkout breakdown. It is recomputed from cart state
// on demand and never stored.
type Totals struct {
	Subtotal     float64 `json:"subtotal"`
	ShippingCost float64 `json:"shippingCost"`
	Discount     float64 `json:"discount"`
	Total        float64 `json:"total"`
}

// TotalsOptions tweak the calculation. Zero value preserves the storefront's
// current behavior: every item counts toward the subtotal regardless of its
// selection flag, and a discount larger than subtotal+shipping drives the
// total negative.
type TotalsOptions struct {
	// SelectedOnly gates the subtotal on the selection flag.
	// TODO: flip the storefront default once product decides whether
	// unselected items should keep inflating the displayed total.
	SelectedOnly bool

	// ClampToZero floors the total at zero when the discount exceeds
	// subtotal plus shipping.
	ClampToZero bool
}

// ComputeTotals derives the checkout totals from the item list, the chosen
// shipping option and the currently applied discount (nil when none).
// Pure function; all monetary results are rounded to cents.
func ComputeTotals(items []CartItem, shipping ShippingOption, discount *Discount, opts TotalsOptions) Totals {
	var subtotal float64
	for _, item := range items {
		if opts.SelectedOnly && !item.Selected {
			continue
		}
		subtotal += item.CurrentPrice * float64(item.Quantity)
	}
	subtotal = roundCents(subtotal)

	var discountAmount float64
	if discount != nil {
		discountAmount = discount.DiscountAmount
	}

	shippingCost := shipping.Cost()
	total := roundCents(subtotal + shippingCost - discountAmount)
	if opts.ClampToZero && total < 0 {
		total = 0
	}

	return Totals{
		Subtotal:     subtotal,
		ShippingCost: shippingCost,
		Discount:     discountAmount,
		Total:        total,
	}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
