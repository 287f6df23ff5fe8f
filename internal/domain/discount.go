package domain

import "time"

// Discount is a validated promotional code application. The discount amount
// is computed server-side against the subtotal the code was validated with
// and trusted as-is.
type Discount struct {
	Code           string    `json:"code"`
	Name           string    `json:"name"`
	DiscountAmount float64   `json:"discountAmount"`
	MinimumAmount  float64   `json:"minimumAmount,omitempty"`
	MaximumAmount  float64   `json:"maximumDiscount,omitempty"`
	ValidatedWith  float64   `json:"-"`
	ValidatedAt    time.Time `json:"-"`
}
