package checkout

import (
	"errors"
	"time"

	"github.com/devdazzlee/southen-sweet-sub000/internal/domain"
)

var ErrEmptyCart = errors.New("cart is empty, nothing to checkout")

type SnapshotItem struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Subtotal    float64 `json:"subtotal"`
	Color       string  `json:"color,omitempty"`
}

// Snapshot represents the full cart state at checkout time.
type Snapshot struct {
	Items      []SnapshotItem `json:"items"`
	Totals     domain.Totals  `json:"totals"`
	Currency   string         `json:"currency"`
	CapturedAt time.Time      `json:"captured_at"`
}

// OrderRequest is the payload sent to the order-creation endpoint.
type OrderRequest struct {
	SessionID      string                `json:"session_id"`
	IdempotencyKey string                `json:"idempotency_key"`
	Snapshot       Snapshot              `json:"snapshot"`
	ShippingOption domain.ShippingOption `json:"shipping_option"`
	DiscountCode   string                `json:"discount_code,omitempty"`
}

// OrderRef is the created order reference handed to the payment flow.
type OrderRef struct {
	OrderID     string  `json:"order_id"`
	OrderNumber string  `json:"order_number,omitempty"`
	Total       float64 `json:"total"`
	PaymentURL  string  `json:"payment_url,omitempty"`
}

// BuildSnapshot normalizes the cart into the order payload shape. The totals
// are recomputed here so the submitted amounts always match the item lines.
func BuildSnapshot(cart *domain.Cart, shipping domain.ShippingOption, discount *domain.Discount, opts domain.TotalsOptions) (*Snapshot, error) {
	if cart == nil || len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	items := make([]SnapshotItem, len(cart.Items))
	for i, item := range cart.Items {
		items[i] = SnapshotItem{
			ProductID:   item.ProductID,
			ProductName: item.Name,
			Quantity:    item.Quantity,
			UnitPrice:   item.CurrentPrice,
			Subtotal:    item.CurrentPrice * float64(item.Quantity),
			Color:       item.Color,
		}
	}

	return &Snapshot{
		Items:      items,
		Totals:     domain.ComputeTotals(cart.Items, shipping, discount, opts),
		Currency:   "USD",
		CapturedAt: time.Now(),
	}, nil
}
