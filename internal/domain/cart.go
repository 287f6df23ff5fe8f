package domain

import "time"

type Cart struct {
	ID        string     `bson:"_id,omitempty" json:"-"`
	SessionID string     `bson:"session_id" json:"sessionId"`
	Items     []CartItem `bson:"items" json:"items"`
	CreatedAt time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updatedAt"`
}

// CartItem is one product line entry. IDs are issued by the product catalog
// and treated as opaque strings here.
type CartItem struct {
	ProductID     string    `bson:"product_id" json:"productId"`
	Name          string    `bson:"name" json:"name"`
	Description   string    `bson:"description,omitempty" json:"description,omitempty"`
	Image         string    `bson:"image,omitempty" json:"image,omitempty"`
	CurrentPrice  float64   `bson:"current_price" json:"currentPrice"`
	OriginalPrice float64   `bson:"original_price,omitempty" json:"originalPrice,omitempty"`
	PercFirst     int       `bson:"perc_first,omitempty" json:"percFirst,omitempty"`
	Quantity      int       `bson:"quantity" json:"quantity"`
	Selected      bool      `bson:"selected" json:"selected"`
	Color         string    `bson:"color,omitempty" json:"color,omitempty"`
	AddedAt       time.Time `bson:"added_at" json:"addedAt"`
}

// SelectedItems returns the subset of items with the selection flag set.
func (c *Cart) SelectedItems() []CartItem {
	var out []CartItem
	for _, item := range c.Items {
		if item.Selected {
			out = append(out, item)
		}
	}
	return out
}
