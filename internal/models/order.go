package models

import "time"

// Order is an immutable snapshot of a placed order as supplied by the
// ingestion collaborator. The engine never mutates orders.
type Order struct {
	ID         string     `json:"id"`
	TotalPrice float64    `json:"total_price"`
	Currency   string     `json:"currency"`
	CreatedAt  time.Time  `json:"created_at"`
	LineItems  []LineItem `json:"line_items"`
}

type LineItem struct {
	ProductID    string  `json:"product_id"`
	ProductTitle string  `json:"product_title"`
	Quantity     int     `json:"quantity"`
	UnitPrice    float64 `json:"unit_price"`
}

// DistinctProducts returns the unique product ids of an order, preserving
// first-seen order. Repeated line items for the same product count once.
func (o *Order) DistinctProducts() []string {
	seen := make(map[string]struct{}, len(o.LineItems))
	var ids []string
	for _, item := range o.LineItems {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}

// Validate checks the malformed-input conditions that abort an analysis run.
// Degenerate but well-formed orders (zero total, no line items) pass.
func (o *Order) Validate() error {
	if o.ID == "" {
		return &InputError{Reason: "order is missing an id"}
	}
	if o.TotalPrice < 0 {
		return &InputError{OrderID: o.ID, Reason: "order has a negative total price"}
	}
	for _, item := range o.LineItems {
		if item.ProductID == "" {
			return &InputError{OrderID: o.ID, Reason: "line item is missing a product id"}
		}
		if item.Quantity <= 0 {
			return &InputError{OrderID: o.ID, Reason: "line item quantity must be positive"}
		}
		if item.UnitPrice < 0 {
			return &InputError{OrderID: o.ID, Reason: "line item has a negative unit price"}
		}
	}
	return nil
}

// ValidateOrders runs Validate over a whole snapshot, failing on the first
// malformed record so callers can surface the offending order.
func ValidateOrders(orders []Order) error {
	for i := range orders {
		if err := orders[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}
