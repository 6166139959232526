package domain

// PriceBreakdown is derived state, recomputed whenever the context changes.
// Amounts are integer KRW.
type PriceBreakdown struct {
	ItemsTotal  int64 `json:"items_total"`
	DeliveryFee int64 `json:"delivery_fee"`
	FinalAmount int64 `json:"final_amount"`
}

// ComputePrice sums line subtotals and adds the flat delivery fee. The fee
// does not depend on item count or destination.
func ComputePrice(items []CartLineItem, deliveryFee int64) PriceBreakdown {
	var total int64
	for _, item := range items {
		total += item.Subtotal()
	}
	return PriceBreakdown{
		ItemsTotal:  total,
		DeliveryFee: deliveryFee,
		FinalAmount: total + deliveryFee,
	}
}
