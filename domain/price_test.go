package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputePrice_DirectBuy(t *testing.T) {
	items := []CartLineItem{
		{ProductID: 1, ProductName: "빈티지 책상", UnitPrice: 50000, Quantity: 2},
	}

	breakdown := ComputePrice(items, 3000)

	assert.Equal(t, int64(100000), breakdown.ItemsTotal)
	assert.Equal(t, int64(3000), breakdown.DeliveryFee)
	assert.Equal(t, int64(103000), breakdown.FinalAmount)
}

func TestComputePrice_CartWithTwoItems(t *testing.T) {
	items := []CartLineItem{
		{ProductID: 1, ProductName: "의자", UnitPrice: 30000, Quantity: 1},
		{ProductID: 2, ProductName: "조명", UnitPrice: 20000, Quantity: 3},
	}

	breakdown := ComputePrice(items, 3000)

	assert.Equal(t, int64(90000), breakdown.ItemsTotal)
	assert.Equal(t, int64(93000), breakdown.FinalAmount)
}

func TestComputePrice_EmptyItems(t *testing.T) {
	breakdown := ComputePrice(nil, 3000)

	assert.Equal(t, int64(0), breakdown.ItemsTotal)
	assert.Equal(t, int64(3000), breakdown.FinalAmount)
}
