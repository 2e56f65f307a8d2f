package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOrder_CurrentStatus_DefaultsToSubmitted(t *testing.T) {
	require.Equal(t, OrderSubmitted, Order{}.CurrentStatus())
}

func TestOrder_CurrentStatus_UsesLatestChange(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	o := Order{StatusHistory: []StatusChange{
		{Status: OrderApproved, ChangedAt: base.Add(time.Hour)},
		{Status: OrderShipped, ChangedAt: base.Add(3 * time.Hour)},
		{Status: OrderPicking, ChangedAt: base.Add(2 * time.Hour)},
	}}
	require.Equal(t, OrderShipped, o.CurrentStatus())
	require.Equal(t, "Shipped", o.CurrentStatus().String())
}

func TestOrder_TotalIncludesFreightAndDiscount(t *testing.T) {
	o := Order{
		Freight: 5,
		Details: []OrderDetail{
			{UnitPrice: 10, Quantity: 2},
			{UnitPrice: 20, Quantity: 1, Discount: 0.5},
		},
	}
	require.InDelta(t, 30.0, o.SubTotal(), 1e-9)
	require.InDelta(t, 35.0, o.Total(), 1e-9)
	require.Equal(t, 2, o.ItemCount())
}

func TestSortOrdersNewestFirst(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	orders := []Order{
		{ID: 1, OrderDate: base},
		{ID: 2},
		{ID: 3, OrderDate: base.AddDate(0, 0, 2)},
		{ID: 4, OrderDate: base.AddDate(0, 0, 1)},
	}
	SortOrdersNewestFirst(orders)

	ids := make([]int, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	require.Equal(t, []int{3, 4, 1, 2}, ids)
}

func TestCart_IsEmpty(t *testing.T) {
	var nilCart *Cart
	require.True(t, nilCart.IsEmpty())
	require.True(t, (&Cart{}).IsEmpty())
	require.False(t, (&Cart{Lines: []CartLine{{ID: 1}}}).IsEmpty())
}
