package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"retail-assistant/internal/domain"
	"retail-assistant/internal/intent"
)

const (
	dateLayout        = "2006-01-02"
	maxFailedListed   = 3
	noOrdersFragment  = "No orders found matching your request."
	orderNotFoundText = "❌ Order not found. Please check the order number and try again."
)

func (s *ChatService) handleOrderHistory(ctx context.Context, t *turn) (outcome, error) {
	if s.orders == nil {
		return outcome{}, nil
	}
	customerID, frag, err := s.requireCustomer(ctx, t)
	if err != nil || customerID == "" {
		return outcome{fragment: frag}, err
	}

	limit := intent.ExtractLimit(t.text)
	orders, err := s.newestOrders(ctx, customerID)
	if err != nil {
		return outcome{}, err
	}
	if len(orders) == 0 {
		return outcome{fragment: "📦 You don't have any orders yet."}, nil
	}
	if len(orders) > limit {
		orders = orders[:limit]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📦 Here are your last %d order(s):", len(orders))
	for _, o := range orders {
		fmt.Fprintf(&b, "\n\nOrder #%d - %s", o.ID, formatDate(o.OrderDate))
		fmt.Fprintf(&b, "\n  Status: %s", o.CurrentStatus())
		fmt.Fprintf(&b, "\n  Items: %d", o.ItemCount())
		fmt.Fprintf(&b, "\n  Total: $%.2f", o.Total())
		if !o.ShippedDate.IsZero() {
			fmt.Fprintf(&b, "\n  Shipped: %s", formatDate(o.ShippedDate))
		}
		if o.TrackingNumber != "" {
			fmt.Fprintf(&b, "\n  Tracking: %s", o.TrackingNumber)
		}
	}
	return outcome{fragment: b.String()}, nil
}

func (s *ChatService) handleReorder(ctx context.Context, t *turn) (outcome, error) {
	if s.orders == nil || s.cart == nil {
		return outcome{}, nil
	}
	customerID, frag, err := s.requireCustomer(ctx, t)
	if err != nil || customerID == "" {
		return outcome{fragment: frag}, err
	}

	orders, err := s.reorderTargets(ctx, t, customerID)
	if err != nil {
		return outcome{}, err
	}
	if len(orders) == 0 {
		return outcome{fragment: noOrdersFragment}, nil
	}

	added := 0
	var failed []string
	orderIDs := make([]int, 0, len(orders))
	for _, o := range orders {
		orderIDs = append(orderIDs, o.ID)
		for _, d := range o.Details {
			qty := d.Quantity
			if qty <= 0 {
				qty = 1
			}
			if _, err := s.addProductToCart(ctx, customerID, d.ProductID, qty); err != nil {
				if isCancellation(err) {
					return outcome{}, err
				}
				s.log.Warn("reorder line failed", "order_id", o.ID, "product_id", d.ProductID, "err", err)
				failed = append(failed, d.ProductName)
				continue
			}
			added++
		}
	}

	var b strings.Builder
	var effect *sideEffect
	if added > 0 {
		fmt.Fprintf(&b, "✅ Reordered %d item(s) from %d order(s) into your cart.", added, len(orders))
		effect = &sideEffect{
			kind:    domain.ActionItemsReordered,
			message: fmt.Sprintf("%d item(s) reordered", added),
			data:    map[string]any{"count": added, "orderIds": orderIDs},
		}
	} else {
		fmt.Fprintf(&b, "❌ None of the items from %d order(s) could be added back to your cart.", len(orders))
	}
	if len(failed) > 0 {
		shown := failed
		if len(shown) > maxFailedListed {
			shown = shown[:maxFailedListed]
		}
		fmt.Fprintf(&b, "\n⚠️ Could not reorder: %s", strings.Join(shown, ", "))
		if extra := len(failed) - len(shown); extra > 0 {
			fmt.Fprintf(&b, " and %d more", extra)
		}
		b.WriteString(" (may be discontinued or out of stock).")
	}
	return outcome{fragment: b.String(), effect: effect}, nil
}

// reorderTargets picks the orders to reorder: an explicit order id, else the
// orders inside the requested time window, else the most recent order.
func (s *ChatService) reorderTargets(ctx context.Context, t *turn, customerID string) ([]domain.Order, error) {
	if id, ok := intent.ExtractOrderID(t.text); ok {
		o, err := s.ownedOrder(ctx, id, customerID)
		if err != nil || o == nil {
			return nil, err
		}
		return []domain.Order{*o}, nil
	}

	orders, err := s.newestOrders(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if days, ok := intent.ExtractTimeWindowDays(t.text); ok {
		cutoff := t.now.AddDate(0, 0, -days)
		var inWindow []domain.Order
		for _, o := range orders {
			if !o.OrderDate.IsZero() && !o.OrderDate.Before(cutoff) {
				inWindow = append(inWindow, o)
			}
		}
		return inWindow, nil
	}
	if len(orders) == 0 {
		return nil, nil
	}
	return orders[:1], nil
}

func (s *ChatService) handleShippingEstimate(ctx context.Context, t *turn) (outcome, error) {
	if s.orders == nil {
		return outcome{}, nil
	}
	customerID, frag, err := s.requireCustomer(ctx, t)
	if err != nil || customerID == "" {
		return outcome{fragment: frag}, err
	}

	var order *domain.Order
	if id, ok := intent.ExtractOrderID(t.text); ok {
		order, err = s.ownedOrder(ctx, id, customerID)
		if err != nil {
			return outcome{}, err
		}
	} else {
		orders, err := s.newestOrders(ctx, customerID)
		if err != nil {
			return outcome{}, err
		}
		if len(orders) > 0 {
			order = &orders[0]
		}
	}
	if order == nil {
		return outcome{fragment: orderNotFoundText}, nil
	}
	return outcome{fragment: shippingBlock(*order, t.now)}, nil
}

func shippingBlock(o domain.Order, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🚚 Shipping status for order #%d", o.ID)
	fmt.Fprintf(&b, "\nStatus: %s", o.CurrentStatus())
	switch {
	case !o.ShippedDate.IsZero() && !o.RequiredDate.IsZero():
		delta := daysBetween(o.ShippedDate, o.RequiredDate)
		fmt.Fprintf(&b, "\nShipped: %s", formatDate(o.ShippedDate))
		fmt.Fprintf(&b, "\nRequired by: %s (%s)", formatDate(o.RequiredDate), shippedDelta(delta))
	case !o.ShippedDate.IsZero():
		fmt.Fprintf(&b, "\nShipped: %s", formatDate(o.ShippedDate))
	case !o.RequiredDate.IsZero():
		delta := daysBetween(now, o.RequiredDate)
		fmt.Fprintf(&b, "\nRequired by: %s (%s)", formatDate(o.RequiredDate), pendingDelta(delta))
	default:
		b.WriteString("\nEstimated delivery: not yet determined")
	}
	if o.TrackingNumber != "" {
		fmt.Fprintf(&b, "\nTracking number: %s", o.TrackingNumber)
	}
	if o.ShipperName != "" {
		fmt.Fprintf(&b, "\nCarrier: %s", o.ShipperName)
	}
	return b.String()
}

func shippedDelta(days int) string {
	switch {
	case days > 0:
		return fmt.Sprintf("shipped %d day(s) before the required date", days)
	case days < 0:
		return fmt.Sprintf("shipped %d day(s) after the required date", -days)
	default:
		return "shipped on the required date"
	}
}

func pendingDelta(days int) string {
	switch {
	case days > 0:
		return fmt.Sprintf("%d day(s) from now", days)
	case days < 0:
		return fmt.Sprintf("%d day(s) overdue", -days)
	default:
		return "due today"
	}
}

// ownedOrder fetches an order and drops it when it belongs to another
// customer.
func (s *ChatService) ownedOrder(ctx context.Context, orderID int, customerID string) (*domain.Order, error) {
	o, err := s.orders.GetOrderByID(ctx, orderID, customerID)
	if err != nil {
		return nil, fmt.Errorf("usecase: get order %d: %w", orderID, err)
	}
	if o == nil || (o.CustomerID != "" && o.CustomerID != customerID) {
		return nil, nil
	}
	return o, nil
}

// newestOrders returns a copy of the customer's orders, newest first.
func (s *ChatService) newestOrders(ctx context.Context, customerID string) ([]domain.Order, error) {
	orders, err := s.orders.GetOrdersByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("usecase: list orders: %w", err)
	}
	out := make([]domain.Order, len(orders))
	copy(out, orders)
	domain.SortOrdersNewestFirst(out)
	return out, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "unknown date"
	}
	return t.Format(dateLayout)
}

// daysBetween counts calendar days from a to b.
func daysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
