package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"retail-assistant/internal/domain"
)

const orderSelect = `SELECT o.order_id, o.customer_id, o.order_date, o.required_date, o.shipped_date,
	COALESCE(sh.company_name, ''), COALESCE(o.freight, 0), COALESCE(f.tracking_number, '')
	FROM orders o
	LEFT JOIN shippers sh ON sh.shipper_id = o.ship_via
	LEFT JOIN order_fulfillments f ON f.order_id = o.order_id`

// GetOrdersByCustomer returns the customer's orders, newest first, with
// their lines and status history.
func (s *Store) GetOrdersByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	orders, err := s.queryOrders(ctx, orderSelect+`
	WHERE o.customer_id = $1
	ORDER BY o.order_date DESC NULLS LAST, o.order_id DESC`, customerID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list orders: %w", err)
	}
	if err := s.loadOrderChildren(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetOrderByID returns nil when the order does not exist or belongs to
// another customer.
func (s *Store) GetOrderByID(ctx context.Context, orderID int, customerID string) (*domain.Order, error) {
	orders, err := s.queryOrders(ctx, orderSelect+`
	WHERE o.order_id = $1 AND o.customer_id = $2`, orderID, customerID)
	if err != nil {
		return nil, fmt.Errorf("postgres: get order %d: %w", orderID, err)
	}
	if len(orders) == 0 {
		return nil, nil
	}
	if err := s.loadOrderChildren(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (s *Store) queryOrders(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		var o domain.Order
		var ordered, required, shipped sql.NullTime
		if err := rows.Scan(&o.ID, &o.CustomerID, &ordered, &required, &shipped,
			&o.ShipperName, &o.Freight, &o.TrackingNumber); err != nil {
			return nil, err
		}
		o.OrderDate = ordered.Time
		o.RequiredDate = required.Time
		o.ShippedDate = shipped.Time
		out = append(out, o)
	}
	return out, rows.Err()
}

// loadOrderChildren fills details and status history for all orders with one
// query per child table.
func (s *Store) loadOrderChildren(ctx context.Context, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]int64, len(orders))
	index := make(map[int]int, len(orders))
	for i, o := range orders {
		ids[i] = int64(o.ID)
		index[o.ID] = i
	}

	rows, err := s.db.QueryContext(ctx, `SELECT d.order_id, d.product_id, COALESCE(p.product_name, ''), d.unit_price, d.quantity, d.discount
	FROM order_details d
	LEFT JOIN products p ON p.product_id = d.product_id
	WHERE d.order_id = ANY($1)
	ORDER BY d.order_id, d.product_id`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("postgres: load order details: %w", err)
	}
	for rows.Next() {
		var orderID int
		var d domain.OrderDetail
		if err := rows.Scan(&orderID, &d.ProductID, &d.ProductName, &d.UnitPrice, &d.Quantity, &d.Discount); err != nil {
			rows.Close()
			return fmt.Errorf("postgres: scan order detail: %w", err)
		}
		if i, ok := index[orderID]; ok {
			orders[i].Details = append(orders[i].Details, d)
		}
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return fmt.Errorf("postgres: load order details: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, `SELECT order_id, status, changed_at, COALESCE(comment, '')
	FROM order_status_history
	WHERE order_id = ANY($1)
	ORDER BY order_id, changed_at`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("postgres: load status history: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var orderID, status int
		var h domain.StatusChange
		if err := rows.Scan(&orderID, &status, &h.ChangedAt, &h.Comment); err != nil {
			return fmt.Errorf("postgres: scan status change: %w", err)
		}
		h.Status = domain.OrderStatus(status)
		if i, ok := index[orderID]; ok {
			orders[i].StatusHistory = append(orders[i].StatusHistory, h)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("postgres: load status history: %w", err)
	}
	return nil
}
