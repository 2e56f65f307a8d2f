package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"retail-assistant/internal/domain"
)

// GetCart returns nil when the customer has no cart header.
func (s *Store) GetCart(ctx context.Context, customerID string) (*domain.Cart, error) {
	var cart domain.Cart
	err := s.db.QueryRowContext(ctx,
		"SELECT cart_header_id FROM cart_headers WHERE customer_id = $1",
		customerID).Scan(&cart.HeaderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get cart header: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT l.cart_line_id, l.product_id, p.product_name, l.quantity, l.unit_price,
	p.discontinued, COALESCE(p.units_in_stock, 0)
	FROM cart_lines l
	JOIN products p ON p.product_id = l.product_id
	WHERE l.cart_header_id = $1
	ORDER BY l.cart_line_id`, cart.HeaderID)
	if err != nil {
		return nil, fmt.Errorf("postgres: get cart lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l domain.CartLine
		if err := rows.Scan(&l.ID, &l.ProductID, &l.ProductName, &l.Quantity, &l.UnitPrice,
			&l.Discontinued, &l.UnitsInStock); err != nil {
			return nil, fmt.Errorf("postgres: scan cart line: %w", err)
		}
		cart.Lines = append(cart.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: get cart lines: %w", err)
	}
	return &cart, nil
}

// AddToCart adds quantity units of a product to the customer's cart, creating
// the cart when needed. An existing line for the product is incremented. It
// reports false without error when the quantity is not positive or the
// product is missing or discontinued.
func (s *Store) AddToCart(ctx context.Context, customerID string, productID, quantity int) (bool, error) {
	if quantity <= 0 {
		return false, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("postgres: begin add to cart: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var price float64
	var discontinued bool
	err = tx.QueryRowContext(ctx,
		"SELECT COALESCE(unit_price, 0), discontinued FROM products WHERE product_id = $1",
		productID).Scan(&price, &discontinued)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("postgres: load product %d: %w", productID, err)
	}
	if discontinued {
		return false, nil
	}

	var headerID int
	err = tx.QueryRowContext(ctx, `INSERT INTO cart_headers (customer_id, created_at, updated_at)
	VALUES ($1, NOW(), NOW())
	ON CONFLICT (customer_id) DO UPDATE SET updated_at = NOW()
	RETURNING cart_header_id`, customerID).Scan(&headerID)
	if err != nil {
		return false, fmt.Errorf("postgres: upsert cart header: %w", err)
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO cart_lines (cart_header_id, product_id, quantity, unit_price)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (cart_header_id, product_id) DO UPDATE SET quantity = cart_lines.quantity + EXCLUDED.quantity`,
		headerID, productID, quantity, price)
	if err != nil {
		return false, fmt.Errorf("postgres: upsert cart line: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("postgres: commit add to cart: %w", err)
	}
	return true, nil
}

// UpdateQuantity sets the quantity of a cart line. It reports false when the
// quantity is not positive or the line is not in the customer's cart.
func (s *Store) UpdateQuantity(ctx context.Context, customerID string, lineID, quantity int) (bool, error) {
	if quantity <= 0 {
		return false, nil
	}
	res, err := s.db.ExecContext(ctx, `UPDATE cart_lines l SET quantity = $1
	FROM cart_headers h
	WHERE l.cart_line_id = $2 AND l.cart_header_id = h.cart_header_id AND h.customer_id = $3`,
		quantity, lineID, customerID)
	if err != nil {
		return false, fmt.Errorf("postgres: update cart line %d: %w", lineID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("postgres: update cart line %d: %w", lineID, err)
	}
	return n == 1, nil
}
