// Package postgres implements the catalog, cart, order and product vector
// stores on a Northwind-shaped PostgreSQL schema.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	"retail-assistant/internal/domain"
)

const defaultPageSize = 10

const productColumns = `p.product_id, p.product_name, COALESCE(p.description, ''), COALESCE(p.category_id, 0),
	COALESCE(c.category_name, ''), COALESCE(s.company_name, ''), COALESCE(p.quantity_per_unit, ''),
	COALESCE(p.unit_price, 0), COALESCE(p.units_in_stock, 0), p.discontinued`

const productJoins = `
	LEFT JOIN categories c ON c.category_id = p.category_id
	LEFT JOIN suppliers s ON s.supplier_id = p.supplier_id`

// Store is the PostgreSQL backend for the assistant. One Store serves the
// catalog, cart, order and vector index roles.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(r rowScanner) (domain.Product, error) {
	var p domain.Product
	err := r.Scan(&p.ID, &p.Name, &p.Description, &p.CategoryID, &p.CategoryName, &p.SupplierName,
		&p.QuantityPerUnit, &p.UnitPrice, &p.UnitsInStock, &p.Discontinued)
	return p, err
}

func (s *Store) queryProducts(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SearchProducts matches the term against product names, case-insensitively.
// Only active, in-stock products are returned. Pages are 1-based.
func (s *Store) SearchProducts(ctx context.Context, term string, page, pageSize int) ([]domain.Product, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	query := `SELECT ` + productColumns + ` FROM products p` + productJoins + `
	WHERE p.discontinued = false AND p.units_in_stock > 0 AND p.product_name ILIKE $1
	ORDER BY p.product_name, p.product_id
	LIMIT $2 OFFSET $3`

	out, err := s.queryProducts(ctx, query, likePattern(term), pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("postgres: search products: %w", err)
	}
	return out, nil
}

// GetProductByID returns nil when the product does not exist.
func (s *Store) GetProductByID(ctx context.Context, productID int) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products p` + productJoins + `
	WHERE p.product_id = $1`

	p, err := scanProduct(s.db.QueryRowContext(ctx, query, productID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get product %d: %w", productID, err)
	}
	return &p, nil
}

// ListByCategory returns active products of a category, excluding one id.
func (s *Store) ListByCategory(ctx context.Context, categoryID, excludeID, limit int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	query := `SELECT ` + productColumns + ` FROM products p` + productJoins + `
	WHERE p.category_id = $1 AND p.product_id <> $2 AND p.discontinued = false
	ORDER BY p.product_name, p.product_id
	LIMIT $3`

	out, err := s.queryProducts(ctx, query, categoryID, excludeID, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list category %d: %w", categoryID, err)
	}
	return out, nil
}

// AllProducts lists every active product, for reindexing.
func (s *Store) AllProducts(ctx context.Context) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products p` + productJoins + `
	WHERE p.discontinued = false
	ORDER BY p.product_id`

	out, err := s.queryProducts(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: list products: %w", err)
	}
	return out, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(term string) string {
	return "%" + likeEscaper.Replace(strings.TrimSpace(term)) + "%"
}
