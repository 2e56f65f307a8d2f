package postgres

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"retail-assistant/internal/domain"
)

// The product_embeddings table uses the pgvector extension.

// UpsertEmbedding stores the embedding and source text for a product.
func (s *Store) UpsertEmbedding(ctx context.Context, productID int, content string, vec []float32) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO product_embeddings (product_id, content, embedding, updated_at)
	VALUES ($1, $2, $3, NOW())
	ON CONFLICT (product_id) DO UPDATE SET content = EXCLUDED.content, embedding = EXCLUDED.embedding, updated_at = NOW()`,
		productID, content, pgvector.NewVector(vec))
	if err != nil {
		return fmt.Errorf("postgres: upsert embedding for product %d: %w", productID, err)
	}
	return nil
}

// NearestProducts returns up to topK active products ordered by cosine
// distance to vec.
func (s *Store) NearestProducts(ctx context.Context, vec []float32, topK int) ([]domain.Product, error) {
	if topK <= 0 {
		return nil, nil
	}
	query := `SELECT ` + productColumns + ` FROM product_embeddings e
	JOIN products p ON p.product_id = e.product_id` + productJoins + `
	WHERE p.discontinued = false
	ORDER BY e.embedding <=> $1::vector
	LIMIT $2`

	out, err := s.queryProducts(ctx, query, pgvector.NewVector(vec), topK)
	if err != nil {
		return nil, fmt.Errorf("postgres: nearest products: %w", err)
	}
	return out, nil
}

// ClearEmbeddings removes every stored embedding and reports how many were
// dropped.
func (s *Store) ClearEmbeddings(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM product_embeddings")
	if err != nil {
		return 0, fmt.Errorf("postgres: clear embeddings: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("postgres: clear embeddings: %w", err)
	}
	return n, nil
}
