// Package embedding provides semantic product search and the indexer that
// keeps the product vector index current.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"retail-assistant/internal/domain"
)

const DefaultModel = "text-embedding-3-small"

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, model, input string) ([]float32, error)
}

// VectorIndex stores product vectors and answers nearest-neighbour queries.
type VectorIndex interface {
	NearestProducts(ctx context.Context, vec []float32, topK int) ([]domain.Product, error)
	UpsertEmbedding(ctx context.Context, productID int, content string, vec []float32) error
	ClearEmbeddings(ctx context.Context) (int64, error)
}

// ProductSource lists the products to index.
type ProductSource interface {
	AllProducts(ctx context.Context) ([]domain.Product, error)
}

// Searcher runs semantic product search.
type Searcher struct {
	embedder Embedder
	index    VectorIndex
	model    string
}

func NewSearcher(embedder Embedder, index VectorIndex, model string) (*Searcher, error) {
	if embedder == nil || index == nil {
		return nil, errors.New("embedding: embedder and index are required")
	}
	if model == "" {
		model = DefaultModel
	}
	return &Searcher{embedder: embedder, index: index, model: model}, nil
}

// SearchByEmbedding embeds the query and returns up to topK nearest products.
func (s *Searcher) SearchByEmbedding(ctx context.Context, query string, topK int) ([]domain.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" || topK <= 0 {
		return nil, nil
	}
	vec, err := s.embedder.Embed(ctx, s.model, query)
	if err != nil {
		return nil, fmt.Errorf("embedding: embed query: %w", err)
	}
	products, err := s.index.NearestProducts(ctx, vec, topK)
	if err != nil {
		return nil, fmt.Errorf("embedding: search index: %w", err)
	}
	return products, nil
}

// ProductText is the text embedded for a product.
func ProductText(p domain.Product) string {
	parts := []string{p.Name}
	if p.Description != "" {
		parts = append(parts, p.Description)
	}
	if p.CategoryName != "" {
		parts = append(parts, "Category: "+p.CategoryName)
	}
	if p.SupplierName != "" {
		parts = append(parts, "Supplier: "+p.SupplierName)
	}
	if p.QuantityPerUnit != "" {
		parts = append(parts, "Package: "+p.QuantityPerUnit)
	}
	parts = append(parts,
		"Price: $"+strconv.FormatFloat(p.UnitPrice, 'f', 2, 64),
		fmt.Sprintf("Stock: %d units", p.UnitsInStock))
	return strings.Join(parts, ". ")
}

// Progress is reported after each product during indexing.
type Progress struct {
	Current     int
	Total       int
	ProductName string
	Indexed     int
	Failed      int
}

// Percentage of products processed so far.
func (p Progress) Percentage() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Current) / float64(p.Total) * 100
}

// Result summarises an indexing run.
type Result struct {
	Total    int
	Indexed  int
	Failed   int
	Errors   []string
	Duration time.Duration
}

// Indexer embeds products and writes them to the vector index.
type Indexer struct {
	embedder Embedder
	index    VectorIndex
	model    string
	log      *slog.Logger
}

type IndexerOption func(*Indexer)

func WithIndexerLogger(l *slog.Logger) IndexerOption {
	return func(ix *Indexer) {
		if l != nil {
			ix.log = l
		}
	}
}

func NewIndexer(embedder Embedder, index VectorIndex, model string, opts ...IndexerOption) (*Indexer, error) {
	if embedder == nil || index == nil {
		return nil, errors.New("embedding: embedder and index are required")
	}
	if model == "" {
		model = DefaultModel
	}
	ix := &Indexer{embedder: embedder, index: index, model: model, log: slog.Default()}
	for _, opt := range opts {
		opt(ix)
	}
	return ix, nil
}

// IndexProducts embeds and upserts each product. A failing product is
// recorded and skipped; a cancelled context stops the run with an error.
func (ix *Indexer) IndexProducts(ctx context.Context, products []domain.Product, progress func(Progress)) (Result, error) {
	start := time.Now()
	res := Result{Total: len(products)}
	for i, p := range products {
		if err := ctx.Err(); err != nil {
			res.Duration = time.Since(start)
			return res, err
		}
		if err := ix.indexOne(ctx, p); err != nil {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("%s (ID: %d): %v", p.Name, p.ID, err))
			ix.log.Warn("index product failed", "product_id", p.ID, "err", err)
		} else {
			res.Indexed++
		}
		if progress != nil {
			progress(Progress{Current: i + 1, Total: res.Total, ProductName: p.Name, Indexed: res.Indexed, Failed: res.Failed})
		}
	}
	res.Duration = time.Since(start)
	return res, nil
}

func (ix *Indexer) indexOne(ctx context.Context, p domain.Product) error {
	text := ProductText(p)
	vec, err := ix.embedder.Embed(ctx, ix.model, text)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	return ix.index.UpsertEmbedding(ctx, p.ID, text, vec)
}

// Reindex clears the index and rebuilds it from every product in source.
func (ix *Indexer) Reindex(ctx context.Context, source ProductSource, progress func(Progress)) (Result, error) {
	products, err := source.AllProducts(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("embedding: list products: %w", err)
	}
	cleared, err := ix.index.ClearEmbeddings(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("embedding: clear index: %w", err)
	}
	ix.log.Info("reindex started", "products", len(products), "cleared", cleared)

	res, err := ix.IndexProducts(ctx, products, progress)
	ix.log.Info("reindex finished", "indexed", res.Indexed, "failed", res.Failed, "duration", res.Duration)
	return res, err
}
