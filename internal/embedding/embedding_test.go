package embedding

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"retail-assistant/internal/domain"
)

type mockEmbedder struct {
	inputs []string
	model  string
	fail   map[string]bool
	err    error
}

func (m *mockEmbedder) Embed(_ context.Context, model, input string) ([]float32, error) {
	m.model = model
	m.inputs = append(m.inputs, input)
	if m.err != nil {
		return nil, m.err
	}
	if m.fail[input] {
		return nil, errors.New("rate limited")
	}
	return []float32{float32(len(input)), 1}, nil
}

type mockIndex struct {
	upserts  map[int]string
	nearest  []domain.Product
	lastVec  []float32
	lastTopK int
	cleared  int64
	clearErr error
	err      error
}

func (m *mockIndex) NearestProducts(_ context.Context, vec []float32, topK int) ([]domain.Product, error) {
	m.lastVec, m.lastTopK = vec, topK
	return m.nearest, m.err
}

func (m *mockIndex) UpsertEmbedding(_ context.Context, productID int, content string, _ []float32) error {
	if m.upserts == nil {
		m.upserts = map[int]string{}
	}
	m.upserts[productID] = content
	return m.err
}

func (m *mockIndex) ClearEmbeddings(context.Context) (int64, error) {
	return m.cleared, m.clearErr
}

type mockSource struct {
	products []domain.Product
	err      error
}

func (m mockSource) AllProducts(context.Context) ([]domain.Product, error) {
	return m.products, m.err
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestProductText(t *testing.T) {
	p := domain.Product{
		ID: 1, Name: "Chai", Description: "Black tea with spices", CategoryName: "Beverages",
		SupplierName: "Exotic Liquids", QuantityPerUnit: "10 boxes x 20 bags", UnitPrice: 18, UnitsInStock: 39,
	}
	require.Equal(t,
		"Chai. Black tea with spices. Category: Beverages. Supplier: Exotic Liquids. Package: 10 boxes x 20 bags. Price: $18.00. Stock: 39 units",
		ProductText(p))

	require.Equal(t, "Tofu. Price: $23.25. Stock: 0 units", ProductText(domain.Product{Name: "Tofu", UnitPrice: 23.25}))
}

func TestSearcher(t *testing.T) {
	emb := &mockEmbedder{}
	idx := &mockIndex{nearest: []domain.Product{{ID: 1, Name: "Chai"}}}
	s, err := NewSearcher(emb, idx, "")
	require.NoError(t, err)

	got, err := s.SearchByEmbedding(context.Background(), "  something warm to drink ", 5)
	require.NoError(t, err)
	require.Equal(t, idx.nearest, got)
	require.Equal(t, DefaultModel, emb.model)
	require.Equal(t, []string{"something warm to drink"}, emb.inputs)
	require.Equal(t, 5, idx.lastTopK)

	got, err = s.SearchByEmbedding(context.Background(), "   ", 5)
	require.NoError(t, err)
	require.Nil(t, got)
	require.Len(t, emb.inputs, 1)
}

func TestSearcher_Errors(t *testing.T) {
	_, err := NewSearcher(nil, &mockIndex{}, "")
	require.Error(t, err)

	s, err := NewSearcher(&mockEmbedder{err: errors.New("boom")}, &mockIndex{}, "m")
	require.NoError(t, err)
	_, err = s.SearchByEmbedding(context.Background(), "tea", 3)
	require.ErrorContains(t, err, "embedding: embed query: boom")

	s, err = NewSearcher(&mockEmbedder{}, &mockIndex{err: errors.New("down")}, "m")
	require.NoError(t, err)
	_, err = s.SearchByEmbedding(context.Background(), "tea", 3)
	require.ErrorContains(t, err, "embedding: search index: down")
}

func TestIndexer_IndexProducts(t *testing.T) {
	products := []domain.Product{
		{ID: 1, Name: "Chai", UnitPrice: 18},
		{ID: 2, Name: "Chang", UnitPrice: 19},
		{ID: 3, Name: "Aniseed Syrup", UnitPrice: 10},
	}
	emb := &mockEmbedder{fail: map[string]bool{ProductText(products[1]): true}}
	idx := &mockIndex{}
	ix, err := NewIndexer(emb, idx, "custom-model", WithIndexerLogger(quiet))
	require.NoError(t, err)

	var seen []Progress
	res, err := ix.IndexProducts(context.Background(), products, func(p Progress) { seen = append(seen, p) })
	require.NoError(t, err)
	require.Equal(t, 3, res.Total)
	require.Equal(t, 2, res.Indexed)
	require.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 1)
	require.Contains(t, res.Errors[0], "Chang (ID: 2)")
	require.Equal(t, "custom-model", emb.model)
	require.Equal(t, map[int]string{1: ProductText(products[0]), 3: ProductText(products[2])}, idx.upserts)

	require.Len(t, seen, 3)
	require.Equal(t, Progress{Current: 3, Total: 3, ProductName: "Aniseed Syrup", Indexed: 2, Failed: 1}, seen[2])
	require.InDelta(t, 100.0, seen[2].Percentage(), 0.001)
}

func TestIndexer_Cancelled(t *testing.T) {
	ix, err := NewIndexer(&mockEmbedder{}, &mockIndex{}, "", WithIndexerLogger(quiet))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := ix.IndexProducts(ctx, []domain.Product{{ID: 1, Name: "Chai"}}, nil)
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, res.Indexed)
}

func TestIndexer_Reindex(t *testing.T) {
	idx := &mockIndex{cleared: 12}
	ix, err := NewIndexer(&mockEmbedder{}, idx, "", WithIndexerLogger(quiet))
	require.NoError(t, err)

	res, err := ix.Reindex(context.Background(), mockSource{products: []domain.Product{{ID: 7, Name: "Uncle Bob's Organic Dried Pears"}}}, nil)
	require.NoError(t, err)
	require.Equal(t, 1, res.Indexed)
	require.Contains(t, idx.upserts, 7)

	_, err = ix.Reindex(context.Background(), mockSource{err: errors.New("db down")}, nil)
	require.ErrorContains(t, err, "embedding: list products")

	idx.clearErr = errors.New("locked")
	_, err = ix.Reindex(context.Background(), mockSource{}, nil)
	require.ErrorContains(t, err, "embedding: clear index")
}
