package usecase

import (
	"context"
	"fmt"
	"strings"

	"retail-assistant/internal/domain"
	"retail-assistant/internal/intent"
)

const maxSuggestions = 3

func (s *ChatService) handleSearch(ctx context.Context, t *turn) (outcome, error) {
	if !s.canSearch() {
		return outcome{}, nil
	}
	term := intent.ExtractSearchTerm(t.text)
	if term == "" {
		return outcome{fragment: "What would you like me to search for? For example: \"search for chai\"."}, nil
	}
	products, err := s.findProducts(ctx, term)
	if err != nil {
		return outcome{}, err
	}
	if len(products) == 0 {
		return outcome{fragment: fmt.Sprintf("🔍 I couldn't find any products matching %q.", term)}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🔍 Found %d product(s) matching %q:", len(products), term)
	for i, p := range products {
		if i == maxListedProducts {
			break
		}
		fmt.Fprintf(&b, "\n• %s (ID: %d) - $%.2f - %d in stock", p.Name, p.ID, p.UnitPrice, p.UnitsInStock)
	}
	return outcome{fragment: b.String()}, nil
}

func (s *ChatService) handleSmartSuggest(ctx context.Context, t *turn) (outcome, error) {
	if s.catalog == nil {
		return outcome{}, nil
	}
	target, err := s.suggestTarget(ctx, t)
	if err != nil {
		return outcome{}, err
	}
	if target == nil {
		return outcome{fragment: "🤔 I could not identify a product to base suggestions on. Try \"suggest something to go with Chai\"."}, nil
	}
	if target.CategoryID == 0 {
		return outcome{fragment: fmt.Sprintf("I couldn't find any complementary products for %s.", target.Name)}, nil
	}

	candidates, err := s.catalog.ListByCategory(ctx, target.CategoryID, target.ID, embeddingTopK)
	if err != nil {
		return outcome{}, fmt.Errorf("usecase: list category: %w", err)
	}
	var picks []domain.Product
	for _, c := range candidates {
		if c.ID == target.ID {
			continue
		}
		picks = append(picks, c)
		if len(picks) == maxSuggestions {
			break
		}
	}
	if len(picks) == 0 {
		return outcome{fragment: fmt.Sprintf("I couldn't find any complementary products for %s.", target.Name)}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "💡 Customers who buy %s might also need:", target.Name)
	for _, p := range picks {
		fmt.Fprintf(&b, "\n• %s (ID: %d) - $%.2f", p.Name, p.ID, p.UnitPrice)
	}
	return outcome{fragment: b.String()}, nil
}

// suggestTarget resolves the product to suggest around: extracted id, then
// extracted name, then the first line of the customer's cart.
func (s *ChatService) suggestTarget(ctx context.Context, t *turn) (*domain.Product, error) {
	ref := intent.ExtractSuggestTarget(t.text)
	switch {
	case ref.HasID():
		p, err := s.catalog.GetProductByID(ctx, ref.ID)
		if err != nil {
			return nil, fmt.Errorf("usecase: get product: %w", err)
		}
		if p != nil {
			return p, nil
		}
	case ref.Name != "":
		found, err := s.findProducts(ctx, ref.Name)
		if err != nil {
			return nil, err
		}
		if len(found) > 0 {
			return &found[0], nil
		}
	}

	if s.cart == nil {
		return nil, nil
	}
	customerID, err := s.customerID(ctx, t)
	if err != nil || customerID == "" {
		return nil, err
	}
	cart, err := s.cart.GetCart(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("usecase: get cart: %w", err)
	}
	if cart.IsEmpty() {
		return nil, nil
	}
	first := cart.Lines[0]
	p, err := s.catalog.GetProductByID(ctx, first.ProductID)
	if err != nil {
		return nil, fmt.Errorf("usecase: get product: %w", err)
	}
	if p == nil {
		return &domain.Product{ID: first.ProductID, Name: first.ProductName}, nil
	}
	return p, nil
}
