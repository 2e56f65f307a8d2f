package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"retail-assistant/internal/domain"
	"retail-assistant/internal/intent"
)

func (s *ChatService) handleAddToCart(ctx context.Context, t *turn) (outcome, error) {
	ref := intent.ExtractProductRef(t.text)
	qty, ok := intent.ExtractQuantity(t.text)
	if !ok {
		qty = 1
	}

	var productID int
	label := ""
	switch {
	case ref.HasID():
		productID = ref.ID
		label = fmt.Sprintf("product %d", ref.ID)
	case ref.Name != "":
		if !s.canSearch() {
			s.log.Warn("no catalog to resolve product name", "name", ref.Name)
			return outcome{}, nil
		}
		found, err := s.findProducts(ctx, ref.Name)
		if err != nil {
			return outcome{}, err
		}
		if len(found) == 0 {
			return outcome{fragment: fmt.Sprintf("🔍 I couldn't find a product matching %q. Try searching the catalog first.", ref.Name)}, nil
		}
		productID = found[0].ID
		label = found[0].Name
	default:
		s.log.Warn("could not extract product info", "user_id", t.userID, "message", t.text)
		return outcome{}, nil
	}

	customerID, err := s.customerID(ctx, t)
	if err != nil {
		return outcome{}, err
	}
	product, err := s.addProductToCart(ctx, customerID, productID, qty)
	if err != nil {
		var uerr *Error
		if !errors.As(err, &uerr) {
			return outcome{}, err
		}
		if ref.HasID() {
			label = product.Name
		}
		return outcome{fragment: fmt.Sprintf("❌ Sorry, I couldn't add %s to your cart: %s.", label, uerr.Reason)}, nil
	}

	return outcome{
		fragment: fmt.Sprintf("✅ Added %d x %s to your cart.", qty, product.Name),
		effect: &sideEffect{
			kind:    domain.ActionProductAdded,
			message: fmt.Sprintf("%s added to cart", product.Name),
			data: map[string]any{
				"productName": product.Name,
				"description": productDescription(product),
			},
		},
	}, nil
}

// addProductToCart adds quantity units of a product to the customer's cart
// and returns the product for display. Refusals come back as *Error whose
// Reason is safe to show; cancellation errors are returned unwrapped.
func (s *ChatService) addProductToCart(ctx context.Context, customerID string, productID, quantity int) (domain.Product, error) {
	product := domain.Product{ID: productID, Name: fmt.Sprintf("product %d", productID)}
	if s.cart == nil {
		return product, newError(ErrorUnavailable, reasonCartUnavailable, nil)
	}
	if customerID == "" {
		return product, newError(ErrorUnavailable, reasonCustomerUnavailable, nil)
	}

	if s.catalog != nil {
		p, err := s.catalog.GetProductByID(ctx, productID)
		switch {
		case err != nil && isCancellation(err):
			return product, err
		case err != nil:
			s.log.Warn("product lookup failed, adding without details", "product_id", productID, "err", err)
		case p != nil:
			product = *p
		}
	}

	added, err := s.cart.AddToCart(ctx, customerID, productID, quantity)
	if err != nil {
		if isCancellation(err) {
			return product, err
		}
		return product, newError(ErrorUpstream, err.Error(), err)
	}
	if !added {
		return product, newError(ErrorRejected, reasonAddRefused, nil)
	}
	return product, nil
}

func productDescription(p domain.Product) string {
	if d := strings.TrimSpace(p.Description); d != "" {
		return d
	}
	return p.QuantityPerUnit
}

func (s *ChatService) handleCartModify(ctx context.Context, t *turn) (outcome, error) {
	if s.cart == nil {
		return outcome{}, nil
	}
	customerID, frag, err := s.requireCustomer(ctx, t)
	if err != nil || frag != "" {
		return outcome{fragment: frag}, err
	}
	if customerID == "" {
		return outcome{}, nil
	}

	cart, err := s.cart.GetCart(ctx, customerID)
	if err != nil {
		return outcome{}, fmt.Errorf("usecase: get cart: %w", err)
	}
	if cart.IsEmpty() {
		return outcome{fragment: "🛒 Your cart is empty. Add some products first!"}, nil
	}

	qty, ok := intent.ExtractTargetQuantity(t.text)
	if !ok {
		return outcome{fragment: "How many would you like? For example: \"change the quantity of Chai to 3\"."}, nil
	}

	ref := intent.ExtractProductRef(t.text)
	name := ""
	if !ref.HasID() {
		name = intent.ExtractCartItemName(t.text)
		if name == "" {
			name = ref.Name
		}
		if name == "" {
			return outcome{fragment: "Which item would you like to change? For example: \"change the quantity of Chai to 3\"."}, nil
		}
	}

	line := findCartLine(cart.Lines, ref.ID, name)
	if line == nil {
		target := name
		if ref.HasID() {
			target = fmt.Sprintf("product %d", ref.ID)
		}
		return outcome{fragment: fmt.Sprintf("🛒 I couldn't find %q in your cart.", target)}, nil
	}

	updated, err := s.cart.UpdateQuantity(ctx, customerID, line.ID, qty)
	if err != nil {
		return outcome{}, fmt.Errorf("usecase: update quantity: %w", err)
	}
	if !updated {
		return outcome{fragment: fmt.Sprintf("❌ Sorry, I couldn't update the quantity of %s.", line.ProductName)}, nil
	}
	return outcome{fragment: fmt.Sprintf("✅ Updated %s quantity to %d in your cart.", line.ProductName, qty)}, nil
}

// findCartLine matches by product id when given, else by case-insensitive
// name containment. The first match wins.
func findCartLine(lines []domain.CartLine, productID int, name string) *domain.CartLine {
	needle := strings.ToLower(strings.TrimSpace(name))
	for i := range lines {
		if productID > 0 {
			if lines[i].ProductID == productID {
				return &lines[i]
			}
			continue
		}
		if needle != "" && strings.Contains(strings.ToLower(lines[i].ProductName), needle) {
			return &lines[i]
		}
	}
	return nil
}
