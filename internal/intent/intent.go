// Package intent maps free-text customer messages to assistant intents and
// pulls structured slots (product, quantity, order, time window) out of them.
// Everything here is pure: no I/O, no state.
package intent

import (
	"regexp"
	"strings"
)

// Intent names one assistant capability.
type Intent string

const (
	None             Intent = ""
	AddToCart        Intent = "ADD_TO_CART"
	Search           Intent = "SEARCH"
	OrderHistory     Intent = "ORDER_HISTORY"
	Reorder          Intent = "REORDER"
	CartModify       Intent = "CART_MODIFY"
	ShippingEstimate Intent = "SHIPPING_ESTIMATE"
	SmartSuggest     Intent = "SMART_SUGGEST"
)

// Ordered is the fixed evaluation order. Reply fragments are appended in this
// order, so it must not change.
var Ordered = []Intent{
	AddToCart,
	Search,
	OrderHistory,
	Reorder,
	CartModify,
	ShippingEstimate,
	SmartSuggest,
}

var orderWord = regexp.MustCompile(`\borders?\b`)

// Matches reports whether the trigger predicate of in fires for msg. msg is
// lower-cased here, so callers may pass the raw text.
func Matches(in Intent, msg string) bool {
	m := strings.ToLower(msg)
	switch in {
	case AddToCart:
		return matchesAddToCart(m)
	case Search:
		return containsAny(m, "search", "find", "look for")
	case OrderHistory:
		return orderWord.MatchString(m) &&
			containsAny(m, "history", "show", "list", "my orders", "last")
	case Reorder:
		return strings.Contains(m, "reorder") ||
			(strings.Contains(m, "order again") && strings.Contains(m, "last"))
	case CartModify:
		return containsAny(m, "change", "update", "modify") &&
			containsAny(m, "quantity", "cart", "item")
	case ShippingEstimate:
		return containsAny(m, "shipping", "arrive", "delivery", "when will")
	case SmartSuggest:
		return containsAny(m, "suggest", "recommend", "might also need", "complement")
	default:
		return false
	}
}

func matchesAddToCart(m string) bool {
	if strings.Contains(m, "add") && containsAny(m, "cart", "shopping", "put", "place") {
		return true
	}
	if strings.Contains(m, "cart") && containsAny(m, "want", "get") {
		return true
	}
	if strings.HasPrefix(strings.TrimSpace(m), "add ") && !containsAny(m, "search", "find") {
		return true
	}
	return containsAny(m, "i want", "get me", "i need", "give me") &&
		!containsAny(m, "search", "find", "list", "show")
}

// Triggered returns every intent whose predicate fires, in evaluation order.
func Triggered(msg string) []Intent {
	var out []Intent
	for _, in := range Ordered {
		if Matches(in, msg) {
			out = append(out, in)
		}
	}
	return out
}

// Classify returns the highest-precedence intent for msg, or None.
func Classify(msg string) Intent {
	for _, in := range Ordered {
		if Matches(in, msg) {
			return in
		}
	}
	return None
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
