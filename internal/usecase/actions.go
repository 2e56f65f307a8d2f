package usecase

import (
	"strings"

	"retail-assistant/internal/domain"
)

const successMarker = "✅"

// extractActions derives the side-channel actions from the rendered reply.
// An action is emitted only when its marker text is present; the payload comes
// from the matching side effect recorded during the turn.
func extractActions(reply string, effects []sideEffect) []domain.ChatAction {
	actions := []domain.ChatAction{}
	if !strings.Contains(reply, successMarker) {
		return actions
	}
	lower := strings.ToLower(reply)

	if strings.Contains(lower, "added") && strings.Contains(lower, "cart") {
		actions = append(actions, actionFor(domain.ActionProductAdded, "Product added to cart", effects))
	}
	if strings.Contains(lower, "reorder") {
		actions = append(actions, actionFor(domain.ActionItemsReordered, "Items reordered", effects))
	}
	return actions
}

func actionFor(kind, fallback string, effects []sideEffect) domain.ChatAction {
	for i := len(effects) - 1; i >= 0; i-- {
		if effects[i].kind == kind {
			return domain.ChatAction{Type: kind, Message: effects[i].message, Data: effects[i].data}
		}
	}
	return domain.ChatAction{Type: kind, Message: fallback}
}
