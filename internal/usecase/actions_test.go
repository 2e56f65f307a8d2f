package usecase

import (
	"testing"

	"github.com/stretchr/testify/require"

	"retail-assistant/internal/domain"
)

func TestExtractActions(t *testing.T) {
	added := sideEffect{
		kind:    domain.ActionProductAdded,
		message: "Chai added to cart",
		data:    map[string]any{"productName": "Chai", "description": "Black tea"},
	}

	actions := extractActions("🔍 Found 1 product(s) matching \"chai\"", nil)
	require.NotNil(t, actions)
	require.Empty(t, actions)

	actions = extractActions("✅ Added 2 x Chai to your cart.", []sideEffect{added})
	require.Equal(t, []domain.ChatAction{{
		Type:    domain.ActionProductAdded,
		Message: "Chai added to cart",
		Data:    map[string]any{"productName": "Chai", "description": "Black tea"},
	}}, actions)

	actions = extractActions("❌ Sorry, I couldn't add Chai to your cart: add failed.", []sideEffect{added})
	require.Empty(t, actions)

	actions = extractActions("Sure! ✅ I have ADDED that to your CART.", nil)
	require.Equal(t, []domain.ChatAction{{Type: domain.ActionProductAdded, Message: "Product added to cart"}}, actions)

	actions = extractActions("✅ Reordered 3 item(s) from 1 order(s) into your cart.", []sideEffect{{
		kind:    domain.ActionItemsReordered,
		message: "3 item(s) reordered",
		data:    map[string]any{"count": 3, "orderIds": []int{10248}},
	}})
	require.Len(t, actions, 1)
	require.Equal(t, domain.ActionItemsReordered, actions[0].Type)
	require.Equal(t, 3, actions[0].Data["count"])
}

func TestExtractActions_BothMarkers(t *testing.T) {
	reply := "✅ Added 1 x Chai to your cart.\n\n✅ Reordered 2 item(s) from 1 order(s) into your cart."
	actions := extractActions(reply, nil)
	require.Len(t, actions, 2)
	require.Equal(t, domain.ActionProductAdded, actions[0].Type)
	require.Equal(t, domain.ActionItemsReordered, actions[1].Type)
}
