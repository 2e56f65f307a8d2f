package intent

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatches(t *testing.T) {
	cases := []struct {
		msg  string
		in   Intent
		want bool
	}{
		{"add chai to cart", AddToCart, true},
		{"please put chai in the shopping basket and add it", AddToCart, true},
		{"I want it in my cart", AddToCart, true},
		{"get the tofu in my cart", AddToCart, true},
		{"add chai", AddToCart, true},
		{"add and find chai", AddToCart, false},
		{"give me two bottles of chang", AddToCart, true},
		{"I need to find chai", AddToCart, false},
		{"show me chai", AddToCart, false},

		{"search for chai", Search, true},
		{"find tofu", Search, true},
		{"look for cheese", Search, true},
		{"add chai to cart", Search, false},

		{"show my order history", OrderHistory, true},
		{"list my orders", OrderHistory, true},
		{"what was my last order", OrderHistory, true},
		{"reorder last month", OrderHistory, false},
		{"order something", OrderHistory, false},

		{"reorder last month", Reorder, true},
		{"order again what I bought last time", Reorder, true},
		{"order again", Reorder, false},

		{"change quantity of chai to 5", CartModify, true},
		{"update my cart", CartModify, true},
		{"modify the item", CartModify, true},
		{"change my password", CartModify, false},

		{"when will my order arrive", ShippingEstimate, true},
		{"shipping status for order 10248", ShippingEstimate, true},
		{"delivery date?", ShippingEstimate, true},
		{"hello", ShippingEstimate, false},

		{"suggest something with chai", SmartSuggest, true},
		{"what might also need", SmartSuggest, true},
		{"recommend a complement", SmartSuggest, true},
		{"hello", SmartSuggest, false},

		{"anything", None, false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Matches(tc.in, tc.msg), "intent=%s msg=%q", tc.in, tc.msg)
	}
}

func TestMatches_IsCaseInsensitive(t *testing.T) {
	require.True(t, Matches(Search, "SEARCH FOR CHAI"))
	require.True(t, Matches(AddToCart, "Add Chai To Cart"))
}

func TestTriggered_AllowsOverlapInFixedOrder(t *testing.T) {
	got := Triggered("add chai to my cart and find when will my shipping arrive")
	require.Equal(t, []Intent{AddToCart, Search, ShippingEstimate}, got)
}

func TestTriggered_NoMatches(t *testing.T) {
	require.Empty(t, Triggered("hello there"))
}

func TestClassify_Precedence(t *testing.T) {
	require.Equal(t, AddToCart, Classify("add chai to cart and search tofu"))
	require.Equal(t, Search, Classify("search for chai"))
	require.Equal(t, Reorder, Classify("reorder last month"))
	require.Equal(t, None, Classify("good morning"))
}
