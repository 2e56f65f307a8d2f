package intent

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractProductRef(t *testing.T) {
	cases := []struct {
		msg  string
		want ProductRef
	}{
		{"add product id 5 to cart", ProductRef{ID: 5}},
		{"add product 12", ProductRef{ID: 12}},
		{"add id: 7 to my cart", ProductRef{ID: 7}},
		{"add 3 chai to cart", ProductRef{Name: "chai"}},
		{"add chai to cart", ProductRef{Name: "chai"}},
		{"add 2 x Chang to my cart", ProductRef{Name: "Chang"}},
		{"Add 2 of the Aniseed Syrup to the cart", ProductRef{Name: "Aniseed Syrup"}},
		{"add Tofu", ProductRef{Name: "Tofu"}},
		{"add chai cart", ProductRef{Name: "chai"}},
		{"I want 2 Ikura in my cart please", ProductRef{Name: "Ikura"}},
		{"give me some Konbu please", ProductRef{Name: "some Konbu"}},
		{"i need a", ProductRef{}},
		{"add to cart", ProductRef{}},
		{"add to my shopping cart", ProductRef{}},
		{"add 12 to cart", ProductRef{}},
		{"add 12", ProductRef{}},
		{"hello there", ProductRef{}},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, ExtractProductRef(tc.msg), "msg=%q", tc.msg)
	}
}

func TestExtractProductRef_IDShortCircuitsName(t *testing.T) {
	ref := ExtractProductRef("add product id 5 to cart")
	require.True(t, ref.HasID())
	require.Equal(t, 5, ref.ID)
	require.Empty(t, ref.Name)
}

func TestScanAfterAdd(t *testing.T) {
	require.Equal(t, "Gorgonzola Telino", scanAfterAdd("please add 4 Gorgonzola Telino to it"))
	require.Equal(t, "", scanAfterAdd("add the"))
	require.Equal(t, "", scanAfterAdd("nothing here"))
}

func TestExtractQuantity(t *testing.T) {
	cases := []struct {
		msg    string
		want   int
		wantOK bool
	}{
		{"add 3 chai to cart", 3, true},
		{"add 2 x Chang", 2, true},
		{"add 2x Chang", 2, true},
		{"I want 4 units of tofu", 4, true},
		{"give me 6 of those", 6, true},
		{"add chai to cart", 0, false},
		{"add product id 5 to cart", 0, false},
		{"add 0 x chai", 0, false},
	}
	for _, tc := range cases {
		got, ok := ExtractQuantity(tc.msg)
		require.Equal(t, tc.wantOK, ok, "msg=%q", tc.msg)
		require.Equal(t, tc.want, got, "msg=%q", tc.msg)
	}
}

func TestExtractTargetQuantity(t *testing.T) {
	n, ok := ExtractTargetQuantity("change quantity of chai to 5")
	require.True(t, ok)
	require.Equal(t, 5, n)

	n, ok = ExtractTargetQuantity("update cart: 3 x chai")
	require.True(t, ok)
	require.Equal(t, 3, n)

	_, ok = ExtractTargetQuantity("change my cart")
	require.False(t, ok)
}

func TestExtractOrderID(t *testing.T) {
	id, ok := ExtractOrderID("where is order #10248?")
	require.True(t, ok)
	require.Equal(t, 10248, id)

	id, ok = ExtractOrderID("Order ID 10250 shipping")
	require.True(t, ok)
	require.Equal(t, 10250, id)

	id, ok = ExtractOrderID("reorder order 77")
	require.True(t, ok)
	require.Equal(t, 77, id)

	_, ok = ExtractOrderID("show my last 2 orders")
	require.False(t, ok)
}

func TestExtractTimeWindowDays(t *testing.T) {
	cases := map[string]int{
		"reorder last month":            30,
		"reorder what I got past week":  7,
		"reorder last 2 months":         60,
		"orders from the past 3 months": 90,
		"reorder last 10 days":          10,
		"reorder the last 1 day":        1,
	}
	for msg, want := range cases {
		got, ok := ExtractTimeWindowDays(msg)
		require.True(t, ok, "msg=%q", msg)
		require.Equal(t, want, got, "msg=%q", msg)
	}

	_, ok := ExtractTimeWindowDays("reorder my last order")
	require.False(t, ok)
}

func TestExtractLimit_DefaultsAndClamps(t *testing.T) {
	require.Equal(t, 2, ExtractLimit("show my last 2 orders"))
	require.Equal(t, DefaultOrderLimit, ExtractLimit("show my orders"))
	require.Equal(t, DefaultOrderLimit, ExtractLimit("show my last 0 orders"))
	require.Equal(t, MaxOrderLimit, ExtractLimit("show my last 20 orders"))
	require.Equal(t, MaxOrderLimit, ExtractLimit("show my last 500 orders"))
	require.Equal(t, MaxOrderLimit, ExtractLimit("show my last 99999999999999999999 orders"))

	prev := 0
	for n := 1; n <= 40; n++ {
		got := ExtractLimit("show " + strconv.Itoa(n) + " orders")
		require.GreaterOrEqual(t, got, prev)
		require.LessOrEqual(t, got, MaxOrderLimit)
		prev = got
	}
}

func TestExtractSearchTerm(t *testing.T) {
	cases := map[string]string{
		"search for chai":             "chai",
		"Search \"Sir Rodney's\"":     "Sir Rodney's",
		"find me some tea":            "tea",
		"can you look for cheese?":    "cheese",
		"search 'blue cheese' please": "blue cheese",
		"chai search":                 "chai",
		"search":                      "",
	}
	for msg, want := range cases {
		require.Equal(t, want, ExtractSearchTerm(msg), "msg=%q", msg)
	}
}

func TestExtractCartItemName(t *testing.T) {
	require.Equal(t, "chai", ExtractCartItemName("change quantity of chai to 5"))
	require.Equal(t, "Chang", ExtractCartItemName("update Chang quantity to 3"))
	require.Equal(t, "tofu", ExtractCartItemName("change the tofu in my cart to 2"))
	require.Equal(t, "", ExtractCartItemName("change my cart"))
}

func TestExtractSuggestTarget(t *testing.T) {
	require.Equal(t, ProductRef{ID: 4}, ExtractSuggestTarget("suggest something with product 4"))
	require.Equal(t, ProductRef{Name: "chai"}, ExtractSuggestTarget("what goes well with chai?"))
	require.Equal(t, ProductRef{}, ExtractSuggestTarget("recommend something"))
}
