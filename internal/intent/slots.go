package intent

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

const (
	// DefaultOrderLimit is used when "show N orders" carries no number.
	DefaultOrderLimit = 5
	// MaxOrderLimit caps how many orders one reply lists.
	MaxOrderLimit = 20
)

// ProductRef is an extracted product reference. At most one of ID and Name is
// set; ID 0 means no id was found.
type ProductRef struct {
	ID   int
	Name string
}

// HasID reports whether the reference was resolved by id.
func (r ProductRef) HasID() bool { return r.ID > 0 }

// IsEmpty reports whether nothing was extracted.
func (r ProductRef) IsEmpty() bool { return r.ID <= 0 && r.Name == "" }

var (
	productIDPattern = regexp.MustCompile(`(?i)\b(?:product|id)\s*(?:id\s*)?[#:]?\s*(\d+)\b`)
	addPattern       = regexp.MustCompile(`(?i)\badd\s+(.+?)(?:\s+(?:to|into)\s+(?:the\s+|my\s+)?(?:shopping\s+)?cart\b.*|\s+cart\b.*|[.!?]*\s*$)`)
	addAltPattern    = regexp.MustCompile(`(?i)\badd\s+(?:\d+\s+)?(.+?)(?:\s+to\s+(?:the\s+)?cart)?[.!?]*\s*$`)
	desirePattern    = regexp.MustCompile(`(?i)\b(?:i\s+want|i\s+need|get\s+me|give\s+me)\s+(.+?)(?:\s+(?:to|in|into)\s+(?:the\s+|my\s+)?cart\b.*|\s+cart\b.*|[.!?]*\s*$)`)
	leadingQty       = regexp.MustCompile(`(?i)^\d+(?:\s*(?:x|×)\s*|\s+of\s+|\s+|$)`)

	qtyTimesPattern  = regexp.MustCompile(`(?i)\b(\d+)\s*(?:x\b|×|(?:products?|items?|units?|of)\b)`)
	qtyOfPattern     = regexp.MustCompile(`(?i)\b(\d+)\s+of\b`)
	qtyAddPattern    = regexp.MustCompile(`(?i)\badd\s+(\d+)\s`)
	qtyTargetPattern = regexp.MustCompile(`(?i)\bto\s+(\d+)\b`)

	orderIDPattern    = regexp.MustCompile(`(?i)order\s*(?:#|id\s*)?(\d+)`)
	lastDaysPattern   = regexp.MustCompile(`(?i)\b(?:last|past)\s+(\d+)\s+days?\b`)
	firstIntPattern   = regexp.MustCompile(`\d+`)
	searchPattern     = regexp.MustCompile(`(?i)\b(?:search(?:\s+for)?|find(?:\s+me)?|look\s+for)\s+(?:"([^"]+)"|'([^']+)'|(.+))`)
	searchKeyword     = regexp.MustCompile(`(?i)\b(?:search|find|look\s+for)\b`)
	cartItemPattern   = regexp.MustCompile(`(?i)\b(?:change|update|modify|set)\s+(?:the\s+)?(?:quantity\s+(?:of|for)\s+)?(.+?)\s+(?:quantity\s+)?to\s+\d+`)
	suggestForPattern = regexp.MustCompile(`(?i)^.*\b(?:with|for|like)\s+(.+?)[.!?]*\s*$`)
)

var (
	addStopwords     = stopwords("the", "a", "an", "product", "item")
	cartFiller       = stopwords("to", "into", "in", "my", "the", "shopping", "cart")
	addAltStopwords  = stopwords("the", "a", "an", "product", "item", "to", "cart")
	desireStopwords  = stopwords("the", "a", "an", "product", "item", "please")
	scanStopTokens   = stopwords("to", "cart", "the", "in")
	cartStopwords    = stopwords("the", "a", "an", "product", "item", "quantity", "of", "for", "in", "my", "cart")
	suggestStopwords = stopwords("the", "a", "an", "product", "item", "my", "me", "some", "please")
	searchLeading    = stopwords("a", "an", "the", "some", "any")
)

var timeWindowPhrases = []struct {
	phrases []string
	days    int
}{
	{[]string{"last month", "past month"}, 30},
	{[]string{"last week", "past week"}, 7},
	{[]string{"last 2 months", "past 2 months"}, 60},
	{[]string{"last 3 months", "past 3 months"}, 90},
}

// ExtractProductRef pulls a product id or name out of msg. Rules are tried in
// order and the first success wins; an id always beats a name.
func ExtractProductRef(msg string) ProductRef {
	if m := productIDPattern.FindStringSubmatch(msg); m != nil {
		if id, err := strconv.Atoi(m[1]); err == nil && id > 0 {
			return ProductRef{ID: id}
		}
	}
	if m := addPattern.FindStringSubmatch(msg); m != nil {
		if name := cleanName(stripLeadingQty(m[1]), addStopwords); usableName(name) {
			return ProductRef{Name: name}
		}
	}
	if m := addAltPattern.FindStringSubmatch(msg); m != nil {
		if name := cleanName(m[1], addAltStopwords); usableName(name) {
			return ProductRef{Name: name}
		}
	}
	if name := scanAfterAdd(msg); name != "" {
		return ProductRef{Name: name}
	}
	if m := desirePattern.FindStringSubmatch(msg); m != nil {
		if name := cleanName(stripLeadingQty(m[1]), desireStopwords); len(name) > 1 {
			return ProductRef{Name: name}
		}
	}
	return ProductRef{}
}

// scanAfterAdd collects the tokens following "add" up to a stop token or a
// bare integer.
func scanAfterAdd(msg string) string {
	tokens := strings.Fields(msg)
	start := -1
	for i, tok := range tokens {
		if strings.EqualFold(trimPunct(tok), "add") {
			start = i + 1
			break
		}
	}
	if start < 0 || start >= len(tokens) {
		return ""
	}
	if isInt(tokens[start]) {
		start++
	}
	var out []string
	for _, tok := range tokens[start:] {
		t := trimPunct(tok)
		if _, stop := scanStopTokens[strings.ToLower(t)]; stop || isInt(t) {
			break
		}
		if t != "" {
			out = append(out, t)
		}
	}
	return strings.Join(out, " ")
}

// ExtractQuantity returns the requested quantity, or false when the message
// names none. It never applies a default.
func ExtractQuantity(msg string) (int, bool) {
	for _, re := range []*regexp.Regexp{qtyTimesPattern, qtyOfPattern, qtyAddPattern} {
		if m := re.FindStringSubmatch(msg); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
				return n, true
			}
		}
	}
	return 0, false
}

// ExtractTargetQuantity reads the new quantity of a cart line ("... to 3"),
// falling back to ExtractQuantity.
func ExtractTargetQuantity(msg string) (int, bool) {
	if m := qtyTargetPattern.FindStringSubmatch(msg); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n, true
		}
	}
	return ExtractQuantity(msg)
}

// ExtractOrderID finds "order 123", "order #123" or "order id 123".
func ExtractOrderID(msg string) (int, bool) {
	m := orderIDPattern.FindStringSubmatch(msg)
	if m == nil {
		return 0, false
	}
	id, err := strconv.Atoi(m[1])
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ExtractTimeWindowDays maps "last month", "past week", "last 10 days" and
// similar phrases to a number of days.
func ExtractTimeWindowDays(msg string) (int, bool) {
	lower := strings.ToLower(msg)
	for _, w := range timeWindowPhrases {
		for _, p := range w.phrases {
			if strings.Contains(lower, p) {
				return w.days, true
			}
		}
	}
	if m := lastDaysPattern.FindStringSubmatch(lower); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n, true
		}
	}
	return 0, false
}

// ExtractLimit returns the first integer in msg, DefaultOrderLimit when there
// is none, capped at MaxOrderLimit.
func ExtractLimit(msg string) int {
	m := firstIntPattern.FindString(msg)
	if m == "" {
		return DefaultOrderLimit
	}
	n, err := strconv.Atoi(m)
	if errors.Is(err, strconv.ErrRange) {
		return MaxOrderLimit
	}
	if err != nil || n <= 0 {
		return DefaultOrderLimit
	}
	if n > MaxOrderLimit {
		return MaxOrderLimit
	}
	return n
}

// ExtractSearchTerm returns the text the customer wants to search for.
// Quoted terms are taken verbatim.
func ExtractSearchTerm(msg string) string {
	if m := searchPattern.FindStringSubmatch(msg); m != nil {
		switch {
		case m[1] != "":
			return strings.TrimSpace(m[1])
		case m[2] != "":
			return strings.TrimSpace(m[2])
		default:
			if term := cleanSearchTail(m[3]); term != "" {
				return term
			}
		}
	}
	loc := searchKeyword.FindStringIndex(msg)
	if loc == nil {
		return ""
	}
	if tail := cleanSearchTail(msg[loc[1]:]); tail != "" {
		return tail
	}
	return cleanSearchTail(msg[:loc[0]])
}

func cleanSearchTail(s string) string {
	tokens := strings.Fields(trimPunct(s))
	for len(tokens) > 0 {
		if _, ok := searchLeading[strings.ToLower(tokens[0])]; !ok {
			break
		}
		tokens = tokens[1:]
	}
	return trimPunct(strings.Join(tokens, " "))
}

// ExtractCartItemName reads the cart line a "change X to N" message targets.
func ExtractCartItemName(msg string) string {
	m := cartItemPattern.FindStringSubmatch(msg)
	if m == nil {
		return ""
	}
	return cleanName(m[1], cartStopwords)
}

// ExtractSuggestTarget reads the product a recommendation request is about:
// the regular product reference first, then "with/for/like X".
func ExtractSuggestTarget(msg string) ProductRef {
	if ref := ExtractProductRef(msg); !ref.IsEmpty() {
		return ref
	}
	if m := suggestForPattern.FindStringSubmatch(msg); m != nil {
		if name := cleanName(m[1], suggestStopwords); len(name) > 1 {
			return ProductRef{Name: name}
		}
	}
	return ProductRef{}
}

// usableName rejects names made only of cart filler words or a bare number,
// which the add patterns capture from messages like "add to cart".
func usableName(name string) bool {
	if name == "" || isInt(name) {
		return false
	}
	for _, tok := range strings.Fields(name) {
		if _, filler := cartFiller[strings.ToLower(tok)]; !filler {
			return true
		}
	}
	return false
}

func stripLeadingQty(s string) string {
	return leadingQty.ReplaceAllString(strings.TrimSpace(s), "")
}

func cleanName(s string, drop map[string]struct{}) string {
	var kept []string
	for _, tok := range strings.Fields(s) {
		t := trimPunct(tok)
		if t == "" {
			continue
		}
		if _, skip := drop[strings.ToLower(t)]; skip {
			continue
		}
		kept = append(kept, t)
	}
	return strings.Join(kept, " ")
}

func trimPunct(s string) string {
	return strings.Trim(strings.TrimSpace(s), ".,!?;:\"'")
}

func isInt(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.Atoi(s)
	return err == nil
}

func stopwords(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
