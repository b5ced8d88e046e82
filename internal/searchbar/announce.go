package searchbar

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pders01/mrkt/internal/search"
)

// Announce returns the live-region text for s, or "" while the dropdown
// body is hidden.
func Announce(s State) string {
	if s.Status() != OpenWithResults {
		return ""
	}
	msg := fmt.Sprintf("%s and %s found.",
		plural(len(s.Filtered.Stores), "store"),
		plural(len(s.Filtered.Products), "product"))
	if e, ok := s.HighlightedEntry(); ok {
		msg += " Selected " + e.Title + "."
	}
	return msg
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}

// FormatPrice renders a product price. Dollars use a leading "$"; other
// currencies are appended as a code.
func FormatPrice(e search.FlatEntry) string {
	if !e.HasPrice {
		return ""
	}
	amount := strconv.FormatFloat(e.Price, 'f', -1, 64)
	switch strings.ToUpper(e.Currency) {
	case "", "USD":
		return "$" + amount
	default:
		return amount + " " + strings.ToUpper(e.Currency)
	}
}
