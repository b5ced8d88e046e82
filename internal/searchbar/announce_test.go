package searchbar

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/mrkt/internal/search"
)

func TestAnnounce(t *testing.T) {
	base := New(scenarioCandidates())

	tests := []struct {
		name   string
		events []Event
		want   string
	}{
		{name: "closed", events: nil, want: ""},
		{name: "open with blank query", events: []Event{Focus{}, Input{Query: "   "}}, want: ""},
		{name: "single product", events: []Event{Input{Query: "laptop"}}, want: "0 stores and 1 product found. Selected Laptop."},
		{name: "plural", events: []Event{Input{Query: "e"}}, want: "2 stores and 3 products found. Selected Electronics Store."},
		{name: "one store", events: []Event{Input{Query: "hub"}}, want: "1 store and 0 products found. Selected Fashion Hub."},
		{name: "none", events: []Event{Input{Query: "zzz"}}, want: "0 stores and 0 products found."},
		{name: "follows highlight", events: []Event{Input{Query: "e"}, Key{Code: KeyArrowUp}}, want: "2 stores and 3 products found. Selected T-Shirt."},
		{name: "after escape", events: []Event{Input{Query: "e"}, Key{Code: KeyEscape}}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := apply(base, tt.events...)
			assert.Equal(t, tt.want, Announce(s))
		})
	}
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		entry search.FlatEntry
		want  string
	}{
		{search.FlatEntry{HasPrice: true, Price: 1200}, "$1200"},
		{search.FlatEntry{HasPrice: true, Price: 12.99, Currency: "usd"}, "$12.99"},
		{search.FlatEntry{HasPrice: true, Price: 9.5, Currency: "EUR"}, "9.5 EUR"},
		{search.FlatEntry{HasPrice: false, Price: 5}, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatPrice(tt.entry))
	}
}

func TestAccessibility(t *testing.T) {
	s, _ := apply(New(scenarioCandidates()), Focus{}, Input{Query: "e"}, Key{Code: KeyArrowDown})
	a := Accessibility(s, "")

	assert.Equal(t, "combobox", a.Input.Role)
	assert.Equal(t, "listbox", a.Input.HasPopup)
	assert.True(t, a.Input.Expanded)
	assert.Equal(t, "search-results", a.Input.Controls)
	assert.Equal(t, "result-1", a.Input.ActiveDescendant)
	assert.Equal(t, DefaultPlaceholder, a.Input.Label)

	assert.Equal(t, "search-results", a.Listbox.ID)
	assert.Equal(t, "listbox", a.Listbox.Role)
	assert.Equal(t, "Search results", a.Listbox.Label)
	assert.True(t, a.Listbox.Visible)

	require.Len(t, a.Stores, 2)
	require.Len(t, a.Products, 3)
	assert.Equal(t, "result-0", a.Stores[0].ID)
	assert.Equal(t, "result-2", a.Products[0].ID)
	assert.Equal(t, "option", a.Products[0].Role)
	assert.True(t, a.Stores[1].Selected)
	assert.False(t, a.Stores[0].Selected)

	assert.Equal(t, "polite", a.LiveRegion.Live)
	assert.True(t, a.LiveRegion.Atomic)
	assert.Equal(t, "sr-only", a.LiveRegion.Class)
	assert.Equal(t, "2 stores and 3 products found. Selected Fashion Hub.", a.LiveRegion.Text)
}

func TestAccessibilityClosed(t *testing.T) {
	s, _ := apply(New(scenarioCandidates()), Input{Query: "e"}, OutsideClick{})
	a := Accessibility(s, "Find")
	assert.False(t, a.Input.Expanded)
	assert.False(t, a.Listbox.Visible)
	assert.Equal(t, "Find", a.Input.Label)
	assert.Empty(t, a.LiveRegion.Text)

	s = New(scenarioCandidates())
	assert.Empty(t, Accessibility(s, "").Input.ActiveDescendant)
}

func render(t *testing.T, s State) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, s, ""))
	return buf.String()
}

func TestRenderHTML(t *testing.T) {
	s, _ := apply(New(scenarioCandidates()), Focus{}, Input{Query: "lap"})
	out := render(t, s)

	assert.Contains(t, out, `aria-haspopup="listbox"`)
	assert.Contains(t, out, `aria-expanded="true"`)
	assert.Contains(t, out, `aria-controls="search-results"`)
	assert.Contains(t, out, `aria-activedescendant="result-0"`)
	assert.Contains(t, out, `id="search-results" role="listbox" aria-label="Search results"`)
	assert.Contains(t, out, `id="result-0" role="option" aria-selected="true"`)
	assert.Contains(t, out, `aria-live="polite" aria-atomic="true" class="sr-only">0 stores and 1 product found. Selected Laptop.</div>`)
	assert.Contains(t, out, "No stores found")
	assert.NotContains(t, out, "No products found")
	assert.Contains(t, out, `href="/products/1"`)
	assert.Contains(t, out, "$1200")
	assert.Contains(t, out, "Stores (0)")
	assert.Contains(t, out, "Products &amp; Services (1)")
}

func TestRenderHTMLHidesListWhenClosed(t *testing.T) {
	out := render(t, New(scenarioCandidates()))
	assert.NotContains(t, out, `role="listbox"`)
	assert.Contains(t, out, `aria-expanded="false"`)
	assert.NotContains(t, out, "aria-activedescendant")
}

func TestRenderHTMLEscapes(t *testing.T) {
	c := search.Candidates{Stores: []search.Entity{{Kind: search.KindStore, ID: "1", Name: "<b>Bold</b> shop"}}}
	s, _ := apply(New(c), Input{Query: "<b>"})
	out := render(t, s)
	assert.False(t, strings.Contains(out, "<b>Bold</b>"))
	assert.Contains(t, out, "&lt;b&gt;Bold&lt;/b&gt; shop")
	assert.Contains(t, out, "No products found")
}

func TestRenderHTMLUnpricedProduct(t *testing.T) {
	c := search.Candidates{Products: []search.Entity{{Kind: search.KindProduct, ID: "9", Name: "Gift wrapping"}}}
	s, _ := apply(New(c), Input{Query: "gift"})
	out := render(t, s)
	assert.Contains(t, out, "<span>Gift wrapping</span><div>")
	assert.NotContains(t, out, "$0")
}
