package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/mrkt/internal/search"
	"github.com/pders01/mrkt/internal/searchbar"
)

type lineKind int

const (
	lineHeader lineKind = iota
	lineEmpty
	lineResult
)

// dropLine is one line of the dropdown. index is the flat index of the
// result on the line, -1 for group headers and empty-group notices.
type dropLine struct {
	kind  lineKind
	index int
	entry search.FlatEntry
	text  string
}

// dropdownLines lays out the listbox: the stores group, then the products
// group, each with a header and either its rows or a "not found" notice.
func dropdownLines(s searchbar.State) []dropLine {
	var stores, products []search.FlatEntry
	for _, e := range s.Results {
		if e.Kind == search.KindStore {
			stores = append(stores, e)
		} else {
			products = append(products, e)
		}
	}

	lines := make([]dropLine, 0, len(s.Results)+4)
	group := func(header, empty string, rows []search.FlatEntry) {
		lines = append(lines, dropLine{kind: lineHeader, index: -1, text: fmt.Sprintf("%s (%d)", header, len(rows))})
		if len(rows) == 0 {
			lines = append(lines, dropLine{kind: lineEmpty, index: -1, text: empty})
			return
		}
		for _, e := range rows {
			lines = append(lines, dropLine{kind: lineResult, index: e.FlatIndex, entry: e, text: e.Title})
		}
	}
	group("Stores", "No stores found", stores)
	group("Products & Services", "No products found", products)
	return lines
}

// dropdown is the scroll window over dropdownLines.
type dropdown struct {
	offset int
	height int
}

// follow scrolls the minimum distance that brings the highlighted row into
// view. A row directly under its group header pulls the header in as well.
func (d *dropdown) follow(s searchbar.State) {
	lines := dropdownLines(s)
	if d.height <= 0 {
		d.offset = 0
		return
	}

	target := -1
	for i, l := range lines {
		if l.kind == lineResult && l.index == s.Highlighted {
			target = i
			break
		}
	}
	if target >= 0 {
		top := target
		if top > 0 && lines[top-1].kind == lineHeader {
			top--
		}
		switch {
		case top < d.offset:
			d.offset = top
		case target >= d.offset+d.height:
			d.offset = target - d.height + 1
		}
	}
	d.offset = clamp(d.offset, 0, max(0, len(lines)-d.height))
}

// hit returns the flat index of the result rendered at row y of the
// dropdown, or -1.
func (d *dropdown) hit(s searchbar.State, y int) int {
	if y < 0 || y >= d.height {
		return -1
	}
	lines := dropdownLines(s)
	i := d.offset + y
	if i >= len(lines) {
		return -1
	}
	return lines[i].index
}

// rows is the number of lines the dropdown currently draws.
func (d *dropdown) rows(s searchbar.State) int {
	return min(d.height, len(dropdownLines(s))-d.offset)
}

func (d *dropdown) view(s searchbar.State, width int) string {
	lines := dropdownLines(s)
	end := min(len(lines), d.offset+d.height)
	rows := make([]string, 0, d.height)
	for _, l := range lines[d.offset:end] {
		rows = append(rows, renderDropLine(l, l.kind == lineResult && l.index == s.Highlighted, width))
	}
	return strings.Join(rows, "\n")
}

func renderDropLine(l dropLine, highlighted bool, width int) string {
	switch l.kind {
	case lineHeader:
		return GroupHeaderStyle.Render(truncateEnd(l.text, width))
	case lineEmpty:
		return HelpStyle.Render("  " + l.text)
	}

	price := searchbar.FormatPrice(l.entry)
	marker := "  "
	if highlighted {
		marker = "› "
	}
	room := width - len([]rune(marker)) - len([]rune(price)) - 1
	title := truncateEnd(l.entry.Title, room)
	desc := ""
	if left := room - len([]rune(title)) - 3; left > 8 && l.entry.Description != "" {
		desc = " · " + truncateEnd(l.entry.Description, left)
	}

	if highlighted {
		pad := max(0, width-len([]rune(marker+title+desc+price))-1)
		return SelectedItemStyle.Render(marker + title + desc + strings.Repeat(" ", pad) + " " + price)
	}
	row := marker + ItemStyle.Render(title) + renderMuted(desc)
	if price != "" {
		pad := max(1, width-lipgloss.Width(row)-len([]rune(price)))
		row += strings.Repeat(" ", pad) + PriceStyle.Render(price)
	}
	return row
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
