package searchbar

import (
	"fmt"

	"github.com/pders01/mrkt/internal/search"
)

const (
	ListboxID    = "search-results"
	ListboxLabel = "Search results"

	DefaultPlaceholder = "Search for products/services or stores..."
)

// OptionID is the DOM id of the result at flat index i.
func OptionID(i int) string {
	return fmt.Sprintf("result-%d", i)
}

type InputAttrs struct {
	Role             string
	Label            string
	HasPopup         string
	Expanded         bool
	Controls         string
	ActiveDescendant string // empty when nothing is highlighted
}

type ListboxAttrs struct {
	ID      string
	Role    string
	Label   string
	Visible bool
}

type OptionAttrs struct {
	ID       string
	Role     string
	Selected bool
	Entry    search.FlatEntry
}

type LiveRegionAttrs struct {
	Live   string
	Atomic bool
	Class  string
	Text   string
}

// Attributes is everything assistive technology sees for one state.
type Attributes struct {
	Input      InputAttrs
	Listbox    ListboxAttrs
	Stores     []OptionAttrs
	Products   []OptionAttrs
	LiveRegion LiveRegionAttrs
}

// Accessibility derives the ARIA surface of s.
func Accessibility(s State, placeholder string) Attributes {
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	a := Attributes{
		Input: InputAttrs{
			Role:     "combobox",
			Label:    placeholder,
			HasPopup: "listbox",
			Expanded: s.Open,
			Controls: ListboxID,
		},
		Listbox: ListboxAttrs{
			ID:      ListboxID,
			Role:    "listbox",
			Label:   ListboxLabel,
			Visible: s.Visible(),
		},
		LiveRegion: LiveRegionAttrs{
			Live:   "polite",
			Atomic: true,
			Class:  "sr-only",
			Text:   Announce(s),
		},
	}
	if s.Highlighted >= 0 {
		a.Input.ActiveDescendant = OptionID(s.Highlighted)
	}

	for _, e := range s.Results {
		opt := OptionAttrs{
			ID:       OptionID(e.FlatIndex),
			Role:     "option",
			Selected: e.FlatIndex == s.Highlighted,
			Entry:    e,
		}
		if e.Kind == search.KindStore {
			a.Stores = append(a.Stores, opt)
		} else {
			a.Products = append(a.Products, opt)
		}
	}
	return a
}
