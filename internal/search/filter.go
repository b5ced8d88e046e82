package search

import (
	"strings"
	"unicode/utf8"
)

// Filtered holds the two narrowed subsets, each in source order.
type Filtered struct {
	Stores   []Entity
	Products []Entity
}

// Len reports the total number of matches.
func (f Filtered) Len() int {
	return len(f.Stores) + len(f.Products)
}

// NormalizeQuery trims and lower-cases q. Invalid UTF-8 yields the empty
// query, which matches everything.
func NormalizeQuery(q string) string {
	if !utf8.ValidString(q) {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(q))
}

// Filter narrows stores and products to those whose "name description"
// contains query, ignoring case. A blank query keeps everything.
func Filter(query string, stores, products []Entity) Filtered {
	q := NormalizeQuery(query)
	return Filtered{
		Stores:   filterEntities(q, stores),
		Products: filterEntities(q, products),
	}
}

// FilterCandidates is Filter over a Candidates value.
func FilterCandidates(query string, c Candidates) Filtered {
	return Filter(query, c.Stores, c.Products)
}

func filterEntities(q string, in []Entity) []Entity {
	out := make([]Entity, 0, len(in))
	for _, e := range in {
		if matches(q, e) {
			out = append(out, e)
		}
	}
	return out
}

func matches(q string, e Entity) bool {
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(e.Name+" "+e.Description), q)
}
