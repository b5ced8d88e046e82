package searchbar

import (
	"github.com/pders01/mrkt/internal/search"
)

// Row geometry used to estimate how many results fit in the dropdown.
const (
	DefaultRowHeight = 48
	DefaultMaxHeight = 240
)

// Status is the coarse state of the dropdown.
type Status int

const (
	Closed Status = iota
	OpenEmpty
	OpenWithResults
)

func (s Status) String() string {
	switch s {
	case Closed:
		return "closed"
	case OpenEmpty:
		return "open-empty"
	case OpenWithResults:
		return "open-with-results"
	default:
		return "unknown"
	}
}

// State is the complete interaction state of one search box. Filtered and
// Results are derived from Query and Candidates and only change through Reduce.
type State struct {
	Query       string
	Open        bool
	Highlighted int

	Candidates search.Candidates
	Filtered   search.Filtered
	Results    []search.FlatEntry

	PageSize int

	// Async marks a state whose candidates come from a Source that must be
	// asked on every query change. Seq numbers those requests.
	Async   bool
	Seq     uint64
	Loading bool
	Err     error
}

// New returns the mount state for a synchronous candidate set.
func New(c search.Candidates) State {
	s := State{
		Highlighted: -1,
		Candidates:  c,
		PageSize:    EstimateVisibleRows(DefaultMaxHeight, DefaultRowHeight),
	}
	s.derive()
	return s
}

// NewAsync returns the mount state for a source that is queried per input.
// Candidates stay empty until the first CandidatesLoaded.
func NewAsync() State {
	s := New(search.Candidates{})
	s.Async = true
	return s
}

func (s State) Status() Status {
	switch {
	case !s.Open:
		return Closed
	case search.NormalizeQuery(s.Query) == "":
		return OpenEmpty
	default:
		return OpenWithResults
	}
}

// Visible reports whether the dropdown body is shown.
func (s State) Visible() bool {
	return s.Status() == OpenWithResults
}

// HighlightedEntry returns the entry under the keyboard highlight.
func (s State) HighlightedEntry() (search.FlatEntry, bool) {
	if s.Highlighted < 0 || s.Highlighted >= len(s.Results) {
		return search.FlatEntry{}, false
	}
	return s.Results[s.Highlighted], true
}

func (s *State) derive() {
	s.Filtered = search.FilterCandidates(s.Query, s.Candidates)
	s.Results = search.Flatten(s.Filtered)
}

// EstimateVisibleRows approximates how many rows of rowHeight fit in
// containerHeight. It never returns less than one.
func EstimateVisibleRows(containerHeight, rowHeight int) int {
	if rowHeight <= 0 {
		rowHeight = DefaultRowHeight
	}
	return max(1, containerHeight/rowHeight)
}
