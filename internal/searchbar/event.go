package searchbar

import "github.com/pders01/mrkt/internal/search"

// Event is an input to Reduce.
type Event interface{ event() }

type (
	// Focus is the search input receiving focus.
	Focus struct{}
	// Input replaces the query text.
	Input struct{ Query string }
	// OutsideClick is a pointer press anywhere outside the search box.
	OutsideClick struct{}
	// Key is a navigation key pressed in the search input.
	Key struct{ Code KeyCode }
	// Click is a pointer press on the result at flat index Index.
	Click struct{ Index int }
	// Resize reports how many rows the dropdown can show.
	Resize struct{ VisibleRows int }
	// Reload asks an async source for the current query again.
	Reload struct{}
	// CandidatesLoaded delivers the answer to Fetch number Seq.
	CandidatesLoaded struct {
		Seq        uint64
		Candidates search.Candidates
	}
	// FetchFailed reports that Fetch number Seq failed.
	FetchFailed struct {
		Seq uint64
		Err error
	}
)

func (Focus) event()            {}
func (Input) event()            {}
func (OutsideClick) event()     {}
func (Key) event()              {}
func (Click) event()            {}
func (Resize) event()           {}
func (Reload) event()           {}
func (CandidatesLoaded) event() {}
func (FetchFailed) event()      {}

type KeyCode int

const (
	KeyEscape KeyCode = iota + 1
	KeyArrowDown
	KeyArrowUp
	KeyPageDown
	KeyPageUp
	KeyEnter
)

var keyNames = map[string]KeyCode{
	"Escape":    KeyEscape,
	"ArrowDown": KeyArrowDown,
	"ArrowUp":   KeyArrowUp,
	"PageDown":  KeyPageDown,
	"PageUp":    KeyPageUp,
	"Enter":     KeyEnter,
}

// ParseKey maps a DOM KeyboardEvent.key name to a KeyCode.
func ParseKey(name string) (KeyCode, bool) {
	k, ok := keyNames[name]
	return k, ok
}

func (k KeyCode) String() string {
	for name, code := range keyNames {
		if code == k {
			return name
		}
	}
	return "Unknown"
}

// Effect is work Reduce asks its host to perform.
type Effect interface{ effect() }

type (
	// Select asks the host to navigate to, or otherwise act on, Entry.
	Select struct{ Entry search.FlatEntry }
	// Fetch asks the host to load candidates for Query and answer with
	// CandidatesLoaded or FetchFailed carrying Seq. Immediate skips debouncing.
	Fetch struct {
		Query     string
		Seq       uint64
		Immediate bool
	}
)

func (Select) effect() {}
func (Fetch) effect()  {}
