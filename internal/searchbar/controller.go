package searchbar

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pders01/mrkt/internal/debuglog"
	"github.com/pders01/mrkt/internal/navigate"
	"github.com/pders01/mrkt/internal/search"
)

const (
	DefaultDebounce     = 200 * time.Millisecond
	DefaultFetchTimeout = 5 * time.Second
)

// Controller owns one State, serializes events into Reduce and runs the
// resulting effects.
type Controller struct {
	mu     sync.Mutex
	state  State
	closed bool

	source       search.Source
	navigator    navigate.Navigator
	onSelect     func(search.FlatEntry)
	onChange     func(State)
	fetchTimeout time.Duration
	debounce     time.Duration
	debouncer    *Debouncer

	log *debuglog.FieldLogger
}

type Option func(*Controller)

// WithNavigator sends the path of selected entries to n.
func WithNavigator(n navigate.Navigator) Option {
	return func(c *Controller) { c.navigator = n }
}

// WithOnSelect replaces navigation with a selection callback.
func WithOnSelect(fn func(search.FlatEntry)) Option {
	return func(c *Controller) { c.onSelect = fn }
}

// WithOnChange is called after every state change, including those caused
// by fetches completing in the background.
func WithOnChange(fn func(State)) Option {
	return func(c *Controller) { c.onChange = fn }
}

func WithDebounce(d time.Duration) Option {
	return func(c *Controller) { c.debounce = d }
}

func WithFetchTimeout(d time.Duration) Option {
	return func(c *Controller) { c.fetchTimeout = d }
}

// WithVisibleRows sets the PageUp/PageDown step.
func WithVisibleRows(rows int) Option {
	return func(c *Controller) { c.state.PageSize = max(1, rows) }
}

// NewController mounts a search box over src. Sources implementing
// search.Snapshotter are filtered locally; any other source is asked for
// candidates on mount and after every input.
func NewController(src search.Source, opts ...Option) *Controller {
	c := &Controller{
		source:       src,
		debounce:     DefaultDebounce,
		fetchTimeout: DefaultFetchTimeout,
		log:          debuglog.WithFields(map[string]interface{}{"component": "searchbar"}),
	}
	if snap, ok := src.(search.Snapshotter); ok {
		c.state = New(snap.Snapshot())
	} else {
		c.state = NewAsync()
	}
	for _, opt := range opts {
		opt(c)
	}
	c.debouncer = NewDebouncer(c.debounce)

	if c.state.Async {
		c.Dispatch(Reload{})
	}
	return c
}

// Resync reloads a source implementing search.Resyncer and feeds the new
// candidate set through the reducer. Other sources are left alone; an async
// source is refreshed with Reload instead.
func (c *Controller) Resync(ctx context.Context) error {
	rs, ok := c.source.(search.Resyncer)
	if !ok {
		return nil
	}
	if err := rs.Resync(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	seq, async := c.state.Seq, c.state.Async
	c.mu.Unlock()
	if async {
		return nil
	}
	c.Dispatch(CandidatesLoaded{Seq: seq, Candidates: rs.Snapshot()})
	return nil
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Dispatch applies ev and runs its effects. It returns the resulting state.
// After Close it is a no-op.
func (c *Controller) Dispatch(ev Event) State {
	c.mu.Lock()
	if c.closed {
		s := c.state
		c.mu.Unlock()
		return s
	}
	if loaded, ok := ev.(CandidatesLoaded); ok && loaded.Seq != c.state.Seq {
		c.log.With("seq", loaded.Seq).With("current", c.state.Seq).Debugf("dropping stale candidates")
	}
	next, effects := Reduce(c.state, ev)
	c.state = next
	c.mu.Unlock()

	for _, eff := range effects {
		c.run(eff)
	}
	if c.onChange != nil {
		c.onChange(next)
	}
	return next
}

func (c *Controller) run(eff Effect) {
	switch e := eff.(type) {
	case Select:
		c.selectEntry(e.Entry)
	case Fetch:
		job := c.fetchJob(e.Query, e.Seq)
		if e.Immediate {
			c.debouncer.TriggerNow(job)
		} else {
			c.debouncer.Trigger(job)
		}
	}
}

func (c *Controller) selectEntry(entry search.FlatEntry) {
	if c.onSelect != nil {
		c.onSelect(entry)
		return
	}
	if c.navigator == nil {
		c.log.With("path", entry.Path).Warnf("selection without navigator")
		return
	}
	if err := c.navigator.Navigate(entry.Path); err != nil {
		c.log.With("path", entry.Path).Errorf("navigation failed: %v", err)
	}
}

func (c *Controller) fetchJob(query string, seq uint64) func(context.Context) {
	return func(ctx context.Context) {
		if c.fetchTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.fetchTimeout)
			defer cancel()
		}

		res, err := c.source.Candidates(ctx, query)
		switch {
		case errors.Is(err, context.Canceled):
			c.log.With("seq", seq).Debugf("fetch superseded")
		case err != nil:
			c.log.With("seq", seq).With("query", query).Warnf("fetch failed, keeping previous results: %v", err)
			c.Dispatch(FetchFailed{Seq: seq, Err: err})
		default:
			c.Dispatch(CandidatesLoaded{Seq: seq, Candidates: res})
		}
	}
}

// Close cancels pending fetches and waits for running ones to finish.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.debouncer.Close()
}
