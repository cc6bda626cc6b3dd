// Package feed accumulates pages of application records into one growing list.
//
// A Controller owns two pieces of state: the page cursor and the accumulated
// records. Each LoadNext call reserves a page index at call time, fetches it
// without holding the lock, and appends the result in arrival order. Calls may
// overlap; every overlapping call gets its own page index.
package feed

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/rshade/applist/internal/application"
	"github.com/rshade/applist/internal/fetch"
	"github.com/rshade/applist/internal/logging"
)

// DefaultPageSize is the number of records requested per page.
const DefaultPageSize = 5

// ErrExhausted is returned by LoadNext once StopOnEmptyPage has halted loading.
var ErrExhausted = errors.New("no more pages")

// ErrReset marks outcomes whose reservation predates the last Initialize.
var ErrReset = errors.New("controller was reinitialized while the page was loading")

// Outcome describes one LoadNext invocation.
type Outcome struct {
	// Page is the page index requested, or -1 when no request was issued.
	Page int
	// Received is the number of records the backend returned.
	Received int
	// Appended is the number of records added to the list.
	Appended int
	// Err is a *fetch.FetchError on fetch failure, or ErrExhausted.
	Err error
}

// OK reports whether the invocation appended its page.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Option configures a Controller.
type Option func(*Controller)

// WithPageSize sets the page size. Values below 1 are ignored.
func WithPageSize(size int) Option {
	return func(c *Controller) {
		if size >= 1 {
			c.pageSize = size
		}
	}
}

// WithAppendPolicy sets the append policy.
func WithAppendPolicy(p AppendPolicy) Option {
	return func(c *Controller) {
		c.appendPolicy = p
	}
}

// WithStopPolicy sets the stop policy.
func WithStopPolicy(p StopPolicy) Option {
	return func(c *Controller) {
		c.stopPolicy = p
	}
}

// Controller drives a fetch.PageFetcher and accumulates its pages.
// It is safe for concurrent use.
type Controller struct {
	fetcher      fetch.PageFetcher
	pageSize     int
	appendPolicy AppendPolicy
	stopPolicy   StopPolicy

	mu          sync.Mutex
	generation  int
	cursor      int
	released    []int
	inFlight    int
	items       []application.Record
	seen        map[application.ID]struct{}
	exhausted   bool
	lastFailure error
}

// New creates a Controller with cursor 0 and an empty list. Call Initialize
// to load the first page.
func New(fetcher fetch.PageFetcher, opts ...Option) *Controller {
	c := &Controller{
		fetcher:      fetcher,
		pageSize:     DefaultPageSize,
		appendPolicy: AppendAll,
		stopPolicy:   StopNever,
		items:        []application.Record{},
		seen:         make(map[application.ID]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Initialize resets the cursor and list, then loads the first page.
// Fetches still in flight from before the reset are discarded when they land.
func (c *Controller) Initialize(ctx context.Context) Outcome {
	c.mu.Lock()
	c.generation++
	c.cursor = 0
	c.released = nil
	c.inFlight = 0
	c.items = []application.Record{}
	c.seen = make(map[application.ID]struct{})
	c.exhausted = false
	c.lastFailure = nil
	c.mu.Unlock()

	return c.LoadNext(ctx)
}

// LoadNext requests the next page and appends it on success. On failure the
// list is untouched and the page index is released for the next call.
func (c *Controller) LoadNext(ctx context.Context) Outcome {
	page, gen, ok := c.reserve()
	if !ok {
		return Outcome{Page: -1, Err: ErrExhausted}
	}

	result := c.fetcher.FetchPage(ctx, page, c.pageSize)

	if !result.OK() {
		c.release(gen, page, result.Err)
		logger := logging.FromContext(ctx)
		logger.Warn().Ctx(ctx).
			Str("component", "feed").
			Int("page", page).
			Str("kind", result.Kind().String()).
			Err(result.Err).
			Msg("page load failed; list unchanged")
		return Outcome{Page: page, Err: result.Err}
	}

	appended, err := c.commit(gen, result.Records)
	return Outcome{
		Page:     page,
		Received: len(result.Records),
		Appended: appended,
		Err:      err,
	}
}

// reserve takes the lowest released page, or the cursor page.
func (c *Controller) reserve() (int, int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.exhausted {
		return 0, c.generation, false
	}

	var page int
	if len(c.released) > 0 {
		page = c.released[0]
		c.released = c.released[1:]
	} else {
		page = c.cursor
		c.cursor++
	}
	c.inFlight++
	return page, c.generation, true
}

// release returns page to the pool after a failed fetch. The cursor rolls
// back over any trailing run of released pages.
func (c *Controller) release(gen, page int, cause error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		return
	}
	c.inFlight--
	c.lastFailure = cause

	if page != c.cursor-1 {
		idx := sort.SearchInts(c.released, page)
		c.released = append(c.released, 0)
		copy(c.released[idx+1:], c.released[idx:])
		c.released[idx] = page
		return
	}

	c.cursor--
	for n := len(c.released); n > 0 && c.released[n-1] == c.cursor-1; n = len(c.released) {
		c.released = c.released[:n-1]
		c.cursor--
	}
}

// commit appends records per the append policy.
func (c *Controller) commit(gen int, records []application.Record) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		return 0, ErrReset
	}
	c.inFlight--

	appended := 0
	for _, r := range records {
		if c.appendPolicy == AppendUniqueByID && r.ID != "" {
			if _, dup := c.seen[r.ID]; dup {
				continue
			}
		}
		if r.ID != "" {
			c.seen[r.ID] = struct{}{}
		}
		c.items = append(c.items, r)
		appended++
	}

	if c.stopPolicy == StopOnEmptyPage && len(records) == 0 {
		c.exhausted = true
	}
	return appended, nil
}

// Cursor returns the index of the next page that would be requested.
func (c *Controller) Cursor() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.released) > 0 {
		return c.released[0]
	}
	return c.cursor
}

// Items returns a copy of the accumulated records.
func (c *Controller) Items() []application.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]application.Record, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of accumulated records.
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// InFlight returns the number of fetches currently outstanding.
func (c *Controller) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Exhausted reports whether the stop policy has halted loading.
func (c *Controller) Exhausted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exhausted
}

// LastFailure returns the most recent fetch failure, or nil.
func (c *Controller) LastFailure() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastFailure
}

// PageSize returns the configured page size.
func (c *Controller) PageSize() int {
	return c.pageSize
}

// Policies returns the configured append and stop policies.
func (c *Controller) Policies() (AppendPolicy, StopPolicy) {
	return c.appendPolicy, c.stopPolicy
}
