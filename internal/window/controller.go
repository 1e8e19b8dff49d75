// Package window turns a paginated remote catalog into one continuous list.
// A Controller holds a contiguous run of pages, decides from scroll samples
// when to extend it at either edge, and guarantees at most one extension
// is outstanding at a time. Only a bounded number of pages stay in memory.
package window

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"

	"github.com/csheth/artscout/internal/artic"
)

const (
	// DefaultPageCap bounds forward paging. The catalog refuses to page past
	// 10,000 results, which is 1000 pages of artic.PageSize.
	DefaultPageCap = 1000
	// DefaultRetain is how many pages a controller keeps in memory.
	DefaultRetain = 3
)

var (
	// ErrClosed is returned for results that arrive after Close.
	ErrClosed = errors.New("window: controller closed")
	// ErrStale is returned for results of an extension that is no longer pending.
	ErrStale = errors.New("window: extension is not pending")
)

// State is the controller's extension state.
type State int

const (
	Idle State = iota
	Loading
	ExtendingForward
	ExtendingBackward
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case ExtendingForward:
		return "extending-forward"
	case ExtendingBackward:
		return "extending-backward"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Direction says which way an extension moves the focal page.
type Direction int

const (
	// Initial loads the focal page itself without moving it.
	Initial Direction = iota
	Forward
	Backward
)

func (d Direction) String() string {
	switch d {
	case Initial:
		return "initial"
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// Extension is a granted request to load one page. Forward extensions
// append below the last loaded page and backward ones prepend above the
// first, so a renderer keeps its place by holding the visible records
// still while the page is spliced in.
type Extension struct {
	Seq       uint64
	Direction Direction
	Page      int
}

// Options configures a Controller. Zero values select the defaults.
type Options struct {
	StartingPage int
	// PageLimit is an optional inclusive ceiling for the focal page.
	PageLimit int
	PageCap   int
	Retain    int
	Threshold float64
	Logger    *slog.Logger
}

// Page is one loaded page of records.
type Page struct {
	Number  int
	Records []artic.Artwork
}

// Snapshot is a read-only view of the controller state.
type Snapshot struct {
	State        State
	StartingPage int
	CurrentPage  int
	Ceiling      int
	Loaded       []int
	Closed       bool
}

// Locked reports whether an extension is outstanding.
func (s Snapshot) Locked() bool { return s.State != Idle }

// Controller owns the window state of one mounted list.
type Controller struct {
	mu     sync.Mutex
	source PageSource
	logger *slog.Logger

	startingPage int
	pageLimit    int
	pageCap      int
	retain       int
	threshold    float64

	currentPage int
	remoteLimit int
	remoteKnown bool
	loaded      map[int][]artic.Artwork
	state       State
	pending     Extension
	seq         uint64
	closed      bool
}

// New creates a controller focused on opts.StartingPage. Nothing is loaded
// until Start is called.
func New(source PageSource, opts Options) (*Controller, error) {
	if source == nil {
		return nil, errors.New("window: page source is required")
	}
	if opts.StartingPage < 1 {
		return nil, fmt.Errorf("window: starting page must be >= 1, got %d", opts.StartingPage)
	}
	if opts.PageLimit < 0 {
		return nil, fmt.Errorf("window: page limit must not be negative, got %d", opts.PageLimit)
	}
	if opts.PageCap <= 0 {
		opts.PageCap = DefaultPageCap
	}
	if opts.Retain <= 0 {
		opts.Retain = DefaultRetain
	}
	if opts.Threshold <= 0 {
		opts.Threshold = TriggerThreshold
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		source:       source,
		logger:       logger.With("component", "window"),
		startingPage: opts.StartingPage,
		pageLimit:    opts.PageLimit,
		pageCap:      opts.PageCap,
		retain:       opts.Retain,
		threshold:    opts.Threshold,
		currentPage:  opts.StartingPage,
		loaded:       make(map[int][]artic.Artwork, opts.Retain+1),
	}, nil
}

// Start requests the focal page when it is not loaded yet. It is also the
// manual retry after a failed initial load.
func (c *Controller) Start() (Extension, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.state != Idle {
		return Extension{}, false
	}
	if _, ok := c.loaded[c.currentPage]; ok {
		return Extension{}, false
	}
	return c.beginLocked(Initial, c.currentPage), true
}

// OnScroll classifies a scroll sample and grants at most one extension.
// Samples that arrive while an extension is outstanding are dropped.
func (c *Controller) OnScroll(m Metrics) (Extension, bool) {
	pos := Classify(m, c.threshold)
	if pos == Neutral {
		return Extension{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return Extension{}, false
	}
	if c.state != Idle {
		c.logger.Debug("scroll dropped while extending", "position", pos, "state", c.state)
		return Extension{}, false
	}
	if _, ok := c.loaded[c.currentPage]; !ok {
		return c.beginLocked(Initial, c.currentPage), true
	}
	first, last := c.edgesLocked()
	if pos.Has(NearTop) && first > c.startingPage {
		return c.beginLocked(Backward, first-1), true
	}
	if pos.Has(NearBottom) && last < c.ceilingLocked() {
		return c.beginLocked(Forward, last+1), true
	}
	return Extension{}, false
}

// Fetch loads the page for ext from the source.
func (c *Controller) Fetch(ctx context.Context, ext Extension) (Batch, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Batch{}, ErrClosed
	}
	source := c.source
	c.mu.Unlock()
	return source.Page(ctx, ext.Page)
}

// Apply merges the outcome of ext. On failure the window is left exactly as
// it was before the extension and the lock is released; fetchErr is returned.
// A forward page that comes back empty marks the end of the list instead of
// moving the focus onto it.
func (c *Controller) Apply(ext Extension, batch Batch, fetchErr error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.state == Idle || ext.Seq != c.pending.Seq {
		return ErrStale
	}
	c.state = Idle
	c.pending = Extension{}

	if fetchErr != nil {
		c.logger.Warn("extension failed", "direction", ext.Direction, "page", ext.Page, "err", fetchErr)
		return fetchErr
	}
	if batch.TotalKnown {
		c.remoteLimit = batch.TotalPages
		c.remoteKnown = true
	}
	records := batch.Records
	if records == nil {
		records = []artic.Artwork{}
	}
	if ext.Direction == Forward && len(records) == 0 {
		c.remoteLimit = ext.Page - 1
		c.remoteKnown = true
		c.logger.Info("reached end of list", "page", ext.Page-1)
		return nil
	}
	c.loaded[ext.Page] = records
	c.currentPage = ext.Page
	c.evictLocked()
	c.logger.Debug("extension applied", "direction", ext.Direction, "page", ext.Page, "records", len(records), "loaded", c.loadedLocked())
	return nil
}

// Close releases the window. Results that arrive later are discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.state = Idle
	c.pending = Extension{}
	c.loaded = map[int][]artic.Artwork{}
}

// Focal returns the page in focus, if it has been loaded.
func (c *Controller) Focal() (Page, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	records, ok := c.loaded[c.currentPage]
	if !ok {
		return Page{Number: c.currentPage}, false
	}
	return Page{Number: c.currentPage, Records: slices.Clone(records)}, true
}

// Pages returns every loaded page in page order.
func (c *Controller) Pages() []Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	numbers := c.loadedLocked()
	pages := make([]Page, 0, len(numbers))
	for _, n := range numbers {
		pages = append(pages, Page{Number: n, Records: slices.Clone(c.loaded[n])})
	}
	return pages
}

// Snapshot captures the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		State:        c.state,
		StartingPage: c.startingPage,
		CurrentPage:  c.currentPage,
		Ceiling:      c.ceilingLocked(),
		Loaded:       c.loadedLocked(),
		Closed:       c.closed,
	}
}

func (c *Controller) beginLocked(dir Direction, page int) Extension {
	c.seq++
	ext := Extension{Seq: c.seq, Direction: dir, Page: page}
	c.pending = ext
	switch dir {
	case Forward:
		c.state = ExtendingForward
	case Backward:
		c.state = ExtendingBackward
	default:
		c.state = Loading
	}
	c.logger.Debug("extension granted", "direction", dir, "page", page, "seq", ext.Seq)
	return ext
}

// edgesLocked returns the first and last loaded page. The window is always
// contiguous and holds the focal page whenever anything is loaded.
func (c *Controller) edgesLocked() (first, last int) {
	first, last = c.currentPage, c.currentPage
	for page := range c.loaded {
		first = min(first, page)
		last = max(last, page)
	}
	return first, last
}

// ceilingLocked is the highest page the focus may move to.
func (c *Controller) ceilingLocked() int {
	ceiling := c.pageCap
	if c.pageLimit > 0 && c.pageLimit < ceiling {
		ceiling = c.pageLimit
	}
	if c.remoteKnown && c.remoteLimit < ceiling {
		ceiling = c.remoteLimit
	}
	return ceiling
}

// evictLocked drops the pages farthest from the focus until the window fits.
// Ties drop the higher page. The focal page is never dropped.
func (c *Controller) evictLocked() {
	for len(c.loaded) > c.retain {
		victim, farthest := 0, -1
		for page := range c.loaded {
			if page == c.currentPage {
				continue
			}
			distance := page - c.currentPage
			if distance < 0 {
				distance = -distance
			}
			if distance > farthest || (distance == farthest && page > victim) {
				victim, farthest = page, distance
			}
		}
		if farthest < 0 {
			return
		}
		delete(c.loaded, victim)
		c.logger.Debug("page evicted", "page", victim, "focus", c.currentPage)
	}
}

func (c *Controller) loadedLocked() []int {
	pages := make([]int, 0, len(c.loaded))
	for page := range c.loaded {
		pages = append(pages, page)
	}
	sort.Ints(pages)
	return pages
}
