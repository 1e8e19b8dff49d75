package window

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/csheth/artscout/internal/artic"
)

type stubSource struct {
	mu         sync.Mutex
	calls      []int
	failures   map[int]error
	totalPages int
}

func (s *stubSource) Page(_ context.Context, page int) (Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, page)
	if err := s.failures[page]; err != nil {
		delete(s.failures, page)
		return Batch{}, err
	}
	if s.totalPages > 0 && page > s.totalPages {
		return Batch{Records: []artic.Artwork{}, TotalPages: s.totalPages, TotalKnown: true}, nil
	}
	records := make([]artic.Artwork, artic.PageSize)
	for i := range records {
		records[i] = artic.Artwork{ID: page*100 + i, ImageID: "img"}
	}
	batch := Batch{Records: records}
	if s.totalPages > 0 {
		batch.TotalPages, batch.TotalKnown = s.totalPages, true
	}
	return batch, nil
}

func (s *stubSource) Calls() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.calls...)
}

var (
	atTop    = Metrics{VisibleHeight: 20, ScrollOffset: 0, ContentHeight: 200}
	atMiddle = Metrics{VisibleHeight: 20, ScrollOffset: 80, ContentHeight: 200}
	atBottom = Metrics{VisibleHeight: 20, ScrollOffset: 180, ContentHeight: 200}
)

func newController(t *testing.T, src PageSource, opts Options) *Controller {
	t.Helper()
	c, err := New(src, opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

// run drives one extension through Fetch and Apply the way the TUI does.
func run(t *testing.T, c *Controller, ext Extension) error {
	t.Helper()
	batch, err := c.Fetch(context.Background(), ext)
	return c.Apply(ext, batch, err)
}

func start(t *testing.T, c *Controller) {
	t.Helper()
	ext, ok := c.Start()
	if !ok {
		t.Fatalf("Start() did not grant the initial load")
	}
	if err := run(t, c, ext); err != nil {
		t.Fatalf("initial load: %v", err)
	}
}

func TestNewValidatesOptions(t *testing.T) {
	t.Parallel()

	if _, err := New(&stubSource{}, Options{StartingPage: 0}); err == nil {
		t.Fatalf("New() accepted starting page 0")
	}
	if _, err := New(&stubSource{}, Options{StartingPage: 1, PageLimit: -1}); err == nil {
		t.Fatalf("New() accepted a negative page limit")
	}
	if _, err := New(nil, Options{StartingPage: 1}); err == nil {
		t.Fatalf("New() accepted a nil source")
	}
}

func TestStartLoadsStartingPage(t *testing.T) {
	t.Parallel()

	src := &stubSource{}
	c := newController(t, src, Options{StartingPage: 2})
	ext, ok := c.Start()
	if !ok || ext.Direction != Initial || ext.Page != 2 {
		t.Fatalf("Start() = %+v, %v", ext, ok)
	}
	if snap := c.Snapshot(); snap.State != Loading || !snap.Locked() {
		t.Fatalf("state after Start = %v", snap.State)
	}
	if err := run(t, c, ext); err != nil {
		t.Fatalf("apply: %v", err)
	}
	focal, ok := c.Focal()
	if !ok || focal.Number != 2 || len(focal.Records) != artic.PageSize {
		t.Fatalf("Focal() = %+v, %v", focal, ok)
	}
	if _, again := c.Start(); again {
		t.Fatalf("Start() granted a second load of a loaded page")
	}
}

func TestBurstOfBottomSignalsGrantsOneExtension(t *testing.T) {
	t.Parallel()

	src := &stubSource{}
	c := newController(t, src, Options{StartingPage: 1})
	start(t, c)

	ext, ok := c.OnScroll(atBottom)
	if !ok || ext.Direction != Forward || ext.Page != 2 {
		t.Fatalf("first OnScroll = %+v, %v", ext, ok)
	}
	for i := 0; i < 10; i++ {
		if _, ok := c.OnScroll(atBottom); ok {
			t.Fatalf("OnScroll granted a second extension while locked (iteration %d)", i)
		}
	}
	if err := run(t, c, ext); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := c.Snapshot().CurrentPage; got != 2 {
		t.Fatalf("current page = %d, want 2", got)
	}
	if calls := src.Calls(); !reflect.DeepEqual(calls, []int{1, 2}) {
		t.Fatalf("source calls = %v, want [1 2]", calls)
	}
}

func TestConcurrentScrollGrantsOneExtension(t *testing.T) {
	t.Parallel()

	c := newController(t, &stubSource{}, Options{StartingPage: 1})
	start(t, c)

	var wg sync.WaitGroup
	var mu sync.Mutex
	granted := 0
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := c.OnScroll(atBottom); ok {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if granted != 1 {
		t.Fatalf("granted %d extensions, want 1", granted)
	}
}

func TestBackwardBlockedAtStartingPage(t *testing.T) {
	t.Parallel()

	src := &stubSource{}
	c := newController(t, src, Options{StartingPage: 2})
	start(t, c)

	if ext, ok := c.OnScroll(atTop); ok {
		t.Fatalf("OnScroll(top) at starting page granted %+v", ext)
	}
	if snap := c.Snapshot(); snap.CurrentPage != 2 || snap.State != Idle {
		t.Fatalf("snapshot = %+v", snap)
	}
	if calls := src.Calls(); !reflect.DeepEqual(calls, []int{2}) {
		t.Fatalf("source calls = %v, want [2]", calls)
	}
}

func TestBlockedTopFallsThroughToBottom(t *testing.T) {
	t.Parallel()

	c := newController(t, &stubSource{}, Options{StartingPage: 1})
	start(t, c)

	short := Metrics{VisibleHeight: 20, ScrollOffset: 0, ContentHeight: 15}
	ext, ok := c.OnScroll(short)
	if !ok || ext.Direction != Forward {
		t.Fatalf("OnScroll(short content) = %+v, %v; want forward", ext, ok)
	}
}

func TestBackwardExtensionRefetchesEvictedPage(t *testing.T) {
	t.Parallel()

	src := &stubSource{}
	c := newController(t, src, Options{StartingPage: 1, Retain: 2})
	start(t, c)
	for i := 0; i < 2; i++ {
		fwd, _ := c.OnScroll(atBottom)
		if err := run(t, c, fwd); err != nil {
			t.Fatalf("forward %d: %v", i, err)
		}
	}
	if got := c.Snapshot().Loaded; !reflect.DeepEqual(got, []int{2, 3}) {
		t.Fatalf("loaded = %v, want [2 3]", got)
	}

	back, ok := c.OnScroll(atTop)
	if !ok || back.Direction != Backward || back.Page != 1 {
		t.Fatalf("OnScroll(top) = %+v, %v", back, ok)
	}
	if err := run(t, c, back); err != nil {
		t.Fatalf("backward: %v", err)
	}
	snap := c.Snapshot()
	if snap.CurrentPage != 1 || !reflect.DeepEqual(snap.Loaded, []int{1, 2}) {
		t.Fatalf("snapshot = %+v, want focus 1 with [1 2]", snap)
	}
	if calls := src.Calls(); !reflect.DeepEqual(calls, []int{1, 2, 3, 1}) {
		t.Fatalf("source calls = %v, want [1 2 3 1]", calls)
	}
	if _, ok := c.OnScroll(atTop); ok {
		t.Fatalf("backward past the starting page was granted")
	}
}

func TestExtensionsTargetWindowEdges(t *testing.T) {
	t.Parallel()

	src := &stubSource{}
	c := newController(t, src, Options{StartingPage: 1, Retain: 3})
	start(t, c)
	for i := 0; i < 5; i++ {
		fwd, ok := c.OnScroll(atBottom)
		if !ok {
			t.Fatalf("forward %d not granted", i)
		}
		if err := run(t, c, fwd); err != nil {
			t.Fatalf("forward %d: %v", i, err)
		}
	}
	if snap := c.Snapshot(); snap.CurrentPage != 6 || !reflect.DeepEqual(snap.Loaded, []int{4, 5, 6}) {
		t.Fatalf("snapshot = %+v, want focus 6 with [4 5 6]", snap)
	}

	for _, want := range [][]int{{3, 4, 5}, {2, 3, 4}} {
		back, ok := c.OnScroll(atTop)
		if !ok || back.Direction != Backward || back.Page != want[0] {
			t.Fatalf("OnScroll(top) = %+v, %v; want backward to page %d", back, ok, want[0])
		}
		if err := run(t, c, back); err != nil {
			t.Fatalf("backward: %v", err)
		}
		if got := c.Snapshot().Loaded; !reflect.DeepEqual(got, want) {
			t.Fatalf("loaded = %v, want %v", got, want)
		}
	}

	fwd, ok := c.OnScroll(atBottom)
	if !ok || fwd.Page != 5 {
		t.Fatalf("OnScroll(bottom) = %+v, %v; want forward to page 5", fwd, ok)
	}
}

func TestFailedFetchLeavesWindowUnchanged(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection reset")
	src := &stubSource{failures: map[int]error{3: boom}}
	c := newController(t, src, Options{StartingPage: 2})
	start(t, c)
	before := c.Snapshot()

	ext, ok := c.OnScroll(atBottom)
	if !ok {
		t.Fatalf("OnScroll(bottom) not granted")
	}
	if err := run(t, c, ext); !errors.Is(err, boom) {
		t.Fatalf("Apply() error = %v, want %v", err, boom)
	}
	after := c.Snapshot()
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("snapshot changed after failure:\nbefore %+v\nafter  %+v", before, after)
	}

	retry, ok := c.OnScroll(atBottom)
	if !ok || retry.Page != 3 {
		t.Fatalf("retry after failure = %+v, %v", retry, ok)
	}
	if err := run(t, c, retry); err != nil {
		t.Fatalf("retry apply: %v", err)
	}
	if got := c.Snapshot().CurrentPage; got != 3 {
		t.Fatalf("current page = %d, want 3", got)
	}
}

func TestFailedInitialLoadRetriesOnScroll(t *testing.T) {
	t.Parallel()

	src := &stubSource{failures: map[int]error{1: errors.New("offline")}}
	c := newController(t, src, Options{StartingPage: 1})
	ext, _ := c.Start()
	if err := run(t, c, ext); err == nil {
		t.Fatalf("initial load should fail")
	}
	if _, ok := c.Focal(); ok {
		t.Fatalf("focal page should not be loaded")
	}

	retry, ok := c.OnScroll(Metrics{VisibleHeight: 20, ScrollOffset: 0, ContentHeight: 1})
	if !ok || retry.Direction != Initial || retry.Page != 1 {
		t.Fatalf("OnScroll() after failed initial load = %+v, %v", retry, ok)
	}
}

func TestForwardStopsAtPageLimit(t *testing.T) {
	t.Parallel()

	c := newController(t, &stubSource{}, Options{StartingPage: 1, PageLimit: 2})
	start(t, c)

	ext, ok := c.OnScroll(atBottom)
	if !ok {
		t.Fatalf("forward to page 2 not granted")
	}
	if err := run(t, c, ext); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if ext, ok := c.OnScroll(atBottom); ok {
		t.Fatalf("forward past page limit granted %+v", ext)
	}
}

func TestForwardStopsAtPageCap(t *testing.T) {
	t.Parallel()

	c := newController(t, &stubSource{}, Options{StartingPage: DefaultPageCap - 1})
	start(t, c)

	ext, ok := c.OnScroll(atBottom)
	if !ok || ext.Page != DefaultPageCap {
		t.Fatalf("forward to the cap = %+v, %v", ext, ok)
	}
	if err := run(t, c, ext); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if ext, ok := c.OnScroll(atBottom); ok {
		t.Fatalf("forward past page %d granted %+v", DefaultPageCap, ext)
	}
}

func TestForwardStopsAtRemoteTotal(t *testing.T) {
	t.Parallel()

	c := newController(t, &stubSource{totalPages: 2}, Options{StartingPage: 1})
	start(t, c)
	if got := c.Snapshot().Ceiling; got != 2 {
		t.Fatalf("ceiling = %d, want 2", got)
	}
	ext, _ := c.OnScroll(atBottom)
	if err := run(t, c, ext); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, ok := c.OnScroll(atBottom); ok {
		t.Fatalf("forward past the remote total was granted")
	}
}

func TestEmptyForwardPageEndsList(t *testing.T) {
	t.Parallel()

	src := &emptyAfterSource{last: 1}
	c := newController(t, src, Options{StartingPage: 1})
	start(t, c)

	ext, ok := c.OnScroll(atBottom)
	if !ok {
		t.Fatalf("forward not granted")
	}
	if err := run(t, c, ext); err != nil {
		t.Fatalf("apply: %v", err)
	}
	snap := c.Snapshot()
	if snap.CurrentPage != 1 || snap.Ceiling != 1 {
		t.Fatalf("snapshot after empty page = %+v", snap)
	}
	if !reflect.DeepEqual(snap.Loaded, []int{1}) {
		t.Fatalf("loaded = %v, want [1]", snap.Loaded)
	}
}

type emptyAfterSource struct{ last int }

func (s *emptyAfterSource) Page(_ context.Context, page int) (Batch, error) {
	if page > s.last {
		return Batch{}, nil
	}
	return Batch{Records: []artic.Artwork{{ID: page, ImageID: "x"}}}, nil
}

func TestSlidingWindowEvictsFarthestPage(t *testing.T) {
	t.Parallel()

	c := newController(t, &stubSource{}, Options{StartingPage: 1, Retain: 3})
	start(t, c)
	for i := 0; i < 4; i++ {
		ext, ok := c.OnScroll(atBottom)
		if !ok {
			t.Fatalf("forward %d not granted", i)
		}
		if err := run(t, c, ext); err != nil {
			t.Fatalf("apply %d: %v", i, err)
		}
	}
	snap := c.Snapshot()
	if snap.CurrentPage != 5 {
		t.Fatalf("current page = %d, want 5", snap.CurrentPage)
	}
	if !reflect.DeepEqual(snap.Loaded, []int{3, 4, 5}) {
		t.Fatalf("loaded = %v, want [3 4 5]", snap.Loaded)
	}
	pages := c.Pages()
	if len(pages) != 3 || pages[0].Number != 3 || pages[2].Number != 5 {
		t.Fatalf("Pages() = %+v", pages)
	}
}

func TestCloseDiscardsLateResults(t *testing.T) {
	t.Parallel()

	c := newController(t, &stubSource{}, Options{StartingPage: 1})
	start(t, c)
	ext, _ := c.OnScroll(atBottom)
	batch, err := c.Fetch(context.Background(), ext)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	c.Close()
	if err := c.Apply(ext, batch, nil); !errors.Is(err, ErrClosed) {
		t.Fatalf("Apply() after Close = %v, want ErrClosed", err)
	}
	if _, ok := c.OnScroll(atBottom); ok {
		t.Fatalf("closed controller granted an extension")
	}
	if _, err := c.Fetch(context.Background(), ext); !errors.Is(err, ErrClosed) {
		t.Fatalf("Fetch() after Close = %v, want ErrClosed", err)
	}
}

func TestApplyRejectsStaleExtension(t *testing.T) {
	t.Parallel()

	c := newController(t, &stubSource{}, Options{StartingPage: 1})
	start(t, c)
	ext, _ := c.OnScroll(atBottom)
	if err := run(t, c, ext); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := c.Apply(ext, Batch{}, nil); !errors.Is(err, ErrStale) {
		t.Fatalf("second Apply() = %v, want ErrStale", err)
	}
}

func TestNeutralScrollIsIgnored(t *testing.T) {
	t.Parallel()

	src := &stubSource{}
	c := newController(t, src, Options{StartingPage: 1})
	start(t, c)
	if _, ok := c.OnScroll(atMiddle); ok {
		t.Fatalf("neutral scroll granted an extension")
	}
	if _, ok := c.OnScroll(Metrics{VisibleHeight: -1, ScrollOffset: 0, ContentHeight: 0}); ok {
		t.Fatalf("malformed metrics granted an extension")
	}
}
