package window

import (
	"log/slog"
	"slices"

	"github.com/akmistry/lazyrange/internal/coverage"
	"github.com/akmistry/lazyrange/internal/request"
	"github.com/akmistry/lazyrange/internal/segment"
	"github.com/akmistry/lazyrange/internal/util"
)

// Span is a part of a window with a single status.
type Span struct {
	segment.Segment
	Status request.Status
}

type TrackerOptions struct {
	// Records loaded offsets. Defaults to a new coverage.ExtentIndex.
	Index coverage.Index
}

type requestStore = request.Store[segment.Segment, segment.Segment, error]
type requestEntry = request.Entry[segment.Segment, error]

// Tracker follows fetches of segments of an ordered dataset. Each fetched
// segment has a request entry whose state is the segment itself; completed
// fetches are also recorded in a coverage index.
//
// Tracker is not safe for concurrent use.
type Tracker struct {
	requests *requestStore
	loaded   coverage.Index
}

func segmentKey(s segment.Segment) string {
	return s.String()
}

func NewTracker(opts TrackerOptions) *Tracker {
	util.SetDefaultIfZero[coverage.Index](&opts.Index, coverage.NewExtentIndex())
	return &Tracker{
		requests: request.NewStore[segment.Segment, segment.Segment, error](
			request.StoreOptions[segment.Segment, segment.Segment]{Key: segmentKey}),
		loaded: opts.Index,
	}
}

// Subscribe registers fn to be called once after every mutating call.
func (t *Tracker) Subscribe(fn func()) (unsubscribe func()) {
	return t.requests.Subscribe(fn)
}

func (t *Tracker) set(seg segment.Segment, status request.Status) {
	t.requests.Update(seg, request.NewEntry[segment.Segment, error](status, seg))
}

func (t *Tracker) Start(seg segment.Segment) {
	slog.Debug("Tracker: start", "segment", seg)
	t.set(seg, request.StatusInProgress)
}

func (t *Tracker) Finish(seg segment.Segment) {
	slog.Debug("Tracker: finish", "segment", seg)
	t.loaded.Add(seg)
	t.set(seg, request.StatusDone)
}

func (t *Tracker) Fail(seg segment.Segment, err error) {
	slog.Warn("Tracker: fetch failed", "segment", seg, "error", err)
	t.requests.Update(seg, request.NewErrorEntry(seg, err))
}

func (t *Tracker) NotFound(seg segment.Segment) {
	slog.Debug("Tracker: not found", "segment", seg)
	t.set(seg, request.StatusNotFound)
}

// Cancel returns the request for seg to StatusNone. The request entry is
// kept.
func (t *Tracker) Cancel(seg segment.Segment) {
	slog.Debug("Tracker: cancel", "segment", seg)
	t.requests.SetStatus(seg, request.StatusNone)
}

// Request returns the request entry for exactly seg.
func (t *Tracker) Request(seg segment.Segment) requestEntry {
	return t.requests.Get(seg)
}

func (t *Tracker) IsStatus(seg segment.Segment, statuses ...request.Status) bool {
	return t.requests.IsStatus(seg, statuses...)
}

// Err returns the error recorded by Fail for exactly seg.
func (t *Tracker) Err(seg segment.Segment) (error, bool) {
	return t.requests.Get(seg).Err()
}

// InFlight returns the segments with a request in progress, sorted by offset.
func (t *Tracker) InFlight() []segment.Segment {
	var segs []segment.Segment
	t.requests.ForEach(func(e requestEntry) {
		if e.Status() == request.StatusInProgress {
			segs = append(segs, e.State())
		}
	})
	return segment.Sort(segs)
}

// Compact drops finished request entries. Their segments stay loaded.
func (t *Tracker) Compact() {
	before := t.requests.Len()
	t.requests.RemoveWhere(func(e requestEntry) bool {
		return e.Status() != request.StatusDone
	})
	slog.Debug("Tracker: compact", "removed", before-t.requests.Len())
}

// Invalidate marks seg as not loaded and drops every request entry sharing
// an offset with it.
func (t *Tracker) Invalidate(seg segment.Segment) {
	slog.Debug("Tracker: invalidate", "segment", seg)
	t.loaded.Remove(seg)
	t.requests.RemoveWhere(func(e requestEntry) bool {
		_, ok := e.State().Intersect(seg)
		return !ok
	})
}

func (t *Tracker) Reset() {
	if begin, ok := t.loaded.Begin(); ok {
		t.loaded.Remove(segment.New(begin, t.loaded.End()-begin))
	}
	t.requests.Reset()
}

// Precedence when spans with different statuses cover the same offset.
var statusRank = map[request.Status]int{
	request.StatusNone:       0,
	request.StatusNotFound:   1,
	request.StatusError:      2,
	request.StatusInProgress: 3,
	request.StatusDone:       4,
}

// Status splits window into spans by status. Loaded offsets are done,
// whatever their request entries say. Elsewhere the highest ranked request
// covering an offset wins: in progress, then error, then not found.
// Offsets with no request are none. Adjacent spans never share a status.
func (t *Tracker) Status(window segment.Segment) []Span {
	if window.Count <= 0 {
		return nil
	}

	var covering []Span
	for _, s := range coverage.Loaded(t.loaded, window) {
		covering = append(covering, Span{Segment: s, Status: request.StatusDone})
	}
	t.requests.ForEach(func(e requestEntry) {
		if e.Status() == request.StatusNone || e.Status() == request.StatusDone {
			return
		}
		if s, ok := e.State().Intersect(window); ok {
			covering = append(covering, Span{Segment: s, Status: e.Status()})
		}
	})

	points := []int{window.Offset, window.End()}
	for _, c := range covering {
		points = append(points, c.Offset, c.End())
	}
	slices.Sort(points)
	points = slices.Compact(points)

	var spans []Span
	for i := 0; i+1 < len(points); i++ {
		part := segment.New(points[i], points[i+1]-points[i])
		status := request.StatusNone
		for _, c := range covering {
			if c.Contains(part.Offset) && statusRank[c.Status] > statusRank[status] {
				status = c.Status
			}
		}
		if last := util.LastPtr(spans); last != nil && last.Status == status {
			last.Count += part.Count
			continue
		}
		spans = append(spans, Span{Segment: part, Status: status})
	}
	return spans
}

// Missing returns the parts of window which are neither loaded nor have a
// request outstanding or settled.
func (t *Tracker) Missing(window segment.Segment) []segment.Segment {
	var missing []segment.Segment
	for _, s := range t.Status(window) {
		if s.Status == request.StatusNone {
			missing = append(missing, s.Segment)
		}
	}
	return missing
}
