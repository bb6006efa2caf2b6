package coverage

import (
	"github.com/akmistry/lazyrange/internal/segment"
)

// Index records which offsets of an ordered dataset are loaded.
type Index interface {
	Begin() (begin int, ok bool)
	End() (end int)

	Add(seg segment.Segment)
	Remove(seg segment.Segment)
	Contains(i int) bool

	// First loaded offset >= i.
	NextLoaded(i int) (next int, ok bool)
	// First missing offset >= i.
	NextMissing(i int) (next int)

	// Iterate calls fn with each maximal loaded run at or after start, in
	// offset order. A run containing start is clipped to begin at start.
	Iterate(start int, fn func(segment.Segment) bool)
}

// Loaded returns the loaded runs within window, clipped to it.
func Loaded(idx Index, window segment.Segment) []segment.Segment {
	var runs []segment.Segment
	if window.Empty() {
		return nil
	}
	end := window.End()
	idx.Iterate(window.Offset, func(s segment.Segment) bool {
		if s.Offset >= end {
			return false
		}
		if s.End() > end {
			s.Count = end - s.Offset
		}
		runs = append(runs, s)
		return true
	})
	return runs
}

// Gaps returns the parts of window which are not loaded.
func Gaps(idx Index, window segment.Segment) []segment.Segment {
	var gaps []segment.Segment
	pos := window.Offset
	for _, s := range Loaded(idx, window) {
		if s.Offset > pos {
			gaps = append(gaps, segment.New(pos, s.Offset-pos))
		}
		pos = s.End()
	}
	if pos < window.End() {
		gaps = append(gaps, segment.New(pos, window.End()-pos))
	}
	return gaps
}

// Covers reports whether every offset in window is loaded.
func Covers(idx Index, window segment.Segment) bool {
	return idx.NextMissing(window.Offset) >= window.End()
}
