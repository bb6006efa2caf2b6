package segment

import (
	"cmp"
	"fmt"
	"slices"
)

// Segment is the half-open range [Offset, Offset+Count). Negative offsets or
// counts are not checked and give undefined results.
type Segment struct {
	Offset, Count int
}

// Positioned is anything that can be ordered by a start offset.
type Positioned interface {
	Start() int
}

var _ = (Positioned)(Segment{})

func New(offset, count int) Segment {
	return Segment{Offset: offset, Count: count}
}

func (s Segment) Start() int {
	return s.Offset
}

func (s Segment) End() int {
	return s.Offset + s.Count
}

func (s Segment) Empty() bool {
	return s.Count == 0
}

func (s Segment) Contains(i int) bool {
	return i >= s.Offset && i < s.End()
}

func (s Segment) String() string {
	return fmt.Sprintf("[%d+%d)", s.Offset, s.Count)
}

// Overlaps reports whether s and other share a point. Segments that only
// touch (one ends where the other starts) count as overlapping.
func (s Segment) Overlaps(other Segment) bool {
	if s.Offset == other.Offset {
		return true
	}
	first, second := s, other
	if second.Offset < first.Offset {
		first, second = second, first
	}
	return first.End() >= second.Offset
}

// Split cuts s at index |at|. No split happens when |at| is at or before the
// start, or at or after the last index (Offset+Count-1); the result is then a
// single copy of s.
func (s Segment) Split(at int) []Segment {
	if at <= s.Offset || at >= s.Offset+s.Count-1 {
		return []Segment{s}
	}
	firstCount := at - s.Offset
	return []Segment{
		{Offset: s.Offset, Count: firstCount},
		{Offset: at, Count: s.Count - firstCount},
	}
}

// Subtract removes the leading sub-range |other| from s. |other| is assumed to
// start at s.Offset; only its count is used, and a count larger than s.Count
// yields a negative count.
func (s Segment) Subtract(other *Segment) Segment {
	if other == nil {
		return s
	}
	return Segment{Offset: s.Offset + other.Count, Count: s.Count - other.Count}
}

// Sort returns a copy of segs, stable sorted by start offset.
func Sort[S ~[]E, E Positioned](segs S) S {
	sorted := slices.Clone(segs)
	slices.SortStableFunc(sorted, func(a, b E) int {
		return cmp.Compare(a.Start(), b.Start())
	})
	return sorted
}

// Intersect returns the offsets shared by s and other. Unlike Overlaps,
// touching segments do not intersect; ok is false when nothing is shared.
func (s Segment) Intersect(other Segment) (Segment, bool) {
	start := max(s.Offset, other.Offset)
	end := min(s.End(), other.End())
	if start >= end {
		return Segment{}, false
	}
	return Segment{Offset: start, Count: end - start}, true
}
