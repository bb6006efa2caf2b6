package coverage

import (
	"log"

	"github.com/akmistry/go-util/radix-tree"

	"github.com/akmistry/lazyrange/internal/segment"
)

type extent struct {
	offset, length uint64
}

func (e *extent) Key() uint64 {
	return e.offset
}

func (e *extent) end() uint64 {
	return e.offset + e.length
}

func (e *extent) contains(off uint64) bool {
	return off >= e.offset && off < e.end()
}

func (e *extent) segment() segment.Segment {
	return segment.New(int(e.offset), int(e.length))
}

var _ = (Index)((*ExtentIndex)(nil))

// ExtentIndex keeps loaded runs as extents in a radix tree. Extents never
// overlap or touch; Add coalesces them.
type ExtentIndex struct {
	tree radix.Tree
}

func NewExtentIndex() *ExtentIndex {
	return &ExtentIndex{}
}

func (x *ExtentIndex) Begin() (begin int, ok bool) {
	x.tree.Ascend(func(i radix.Item) bool {
		begin = int(i.(*extent).offset)
		ok = true
		return false
	})
	return
}

func (x *ExtentIndex) End() (end int) {
	x.tree.Descend(func(i radix.Item) bool {
		end = int(i.(*extent).end())
		return false
	})
	return
}

func (x *ExtentIndex) containing(off uint64) (e *extent) {
	x.tree.DescendLessOrEqualI(off, func(i radix.Item) bool {
		ie := i.(*extent)
		if ie.contains(off) {
			e = ie
		}
		return false
	})
	return
}

func (x *ExtentIndex) Contains(i int) bool {
	return x.containing(uint64(i)) != nil
}

func (x *ExtentIndex) NextLoaded(i int) (next int, ok bool) {
	if x.Contains(i) {
		return i, true
	}
	x.tree.AscendGreaterOrEqualI(uint64(i), func(item radix.Item) bool {
		next = int(item.(*extent).offset)
		ok = true
		return false
	})
	return
}

func (x *ExtentIndex) NextMissing(i int) int {
	// Extents don't touch, so the end of the containing extent is missing.
	if e := x.containing(uint64(i)); e != nil {
		return int(e.end())
	}
	return i
}

func (x *ExtentIndex) Add(seg segment.Segment) {
	if seg.Count <= 0 {
		return
	}

	merged := seg
	var absorbed []*extent
	x.tree.DescendLessOrEqualI(uint64(seg.End()), func(i radix.Item) bool {
		ie := i.(*extent)
		if !seg.Overlaps(ie.segment()) {
			return false
		}
		absorbed = append(absorbed, ie)
		return true
	})
	for _, ie := range absorbed {
		start := min(merged.Offset, int(ie.offset))
		end := max(merged.End(), int(ie.end()))
		merged = segment.New(start, end-start)
		if x.tree.Delete(ie) != ie {
			log.Panicf("extent not deleted: %+v", ie)
		}
	}

	newItem := &extent{offset: uint64(merged.Offset), length: uint64(merged.Count)}
	if old := x.tree.ReplaceOrInsert(newItem); old != nil {
		log.Panicf("unexpected old extent: %+v, adding new extent: %+v", old, newItem)
	}
}

func (x *ExtentIndex) Remove(seg segment.Segment) {
	if seg.Count <= 0 {
		return
	}

	start := uint64(seg.Offset)
	end := uint64(seg.End())
	var overlaps []*extent
	x.tree.DescendLessOrEqualI(end, func(i radix.Item) bool {
		ie := i.(*extent)
		if ie.offset == end {
			return true
		} else if ie.end() <= start {
			return false
		}
		overlaps = append(overlaps, ie)
		return true
	})

	for _, ie := range overlaps {
		ieEnd := ie.end()
		if ieEnd > end {
			tail := &extent{offset: end, length: ieEnd - end}
			if old := x.tree.ReplaceOrInsert(tail); old != nil {
				log.Panicf("unexpected old extent: %+v", old)
			}
		}
		if ie.offset < start {
			// Truncate in place; the key is unchanged.
			ie.length = start - ie.offset
			continue
		}
		if x.tree.Delete(ie) != ie {
			log.Panicf("extent not deleted: %+v", ie)
		}
	}
}

func (x *ExtentIndex) Iterate(start int, fn func(segment.Segment) bool) {
	first := uint64(start)
	if e := x.containing(first); e != nil {
		first = e.offset
	}

	x.tree.AscendGreaterOrEqualI(first, func(item radix.Item) bool {
		s := item.(*extent).segment()
		if s.Offset < start {
			s = segment.New(start, s.End()-start)
		}
		return fn(s)
	})
}
