package coverage

import (
	"log"

	"github.com/akmistry/go-util/bitmap"
	"github.com/bits-and-blooms/bitset"

	"github.com/akmistry/lazyrange/internal/segment"
)

const (
	leafShift = 8
	leafSize  = 1 << leafShift
	leafMask  = leafSize - 1
)

var _ = (Index)((*BitmapIndex)(nil))

// BitmapIndex keeps one bit per offset in 256-bit leaves. Dense coverage of
// small datasets is cheaper here than in ExtentIndex.
type BitmapIndex struct {
	leaves map[uint64]*bitmap.Bitmap256

	// Leaves with every bit set, and leaves with any bit set.
	fullLeafIndex bitset.BitSet
	partLeafIndex bitset.BitSet
}

func NewBitmapIndex() *BitmapIndex {
	return &BitmapIndex{
		leaves: make(map[uint64]*bitmap.Bitmap256),
	}
}

func (x *BitmapIndex) getLeaf(leafIndex uint64) *bitmap.Bitmap256 {
	return x.leaves[leafIndex]
}

func (x *BitmapIndex) getOrCreateLeaf(leafIndex uint64) *bitmap.Bitmap256 {
	if x.leaves == nil {
		x.leaves = make(map[uint64]*bitmap.Bitmap256)
	}
	l := x.leaves[leafIndex]
	if l == nil {
		l = new(bitmap.Bitmap256)
		x.leaves[leafIndex] = l
	}
	return l
}

func (x *BitmapIndex) Begin() (int, bool) {
	firstLeafIndex, ok := x.partLeafIndex.NextSet(0)
	if !ok {
		return 0, false
	}
	leaf := x.getLeaf(uint64(firstLeafIndex))
	ffs := leaf.FindFirstSet()
	if ffs < leafSize {
		return int(ffs) + int(firstLeafIndex)<<leafShift, true
	}

	log.Panicf("Unexpected empty leaf: %d", firstLeafIndex)
	return 0, false
}

func (x *BitmapIndex) End() int {
	endLeafIndex := int(x.partLeafIndex.Len()) - 1
	for ; endLeafIndex >= 0 && !x.partLeafIndex.Test(uint(endLeafIndex)); endLeafIndex-- {
	}
	if endLeafIndex < 0 {
		return 0
	}
	leaf := x.getLeaf(uint64(endLeafIndex))
	for i := leafSize - 1; i >= 0; i-- {
		if leaf.Get(uint8(i)) {
			return i + endLeafIndex<<leafShift + 1
		}
	}

	log.Panicf("Unexpected empty leaf: %d", endLeafIndex)
	return 0
}

func (x *BitmapIndex) Add(seg segment.Segment) {
	if seg.Count <= 0 {
		return
	}

	off := uint64(seg.Offset)
	end := uint64(seg.End())
	for off < end {
		leafIndex := off >> leafShift
		leaf := x.getOrCreateLeaf(leafIndex)

		leafEnd := min((leafIndex+1)<<leafShift, end)
		for ; off < leafEnd; off++ {
			leaf.Set(uint8(off))
		}
		x.partLeafIndex.Set(uint(leafIndex))
		if leaf.Full() {
			x.fullLeafIndex.Set(uint(leafIndex))
		}
	}
}

func (x *BitmapIndex) Remove(seg segment.Segment) {
	if seg.Count <= 0 {
		return
	}

	off := uint64(seg.Offset)
	end := uint64(seg.End())
	for off < end {
		leafIndex := off >> leafShift
		leafStart := leafIndex << leafShift
		leafEnd := min(leafStart+leafSize, end)
		leaf := x.getLeaf(leafIndex)
		if leaf == nil {
			off = leafEnd
			continue
		}

		// Rebuild the leaf without [off, leafEnd).
		var kept bitmap.Bitmap256
		for i := leafStart; i < leafStart+leafSize; i++ {
			if (i < off || i >= leafEnd) && leaf.Get(uint8(i)) {
				kept.Set(uint8(i))
			}
		}
		x.fullLeafIndex.Clear(uint(leafIndex))
		if kept.Empty() {
			delete(x.leaves, leafIndex)
			x.partLeafIndex.Clear(uint(leafIndex))
		} else {
			*leaf = kept
		}
		off = leafEnd
	}
}

func (x *BitmapIndex) Contains(i int) bool {
	leaf := x.getLeaf(uint64(i) >> leafShift)
	return leaf != nil && leaf.Get(uint8(i))
}

func (x *BitmapIndex) NextLoaded(i int) (int, bool) {
	off := uint64(i)
	leaf := x.getLeaf(off >> leafShift)
	if leaf != nil {
		next := leaf.FindNextSet(uint8(off))
		if next < leafSize {
			return int(off&^leafMask) + int(next), true
		}
	}

	nextPartial, ok := x.partLeafIndex.NextSet(uint(off>>leafShift) + 1)
	if !ok {
		return 0, false
	}

	leaf = x.getLeaf(uint64(nextPartial))
	return int(nextPartial)<<leafShift + int(leaf.FindFirstSet()), true
}

func (x *BitmapIndex) NextMissing(i int) int {
	off := uint64(i)
	leaf := x.getLeaf(off >> leafShift)
	if leaf == nil {
		return i
	}
	next := leaf.FindNextClear(uint8(off))
	if next < leafSize {
		return int(off&^leafMask) + int(next)
	}

	clearStart := uint(off>>leafShift) + 1
	nextNonFull, ok := x.fullLeafIndex.NextClear(clearStart)
	if !ok {
		if clearStart < x.fullLeafIndex.Len() {
			nextNonFull = x.fullLeafIndex.Len()
		} else {
			nextNonFull = clearStart
		}
	}

	nextOff := int(nextNonFull) << leafShift
	leaf = x.getLeaf(uint64(nextNonFull))
	if leaf == nil {
		return nextOff
	}
	if leaf.Full() {
		log.Panicf("Unexpected full leaf: %d", nextNonFull)
	}
	return nextOff + int(leaf.FindFirstClear())
}

func (x *BitmapIndex) Iterate(start int, fn func(segment.Segment) bool) {
	off := start
	for {
		next, ok := x.NextLoaded(off)
		if !ok {
			return
		}
		end := x.NextMissing(next)
		if !fn(segment.New(next, end-next)) {
			return
		}
		off = end
	}
}
