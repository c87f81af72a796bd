// Package postings implements the sorted, skip-pointer-accelerated
// document-id list described by spec.md §4.1 ("Postings list"): appended
// in strictly ascending order, membership-probed in O(√n), and
// serializable as a flat id sequence for the sharded index's opaque blob
// format (spec.md §4.6).
package postings

import (
	"fmt"
	"math"
)

// List is a sorted sequence of document ids for a single term, with skip
// pointers recomputed after every append.
type List struct {
	ids   []int32
	skips []int32 // indices into ids, spaced roughly √len(ids) apart
}

// New creates an empty List.
func New() *List {
	return &List{}
}

// FromIDs reconstructs a List from an already-sorted, strictly-ascending id
// sequence, such as one previously produced by Serialize.
func FromIDs(ids []int32) (*List, error) {
	l := &List{ids: append([]int32(nil), ids...)}
	for i := 1; i < len(l.ids); i++ {
		if l.ids[i] <= l.ids[i-1] {
			return nil, fmt.Errorf("postings: ids not strictly ascending at index %d", i)
		}
	}
	l.rebuildSkips()
	return l, nil
}

// Append adds docID to the list. docID must be strictly greater than the
// current last id (spec.md §3: "doc-ids strictly ascending within a term").
func (l *List) Append(docID int32) error {
	if n := len(l.ids); n > 0 && docID <= l.ids[n-1] {
		return fmt.Errorf("postings: out-of-order append: %d after %d", docID, l.ids[n-1])
	}
	l.ids = append(l.ids, docID)
	l.rebuildSkips()
	return nil
}

// rebuildSkips recomputes skip pointers at roughly √n spacing. Called after
// every Append, it rebuilds the whole pointer slice each time, an O(√n)
// pass.
func (l *List) rebuildSkips() {
	n := len(l.ids)
	if n == 0 {
		l.skips = nil
		return
	}
	interval := int(math.Sqrt(float64(n)))
	if interval < 1 {
		interval = 1
	}
	l.skips = l.skips[:0]
	for i := 0; i < n; i += interval {
		l.skips = append(l.skips, int32(i))
	}
}

// Contains probes membership of docID, walking skip pointers to the
// nearest bracket below docID before falling back to a linear scan within
// that bracket: O(√n) overall.
func (l *List) Contains(docID int32) bool {
	n := len(l.ids)
	if n == 0 {
		return false
	}
	start := 0
	for _, s := range l.skips {
		if l.ids[s] <= docID {
			start = int(s)
		} else {
			break
		}
	}
	for i := start; i < n && l.ids[i] <= docID; i++ {
		if l.ids[i] == docID {
			return true
		}
	}
	return false
}

// Len reports the number of document ids in the list.
func (l *List) Len() int { return len(l.ids) }

// IDs returns the underlying ascending id sequence. Callers must not mutate
// the returned slice.
func (l *List) IDs() []int32 { return l.ids }

// Serialize returns a copy of the id sequence as a flat []int32, suitable
// for a shard's opaque binary blob.
func (l *List) Serialize() []int32 {
	return append([]int32(nil), l.ids...)
}
