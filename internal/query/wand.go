package query

import (
	"container/heap"
	"math"
	"sort"
)

// posting is a single (doc id, term frequency) pair read from a postings
// line.
type posting struct {
	docID int32
	freq  int32
}

// termCursor walks one query term's postings list in ascending document-id
// order, exposing an upper-bound score used for WAND pivoting.
type termCursor struct {
	term       string
	postings   []posting
	df         int32
	upperBound float64
	pos        int
}

// currentDocID returns the document id the cursor currently points at, or
// math.MaxInt32 once the cursor is exhausted.
func (c *termCursor) currentDocID() int32 {
	if c.pos >= len(c.postings) {
		return math.MaxInt32
	}
	return c.postings[c.pos].docID
}

func (c *termCursor) exhausted() bool {
	return c.pos >= len(c.postings)
}

// advanceTo moves the cursor forward to the first posting with docID >=
// target, linearly scanning (the postings list is already fully resident,
// so this plays the role of the skip-pointer probe in postings.List).
func (c *termCursor) advanceTo(target int32) {
	for c.pos < len(c.postings) && c.postings[c.pos].docID < target {
		c.pos++
	}
}

// scoredDoc is one heap entry in the top-k min-heap.
type scoredDoc struct {
	docID int32
	score float64
}

// resultHeap is a min-heap by score, so the lowest-scoring doc currently in
// the top-k set sits at the root and is the first to be evicted.
type resultHeap []scoredDoc

func (h resultHeap) Len() int            { return len(h) }
func (h resultHeap) Less(i, j int) bool  { return h[i].score < h[j].score }
func (h resultHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *resultHeap) Push(x interface{}) { *h = append(*h, x.(scoredDoc)) }
func (h *resultHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// wand runs the WAND dynamic-pruning disjunctive top-k algorithm over
// cursors (spec.md §4.8, §9 data flow "WAND pivot loop"): at each step it
// sorts cursors by current document id, accumulates upper-bound scores
// until the running sum exceeds the current top-k threshold to find a
// pivot term, fully scores the pivot document if every cursor up to the
// pivot already points at it, or otherwise advances the cursor with the
// smallest current document id to the pivot document.
func wand(cursors []*termCursor, scorer Scorer, docLen map[int32]int32, avgDocLen float64, n, topK int) []Result {
	if topK <= 0 || len(cursors) == 0 {
		return nil
	}

	h := &resultHeap{}
	heap.Init(h)

	for {
		live := make([]*termCursor, 0, len(cursors))
		for _, c := range cursors {
			if !c.exhausted() {
				live = append(live, c)
			}
		}
		if len(live) == 0 {
			break
		}
		sort.Slice(live, func(i, j int) bool { return live[i].currentDocID() < live[j].currentDocID() })

		threshold := 0.0
		if h.Len() >= topK {
			threshold = (*h)[0].score
		}

		var acc float64
		pivot := -1
		for i, c := range live {
			acc += c.upperBound
			if acc > threshold {
				pivot = i
				break
			}
		}
		if pivot == -1 {
			break
		}
		pivotDoc := live[pivot].currentDocID()

		if live[0].currentDocID() == pivotDoc {
			var score float64
			for _, c := range live {
				if c.currentDocID() != pivotDoc {
					continue
				}
				freq := c.postings[c.pos].freq
				score += scorer.Score(freq, c.df, docLen[pivotDoc], avgDocLen, n)
			}
			if h.Len() < topK {
				heap.Push(h, scoredDoc{docID: pivotDoc, score: score})
			} else if score > (*h)[0].score {
				heap.Pop(h)
				heap.Push(h, scoredDoc{docID: pivotDoc, score: score})
			}
			for _, c := range live {
				if c.currentDocID() == pivotDoc {
					c.pos++
				}
			}
		} else {
			live[0].advanceTo(pivotDoc)
		}
	}

	results := make([]Result, h.Len())
	for i := len(results) - 1; i >= 0; i-- {
		sd := heap.Pop(h).(scoredDoc)
		results[i] = Result{
			ID:    FormatID(sd.docID),
			Score: math.Round(sd.score*10000) / 10000,
		}
	}
	return results
}
