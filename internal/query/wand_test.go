package query

import "testing"

// TestWANDMatchesSpecScenario reproduces the corpus in spec.md §8 scenario
// S4: terms {a:{1:2,2:1}, b:{2:1,3:1}}, lengths {1:2,2:2,3:1}, query "a b",
// BM25 with k1=1.5, b=0.75. Expected: doc 2 ranks first.
func TestWANDMatchesSpecScenario(t *testing.T) {
	docLen := map[int32]int32{1: 2, 2: 2, 3: 1}
	avgDocLen := float64(2+2+1) / 3
	scorer := NewBM25Scorer()

	termA := &termCursor{
		term:     "a",
		postings: []posting{{docID: 1, freq: 2}, {docID: 2, freq: 1}},
		df:       2,
	}
	termB := &termCursor{
		term:     "b",
		postings: []posting{{docID: 2, freq: 1}, {docID: 3, freq: 1}},
		df:       2,
	}
	for _, c := range []*termCursor{termA, termB} {
		for _, p := range c.postings {
			s := scorer.Score(p.freq, c.df, docLen[p.docID], avgDocLen, 3)
			if s > c.upperBound {
				c.upperBound = s
			}
		}
	}

	results := wand([]*termCursor{termA, termB}, scorer, docLen, avgDocLen, 3, 3)
	if len(results) == 0 {
		t.Fatalf("wand failed: expected at least one result")
	}
	if results[0].ID != FormatID(2) {
		t.Errorf("wand failed: expected doc 2 to rank first, got %+v", results)
	}
}

func TestWANDRespectsTopK(t *testing.T) {
	docLen := map[int32]int32{1: 1, 2: 1, 3: 1, 4: 1}
	scorer := TFIDFScorer{}
	term := &termCursor{
		term: "x",
		postings: []posting{
			{docID: 1, freq: 1}, {docID: 2, freq: 1}, {docID: 3, freq: 1}, {docID: 4, freq: 1},
		},
		df: 4,
	}
	// Corpus of 8 documents, so idf = ln(8/4) > 0 and every posting scores.
	term.upperBound = scorer.Score(1, 4, 1, 1, 8)

	results := wand([]*termCursor{term}, scorer, docLen, 1, 8, 2)
	if len(results) != 2 {
		t.Fatalf("wand failed: expected 2 results got %d", len(results))
	}
}

func TestWANDNoMatchingTermsReturnsEmpty(t *testing.T) {
	results := wand(nil, NewBM25Scorer(), nil, 0, 0, 5)
	if len(results) != 0 {
		t.Errorf("wand failed: expected no results, got %+v", results)
	}
}
