// Package query implements the top-k WAND query processor (spec.md §4.8):
// a lexicon-backed postings reader, BM25/TF-IDF scoring, and the WAND
// dynamic-pruning algorithm over term-at-a-time cursors.
package query

import "math"

// Scorer computes a single posting's contribution to a document's score.
// tf is the term's frequency within the document, df is the term's
// document frequency across the whole corpus, docLen and avgDocLen are the
// document's length and the corpus average, and n is the corpus size.
type Scorer interface {
	Score(tf, df int32, docLen int32, avgDocLen float64, n int) float64
}

// BM25Scorer implements Okapi BM25 with the k1=1.5, b=0.75 parameters
// mandated by spec.md §4.8.
type BM25Scorer struct {
	K1 float64
	B  float64
}

// NewBM25Scorer returns the spec-mandated BM25Scorer.
func NewBM25Scorer() BM25Scorer {
	return BM25Scorer{K1: 1.5, B: 0.75}
}

func (s BM25Scorer) Score(tf, df int32, docLen int32, avgDocLen float64, n int) float64 {
	idf := math.Log(1 + (float64(n)-float64(df)+0.5)/(float64(df)+0.5))
	norm := 1 - s.B + s.B*(float64(docLen)/avgDocLen)
	return idf * (float64(tf) * (s.K1 + 1)) / (float64(tf) + s.K1*norm)
}

// TFIDFScorer implements classic term-frequency/inverse-document-frequency
// scoring with a log-scaled idf term.
type TFIDFScorer struct{}

func (TFIDFScorer) Score(tf, df int32, docLen int32, avgDocLen float64, n int) float64 {
	tfWeight := 1 + math.Log(float64(tf))
	idf := math.Log(float64(n) / float64(df))
	return tfWeight * idf
}

// NewScorer resolves a ranker name from the CLI surface (spec.md §6) to a
// Scorer implementation.
func NewScorer(name string) (Scorer, error) {
	switch name {
	case "BM25", "":
		return NewBM25Scorer(), nil
	case "TFIDF":
		return TFIDFScorer{}, nil
	default:
		return nil, &UnknownRankerError{Name: name}
	}
}

// UnknownRankerError reports a --ranker value outside {TFIDF, BM25}.
type UnknownRankerError struct {
	Name string
}

func (e *UnknownRankerError) Error() string {
	return "query: unknown ranker " + e.Name + " (expected TFIDF or BM25)"
}
