package query

import "testing"

func TestBM25ScorerHigherTFScoresHigher(t *testing.T) {
	s := NewBM25Scorer()
	low := s.Score(1, 2, 10, 10, 100)
	high := s.Score(5, 2, 10, 10, 100)
	if high <= low {
		t.Errorf("Score failed: expected higher tf to score higher, got low=%f high=%f", low, high)
	}
}

func TestTFIDFScorerRareTermScoresHigher(t *testing.T) {
	s := TFIDFScorer{}
	common := s.Score(1, 90, 10, 10, 100)
	rare := s.Score(1, 2, 10, 10, 100)
	if rare <= common {
		t.Errorf("Score failed: expected rarer term to score higher, got common=%f rare=%f", common, rare)
	}
}

func TestNewScorerResolvesRankerNames(t *testing.T) {
	if _, err := NewScorer("BM25"); err != nil {
		t.Errorf("NewScorer(BM25) failed: %v", err)
	}
	if _, err := NewScorer("TFIDF"); err != nil {
		t.Errorf("NewScorer(TFIDF) failed: %v", err)
	}
	if _, err := NewScorer(""); err != nil {
		t.Errorf("NewScorer(\"\") failed: expected default to BM25, got %v", err)
	}
	if _, err := NewScorer("nonsense"); err == nil {
		t.Errorf("NewScorer(nonsense) failed: expected error")
	}
}
