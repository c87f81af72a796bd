package tokenize

import (
	"reflect"
	"testing"
)

func TestTokensStemsAndDropsStopwords(t *testing.T) {
	// S1 from spec.md §8: {"title":"Running dogs","text":"The dogs run."}
	// -> ["run","dog","dog","run"] ("the" is a stopword; both verb forms
	// stem to "run"/"dog").
	toks := Tokens(Record{Title: "Running dogs", Text: "The dogs run."})
	expected := []string{"run", "dog", "dog", "run"}
	if !reflect.DeepEqual(toks, expected) {
		t.Errorf("Tokens failed: expected %v got %v", expected, toks)
	}
}

func TestTokensDeterministic(t *testing.T) {
	r := Record{Title: "Quick Foxes", Text: "Jumping over lazy dogs repeatedly."}
	first := Tokens(r)
	second := Tokens(r)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Tokens failed: expected deterministic output, got %v then %v", first, second)
	}
}

func TestTokensEmptyRecord(t *testing.T) {
	toks := Tokens(Record{})
	if len(toks) != 0 {
		t.Errorf("Tokens failed: expected empty slice got %v", toks)
	}
}
