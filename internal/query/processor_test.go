package query

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildTestIndex(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	lines := []indexLine{
		{Term: "cat", Postings: map[string]int32{"1": 2, "3": 1}},
		{Term: "dog", Postings: map[string]int32{"2": 3}},
	}
	f, err := os.Create(filepath.Join(dir, "inverted_index.jsonl"))
	require.NoError(t, err)
	defer f.Close()

	lexicon := make(map[string]LexiconEntry)
	var offset int64
	for _, line := range lines {
		raw, err := json.Marshal(line)
		require.NoError(t, err)
		raw = append(raw, '\n')
		n, err := f.Write(raw)
		require.NoError(t, err)
		lexicon[line.Term] = LexiconEntry{DF: len(line.Postings), Offset: offset, Length: int64(n)}
		offset += int64(n)
	}

	lexData, err := json.Marshal(lexicon)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "term_lexicon.json"), lexData, 0o644))

	docIndex := map[string]int32{"1": 5, "2": 3, "3": 4}
	docData, err := json.Marshal(docIndex)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "document_index.json"), docData, 0o644))

	return dir
}

func TestProcessorQueryReturnsRankedResults(t *testing.T) {
	dir := buildTestIndex(t)
	p, err := New(dir, "BM25")
	require.NoError(t, err)
	defer p.Close()

	results, err := p.Query("dogs", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, FormatID(2), results[0].ID)
}

func TestProcessorQueryUnknownTermReturnsEmpty(t *testing.T) {
	dir := buildTestIndex(t)
	p, err := New(dir, "TFIDF")
	require.NoError(t, err)
	defer p.Close()

	results, err := p.Query("zzzznotaword", 5)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestProcessorRejectsUnknownRanker(t *testing.T) {
	dir := buildTestIndex(t)
	_, err := New(dir, "nonsense")
	require.Error(t, err)
}
