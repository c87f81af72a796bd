package index

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/codepr/searchengine/internal/index/corpus"
)

func writeTestCorpus(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.jsonl")
	body := ""
	for _, l := range lines {
		body += l + "\n"
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func readLexicon(t *testing.T, dir string) map[string]lexiconEntry {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "term_lexicon.json"))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	var lex map[string]lexiconEntry
	if err := json.Unmarshal(data, &lex); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	return lex
}

func TestIndexerBuildSingleBatch(t *testing.T) {
	corpusPath := writeTestCorpus(t,
		`{"id":1,"title":"Dogs","text":"the dog runs"}`,
		`{"id":2,"title":"Cats","text":"the cat runs too"}`,
	)
	reader, err := corpus.New(corpusPath)
	if err != nil {
		t.Fatalf("corpus.New failed: %v", err)
	}
	defer reader.Close()

	outDir := t.TempDir()
	ix := NewIndexer(reader, outDir, 0, 2, 1000)
	n, err := ix.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Build failed: expected 2 documents got %d", n)
	}

	if _, err := os.Stat(filepath.Join(outDir, ".partials")); !os.IsNotExist(err) {
		t.Errorf("Build failed: expected temp partials dir removed")
	}

	lex := readLexicon(t, outDir)
	runEntry, ok := lex["run"]
	if !ok {
		t.Fatalf("Build failed: expected stemmed term %q in lexicon, got %v", "run", lex)
	}
	if runEntry.DF != 2 {
		t.Errorf("Build failed: expected df=2 for %q got %d", "run", runEntry.DF)
	}

	docIndexData, err := os.ReadFile(filepath.Join(outDir, "document_index.json"))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	var docIndex map[string]int32
	if err := json.Unmarshal(docIndexData, &docIndex); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if len(docIndex) != 2 {
		t.Errorf("Build failed: expected 2 documents in document_index got %d", len(docIndex))
	}
}

func TestIndexerMergeAcrossMultiplePartials(t *testing.T) {
	corpusPath := writeTestCorpus(t,
		`{"id":1,"title":"A","text":"alpha beta"}`,
		`{"id":2,"title":"B","text":"beta gamma"}`,
		`{"id":3,"title":"C","text":"gamma alpha"}`,
	)
	reader, err := corpus.New(corpusPath)
	if err != nil {
		t.Fatalf("corpus.New failed: %v", err)
	}
	defer reader.Close()

	outDir := t.TempDir()
	ix := NewIndexer(reader, outDir, 0, 1, 1)
	for {
		batch, eof, err := ix.readBatch()
		if err != nil {
			t.Fatalf("readBatch failed: %v", err)
		}
		for _, res := range ix.tokenizeBatch(batch) {
			ix.accumulate(res)
		}
		if err := ix.flushPartial(); err != nil {
			t.Fatalf("flushPartial failed: %v", err)
		}
		if eof {
			break
		}
	}
	if ix.parts < 2 {
		t.Fatalf("expected at least 2 partial files, got %d", ix.parts)
	}
	if err := ix.merge(); err != nil {
		t.Fatalf("merge failed: %v", err)
	}

	f, err := os.Open(filepath.Join(outDir, "inverted_index.jsonl"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	var prev string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var line partialLine
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			t.Fatalf("Unmarshal failed: %v", err)
		}
		if prev != "" && line.Term <= prev {
			t.Errorf("merge failed: terms not strictly ascending: %q then %q", prev, line.Term)
		}
		prev = line.Term
	}

	lex := readLexicon(t, outDir)
	alphaEntry, ok := lex["alpha"]
	if !ok || alphaEntry.DF != 2 {
		t.Errorf("merge failed: expected df=2 for %q, got %+v (present=%v)", "alpha", alphaEntry, ok)
	}
}
