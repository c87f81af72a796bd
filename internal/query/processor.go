package query

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/codepr/searchengine/internal/index/tokenize"
)

// LexiconEntry is one value of term_lexicon.json (spec.md §4.9): df is the
// term's document frequency, offset/length locate its line in
// inverted_index.jsonl.
type LexiconEntry struct {
	DF     int   `json:"df"`
	Offset int64 `json:"offset"`
	Length int64 `json:"length"`
}

// indexLine is the on-disk shape of one inverted_index.jsonl line.
type indexLine struct {
	Term     string           `json:"term"`
	Postings map[string]int32 `json:"postings"`
}

// Result is a single ranked hit, formatted per spec.md §6: a zero-padded
// 7-digit document id and a score rounded to 4 decimal places.
type Result struct {
	ID    string  `json:"ID"`
	Score float64 `json:"Score"`
}

// Processor answers top-k queries against a merged index directory
// (inverted_index.jsonl, term_lexicon.json, document_index.json).
type Processor struct {
	file      *os.File
	lexicon   map[string]LexiconEntry
	docLen    map[int32]int32
	n         int
	avgDocLen float64
	scorer    Scorer
}

// New opens the index at dir for querying, ranking with the scorer named by
// ranker (spec.md §4.8 "Initialization").
func New(dir, ranker string) (*Processor, error) {
	scorer, err := NewScorer(ranker)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(dir, "inverted_index.jsonl"))
	if err != nil {
		return nil, fmt.Errorf("query: opening inverted index: %w", err)
	}

	lexData, err := os.ReadFile(filepath.Join(dir, "term_lexicon.json"))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("query: reading term lexicon: %w", err)
	}
	var lexicon map[string]LexiconEntry
	if err := json.Unmarshal(lexData, &lexicon); err != nil {
		f.Close()
		return nil, fmt.Errorf("query: parsing term lexicon: %w", err)
	}

	docData, err := os.ReadFile(filepath.Join(dir, "document_index.json"))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("query: reading document index: %w", err)
	}
	var docIndexRaw map[string]int32
	if err := json.Unmarshal(docData, &docIndexRaw); err != nil {
		f.Close()
		return nil, fmt.Errorf("query: parsing document index: %w", err)
	}

	docLen := make(map[int32]int32, len(docIndexRaw))
	var total int64
	for idStr, length := range docIndexRaw {
		id, err := strconv.Atoi(idStr)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("query: parsing doc id %q: %w", idStr, err)
		}
		docLen[int32(id)] = length
		total += int64(length)
	}
	n := len(docLen)
	avgDocLen := 0.0
	if n > 0 {
		avgDocLen = float64(total) / float64(n)
	}

	return &Processor{
		file:      f,
		lexicon:   lexicon,
		docLen:    docLen,
		n:         n,
		avgDocLen: avgDocLen,
		scorer:    scorer,
	}, nil
}

// Close releases the underlying index file handle.
func (p *Processor) Close() error {
	return p.file.Close()
}

// readPostings seeks to term's line in inverted_index.jsonl and decodes its
// postings map, sorted ascending by document id.
func (p *Processor) readPostings(term string) ([]posting, bool, error) {
	entry, ok := p.lexicon[term]
	if !ok {
		return nil, false, nil
	}
	buf := make([]byte, entry.Length)
	if _, err := p.file.ReadAt(buf, entry.Offset); err != nil {
		return nil, false, fmt.Errorf("query: reading postings for %q: %w", term, err)
	}
	var line indexLine
	if err := json.Unmarshal(buf, &line); err != nil {
		return nil, false, fmt.Errorf("query: decoding postings for %q: %w", term, err)
	}
	postings := make([]posting, 0, len(line.Postings))
	for idStr, freq := range line.Postings {
		id, err := strconv.Atoi(idStr)
		if err != nil {
			return nil, false, fmt.Errorf("query: parsing doc id %q: %w", idStr, err)
		}
		postings = append(postings, posting{docID: int32(id), freq: freq})
	}
	sort.Slice(postings, func(i, j int) bool { return postings[i].docID < postings[j].docID })
	return postings, true, nil
}

// Query tokenizes text the same way the indexer tokenizes documents, then
// runs the WAND top-k algorithm over the resulting query terms.
func (p *Processor) Query(text string, topK int) ([]Result, error) {
	terms := tokenize.Tokens(tokenize.Record{Text: text})

	seen := make(map[string]bool)
	var cursors []*termCursor
	for _, term := range terms {
		if seen[term] {
			continue
		}
		seen[term] = true

		postings, ok, err := p.readPostings(term)
		if err != nil {
			return nil, err
		}
		if !ok || len(postings) == 0 {
			continue
		}

		df := int32(len(postings))
		var upperBound float64
		for _, post := range postings {
			docLen := p.docLen[post.docID]
			s := p.scorer.Score(post.freq, df, docLen, p.avgDocLen, p.n)
			if s > upperBound {
				upperBound = s
			}
		}
		cursors = append(cursors, &termCursor{
			term:       term,
			postings:   postings,
			df:         df,
			upperBound: upperBound,
		})
	}

	return wand(cursors, p.scorer, p.docLen, p.avgDocLen, p.n, topK), nil
}

// FormatID zero-pads a document id to 7 digits (spec.md §6).
func FormatID(docID int32) string {
	return fmt.Sprintf("%07d", docID)
}
