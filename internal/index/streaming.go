// This file implements the streaming indexer (spec.md §4.7 "Streaming
// indexer (final form)"): the component that actually drives a complete
// index build from a JSONL corpus, as opposed to the ShardedIndex in
// shardedindex.go which is a standalone building block (spec.md §4.6).
package index

import (
	"bufio"
	"container/heap"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/codepr/searchengine/internal/index/corpus"
	"github.com/codepr/searchengine/internal/index/tokenize"
	"github.com/codepr/searchengine/internal/messaging"
	"github.com/codepr/searchengine/internal/metrics"
)

const (
	defaultBatchSize = 1000
	defaultWorkers   = 4
)

// Indexer drives a full build: read batches from a corpus.Reader, tokenize
// them across a worker pool, accumulate term->doc->freq in memory, spill to
// sorted partial JSONL runs under memory pressure, and merge everything
// into the final inverted index, term lexicon, and document index.
type Indexer struct {
	reader    *corpus.Reader
	outDir    string
	tmpDir    string
	batchSize int
	workers   int
	memBudget uint64

	accum  map[string]map[int32]int32
	docLen map[int32]int32
	parts  int

	begin  time.Time
	logger *log.Logger
}

// Stats mirrors the original implementation's end-of-run report (index
// size in bytes, elapsed time, postings-list count, average list size).
type Stats struct {
	IndexSize       int64
	ElapsedTime     time.Duration
	NumberOfLists   int
	AverageListSize float64
}

// NewIndexer builds an Indexer reading from reader and writing the final
// artifacts to outDir. memoryMB is the budget driving the spill heuristic;
// 0 disables spilling (everything accumulates in memory until EOF).
func NewIndexer(reader *corpus.Reader, outDir string, memoryMB, workers, batchSize int) *Indexer {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Indexer{
		reader:    reader,
		outDir:    outDir,
		tmpDir:    filepath.Join(outDir, ".partials"),
		batchSize: batchSize,
		workers:   workers,
		memBudget: uint64(memoryMB) * 1024 * 1024,
		accum:     make(map[string]map[int32]int32),
		docLen:    make(map[int32]int32),
		begin:     time.Now(),
		logger:    log.New(os.Stderr, "indexer: ", log.LstdFlags),
	}
}

// Stats reports index size, elapsed build time, and postings-list size
// statistics by reading back the artifacts Build wrote to outDir.
func (ix *Indexer) Stats() (Stats, error) {
	info, err := os.Stat(filepath.Join(ix.outDir, "inverted_index.jsonl"))
	if err != nil {
		return Stats{}, fmt.Errorf("indexer: stat inverted index: %w", err)
	}
	lexData, err := os.ReadFile(filepath.Join(ix.outDir, "term_lexicon.json"))
	if err != nil {
		return Stats{}, fmt.Errorf("indexer: reading term lexicon: %w", err)
	}
	var lexicon map[string]lexiconEntry
	if err := json.Unmarshal(lexData, &lexicon); err != nil {
		return Stats{}, fmt.Errorf("indexer: parsing term lexicon: %w", err)
	}

	listCount := len(lexicon)
	var sumListLen int
	for _, entry := range lexicon {
		sumListLen += entry.DF
	}
	avgListSize := 0.0
	if listCount > 0 {
		avgListSize = float64(sumListLen) / float64(listCount)
	}

	return Stats{
		IndexSize:       info.Size(),
		ElapsedTime:     time.Since(ix.begin),
		NumberOfLists:   listCount,
		AverageListSize: avgListSize,
	}, nil
}

type tokenizeResult struct {
	docID int32
	freqs map[string]int32
}

// Build runs the full batch/accumulate/spill/merge pipeline, returning the
// number of documents indexed.
func (ix *Indexer) Build() (int, error) {
	if err := os.MkdirAll(ix.tmpDir, 0o755); err != nil {
		return 0, fmt.Errorf("indexer: creating %s: %w", ix.tmpDir, err)
	}
	defer os.RemoveAll(ix.tmpDir)

	total := 0
	for {
		batch, eof, err := ix.readBatch()
		if err != nil {
			return total, err
		}
		if len(batch) > 0 {
			results := ix.tokenizeBatch(batch)
			for _, res := range results {
				ix.accumulate(res)
			}
			total += len(batch)
			if ix.memBudget > 0 && sampleMemoryUsage() > uint64(float64(ix.memBudget)*0.9) {
				if err := ix.flushPartial(); err != nil {
					return total, err
				}
			}
		}
		if eof {
			break
		}
	}
	if err := ix.flushPartial(); err != nil {
		return total, err
	}
	if err := ix.merge(); err != nil {
		return total, err
	}
	return total, nil
}

// readBatch reads up to batchSize records, returning eof=true once the
// corpus is exhausted (the final, possibly short, batch is still valid).
func (ix *Indexer) readBatch() ([]corpus.Record, bool, error) {
	batch := make([]corpus.Record, 0, ix.batchSize)
	for len(batch) < ix.batchSize {
		rec, err := ix.reader.Next()
		if err == io.EOF {
			return batch, true, nil
		}
		if err != nil {
			return batch, false, fmt.Errorf("indexer: reading corpus: %w", err)
		}
		batch = append(batch, rec)
	}
	return batch, false, nil
}

// tokenizeBatch fans a batch out across ix.workers goroutines; each worker
// returns (doc_id, {term: freq}) for its assigned records (spec.md §4.7
// step 1). Records are handed to the workers over a
// messaging.ProducerConsumerCloser rather than a bare channel, decoupling
// the batch producer from the tokenization consumers the same way the
// teacher's messaging package decouples any other producer from its
// consumer.
func (ix *Indexer) tokenizeBatch(batch []corpus.Record) []tokenizeResult {
	jobs := messaging.NewChannelQueue()
	results := make(chan tokenizeResult, len(batch))
	var wg sync.WaitGroup

	events := make(chan []byte, len(batch))
	go func() {
		_ = jobs.Consume(events)
		close(events)
	}()

	for i := 0; i < ix.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for raw := range events {
				var rec corpus.Record
				if err := json.Unmarshal(raw, &rec); err != nil {
					ix.logger.Printf("tokenizeBatch: decoding job: %v", err)
					continue
				}
				freqs := make(map[string]int32)
				for _, tok := range tokenize.Tokens(tokenize.Record{Title: rec.Title, Text: rec.Text}) {
					freqs[tok]++
				}
				results <- tokenizeResult{docID: int32(rec.ID), freqs: freqs}
			}
		}()
	}
	for _, rec := range batch {
		raw, err := json.Marshal(rec)
		if err != nil {
			ix.logger.Printf("tokenizeBatch: encoding job: %v", err)
			continue
		}
		_ = jobs.Produce(raw)
	}
	jobs.Close()
	wg.Wait()
	close(results)

	out := make([]tokenizeResult, 0, len(batch))
	for res := range results {
		out = append(out, res)
	}
	return out
}

// accumulate merges a single document's term frequencies into the
// in-memory map and updates the running document length (spec.md §4.7
// step 2).
func (ix *Indexer) accumulate(res tokenizeResult) {
	var length int32
	for term, freq := range res.freqs {
		postings, ok := ix.accum[term]
		if !ok {
			postings = make(map[int32]int32)
			ix.accum[term] = postings
		}
		postings[res.docID] += freq
		length += freq
	}
	ix.docLen[res.docID] += length
}

// partialLine is the JSON shape of one line of a partial run or the final
// merged inverted index (spec.md §3 "Partial run").
type partialLine struct {
	Term     string           `json:"term"`
	Postings map[string]int32 `json:"postings"`
}

// flushPartial writes the current in-memory accumulation to
// partial_<k>.jsonl with terms sorted ascending, then clears the map
// (spec.md §4.7 step 3). A no-op if nothing has accumulated.
func (ix *Indexer) flushPartial() error {
	if len(ix.accum) == 0 {
		return nil
	}
	terms := make([]string, 0, len(ix.accum))
	for term := range ix.accum {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	path := filepath.Join(ix.tmpDir, fmt.Sprintf("partial_%d.jsonl", ix.parts))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("indexer: creating partial %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, term := range terms {
		postings := make(map[string]int32, len(ix.accum[term]))
		for doc, freq := range ix.accum[term] {
			postings[fmt.Sprintf("%d", doc)] = freq
		}
		line, err := json.Marshal(partialLine{Term: term, Postings: postings})
		if err != nil {
			return fmt.Errorf("indexer: marshaling partial line for %q: %w", term, err)
		}
		if _, err := w.Write(line); err != nil {
			return fmt.Errorf("indexer: writing partial %s: %w", path, err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fmt.Errorf("indexer: writing partial %s: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("indexer: flushing partial %s: %w", path, err)
	}

	ix.accum = make(map[string]map[int32]int32)
	ix.parts++
	metrics.PartialFlushes.Inc()
	return nil
}

// lexiconEntry is one value of term_lexicon.json.
type lexiconEntry struct {
	DF     int   `json:"df"`
	Offset int64 `json:"offset"`
	Length int64 `json:"length"`
}

// partialReader wraps one partial file for the k-way merge below.
type partialReader struct {
	scanner *bufio.Scanner
	file    *os.File
	cur     partialLine
	done    bool
}

func openPartialReader(path string) (*partialReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("indexer: opening partial %s: %w", path, err)
	}
	pr := &partialReader{file: f, scanner: bufio.NewScanner(f)}
	pr.scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	if err := pr.advance(); err != nil {
		f.Close()
		return nil, err
	}
	return pr, nil
}

func (pr *partialReader) advance() error {
	if !pr.scanner.Scan() {
		if err := pr.scanner.Err(); err != nil {
			return fmt.Errorf("indexer: scanning partial: %w", err)
		}
		pr.done = true
		return nil
	}
	var line partialLine
	if err := json.Unmarshal(pr.scanner.Bytes(), &line); err != nil {
		return fmt.Errorf("indexer: decoding partial line: %w", err)
	}
	pr.cur = line
	return nil
}

// mergeHeap orders partialReaders by their current term for the k-way merge.
type mergeHeap []*partialReader

func (h mergeHeap) Len() int            { return len(h) }
func (h mergeHeap) Less(i, j int) bool  { return h[i].cur.Term < h[j].cur.Term }
func (h mergeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *mergeHeap) Push(x interface{}) { *h = append(*h, x.(*partialReader)) }
func (h *mergeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// merge performs a k-way merge of every sorted partial run into
// inverted_index.jsonl, term_lexicon.json, and document_index.json
// (spec.md §4.7 step 5).
func (ix *Indexer) merge() error {
	entries, err := os.ReadDir(ix.tmpDir)
	if err != nil {
		return fmt.Errorf("indexer: listing partials: %w", err)
	}

	var readers []*partialReader
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		pr, err := openPartialReader(filepath.Join(ix.tmpDir, e.Name()))
		if err != nil {
			return err
		}
		if pr.done {
			pr.file.Close()
			continue
		}
		readers = append(readers, pr)
	}
	defer func() {
		for _, pr := range readers {
			pr.file.Close()
		}
	}()

	h := make(mergeHeap, len(readers))
	copy(h, readers)
	heap.Init(&h)

	if err := os.MkdirAll(ix.outDir, 0o755); err != nil {
		return fmt.Errorf("indexer: creating %s: %w", ix.outDir, err)
	}
	outPath := filepath.Join(ix.outDir, "inverted_index.jsonl")
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("indexer: creating %s: %w", outPath, err)
	}
	defer out.Close()

	lexicon := make(map[string]lexiconEntry)
	var offset int64

	for h.Len() > 0 {
		term := h[0].cur.Term
		merged := make(map[string]int32)
		for h.Len() > 0 && h[0].cur.Term == term {
			pr := heap.Pop(&h).(*partialReader)
			for doc, freq := range pr.cur.Postings {
				merged[doc] += freq
			}
			if err := pr.advance(); err != nil {
				return err
			}
			if !pr.done {
				heap.Push(&h, pr)
			}
		}

		line, err := json.Marshal(partialLine{Term: term, Postings: merged})
		if err != nil {
			return fmt.Errorf("indexer: marshaling merged line for %q: %w", term, err)
		}
		line = append(line, '\n')
		n, err := out.Write(line)
		if err != nil {
			return fmt.Errorf("indexer: writing %s: %w", outPath, err)
		}
		lexicon[term] = lexiconEntry{DF: len(merged), Offset: offset, Length: int64(n)}
		offset += int64(n)
	}

	if err := ix.writeJSON(filepath.Join(ix.outDir, "term_lexicon.json"), lexicon); err != nil {
		return err
	}
	docIndex := make(map[string]int32, len(ix.docLen))
	for doc, length := range ix.docLen {
		docIndex[fmt.Sprintf("%d", doc)] = length
	}
	if err := ix.writeJSON(filepath.Join(ix.outDir, "document_index.json"), docIndex); err != nil {
		return err
	}
	return nil
}

func (ix *Indexer) writeJSON(path string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("indexer: marshaling %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("indexer: writing %s: %w", path, err)
	}
	return nil
}
