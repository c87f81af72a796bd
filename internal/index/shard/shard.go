// Package shard implements a single index shard: a thread-safe
// term -> postings.List map that self-serializes to an opaque binary blob
// (spec.md §4.1 "Index shard"), mirroring the teacher's memoryCache
// (cache.go) in shape — a mutex-guarded map of sets — generalized from
// string sets to postings lists.
package shard

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sync"

	"github.com/codepr/searchengine/internal/index/postings"
)

// Shard maps term -> postings.List under a single RWMutex.
type Shard struct {
	mu   sync.RWMutex
	data map[string]*postings.List
}

// New creates an empty Shard.
func New() *Shard {
	return &Shard{data: make(map[string]*postings.List)}
}

// Add appends docID to term's postings list, creating the list on first
// sighting of the term. docID must be greater than any previously-added
// docID for this term (postings.List.Append's ordering invariant).
func (s *Shard) Add(term string, docID int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.data[term]
	if !ok {
		l = postings.New()
		s.data[term] = l
	}
	return l.Append(docID)
}

// Contains probes whether docID is present in term's postings list.
func (s *Shard) Contains(term string, docID int32) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.data[term]
	if !ok {
		return false
	}
	return l.Contains(docID)
}

// Len reports the number of distinct terms held by this shard.
func (s *Shard) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Terms returns a snapshot of postings lists keyed by term, flattened to
// plain id slices.
func (s *Shard) Terms() map[string][]int32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]int32, len(s.data))
	for term, l := range s.data {
		out[term] = l.Serialize()
	}
	return out
}

// blob is the gob-encoded wire shape of a Shard (the package has no
// third-party serialization dependency to ground an opaque-blob format on,
// so this uses encoding/gob — see DESIGN.md).
type blob struct {
	Postings map[string][]int32
}

// Serialize encodes the shard into an opaque binary blob.
func (s *Shard) Serialize() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b := blob{Postings: make(map[string][]int32, len(s.data))}
	for term, l := range s.data {
		b.Postings[term] = l.Serialize()
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(b); err != nil {
		return nil, fmt.Errorf("shard: encoding: %w", err)
	}
	return buf.Bytes(), nil
}

// Load replaces the shard's contents with the postings decoded from data.
func Load(data []byte) (*Shard, error) {
	var b blob
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&b); err != nil {
		return nil, fmt.Errorf("shard: decoding: %w", err)
	}
	s := New()
	for term, ids := range b.Postings {
		l, err := postings.FromIDs(ids)
		if err != nil {
			return nil, fmt.Errorf("shard: rebuilding postings for %q: %w", term, err)
		}
		s.data[term] = l
	}
	return s, nil
}
