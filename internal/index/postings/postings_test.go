package postings

import (
	"math/rand"
	"testing"
)

func TestListAppendRejectsOutOfOrder(t *testing.T) {
	l := New()
	if err := l.Append(5); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := l.Append(5); err == nil {
		t.Errorf("Append failed: expected error on duplicate docID")
	}
	if err := l.Append(3); err == nil {
		t.Errorf("Append failed: expected error on out-of-order docID")
	}
}

func TestListContains(t *testing.T) {
	l := New()
	ids := []int32{1, 4, 9, 16, 25, 36, 49, 64, 81, 100}
	for _, id := range ids {
		if err := l.Append(id); err != nil {
			t.Fatalf("Append(%d) failed: %v", id, err)
		}
	}
	for _, id := range ids {
		if !l.Contains(id) {
			t.Errorf("Contains(%d) failed: expected true", id)
		}
	}
	for _, miss := range []int32{0, 2, 50, 101} {
		if l.Contains(miss) {
			t.Errorf("Contains(%d) failed: expected false", miss)
		}
	}
}

func TestListSerializeRoundTrip(t *testing.T) {
	l := New()
	ids := []int32{2, 4, 6, 8, 10}
	for _, id := range ids {
		_ = l.Append(id)
	}
	blob := l.Serialize()
	reloaded, err := FromIDs(blob)
	if err != nil {
		t.Fatalf("FromIDs failed: %v", err)
	}
	for _, id := range ids {
		if !reloaded.Contains(id) {
			t.Errorf("round-trip Contains(%d) failed: expected true", id)
		}
	}
	if reloaded.Len() != len(ids) {
		t.Errorf("round-trip Len failed: expected %d got %d", len(ids), reloaded.Len())
	}
}

func TestFromIDsRejectsUnsorted(t *testing.T) {
	if _, err := FromIDs([]int32{1, 3, 2}); err == nil {
		t.Errorf("FromIDs failed: expected error on unsorted input")
	}
}

func TestListContainsRandomized(t *testing.T) {
	n := 2000
	ids := make([]int32, 0, n)
	seen := map[int32]bool{}
	cur := int32(0)
	for len(ids) < n {
		cur += int32(1 + rand.Intn(5))
		ids = append(ids, cur)
		seen[cur] = true
	}
	l := New()
	for _, id := range ids {
		if err := l.Append(id); err != nil {
			t.Fatalf("Append(%d) failed: %v", id, err)
		}
	}
	for i := 0; i < 200; i++ {
		probe := int32(rand.Intn(int(cur) + 10))
		if l.Contains(probe) != seen[probe] {
			t.Errorf("Contains(%d) failed: expected %v got %v", probe, seen[probe], l.Contains(probe))
		}
	}
}
