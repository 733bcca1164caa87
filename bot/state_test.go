package bot

import (
	"testing"
	"time"
)

func TestStateMergeAndGetCopies(t *testing.T) {
	s := NewMemoryStateStore()

	s.Merge(1, func(st *State) {
		st.Step = "awaiting_name"
		st.Draft["category"] = "residential"
	})

	st := s.Get(1)
	if st.Step != "awaiting_name" || st.Draft["category"] != "residential" {
		t.Fatalf("unexpected state %+v", st)
	}

	// Mutating the returned copy must not leak back into the store.
	st.Draft["category"] = "commercial"
	if got := s.Get(1).Draft["category"]; got != "residential" {
		t.Fatalf("Get leaked a mutable reference, draft = %q", got)
	}
}

func TestStateClear(t *testing.T) {
	s := NewMemoryStateStore()
	s.Merge(7, func(st *State) { st.Step = "awaiting_price" })
	s.Clear(7)

	if st := s.Get(7); st.Step != "" {
		t.Fatalf("expected empty state after Clear, got %+v", st)
	}
}

func TestBatchDrainOnce(t *testing.T) {
	s := NewMemoryStateStore()

	if n := s.AppendBatch("album-1", MediaItem{FileID: "a"}); n != 1 {
		t.Fatalf("first append count = %d", n)
	}
	if n := s.AppendBatch("album-1", MediaItem{FileID: "b"}); n != 2 {
		t.Fatalf("second append count = %d", n)
	}

	items, ok := s.DrainBatch("album-1")
	if !ok || len(items) != 2 {
		t.Fatalf("drain = %v, %v", items, ok)
	}

	// A second drain must report already-processed.
	if _, ok := s.DrainBatch("album-1"); ok {
		t.Fatal("second drain succeeded; batch handled twice")
	}

	// Even a late append cannot resurrect the batch.
	s.AppendBatch("album-1", MediaItem{FileID: "c"})
	if _, ok := s.DrainBatch("album-1"); ok {
		t.Fatal("drain after late append succeeded")
	}
}

func TestDrainUnknownBatch(t *testing.T) {
	s := NewMemoryStateStore()
	if _, ok := s.DrainBatch("missing"); ok {
		t.Fatal("drain of unknown batch reported ok")
	}
}

func TestSweepStates(t *testing.T) {
	s := NewMemoryStateStore()
	s.Merge(1, func(st *State) { st.Step = "x" })
	s.Merge(2, func(st *State) { st.Step = "y" })

	// Backdate sender 1.
	s.mu.Lock()
	st := s.states[1]
	st.LastActive = time.Now().Add(-3 * time.Hour)
	s.states[1] = st
	s.mu.Unlock()

	if n := s.SweepStates(2 * time.Hour); n != 1 {
		t.Fatalf("swept %d states, want 1", n)
	}
	if s.Get(1).Step != "" {
		t.Fatal("idle state survived the sweep")
	}
	if s.Get(2).Step != "y" {
		t.Fatal("fresh state was swept")
	}
}

func TestSweepBatches(t *testing.T) {
	s := NewMemoryStateStore()
	s.AppendBatch("old", MediaItem{FileID: "a"})
	s.AppendBatch("new", MediaItem{FileID: "b"})

	s.batchMu.Lock()
	s.batches["old"].arrived = time.Now().Add(-time.Hour)
	s.batchMu.Unlock()

	if n := s.SweepBatches(10 * time.Minute); n != 1 {
		t.Fatalf("swept %d batches, want 1", n)
	}
	if _, ok := s.DrainBatch("new"); !ok {
		t.Fatal("fresh batch was swept")
	}
}
