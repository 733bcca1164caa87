package bot

import (
	"sync"
	"time"
)

// State is the per-sender transient dialogue record. It never touches
// durable storage; a process restart resets in-flight dialogues.
type State struct {
	Step       string
	Draft      map[string]string // accumulated dialogue fields, merged additively
	ListingID  uint              // resolved draft/moderation target, threaded through the flow
	AdminMsg   MessageRef        // admin actions message to edit on terminal transitions
	MediaMode  string            // moderation media sub-flow: add|replace|delete
	Queued     []MediaItem       // media awaiting admin confirmation
	LastActive time.Time
}

// StateStore owns conversation state and the transient media-batch buffers.
// Implementations are injected so tests can run against the in-memory one
// and a shared store can replace it if the bot ever scales out.
type StateStore interface {
	Get(senderID int64) State
	// Merge applies a mutation to the sender's state and stamps activity.
	Merge(senderID int64, apply func(*State))
	Clear(senderID int64)

	// AppendBatch adds an album item, returning the item count. The first
	// append records the batch arrival time.
	AppendBatch(batchID string, item MediaItem) int
	// DrainBatch returns the buffered items exactly once; later calls
	// report ok=false so at most one confirmation is ever sent per batch.
	DrainBatch(batchID string) (items []MediaItem, ok bool)
	DiscardBatch(batchID string)

	// SweepStates drops states idle longer than idleFor; returns how many.
	SweepStates(idleFor time.Duration) int
	// SweepBatches drops batches older than maxAge, flushed or not.
	SweepBatches(maxAge time.Duration) int
}

type mediaBatch struct {
	items     []MediaItem
	arrived   time.Time
	processed bool
}

// MemoryStateStore is the process-wide implementation. Updates are
// per-sender sequential (the transport delivers one event at a time per
// chat), so a single mutex over each map is all the discipline needed.
type MemoryStateStore struct {
	mu     sync.Mutex
	states map[int64]State

	batchMu sync.Mutex
	batches map[string]*mediaBatch
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{
		states:  make(map[int64]State),
		batches: make(map[string]*mediaBatch),
	}
}

func (s *MemoryStateStore) Get(senderID int64) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[senderID]
	if !ok {
		return State{Draft: map[string]string{}}
	}
	return copyState(st)
}

func (s *MemoryStateStore) Merge(senderID int64, apply func(*State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[senderID]
	if !ok {
		st = State{Draft: map[string]string{}}
	} else {
		st = copyState(st)
	}
	apply(&st)
	if st.Draft == nil {
		st.Draft = map[string]string{}
	}
	st.LastActive = time.Now()
	s.states[senderID] = st
}

func (s *MemoryStateStore) Clear(senderID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, senderID)
}

func (s *MemoryStateStore) AppendBatch(batchID string, item MediaItem) int {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	b, ok := s.batches[batchID]
	if !ok {
		b = &mediaBatch{arrived: time.Now()}
		s.batches[batchID] = b
	}
	b.items = append(b.items, item)
	return len(b.items)
}

func (s *MemoryStateStore) DrainBatch(batchID string) ([]MediaItem, bool) {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	b, ok := s.batches[batchID]
	if !ok || b.processed {
		return nil, false
	}
	b.processed = true
	items := b.items
	b.items = nil
	return items, true
}

func (s *MemoryStateStore) DiscardBatch(batchID string) {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	delete(s.batches, batchID)
}

func (s *MemoryStateStore) SweepStates(idleFor time.Duration) int {
	cutoff := time.Now().Add(-idleFor)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, st := range s.states {
		if st.LastActive.Before(cutoff) {
			delete(s.states, id)
			removed++
		}
	}
	return removed
}

func (s *MemoryStateStore) SweepBatches(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	removed := 0
	for id, b := range s.batches {
		if b.arrived.Before(cutoff) {
			delete(s.batches, id)
			removed++
		}
	}
	return removed
}

func copyState(st State) State {
	draft := make(map[string]string, len(st.Draft))
	for k, v := range st.Draft {
		draft[k] = v
	}
	st.Draft = draft
	if st.Queued != nil {
		queued := make([]MediaItem, len(st.Queued))
		copy(queued, st.Queued)
		st.Queued = queued
	}
	return st
}
