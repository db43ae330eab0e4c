package dedup

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/docanchor/docanchor/internal/anchor"
)

// ErrNotFound is returned by Get when no result exists for the hash.
var ErrNotFound = errors.New("dedup: result not found")

// Record is a stored anchoring result keyed by document hash.
type Record struct {
	Hash      string                 `json:"hash"`
	Path      string                 `json:"path"`
	Pages     int                    `json:"pages"`
	Chunks    []anchor.AnchoredChunk `json:"chunks"`
	CreatedAt time.Time              `json:"created_at"`
}

// Store persists anchoring results by content hash. Implementations must
// be safe for concurrent use.
type Store interface {
	// Get returns the stored record for the hash, or ErrNotFound.
	Get(ctx context.Context, hash string) (*Record, error)

	// Put stores the record under its hash, replacing any previous one.
	Put(ctx context.Context, rec *Record) error
}

// MemoryStore keeps records in process memory. Suitable for single-run
// CLI use and for tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, hash string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[hash]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

// Put implements Store.
func (s *MemoryStore) Put(_ context.Context, rec *Record) error {
	if rec == nil || rec.Hash == "" {
		return errors.New("dedup: record must have a hash")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *rec
	s.records[rec.Hash] = &cp
	return nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
