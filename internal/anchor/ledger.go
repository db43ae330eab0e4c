package anchor

import (
	"fmt"
	"sort"

	"github.com/docanchor/docanchor/internal/layout"
)

// Ledger tracks the line IDs already claimed by an anchored chunk during
// one document's matching pass, guaranteeing at most one chunk per line.
// A fresh ledger is constructed per run and discarded afterwards; it is
// never shared between documents or persisted.
type Ledger struct {
	claimed map[layout.LineID]struct{}
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{claimed: make(map[layout.LineID]struct{})}
}

// Claim marks a line as owned. Claiming a line twice is a defect in the
// matcher's candidate generation, not a runtime condition, so it panics
// rather than being silently tolerated.
func (l *Ledger) Claim(id layout.LineID) {
	if _, ok := l.claimed[id]; ok {
		panic(fmt.Sprintf("exclusion ledger: line %s claimed twice", id))
	}
	l.claimed[id] = struct{}{}
}

// Claimed reports whether a line is already owned by some chunk.
func (l *Ledger) Claimed(id layout.LineID) bool {
	_, ok := l.claimed[id]
	return ok
}

// Len returns the number of claimed lines.
func (l *Ledger) Len() int {
	return len(l.claimed)
}

// IDs returns the claimed line IDs in document order.
func (l *Ledger) IDs() []layout.LineID {
	ids := make([]layout.LineID, 0, len(l.claimed))
	for id := range l.claimed {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
	return ids
}
