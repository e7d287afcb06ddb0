// Package raptor implements the round-based multi-criteria journey search
// of spec.md §4.3: a generalization of the classic RAPTOR algorithm where
// each per-stop scalar arrival time becomes a size-bounded bag of
// Pareto-optimal (arrival, cost) labels.
package raptor

import (
	"encoding/json"

	"github.com/antigravity/transit-raptor-sim/internal/network"
)

// LegKind distinguishes the two ways a label can have been reached.
type LegKind uint8

const (
	LegOrigin LegKind = iota
	LegRide
	LegTransfer
)

// LegDescriptor records how a label was reached, enough to reconstruct a
// human-facing journey in internal/journey without re-running the search.
type LegDescriptor struct {
	Kind             LegKind
	Trip             network.TripID
	BoardStop        network.StopID
	AlightStop       network.StopID
	BoardSeq         int // index into Route.Stops
	AlightSeq        int
	BoardTime        int
	AlightTime       int
	TransferDuration int
}

// Label is one Pareto-optimal (arrival, cost) reach of a stop. Labels are
// immutable once created and referenced by integer handle rather than
// pointer (spec.md §9: "per-query arena of value-type labels addressed by
// integer handle, not pointers", chosen to keep the hot loop allocation-free
// and GC-pressure-free).
type Label struct {
	Stop    network.StopID
	Arrival int
	Cost    float64
	Round   int // round at which this label was created; a proxy for "number of transfers" in tie-breaking
	Prev    int32
	Leg     LegDescriptor
}

// noPrev marks a label with no predecessor (the origin label).
const noPrev int32 = -1

// Arena is a per-query append-only store of labels. Handles into it (int32
// indices) remain valid for the arena's entire lifetime.
type Arena struct {
	labels []Label
}

// New appends a label and returns its handle.
func (a *Arena) New(l Label) int32 {
	a.labels = append(a.labels, l)
	return int32(len(a.labels) - 1)
}

// Get returns a pointer to the label at handle h. The pointer is only valid
// until the next New call invalidates the backing array.
func (a *Arena) Get(h int32) *Label {
	return &a.labels[h]
}

// Label returns a copy of the label at handle h.
func (a *Arena) Label(h int32) Label {
	return a.labels[h]
}

// Len reports how many labels the arena currently holds.
func (a *Arena) Len() int {
	return len(a.labels)
}

// MarshalJSON exports labels, the arena's only state, so a Result can round
// trip through internal/cache's Redis-backed store.
func (a Arena) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.labels)
}

// UnmarshalJSON is MarshalJSON's inverse.
func (a *Arena) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &a.labels)
}
