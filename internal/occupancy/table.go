// Package occupancy holds the shared, mutable per-(trip,segment) passenger
// counts of spec.md §3/§5: a dense table workers increment with atomic
// fetch-add during a simulation step, and a frozen snapshot RAPTOR queries
// read from.
package occupancy

import (
	"hash/fnv"
	"sync/atomic"

	"github.com/antigravity/transit-raptor-sim/internal/network"
)

// Table is a flat N_trips x max_stops int64 array. The zero value is not
// usable; construct with New.
type Table struct {
	counts   []int64
	maxStops int
}

// New allocates a table sized for numTrips trips, each with up to maxStops-1
// ridden segments (segment i runs between stop index i and i+1).
func New(numTrips, maxStops int) *Table {
	if maxStops < 1 {
		maxStops = 1
	}
	return &Table{counts: make([]int64, numTrips*maxStops), maxStops: maxStops}
}

func (t *Table) index(trip network.TripID, segment int) int {
	return int(trip)*t.maxStops + segment
}

// Add atomically increments the occupancy of (trip, segment) by delta. Safe
// for concurrent use by any number of goroutines (spec.md §5: "concurrent
// writes use atomic fetch-add").
func (t *Table) Add(trip network.TripID, segment int, delta int64) {
	atomic.AddInt64(&t.counts[t.index(trip, segment)], delta)
}

// Reset zeroes the entire table, performed once at the start of each outer
// round (spec.md §4.5 step 1).
func (t *Table) Reset() {
	for i := range t.counts {
		atomic.StoreInt64(&t.counts[i], 0)
	}
}

// Snapshot copies the table's current values into an immutable view safe
// to hand to concurrent RAPTOR queries. Taking the snapshot at step entry
// and never mutating it is what gives RAPTOR queries within a step a
// stable view of occupancy (spec.md §5: "intra-step updates... are
// intentionally not fed back").
func (t *Table) Snapshot() Snapshot {
	cp := make([]int64, len(t.counts))
	for i := range t.counts {
		cp[i] = atomic.LoadInt64(&t.counts[i])
	}
	return Snapshot{counts: cp, maxStops: t.maxStops}
}

// Segments returns the segment counts for a single trip, in stop-index
// order, for reporting (spec.md §6 "Segment counts").
func (t *Table) Segments(trip network.TripID, numSegments int) []int64 {
	out := make([]int64, numSegments)
	for i := 0; i < numSegments; i++ {
		out[i] = atomic.LoadInt64(&t.counts[t.index(trip, i)])
	}
	return out
}

// Snapshot is a read-only, point-in-time view of a Table's counts.
type Snapshot struct {
	counts   []int64
	maxStops int
}

// Load returns the occupancy of (trip, segment) as of when the snapshot was
// taken.
func (s Snapshot) Load(trip network.TripID, segment int) int {
	idx := int(trip)*s.maxStops + segment
	if idx < 0 || idx >= len(s.counts) {
		return 0
	}
	return int(s.counts[idx])
}

// Empty returns a snapshot reading zero everywhere, useful for the first
// RAPTOR pass of an outer round before any occupancy has accumulated.
func Empty() Snapshot {
	return Snapshot{}
}

// Fingerprint hashes the snapshot's counts into a single value cheap enough
// to use as a cache-key component (internal/cache.BagKey), so a cached bag
// set is only ever served back for a snapshot with identical occupancy.
func (s Snapshot) Fingerprint() uint64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, c := range s.counts {
		v := uint64(c)
		for i := 0; i < 8; i++ {
			buf[i] = byte(v >> (8 * i))
		}
		h.Write(buf[:])
	}
	return h.Sum64()
}
