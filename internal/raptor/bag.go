package raptor

import "encoding/json"

// Bag is a size-bounded, Pareto-optimal set of label handles for a single
// stop (spec.md §4.3). It never stores two labels where one dominates the
// other.
type Bag struct {
	handles []int32
}

// MarshalJSON exports handles, the bag's only state, so a Result can round
// trip through internal/cache's Redis-backed store.
func (b Bag) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.handles)
}

// UnmarshalJSON is MarshalJSON's inverse.
func (b *Bag) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &b.handles)
}

// Handles returns the bag's current label handles. The caller must not
// mutate the returned slice.
func (b *Bag) Handles() []int32 {
	return b.handles
}

// Labels resolves the bag's handles against arena into label values, for
// tests and reporting.
func (b *Bag) Labels(arena *Arena) []Label {
	out := make([]Label, len(b.handles))
	for i, h := range b.handles {
		out[i] = arena.Label(h)
	}
	return out
}

// clone returns an independent copy of the bag's handle slice. Handles
// themselves are cheap value indices, so cloning a bag between rounds is an
// O(bag size) slice copy, not a deep copy of labels.
func (b Bag) clone() Bag {
	cp := make([]int32, len(b.handles))
	copy(cp, b.handles)
	return Bag{handles: cp}
}

// supersedes reports whether label a is at least as good as b on both
// criteria (arrival, cost), i.e. a Pareto-dominates-or-ties b. Exact ties on
// both criteria are broken by round (fewer implied transfers wins), per
// spec.md §4.3's tie-break order "fewer transfers, then smaller arrival
// time, then smaller cost".
func supersedes(a, b Label) bool {
	if a.Arrival > b.Arrival || a.Cost > b.Cost {
		return false
	}
	if a.Arrival == b.Arrival && a.Cost == b.Cost {
		return a.Round <= b.Round
	}
	return true
}

// insert attempts to add candidate to the bag, maintaining the Pareto
// antichain invariant and the maxSize bound. It returns true, with the new
// label's handle, whenever no existing label supersedes candidate; this
// includes the case where eviction then drops candidate itself, so true
// does not guarantee that candidate is still in the bag.
//
// Eviction policy: when admitting candidate pushes the bag over maxSize,
// the label with the largest cost is dropped (ties broken by dropping the
// later arrival). This is the literal rule of spec.md §4.3; the illustrative
// bag-eviction walkthrough of spec.md §8 reads ambiguously against it (see
// DESIGN.md), so the literal §4.3 rule is what's implemented here.
func (b *Bag) insert(arena *Arena, candidate Label, maxSize int) (bool, int32) {
	for _, h := range b.handles {
		existing := arena.Get(h)
		if supersedes(*existing, candidate) {
			return false, noPrev
		}
	}

	kept := b.handles[:0:0]
	for _, h := range b.handles {
		existing := arena.Get(h)
		if !supersedes(candidate, *existing) {
			kept = append(kept, h)
		}
	}
	h := arena.New(candidate)
	kept = append(kept, h)

	if maxSize > 0 && len(kept) > maxSize {
		kept = evictWorst(arena, kept)
	}
	b.handles = kept
	return true, h
}

// evictWorst removes the single worst handle (largest cost, latest arrival
// on a cost tie) from handles and returns the remainder.
func evictWorst(arena *Arena, handles []int32) []int32 {
	worst := 0
	worstLabel := arena.Label(handles[0])
	for i := 1; i < len(handles); i++ {
		l := arena.Label(handles[i])
		if l.Cost > worstLabel.Cost || (l.Cost == worstLabel.Cost && l.Arrival > worstLabel.Arrival) {
			worst = i
			worstLabel = l
		}
	}
	out := make([]int32, 0, len(handles)-1)
	out = append(out, handles[:worst]...)
	out = append(out, handles[worst+1:]...)
	return out
}
