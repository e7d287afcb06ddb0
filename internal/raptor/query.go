package raptor

import (
	"sort"

	"github.com/antigravity/transit-raptor-sim/internal/crowding"
	"github.com/antigravity/transit-raptor-sim/internal/network"
	"github.com/antigravity/transit-raptor-sim/internal/occupancy"
)

// Config bundles the per-query tunables of spec.md §4.3/§4.2: the round and
// bag-size bounds, the crowding cost function, and the capacity resolution
// used to turn ridden segments into generalized cost.
type Config struct {
	Rounds          int
	BagSize         int
	CostUtility     float64
	Crowding        crowding.Function
	DefaultCapacity network.Capacity
	// CapacityOverride, if set, is consulted before trip.Capacity and
	// DefaultCapacity (spec.md §4.6 "capacity overrides by trip id").
	CapacityOverride func(network.TripID) (network.Capacity, bool)
}

// Result is the outcome of one Query: the final Pareto bag for every stop,
// plus the arena backing their Prev chains for internal/journey to walk.
type Result struct {
	Bags  []Bag
	Arena *Arena
}

// LabelsAt returns the Pareto-optimal labels reaching stop, in no
// particular order.
func (r *Result) LabelsAt(stop network.StopID) []Label {
	return r.Bags[stop].Labels(r.Arena)
}

// Unreachable reports whether stop was never reached within the configured
// round budget.
func (r *Result) Unreachable(stop network.StopID) bool {
	return len(r.Bags[stop].handles) == 0
}

// Query runs the round-based multi-criteria search from origin departing at
// departure (seconds since service-day start), against net using the
// occupancy snapshot occ to price crowding.
func Query(net *network.Network, occ occupancy.Snapshot, origin network.StopID, departure int, cfg Config) *Result {
	arena := &Arena{}
	bags := make([]Bag, len(net.Stops))

	rootHandle := arena.New(Label{Stop: origin, Arrival: departure, Cost: 0, Round: 0, Prev: noPrev, Leg: LegDescriptor{Kind: LegOrigin}})
	bags[origin] = Bag{handles: []int32{rootHandle}}

	marked := map[network.StopID]bool{origin: true}

	rounds := cfg.Rounds
	if rounds <= 0 {
		rounds = 1
	}

	for round := 1; round <= rounds && len(marked) > 0; round++ {
		prevBags := make([]Bag, len(bags))
		for i := range bags {
			prevBags[i] = bags[i].clone()
		}

		routeEntry := earliestEntryPerRoute(net, marked)
		routeIDs := make([]network.RouteID, 0, len(routeEntry))
		for rid := range routeEntry {
			routeIDs = append(routeIDs, rid)
		}
		sort.Slice(routeIDs, func(i, j int) bool { return routeIDs[i] < routeIDs[j] })

		touched := map[network.StopID]bool{}

		for _, rid := range routeIDs {
			entry := routeEntry[rid]
			route := net.Routes[rid]
			scanRoute(net, occ, cfg, arena, bags, prevBags, route, entry, round, touched)
		}

		nextMarked := map[network.StopID]bool{}
		for stop := range touched {
			nextMarked[stop] = true
			relaxTransfers(net, arena, bags, stop, round, cfg.BagSize, nextMarked)
		}

		marked = nextMarked
	}

	return &Result{Bags: bags, Arena: arena}
}

type routeEntryPoint struct {
	stop network.StopID
	pos  int
}

// earliestEntryPerRoute implements spec.md §4.3 step 1: for every route
// touching a marked stop, record only the earliest stop-sequence offset at
// which a marked stop occurs.
func earliestEntryPerRoute(net *network.Network, marked map[network.StopID]bool) map[network.RouteID]routeEntryPoint {
	out := map[network.RouteID]routeEntryPoint{}
	for stop := range marked {
		for _, m := range net.Stops[stop].Memberships {
			if existing, ok := out[m.Route]; !ok || m.Position < existing.pos {
				out[m.Route] = routeEntryPoint{stop: stop, pos: m.Position}
			}
		}
	}
	return out
}

// scanRoute rides route forward from its earliest marked entry point, once
// per label present in prevBags at that entry stop, inserting a candidate
// label at every downstream stop and marking bags touched this round.
func scanRoute(
	net *network.Network,
	occ occupancy.Snapshot,
	cfg Config,
	arena *Arena,
	bags []Bag,
	prevBags []Bag,
	route network.Route,
	entry routeEntryPoint,
	round int,
	touched map[network.StopID]bool,
) {
	for _, originHandle := range prevBags[entry.stop].handles {
		origin := arena.Label(originHandle)

		tripIdx := earliestTrip(net, route, entry.pos, origin.Arrival)
		if tripIdx == -1 {
			continue
		}

		boardStop := entry.stop
		boardSeq := entry.pos
		boardTime := net.Trips[route.Trips[tripIdx]].StopTimes[entry.pos].Departure
		baseCost := origin.Cost
		predecessor := originHandle
		cumulativeCost := baseCost

		for i := entry.pos + 1; i < len(route.Stops); i++ {
			trip := net.Trips[route.Trips[tripIdx]]
			cumulativeCost += segmentCost(cfg, occ, trip, i-1)
			arrival := trip.StopTimes[i].Arrival
			stop := route.Stops[i]

			candidate := Label{
				Stop:    stop,
				Arrival: arrival,
				Cost:    cumulativeCost,
				Round:   round,
				Prev:    predecessor,
				Leg: LegDescriptor{
					Kind:       LegRide,
					Trip:       trip.ID,
					BoardStop:  boardStop,
					AlightStop: stop,
					BoardSeq:   boardSeq,
					AlightSeq:  i,
					BoardTime:  boardTime,
					AlightTime: arrival,
				},
			}
			if inserted, _ := bags[stop].insert(arena, candidate, cfg.BagSize); inserted {
				touched[stop] = true
			}

			// Earlier-trip capture (spec.md §4.3): a label from the
			// *previous* round's bag at this downstream stop may allow
			// boarding a strictly earlier trip than the one currently
			// ridden; if so, re-board from here.
			for _, h2 := range prevBags[stop].handles {
				l2 := arena.Label(h2)
				betterIdx := earliestTrip(net, route, i, l2.Arrival)
				if betterIdx != -1 && betterIdx < tripIdx {
					tripIdx = betterIdx
					boardStop = stop
					boardSeq = i
					boardTime = net.Trips[route.Trips[tripIdx]].StopTimes[i].Departure
					cumulativeCost = l2.Cost
					predecessor = h2
				}
			}
		}
	}
}

// relaxTransfers implements spec.md §4.3 step 3: every label currently in
// bag_k[stop] may additionally reach stop's one-hop transfer neighbors.
func relaxTransfers(net *network.Network, arena *Arena, bags []Bag, stop network.StopID, round int, bagSize int, nextMarked map[network.StopID]bool) {
	handles := append([]int32(nil), bags[stop].handles...)
	for _, tr := range net.Transfers[stop] {
		if tr.To == stop && tr.Duration == 0 {
			continue
		}
		for _, h := range handles {
			l := arena.Label(h)
			candidate := Label{
				Stop:    tr.To,
				Arrival: l.Arrival + tr.Duration,
				Cost:    l.Cost,
				Round:   round,
				Prev:    h,
				Leg: LegDescriptor{
					Kind:             LegTransfer,
					BoardStop:        stop,
					AlightStop:       tr.To,
					BoardTime:        l.Arrival,
					AlightTime:       l.Arrival + tr.Duration,
					TransferDuration: tr.Duration,
				},
			}
			if inserted, _ := bags[tr.To].insert(arena, candidate, bagSize); inserted {
				nextMarked[tr.To] = true
			}
		}
	}
}

// earliestTrip returns the index into route.Trips of the earliest trip
// departing stop at route-offset pos no earlier than afterTime, or -1 if
// none exists. Trips are sorted ascending by first-stop departure, and the
// non-overtaking invariant of spec.md §3 guarantees that order is preserved
// at every stop along the route, so a binary search is valid.
func earliestTrip(net *network.Network, route network.Route, pos int, afterTime int) int {
	trips := route.Trips
	lo, hi := 0, len(trips)
	for lo < hi {
		mid := (lo + hi) / 2
		if net.Trips[trips[mid]].StopTimes[pos].Departure >= afterTime {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	if lo == len(trips) {
		return -1
	}
	return lo
}

// effectiveCapacity resolves the capacity to use for crowding pricing on
// trip, preferring a per-trip override, then the trip's own declared
// capacity, then the simulation-wide default (spec.md §4.6).
func effectiveCapacity(cfg Config, trip network.Trip) crowding.Capacity {
	if cfg.CapacityOverride != nil {
		if c, ok := cfg.CapacityOverride(trip.ID); ok {
			return crowding.Capacity{Seated: c.Seated, Standing: c.Standing}
		}
	}
	if trip.Capacity.Total() > 0 {
		return crowding.Capacity{Seated: trip.Capacity.Seated, Standing: trip.Capacity.Standing}
	}
	return crowding.Capacity{Seated: cfg.DefaultCapacity.Seated, Standing: cfg.DefaultCapacity.Standing}
}

// segmentCost prices one ridden segment as travel time plus the crowding
// penalty integrated over the segment's duration (spec.md §4.2: "generalized
// cost = travel time + cost_utility * integral of the crowding penalty over
// the segment's dwell").
func segmentCost(cfg Config, occ occupancy.Snapshot, trip network.Trip, segIdx int) float64 {
	departure := trip.StopTimes[segIdx].Departure
	arrival := trip.StopTimes[segIdx+1].Arrival
	duration := arrival - departure
	if duration < 0 {
		duration = 0
	}
	load := occ.Load(trip.ID, segIdx)
	cap := effectiveCapacity(cfg, trip)
	penalty := cfg.Crowding.Cost(load, cap)
	minutes := float64(duration) / 60.0
	return float64(duration) + cfg.CostUtility*penalty*minutes
}
