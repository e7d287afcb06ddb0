// Package journey turns a chosen RAPTOR label into a human-facing
// itinerary by walking its back-pointer chain (spec.md §4.4).
package journey

import (
	"github.com/antigravity/transit-raptor-sim/internal/network"
	"github.com/antigravity/transit-raptor-sim/internal/raptor"
)

// Leg is one ridden trip or one walking transfer within an itinerary.
type Leg struct {
	Kind         raptor.LegKind
	Trip         network.TripID
	TripExternal string
	FromStop     network.StopID
	ToStop       network.StopID
	// BoardSeq/AlightSeq are the trip's route-stop-sequence indices for a
	// Ride leg, letting internal/simulate increment occupancy for every
	// segment the leg spans without re-deriving positions from stop ids.
	BoardSeq     int
	AlightSeq    int
	DepartTime   int
	ArriveTime   int
	TransferSecs int
}

// Itinerary is the full reconstructed journey from origin to destination.
type Itinerary struct {
	Origin      network.StopID
	Destination network.StopID
	DepartTime  int
	ArriveTime  int
	Cost        float64
	Transfers   int
	Legs        []Leg
}

// Reconstruct walks the Prev chain of the label at handle back to the
// origin, producing an Itinerary in forward (origin-to-destination) order.
// Each ridden label already spans a single continuous ride from its
// boarding stop to its alighting stop (raptor never chains two Ride legs
// without an intervening bag lookup), so no same-trip leg merging is
// needed here; zero-duration self-transfers are dropped defensively even
// though raptor never emits them.
func Reconstruct(net *network.Network, result *raptor.Result, destination network.StopID, handle int32) Itinerary {
	var reversed []raptor.Label
	for h := handle; h != -1; {
		l := result.Arena.Label(h)
		reversed = append(reversed, l)
		h = l.Prev
	}

	legs := make([]Leg, 0, len(reversed))
	for i := len(reversed) - 1; i >= 0; i-- {
		l := reversed[i]
		switch l.Leg.Kind {
		case raptor.LegOrigin:
			continue
		case raptor.LegTransfer:
			if l.Leg.BoardStop == l.Leg.AlightStop && l.Leg.TransferDuration == 0 {
				continue
			}
			legs = append(legs, Leg{
				Kind:         raptor.LegTransfer,
				FromStop:     l.Leg.BoardStop,
				ToStop:       l.Leg.AlightStop,
				DepartTime:   l.Leg.BoardTime,
				ArriveTime:   l.Leg.AlightTime,
				TransferSecs: l.Leg.TransferDuration,
			})
		case raptor.LegRide:
			external := ""
			if int(l.Leg.Trip) < len(net.Trips) {
				external = net.Trips[l.Leg.Trip].ExternalID
			}
			legs = append(legs, Leg{
				Kind:         raptor.LegRide,
				Trip:         l.Leg.Trip,
				TripExternal: external,
				FromStop:     l.Leg.BoardStop,
				ToStop:       l.Leg.AlightStop,
				BoardSeq:     l.Leg.BoardSeq,
				AlightSeq:    l.Leg.AlightSeq,
				DepartTime:   l.Leg.BoardTime,
				ArriveTime:   l.Leg.AlightTime,
			})
		}
	}

	it := Itinerary{Destination: destination, Legs: legs}
	if len(reversed) > 0 {
		origin := reversed[len(reversed)-1]
		it.Origin = origin.Stop
		it.DepartTime = origin.Arrival
	}
	final := reversed[0]
	it.ArriveTime = final.Arrival
	it.Cost = final.Cost
	it.Transfers = rideCount(legs)
	return it
}

// rideCount reports how many Ride legs (i.e. vehicle boardings) an
// itinerary contains, minus one, as the number of transfers between
// vehicles; an itinerary with a single ride has zero transfers.
func rideCount(legs []Leg) int {
	rides := 0
	for _, l := range legs {
		if l.Kind == raptor.LegRide {
			rides++
		}
	}
	if rides == 0 {
		return 0
	}
	return rides - 1
}

// Hint is a previous round's chosen (arrival, cost), used only to break
// ties among equally-good labels in the current round (spec.md §4.5 step
// 4: "the agent's round-r journey is retained as a warm hint, used only to
// break ties on equal utility in round r+1").
type Hint struct {
	Arrival int
	Cost    float64
	Valid   bool
}

// Best selects the label at stop minimizing the linear scalarization
// arrival + costUtility*cost (spec.md §4.5 step (b): "deterministically pick
// a single label from the bag... by the same total-cost utility used for
// crowding pricing"). It returns false if stop was unreachable. Among labels
// tied on utility, hint (when Valid) prefers the label matching the
// previous round's chosen arrival and cost; otherwise ties break on the
// smaller arena handle, which is deterministic since handles are assigned
// in a fixed per-query order.
func Best(result *raptor.Result, stop network.StopID, costUtility float64, hint Hint) (int32, bool) {
	handles := result.Bags[stop].Handles()
	if len(handles) == 0 {
		return 0, false
	}

	utility := func(l raptor.Label) float64 { return float64(l.Arrival) + costUtility*l.Cost }
	matchesHint := func(l raptor.Label) bool {
		return hint.Valid && l.Arrival == hint.Arrival && l.Cost == hint.Cost
	}

	bestHandle := handles[0]
	bestLabel := result.Arena.Label(bestHandle)
	bestUtility := utility(bestLabel)
	for _, h := range handles[1:] {
		l := result.Arena.Label(h)
		u := utility(l)
		switch {
		case u < bestUtility:
			bestHandle, bestLabel, bestUtility = h, l, u
		case u == bestUtility:
			if matchesHint(l) && !matchesHint(bestLabel) {
				bestHandle, bestLabel = h, l
			} else if h < bestHandle && matchesHint(l) == matchesHint(bestLabel) {
				bestHandle, bestLabel = h, l
			}
		}
	}
	return bestHandle, true
}
