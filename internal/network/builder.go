package network

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// RawStop mirrors a GTFS stops.txt row after the boundary adapter has
// already parsed the ZIP (GTFS parsing itself is out of scope, spec.md §1).
type RawStop struct {
	ID       string
	Name     string
	Lat, Lon float64
}

// RawStopTime mirrors a GTFS stop_times.txt row.
type RawStopTime struct {
	TripID    string
	StopID    string
	Sequence  int
	Arrival   int
	Departure int
}

// RawTrip mirrors a GTFS trips.txt row, labeled by the service id that
// determines whether it runs on the modeled date.
type RawTrip struct {
	ID        string
	ServiceID string
	Capacity  Capacity // zero value: resolved later from simulation defaults/overrides
}

// RawTransfer mirrors a GTFS transfers.txt row.
type RawTransfer struct {
	From, To string
	Duration int
}

// BuildInput bundles everything Build needs to construct a Network.
type BuildInput struct {
	Stops            []RawStop
	StopTimes        []RawStopTime
	Trips            []RawTrip
	ActiveServiceIDs map[string]bool
	Transfers        []RawTransfer

	// MaxWalkMeters, when > 0, synthesizes additional foot transfers between
	// any two stops within this geographic distance (spec.md §4.1 step 6).
	MaxWalkMeters float64
	// WalkSpeedMetersPerSecond defaults to 1.2 m/s (a typical pedestrian
	// pace) when zero.
	WalkSpeedMetersPerSecond float64
}

// averageWalkSpeed is the default pedestrian pace used to turn a
// geographic distance into a transfer duration.
const averageWalkSpeed = 1.2

// Build constructs an immutable Network from raw GTFS-shaped records,
// following spec.md §4.1: filter active trips, sort and validate stop
// times, canonicalize trips into non-overtaking routes, compute stop
// memberships, and synthesize transfers.
func Build(in BuildInput) (*Network, error) {
	stopIDs, stopOrder, err := assignStopIDs(in.Stops)
	if err != nil {
		return nil, err
	}

	stopTimesByTrip, err := groupAndValidateStopTimes(in.StopTimes, stopIDs)
	if err != nil {
		return nil, err
	}

	activeTrips := make([]RawTrip, 0, len(in.Trips))
	for _, t := range in.Trips {
		if in.ActiveServiceIDs == nil || in.ActiveServiceIDs[t.ServiceID] {
			if _, ok := stopTimesByTrip[t.ID]; ok {
				activeTrips = append(activeTrips, t)
			}
		}
	}
	if len(activeTrips) == 0 {
		return nil, &BuildError{Kind: ErrNoActiveTrips, Details: []string{"no trip is active on the modeled date"}}
	}

	candidates := canonicalize(activeTrips, stopTimesByTrip, stopIDs)
	routes, trips := splitOvertaking(candidates)

	stops := make([]Stop, len(stopOrder))
	for i, id := range stopOrder {
		raw := in.Stops[id]
		stops[i] = Stop{ID: StopID(i), Name: raw.Name, Lat: raw.Lat, Lon: raw.Lon}
	}
	for ri := range routes {
		for pos, sid := range routes[ri].Stops {
			stops[sid].Memberships = append(stops[sid].Memberships, RouteMembership{Route: routes[ri].ID, Position: pos})
		}
	}

	transfers := synthesizeTransfers(len(stops), in.Transfers, stopIDs, stops, in.MaxWalkMeters, orDefault(in.WalkSpeedMetersPerSecond, averageWalkSpeed))

	n := &Network{
		Stops:      stops,
		Routes:     routes,
		Trips:      trips,
		Transfers:  transfers,
		nameToStop: make(map[string]StopID, len(stops)),
	}
	for _, s := range stops {
		n.nameToStop[s.Name] = s.ID
	}
	return n, nil
}

func orDefault(v, def float64) float64 {
	if v <= 0 {
		return def
	}
	return v
}

// assignStopIDs assigns dense ids ordered by external stop id ascending
// (the canonical ordering of spec.md §8 property 7), and rejects
// duplicates.
func assignStopIDs(raw []RawStop) (map[string]StopID, []int, error) {
	order := make([]int, len(raw))
	for i := range raw {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return raw[order[a]].ID < raw[order[b]].ID })

	ids := make(map[string]StopID, len(raw))
	var dupes []string
	for rank, idx := range order {
		ext := raw[idx].ID
		if _, exists := ids[ext]; exists {
			dupes = append(dupes, ext)
			continue
		}
		ids[ext] = StopID(rank)
	}
	if len(dupes) > 0 {
		return nil, nil, &BuildError{Kind: ErrDuplicateStop, Details: dupes}
	}
	return ids, order, nil
}

// groupAndValidateStopTimes sorts each trip's stop times by sequence and
// checks monotonicity and dwell (spec.md §3 invariants).
func groupAndValidateStopTimes(raw []RawStopTime, stopIDs map[string]StopID) (map[string][]RawStopTime, error) {
	byTrip := make(map[string][]RawStopTime)
	var unknown []string
	for _, st := range raw {
		if _, ok := stopIDs[st.StopID]; !ok {
			unknown = append(unknown, fmt.Sprintf("trip %s references unknown stop %s", st.TripID, st.StopID))
			continue
		}
		byTrip[st.TripID] = append(byTrip[st.TripID], st)
	}
	if len(unknown) > 0 {
		return nil, &BuildError{Kind: ErrUnknownStop, Details: unknown}
	}

	var nonMonotone []string
	for tripID, sts := range byTrip {
		sort.Slice(sts, func(a, b int) bool { return sts[a].Sequence < sts[b].Sequence })
		for i, st := range sts {
			if st.Departure < st.Arrival {
				nonMonotone = append(nonMonotone, fmt.Sprintf("trip %s: stop %s departs before it arrives", tripID, st.StopID))
			}
			if i > 0 {
				prev := sts[i-1]
				if st.Arrival < prev.Arrival || st.Departure < prev.Departure {
					nonMonotone = append(nonMonotone, fmt.Sprintf("trip %s: stop times not monotone at sequence %d", tripID, st.Sequence))
				}
			}
		}
		byTrip[tripID] = sts
	}
	if len(nonMonotone) > 0 {
		return nil, &BuildError{Kind: ErrNonMonotoneTimes, Details: nonMonotone}
	}
	return byTrip, nil
}

// canonTrip is a trip still tagged with its external id and raw stop times,
// before route/trip ids are finalized.
type canonTrip struct {
	external  string
	stopSeq   []StopID
	stopTimes []StopTime
	capacity  Capacity
}

// canonicalize groups trips sharing an identical stop-id sequence into
// candidate routes (spec.md §4.1 step 3).
func canonicalize(trips []RawTrip, stopTimesByTrip map[string][]RawStopTime, stopIDs map[string]StopID) map[string][]canonTrip {
	candidates := make(map[string][]canonTrip)
	for _, t := range trips {
		sts := stopTimesByTrip[t.ID]
		seq := make([]StopID, len(sts))
		times := make([]StopTime, len(sts))
		keyParts := make([]string, len(sts))
		for i, st := range sts {
			sid := stopIDs[st.StopID]
			seq[i] = sid
			times[i] = StopTime{Arrival: st.Arrival, Departure: st.Departure}
			keyParts[i] = fmt.Sprintf("%d", sid)
		}
		key := strings.Join(keyParts, ">")
		candidates[key] = append(candidates[key], canonTrip{external: t.ID, stopSeq: seq, stopTimes: times, capacity: t.Capacity})
	}
	return candidates
}

// splitOvertaking sorts each candidate group by first departure and splits
// it into the minimal number of non-overtaking lanes, each becoming one
// Route (spec.md §4.1 step 4, §3 invariant 1). Final route order is by
// first-stop id then by first trip's first departure (spec.md §8 property 7).
func splitOvertaking(candidates map[string][]canonTrip) ([]Route, []Trip) {
	type lane struct {
		trips []canonTrip
	}
	type routeDraft struct {
		stops []StopID
		lanes []lane
	}

	var drafts []routeDraft
	for _, group := range candidates {
		sort.Slice(group, func(a, b int) bool { return group[a].stopTimes[0].Departure < group[b].stopTimes[0].Departure })

		var lanes []lane
		for _, t := range group {
			placed := false
			for li := range lanes {
				last := lanes[li].trips[len(lanes[li].trips)-1]
				if nonOvertaking(last, t) {
					lanes[li].trips = append(lanes[li].trips, t)
					placed = true
					break
				}
			}
			if !placed {
				lanes = append(lanes, lane{trips: []canonTrip{t}})
			}
		}
		drafts = append(drafts, routeDraft{stops: group[0].stopSeq, lanes: lanes})
	}

	sort.Slice(drafts, func(a, b int) bool {
		sa, sb := drafts[a].stops[0], drafts[b].stops[0]
		if sa != sb {
			return sa < sb
		}
		return drafts[a].lanes[0].trips[0].stopTimes[0].Departure < drafts[b].lanes[0].trips[0].stopTimes[0].Departure
	})

	var routes []Route
	var trips []Trip
	for _, d := range drafts {
		laneOrder := make([]int, len(d.lanes))
		for i := range laneOrder {
			laneOrder[i] = i
		}
		sort.Slice(laneOrder, func(a, b int) bool {
			return d.lanes[laneOrder[a]].trips[0].stopTimes[0].Departure < d.lanes[laneOrder[b]].trips[0].stopTimes[0].Departure
		})
		for _, li := range laneOrder {
			rid := RouteID(len(routes))
			route := Route{ID: rid, Stops: d.stops}
			for _, ct := range d.lanes[li].trips {
				tid := TripID(len(trips))
				trips = append(trips, Trip{
					ID:         tid,
					Route:      rid,
					ExternalID: ct.external,
					StopTimes:  ct.stopTimes,
					Capacity:   ct.capacity,
				})
				route.Trips = append(route.Trips, tid)
			}
			routes = append(routes, route)
		}
	}
	return routes, trips
}

// nonOvertaking reports whether appending next after last preserves
// spec.md §3's invariant: arrival_last[i] <= arrival_next[i] and
// departure_last[i] <= departure_next[i] at every stop index.
func nonOvertaking(last, next canonTrip) bool {
	for i := range last.stopTimes {
		if next.stopTimes[i].Arrival < last.stopTimes[i].Arrival {
			return false
		}
		if next.stopTimes[i].Departure < last.stopTimes[i].Departure {
			return false
		}
	}
	return true
}

// synthesizeTransfers builds the per-stop transfer lists: a zero-duration
// self-transfer at every stop, the caller-supplied transfers (made
// symmetric), and optional geographic-proximity transfers.
func synthesizeTransfers(numStops int, raw []RawTransfer, stopIDs map[string]StopID, stops []Stop, maxWalkMeters, walkSpeed float64) [][]Transfer {
	out := make([][]Transfer, numStops)
	seen := make([]map[StopID]bool, numStops)
	for i := range out {
		out[i] = []Transfer{{To: StopID(i), Duration: 0}}
		seen[i] = map[StopID]bool{StopID(i): true}
	}

	add := func(from, to StopID, duration int) {
		if from == to || seen[from][to] {
			return
		}
		out[from] = append(out[from], Transfer{To: to, Duration: duration})
		seen[from][to] = true
	}

	for _, t := range raw {
		from, ok1 := stopIDs[t.From]
		to, ok2 := stopIDs[t.To]
		if !ok1 || !ok2 {
			continue
		}
		add(from, to, t.Duration)
		add(to, from, t.Duration)
	}

	if maxWalkMeters > 0 {
		for i := 0; i < numStops; i++ {
			for j := i + 1; j < numStops; j++ {
				d := haversineMeters(stops[i].Lat, stops[i].Lon, stops[j].Lat, stops[j].Lon)
				if d <= maxWalkMeters {
					dur := int(math.Ceil(d / walkSpeed))
					add(StopID(i), StopID(j), dur)
					add(StopID(j), StopID(i), dur)
				}
			}
		}
	}

	for i := range out {
		sort.Slice(out[i], func(a, b int) bool { return out[i][a].To < out[i][b].To })
	}
	return out
}

func haversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadius = 6371000.0
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadius * c
}
