// Package demand provides the agent-trip and capacity-override loaders
// consumed by internal/simulate: CSV, Postgres, and seeded-random sources,
// all producing the same AgentTrip shape (spec.md §4.6/§6).
package demand

import (
	"fmt"
	"strings"

	"github.com/antigravity/transit-raptor-sim/internal/network"
)

// AgentTrip is one demand record: Count agents departing Origin no earlier
// than DepartureTime, all bound for Destination.
type AgentTrip struct {
	Index         int
	Origin        network.StopID
	Destination   network.StopID
	DepartureTime int // seconds since service-day start
	Count         int
}

// UnresolvedStopsError reports every demand row whose stop name could not
// be resolved against the network, collected into a single fatal error per
// spec.md §6 ("unresolved names produce a fatal load error listing all
// offenders").
type UnresolvedStopsError struct {
	Names []string
}

func (e *UnresolvedStopsError) Error() string {
	return fmt.Sprintf("demand: %d unresolved stop name(s): %s", len(e.Names), strings.Join(e.Names, ", "))
}

// resolveRows turns raw (origin,destination,departure,count) rows into
// AgentTrips, collecting every unresolved name before failing so a single
// load error reports all offenders at once.
func resolveRows(net *network.Network, rows []rawAgentTripRow) ([]AgentTrip, error) {
	var unresolved []string
	seen := map[string]bool{}
	note := func(name string) {
		if !seen[name] {
			seen[name] = true
			unresolved = append(unresolved, name)
		}
	}

	trips := make([]AgentTrip, 0, len(rows))
	for i, r := range rows {
		origin, ok := net.StopByName(r.Origin)
		if !ok {
			note(r.Origin)
		}
		dest, ok2 := net.StopByName(r.Destination)
		if !ok2 {
			note(r.Destination)
		}
		if !ok || !ok2 {
			continue
		}
		count := r.Count
		if count <= 0 {
			count = 1
		}
		trips = append(trips, AgentTrip{
			Index:         i,
			Origin:        origin,
			Destination:   dest,
			DepartureTime: r.DepartureTime,
			Count:         count,
		})
	}

	if len(unresolved) > 0 {
		return nil, &UnresolvedStopsError{Names: unresolved}
	}
	return trips, nil
}

type rawAgentTripRow struct {
	Origin        string
	Destination   string
	DepartureTime int
	Count         int
}
