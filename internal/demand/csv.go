package demand

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/antigravity/transit-raptor-sim/internal/network"
)

// agentTripCSV mirrors spec.md §6's agent-trip row shape:
// (origin_stop_name, destination_stop_name, departure_time, agent_count).
type agentTripCSV struct {
	Origin        string `csv:"origin_stop_name"`
	Destination   string `csv:"destination_stop_name"`
	DepartureTime int    `csv:"departure_time"`
	AgentCount    int    `csv:"agent_count"`
}

// LoadCSV parses demand rows from r and resolves stop names against net.
func LoadCSV(net *network.Network, r io.Reader) ([]AgentTrip, error) {
	var rows []*agentTripCSV
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("demand: unmarshaling agent trips csv: %w", err)
	}

	raw := make([]rawAgentTripRow, len(rows))
	for i, row := range rows {
		raw[i] = rawAgentTripRow{
			Origin:        row.Origin,
			Destination:   row.Destination,
			DepartureTime: row.DepartureTime,
			Count:         row.AgentCount,
		}
	}
	return resolveRows(net, raw)
}

// capacityOverrideCSV mirrors spec.md §6's capacity-override row shape:
// (trip_external_id, seated, standing).
type capacityOverrideCSV struct {
	TripExternalID string `csv:"trip_external_id"`
	Seated         int    `csv:"seated"`
	Standing       int    `csv:"standing"`
}

// LoadCapacityOverrides parses capacity-override rows from r, resolving
// trip_external_id against net.Trips. Unknown trip ids are logged once via
// warn and otherwise ignored (spec.md §4.6/§7), never failing the load.
func LoadCapacityOverrides(net *network.Network, r io.Reader, warn func(tripExternalID string)) (map[network.TripID]network.Capacity, error) {
	var rows []*capacityOverrideCSV
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("demand: unmarshaling capacity overrides csv: %w", err)
	}

	external := make(map[string]network.TripID, len(net.Trips))
	for _, t := range net.Trips {
		external[t.ExternalID] = t.ID
	}

	overrides := make(map[network.TripID]network.Capacity, len(rows))
	warned := make(map[string]bool)
	for _, row := range rows {
		id, ok := external[row.TripExternalID]
		if !ok {
			if warn != nil && !warned[row.TripExternalID] {
				warned[row.TripExternalID] = true
				warn(row.TripExternalID)
			}
			continue
		}
		overrides[id] = network.Capacity{Seated: row.Seated, Standing: row.Standing}
	}
	return overrides, nil
}
