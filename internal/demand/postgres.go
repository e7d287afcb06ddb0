package demand

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/antigravity/transit-raptor-sim/internal/network"
)

// LoadPostgres reads demand rows from a demand_trips table shaped
// (origin_stop_name text, destination_stop_name text, departure_time int,
// agent_count int), grounded on the teacher's raw-SQL pgxpool loader style.
func LoadPostgres(ctx context.Context, pool *pgxpool.Pool, net *network.Network) ([]AgentTrip, error) {
	rows, err := pool.Query(ctx, `
		SELECT origin_stop_name, destination_stop_name, departure_time, agent_count
		FROM demand_trips
		ORDER BY departure_time
	`)
	if err != nil {
		return nil, fmt.Errorf("demand: querying demand_trips: %w", err)
	}
	defer rows.Close()

	var raw []rawAgentTripRow
	for rows.Next() {
		var r rawAgentTripRow
		if err := rows.Scan(&r.Origin, &r.Destination, &r.DepartureTime, &r.Count); err != nil {
			return nil, fmt.Errorf("demand: scanning demand_trips row: %w", err)
		}
		raw = append(raw, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("demand: reading demand_trips: %w", err)
	}

	return resolveRows(net, raw)
}
