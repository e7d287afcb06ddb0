package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/antigravity/transit-raptor-sim/internal/network"
	"github.com/antigravity/transit-raptor-sim/internal/simulate"
)

// RunSimulation loads demand and capacity overrides for net per cfg, then
// runs the full outer-round driver (spec.md §4.5) to completion.
func RunSimulation(ctx context.Context, cfg Config, net *network.Network, pool *pgxpool.Pool) (*simulate.Result, error) {
	agents, err := LoadDemand(ctx, cfg, net, pool)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: loading demand: %w", err)
	}

	overrides, err := LoadCapacityOverrides(cfg, net)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: loading capacity overrides: %w", err)
	}

	driver := simulate.NewDriver(net, cfg.SimulateConfig(overrides))
	result, err := driver.Run(ctx, agents)
	if err != nil {
		return result, fmt.Errorf("bootstrap: running simulation: %w", err)
	}
	return result, nil
}
