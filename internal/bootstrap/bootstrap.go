package bootstrap

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/antigravity/transit-raptor-sim/internal/demand"
	"github.com/antigravity/transit-raptor-sim/internal/network"
	"github.com/antigravity/transit-raptor-sim/internal/repository"
)

// ConnectDB parses and pings a connection pool for cfg.DatabaseURL,
// mirroring the teacher's main.go pgxpool.ParseConfig/NewWithConfig/Ping
// sequence exactly.
func ConnectDB(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: parsing database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap: pinging database: %w", err)
	}
	log.Println("bootstrap: connected to database")
	return pool, nil
}

// LoadNetwork reads the service day's timetable out of pool for cfg.
func LoadNetwork(ctx context.Context, cfg Config, pool *pgxpool.Pool) (*network.Network, error) {
	repo := repository.NewGTFSRepository(pool)
	net, err := repo.LoadNetwork(ctx, cfg.ModelDate, cfg.MaxWalkMeters)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: loading network: %w", err)
	}
	return net, nil
}

// LoadDemand dispatches to the demand source cfg.DemandSource names:
// "csv" or "postgres"; any other value, including "random", generates
// seeded random demand. Capacity overrides are loaded separately by
// LoadCapacityOverrides.
func LoadDemand(ctx context.Context, cfg Config, net *network.Network, pool *pgxpool.Pool) ([]demand.AgentTrip, error) {
	switch cfg.DemandSource {
	case "csv":
		f, err := os.Open(cfg.DemandCSVPath)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: opening demand csv: %w", err)
		}
		defer f.Close()
		return demand.LoadCSV(net, f)
	case "postgres":
		return demand.LoadPostgres(ctx, pool, net)
	default:
		return demand.GenerateRandom(net, demand.RandomConfig{
			NumTrips:         cfg.RandomNumTrips,
			MinDepartureTime: cfg.RandomMinDeparture,
			MaxDepartureTime: cfg.RandomMaxDeparture,
			MinAgentsPerTrip: cfg.RandomMinAgentsPerTr,
			MaxAgentsPerTrip: cfg.RandomMaxAgentsPerTr,
		}, cfg.RandomSeed), nil
	}
}

// LoadCapacityOverrides reads cfg.CapacityOverridesCSVPath if set, warning
// via stdlib log on each unresolved trip id; it returns a nil map (not an
// error) when no path is configured.
func LoadCapacityOverrides(cfg Config, net *network.Network) (map[network.TripID]network.Capacity, error) {
	if cfg.CapacityOverridesCSVPath == "" {
		return nil, nil
	}
	f, err := os.Open(cfg.CapacityOverridesCSVPath)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: opening capacity overrides csv: %w", err)
	}
	defer f.Close()

	return demand.LoadCapacityOverrides(net, f, func(id string) {
		log.Printf("bootstrap: capacity override references unknown trip id %q, ignoring", id)
	})
}
