package demand

import (
	"math/rand"

	"github.com/antigravity/transit-raptor-sim/internal/network"
)

// RandomConfig parameterizes GenerateRandom (spec.md §6 "use_random_demand"
// / "random_seed"; the exact distribution is left to this collaborator per
// spec.md §9, see DESIGN.md).
type RandomConfig struct {
	NumTrips         int
	MinDepartureTime int // seconds since service-day start
	MaxDepartureTime int
	MinAgentsPerTrip int // defaults to 1
	MaxAgentsPerTrip int // defaults to MinAgentsPerTrip
}

// GenerateRandom synthesizes NumTrips agent trips by sampling origin and
// destination stops weighted by route-membership count (busier stops
// attract more trips) and departure times uniformly over the configured
// window, using a seeded source for reproducibility.
func GenerateRandom(net *network.Network, cfg RandomConfig, seed int64) []AgentTrip {
	if len(net.Stops) == 0 || cfg.NumTrips <= 0 {
		return nil
	}
	rng := rand.New(rand.NewSource(seed))

	weights := make([]int, len(net.Stops))
	total := 0
	for i, s := range net.Stops {
		w := len(s.Memberships)
		if w < 1 {
			w = 1
		}
		weights[i] = w
		total += w
	}

	sample := func() network.StopID {
		target := rng.Intn(total)
		cum := 0
		for i, w := range weights {
			cum += w
			if target < cum {
				return network.StopID(i)
			}
		}
		return network.StopID(len(weights) - 1)
	}

	minCount := cfg.MinAgentsPerTrip
	if minCount < 1 {
		minCount = 1
	}
	maxCount := cfg.MaxAgentsPerTrip
	if maxCount < minCount {
		maxCount = minCount
	}

	window := cfg.MaxDepartureTime - cfg.MinDepartureTime
	if window < 0 {
		window = 0
	}

	trips := make([]AgentTrip, 0, cfg.NumTrips)
	for i := 0; i < cfg.NumTrips; i++ {
		origin := sample()
		dest := sample()
		for dest == origin && len(net.Stops) > 1 {
			dest = sample()
		}
		departure := cfg.MinDepartureTime
		if window > 0 {
			departure += rng.Intn(window)
		}
		count := minCount
		if maxCount > minCount {
			count += rng.Intn(maxCount - minCount + 1)
		}
		trips = append(trips, AgentTrip{
			Index:         i,
			Origin:        origin,
			Destination:   dest,
			DepartureTime: departure,
			Count:         count,
		})
	}
	return trips
}
