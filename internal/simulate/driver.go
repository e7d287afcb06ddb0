// Package simulate implements the iterative demand-assignment driver of
// spec.md §4.5: outer rounds of occupancy-feedback RAPTOR assignment over
// time-ordered simulation steps.
package simulate

import (
	"context"
	"errors"
	"log"
	"runtime"
	"sort"
	"sync"

	"github.com/antigravity/transit-raptor-sim/internal/cache"
	"github.com/antigravity/transit-raptor-sim/internal/crowding"
	"github.com/antigravity/transit-raptor-sim/internal/demand"
	"github.com/antigravity/transit-raptor-sim/internal/journey"
	"github.com/antigravity/transit-raptor-sim/internal/network"
	"github.com/antigravity/transit-raptor-sim/internal/occupancy"
	"github.com/antigravity/transit-raptor-sim/internal/raptor"
)

// ErrCancelled is returned by Run when its context is cancelled between
// steps or rounds; the Result returned alongside it holds whatever rounds
// completed (spec.md §7: "non-error; the driver returns a partial-result
// marker").
var ErrCancelled = errors.New("simulate: cancelled")

// Observer receives progress notifications during Run. A nil Observer
// disables reporting with no overhead beyond a nil check (spec.md §5).
type Observer interface {
	Started(rounds, steps int)
	StepCompleted(stepIndex int)
}

// Config bundles the per-run tunables of spec.md §4.5/§6.
type Config struct {
	OuterRounds       int
	RaptorRounds      int // K, the RAPTOR round budget per query (spec.md §4.3)
	BagSize           int
	CostUtility       float64
	Crowding          crowding.Function
	DefaultCapacity   network.Capacity
	CapacityOverrides map[network.TripID]network.Capacity
	// StepWindowSeconds sizes the time-ordered partition of spec.md §4.5
	// step 2; it must be small relative to typical transfer times so
	// intra-step dependencies stay negligible. Defaults to 300 (5 minutes).
	StepWindowSeconds int
	// Cache, if non-nil, memoizes per-(origin, departure-bucket, occupancy
	// fingerprint) RAPTOR bags in Redis across the steps of a simulation
	// run (spec.md §4.3). A nil Cache, or any cache error at request time,
	// falls straight through to a live raptor.Query — the cache is never a
	// correctness dependency.
	Cache *cache.Config
}

func (c Config) stepWindow() int {
	if c.StepWindowSeconds > 0 {
		return c.StepWindowSeconds
	}
	return 300
}

func (c Config) raptorConfig() raptor.Config {
	rounds := c.RaptorRounds
	if rounds <= 0 {
		rounds = 5
	}
	return raptor.Config{
		Rounds:          rounds,
		BagSize:         c.BagSize,
		CostUtility:     c.CostUtility,
		Crowding:        c.Crowding,
		DefaultCapacity: c.DefaultCapacity,
		CapacityOverride: func(id network.TripID) (network.Capacity, bool) {
			cap, ok := c.CapacityOverrides[id]
			return cap, ok
		},
	}
}

// AgentResult is one agent's outcome for a single outer round.
type AgentResult struct {
	Agent       demand.AgentTrip
	Itinerary   journey.Itinerary
	Unreachable bool
}

// RoundResult is the per-agent outcome of one outer round.
type RoundResult struct {
	Agents      []AgentResult
	Unreachable int
}

// Result is the full outcome of Run: one RoundResult per completed outer
// round, and the occupancy table as left by the final round (spec.md §6
// "final-round counts are authoritative").
type Result struct {
	Rounds    []RoundResult
	Occupancy *occupancy.Table
}

// Driver runs the outer-round loop against a fixed Network.
type Driver struct {
	Net      *network.Network
	Config   Config
	Observer Observer
}

// NewDriver constructs a Driver for net with cfg.
func NewDriver(net *network.Network, cfg Config) *Driver {
	return &Driver{Net: net, Config: cfg}
}

// Run executes Config.OuterRounds outer rounds of assignment over agents,
// returning a partial Result and ErrCancelled if ctx is cancelled between
// steps or rounds (spec.md §5 "mid-step cancellation is not supported").
func (d *Driver) Run(ctx context.Context, agents []demand.AgentTrip) (*Result, error) {
	steps := partitionSteps(agents, d.Config.stepWindow())
	occ := occupancy.New(len(d.Net.Trips), d.Net.MaxStopsPerRoute())

	if d.Observer != nil {
		d.Observer.Started(d.Config.OuterRounds, len(steps))
	}

	result := &Result{Occupancy: occ}
	hints := make(map[int]journey.Hint, len(agents))

	rounds := d.Config.OuterRounds
	if rounds <= 0 {
		rounds = 1
	}

	for round := 0; round < rounds; round++ {
		occ.Reset()
		roundResult := RoundResult{Agents: make([]AgentResult, 0, len(agents))}

		for stepIdx, step := range steps {
			snapshot := occ.Snapshot()
			byOrigin := groupByOrigin(step)

			queryResults := runQueriesConcurrently(ctx, d.Net, snapshot, byOrigin, d.Config.raptorConfig(), d.Config.Cache)

			for _, agent := range step {
				qr := queryResults[agent.Origin]
				hint := hints[agent.Index]
				handle, ok := journey.Best(qr, agent.Destination, d.Config.CostUtility, hint)
				if !ok {
					roundResult.Unreachable++
					roundResult.Agents = append(roundResult.Agents, AgentResult{Agent: agent, Unreachable: true})
					delete(hints, agent.Index)
					continue
				}

				it := journey.Reconstruct(d.Net, qr, agent.Destination, handle)
				roundResult.Agents = append(roundResult.Agents, AgentResult{Agent: agent, Itinerary: it})
				hints[agent.Index] = journey.Hint{Arrival: it.ArriveTime, Cost: it.Cost, Valid: true}

				for _, leg := range it.Legs {
					if leg.Kind != raptor.LegRide {
						continue
					}
					for seg := leg.BoardSeq; seg < leg.AlightSeq; seg++ {
						occ.Add(leg.Trip, seg, int64(agent.Count))
					}
				}
			}

			if d.Observer != nil {
				d.Observer.StepCompleted(stepIdx)
			}
			if ctx.Err() != nil {
				result.Rounds = append(result.Rounds, roundResult)
				return result, ErrCancelled
			}
		}

		result.Rounds = append(result.Rounds, roundResult)
		if ctx.Err() != nil {
			return result, ErrCancelled
		}
	}

	return result, nil
}

// partitionSteps sorts agents by departure time and splits them into
// contiguous windows of window seconds (spec.md §4.5 step 2).
func partitionSteps(agents []demand.AgentTrip, window int) [][]demand.AgentTrip {
	if len(agents) == 0 {
		return nil
	}
	sorted := make([]demand.AgentTrip, len(agents))
	copy(sorted, agents)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].DepartureTime < sorted[j].DepartureTime })

	var steps [][]demand.AgentTrip
	windowStart := sorted[0].DepartureTime
	current := []demand.AgentTrip{sorted[0]}
	for _, a := range sorted[1:] {
		if a.DepartureTime-windowStart >= window {
			steps = append(steps, current)
			current = nil
			windowStart = a.DepartureTime
		}
		current = append(current, a)
	}
	if len(current) > 0 {
		steps = append(steps, current)
	}
	return steps
}

func groupByOrigin(step []demand.AgentTrip) map[network.StopID][]demand.AgentTrip {
	out := make(map[network.StopID][]demand.AgentTrip)
	for _, a := range step {
		out[a.Origin] = append(out[a.Origin], a)
	}
	return out
}

// runQueriesConcurrently issues one RAPTOR query per distinct origin in
// byOrigin, fanned out over a GOMAXPROCS-sized worker pool (spec.md §5:
// "independent RAPTOR queries... run concurrently across a worker pool
// sized to the machine's CPUs"), using the earliest departure time among
// that origin's agents as the query's start time.
func runQueriesConcurrently(ctx context.Context, net *network.Network, snapshot occupancy.Snapshot, byOrigin map[network.StopID][]demand.AgentTrip, cfg raptor.Config, cacheCfg *cache.Config) map[network.StopID]*raptor.Result {
	origins := make([]network.StopID, 0, len(byOrigin))
	for o := range byOrigin {
		origins = append(origins, o)
	}

	results := make(map[network.StopID]*raptor.Result, len(origins))
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, workerCount())

	fingerprint := snapshot.Fingerprint()

	for _, origin := range origins {
		origin := origin
		departure := earliestDeparture(byOrigin[origin])
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			r := cachedQuery(ctx, net, snapshot, origin, departure, cfg, cacheCfg, fingerprint)
			mu.Lock()
			results[origin] = r
			mu.Unlock()
		}()
	}
	wg.Wait()
	return results
}

// cachedQuery serves origin/departure's bags from cacheCfg if present and a
// hit, otherwise runs a live raptor.Query and best-effort populates the
// cache for a later step or round to reuse. A nil cacheCfg, a miss, or any
// cache error all fall through to the live query — spec.md §4.3 requires
// the cache never be a correctness dependency.
func cachedQuery(ctx context.Context, net *network.Network, snapshot occupancy.Snapshot, origin network.StopID, departure int, cfg raptor.Config, cacheCfg *cache.Config, fingerprint uint64) *raptor.Result {
	if cacheCfg == nil {
		return raptor.Query(net, snapshot, origin, departure, cfg)
	}

	key := cache.BagKey(*cacheCfg, int32(origin), departure, fingerprint)
	if data, err := cache.GetBags(ctx, key); err == nil && data != nil {
		var r raptor.Result
		if err := cache.UnmarshalBags(data, &r); err == nil {
			return &r
		}
	}

	r := raptor.Query(net, snapshot, origin, departure, cfg)

	if data, err := cache.MarshalBags(r); err == nil {
		if err := cache.SetBags(ctx, key, data, cacheCfg.TTL); err != nil {
			log.Printf("simulate: bag cache store skipped for origin %d: %v", origin, err)
		}
	}
	return r
}

func earliestDeparture(agents []demand.AgentTrip) int {
	min := agents[0].DepartureTime
	for _, a := range agents[1:] {
		if a.DepartureTime < min {
			min = a.DepartureTime
		}
	}
	return min
}

func workerCount() int {
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		return 1
	}
	return n
}
