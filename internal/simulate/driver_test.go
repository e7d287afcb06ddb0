package simulate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antigravity/transit-raptor-sim/internal/crowding"
	"github.com/antigravity/transit-raptor-sim/internal/demand"
	"github.com/antigravity/transit-raptor-sim/internal/network"
)

func lineNetwork(t *testing.T) *network.Network {
	t.Helper()
	in := network.BuildInput{
		Stops: []network.RawStop{{ID: "A", Name: "A"}, {ID: "B", Name: "B"}, {ID: "C", Name: "C"}},
		StopTimes: []network.RawStopTime{
			{TripID: "T1", StopID: "A", Sequence: 1, Arrival: 8 * 3600, Departure: 8 * 3600},
			{TripID: "T1", StopID: "B", Sequence: 2, Arrival: 8*3600 + 300, Departure: 8*3600 + 300},
			{TripID: "T1", StopID: "C", Sequence: 3, Arrival: 8*3600 + 600, Departure: 8*3600 + 600},
			{TripID: "T2", StopID: "A", Sequence: 1, Arrival: 8*3600 + 900, Departure: 8*3600 + 900},
			{TripID: "T2", StopID: "B", Sequence: 2, Arrival: 8*3600 + 1200, Departure: 8*3600 + 1200},
			{TripID: "T2", StopID: "C", Sequence: 3, Arrival: 8*3600 + 1500, Departure: 8*3600 + 1500},
		},
		Trips:            []network.RawTrip{{ID: "T1", ServiceID: "wd"}, {ID: "T2", ServiceID: "wd"}},
		ActiveServiceIDs: map[string]bool{"wd": true},
	}
	net, err := network.Build(in)
	require.NoError(t, err)
	return net
}

func baseConfig() Config {
	return Config{
		OuterRounds:       2,
		RaptorRounds:      3,
		BagSize:           4,
		CostUtility:       1.0,
		Crowding:          crowding.NewLinear(),
		DefaultCapacity:   network.Capacity{Seated: 2, Standing: 1},
		StepWindowSeconds: 60,
	}
}

func TestDriver_AssignsReachableAgent(t *testing.T) {
	net := lineNetwork(t)
	a, _ := net.StopByName("A")
	c, _ := net.StopByName("C")

	agents := []demand.AgentTrip{{Index: 0, Origin: a, Destination: c, DepartureTime: 8 * 3600, Count: 1}}
	d := NewDriver(net, baseConfig())
	result, err := d.Run(context.Background(), agents)
	require.NoError(t, err)
	require.Len(t, result.Rounds, 2)
	for _, round := range result.Rounds {
		require.Len(t, round.Agents, 1)
		assert.False(t, round.Agents[0].Unreachable)
		assert.Equal(t, 8*3600+600, round.Agents[0].Itinerary.ArriveTime)
	}
}

func TestDriver_CountsUnreachableAgents(t *testing.T) {
	// An isolated stop with no route and no transfer reaching it from A.
	in := network.BuildInput{
		Stops: []network.RawStop{{ID: "A", Name: "A"}, {ID: "B", Name: "B"}, {ID: "Z", Name: "Z"}},
		StopTimes: []network.RawStopTime{
			{TripID: "T1", StopID: "A", Sequence: 1, Arrival: 8 * 3600, Departure: 8 * 3600},
			{TripID: "T1", StopID: "B", Sequence: 2, Arrival: 8*3600 + 300, Departure: 8*3600 + 300},
			{TripID: "T2", StopID: "Z", Sequence: 1, Arrival: 9 * 3600, Departure: 9 * 3600},
		},
		Trips:            []network.RawTrip{{ID: "T1", ServiceID: "wd"}, {ID: "T2", ServiceID: "wd"}},
		ActiveServiceIDs: map[string]bool{"wd": true},
	}
	net, err := network.Build(in)
	require.NoError(t, err)
	a, _ := net.StopByName("A")
	z, _ := net.StopByName("Z")

	agents := []demand.AgentTrip{{Index: 0, Origin: a, Destination: z, DepartureTime: 8 * 3600, Count: 1}}
	cfg := baseConfig()
	cfg.OuterRounds = 1
	d := NewDriver(net, cfg)
	result, err := d.Run(context.Background(), agents)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Rounds[0].Unreachable)
	assert.True(t, result.Rounds[0].Agents[0].Unreachable)
}

func TestDriver_OccupancyAccumulatesAcrossAgentsSharingATrip(t *testing.T) {
	net := lineNetwork(t)
	a, _ := net.StopByName("A")
	c, _ := net.StopByName("C")

	agents := []demand.AgentTrip{
		{Index: 0, Origin: a, Destination: c, DepartureTime: 8 * 3600, Count: 2},
		{Index: 1, Origin: a, Destination: c, DepartureTime: 8 * 3600, Count: 3},
	}
	cfg := baseConfig()
	cfg.OuterRounds = 1
	d := NewDriver(net, cfg)
	result, err := d.Run(context.Background(), agents)
	require.NoError(t, err)

	snap := result.Occupancy.Snapshot()
	trip := net.Routes[0].Trips[0] // T1
	assert.Equal(t, 5, snap.Load(trip, 0))
	assert.Equal(t, 5, snap.Load(trip, 1))
}

func TestDriver_RespectsCancellation(t *testing.T) {
	net := lineNetwork(t)
	a, _ := net.StopByName("A")
	c, _ := net.StopByName("C")
	agents := []demand.AgentTrip{{Index: 0, Origin: a, Destination: c, DepartureTime: 8 * 3600, Count: 1}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d := NewDriver(net, baseConfig())
	_, err := d.Run(ctx, agents)
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestPartitionSteps_SplitsOnWindow(t *testing.T) {
	agents := []demand.AgentTrip{
		{Index: 0, DepartureTime: 100},
		{Index: 1, DepartureTime: 150},
		{Index: 2, DepartureTime: 500},
	}
	steps := partitionSteps(agents, 200)
	require.Len(t, steps, 2)
	assert.Len(t, steps[0], 2)
	assert.Len(t, steps[1], 1)
}
