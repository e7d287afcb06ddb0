package journey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antigravity/transit-raptor-sim/internal/crowding"
	"github.com/antigravity/transit-raptor-sim/internal/network"
	"github.com/antigravity/transit-raptor-sim/internal/occupancy"
	"github.com/antigravity/transit-raptor-sim/internal/raptor"
)

func buildTransferNetwork(t *testing.T) *network.Network {
	t.Helper()
	in := network.BuildInput{
		Stops: []network.RawStop{{ID: "A", Name: "A"}, {ID: "B", Name: "B"}, {ID: "C", Name: "C"}},
		StopTimes: []network.RawStopTime{
			{TripID: "T1", StopID: "A", Sequence: 1, Arrival: 8 * 3600, Departure: 8 * 3600},
			{TripID: "T1", StopID: "B", Sequence: 2, Arrival: 8*3600 + 600, Departure: 8*3600 + 600},
			{TripID: "T2", StopID: "B", Sequence: 1, Arrival: 8*3600 + 900, Departure: 8*3600 + 900},
			{TripID: "T2", StopID: "C", Sequence: 2, Arrival: 8*3600 + 1500, Departure: 8*3600 + 1500},
		},
		Trips:            []network.RawTrip{{ID: "T1", ServiceID: "wd"}, {ID: "T2", ServiceID: "wd"}},
		ActiveServiceIDs: map[string]bool{"wd": true},
	}
	net, err := network.Build(in)
	require.NoError(t, err)
	return net
}

func TestReconstruct_TwoRideItinerary(t *testing.T) {
	net := buildTransferNetwork(t)
	a, _ := net.StopByName("A")
	c, _ := net.StopByName("C")

	cfg := raptor.Config{
		Rounds:          5,
		BagSize:         4,
		CostUtility:     1.0,
		Crowding:        crowding.NewLinear(),
		DefaultCapacity: network.Capacity{Seated: 30, Standing: 10},
	}
	result := raptor.Query(net, occupancy.Empty(), a, 8*3600, cfg)

	handle, ok := Best(result, c, cfg.CostUtility, Hint{})
	require.True(t, ok)

	it := Reconstruct(net, result, c, handle)
	assert.Equal(t, a, it.Origin)
	assert.Equal(t, c, it.Destination)
	assert.Equal(t, 8*3600+1500, it.ArriveTime)
	require.Len(t, it.Legs, 2)
	assert.Equal(t, raptor.LegRide, it.Legs[0].Kind)
	assert.Equal(t, raptor.LegRide, it.Legs[1].Kind)
	assert.Equal(t, "T1", it.Legs[0].TripExternal)
	assert.Equal(t, "T2", it.Legs[1].TripExternal)
	assert.Equal(t, 1, it.Transfers)
}

func TestBest_UnreachableStopReturnsFalse(t *testing.T) {
	net := buildTransferNetwork(t)
	a, _ := net.StopByName("A")
	c, _ := net.StopByName("C")
	// One round only suffices to reach B (one ride) but not C, which needs
	// a second boarding.
	cfg := raptor.Config{Rounds: 1, BagSize: 4, Crowding: crowding.NewLinear(), DefaultCapacity: network.Capacity{Seated: 1, Standing: 1}}
	result := raptor.Query(net, occupancy.Empty(), a, 8*3600, cfg)

	_, ok := Best(result, c, 1.0, Hint{})
	assert.False(t, ok)
}
