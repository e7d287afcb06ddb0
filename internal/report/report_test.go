package report

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antigravity/transit-raptor-sim/internal/crowding"
	"github.com/antigravity/transit-raptor-sim/internal/demand"
	"github.com/antigravity/transit-raptor-sim/internal/network"
	"github.com/antigravity/transit-raptor-sim/internal/simulate"
)

func lineNetwork(t *testing.T) *network.Network {
	t.Helper()
	in := network.BuildInput{
		Stops: []network.RawStop{{ID: "A", Name: "A"}, {ID: "B", Name: "B"}, {ID: "C", Name: "C"}},
		StopTimes: []network.RawStopTime{
			{TripID: "T1", StopID: "A", Sequence: 1, Arrival: 8 * 3600, Departure: 8 * 3600},
			{TripID: "T1", StopID: "B", Sequence: 2, Arrival: 8*3600 + 300, Departure: 8*3600 + 300},
			{TripID: "T1", StopID: "C", Sequence: 3, Arrival: 8*3600 + 600, Departure: 8*3600 + 600},
		},
		Trips:            []network.RawTrip{{ID: "T1", ServiceID: "wd"}},
		ActiveServiceIDs: map[string]bool{"wd": true},
	}
	net, err := network.Build(in)
	require.NoError(t, err)
	return net
}

func runSimulation(t *testing.T, net *network.Network, agents []demand.AgentTrip) *simulate.Result {
	t.Helper()
	d := simulate.NewDriver(net, simulate.Config{
		OuterRounds:     1,
		RaptorRounds:    3,
		BagSize:         4,
		CostUtility:     1.0,
		Crowding:        crowding.NewLinear(),
		DefaultCapacity: network.Capacity{Seated: 30, Standing: 10},
	})
	result, err := d.Run(context.Background(), agents)
	require.NoError(t, err)
	return result
}

func runRound(t *testing.T, net *network.Network, agents []demand.AgentTrip) simulate.RoundResult {
	t.Helper()
	return runSimulation(t, net, agents).Rounds[0]
}

func TestSegments_ReportsFromAndToStopIndex(t *testing.T) {
	net := lineNetwork(t)
	a, _ := net.StopByName("A")
	c, _ := net.StopByName("C")
	result := runSimulation(t, net, []demand.AgentTrip{{Index: 0, Origin: a, Destination: c, DepartureTime: 8 * 3600, Count: 1}})

	segments := Segments(net, result)
	require.Len(t, segments, 2)
	assert.Equal(t, 0, segments[0].FromStopIndex)
	assert.Equal(t, 1, segments[0].ToStopIndex)
	assert.Equal(t, 1, segments[1].FromStopIndex)
	assert.Equal(t, 2, segments[1].ToStopIndex)
	for _, s := range segments {
		assert.Equal(t, int64(1), s.Load)
		assert.Equal(t, "T1", s.TripExternalID)
	}
}

func TestJourneyLegRowsForAgent_OneRowPerLeg(t *testing.T) {
	net := lineNetwork(t)
	a, _ := net.StopByName("A")
	c, _ := net.StopByName("C")
	round := runRound(t, net, []demand.AgentTrip{{Index: 5, Origin: a, Destination: c, DepartureTime: 8 * 3600, Count: 1}})

	require.Len(t, round.Agents, 1)
	rows := JourneyLegRowsForAgent(net, round.Agents[0].Agent.Index, round.Agents[0])
	require.Len(t, rows, 1)
	assert.Equal(t, 5, rows[0].AgentIndex)
	assert.Equal(t, "ride", rows[0].LegKind)
	assert.Equal(t, "T1", rows[0].TripExternalID)
	assert.Equal(t, "A", rows[0].FromStopID)
	assert.Equal(t, "C", rows[0].ToStopID)
	assert.Equal(t, 8*3600, rows[0].StartTime)
	assert.Equal(t, 8*3600+600, rows[0].EndTime)
}

func TestJourneyLegRowsForAgent_UnreachableEmitsOneRow(t *testing.T) {
	net := lineNetwork(t)
	ar := simulate.AgentResult{Agent: demand.AgentTrip{Index: 9}, Unreachable: true}
	rows := JourneyLegRowsForAgent(net, 9, ar)
	require.Len(t, rows, 1)
	assert.Equal(t, 9, rows[0].AgentIndex)
	assert.Equal(t, "unreachable", rows[0].LegKind)
	assert.Equal(t, "", rows[0].FromStopID)
	assert.Equal(t, "", rows[0].ToStopID)
}

func TestJourneyLegRows_FlattensAllAgentsInRound(t *testing.T) {
	net := lineNetwork(t)
	a, _ := net.StopByName("A")
	c, _ := net.StopByName("C")
	round := runRound(t, net, []demand.AgentTrip{
		{Index: 0, Origin: a, Destination: c, DepartureTime: 8 * 3600, Count: 1},
		{Index: 1, Origin: a, Destination: c, DepartureTime: 8 * 3600, Count: 1},
	})

	rows := JourneyLegRows(net, round)
	assert.Len(t, rows, 2)
}
