package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoStopInput() BuildInput {
	return BuildInput{
		Stops: []RawStop{
			{ID: "A", Name: "Alpha"},
			{ID: "B", Name: "Beta"},
		},
		StopTimes: []RawStopTime{
			{TripID: "T1", StopID: "A", Sequence: 1, Arrival: 8 * 3600, Departure: 8 * 3600},
			{TripID: "T1", StopID: "B", Sequence: 2, Arrival: 8*3600 + 600, Departure: 8*3600 + 600},
		},
		Trips:            []RawTrip{{ID: "T1", ServiceID: "weekday"}},
		ActiveServiceIDs: map[string]bool{"weekday": true},
	}
}

func TestBuild_TwoStopLine(t *testing.T) {
	n, err := Build(twoStopInput())
	require.NoError(t, err)
	require.Len(t, n.Stops, 2)
	require.Len(t, n.Routes, 1)
	require.Len(t, n.Trips, 1)

	a, ok := n.StopByName("Alpha")
	require.True(t, ok)
	b, ok := n.StopByName("Beta")
	require.True(t, ok)
	assert.Less(t, a, b) // "A" < "B" lexically -> ascending external id order

	route := n.Routes[0]
	assert.Equal(t, []StopID{a, b}, route.Stops)
	trip := n.Trips[route.Trips[0]]
	assert.Equal(t, "T1", trip.ExternalID)
	assert.Equal(t, 8*3600, trip.StopTimes[0].Departure)
	assert.Equal(t, 8*3600+600, trip.StopTimes[1].Arrival)
}

func TestBuild_SelfTransferAlwaysPresent(t *testing.T) {
	n, err := Build(twoStopInput())
	require.NoError(t, err)
	for stop, transfers := range n.Transfers {
		found := false
		for _, tr := range transfers {
			if tr.Duration == 0 && tr.To == StopID(stop) {
				found = true
			}
		}
		assert.True(t, found, "expected a zero-duration self transfer")
	}
}

func TestBuild_TransferScenario(t *testing.T) {
	in := BuildInput{
		Stops: []RawStop{{ID: "A", Name: "A"}, {ID: "B", Name: "B"}, {ID: "C", Name: "C"}},
		StopTimes: []RawStopTime{
			{TripID: "T1", StopID: "A", Sequence: 1, Arrival: 8 * 3600, Departure: 8 * 3600},
			{TripID: "T1", StopID: "B", Sequence: 2, Arrival: 8*3600 + 600, Departure: 8*3600 + 600},
			{TripID: "T2", StopID: "B", Sequence: 1, Arrival: 8*3600 + 900, Departure: 8*3600 + 900},
			{TripID: "T2", StopID: "C", Sequence: 2, Arrival: 8*3600 + 1500, Departure: 8*3600 + 1500},
		},
		Trips:            []RawTrip{{ID: "T1", ServiceID: "weekday"}, {ID: "T2", ServiceID: "weekday"}},
		ActiveServiceIDs: map[string]bool{"weekday": true},
	}
	n, err := Build(in)
	require.NoError(t, err)
	require.Len(t, n.Routes, 2)
}

func TestBuild_NonOvertakingSplitsIntoSeparateRoutes(t *testing.T) {
	// t1 departs A@08:00 arrives B@08:10; t2 departs A@08:05 arrives B@08:08 (overtakes t1).
	in := BuildInput{
		Stops: []RawStop{{ID: "A", Name: "A"}, {ID: "B", Name: "B"}},
		StopTimes: []RawStopTime{
			{TripID: "T1", StopID: "A", Sequence: 1, Arrival: 8 * 3600, Departure: 8 * 3600},
			{TripID: "T1", StopID: "B", Sequence: 2, Arrival: 8*3600 + 600, Departure: 8*3600 + 600},
			{TripID: "T2", StopID: "A", Sequence: 1, Arrival: 8*3600 + 300, Departure: 8*3600 + 300},
			{TripID: "T2", StopID: "B", Sequence: 2, Arrival: 8*3600 + 480, Departure: 8*3600 + 480},
		},
		Trips:            []RawTrip{{ID: "T1", ServiceID: "weekday"}, {ID: "T2", ServiceID: "weekday"}},
		ActiveServiceIDs: map[string]bool{"weekday": true},
	}
	n, err := Build(in)
	require.NoError(t, err)
	require.Len(t, n.Routes, 2, "overtaking pair must be split into distinct routes")
	for _, r := range n.Routes {
		require.Len(t, r.Trips, 1)
	}
}

func TestBuild_EarlierTripCaptureRoute(t *testing.T) {
	// t1 dep A@08:00 arr B@08:10; t2 dep A@08:05 arr B@08:14 -- non-overtaking, stays one route.
	in := BuildInput{
		Stops: []RawStop{{ID: "A", Name: "A"}, {ID: "B", Name: "B"}},
		StopTimes: []RawStopTime{
			{TripID: "T1", StopID: "A", Sequence: 1, Arrival: 8 * 3600, Departure: 8 * 3600},
			{TripID: "T1", StopID: "B", Sequence: 2, Arrival: 8*3600 + 600, Departure: 8*3600 + 600},
			{TripID: "T2", StopID: "A", Sequence: 1, Arrival: 8*3600 + 300, Departure: 8*3600 + 300},
			{TripID: "T2", StopID: "B", Sequence: 2, Arrival: 8*3600 + 840, Departure: 8*3600 + 840},
		},
		Trips:            []RawTrip{{ID: "T1", ServiceID: "weekday"}, {ID: "T2", ServiceID: "weekday"}},
		ActiveServiceIDs: map[string]bool{"weekday": true},
	}
	n, err := Build(in)
	require.NoError(t, err)
	require.Len(t, n.Routes, 1)
	require.Len(t, n.Routes[0].Trips, 2)
}

func TestBuild_DuplicateStopFails(t *testing.T) {
	in := twoStopInput()
	in.Stops = append(in.Stops, RawStop{ID: "A", Name: "Alpha2"})
	_, err := Build(in)
	require.Error(t, err)
	var be *BuildError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, ErrDuplicateStop, be.Kind)
}

func TestBuild_UnknownStopFails(t *testing.T) {
	in := twoStopInput()
	in.StopTimes = append(in.StopTimes, RawStopTime{TripID: "T1", StopID: "Z", Sequence: 3, Arrival: 9000, Departure: 9000})
	_, err := Build(in)
	require.Error(t, err)
	var be *BuildError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, ErrUnknownStop, be.Kind)
}

func TestBuild_NonMonotoneStopTimesFails(t *testing.T) {
	in := twoStopInput()
	in.StopTimes[1].Arrival = 8*3600 - 10 // arrives before it departs the first stop
	_, err := Build(in)
	require.Error(t, err)
	var be *BuildError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, ErrNonMonotoneTimes, be.Kind)
}

func TestBuild_NoActiveTripsFails(t *testing.T) {
	in := twoStopInput()
	in.ActiveServiceIDs = map[string]bool{"saturday": true}
	_, err := Build(in)
	require.Error(t, err)
	var be *BuildError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, ErrNoActiveTrips, be.Kind)
}

func TestBuild_Idempotent(t *testing.T) {
	in := twoStopInput()
	n1, err := Build(in)
	require.NoError(t, err)
	n2, err := Build(in)
	require.NoError(t, err)
	assert.Equal(t, n1.Stops, n2.Stops)
	assert.Equal(t, n1.Routes, n2.Routes)
	assert.Equal(t, n1.Trips, n2.Trips)
}

func TestActiveServices(t *testing.T) {
	cals := []RawCalendar{{ServiceID: "wd", StartDate: "20260101", EndDate: "20261231", Weekday: weekdayMask(1, 2, 3, 4, 5)}}
	active, err := ActiveServices("20260202", cals, nil) // 2026-02-02 is a Monday
	require.NoError(t, err)
	assert.True(t, active["wd"])

	active, err = ActiveServices("20260201", cals, nil) // Sunday
	require.NoError(t, err)
	assert.False(t, active["wd"])

	withException, err := ActiveServices("20260201", cals, []RawCalendarDate{{ServiceID: "wd", Date: "20260201", ExceptionType: ServiceAdded}})
	require.NoError(t, err)
	assert.True(t, withException["wd"])
}

func weekdayMask(days ...int) [7]bool {
	var m [7]bool
	for _, d := range days {
		m[d] = true
	}
	return m
}
