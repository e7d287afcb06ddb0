// Package report translates simulate.Result into the wire-facing
// internal/models DTOs shared by internal/handler (HTTP) and cmd/simrun
// (CSV), so the two boundaries agree on exactly one translation.
package report

import (
	"github.com/antigravity/transit-raptor-sim/internal/models"
	"github.com/antigravity/transit-raptor-sim/internal/network"
	"github.com/antigravity/transit-raptor-sim/internal/raptor"
	"github.com/antigravity/transit-raptor-sim/internal/simulate"
)

// Segments lists every (trip, segment) load in result's occupancy table,
// spec.md §6 output 1.
func Segments(net *network.Network, result *simulate.Result) []models.SegmentLoad {
	snap := result.Occupancy.Snapshot()
	var out []models.SegmentLoad
	for _, trip := range net.Trips {
		route := net.Routes[trip.Route]
		segments := len(route.Stops) - 1
		for seg := 0; seg < segments; seg++ {
			out = append(out, models.SegmentLoad{
				TripExternalID: trip.ExternalID,
				FromStopIndex:  seg,
				ToStopIndex:    seg + 1,
				Load:           int64(snap.Load(trip.ID, seg)),
			})
		}
	}
	return out
}

// Journey translates a single agent outcome into a models.Journey row, used
// by internal/handler's single-agent JSON endpoint.
func Journey(net *network.Network, agentIndex int, ar simulate.AgentResult) models.Journey {
	j := models.Journey{AgentIndex: agentIndex, Unreachable: ar.Unreachable}
	if ar.Unreachable {
		return j
	}

	it := ar.Itinerary
	j.Origin = net.Stops[it.Origin].Name
	j.Destination = net.Stops[it.Destination].Name
	j.DepartTime = it.DepartTime
	j.ArriveTime = it.ArriveTime
	j.Cost = it.Cost
	j.Transfers = it.Transfers
	for _, leg := range it.Legs {
		dto := models.Leg{
			FromStop:     net.Stops[leg.FromStop].Name,
			ToStop:       net.Stops[leg.ToStop].Name,
			DepartTime:   leg.DepartTime,
			ArriveTime:   leg.ArriveTime,
			TransferSecs: leg.TransferSecs,
		}
		if leg.Kind == raptor.LegRide {
			dto.Kind = "ride"
			dto.TripExternal = leg.TripExternal
		} else {
			dto.Kind = "transfer"
		}
		j.Legs = append(j.Legs, dto)
	}
	return j
}

// JourneyLegRows flattens every agent outcome of one outer round into one
// models.JourneyLegRow per leg, spec.md §6's literal "per-agent journeys"
// row shape (agent_index, leg_kind, trip_external_id|−, from_stop_id,
// to_stop_id, start_time, end_time). Used by cmd/simrun's journeys.csv;
// internal/handler keeps the nested models.Journey shape for its JSON
// response instead.
func JourneyLegRows(net *network.Network, round simulate.RoundResult) []models.JourneyLegRow {
	var out []models.JourneyLegRow
	for _, ar := range round.Agents {
		out = append(out, JourneyLegRowsForAgent(net, ar.Agent.Index, ar)...)
	}
	return out
}

// JourneyLegRowsForAgent flattens a single agent outcome into its
// per-leg rows. An unreachable agent emits one row with LegKind
// "unreachable" and every other field left at its zero value.
func JourneyLegRowsForAgent(net *network.Network, agentIndex int, ar simulate.AgentResult) []models.JourneyLegRow {
	if ar.Unreachable {
		return []models.JourneyLegRow{{AgentIndex: agentIndex, LegKind: "unreachable"}}
	}

	rows := make([]models.JourneyLegRow, 0, len(ar.Itinerary.Legs))
	for _, leg := range ar.Itinerary.Legs {
		row := models.JourneyLegRow{
			AgentIndex: agentIndex,
			FromStopID: net.Stops[leg.FromStop].Name,
			ToStopID:   net.Stops[leg.ToStop].Name,
			StartTime:  leg.DepartTime,
			EndTime:    leg.ArriveTime,
		}
		if leg.Kind == raptor.LegRide {
			row.LegKind = "ride"
			row.TripExternalID = leg.TripExternal
		} else {
			row.LegKind = "transfer"
		}
		rows = append(rows, row)
	}
	return rows
}
