// Package models holds the wire-facing DTOs translated to/from the domain
// types of internal/network, internal/journey and internal/simulate at the
// HTTP and CSV boundaries, generalizing the teacher's internal/models.Line/
// Stop/Schedule JSON shapes to this spec's segment/journey/crowding outputs.
package models

// SegmentLoad is one row of the §6 "segment counts" output: rows of
// (trip_external_id, from_stop_index, to_stop_index, count).
type SegmentLoad struct {
	TripExternalID string `json:"trip_id" csv:"trip_id"`
	FromStopIndex  int    `json:"from_stop_index" csv:"from_stop_index"`
	ToStopIndex    int    `json:"to_stop_index" csv:"to_stop_index"`
	Load           int64  `json:"load" csv:"load"`
}

// Leg is one ridden trip or walking transfer within a Journey response.
type Leg struct {
	Kind         string  `json:"kind" csv:"kind"` // "ride" or "transfer"
	TripExternal string  `json:"trip_id,omitempty" csv:"trip_id"`
	FromStop     string  `json:"from_stop" csv:"from_stop"`
	ToStop       string  `json:"to_stop" csv:"to_stop"`
	DepartTime   int     `json:"depart_time" csv:"depart_time"`
	ArriveTime   int     `json:"arrive_time" csv:"arrive_time"`
	TransferSecs int     `json:"transfer_seconds,omitempty" csv:"transfer_seconds"`
	Cost         float64 `json:"-" csv:"-"`
}

// Journey is a single agent's chosen itinerary for one outer round, the §6
// "per-agent chosen journey" output as served over HTTP (internal/handler),
// where the nested Legs are convenient. cmd/simrun's journeys.csv instead
// flattens each agent outcome of a round into one JourneyLegRow per leg via
// report.JourneyLegRows, matching the CSV column list spec.md §6 names
// literally.
type Journey struct {
	AgentIndex  int     `json:"agent_index" csv:"agent_index"`
	Origin      string  `json:"origin" csv:"origin"`
	Destination string  `json:"destination" csv:"destination"`
	DepartTime  int     `json:"depart_time" csv:"depart_time"`
	ArriveTime  int     `json:"arrive_time" csv:"arrive_time"`
	Cost        float64 `json:"cost" csv:"cost"`
	Transfers   int     `json:"transfers" csv:"transfers"`
	Unreachable bool    `json:"unreachable" csv:"unreachable"`
	Legs        []Leg   `json:"legs,omitempty" csv:"-"`
}

// JourneyLegRow is one row of the §6 "per-agent journeys" CSV output: rows
// of (agent_index, leg_kind, trip_external_id|−, from_stop_id, to_stop_id,
// start_time, end_time). An agent with no legs (Unreachable) emits a single
// row with LegKind "unreachable" and the remaining fields blank/zero.
type JourneyLegRow struct {
	AgentIndex     int    `json:"agent_index" csv:"agent_index"`
	LegKind        string `json:"leg_kind" csv:"leg_kind"`
	TripExternalID string `json:"trip_external_id" csv:"trip_external_id"`
	FromStopID     string `json:"from_stop_id" csv:"from_stop_id"`
	ToStopID       string `json:"to_stop_id" csv:"to_stop_id"`
	StartTime      int    `json:"start_time" csv:"start_time"`
	EndTime        int    `json:"end_time" csv:"end_time"`
}

// CrowdingSamplePoint is one row of the §6 crowding-function sample table.
type CrowdingSamplePoint struct {
	Load int     `json:"load" csv:"load"`
	Cost float64 `json:"cost" csv:"cost"`
}
