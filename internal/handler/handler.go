// Package handler exposes the simulation outputs of spec.md §6 over HTTP,
// generalizing the teacher's internal/handler.TransportHandler (chi
// handlers returning repository/routing data as JSON) to this spec's
// segment-load, journey and crowding-sample outputs.
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/antigravity/transit-raptor-sim/internal/crowding"
	"github.com/antigravity/transit-raptor-sim/internal/models"
	"github.com/antigravity/transit-raptor-sim/internal/network"
	"github.com/antigravity/transit-raptor-sim/internal/report"
	"github.com/antigravity/transit-raptor-sim/internal/simulate"
)

// TransportHandler serves the domain packages over REST. Result is an
// atomic pointer so a long-running simserver can swap in a freshly
// completed simulation without a lock around every request, mirroring the
// teacher's stateless per-request Repo/Raptor field access.
type TransportHandler struct {
	Net    *network.Network
	Result *atomic.Pointer[simulate.Result]
	DB     *pgxpool.Pool // optional: nil when the network was not loaded from Postgres
}

// NewTransportHandler wraps the network and a (possibly not-yet-populated)
// simulation result pointer. db may be nil.
func NewTransportHandler(net *network.Network, result *atomic.Pointer[simulate.Result], db *pgxpool.Pool) *TransportHandler {
	return &TransportHandler{Net: net, Result: result, DB: db}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// GetSegments returns the final-round per-(trip,segment) agent load,
// spec.md §6 output 1.
func (h *TransportHandler) GetSegments(w http.ResponseWriter, r *http.Request) {
	result := h.Result.Load()
	if result == nil {
		http.Error(w, "no completed simulation round yet", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, report.Segments(h.Net, result))
}

// GetAgentJourney returns one agent's chosen itinerary from the final
// completed outer round, spec.md §6 output 2.
func (h *TransportHandler) GetAgentJourney(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "invalid agent id", http.StatusBadRequest)
		return
	}

	result := h.Result.Load()
	if result == nil || len(result.Rounds) == 0 {
		http.Error(w, "no completed simulation round yet", http.StatusServiceUnavailable)
		return
	}

	final := result.Rounds[len(result.Rounds)-1]
	for _, agentResult := range final.Agents {
		if agentResult.Agent.Index != id {
			continue
		}
		writeJSON(w, http.StatusOK, report.Journey(h.Net, id, agentResult))
		return
	}
	http.Error(w, "agent not found in final round", http.StatusNotFound)
}

// GetCrowdingSample returns the crowding function sample table for a given
// capacity and function shape, spec.md §6 output 3. Query params: seated,
// standing (capacity), fn (linear|quadratic|one_step|two_step), and the
// one_step/two_step parameters a0, a1, a, b, c; max_load bounds the table
// (default 100).
func (h *TransportHandler) GetCrowdingSample(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	seated := queryInt(q, "seated", 30)
	standing := queryInt(q, "standing", 10)
	maxLoad := queryInt(q, "max_load", 100)

	var fn crowding.Function
	switch q.Get("fn") {
	case "quadratic":
		fn = crowding.NewQuadratic()
	case "one_step":
		fn = crowding.NewOneStep(queryFloat(q, "a0", 0), queryFloat(q, "a", 5), queryFloat(q, "b", 1))
	case "two_step":
		fn = crowding.NewTwoStep(queryFloat(q, "a0", 0), queryFloat(q, "a1", 1), queryFloat(q, "a", 5), queryFloat(q, "b", 1), queryFloat(q, "c", 0))
	default:
		fn = crowding.NewLinear()
	}

	points := crowding.Sample(fn, crowding.Capacity{Seated: seated, Standing: standing}, maxLoad)
	out := make([]models.CrowdingSamplePoint, len(points))
	for i, p := range points {
		out[i] = models.CrowdingSamplePoint{Load: p.Load, Cost: p.Cost}
	}
	writeJSON(w, http.StatusOK, out)
}

// Health pings the backing database when one is configured, mirroring the
// teacher's /health handler; a handler built without a DB (e.g. a
// CSV-loaded network) always reports ok.
func (h *TransportHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.DB != nil {
		if err := h.DB.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "db": "disconnected"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func queryInt(q map[string][]string, key string, def int) int {
	v := firstOr(q, key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func queryFloat(q map[string][]string, key string, def float64) float64 {
	v := firstOr(q, key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func firstOr(q map[string][]string, key, def string) string {
	if vs, ok := q[key]; ok && len(vs) > 0 {
		return vs[0]
	}
	return def
}
