package bootstrap

import (
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/cors"

	"github.com/antigravity/transit-raptor-sim/internal/handler"
	"github.com/antigravity/transit-raptor-sim/internal/network"
	"github.com/antigravity/transit-raptor-sim/internal/simulate"
)

// NewRouter builds the chi router serving spec.md §6's REST outputs,
// keeping the teacher's exact middleware stack (Logger, Recoverer,
// Timeout) and rs/cors configuration.
func NewRouter(cfg Config, net *network.Network, result *atomic.Pointer[simulate.Result], db *pgxpool.Pool) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	h := handler.NewTransportHandler(net, result, db)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"transit-raptor-sim"}`))
	})
	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/segments", h.GetSegments)
		r.Get("/agents/{id}/journey", h.GetAgentJourney)
		r.Get("/crowding-sample", h.GetCrowdingSample)
	})

	return r
}
