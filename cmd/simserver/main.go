// Command simserver runs a one-shot simulation at startup and serves its
// outputs over REST, following the teacher's main.go wiring (pgxpool +
// chi + rs/cors) with the domain swapped for transit-raptor-sim's.
package main

import (
	"context"
	"log"
	"net/http"
	"sync/atomic"

	"github.com/antigravity/transit-raptor-sim/internal/bootstrap"
	"github.com/antigravity/transit-raptor-sim/internal/simulate"
)

func main() {
	cfg := bootstrap.LoadConfigFromEnv()
	ctx := context.Background()

	pool, err := bootstrap.ConnectDB(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	net, err := bootstrap.LoadNetwork(ctx, cfg, pool)
	if err != nil {
		log.Fatal(err)
	}

	result, err := bootstrap.RunSimulation(ctx, cfg, net, pool)
	if err != nil {
		log.Fatal(err)
	}

	resultPtr := &atomic.Pointer[simulate.Result]{}
	resultPtr.Store(result)

	router := bootstrap.NewRouter(cfg, net, resultPtr, pool)

	log.Printf("simserver starting on port %s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		log.Fatal(err)
	}
}
