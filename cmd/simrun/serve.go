package main

import (
	"context"
	"log"
	"net/http"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/antigravity/transit-raptor-sim/internal/bootstrap"
	"github.com/antigravity/transit-raptor-sim/internal/simulate"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a simulation once, then serve its outputs over REST (same routes as cmd/simserver)",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := configFromFlags()
	ctx := context.Background()

	pool, err := bootstrap.ConnectDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	net, err := bootstrap.LoadNetwork(ctx, cfg, pool)
	if err != nil {
		return err
	}

	result, err := bootstrap.RunSimulation(ctx, cfg, net, pool)
	if err != nil {
		return err
	}

	resultPtr := &atomic.Pointer[simulate.Result]{}
	resultPtr.Store(result)

	router := bootstrap.NewRouter(cfg, net, resultPtr, pool)

	log.Printf("simrun serve: starting on port %s", cfg.Port)
	return http.ListenAndServe(":"+cfg.Port, router)
}
