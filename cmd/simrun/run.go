package main

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/antigravity/transit-raptor-sim/internal/bootstrap"
	"github.com/antigravity/transit-raptor-sim/internal/report"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a full simulation and write segment/journey CSVs",
	RunE:  runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
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

	segmentsPath := filepath.Join(flags.outputDir, "segments.csv")
	if err := writeCSV(segmentsPath, report.Segments(net, result)); err != nil {
		return fmt.Errorf("simrun: writing segments csv: %w", err)
	}
	log.Printf("simrun: wrote %s", segmentsPath)

	journeysPath := filepath.Join(flags.outputDir, "journeys.csv")
	finalRound := result.Rounds[len(result.Rounds)-1]
	if err := writeCSV(journeysPath, report.JourneyLegRows(net, finalRound)); err != nil {
		return fmt.Errorf("simrun: writing journeys csv: %w", err)
	}
	log.Printf("simrun: wrote %s (%d agents, %d unreachable)", journeysPath, len(finalRound.Agents), finalRound.Unreachable)

	return nil
}
