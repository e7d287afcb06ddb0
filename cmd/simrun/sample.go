package main

import (
	"os"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"

	"github.com/antigravity/transit-raptor-sim/internal/crowding"
	"github.com/antigravity/transit-raptor-sim/internal/models"
)

var sampleFlags struct {
	seated   int
	standing int
	maxLoad  int
}

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Print a crowding function sample table to stdout",
	RunE:  runSample,
}

func init() {
	sampleCmd.Flags().IntVar(&sampleFlags.seated, "seated", 30, "seated capacity")
	sampleCmd.Flags().IntVar(&sampleFlags.standing, "standing", 10, "standing capacity")
	sampleCmd.Flags().IntVar(&sampleFlags.maxLoad, "max-load", 100, "highest load row to print")
}

func runSample(cmd *cobra.Command, args []string) error {
	cfg := configFromFlags()
	fn := cfg.CrowdingFunction()

	points := crowding.Sample(fn, crowding.Capacity{Seated: sampleFlags.seated, Standing: sampleFlags.standing}, sampleFlags.maxLoad)
	rows := make([]models.CrowdingSamplePoint, len(points))
	for i, p := range points {
		rows[i] = models.CrowdingSamplePoint{Load: p.Load, Cost: p.Cost}
	}

	return gocsv.MarshalFile(&rows, os.Stdout)
}
