// Command simrun is a cobra-based batch runner: "run" executes a full
// simulation to CSV, "serve" starts the same REST server as cmd/simserver,
// and "sample" prints a crowding-function sample table, following
// tidbyt-gtfs's cmd/main.go cobra-root-with-persistent-flags shape.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/antigravity/transit-raptor-sim/internal/bootstrap"
)

var rootCmd = &cobra.Command{
	Use:          "simrun",
	Short:        "Transit RAPTOR crowding simulation runner",
	Long:         "Loads a network and demand set, runs the occupancy-feedback RAPTOR simulation, and reports its outputs.",
	SilenceUsage: true,
}

var flags struct {
	databaseURL   string
	modelDate     string
	maxWalkMeters float64

	demandSource             string
	demandCSVPath            string
	capacityOverridesCSVPath string

	outerRounds       int
	raptorRounds      int
	bagSize           int
	costUtility       float64
	stepWindowSeconds int

	crowdingFn string
	crowdingA0 float64
	crowdingA1 float64
	crowdingA  float64
	crowdingB  float64
	crowdingC  float64

	randomSeed     int64
	randomNumTrips int

	outputDir string

	port            string
	bagCacheEnabled bool
}

func init() {
	defaults := bootstrap.LoadConfigFromEnv()

	rootCmd.PersistentFlags().StringVar(&flags.databaseURL, "database-url", defaults.DatabaseURL, "Postgres connection string for the GTFS-shaped tables")
	rootCmd.PersistentFlags().StringVar(&flags.modelDate, "model-date", defaults.ModelDate, "service day to model, YYYYMMDD")
	rootCmd.PersistentFlags().Float64Var(&flags.maxWalkMeters, "max-walk-meters", defaults.MaxWalkMeters, "max walking distance synthesizing geographic transfers")

	rootCmd.PersistentFlags().StringVar(&flags.demandSource, "demand-source", defaults.DemandSource, "demand source: csv, postgres, or random")
	rootCmd.PersistentFlags().StringVar(&flags.demandCSVPath, "demand-csv", defaults.DemandCSVPath, "path to a demand csv file (demand-source=csv)")
	rootCmd.PersistentFlags().StringVar(&flags.capacityOverridesCSVPath, "capacity-overrides-csv", defaults.CapacityOverridesCSVPath, "path to a capacity-overrides csv file")

	rootCmd.PersistentFlags().IntVar(&flags.outerRounds, "outer-rounds", defaults.OuterRounds, "number of outer assignment rounds")
	rootCmd.PersistentFlags().IntVar(&flags.raptorRounds, "raptor-rounds", defaults.RaptorRounds, "RAPTOR round budget per query")
	rootCmd.PersistentFlags().IntVar(&flags.bagSize, "bag-size", defaults.BagSize, "max Pareto labels retained per stop")
	rootCmd.PersistentFlags().Float64Var(&flags.costUtility, "cost-utility", defaults.CostUtility, "linear scalarization weight on crowding cost")
	rootCmd.PersistentFlags().IntVar(&flags.stepWindowSeconds, "step-window-seconds", defaults.StepWindowSeconds, "time-ordered simulation step width")

	rootCmd.PersistentFlags().StringVar(&flags.crowdingFn, "crowding-function", defaults.CrowdingFn, "linear, quadratic, one_step, or two_step")
	rootCmd.PersistentFlags().Float64Var(&flags.crowdingA0, "crowding-a0", defaults.CrowdingA0, "one_step/two_step baseline cost")
	rootCmd.PersistentFlags().Float64Var(&flags.crowdingA1, "crowding-a1", defaults.CrowdingA1, "two_step boundary cost")
	rootCmd.PersistentFlags().Float64Var(&flags.crowdingA, "crowding-a", defaults.CrowdingA, "one_step/two_step exponent, clamped >= 5")
	rootCmd.PersistentFlags().Float64Var(&flags.crowdingB, "crowding-b", defaults.CrowdingB, "one_step/two_step coefficient")
	rootCmd.PersistentFlags().Float64Var(&flags.crowdingC, "crowding-c", defaults.CrowdingC, "two_step extra linear coefficient")

	rootCmd.PersistentFlags().Int64Var(&flags.randomSeed, "random-seed", defaults.RandomSeed, "seed for random demand generation")
	rootCmd.PersistentFlags().IntVar(&flags.randomNumTrips, "random-num-trips", defaults.RandomNumTrips, "number of agent trips to synthesize when demand-source=random")

	rootCmd.PersistentFlags().StringVar(&flags.outputDir, "output-dir", ".", "directory to write run's output CSVs into")
	rootCmd.PersistentFlags().StringVar(&flags.port, "port", defaults.Port, "port for the serve subcommand")
	rootCmd.PersistentFlags().BoolVar(&flags.bagCacheEnabled, "bag-cache-enabled", defaults.BagCacheEnabled, "memoize RAPTOR bags in Redis across simulation steps")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sampleCmd)
}

func configFromFlags() bootstrap.Config {
	cfg := bootstrap.LoadConfigFromEnv()
	cfg.DatabaseURL = flags.databaseURL
	cfg.ModelDate = flags.modelDate
	cfg.MaxWalkMeters = flags.maxWalkMeters
	cfg.DemandSource = flags.demandSource
	cfg.DemandCSVPath = flags.demandCSVPath
	cfg.CapacityOverridesCSVPath = flags.capacityOverridesCSVPath
	cfg.OuterRounds = flags.outerRounds
	cfg.RaptorRounds = flags.raptorRounds
	cfg.BagSize = flags.bagSize
	cfg.CostUtility = flags.costUtility
	cfg.StepWindowSeconds = flags.stepWindowSeconds
	cfg.CrowdingFn = flags.crowdingFn
	cfg.CrowdingA0 = flags.crowdingA0
	cfg.CrowdingA1 = flags.crowdingA1
	cfg.CrowdingA = flags.crowdingA
	cfg.CrowdingB = flags.crowdingB
	cfg.CrowdingC = flags.crowdingC
	cfg.RandomSeed = flags.randomSeed
	cfg.RandomNumTrips = flags.randomNumTrips
	cfg.Port = flags.port
	cfg.BagCacheEnabled = flags.bagCacheEnabled
	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
