package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/velstra/garrison/internal/sim"
	"github.com/velstra/garrison/pkg/logger"
)

// Default configuration constants.
const (
	defaultMembers     = 8
	defaultEvents      = 20
	defaultDuels       = 10
	defaultAssessments = 5
	defaultSeed        = 1
	defaultRunTimeout  = 10 * time.Minute
)

func main() {
	var (
		members     = flag.Int("members", defaultMembers, "Number of regular members")
		events      = flag.Int("events", defaultEvents, "Number of events the officer logs")
		duels       = flag.Int("duels", defaultDuels, "Number of challenge + report cycles")
		assessments = flag.Int("assessments", defaultAssessments, "Number of assessment + review cycles")
		seed        = flag.Int64("seed", defaultSeed, "RNG seed for reproducible runs")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		sim.ShowHelp()
		return
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := &sim.Config{
		Members:     *members,
		Events:      *events,
		Duels:       *duels,
		Assessments: *assessments,
		Seed:        *seed,
		Verbose:     *verbose,
	}

	if err := sim.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("Simulation failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
