package sim

import "os"

// ShowHelp prints usage information for the simulator.
func ShowHelp() {
	os.Stdout.WriteString(`Garrison Simulator
==================

Drives scripted conversations through the full tracker stack (workflow
sessions, review gate, notification pipeline) against the in-memory
ledger, without a chat transport attached.

Usage:
  go run cmd/sim/main.go [options]

Options:
  -members int
        Number of regular members (default 8)
  -events int
        Number of events the officer logs (default 20)
  -duels int
        Number of challenge + report cycles (default 10)
  -assessments int
        Number of assessment + review cycles (default 5)
  -seed int
        RNG seed for reproducible runs (default 1)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Run with default settings
  go run cmd/sim/main.go

  # A heavier, reproducible run
  go run cmd/sim/main.go -members 50 -events 200 -duels 80 -seed 7
`)
}
