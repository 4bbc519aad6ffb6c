package sim

import "time"

// Config holds configuration for one simulator run.
type Config struct {
	Members     int   // number of regular members
	Events      int   // number of events the officer logs
	Duels       int   // number of challenge + report cycles
	Assessments int   // number of assessment + review cycles
	Seed        int64 // RNG seed, for reproducible runs
	Verbose     bool  // enable verbose logging
}

// Stats holds simulator results.
type Stats struct {
	EventsLogged      int
	DuelsAccepted     int
	DuelsDeclined     int
	DuelsReported     int
	AssessmentsPassed int
	AssessmentsFailed int
	PromotionsReady   int

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}
