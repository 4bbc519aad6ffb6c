// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - Provide New() to build a Config with defaults, Load(ctx) to layer sources.
//   - External errors must be wrapped via this package's error helpers.
//   - Nothing here is hard-coded into engine logic; the engines receive
//     these values through constructors.
package config

import "time"

// RankTier configures one progression stage. Tiers are ordered; the
// order doubles as the priority order when resolving a member's
// current rank from their role labels. A zero requirement means "not
// required". An empty Next marks a terminal tier.
type RankTier struct {
	Label              string `koanf:"label"`
	Next               string `koanf:"next"`
	EventsAttended     int    `koanf:"events_attended"`
	WarfareAttended    int    `koanf:"warfare_attended"`
	TrainingAttended   int    `koanf:"training_attended"`
	DuelsWon           int    `koanf:"duels_won"`
	AssessmentRequired bool   `koanf:"assessment_required"`
}

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the admin HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DatabaseURL is the Postgres DSN for the ledger. Empty selects the
	// in-memory ledger (tests, simulator).
	DatabaseURL string `koanf:"database_url"`

	// EventTypes is the ordered selection list for the logging wizard.
	EventTypes []string `koanf:"event_types"`

	// WarfareTypes and TrainingTypes partition event types for stats.
	WarfareTypes  []string `koanf:"warfare_types"`
	TrainingTypes []string `koanf:"training_types"`

	// RankTiers is the ordered rank rule table.
	RankTiers []RankTier `koanf:"rank_tiers"`

	// AssessmentRank is the rank label whose holders may start the assessment.
	AssessmentRank string `koanf:"assessment_rank"`

	// AssessmentQuestions is the fixed ordered question list.
	AssessmentQuestions []string `koanf:"assessment_questions"`

	// OfficerRoles and ReviewerRoles grant capabilities by role label.
	OfficerRoles  []string `koanf:"officer_roles"`
	ReviewerRoles []string `koanf:"reviewer_roles"`

	// ReviewChannelID is the review surface for assessment submissions.
	ReviewChannelID string `koanf:"review_channel_id"`

	// AnnounceChannelID receives promotion-ready notifications.
	AnnounceChannelID string `koanf:"announce_channel_id"`

	// DuelLink is included in duel-accepted notifications.
	DuelLink string `koanf:"duel_link"`

	// Per-step timeouts, in seconds.
	SelectTimeoutSec    int `koanf:"select_timeout_sec"`
	CollectTimeoutSec   int `koanf:"collect_timeout_sec"`
	ChallengeTimeoutSec int `koanf:"challenge_timeout_sec"`
	AnswerTimeoutSec    int `koanf:"answer_timeout_sec"`
	ConfirmTimeoutSec   int `koanf:"confirm_timeout_sec"`

	// NotifyQueueSize bounds the outbound notification queue.
	NotifyQueueSize int `koanf:"notify_queue_size"`

	// NotifyWorkerCount sets the number of delivery workers.
	NotifyWorkerCount int `koanf:"notify_worker_count"`
}

// New creates a Config populated with defaults. The defaults mirror
// the community's original setup: seven event types, warfare =
// raid/defense/scrim, a single pre-assessment tier, and the 60/120/
// 180/300 second step timeouts.
func New() *Config {
	return &Config{
		LogLevel: "info",
		Addr:     ":9080",
		EventTypes: []string{
			"raid", "defense", "scrim", "training", "gamenight", "recruitment", "other",
		},
		WarfareTypes:  []string{"raid", "defense", "scrim"},
		TrainingTypes: []string{"training"},
		RankTiers: []RankTier{
			{
				Label:              "Minor I",
				Next:               "Major III",
				EventsAttended:     7,
				WarfareAttended:    3,
				TrainingAttended:   2,
				DuelsWon:           2,
				AssessmentRequired: true,
			},
		},
		AssessmentRank: "Minor I",
		AssessmentQuestions: []string{
			"Question 1 placeholder.",
			"Question 2 placeholder.",
			"Question 3 placeholder.",
			"Question 4 placeholder.",
			"Question 5 placeholder.",
		},
		OfficerRoles:        []string{"Officer"},
		ReviewerRoles:       []string{"High Command"},
		ReviewChannelID:     "quiz-review",
		AnnounceChannelID:   "promotions",
		DuelLink:            "https://example.com/duel",
		SelectTimeoutSec:    60,
		CollectTimeoutSec:   180,
		ChallengeTimeoutSec: 60,
		AnswerTimeoutSec:    300,
		ConfirmTimeoutSec:   120,
		NotifyQueueSize:     10_000,
		NotifyWorkerCount:   4,
	}
}

// Timeout helpers convert the configured seconds to durations.

func (c *Config) SelectTimeout() time.Duration {
	return time.Duration(c.SelectTimeoutSec) * time.Second
}
func (c *Config) CollectTimeout() time.Duration {
	return time.Duration(c.CollectTimeoutSec) * time.Second
}
func (c *Config) ChallengeTimeout() time.Duration {
	return time.Duration(c.ChallengeTimeoutSec) * time.Second
}
func (c *Config) AnswerTimeout() time.Duration {
	return time.Duration(c.AnswerTimeoutSec) * time.Second
}
func (c *Config) ConfirmTimeout() time.Duration {
	return time.Duration(c.ConfirmTimeoutSec) * time.Second
}
