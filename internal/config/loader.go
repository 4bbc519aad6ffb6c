package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if GARRISON_CONFIG is set
//  3. env (prefix GARRISON_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("GARRISON_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: GARRISON_ADDR, GARRISON_DATABASE_URL, ...
	// Map env keys like GARRISON_SELECT_TIMEOUT_SEC -> select_timeout_sec.
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("GARRISON_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "garrison_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate enforces the minimal structural constraints the engines rely on.
func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case len(c.EventTypes) == 0:
		return fmt.Errorf("%w: event_types must not be empty", ErrInvalidConfig)
	case len(c.AssessmentQuestions) == 0:
		return fmt.Errorf("%w: assessment_questions must not be empty", ErrInvalidConfig)
	case len(c.RankTiers) == 0:
		return fmt.Errorf("%w: rank_tiers must not be empty", ErrInvalidConfig)
	}
	for _, d := range []int{
		c.SelectTimeoutSec, c.CollectTimeoutSec, c.ChallengeTimeoutSec,
		c.AnswerTimeoutSec, c.ConfirmTimeoutSec,
	} {
		if d <= 0 {
			return fmt.Errorf("%w: step timeouts must be positive", ErrInvalidConfig)
		}
	}
	seen := make(map[string]struct{}, len(c.RankTiers))
	for _, tier := range c.RankTiers {
		if tier.Label == "" {
			return fmt.Errorf("%w: rank tier label must not be empty", ErrInvalidConfig)
		}
		if _, dup := seen[tier.Label]; dup {
			return fmt.Errorf("%w: duplicate rank tier %q", ErrInvalidConfig, tier.Label)
		}
		seen[tier.Label] = struct{}{}
	}
	return nil
}
