// Package sim drives scripted conversations through the full service
// stack: real workflow sessions, dispatcher, review gate, and notify
// pipeline, backed by the in-memory ledger and a scripted gateway.
// It exists to exercise the system end to end without a chat
// transport attached.
package sim

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/velstra/garrison/internal/adapters/chat"
	"github.com/velstra/garrison/internal/adapters/chat/chattest"
	"github.com/velstra/garrison/internal/adapters/repository"
	service "github.com/velstra/garrison/internal/app"
	"github.com/velstra/garrison/internal/config"
	"github.com/velstra/garrison/internal/domain/model"
	"github.com/velstra/garrison/pkg/logger"
)

// Fixed actors for every run.
const (
	officerID  = model.MemberID("sim-officer")
	reviewerID = model.MemberID("sim-reviewer")
	channelID  = chat.ChannelID("sim-hall")
)

// Run executes the complete simulation.
func Run(ctx context.Context, cfg *Config) error {
	stats := &Stats{StartTime: time.Now()}
	rng := rand.New(rand.NewSource(cfg.Seed))

	logger.Get().Info(ctx, "starting garrison simulation",
		logger.Int("members", cfg.Members),
		logger.Int("events", cfg.Events),
		logger.Int("duels", cfg.Duels),
		logger.Int("assessments", cfg.Assessments),
		logger.Int64("seed", cfg.Seed),
	)

	gw := chattest.NewGateway()
	ledger := repository.NewMemoryLedger()

	svcCfg := config.New()
	svcCfg.NotifyWorkerCount = 2

	gw.SetRoles(officerID, "Officer")
	gw.SetRoles(reviewerID, "High Command")
	members := make([]model.MemberID, 0, cfg.Members)
	for i := 0; i < cfg.Members; i++ {
		m := model.MemberID(fmt.Sprintf("sim-member-%d", i))
		gw.SetRoles(m, svcCfg.AssessmentRank)
		members = append(members, m)
	}

	svc := service.New(svcCfg,
		service.WithGateway(gw),
		service.WithLedger(ledger),
	)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	d := &driver{svc: svc, gw: gw}

	if err := runEvents(ctx, d, svcCfg, rng, members, cfg.Events, stats); err != nil {
		return fmt.Errorf("event phase: %w", err)
	}
	if err := runDuels(ctx, d, rng, members, cfg.Duels, stats); err != nil {
		return fmt.Errorf("duel phase: %w", err)
	}
	if err := runAssessments(ctx, d, svcCfg, rng, members, cfg.Assessments, stats); err != nil {
		return fmt.Errorf("assessment phase: %w", err)
	}
	if err := runProgress(ctx, d, members, stats); err != nil {
		return fmt.Errorf("progress phase: %w", err)
	}
	if err := verify(ctx, ledger, stats); err != nil {
		return fmt.Errorf("verification: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	report(ctx, stats)
	return nil
}

// runEvents logs cfg.Events wizard sessions with random types and
// random attendee mixes.
func runEvents(ctx context.Context, d *driver, svcCfg *config.Config, rng *rand.Rand, members []model.MemberID, n int, stats *Stats) error {
	for i := 0; i < n; i++ {
		eventType := svcCfg.EventTypes[rng.Intn(len(svcCfg.EventTypes))]
		attendees := pick(rng, members, 1+rng.Intn(len(members)))

		done := make(chan error, 1)
		go func() { done <- d.svc.LogEvent(ctx, officerID, channelID) }()

		if err := d.message(channelID, officerID, eventType); err != nil {
			return err
		}
		if err := d.message(channelID, officerID, "none"); err != nil {
			return err
		}
		if err := d.message(channelID, officerID, "attending", attendees...); err != nil {
			return err
		}
		if err := d.message(channelID, officerID, "done"); err != nil {
			return err
		}
		if err := <-done; err != nil {
			return fmt.Errorf("wizard session %d: %w", i, err)
		}
		stats.EventsLogged++
	}
	return nil
}

// runDuels plays challenge sessions, randomly accepted or declined,
// and reports a result for each accepted duel.
func runDuels(ctx context.Context, d *driver, rng *rand.Rand, members []model.MemberID, n int, stats *Stats) error {
	if len(members) < 2 {
		return nil
	}
	for i := 0; i < n; i++ {
		pair := pick(rng, members, 2)
		challenger, opponent := pair[0], pair[1]
		accept := rng.Intn(4) > 0 // decline roughly a quarter of the time

		done := make(chan error, 1)
		go func() { done <- d.svc.Challenge(ctx, challenger, opponent, nil, channelID) }()

		token := "no"
		if accept {
			token = "yes"
		}
		if err := d.message(channelID, opponent, token); err != nil {
			return err
		}
		if err := <-done; err != nil {
			return fmt.Errorf("challenge session %d: %w", i, err)
		}
		if !accept {
			stats.DuelsDeclined++
			continue
		}
		stats.DuelsAccepted++

		go func() { done <- d.svc.ReportDuel(ctx, officerID, channelID) }()
		if err := d.message(channelID, officerID, "winner", challenger); err != nil {
			return err
		}
		if err := d.message(channelID, officerID, "loser", opponent); err != nil {
			return err
		}
		if err := <-done; err != nil {
			return fmt.Errorf("report session %d: %w", i, err)
		}
		stats.DuelsReported++
	}
	return nil
}

// runAssessments plays full assessment sessions with one rejected
// confirmation thrown in, then resolves each with a random verdict.
func runAssessments(ctx context.Context, d *driver, svcCfg *config.Config, rng *rand.Rand, members []model.MemberID, n int, stats *Stats) error {
	if len(members) == 0 {
		return nil
	}
	for i := 0; i < n; i++ {
		member := members[rng.Intn(len(members))]
		dm := chattest.DMChannel(member)

		done := make(chan error, 1)
		go func() { done <- d.svc.StartAssessment(ctx, member, channelID) }()

		for q := range svcCfg.AssessmentQuestions {
			if q == 0 && rng.Intn(2) == 0 {
				// Change of heart on the first answer.
				if err := d.message(dm, member, "first draft"); err != nil {
					return err
				}
				if err := d.react(ctx, dm, member, chat.SymbolReject); err != nil {
					return err
				}
			}
			if err := d.message(dm, member, fmt.Sprintf("answer %d", q+1)); err != nil {
				return err
			}
			if err := d.react(ctx, dm, member, chat.SymbolApprove); err != nil {
				return err
			}
		}
		if err := <-done; err != nil {
			return fmt.Errorf("assessment session %d: %w", i, err)
		}

		// Reviewer verdict on the freshly posted artifact.
		artifact := d.gw.Reviews[len(d.gw.Reviews)-1]
		pass := rng.Intn(2) == 0
		symbol := chat.SymbolReject
		if pass {
			symbol = chat.SymbolApprove
		}
		if !d.svc.HandleReaction(ctx, chat.Reaction{
			MessageID: artifact.ID,
			ChannelID: artifact.Channel,
			ActorID:   reviewerID,
			Symbol:    symbol,
		}) {
			return fmt.Errorf("verdict on artifact %s was not handled", artifact.ID)
		}
		if pass {
			stats.AssessmentsPassed++
		} else {
			stats.AssessmentsFailed++
		}
	}
	return nil
}

// runProgress asks for every member's progress report.
func runProgress(ctx context.Context, d *driver, members []model.MemberID, stats *Stats) error {
	for _, m := range members {
		if err := d.svc.Progress(ctx, m, channelID); err != nil {
			return err
		}
		decision, err := d.svc.Evaluate(ctx, m)
		if err != nil {
			return err
		}
		if decision.Ready {
			stats.PromotionsReady++
		}
	}
	return nil
}

// verify cross-checks the ledger against what the run recorded.
func verify(ctx context.Context, ledger *repository.MemoryLedger, stats *Stats) error {
	hosted, err := ledger.CountHosted(ctx, officerID, nil)
	if err != nil {
		return err
	}
	if hosted != stats.EventsLogged {
		return fmt.Errorf("officer hosted %d events, expected %d", hosted, stats.EventsLogged)
	}

	members, err := ledger.CountMembers(ctx)
	if err != nil {
		return err
	}
	if stats.EventsLogged > 0 && members == 0 {
		return fmt.Errorf("events were logged but no members exist")
	}
	return nil
}

func report(ctx context.Context, stats *Stats) {
	logger.Get().Info(ctx, "simulation complete",
		logger.Int("eventsLogged", stats.EventsLogged),
		logger.Int("duelsAccepted", stats.DuelsAccepted),
		logger.Int("duelsDeclined", stats.DuelsDeclined),
		logger.Int("duelsReported", stats.DuelsReported),
		logger.Int("assessmentsPassed", stats.AssessmentsPassed),
		logger.Int("assessmentsFailed", stats.AssessmentsFailed),
		logger.Int("promotionsReady", stats.PromotionsReady),
		logger.Duration("duration", stats.Duration),
	)
}

// pick returns n distinct members in random order.
func pick(rng *rand.Rand, members []model.MemberID, n int) []model.MemberID {
	if n > len(members) {
		n = len(members)
	}
	idx := rng.Perm(len(members))[:n]
	out := make([]model.MemberID, 0, n)
	for _, i := range idx {
		out = append(out, members[i])
	}
	return out
}
