// Package service wires the tracker together: ledger, stats,
// progression, the workflow engine, the review gate, and the
// notification pipeline, behind one lifecycle.
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/velstra/garrison/internal/adapters/chat"
	"github.com/velstra/garrison/internal/adapters/mq/queue"
	"github.com/velstra/garrison/internal/adapters/mq/worker"
	"github.com/velstra/garrison/internal/adapters/repository"
	"github.com/velstra/garrison/internal/config"
	"github.com/velstra/garrison/internal/domain/access"
	"github.com/velstra/garrison/internal/domain/model"
	"github.com/velstra/garrison/internal/domain/progression"
	"github.com/velstra/garrison/internal/domain/rank"
	"github.com/velstra/garrison/internal/domain/stats"
	"github.com/velstra/garrison/internal/review"
	"github.com/velstra/garrison/internal/workflow"
	"github.com/velstra/garrison/pkg/logger"
	"github.com/velstra/garrison/pkg/metrics"
)

// Service implements the command entry points the chat transport and
// the admin API depend on.
type Service struct {
	mu sync.RWMutex

	cfg *config.Config

	// Core components
	gateway     chat.Gateway
	dispatch    *chat.Dispatcher
	ledger      repository.Ledger
	grants      access.Grants
	table       *rank.Table
	aggregator  *stats.Aggregator
	progression *progression.Engine
	flows       *workflow.Engine
	gate        *review.Gate
	notifyQueue *queue.InMemoryQueue
	notifyPool  *worker.Pool

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithGateway sets the chat transport the service talks through.
func WithGateway(gw chat.Gateway) Option {
	return func(s *Service) {
		s.gateway = gw
	}
}

// WithLedger overrides the ledger Start would otherwise build from
// configuration. Tests and the simulator pass the in-memory ledger.
func WithLedger(l repository.Ledger) Option {
	return func(s *Service) {
		s.ledger = l
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service around the given configuration.
func New(cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		cfg: cfg,
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start builds and starts every component. It is a no-op when the
// service is already running.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.gateway == nil {
		return fmt.Errorf("start service: no chat gateway configured")
	}

	s.logger.Info(ctx, "starting tracker service...")

	if s.ledger == nil {
		if s.cfg.DatabaseURL != "" {
			ledger, err := repository.NewGormLedger(ctx, s.cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("open ledger: %w", err)
			}
			s.ledger = ledger
			s.logger.Info(ctx, "using postgres ledger")
		} else {
			s.ledger = repository.NewMemoryLedger()
			s.logger.Info(ctx, "using in-memory ledger")
		}
	}

	s.grants = access.NewGrants(s.cfg.OfficerRoles, s.cfg.ReviewerRoles, s.cfg.AssessmentRank)
	s.table = rank.NewTable(s.cfg.RankTiers)
	s.aggregator = stats.New(s.ledger,
		stats.WithWarfareTypes(toEventTypes(s.cfg.WarfareTypes)),
		stats.WithTrainingTypes(toEventTypes(s.cfg.TrainingTypes)),
	)
	s.progression = progression.New(s.aggregator, s.table)
	s.dispatch = chat.NewDispatcher()

	s.notifyQueue = queue.NewInMemoryQueue(
		queue.WithCapacity(s.cfg.NotifyQueueSize),
	)
	s.notifyPool = worker.NewPool(s.cfg.NotifyWorkerCount, s.notifyQueue, s.gateway)
	s.notifyPool.Start(ctx)

	s.gate = review.NewGate(s.gateway, s.ledger, s.grants,
		chat.ChannelID(s.cfg.ReviewChannelID),
		review.WithNotifier(s.notifyQueue),
	)

	s.flows = workflow.NewEngine(s.gateway, s.dispatch, s.ledger, s.grants,
		workflow.WithEventTypes(toEventTypes(s.cfg.EventTypes)),
		workflow.WithQuestions(s.cfg.AssessmentQuestions),
		workflow.WithReviewChannel(chat.ChannelID(s.cfg.ReviewChannelID)),
		workflow.WithDuelLink(s.cfg.DuelLink),
		workflow.WithNotifier(s.notifyQueue),
		workflow.WithReviewRegistry(s.gate),
		workflow.WithTimeouts(
			s.cfg.SelectTimeout(),
			s.cfg.CollectTimeout(),
			s.cfg.ChallengeTimeout(),
			s.cfg.AnswerTimeout(),
			s.cfg.ConfirmTimeout(),
		),
	)

	s.started = true
	s.logger.Info(ctx, "tracker service started",
		logger.Int("notifyWorkers", s.cfg.NotifyWorkerCount),
		logger.Int("notifyQueueSize", s.cfg.NotifyQueueSize),
		logger.Int("rankTiers", len(s.cfg.RankTiers)),
	)
	return nil
}

// Stop gracefully shuts the service down.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping tracker service...")

	if s.notifyQueue != nil {
		_ = s.notifyQueue.Close()
	}
	if s.notifyPool != nil {
		s.notifyPool.Stop()
	}
	if s.ledger != nil {
		_ = s.ledger.Close()
	}

	s.started = false
	s.logger.Info(ctx, "tracker service stopped")
}

// HandleMessage feeds an inbound message to whichever session awaits
// it. Unclaimed messages are dropped.
func (s *Service) HandleMessage(msg chat.Message) bool {
	return s.dispatch.DispatchMessage(msg)
}

// HandleReaction feeds an inbound reaction first to the suspended
// sessions, then to the review gate. Unclaimed reactions are dropped.
func (s *Service) HandleReaction(ctx context.Context, r chat.Reaction) bool {
	if s.dispatch.DispatchReaction(r) {
		return true
	}
	return s.gate.HandleReaction(ctx, r)
}

// LogEvent runs the event-logging wizard. Blocks for the session's
// lifetime; the transport runs one goroutine per command.
func (s *Service) LogEvent(ctx context.Context, host model.MemberID, ch chat.ChannelID) error {
	return s.flows.LogEvent(ctx, host, ch)
}

// Challenge runs the duel-challenge flow.
func (s *Service) Challenge(ctx context.Context, challenger, opponent model.MemberID, supervisor *model.MemberID, ch chat.ChannelID) error {
	return s.flows.Challenge(ctx, challenger, opponent, supervisor, ch)
}

// ReportDuel runs the officer-only duel result session.
func (s *Service) ReportDuel(ctx context.Context, officer model.MemberID, ch chat.ChannelID) error {
	return s.flows.ReportDuel(ctx, officer, ch)
}

// StartAssessment runs the assessment flow.
func (s *Service) StartAssessment(ctx context.Context, member model.MemberID, origin chat.ChannelID) error {
	return s.flows.StartAssessment(ctx, member, origin)
}

// Evaluate resolves the member's rank from their current role labels
// and evaluates promotion readiness.
func (s *Service) Evaluate(ctx context.Context, member model.MemberID) (progression.Decision, error) {
	roles, err := s.gateway.RoleLabels(ctx, member)
	if err != nil {
		return progression.Decision{}, fmt.Errorf("role lookup: %w", err)
	}
	return s.progression.EvaluateRoles(ctx, member, roles)
}

// Progress posts a progress report for the member into the channel.
// A promotion-ready result also announces to the configured channel;
// the announcement repeats on every qualifying evaluation.
func (s *Service) Progress(ctx context.Context, member model.MemberID, ch chat.ChannelID) error {
	d, err := s.Evaluate(ctx, member)
	if err != nil {
		s.logger.Error(ctx, "progress evaluation failed",
			logger.String("member", string(member)),
			logger.Error(err),
		)
		if _, sendErr := s.gateway.Send(ctx, ch, "Something went wrong while computing progress."); sendErr != nil {
			s.logger.Warn(ctx, "progress failure report undelivered", logger.Error(sendErr))
		}
		return err
	}

	if _, err := s.gateway.Send(ctx, ch, renderProgress(member, d)); err != nil {
		s.logger.Warn(ctx, "progress report undelivered",
			logger.String("member", string(member)),
			logger.Error(err),
		)
	}

	if d.Ready {
		metrics.RecordPromotionAnnounced()
		s.notifyQueue.Enqueue(ctx, queue.Notification{
			ChannelID: chat.ChannelID(s.cfg.AnnounceChannelID),
			Text:      fmt.Sprintf("%s has met every requirement for promotion from %s to %s.", member, d.Tier.Label, d.Next),
		})
	}
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := map[string]interface{}{
		"started": s.started,
	}
	if !s.started {
		return out
	}

	ctx := context.Background()
	out["waitingSessions"] = s.dispatch.Waiting()
	out["notifyQueueLength"] = s.notifyQueue.Len(ctx)

	if members, err := s.ledger.CountMembers(ctx); err == nil {
		out["totalMembers"] = members
		metrics.UpdateTotalMembers(members)
	}
	return out
}

func toEventTypes(names []string) []model.EventType {
	out := make([]model.EventType, 0, len(names))
	for _, n := range names {
		out = append(out, model.EventType(n))
	}
	return out
}

// renderProgress formats the decision as the member-facing report.
func renderProgress(member model.MemberID, d progression.Decision) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Progress for %s\n", member)
	if d.Next != "" {
		fmt.Fprintf(&b, "Rank path: %s -> %s\n", d.Tier.Label, d.Next)
	} else {
		fmt.Fprintf(&b, "Rank: %s (no further promotion)\n", d.Tier.Label)
	}

	for _, r := range d.Requirements {
		if r.Required > 0 {
			fmt.Fprintf(&b, "%s: %d/%d\n", r.Name, r.Current, r.Required)
		} else {
			fmt.Fprintf(&b, "%s: %d\n", r.Name, r.Current)
		}
	}
	fmt.Fprintf(&b, "Hosted: %d total, %d warfare\n", d.Stats.TotalHosted, d.Stats.WarfareHosted)

	switch {
	case d.AssessmentRequired && d.AssessmentPassed:
		b.WriteString("Assessment: passed\n")
	case d.AssessmentRequired:
		b.WriteString("Assessment: not passed yet\n")
	}

	if d.Ready {
		b.WriteString("All requirements met. Promotion ready!")
	}
	return strings.TrimRight(b.String(), "\n")
}
