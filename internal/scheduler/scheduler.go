// Package scheduler wires up the cron jobs that keep recommendations fresh
// and the catalog's active flags honest.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"jobtrackr/matching-engine/internal/repositories"
	"jobtrackr/matching-engine/internal/services"
)

// Scheduler wraps robfig/cron around the periodic matching work: a
// recommendation refresh for every active candidate with a resume, and a
// daily deactivation of expired postings.
type Scheduler struct {
	cron          *cron.Cron
	candidateRepo repositories.CandidateRepository
	jobRepo       repositories.JobRepository
	orchestrator  services.MatchOrchestrator
	logger        *zap.Logger

	refreshSpec  string
	cleanupSpec  string
	refreshLimit int
}

func New(
	candidateRepo repositories.CandidateRepository,
	jobRepo repositories.JobRepository,
	orchestrator services.MatchOrchestrator,
	refreshSpec, cleanupSpec string,
	refreshLimit int,
	logger *zap.Logger,
) *Scheduler {
	return &Scheduler{
		cron:          cron.New(),
		candidateRepo: candidateRepo,
		jobRepo:       jobRepo,
		orchestrator:  orchestrator,
		logger:        logger,
		refreshSpec:   refreshSpec,
		cleanupSpec:   cleanupSpec,
		refreshLimit:  refreshLimit,
	}
}

// Start registers both jobs and starts the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.refreshSpec, func() {
		s.RefreshRecommendations(ctx)
	}); err != nil {
		return fmt.Errorf("cron.AddFunc refresh: %w", err)
	}

	if _, err := s.cron.AddFunc(s.cleanupSpec, func() {
		s.CleanupExpiredPostings()
	}); err != nil {
		return fmt.Errorf("cron.AddFunc cleanup: %w", err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started",
		zap.String("refresh_spec", s.refreshSpec),
		zap.String("cleanup_spec", s.cleanupSpec),
	)

	return nil
}

// Stop gracefully shuts down the scheduler, letting a running job finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// RefreshRecommendations re-runs matching for every active candidate with a
// resume. Per-candidate failures are logged and skipped so one bad profile
// cannot stall the whole cycle.
func (s *Scheduler) RefreshRecommendations(ctx context.Context) {
	candidates, err := s.candidateRepo.ListActiveWithResume()
	if err != nil {
		s.logger.Error("recommendation refresh: listing candidates failed", zap.Error(err))
		return
	}

	s.logger.Info("recommendation refresh started", zap.Int("candidates", len(candidates)))

	refreshed := 0
	for _, candidate := range candidates {
		if candidate.Profile.IsEmpty() {
			continue
		}

		if _, err := s.orchestrator.FindMatches(ctx, candidate.ID, s.refreshLimit); err != nil {
			s.logger.Warn("recommendation refresh failed for candidate",
				zap.String("candidate_id", candidate.ID.String()),
				zap.Error(err),
			)
			continue
		}
		refreshed++
	}

	s.logger.Info("recommendation refresh completed", zap.Int("refreshed", refreshed))
}

// CleanupExpiredPostings deactivates postings past their expiry date.
func (s *Scheduler) CleanupExpiredPostings() {
	count, err := s.jobRepo.DeactivateExpired(time.Now())
	if err != nil {
		s.logger.Error("expired posting cleanup failed", zap.Error(err))
		return
	}

	s.logger.Info("expired posting cleanup completed", zap.Int64("deactivated", count))
}
