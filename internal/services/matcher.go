package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"jobtrackr/matching-engine/internal/models"
	"jobtrackr/matching-engine/internal/repositories"
)

// MatchOrchestrator is the single public entry point of the engine: find and
// persist the matching jobs for one candidate.
type MatchOrchestrator interface {
	FindMatches(ctx context.Context, candidateID uuid.UUID, limit int) ([]ScoredJob, error)
}

type matchOrchestrator struct {
	candidateRepo repositories.CandidateRepository
	matchRepo     repositories.MatchRepository
	catalog       CatalogQuery
	scorer        ScoringEngine
	logger        *zap.Logger
}

func NewMatchOrchestrator(
	candidateRepo repositories.CandidateRepository,
	matchRepo repositories.MatchRepository,
	catalog CatalogQuery,
	scorer ScoringEngine,
	logger *zap.Logger,
) MatchOrchestrator {
	return &matchOrchestrator{
		candidateRepo: candidateRepo,
		matchRepo:     matchRepo,
		catalog:       catalog,
		scorer:        scorer,
		logger:        logger,
	}
}

// FindMatches implements MatchOrchestrator. The returned list is sorted by
// score descending, ties broken by most recent posting date, and truncated to
// limit. Match records are upserted for every surviving job as a side effect;
// individual upsert failures are logged and skipped since upserts are
// independent and idempotent.
func (o *matchOrchestrator) FindMatches(ctx context.Context, candidateID uuid.UUID, limit int) ([]ScoredJob, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", ErrInvalidInput)
	}

	candidate, err := o.candidateRepo.FindByID(candidateID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: candidate %s not found", ErrProfileMissing, candidateID)
		}
		return nil, fmt.Errorf("%w: resolve candidate: %w", ErrMatchingFailed, err)
	}

	if candidate.Profile.IsEmpty() {
		return nil, fmt.Errorf("%w: no resume extracted for candidate %s", ErrProfileMissing, candidateID)
	}

	jobs, err := o.catalog.Query(ctx, candidate.Profile, candidate.Preferences, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: catalog query: %w", ErrMatchingFailed, err)
	}

	scored, err := o.scorer.Score(ctx, jobs, candidate.Profile, candidate.Preferences)
	if err != nil {
		return nil, fmt.Errorf("%w: scoring: %w", ErrMatchingFailed, err)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Job.PostedDate.After(scored[j].Job.PostedDate)
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}

	now := time.Now()
	for _, match := range scored {
		rec := &models.MatchRecord{
			JobID:       match.Job.ID,
			CandidateID: candidateID,
			Score:       match.Score,
			Reason:      match.Reason,
			MatchedAt:   now,
		}
		if err := o.matchRepo.Upsert(rec); err != nil {
			o.logger.Warn("match record upsert failed",
				zap.String("candidate_id", candidateID.String()),
				zap.String("job_id", match.Job.ID.String()),
				zap.Error(err),
			)
		}
	}

	o.logger.Info("matching completed",
		zap.String("candidate_id", candidateID.String()),
		zap.Int("candidates_scored", len(jobs)),
		zap.Int("matches", len(scored)),
	)

	return scored, nil
}
