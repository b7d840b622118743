package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"jobtrackr/matching-engine/internal/models"
)

const (
	// scoringBatchSize keeps each scoring request within a practical prompt
	// budget.
	scoringBatchSize = 5

	// maxDescriptionChars bounds the payload contributed by each posting.
	maxDescriptionChars = 300

	// scoringTemperature mirrors the low-variance setting of the scoring call.
	scoringTemperature = 0.2

	fallbackBaseScore      = 50
	fallbackSkillPoints    = 5
	fallbackSkillCap       = 30
	fallbackTitlePoints    = 15
	fallbackLocationPoints = 10
	fallbackRemotePoints   = 5
)

// ScoreSource tags which pathway produced a score.
type ScoreSource string

const (
	ScoredByAI       ScoreSource = "ai"
	ScoredByFallback ScoreSource = "fallback"
)

// ScoredJob is the engine-internal scoring result. It is folded into a
// MatchRecord by the orchestrator and never persisted directly.
type ScoredJob struct {
	Job    models.JobPosting
	Score  int
	Reason string
	Via    ScoreSource
}

type ScoringEngine interface {
	Score(ctx context.Context, jobs []models.JobPosting, profile models.CandidateProfile, prefs models.Preferences) ([]ScoredJob, error)
}

type scoringEngine struct {
	gemini         GeminiService
	promptBuilder  *PromptBuilder
	logger         *zap.Logger
	requestTimeout time.Duration
	maxConcurrency int
}

func NewScoringEngine(gemini GeminiService, requestTimeout time.Duration, maxConcurrency int, logger *zap.Logger) ScoringEngine {
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}
	return &scoringEngine{
		gemini:         gemini,
		promptBuilder:  NewPromptBuilder(),
		logger:         logger,
		requestTimeout: requestTimeout,
		maxConcurrency: maxConcurrency,
	}
}

// batchScoreResponse mirrors the JSON schema requested from the scoring service.
type batchScoreResponse struct {
	Scores []struct {
		JobIndex int    `json:"jobIndex"`
		Score    int    `json:"score"`
		Reason   string `json:"reason"`
	} `json:"scores"`
}

// Score implements ScoringEngine. Every input job gets exactly one ScoredJob.
// Batches run concurrently and independently; a failing batch degrades to the
// deterministic fallback instead of failing the run. With no scoring service
// configured the whole set is scored by the fallback.
func (s *scoringEngine) Score(ctx context.Context, jobs []models.JobPosting, profile models.CandidateProfile, prefs models.Preferences) ([]ScoredJob, error) {
	if len(jobs) == 0 {
		return nil, nil
	}

	if s.gemini == nil {
		scored := make([]ScoredJob, 0, len(jobs))
		for _, job := range jobs {
			scored = append(scored, fallbackScored(job, profile, prefs))
		}
		return scored, nil
	}

	results := make([][]ScoredJob, (len(jobs)+scoringBatchSize-1)/scoringBatchSize)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrency)

	for i := 0; i < len(jobs); i += scoringBatchSize {
		batchIdx := i / scoringBatchSize
		batch := jobs[i:min(i+scoringBatchSize, len(jobs))]

		g.Go(func() error {
			results[batchIdx] = s.scoreBatch(gctx, batchIdx, batch, profile, prefs)
			return nil
		})
	}

	// Goroutines never return errors; Wait surfaces only context cancellation
	// via gctx inside scoreBatch, which already falls back per batch.
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scored := make([]ScoredJob, 0, len(jobs))
	for _, batch := range results {
		scored = append(scored, batch...)
	}
	return scored, nil
}

// scoreBatch issues one external scoring call for the batch and merges the
// response. Any failure, and any job the response skips, lands on the
// deterministic fallback.
func (s *scoringEngine) scoreBatch(ctx context.Context, batchIdx int, batch []models.JobPosting, profile models.CandidateProfile, prefs models.Preferences) []ScoredJob {
	prompt := s.promptBuilder.BuildBatchScoringPrompt(batch, profile, prefs)

	callCtx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	response, err := s.gemini.GenerateText(callCtx, prompt, scoringTemperature)
	if err != nil {
		s.logger.Warn("batch scoring call failed, using fallback",
			zap.Int("batch", batchIdx),
			zap.Int("jobs", len(batch)),
			zap.Error(err),
		)
		return s.fallbackBatch(batch, profile, prefs)
	}

	var parsed batchScoreResponse
	if err := json.Unmarshal([]byte(extractJSON(response)), &parsed); err != nil {
		s.logger.Warn("batch scoring response unparseable, using fallback",
			zap.Int("batch", batchIdx),
			zap.Error(err),
		)
		return s.fallbackBatch(batch, profile, prefs)
	}

	// Batch-local index -> (score, reason). A response with fewer entries
	// than jobs sent is fine; the unscored jobs fall back below.
	// Out-of-range indices are ignored.
	type aiScore struct {
		score  int
		reason string
	}
	byIndex := make(map[int]aiScore, len(parsed.Scores))
	for _, sc := range parsed.Scores {
		if sc.JobIndex < 0 || sc.JobIndex >= len(batch) {
			continue
		}
		byIndex[sc.JobIndex] = aiScore{score: clampScore(sc.Score), reason: strings.TrimSpace(sc.Reason)}
	}

	scored := make([]ScoredJob, 0, len(batch))
	for i, job := range batch {
		if ai, ok := byIndex[i]; ok {
			scored = append(scored, ScoredJob{
				Job:    job,
				Score:  ai.score,
				Reason: ai.reason,
				Via:    ScoredByAI,
			})
			continue
		}
		scored = append(scored, fallbackScored(job, profile, prefs))
	}

	return scored
}

func (s *scoringEngine) fallbackBatch(batch []models.JobPosting, profile models.CandidateProfile, prefs models.Preferences) []ScoredJob {
	scored := make([]ScoredJob, 0, len(batch))
	for _, job := range batch {
		scored = append(scored, fallbackScored(job, profile, prefs))
	}
	return scored
}

func fallbackScored(job models.JobPosting, profile models.CandidateProfile, prefs models.Preferences) ScoredJob {
	return ScoredJob{
		Job:   job,
		Score: FallbackScore(job, profile, prefs),
		Via:   ScoredByFallback,
	}
}

// FallbackScore is the deterministic scoring algorithm: same inputs always
// produce the same score, and the result lies in [0,100].
func FallbackScore(job models.JobPosting, profile models.CandidateProfile, prefs models.Preferences) int {
	score := fallbackBaseScore

	// Overlapping skills: case-insensitive substring match in either
	// direction, capped.
	skillPoints := 0
	for _, jobSkill := range job.Skills {
		js := strings.ToLower(jobSkill)
		for _, candSkill := range profile.Skills {
			cs := strings.ToLower(candSkill)
			if strings.Contains(js, cs) || strings.Contains(cs, js) {
				skillPoints += fallbackSkillPoints
				break
			}
		}
	}
	if skillPoints > fallbackSkillCap {
		skillPoints = fallbackSkillCap
	}
	score += skillPoints

	title := strings.ToLower(job.Title)
	for _, candTitle := range append(append([]string{}, profile.JobTitles...), prefs.JobTitles...) {
		if candTitle != "" && strings.Contains(title, strings.ToLower(candTitle)) {
			score += fallbackTitlePoints
			break
		}
	}

	location := strings.ToLower(job.Location)
	for _, loc := range prefs.Locations {
		if loc != "" && strings.Contains(location, strings.ToLower(loc)) {
			score += fallbackLocationPoints
			break
		}
	}

	if prefs.RemotePreference != "" && prefs.RemotePreference == job.Remote {
		score += fallbackRemotePoints
	}

	return clampScore(score)
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
