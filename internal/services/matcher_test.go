package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"jobtrackr/matching-engine/internal/models"
	"jobtrackr/matching-engine/internal/repositories"
)

type fakeCandidateRepo struct {
	candidate *models.Candidate
	err       error
}

func (f *fakeCandidateRepo) Create(*models.Candidate) error { return nil }

func (f *fakeCandidateRepo) FindByID(uuid.UUID) (*models.Candidate, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.candidate, nil
}

func (f *fakeCandidateRepo) SaveResume(uuid.UUID, string, models.CandidateProfile) error {
	return nil
}

func (f *fakeCandidateRepo) ListActiveWithResume() ([]models.Candidate, error) {
	if f.candidate == nil {
		return nil, nil
	}
	return []models.Candidate{*f.candidate}, nil
}

type fakeMatchRepo struct {
	upserts   []models.MatchRecord
	upsertErr map[uuid.UUID]error
}

func (f *fakeMatchRepo) Upsert(rec *models.MatchRecord) error {
	if err, ok := f.upsertErr[rec.JobID]; ok {
		return err
	}
	f.upserts = append(f.upserts, *rec)
	return nil
}

func (f *fakeMatchRepo) FindByCandidate(uuid.UUID, int) ([]models.MatchRecord, error) {
	return nil, nil
}

func (f *fakeMatchRepo) MarkNotified(uuid.UUID, uuid.UUID) error { return nil }

type fakeCatalog struct {
	jobs []models.JobPosting
	err  error
}

func (f *fakeCatalog) Query(context.Context, models.CandidateProfile, models.Preferences, int) ([]models.JobPosting, error) {
	return f.jobs, f.err
}

type fixedScorer struct {
	scores map[string]int
	err    error
}

func (f *fixedScorer) Score(_ context.Context, jobs []models.JobPosting, _ models.CandidateProfile, _ models.Preferences) ([]ScoredJob, error) {
	if f.err != nil {
		return nil, f.err
	}
	scored := make([]ScoredJob, 0, len(jobs))
	for _, job := range jobs {
		scored = append(scored, ScoredJob{Job: job, Score: f.scores[job.URL], Via: ScoredByFallback})
	}
	return scored, nil
}

func candidateWithProfile() *models.Candidate {
	return &models.Candidate{
		ID: uuid.New(),
		Profile: models.CandidateProfile{
			Skills: []string{"Go"},
		},
	}
}

func postingAt(url string, posted time.Time) models.JobPosting {
	job := posting(url)
	job.PostedDate = posted
	return job
}

func TestFindMatchesSortsTruncatesAndPersists(t *testing.T) {
	now := time.Now()
	jobs := []models.JobPosting{
		postingAt("low", now),
		postingAt("high", now),
		postingAt("tie-old", now.Add(-48*time.Hour)),
		postingAt("tie-new", now.Add(-time.Hour)),
	}

	candRepo := &fakeCandidateRepo{candidate: candidateWithProfile()}
	matchRepo := &fakeMatchRepo{}
	scorer := &fixedScorer{scores: map[string]int{
		"low": 40, "high": 90, "tie-old": 70, "tie-new": 70,
	}}

	orch := NewMatchOrchestrator(candRepo, matchRepo, &fakeCatalog{jobs: jobs}, scorer, zap.NewNop())

	matches, err := orch.FindMatches(context.Background(), candRepo.candidate.ID, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(matches) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(matches))
	}
	if matches[0].Job.URL != "high" {
		t.Fatalf("expected highest score first, got %q", matches[0].Job.URL)
	}
	// Tie on 70: the more recently posted job wins.
	if matches[1].Job.URL != "tie-new" || matches[2].Job.URL != "tie-old" {
		t.Fatalf("tie-break by posting date failed: %q, %q", matches[1].Job.URL, matches[2].Job.URL)
	}

	if len(matchRepo.upserts) != 3 {
		t.Fatalf("expected 3 upserts, got %d", len(matchRepo.upserts))
	}
	for _, rec := range matchRepo.upserts {
		if rec.CandidateID != candRepo.candidate.ID {
			t.Fatalf("upsert for wrong candidate: %s", rec.CandidateID)
		}
		if rec.Notified {
			t.Fatal("engine must never set notified")
		}
		if rec.MatchedAt.IsZero() {
			t.Fatal("matched_at must be set")
		}
	}
}

func TestFindMatchesInvalidLimit(t *testing.T) {
	orch := NewMatchOrchestrator(&fakeCandidateRepo{}, &fakeMatchRepo{}, &fakeCatalog{}, &fixedScorer{}, zap.NewNop())

	_, err := orch.FindMatches(context.Background(), uuid.New(), 0)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestFindMatchesUnknownCandidate(t *testing.T) {
	candRepo := &fakeCandidateRepo{err: repositories.ErrNotFound}
	orch := NewMatchOrchestrator(candRepo, &fakeMatchRepo{}, &fakeCatalog{}, &fixedScorer{}, zap.NewNop())

	_, err := orch.FindMatches(context.Background(), uuid.New(), 5)
	if !errors.Is(err, ErrProfileMissing) {
		t.Fatalf("expected ErrProfileMissing, got %v", err)
	}
}

func TestFindMatchesEmptyProfile(t *testing.T) {
	candRepo := &fakeCandidateRepo{candidate: &models.Candidate{ID: uuid.New()}}
	orch := NewMatchOrchestrator(candRepo, &fakeMatchRepo{}, &fakeCatalog{}, &fixedScorer{}, zap.NewNop())

	_, err := orch.FindMatches(context.Background(), candRepo.candidate.ID, 5)
	if !errors.Is(err, ErrProfileMissing) {
		t.Fatalf("expected ErrProfileMissing, got %v", err)
	}
}

func TestFindMatchesCatalogFailureAggregates(t *testing.T) {
	cause := errors.New("db down")
	candRepo := &fakeCandidateRepo{candidate: candidateWithProfile()}
	matchRepo := &fakeMatchRepo{}
	orch := NewMatchOrchestrator(candRepo, matchRepo, &fakeCatalog{err: cause}, &fixedScorer{}, zap.NewNop())

	_, err := orch.FindMatches(context.Background(), candRepo.candidate.ID, 5)
	if !errors.Is(err, ErrMatchingFailed) {
		t.Fatalf("expected ErrMatchingFailed, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected the catalog cause to stay unwrappable, got %v", err)
	}
	if len(matchRepo.upserts) != 0 {
		t.Fatal("no records may be persisted on aggregate failure")
	}
}

func TestFindMatchesScoringFailureAggregates(t *testing.T) {
	candRepo := &fakeCandidateRepo{candidate: candidateWithProfile()}
	orch := NewMatchOrchestrator(
		candRepo,
		&fakeMatchRepo{},
		&fakeCatalog{jobs: []models.JobPosting{posting("u1")}},
		&fixedScorer{err: context.Canceled},
		zap.NewNop(),
	)

	_, err := orch.FindMatches(context.Background(), candRepo.candidate.ID, 5)
	if !errors.Is(err, ErrMatchingFailed) {
		t.Fatalf("expected ErrMatchingFailed, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected the scoring cause to stay unwrappable, got %v", err)
	}
}

func TestFindMatchesUpsertFailureIsBestEffort(t *testing.T) {
	now := time.Now()
	jobs := []models.JobPosting{
		postingAt("a", now),
		postingAt("b", now),
	}

	candRepo := &fakeCandidateRepo{candidate: candidateWithProfile()}
	matchRepo := &fakeMatchRepo{upsertErr: map[uuid.UUID]error{
		jobs[0].ID: errors.New("constraint violation"),
	}}
	scorer := &fixedScorer{scores: map[string]int{"a": 80, "b": 60}}

	orch := NewMatchOrchestrator(candRepo, matchRepo, &fakeCatalog{jobs: jobs}, scorer, zap.NewNop())

	matches, err := orch.FindMatches(context.Background(), candRepo.candidate.ID, 5)
	if err != nil {
		t.Fatalf("individual upsert failure must not fail the run: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected both matches returned, got %d", len(matches))
	}
	if len(matchRepo.upserts) != 1 {
		t.Fatalf("expected the surviving upsert to land, got %d", len(matchRepo.upserts))
	}
}

func TestFindMatchesEmptyCatalog(t *testing.T) {
	candRepo := &fakeCandidateRepo{candidate: candidateWithProfile()}
	orch := NewMatchOrchestrator(candRepo, &fakeMatchRepo{}, &fakeCatalog{}, &fixedScorer{}, zap.NewNop())

	matches, err := orch.FindMatches(context.Background(), candRepo.candidate.ID, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("expected no matches, got %d", len(matches))
	}
}
