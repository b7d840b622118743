package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"jobtrackr/matching-engine/internal/models"
)

type stubGemini struct {
	mu      sync.Mutex
	respond func(prompt string) (string, error)
	prompts []string
}

func (s *stubGemini) GenerateText(_ context.Context, prompt string, _ float32) (string, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()
	return s.respond(prompt)
}

func (s *stubGemini) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

func testProfile() models.CandidateProfile {
	return models.CandidateProfile{
		Skills:    []string{"React", "Node.js"},
		JobTitles: []string{"Full Stack Developer"},
	}
}

func makeJobs(n int) []models.JobPosting {
	jobs := make([]models.JobPosting, n)
	for i := range jobs {
		jobs[i] = models.JobPosting{
			Title:      fmt.Sprintf("Engineer %d", i),
			Company:    "Acme",
			URL:        fmt.Sprintf("https://jobs.example.com/%d", i),
			PostedDate: time.Now(),
		}
	}
	return jobs
}

func TestFallbackScoreIsPureAndBounded(t *testing.T) {
	job := models.JobPosting{
		Title:    "Senior Full Stack Developer",
		Location: "Berlin, Germany",
		Remote:   models.RemoteModeRemote,
		Skills:   []string{"React", "GraphQL", "Node.js", "TypeScript", "AWS", "Docker", "Kubernetes", "Go"},
	}
	profile := models.CandidateProfile{
		Skills:    []string{"React", "GraphQL", "Node.js", "TypeScript", "AWS", "Docker", "Kubernetes", "Go"},
		JobTitles: []string{"Full Stack Developer"},
	}
	prefs := models.Preferences{
		Locations:        []string{"Berlin"},
		RemotePreference: models.RemoteModeRemote,
	}

	first := FallbackScore(job, profile, prefs)
	second := FallbackScore(job, profile, prefs)

	if first != second {
		t.Fatalf("fallback score not deterministic: %d vs %d", first, second)
	}
	if first < 0 || first > 100 {
		t.Fatalf("score %d outside [0,100]", first)
	}
	// 50 base + 30 skill cap + 15 title + 10 location + 5 remote, clamped.
	if first != 100 {
		t.Fatalf("expected clamped score 100, got %d", first)
	}
}

func TestFallbackScoreSkillAndTitleScenario(t *testing.T) {
	job := models.JobPosting{
		Title:  "Senior Full Stack Developer",
		Skills: []string{"React", "GraphQL"},
	}
	profile := models.CandidateProfile{
		Skills:    []string{"React", "Node.js"},
		JobTitles: []string{"Full Stack Developer"},
	}

	score := FallbackScore(job, profile, models.Preferences{})

	// 50 base + 5 (one overlapping skill) + 15 (title containment).
	if score != 70 {
		t.Fatalf("expected 70, got %d", score)
	}
}

func TestFallbackScoreNoSignal(t *testing.T) {
	score := FallbackScore(models.JobPosting{Title: "Barista"}, models.CandidateProfile{}, models.Preferences{})
	if score != 50 {
		t.Fatalf("expected base score 50, got %d", score)
	}
}

func TestScorePartialBatchResponse(t *testing.T) {
	// Scoring service answers for 3 of the 5 jobs sent; the other 2 must get
	// fallback scores and the batch still yields 5 results.
	stub := &stubGemini{
		respond: func(string) (string, error) {
			return `{"scores":[
				{"jobIndex":0,"score":90,"reason":"strong match"},
				{"jobIndex":2,"score":75,"reason":"decent"},
				{"jobIndex":4,"score":60,"reason":"ok"}
			]}`, nil
		},
	}

	engine := NewScoringEngine(stub, time.Second, 2, zap.NewNop())
	scored, err := engine.Score(context.Background(), makeJobs(5), testProfile(), models.Preferences{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(scored) != 5 {
		t.Fatalf("expected 5 scored jobs, got %d", len(scored))
	}

	ai, fallback := 0, 0
	for _, s := range scored {
		switch s.Via {
		case ScoredByAI:
			ai++
			if s.Reason == "" {
				t.Fatalf("AI-scored job missing reason")
			}
		case ScoredByFallback:
			fallback++
		default:
			t.Fatalf("unexpected score source %q", s.Via)
		}
	}
	if ai != 3 || fallback != 2 {
		t.Fatalf("expected 3 AI / 2 fallback, got %d / %d", ai, fallback)
	}
}

func TestScoreBatchFailureIsIsolated(t *testing.T) {
	// 7 jobs -> two batches. The batch containing "Engineer 5" fails; its jobs
	// fall back while the first batch keeps its AI scores.
	stub := &stubGemini{
		respond: func(prompt string) (string, error) {
			if strings.Contains(prompt, "Engineer 5") {
				return "", errors.New("upstream timeout")
			}
			return `{"scores":[
				{"jobIndex":0,"score":80,"reason":"a"},
				{"jobIndex":1,"score":81,"reason":"b"},
				{"jobIndex":2,"score":82,"reason":"c"},
				{"jobIndex":3,"score":83,"reason":"d"},
				{"jobIndex":4,"score":84,"reason":"e"}
			]}`, nil
		},
	}

	engine := NewScoringEngine(stub, time.Second, 2, zap.NewNop())
	scored, err := engine.Score(context.Background(), makeJobs(7), testProfile(), models.Preferences{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(scored) != 7 {
		t.Fatalf("expected 7 scored jobs, got %d", len(scored))
	}
	if stub.callCount() != 2 {
		t.Fatalf("expected 2 batch calls, got %d", stub.callCount())
	}

	bySource := map[ScoreSource]int{}
	for _, s := range scored {
		bySource[s.Via]++
	}
	if bySource[ScoredByAI] != 5 || bySource[ScoredByFallback] != 2 {
		t.Fatalf("expected 5 AI / 2 fallback, got %v", bySource)
	}
}

func TestScoreMalformedResponseFallsBack(t *testing.T) {
	stub := &stubGemini{
		respond: func(string) (string, error) {
			return "I cannot score these jobs, sorry.", nil
		},
	}

	engine := NewScoringEngine(stub, time.Second, 2, zap.NewNop())
	scored, err := engine.Score(context.Background(), makeJobs(3), testProfile(), models.Preferences{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, s := range scored {
		if s.Via != ScoredByFallback {
			t.Fatalf("expected fallback scoring, got %q", s.Via)
		}
	}
}

func TestScoreIgnoresOutOfRangeIndices(t *testing.T) {
	stub := &stubGemini{
		respond: func(string) (string, error) {
			return `{"scores":[
				{"jobIndex":7,"score":99,"reason":"phantom"},
				{"jobIndex":-1,"score":99,"reason":"phantom"},
				{"jobIndex":1,"score":88,"reason":"real"}
			]}`, nil
		},
	}

	engine := NewScoringEngine(stub, time.Second, 2, zap.NewNop())
	scored, err := engine.Score(context.Background(), makeJobs(2), testProfile(), models.Preferences{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(scored) != 2 {
		t.Fatalf("expected 2 scored jobs, got %d", len(scored))
	}
	for _, s := range scored {
		if s.Score == 99 {
			t.Fatalf("phantom index leaked into results")
		}
	}
}

func TestScoreClampsAIScores(t *testing.T) {
	stub := &stubGemini{
		respond: func(string) (string, error) {
			return `{"scores":[{"jobIndex":0,"score":180,"reason":"overshoot"}]}`, nil
		},
	}

	engine := NewScoringEngine(stub, time.Second, 1, zap.NewNop())
	scored, err := engine.Score(context.Background(), makeJobs(1), testProfile(), models.Preferences{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if scored[0].Score != 100 {
		t.Fatalf("expected clamped 100, got %d", scored[0].Score)
	}
}

func TestScoreWithoutGeneratorUsesFallbackWholesale(t *testing.T) {
	engine := NewScoringEngine(nil, time.Second, 2, zap.NewNop())
	scored, err := engine.Score(context.Background(), makeJobs(6), testProfile(), models.Preferences{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(scored) != 6 {
		t.Fatalf("expected 6 scored jobs, got %d", len(scored))
	}
	for _, s := range scored {
		if s.Via != ScoredByFallback {
			t.Fatalf("expected fallback scoring, got %q", s.Via)
		}
	}
}

func TestScoreEmptyInput(t *testing.T) {
	engine := NewScoringEngine(nil, time.Second, 2, zap.NewNop())
	scored, err := engine.Score(context.Background(), nil, testProfile(), models.Preferences{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scored) != 0 {
		t.Fatalf("expected no results, got %d", len(scored))
	}
}
