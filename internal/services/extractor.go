package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"jobtrackr/matching-engine/internal/models"
)

// extractionTemperature keeps run-to-run variance low without demanding exact
// reproducibility.
const extractionTemperature = 0.3

type ProfileExtractor interface {
	Extract(ctx context.Context, resumeText string) (models.CandidateProfile, error)
}

type profileExtractor struct {
	gemini        GeminiService
	promptBuilder *PromptBuilder
	logger        *zap.Logger
}

func NewProfileExtractor(gemini GeminiService, logger *zap.Logger) ProfileExtractor {
	return &profileExtractor{
		gemini:        gemini,
		promptBuilder: NewPromptBuilder(),
		logger:        logger,
	}
}

// extractedResume mirrors the JSON schema requested from the extraction service.
type extractedResume struct {
	Skills             []string `json:"skills"`
	Experience         string   `json:"experience"`
	Education          []string `json:"education"`
	Summary            string   `json:"summary"`
	JobTitles          []string `json:"jobTitles"`
	PreferredLocations []string `json:"preferredLocations"`
	ExperienceLevel    string   `json:"experienceLevel"`
}

// Extract implements ProfileExtractor. It performs exactly one external call;
// retry policy belongs to the caller.
func (e *profileExtractor) Extract(ctx context.Context, resumeText string) (models.CandidateProfile, error) {
	if strings.TrimSpace(resumeText) == "" {
		return models.CandidateProfile{}, fmt.Errorf("%w: resume text is empty", ErrInvalidInput)
	}

	prompt := e.promptBuilder.BuildResumeExtractionPrompt(resumeText)

	response, err := e.gemini.GenerateText(ctx, prompt, extractionTemperature)
	if err != nil {
		return models.CandidateProfile{}, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	var parsed extractedResume
	if err := json.Unmarshal([]byte(extractJSON(response)), &parsed); err != nil {
		e.logger.Warn("extraction service returned non-JSON response",
			zap.Int("response_length", len(response)),
			zap.Error(err),
		)
		return models.CandidateProfile{}, fmt.Errorf("%w: unparseable response: %v", ErrExtractionFailed, err)
	}

	profile := models.CandidateProfile{
		Skills:             parsed.Skills,
		JobTitles:          parsed.JobTitles,
		Education:          parsed.Education,
		Experience:         strings.TrimSpace(parsed.Experience),
		Summary:            strings.TrimSpace(parsed.Summary),
		ExperienceLevel:    models.ParseExperienceLevel(parsed.ExperienceLevel),
		PreferredLocations: parsed.PreferredLocations,
	}

	if profile.IsEmpty() {
		return models.CandidateProfile{}, fmt.Errorf("%w: response carried no profile fields", ErrExtractionFailed)
	}

	e.logger.Debug("resume extracted",
		zap.Int("skills", len(profile.Skills)),
		zap.Int("job_titles", len(profile.JobTitles)),
		zap.String("experience_level", string(profile.ExperienceLevel)),
	)

	return profile, nil
}

// extractJSON pulls a JSON object or array out of text that may be wrapped in
// markdown code fences or prose.
func extractJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	startObj := strings.Index(text, "{")
	startArr := strings.Index(text, "[")
	endObj := strings.LastIndex(text, "}")
	endArr := strings.LastIndex(text, "]")

	if startObj != -1 && endObj != -1 && endObj > startObj {
		return text[startObj : endObj+1]
	} else if startArr != -1 && endArr != -1 && endArr > startArr {
		return text[startArr : endArr+1]
	}

	return text
}
