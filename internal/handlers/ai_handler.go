package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"jobtrackr/matching-engine/internal/repositories"
	"jobtrackr/matching-engine/internal/services"
)

const defaultMatchLimit = 20

type AIHandler struct {
	candidateRepo repositories.CandidateRepository
	matchRepo     repositories.MatchRepository
	extractor     services.ProfileExtractor
	orchestrator  services.MatchOrchestrator
	logger        *zap.Logger
}

func NewAIHandler(
	candidateRepo repositories.CandidateRepository,
	matchRepo repositories.MatchRepository,
	extractor services.ProfileExtractor,
	orchestrator services.MatchOrchestrator,
	logger *zap.Logger,
) *AIHandler {
	return &AIHandler{
		candidateRepo: candidateRepo,
		matchRepo:     matchRepo,
		extractor:     extractor,
		orchestrator:  orchestrator,
		logger:        logger,
	}
}

type analyzeResumeRequest struct {
	CandidateID string `json:"candidate_id"`
	ResumeText  string `json:"resume_text"`
}

// HandleAnalyzeResume handles POST /ai/analyze-resume. The extracted profile
// replaces any previous one wholesale.
func (h *AIHandler) HandleAnalyzeResume(c *fiber.Ctx) error {
	var req analyzeResumeRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}

	if req.ResumeText == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "resume_text is required",
		})
	}

	candidateID, err := uuid.Parse(req.CandidateID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid candidate_id format",
		})
	}

	if _, err := h.candidateRepo.FindByID(candidateID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Candidate not found",
			})
		}
		return fiber.ErrInternalServerError
	}

	profile, err := h.extractor.Extract(c.Context(), req.ResumeText)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidInput):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Resume text must not be empty",
			})
		case errors.Is(err, services.ErrExtractionFailed):
			h.logger.Warn("resume extraction failed",
				zap.String("candidate_id", candidateID.String()),
				zap.Error(err),
			)
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": "Could not analyze resume. Please try again later.",
			})
		default:
			return fiber.ErrInternalServerError
		}
	}

	if err := h.candidateRepo.SaveResume(candidateID, req.ResumeText, profile); err != nil {
		h.logger.Error("failed to save extracted profile",
			zap.String("candidate_id", candidateID.String()),
			zap.Error(err),
		)
		return fiber.ErrInternalServerError
	}

	return c.JSON(fiber.Map{
		"candidate_id": candidateID,
		"profile":      profile,
	})
}

// HandleJobMatches handles GET /ai/job-matches?candidate_id=&limit=.
func (h *AIHandler) HandleJobMatches(c *fiber.Ctx) error {
	candidateID, err := uuid.Parse(c.Query("candidate_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid candidate_id format",
		})
	}

	limit := c.QueryInt("limit", defaultMatchLimit)
	if limit <= 0 {
		limit = defaultMatchLimit
	}

	matches, err := h.orchestrator.FindMatches(c.Context(), candidateID, limit)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrProfileMissing):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Please upload your resume first",
			})
		case errors.Is(err, services.ErrInvalidInput):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		default:
			h.logger.Error("matching run failed",
				zap.String("candidate_id", candidateID.String()),
				zap.Error(err),
			)
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": "Could not compute matches, try again later",
			})
		}
	}

	jobs := make([]fiber.Map, 0, len(matches))
	for _, m := range matches {
		jobs = append(jobs, fiber.Map{
			"job":          m.Job,
			"match_score":  m.Score,
			"match_reason": m.Reason,
			"scored_via":   m.Via,
		})
	}

	return c.JSON(fiber.Map{
		"jobs":  jobs,
		"total": len(jobs),
	})
}

// HandleRecommendations handles GET /ai/recommendations?candidate_id=. It
// reads persisted match records for downstream consumers such as the email
// sender.
func (h *AIHandler) HandleRecommendations(c *fiber.Ctx) error {
	candidateID, err := uuid.Parse(c.Query("candidate_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid candidate_id format",
		})
	}

	limit := c.QueryInt("limit", defaultMatchLimit)

	records, err := h.matchRepo.FindByCandidate(candidateID, limit)
	if err != nil {
		h.logger.Error("failed to list recommendations",
			zap.String("candidate_id", candidateID.String()),
			zap.Error(err),
		)
		return fiber.ErrInternalServerError
	}

	return c.JSON(fiber.Map{
		"recommendations": records,
		"total":           len(records),
	})
}

type markNotifiedRequest struct {
	CandidateID string `json:"candidate_id"`
	JobID       string `json:"job_id"`
}

// HandleMarkNotified handles POST /ai/recommendations/notified, used by the
// notification collaborator after it sends a recommendation. The flag flips
// to true exactly once and is never reset by re-matching.
func (h *AIHandler) HandleMarkNotified(c *fiber.Ctx) error {
	var req markNotifiedRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}

	candidateID, err := uuid.Parse(req.CandidateID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid candidate_id format",
		})
	}

	jobID, err := uuid.Parse(req.JobID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid job_id format",
		})
	}

	if err := h.matchRepo.MarkNotified(jobID, candidateID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Match record not found",
			})
		}
		return fiber.ErrInternalServerError
	}

	return c.JSON(fiber.Map{"notified": true})
}
