package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"jobtrackr/matching-engine/internal/models"
)

type CandidateRepository interface {
	Create(candidate *models.Candidate) error
	FindByID(id uuid.UUID) (*models.Candidate, error)
	SaveResume(id uuid.UUID, resumeText string, profile models.CandidateProfile) error
	ListActiveWithResume() ([]models.Candidate, error)
}

type candidateRepository struct {
	db *gorm.DB
}

func NewCandidateRepository(db *gorm.DB) CandidateRepository {
	return &candidateRepository{db: db}
}

func (r *candidateRepository) Create(candidate *models.Candidate) error {
	if err := r.db.Create(candidate).Error; err != nil {
		return fmt.Errorf("failed to create candidate: %w", err)
	}
	return nil
}

func (r *candidateRepository) FindByID(id uuid.UUID) (*models.Candidate, error) {
	var candidate models.Candidate
	if err := r.db.Where("id = ?", id).First(&candidate).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find candidate: %w", err)
	}
	return &candidate, nil
}

// SaveResume stores the raw resume text and replaces the extracted profile
// wholesale. Previous profile contents are never merged.
func (r *candidateRepository) SaveResume(id uuid.UUID, resumeText string, profile models.CandidateProfile) error {
	now := time.Now()

	result := r.db.Model(&models.Candidate{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"resume_text": resumeText,
			"profile":     profile,
			"resume_at":   now,
			"updated_at":  now,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to save resume: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// ListActiveWithResume returns active candidates that have uploaded a resume.
// Callers still skip candidates whose extracted profile is empty.
func (r *candidateRepository) ListActiveWithResume() ([]models.Candidate, error) {
	var candidates []models.Candidate
	err := r.db.
		Where("is_active = ?", true).
		Where("resume_text <> ''").
		Find(&candidates).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}

	return candidates, nil
}
