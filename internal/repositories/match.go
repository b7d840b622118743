package repositories

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"jobtrackr/matching-engine/internal/models"
)

type MatchRepository interface {
	Upsert(rec *models.MatchRecord) error
	FindByCandidate(candidateID uuid.UUID, limit int) ([]models.MatchRecord, error)
	MarkNotified(jobID, candidateID uuid.UUID) error
}

type matchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(db *gorm.DB) MatchRepository {
	return &matchRepository{db: db}
}

// Upsert inserts a match record or, when the (job, candidate) pair already
// exists, updates score, reason and matched_at in a single conditional
// statement. The notified column is deliberately absent from the update list
// so re-matching never resets notification state.
func (r *matchRepository) Upsert(rec *models.MatchRecord) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "job_id"}, {Name: "candidate_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"score", "reason", "matched_at", "updated_at"}),
	}).Create(rec).Error

	if err != nil {
		return fmt.Errorf("failed to upsert match record: %w", err)
	}
	return nil
}

func (r *matchRepository) FindByCandidate(candidateID uuid.UUID, limit int) ([]models.MatchRecord, error) {
	var records []models.MatchRecord
	err := r.db.
		Preload("Job").
		Where("candidate_id = ?", candidateID).
		Order("matched_at DESC, score DESC").
		Limit(limit).
		Find(&records).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list match records: %w", err)
	}

	return records, nil
}

// MarkNotified is used by the notification collaborator, never by the engine.
func (r *matchRepository) MarkNotified(jobID, candidateID uuid.UUID) error {
	result := r.db.Model(&models.MatchRecord{}).
		Where("job_id = ? AND candidate_id = ?", jobID, candidateID).
		Updates(map[string]interface{}{
			"notified":   true,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to mark match notified: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
