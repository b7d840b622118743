package models

import (
	"time"

	"github.com/google/uuid"
)

// MatchRecord links one job posting to one candidate with a score. The
// (job_id, candidate_id) pair is unique: re-matching updates score and
// timestamp in place. The notified flag is flipped by the notification
// collaborator, never by the matching engine.
type MatchRecord struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	JobID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_match_job_candidate" json:"job_id"`
	CandidateID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_match_job_candidate" json:"candidate_id"`
	Score       int       `gorm:"not null" json:"score"`
	Reason      string    `gorm:"type:text" json:"reason,omitempty"`
	MatchedAt   time.Time `gorm:"not null" json:"matched_at"`
	Notified    bool      `gorm:"default:false" json:"notified"`
	CreatedAt   time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`

	Job JobPosting `gorm:"foreignKey:JobID" json:"-"`
}

func (MatchRecord) TableName() string {
	return "match_records"
}
