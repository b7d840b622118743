package models

import (
	"time"

	"github.com/google/uuid"
)

type Candidate struct {
	ID          uuid.UUID        `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Email       string           `gorm:"uniqueIndex;not null" json:"email"`
	FirstName   string           `json:"first_name"`
	LastName    string           `json:"last_name"`
	ResumeText  string           `gorm:"type:text" json:"-"`
	Profile     CandidateProfile `gorm:"serializer:json;type:text" json:"profile"`
	Preferences Preferences      `gorm:"serializer:json;type:text" json:"preferences"`
	IsActive    bool             `gorm:"default:true" json:"is_active"`
	ResumeAt    *time.Time       `json:"resume_uploaded_at,omitempty"`
	CreatedAt   time.Time        `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time        `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Candidate) TableName() string {
	return "candidates"
}
