package models

import (
	"time"

	"github.com/google/uuid"
)

type JobSource string

const (
	SourceManual   JobSource = "manual"
	SourceIngested JobSource = "ingested"
	SourceAPI      JobSource = "api"
)

// JobPosting is a catalog entry. Postings are deactivated by expiry or by an
// admin, never hard-deleted by the engine.
type JobPosting struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Title           string          `gorm:"not null;index" json:"title"`
	Company         string          `gorm:"not null" json:"company"`
	Description     string          `gorm:"type:text" json:"description"`
	Location        string          `json:"location"`
	Remote          RemoteMode      `gorm:"default:'onsite'" json:"remote"`
	SalaryMin       *int            `json:"salary_min,omitempty"`
	SalaryMax       *int            `json:"salary_max,omitempty"`
	JobType         string          `gorm:"default:'full-time'" json:"job_type"`
	URL             string          `gorm:"uniqueIndex;not null" json:"url"`
	Source          JobSource       `gorm:"default:'manual'" json:"source"`
	SourcePlatform  string          `json:"source_platform,omitempty"`
	Skills          []string        `gorm:"serializer:json;type:text" json:"skills"`
	ExperienceLevel ExperienceLevel `json:"experience_level,omitempty"`
	PostedDate      time.Time       `gorm:"index" json:"posted_date"`
	ExpiresAt       *time.Time      `json:"expires_at,omitempty"`
	IsActive        bool            `gorm:"default:true;index" json:"is_active"`
	CreatedAt       time.Time       `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (JobPosting) TableName() string {
	return "job_postings"
}

// ActiveAt derives the effective active state: a posting past its expiry date
// is inactive no matter what the stored flag says.
func (j JobPosting) ActiveAt(now time.Time) bool {
	if !j.IsActive {
		return false
	}
	if j.ExpiresAt != nil && j.ExpiresAt.Before(now) {
		return false
	}
	return true
}
