package repositories

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"jobtrackr/matching-engine/internal/models"
)

// ErrNotFound is returned by lookups when no matching row exists.
var ErrNotFound = errors.New("record not found")

// JobSearchFilter describes one catalog query. Skills and Titles form a
// recall-maximizing OR group; Locations and Remote are hard constraints.
type JobSearchFilter struct {
	Skills    []string
	Titles    []string
	Locations []string
	Remote    models.RemoteMode
	Limit     int
}

type JobRepository interface {
	Search(filter JobSearchFilter) ([]models.JobPosting, error)
	FindByURL(url string) (*models.JobPosting, error)
	Create(job *models.JobPosting) error
	DeactivateExpired(now time.Time) (int64, error)
}

type jobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) JobRepository {
	return &jobRepository{db: db}
}

func (r *jobRepository) Search(filter JobSearchFilter) ([]models.JobPosting, error) {
	now := time.Now()

	tx := r.db.Model(&models.JobPosting{}).
		Where("is_active = ?", true).
		Where("expires_at IS NULL OR expires_at > ?", now)

	// OR across skill and title containment. When profile and preferences
	// carry no signal at all, the group is omitted and location/remote alone
	// select the subset.
	var recall *gorm.DB
	for _, skill := range filter.Skills {
		cond := r.db.Where("LOWER(skills) LIKE ?", containsPattern(skill))
		recall = orCond(recall, cond)
	}
	for _, title := range filter.Titles {
		cond := r.db.Where("LOWER(title) LIKE ?", containsPattern(title))
		recall = orCond(recall, cond)
	}
	if recall != nil {
		tx = tx.Where(recall)
	}

	if len(filter.Locations) > 0 {
		var loc *gorm.DB
		for _, l := range filter.Locations {
			loc = orCond(loc, r.db.Where("LOWER(location) LIKE ?", containsPattern(l)))
		}
		tx = tx.Where(loc)
	}

	if filter.Remote != "" && filter.Remote != models.RemoteModeAny {
		tx = tx.Where("remote = ?", filter.Remote)
	}

	var jobs []models.JobPosting
	err := tx.Order("posted_date DESC").Limit(filter.Limit).Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search job postings: %w", err)
	}

	return jobs, nil
}

func (r *jobRepository) FindByURL(url string) (*models.JobPosting, error) {
	var job models.JobPosting
	if err := r.db.Where("url = ?", url).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find job posting by url: %w", err)
	}
	return &job, nil
}

func (r *jobRepository) Create(job *models.JobPosting) error {
	if err := r.db.Create(job).Error; err != nil {
		return fmt.Errorf("failed to create job posting: %w", err)
	}
	return nil
}

// DeactivateExpired flips the stored flag on postings whose expiry date has
// passed. Read paths already exclude them; this keeps the column honest.
func (r *jobRepository) DeactivateExpired(now time.Time) (int64, error) {
	result := r.db.Model(&models.JobPosting{}).
		Where("is_active = ?", true).
		Where("expires_at IS NOT NULL AND expires_at < ?", now).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": now,
		})

	if result.Error != nil {
		return 0, fmt.Errorf("failed to deactivate expired postings: %w", result.Error)
	}

	return result.RowsAffected, nil
}

func containsPattern(term string) string {
	return "%" + strings.ToLower(strings.TrimSpace(term)) + "%"
}

func orCond(group, cond *gorm.DB) *gorm.DB {
	if group == nil {
		return cond
	}
	return group.Or(cond)
}
