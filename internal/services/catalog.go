package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"jobtrackr/matching-engine/internal/models"
	"jobtrackr/matching-engine/internal/repositories"
)

const (
	// minLocalResults is the degenerate-catalog threshold: below it the
	// external ingestion fallback kicks in.
	minLocalResults = 5

	// ingestFetchLimit caps how many postings one fallback fetch may add.
	ingestFetchLimit = 20

	// overFetchFactor widens the candidate pool handed to the scorer so the
	// best matches are unlikely to fall outside the scored set.
	overFetchFactor = 2
)

type CatalogQuery interface {
	Query(ctx context.Context, profile models.CandidateProfile, prefs models.Preferences, want int) ([]models.JobPosting, error)
}

type catalogQuery struct {
	jobRepo repositories.JobRepository
	fetcher JobFetcher
	logger  *zap.Logger
}

func NewCatalogQuery(jobRepo repositories.JobRepository, fetcher JobFetcher, logger *zap.Logger) CatalogQuery {
	return &catalogQuery{
		jobRepo: jobRepo,
		fetcher: fetcher,
		logger:  logger,
	}
}

// Query implements CatalogQuery. It builds a recall-oriented candidate pool:
// skills and titles from the profile and preferences OR together, locations
// and remote preference constrain, and only active non-expired postings are
// eligible. The result may exceed want; the scorer ranks and the orchestrator
// truncates.
func (c *catalogQuery) Query(ctx context.Context, profile models.CandidateProfile, prefs models.Preferences, want int) ([]models.JobPosting, error) {
	if want <= 0 {
		return nil, fmt.Errorf("%w: want must be positive", ErrInvalidInput)
	}

	filter := repositories.JobSearchFilter{
		Skills:    profile.Skills,
		Titles:    append(append([]string{}, profile.JobTitles...), prefs.JobTitles...),
		Locations: prefs.Locations,
		Remote:    prefs.RemotePreference,
		Limit:     want * overFetchFactor,
	}

	now := time.Now()

	jobs, err := c.jobRepo.Search(filter)
	if err != nil {
		return nil, fmt.Errorf("catalog search: %w", err)
	}

	// The repository already excludes expired postings; re-assert the derived
	// invariant here so a stale stored flag can never leak a dead posting into
	// the scored set.
	jobs = activeOnly(jobs, now)

	if len(jobs) < minLocalResults {
		c.logger.Info("local catalog too small, invoking ingestion fallback",
			zap.Int("local_results", len(jobs)),
		)
		jobs = append(jobs, activeOnly(c.ingest(ctx, profile, prefs, jobs), now)...)
	}

	return jobs, nil
}

func activeOnly(jobs []models.JobPosting, now time.Time) []models.JobPosting {
	active := jobs[:0]
	for _, job := range jobs {
		if job.ActiveAt(now) {
			active = append(active, job)
		}
	}
	return active
}

// ingest fetches external postings for the same keyword/location terms,
// deduplicates by URL against the catalog and the current result set, and
// persists the new ones. Failures are absorbed: ingestion never sinks the
// overall query.
func (c *catalogQuery) ingest(ctx context.Context, profile models.CandidateProfile, prefs models.Preferences, existing []models.JobPosting) []models.JobPosting {
	keywords := buildKeywords(profile, prefs)
	location := "Remote"
	if len(prefs.Locations) > 0 {
		location = prefs.Locations[0]
	} else if len(profile.PreferredLocations) > 0 {
		location = profile.PreferredLocations[0]
	}

	fetched, err := c.fetcher.Fetch(ctx, keywords, location, ingestFetchLimit)
	if err != nil {
		c.logger.Warn("ingestion fallback failed", zap.Error(err))
		return nil
	}

	seen := make(map[string]bool, len(existing))
	for _, job := range existing {
		seen[job.URL] = true
	}

	var added []models.JobPosting
	for _, job := range fetched {
		if seen[job.URL] {
			continue
		}
		seen[job.URL] = true

		stored, err := c.jobRepo.FindByURL(job.URL)
		switch {
		case err == nil:
			// Already in the catalog from an earlier ingestion: reuse it.
			added = append(added, *stored)
		case errors.Is(err, repositories.ErrNotFound):
			posting := job
			if err := c.jobRepo.Create(&posting); err != nil {
				c.logger.Warn("failed to persist ingested posting",
					zap.String("url", posting.URL),
					zap.Error(err),
				)
				continue
			}
			added = append(added, posting)
		default:
			c.logger.Warn("catalog lookup for ingested posting failed",
				zap.String("url", job.URL),
				zap.Error(err),
			)
		}
	}

	return added
}

func buildKeywords(profile models.CandidateProfile, prefs models.Preferences) string {
	titles := append(append([]string{}, profile.JobTitles...), prefs.JobTitles...)
	if len(titles) == 0 {
		titles = profile.Skills
	}
	return strings.Join(titles, " OR ")
}
