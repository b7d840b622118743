package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"jobtrackr/matching-engine/internal/models"
)

const adzunaBaseURL = "https://api.adzuna.com/v1/api/jobs"

// JobFetcher is the external job-board fallback used when the local catalog
// is too small to score.
type JobFetcher interface {
	Fetch(ctx context.Context, keywords, location string, limit int) ([]models.JobPosting, error)
}

// AdzunaFetcher pulls postings from the Adzuna public API and normalizes them
// into the catalog shape. With empty credentials Fetch returns (nil, nil) so
// the catalog query simply proceeds without extra results.
type AdzunaFetcher struct {
	appID   string
	appKey  string
	country string
	client  *resty.Client
	logger  *zap.Logger
}

func NewAdzunaFetcher(appID, appKey, country string, timeout time.Duration, logger *zap.Logger) *AdzunaFetcher {
	client := resty.New().
		SetBaseURL(adzunaBaseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &AdzunaFetcher{
		appID:   appID,
		appKey:  appKey,
		country: country,
		client:  client,
		logger:  logger,
	}
}

// Fetch implements JobFetcher.
func (f *AdzunaFetcher) Fetch(ctx context.Context, keywords, location string, limit int) ([]models.JobPosting, error) {
	if f.appID == "" || f.appKey == "" {
		f.logger.Warn("ADZUNA_APP_ID / ADZUNA_APP_KEY not set, skipping ingestion")
		return nil, nil
	}

	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"app_id":           f.appID,
			"app_key":          f.appKey,
			"what":             keywords,
			"where":            location,
			"results_per_page": fmt.Sprintf("%d", limit),
			"content-type":     "application/json",
			"sort_by":          "date",
		}).
		Get(fmt.Sprintf("/%s/search/1", f.country))

	if err != nil {
		return nil, fmt.Errorf("adzuna request failed: %w", err)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("adzuna returned %d: %s", resp.StatusCode(), resp.String())
	}

	results := gjson.GetBytes(resp.Body(), "results")
	if !results.IsArray() {
		return nil, fmt.Errorf("adzuna response missing results array")
	}

	var jobs []models.JobPosting
	results.ForEach(func(_, item gjson.Result) bool {
		url := item.Get("redirect_url").String()
		if url == "" {
			return true
		}

		job := models.JobPosting{
			Title:          item.Get("title").String(),
			Company:        item.Get("company.display_name").String(),
			Description:    item.Get("description").String(),
			Location:       item.Get("location.display_name").String(),
			Remote:         models.RemoteModeOnsite,
			URL:            url,
			Source:         models.SourceIngested,
			SourcePlatform: "Adzuna",
			PostedDate:     time.Now(),
			IsActive:       true,
		}

		if min := item.Get("salary_min"); min.Exists() && min.Int() > 0 {
			v := int(min.Int())
			job.SalaryMin = &v
		}
		if max := item.Get("salary_max"); max.Exists() && max.Int() > 0 {
			v := int(max.Int())
			job.SalaryMax = &v
		}
		if created := item.Get("created").String(); created != "" {
			if t, err := time.Parse(time.RFC3339, created); err == nil {
				job.PostedDate = t
			}
		}

		jobs = append(jobs, job)
		return true
	})

	f.logger.Debug("adzuna ingestion completed",
		zap.String("keywords", keywords),
		zap.String("location", location),
		zap.Int("results", len(jobs)),
	)

	return jobs, nil
}
