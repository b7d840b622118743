package services

import (
	"fmt"
	"strings"

	"jobtrackr/matching-engine/internal/models"
)

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildResumeExtractionPrompt creates the prompt for structured resume analysis.
func (pb *PromptBuilder) BuildResumeExtractionPrompt(resumeText string) string {
	return fmt.Sprintf(`You are an expert resume analyzer. Extract structured data from resumes accurately.

Analyze this resume and extract structured information in JSON format:

Resume:
%s

Return ONLY a JSON object with the following structure:
{
  "skills": ["list of technical and soft skills"],
  "experience": "brief summary of work experience (years and level)",
  "education": ["list of educational qualifications"],
  "summary": "2-3 sentence professional summary",
  "jobTitles": ["list of relevant job titles they might be interested in"],
  "preferredLocations": ["list of locations mentioned or inferred"],
  "experienceLevel": "entry|mid|senior|lead|executive"
}`, resumeText)
}

// BuildBatchScoringPrompt creates the prompt scoring one batch of postings
// against a candidate profile. Descriptions are truncated to keep the payload
// inside a practical context budget.
func (pb *PromptBuilder) BuildBatchScoringPrompt(jobs []models.JobPosting, profile models.CandidateProfile, prefs models.Preferences) string {
	locations := strings.Join(prefs.Locations, ", ")
	if locations == "" {
		locations = "Any"
	}

	var sb strings.Builder
	for i, job := range jobs {
		fmt.Fprintf(&sb, `
Job %d:
Title: %s
Company: %s
Location: %s
Remote: %s
Skills Required: %s
Experience Level: %s
Description: %s...
`,
			i+1, job.Title, job.Company, job.Location, job.Remote,
			strings.Join(job.Skills, ", "), job.ExperienceLevel,
			truncate(job.Description, maxDescriptionChars))
		if i < len(jobs)-1 {
			sb.WriteString("\n---\n")
		}
	}

	return fmt.Sprintf(`You are a job matching expert. Score how well each job matches the candidate's profile. Score jobs objectively.

Candidate Profile:
- Skills: %s
- Experience: %s
- Preferred Job Titles: %s
- Education: %s
- Preferred Locations: %s
- Experience Level: %s

Jobs to Score:
%s

Provide scores (0-100) in JSON format:
{
  "scores": [
    { "jobIndex": 0, "score": 85, "reason": "Brief explanation" },
    ...
  ]
}`,
		strings.Join(profile.Skills, ", "),
		profile.Experience,
		strings.Join(profile.JobTitles, ", "),
		strings.Join(profile.Education, ", "),
		locations,
		profile.ExperienceLevel,
		sb.String())
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
