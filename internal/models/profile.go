package models

import "strings"

type ExperienceLevel string

const (
	LevelEntry     ExperienceLevel = "entry"
	LevelMid       ExperienceLevel = "mid"
	LevelSenior    ExperienceLevel = "senior"
	LevelLead      ExperienceLevel = "lead"
	LevelExecutive ExperienceLevel = "executive"
)

// ParseExperienceLevel normalizes a free-form level string to one of the known
// values. Unknown input maps to "" (absent).
func ParseExperienceLevel(s string) ExperienceLevel {
	level := ExperienceLevel(strings.ToLower(strings.TrimSpace(s)))
	switch level {
	case LevelEntry, LevelMid, LevelSenior, LevelLead, LevelExecutive:
		return level
	}
	return ""
}

type RemoteMode string

const (
	RemoteModeRemote RemoteMode = "remote"
	RemoteModeHybrid RemoteMode = "hybrid"
	RemoteModeOnsite RemoteMode = "onsite"
	RemoteModeAny    RemoteMode = "any"
)

// CandidateProfile is the structured data extracted from a resume. It is
// derived, never edited by hand, and overwritten wholesale on re-upload.
type CandidateProfile struct {
	Skills             []string        `json:"skills"`
	JobTitles          []string        `json:"job_titles"`
	Education          []string        `json:"education"`
	Experience         string          `json:"experience"`
	Summary            string          `json:"summary"`
	ExperienceLevel    ExperienceLevel `json:"experience_level,omitempty"`
	PreferredLocations []string        `json:"preferred_locations"`
}

// IsEmpty reports whether the profile carries no extracted signal at all,
// meaning no resume has been processed for the candidate yet.
func (p CandidateProfile) IsEmpty() bool {
	return len(p.Skills) == 0 &&
		len(p.JobTitles) == 0 &&
		len(p.Education) == 0 &&
		p.Experience == "" &&
		p.Summary == "" &&
		p.ExperienceLevel == "" &&
		len(p.PreferredLocations) == 0
}

// Preferences are owned by the candidate and read-only to the engine.
type Preferences struct {
	JobTitles        []string   `json:"job_titles"`
	Locations        []string   `json:"locations"`
	MinSalary        *int       `json:"min_salary,omitempty"`
	MaxSalary        *int       `json:"max_salary,omitempty"`
	JobTypes         []string   `json:"job_types"`
	RemotePreference RemoteMode `json:"remote_preference"`
}
