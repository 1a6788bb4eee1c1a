package domain

import (
	"context"
	"time"
)

// Availability constants for portfolio details
const (
	AvailabilityAvailable   = "available"
	AvailabilityOpen        = "open_to_opportunities"
	AvailabilityUnavailable = "not_available"
)

// SkillCategories is the fixed category set exposed to search filters.
var SkillCategories = []string{"Languages", "Frontend", "Backend", "Database", "DevOps", "Other"}

// Sort keys accepted by candidate search
const (
	SortRelevance  = "relevance"
	SortExperience = "experience"
	SortSkills     = "skills"
	SortName       = "name"
	SortNewest     = "newest"
)

type Skill struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Proficiency int    `json:"proficiency"`
	Icon        string `json:"icon,omitempty"`
	IsFeatured  bool   `json:"isFeatured"`
}

type Experience struct {
	Company     string     `json:"company"`
	Position    string     `json:"position"`
	StartDate   time.Time  `json:"startDate"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	Description string     `json:"description,omitempty"`
}

type Project struct {
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
	GithubURL    string   `json:"githubUrl,omitempty"`
	LiveURL      string   `json:"liveUrl,omitempty"`
}

type Certificate struct {
	Title         string    `json:"title"`
	Issuer        string    `json:"issuer"`
	IssueDate     time.Time `json:"issueDate"`
	CredentialURL string    `json:"credentialUrl,omitempty"`
}

type Portfolio struct {
	JobTitle          string            `json:"jobTitle"`
	Location          string            `json:"location"`
	Bio               string            `json:"bio"`
	Availability      string            `json:"availability"`
	YearsOfExperience int               `json:"yearsOfExperience"`
	SocialLinks       map[string]string `json:"socialLinks,omitempty"`
}

// Candidate is the denormalized read model composed per query from a user and
// its child collections. It is never stored as-is.
//
// ExperienceYears counts an experience entry without an end date as ongoing,
// so the derived value depends on the evaluation time and is not stable
// across calls. Callers must supply the evaluation clock explicitly.
type Candidate struct {
	ID           string    `json:"_id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"displayName"`
	Email        string    `json:"email"`
	ProfileImage string    `json:"profileImage,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`

	Portfolio    *Portfolio    `json:"portfolio,omitempty"`
	Skills       []Skill       `json:"userSkills"`
	Experiences  []Experience  `json:"experiences"`
	Projects     []Project     `json:"projects"`
	Certificates []Certificate `json:"certificates"`

	// Derived at query time, never persisted.
	SkillsCount         int     `json:"skillsCount"`
	ExperienceYears     float64 `json:"experienceYears"`
	ProjectsCount       int     `json:"projectsCount"`
	CertificatesCount   int     `json:"certificatesCount"`
	AvgSkillProficiency float64 `json:"avgSkillProficiency"`
	RelevanceScore      float64 `json:"relevanceScore"`
}

// SearchFilter carries all candidate search criteria. Zero values mean
// "not supplied" for every optional criterion.
type SearchFilter struct {
	Skills         []string
	MinProficiency int
	ExperienceMin  int
	Location       string
	Availability   string
	SearchQuery    string
	Categories     []string
	SortBy         string
	Page           int
	Limit          int
}

// SkillFacet is one entry of the system-wide skill aggregation.
type SkillFacet struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

type SearchFacets struct {
	AvailableSkills []SkillFacet `json:"availableSkills"`
	Categories      []string     `json:"categories"`
}

type SearchResult struct {
	Candidates []Candidate  `json:"candidates"`
	Pagination Pagination   `json:"pagination"`
	Filters    SearchFacets `json:"filters"`
}

// Experience level labels for the stats endpoint
const (
	LevelEntry  = "Entry Level"
	LevelJunior = "Junior"
	LevelMid    = "Mid Level"
	LevelSenior = "Senior"
)

type ExperienceLevelCount struct {
	Level string `json:"_id"`
	Count int    `json:"count"`
}

type PopularSkill struct {
	Name     string `json:"_id"`
	Count    int64  `json:"count"`
	Category string `json:"category"`
}

type CategoryCount struct {
	Category string `json:"_id"`
	Count    int64  `json:"count"`
}

type CandidateStats struct {
	TotalCandidates  int64                  `json:"totalCandidates"`
	ExperienceLevels []ExperienceLevelCount `json:"experienceLevels"`
	PopularSkills    []PopularSkill         `json:"popularSkills"`
	SkillCategories  []CategoryCount        `json:"skillCategories"`
}

// CandidateRepository joins a user with its portfolio, skill, experience,
// project and certificate collections into the Candidate read model. All
// filtering, scoring and sorting happens above this layer on plain structs.
type CandidateRepository interface {
	ListJoined(ctx context.Context) ([]Candidate, error)
	GetJoinedByID(ctx context.Context, id string) (*Candidate, error)
	SkillFacets(ctx context.Context, limit int) ([]SkillFacet, error)
	CategoryFacets(ctx context.Context) ([]CategoryCount, error)
	CountUsers(ctx context.Context) (int64, error)
}

type CandidateUsecase interface {
	Search(ctx context.Context, filter SearchFilter) (*SearchResult, error)
	Stats(ctx context.Context) (*CandidateStats, error)
	Profile(ctx context.Context, candidateID string) (*Candidate, error)
}
