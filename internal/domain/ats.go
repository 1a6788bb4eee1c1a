package domain

import (
	"context"
	"time"
)

// Defaults applied when a score submission omits titles
const (
	DefaultResumeTitle = "Analyzed Resume"
	DefaultJobTitle    = "Job Analysis"
)

// TrendCategories is the fixed detailed-score category set used for
// category-wise trend series. The detailed-score map itself is open-ended;
// categories outside this set are stored but not charted.
var TrendCategories = []string{"keywords", "formatting", "experience", "skills", "education", "summary"}

// ReportSummary is the normalized summary block of an analysis report.
type ReportSummary struct {
	MatchScore   float64 `json:"matchScore"`
	KeywordCount int     `json:"keywordCount"`
}

// AnalysisReport is the durable record of one analysis submission. It is
// immutable after creation except for deletion by its owner.
type AnalysisReport struct {
	ID           string        `json:"_id"`
	UserID       string        `json:"userId"`
	ResumeTitle  string        `json:"resumeTitle"`
	JobTitle     string        `json:"jobTitle"`
	AnalysisDate time.Time     `json:"analysisDate"`
	Summary      ReportSummary `json:"summary"`
	ReportData   string        `json:"reportData,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// ScoreHistoryEntry is a deduplicated snapshot of an overall score and its
// per-category scores at a point in time. Every entry references exactly one
// analysis report. Entries expire 90 days after the analysis; deleting the
// parent report does not cascade here (retention is time-based only).
type ScoreHistoryEntry struct {
	ID             string             `json:"_id"`
	UserID         string             `json:"userId"`
	OverallScore   float64            `json:"overallScore"`
	DetailedScores map[string]float64 `json:"detailedScores"`
	ResumeTitle    string             `json:"resumeTitle"`
	JobTitle       string             `json:"jobTitle"`
	AnalysisDate   time.Time          `json:"analysisDate"`
	AnalysisID     string             `json:"analysisId"`
	ExpiresAt      time.Time          `json:"expiresAt"`
	CreatedAt      time.Time          `json:"createdAt"`
}

// StoreScoreRequest is the body of POST /ats/store-score.
type StoreScoreRequest struct {
	OverallScore   *float64           `json:"overallScore" validate:"required,gte=0,lte=100"`
	DetailedScores map[string]float64 `json:"detailedScores" validate:"omitempty,dive,gte=0,lte=100"`
	ResumeTitle    string             `json:"resumeTitle" validate:"omitempty,max=255"`
	JobTitle       string             `json:"jobTitle" validate:"omitempty,max=255"`
}

// StoreDecision is the outcome of the score change detector. It is always
// populated; a negative decision is a normal outcome, not an error.
type StoreDecision struct {
	Store  bool
	Reason string
}

type StoredScore struct {
	OverallScore   float64            `json:"overallScore"`
	DetailedScores map[string]float64 `json:"detailedScores"`
	AnalysisDate   time.Time          `json:"analysisDate"`
}

type StoreScoreResult struct {
	Stored     bool         `json:"stored"`
	Reason     string       `json:"reason,omitempty"`
	ScoreID    string       `json:"scoreId,omitempty"`
	AnalysisID string       `json:"analysisId,omitempty"`
	Data       *StoredScore `json:"data,omitempty"`
}

// HistoryItem is the serving view of an analysis report in the history list.
// The overall score is read from the summary when present, falling back to
// the opaque report payload for records written by older clients.
type HistoryItem struct {
	ID                string        `json:"_id"`
	ResumeTitle       string        `json:"resumeTitle"`
	JobTitle          string        `json:"jobTitle"`
	AnalysisDate      time.Time     `json:"analysisDate"`
	AnalysisTimestamp time.Time     `json:"analysis_timestamp"`
	OverallScore      float64       `json:"overall_score"`
	Summary           ReportSummary `json:"summary"`
	CreatedAt         time.Time     `json:"createdAt"`
}

type ScoreStatistics struct {
	TotalEntries int     `json:"totalEntries"`
	AverageScore float64 `json:"averageScore"`
	HighestScore float64 `json:"highestScore"`
	LowestScore  float64 `json:"lowestScore"`
	// Improvement is newest minus oldest score of the returned window, so it
	// is sign-sensitive and depends on the requested period.
	Improvement float64 `json:"improvement"`
}

type ScoreHistoryResult struct {
	History    []ScoreHistoryEntry `json:"history"`
	Statistics ScoreStatistics     `json:"statistics"`
	Period     string              `json:"period"`
	Count      int                 `json:"count"`
}

type TrendPoint struct {
	Date   time.Time `json:"date"`
	Score  float64   `json:"score"`
	Change float64   `json:"change"`
}

const (
	InsightPositive = "positive"
	InsightWarning  = "warning"
)

type TrendInsight struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Category string `json:"category"`
}

type ScoreTrendsResult struct {
	Trends         []TrendPoint            `json:"trends"`
	CategoryTrends map[string][]TrendPoint `json:"categoryTrends"`
	Insights       []TrendInsight          `json:"insights"`
	TotalAnalyses  int                     `json:"totalAnalyses"`
}

type ScoreConfig struct {
	ScoreTolerance              float64 `json:"scoreTolerance"`
	StoreOnlySignificantChanges bool    `json:"storeOnlySignificantChanges"`
	Description                 string  `json:"description"`
}

// ATSRepository persists analysis reports and score history entries.
type ATSRepository interface {
	CreateReport(ctx context.Context, report *AnalysisReport) error
	GetReport(ctx context.Context, userID, reportID string) (*AnalysisReport, error)
	ListReports(ctx context.Context, userID string) ([]AnalysisReport, error)
	DeleteReport(ctx context.Context, userID, reportID string) (bool, error)

	CreateHistoryEntry(ctx context.Context, entry *ScoreHistoryEntry) error
	// LatestHistoryEntry returns nil, nil when the user has no history yet.
	LatestHistoryEntry(ctx context.Context, userID string) (*ScoreHistoryEntry, error)
	// ListHistory returns entries newest-first, optionally restricted to
	// analysis dates at or after since.
	ListHistory(ctx context.Context, userID string, since *time.Time, limit int) ([]ScoreHistoryEntry, error)
	// ListHistoryAsc returns entries oldest-first for trend calculation.
	ListHistoryAsc(ctx context.Context, userID string, limit int) ([]ScoreHistoryEntry, error)
}

type ATSUsecase interface {
	StoreScore(ctx context.Context, userID string, req StoreScoreRequest) (*StoreScoreResult, error)
	History(ctx context.Context, userID string) ([]HistoryItem, error)
	Analysis(ctx context.Context, userID, analysisID string) (*AnalysisReport, error)
	DeleteAnalysis(ctx context.Context, userID, analysisID string) error
	ScoreHistory(ctx context.Context, userID, period string, limit int) (*ScoreHistoryResult, error)
	ScoreTrends(ctx context.Context, userID string) (*ScoreTrendsResult, error)
	Config() ScoreConfig
	ExtractKeywords(text string) ([]string, error)
}
