package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"resume-portfolio-backend/internal/domain"
	"resume-portfolio-backend/pkg/apperror"
	"resume-portfolio-backend/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	defaultHistoryLimit = 50
	trendEntryLimit     = 100
	maxTitleLength      = 255
)

type atsUsecase struct {
	repo      domain.ATSRepository
	validate  *validator.Validate
	tolerance float64
	retention time.Duration
	now       func() time.Time
}

// NewATSUsecase creates the score history service. tolerance is the minimum
// score delta treated as a material change; retention bounds history entry
// lifetime. The clock is injected so decisions are testable.
func NewATSUsecase(repo domain.ATSRepository, validate *validator.Validate, tolerance float64, retention time.Duration, now func() time.Time) domain.ATSUsecase {
	if now == nil {
		now = time.Now
	}
	return &atsUsecase{
		repo:      repo,
		validate:  validate,
		tolerance: tolerance,
		retention: retention,
		now:       now,
	}
}

// reportPayload is the narrow, versioned schema written into the opaque
// report field. Older records may instead carry {"matchScore": ...}; the
// fallback keys below keep those readable at the serving boundary.
type reportPayload struct {
	Version           int                `json:"version"`
	OverallScore      float64            `json:"overall_score"`
	MatchScore        float64            `json:"matchScore,omitempty"`
	DetailedScores    map[string]float64 `json:"detailedScores,omitempty"`
	ResumeTitle       string             `json:"resumeTitle,omitempty"`
	JobTitle          string             `json:"jobTitle,omitempty"`
	AnalysisTimestamp time.Time          `json:"analysis_timestamp"`
}

// StoreScore persists the analysis report for a submitted score and, when the
// change detector signals a material difference, a history entry referencing
// it. A negative decision is a normal outcome reported as stored=false.
//
// The read-decide-write sequence is not transactional: two concurrent
// submissions for one user race on "latest prior entry" and resolve as
// last-write-wins. Each write is a single independent insert.
func (u *atsUsecase) StoreScore(ctx context.Context, userID string, req domain.StoreScoreRequest) (*domain.StoreScoreResult, error) {
	if err := u.validate.Struct(req); err != nil {
		return nil, apperror.BadRequest("Invalid overall score. Must be a number between 0 and 100.")
	}
	overall := *req.OverallScore

	resumeTitle := truncate(req.ResumeTitle, maxTitleLength)
	if resumeTitle == "" {
		resumeTitle = domain.DefaultResumeTitle
	}
	jobTitle := truncate(req.JobTitle, maxTitleLength)
	if jobTitle == "" {
		jobTitle = domain.DefaultJobTitle
	}

	now := u.now()

	prev, err := u.repo.LatestHistoryEntry(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest score: %w", err)
	}

	// The report is the durable source of truth and is created
	// unconditionally; only the history entry is deduplicated.
	payload, _ := json.Marshal(reportPayload{
		Version:           1,
		OverallScore:      overall,
		DetailedScores:    req.DetailedScores,
		ResumeTitle:       resumeTitle,
		JobTitle:          jobTitle,
		AnalysisTimestamp: now,
	})
	report := &domain.AnalysisReport{
		ID:           uuid.NewString(),
		UserID:       userID,
		ResumeTitle:  resumeTitle,
		JobTitle:     jobTitle,
		AnalysisDate: now,
		Summary:      domain.ReportSummary{MatchScore: overall},
		ReportData:   string(payload),
		CreatedAt:    now,
	}
	if err := u.repo.CreateReport(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to store analysis report: %w", err)
	}

	decision := decideStore(prev, overall, req.DetailedScores, u.tolerance, now)
	logger.Log.Info("score storage decision",
		"user_id", userID,
		"overall_score", overall,
		"store", decision.Store,
		"reason", decision.Reason,
	)
	if !decision.Store {
		return &domain.StoreScoreResult{Stored: false, Reason: decision.Reason}, nil
	}

	entry := &domain.ScoreHistoryEntry{
		ID:             uuid.NewString(),
		UserID:         userID,
		OverallScore:   overall,
		DetailedScores: req.DetailedScores,
		ResumeTitle:    resumeTitle,
		JobTitle:       jobTitle,
		AnalysisDate:   now,
		AnalysisID:     report.ID,
		ExpiresAt:      now.Add(u.retention),
		CreatedAt:      now,
	}
	if err := u.repo.CreateHistoryEntry(ctx, entry); err != nil {
		// The report is already durable; a failed history write must not
		// fail the request.
		logger.Log.Error("failed to store score history entry",
			"user_id", userID, "analysis_id", report.ID, "error", err)
		return &domain.StoreScoreResult{
			Stored:     false,
			Reason:     "Score accepted but history entry could not be persisted",
			AnalysisID: report.ID,
		}, nil
	}

	return &domain.StoreScoreResult{
		Stored:     true,
		ScoreID:    entry.ID,
		AnalysisID: report.ID,
		Data: &domain.StoredScore{
			OverallScore:   entry.OverallScore,
			DetailedScores: entry.DetailedScores,
			AnalysisDate:   entry.AnalysisDate,
		},
	}, nil
}

// History lists all analysis reports for a user, newest first. The overall
// score is taken from the summary; records without one fall back to parsing
// the opaque payload, and parse failures degrade to score 0.
func (u *atsUsecase) History(ctx context.Context, userID string) ([]domain.HistoryItem, error) {
	reports, err := u.repo.ListReports(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load analysis history: %w", err)
	}

	items := make([]domain.HistoryItem, 0, len(reports))
	for _, r := range reports {
		item := domain.HistoryItem{
			ID:                r.ID,
			ResumeTitle:       r.ResumeTitle,
			JobTitle:          r.JobTitle,
			AnalysisDate:      r.AnalysisDate,
			AnalysisTimestamp: r.AnalysisDate,
			Summary:           r.Summary,
			CreatedAt:         r.CreatedAt,
		}
		if item.ResumeTitle == "" {
			item.ResumeTitle = "Untitled Resume"
		}
		if item.JobTitle == "" {
			item.JobTitle = "General Analysis"
		}

		if r.Summary.MatchScore != 0 {
			item.OverallScore = r.Summary.MatchScore
		} else if r.ReportData != "" {
			var payload reportPayload
			if err := json.Unmarshal([]byte(r.ReportData), &payload); err == nil {
				item.OverallScore = payload.OverallScore
				if item.OverallScore == 0 {
					item.OverallScore = payload.MatchScore
				}
				if !payload.AnalysisTimestamp.IsZero() {
					item.AnalysisTimestamp = payload.AnalysisTimestamp
				}
			} else {
				logger.Log.Warn("could not parse report payload", "analysis_id", r.ID)
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// Analysis returns one report, scoped to its owner.
func (u *atsUsecase) Analysis(ctx context.Context, userID, analysisID string) (*domain.AnalysisReport, error) {
	report, err := u.repo.GetReport(ctx, userID, analysisID)
	if err != nil {
		return nil, fmt.Errorf("failed to load analysis report: %w", err)
	}
	if report == nil {
		return nil, apperror.NotFound("ATS analysis report not found or not authorized.")
	}
	return report, nil
}

// DeleteAnalysis removes one report. History entries referencing it are kept;
// their lifecycle is governed by the retention window alone.
func (u *atsUsecase) DeleteAnalysis(ctx context.Context, userID, analysisID string) error {
	deleted, err := u.repo.DeleteReport(ctx, userID, analysisID)
	if err != nil {
		return fmt.Errorf("failed to delete analysis report: %w", err)
	}
	if !deleted {
		return apperror.NotFound("ATS analysis report not found or not authorized for deletion.")
	}
	return nil
}

// ScoreHistory returns history entries for a trailing window alongside
// aggregate statistics over the returned slice.
func (u *atsUsecase) ScoreHistory(ctx context.Context, userID, period string, limit int) (*domain.ScoreHistoryResult, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if period == "" {
		period = "all"
	}

	var since *time.Time
	if window := periodWindow(period); window > 0 {
		start := u.now().Add(-window)
		since = &start
	}

	entries, err := u.repo.ListHistory(ctx, userID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load score history: %w", err)
	}
	if entries == nil {
		entries = []domain.ScoreHistoryEntry{}
	}

	stats := domain.ScoreStatistics{TotalEntries: len(entries)}
	if len(entries) > 0 {
		var sum float64
		stats.HighestScore = entries[0].OverallScore
		stats.LowestScore = entries[0].OverallScore
		for _, e := range entries {
			sum += e.OverallScore
			if e.OverallScore > stats.HighestScore {
				stats.HighestScore = e.OverallScore
			}
			if e.OverallScore < stats.LowestScore {
				stats.LowestScore = e.OverallScore
			}
		}
		stats.AverageScore = math.Round(sum / float64(len(entries)))
	}
	if len(entries) >= 2 {
		// Entries are newest-first; improvement is newest minus oldest of
		// the returned window.
		stats.Improvement = entries[0].OverallScore - entries[len(entries)-1].OverallScore
	}

	return &domain.ScoreHistoryResult{
		History:    entries,
		Statistics: stats,
		Period:     period,
		Count:      len(entries),
	}, nil
}

func periodWindow(period string) time.Duration {
	switch period {
	case "7d":
		return 7 * 24 * time.Hour
	case "30d":
		return 30 * 24 * time.Hour
	case "90d":
		return 90 * 24 * time.Hour
	case "1y":
		return 365 * 24 * time.Hour
	default:
		return 0
	}
}

// ScoreTrends computes point-to-point delta series for the overall score and
// each charted category, plus recent-versus-earlier insights.
func (u *atsUsecase) ScoreTrends(ctx context.Context, userID string) (*domain.ScoreTrendsResult, error) {
	entries, err := u.repo.ListHistoryAsc(ctx, userID, trendEntryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load score trends: %w", err)
	}

	result := &domain.ScoreTrendsResult{
		Trends:         []domain.TrendPoint{},
		CategoryTrends: map[string][]domain.TrendPoint{},
		Insights:       []domain.TrendInsight{},
		TotalAnalyses:  len(entries),
	}
	if len(entries) == 0 {
		return result, nil
	}

	for i, e := range entries {
		point := domain.TrendPoint{Date: e.AnalysisDate, Score: e.OverallScore}
		if i > 0 {
			point.Change = e.OverallScore - entries[i-1].OverallScore
		}
		result.Trends = append(result.Trends, point)
	}

	for _, category := range domain.TrendCategories {
		var series []domain.TrendPoint
		for _, e := range entries {
			score, ok := e.DetailedScores[category]
			if !ok || score == 0 {
				continue
			}
			point := domain.TrendPoint{Date: e.AnalysisDate, Score: score}
			if n := len(series); n > 0 {
				point.Change = score - series[n-1].Score
			}
			series = append(series, point)
		}
		result.CategoryTrends[category] = series
	}

	result.Insights = trendInsights(entries)
	return result, nil
}

// trendInsights compares the mean of the last five entries against the mean
// of everything earlier. With fewer than five entries the "earlier" mean
// degenerates to the recent mean, so no insight is emitted.
func trendInsights(entries []domain.ScoreHistoryEntry) []domain.TrendInsight {
	insights := []domain.TrendInsight{}

	recentFrom := len(entries) - 5
	if recentFrom < 0 {
		recentFrom = 0
	}
	recent := entries[recentFrom:]
	older := entries[:recentFrom]

	if len(recent) < 2 {
		return insights
	}

	recentAvg := meanOverall(recent)
	olderAvg := recentAvg
	if len(older) > 0 {
		olderAvg = meanOverall(older)
	}

	switch {
	case recentAvg > olderAvg+5:
		insights = append(insights, domain.TrendInsight{
			Type:     domain.InsightPositive,
			Message:  fmt.Sprintf("Your ATS scores have improved by %d points recently!", int(math.Round(recentAvg-olderAvg))),
			Category: "overall",
		})
	case recentAvg < olderAvg-5:
		insights = append(insights, domain.TrendInsight{
			Type:     domain.InsightWarning,
			Message:  fmt.Sprintf("Your ATS scores have decreased by %d points recently.", int(math.Round(olderAvg-recentAvg))),
			Category: "overall",
		})
	}
	return insights
}

func meanOverall(entries []domain.ScoreHistoryEntry) float64 {
	var sum float64
	for _, e := range entries {
		sum += e.OverallScore
	}
	return sum / float64(len(entries))
}

// Config describes the score storage policy.
func (u *atsUsecase) Config() domain.ScoreConfig {
	return domain.ScoreConfig{
		ScoreTolerance:              u.tolerance,
		StoreOnlySignificantChanges: true,
		Description:                 fmt.Sprintf("Scores are only stored if they differ by at least %g%% from the previous analysis", u.tolerance),
	}
}

var keywordPattern = regexp.MustCompile(`[^\w\s-]`)

// ExtractKeywords pulls distinct keywords out of free text, in order of first
// occurrence, capped at 20. The processing is stateless; nothing is retained.
func (u *atsUsecase) ExtractKeywords(text string) ([]string, error) {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < 20 || len(trimmed) > 10000 {
		return nil, apperror.BadRequest("Invalid input text for keyword extraction.")
	}

	cleaned := keywordPattern.ReplaceAllString(strings.ToLower(trimmed), " ")
	seen := map[string]bool{}
	keywords := []string{}
	for _, word := range strings.Fields(cleaned) {
		if len(word) <= 2 || stopWords[word] || seen[word] {
			continue
		}
		seen[word] = true
		keywords = append(keywords, word)
		if len(keywords) == 20 {
			break
		}
	}
	return keywords, nil
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) > max {
		return s[:max]
	}
	return s
}

var stopWords = map[string]bool{
	"the": true, "and": true, "but": true, "are": true, "was": true,
	"were": true, "for": true, "with": true, "this": true, "that": true,
	"these": true, "those": true, "its": true, "you": true, "your": true,
	"his": true, "her": true, "our": true, "they": true, "their": true,
	"been": true, "being": true, "have": true, "has": true, "had": true,
	"does": true, "did": true, "not": true, "yes": true, "can": true,
	"will": true, "would": true, "should": true, "could": true, "get": true,
	"got": true, "make": true, "made": true, "like": true, "just": true,
	"also": true, "about": true, "some": true, "any": true, "all": true,
	"out": true, "down": true, "then": true, "than": true, "more": true,
	"most": true, "such": true, "very": true, "only": true, "even": true,
	"into": true, "over": true, "under": true, "through": true, "after": true,
	"before": true, "where": true, "when": true, "why": true, "how": true,
	"who": true, "what": true, "which": true, "whom": true, "upon": true,
	"among": true, "across": true, "behind": true, "below": true,
	"beside": true, "between": true, "beyond": true, "during": true,
	"except": true, "inside": true, "near": true, "off": true, "onto": true,
	"outside": true, "past": true, "round": true, "since": true,
	"until": true, "within": true, "without": true, "via": true,
}
