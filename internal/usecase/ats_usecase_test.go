package usecase_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"resume-portfolio-backend/internal/domain"
	"resume-portfolio-backend/internal/usecase"
	"resume-portfolio-backend/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

type MockATSRepo struct {
	mock.Mock
}

func (m *MockATSRepo) CreateReport(ctx context.Context, report *domain.AnalysisReport) error {
	return m.Called(ctx, report).Error(0)
}

func (m *MockATSRepo) GetReport(ctx context.Context, userID, reportID string) (*domain.AnalysisReport, error) {
	args := m.Called(ctx, userID, reportID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AnalysisReport), args.Error(1)
}

func (m *MockATSRepo) ListReports(ctx context.Context, userID string) ([]domain.AnalysisReport, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AnalysisReport), args.Error(1)
}

func (m *MockATSRepo) DeleteReport(ctx context.Context, userID, reportID string) (bool, error) {
	args := m.Called(ctx, userID, reportID)
	return args.Bool(0), args.Error(1)
}

func (m *MockATSRepo) CreateHistoryEntry(ctx context.Context, entry *domain.ScoreHistoryEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *MockATSRepo) LatestHistoryEntry(ctx context.Context, userID string) (*domain.ScoreHistoryEntry, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScoreHistoryEntry), args.Error(1)
}

func (m *MockATSRepo) ListHistory(ctx context.Context, userID string, since *time.Time, limit int) ([]domain.ScoreHistoryEntry, error) {
	args := m.Called(ctx, userID, since, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ScoreHistoryEntry), args.Error(1)
}

func (m *MockATSRepo) ListHistoryAsc(ctx context.Context, userID string, limit int) ([]domain.ScoreHistoryEntry, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ScoreHistoryEntry), args.Error(1)
}

const retention = 90 * 24 * time.Hour

func newATSUsecase(repo domain.ATSRepository) domain.ATSUsecase {
	return usecase.NewATSUsecase(repo, validator.New(), 1, retention, fixedNow)
}

func score(v float64) *float64 { return &v }

func TestStoreScore(t *testing.T) {
	t.Run("First submission stores report and history entry", func(t *testing.T) {
		mockRepo := new(MockATSRepo)
		mockRepo.On("LatestHistoryEntry", mock.Anything, "user1").Return(nil, nil)
		mockRepo.On("CreateReport", mock.Anything, mock.Anything).Return(nil)
		mockRepo.On("CreateHistoryEntry", mock.Anything, mock.Anything).Return(nil)

		uc := newATSUsecase(mockRepo)
		res, err := uc.StoreScore(context.Background(), "user1", domain.StoreScoreRequest{
			OverallScore:   score(85),
			DetailedScores: map[string]float64{"keywords": 70},
		})
		assert.NoError(t, err)
		assert.True(t, res.Stored)
		assert.NotEmpty(t, res.ScoreID)
		assert.NotEmpty(t, res.AnalysisID)
		assert.Equal(t, 85.0, res.Data.OverallScore)

		entry := mockRepo.Calls[2].Arguments.Get(1).(*domain.ScoreHistoryEntry)
		assert.Equal(t, res.AnalysisID, entry.AnalysisID)
		assert.Equal(t, testNow.Add(retention), entry.ExpiresAt)
		assert.Equal(t, domain.DefaultResumeTitle, entry.ResumeTitle)
		assert.Equal(t, domain.DefaultJobTitle, entry.JobTitle)
	})

	t.Run("Unchanged score keeps the report but skips history", func(t *testing.T) {
		mockRepo := new(MockATSRepo)
		mockRepo.On("LatestHistoryEntry", mock.Anything, "user1").Return(&domain.ScoreHistoryEntry{
			OverallScore: 85,
			AnalysisDate: testNow.Add(-time.Hour),
		}, nil)
		mockRepo.On("CreateReport", mock.Anything, mock.Anything).Return(nil)

		uc := newATSUsecase(mockRepo)
		res, err := uc.StoreScore(context.Background(), "user1", domain.StoreScoreRequest{
			OverallScore: score(85.5),
		})
		assert.NoError(t, err)
		assert.False(t, res.Stored)
		assert.Contains(t, res.Reason, "within tolerance")
		mockRepo.AssertCalled(t, "CreateReport", mock.Anything, mock.Anything)
		mockRepo.AssertNotCalled(t, "CreateHistoryEntry", mock.Anything, mock.Anything)
	})

	t.Run("Out-of-range score is rejected before any write", func(t *testing.T) {
		mockRepo := new(MockATSRepo)
		uc := newATSUsecase(mockRepo)

		_, err := uc.StoreScore(context.Background(), "user1", domain.StoreScoreRequest{
			OverallScore: score(140),
		})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "between 0 and 100")
		mockRepo.AssertNotCalled(t, "CreateReport", mock.Anything, mock.Anything)
	})

	t.Run("Missing score is rejected", func(t *testing.T) {
		mockRepo := new(MockATSRepo)
		uc := newATSUsecase(mockRepo)

		_, err := uc.StoreScore(context.Background(), "user1", domain.StoreScoreRequest{})
		assert.Error(t, err)
	})

	t.Run("History write failure degrades to stored=false with analysis id", func(t *testing.T) {
		mockRepo := new(MockATSRepo)
		mockRepo.On("LatestHistoryEntry", mock.Anything, "user1").Return(nil, nil)
		mockRepo.On("CreateReport", mock.Anything, mock.Anything).Return(nil)
		mockRepo.On("CreateHistoryEntry", mock.Anything, mock.Anything).Return(errors.New("connection reset"))

		uc := newATSUsecase(mockRepo)
		res, err := uc.StoreScore(context.Background(), "user1", domain.StoreScoreRequest{
			OverallScore: score(85),
		})
		assert.NoError(t, err)
		assert.False(t, res.Stored)
		assert.Equal(t, "Score accepted but history entry could not be persisted", res.Reason)
		assert.NotEmpty(t, res.AnalysisID)
	})

	t.Run("Report write failure fails the request", func(t *testing.T) {
		mockRepo := new(MockATSRepo)
		mockRepo.On("LatestHistoryEntry", mock.Anything, "user1").Return(nil, nil)
		mockRepo.On("CreateReport", mock.Anything, mock.Anything).Return(errors.New("down"))

		uc := newATSUsecase(mockRepo)
		_, err := uc.StoreScore(context.Background(), "user1", domain.StoreScoreRequest{
			OverallScore: score(85),
		})
		assert.Error(t, err)
	})
}

func TestHistoryFallbackParsing(t *testing.T) {
	mockRepo := new(MockATSRepo)
	mockRepo.On("ListReports", mock.Anything, "user1").Return([]domain.AnalysisReport{
		{
			ID:          "r1",
			ResumeTitle: "My Resume",
			JobTitle:    "Backend Role",
			Summary:     domain.ReportSummary{MatchScore: 91},
		},
		{
			ID:         "r2",
			ReportData: `{"version":1,"overall_score":88}`,
		},
		{
			ID:         "r3",
			ReportData: `{"matchScore":77}`,
		},
		{
			ID:         "r4",
			ReportData: `{{not json`,
		},
	}, nil)

	uc := newATSUsecase(mockRepo)
	items, err := uc.History(context.Background(), "user1")
	assert.NoError(t, err)
	assert.Len(t, items, 4)

	assert.Equal(t, 91.0, items[0].OverallScore)
	assert.Equal(t, "My Resume", items[0].ResumeTitle)

	assert.Equal(t, 88.0, items[1].OverallScore)
	assert.Equal(t, 77.0, items[2].OverallScore)

	// Unparseable payloads degrade to zero instead of failing the request.
	assert.Equal(t, 0.0, items[3].OverallScore)
	assert.Equal(t, "Untitled Resume", items[3].ResumeTitle)
	assert.Equal(t, "General Analysis", items[3].JobTitle)
}

func TestAnalysisOwnership(t *testing.T) {
	t.Run("Missing report maps to not found", func(t *testing.T) {
		mockRepo := new(MockATSRepo)
		mockRepo.On("GetReport", mock.Anything, "user1", "r9").Return(nil, nil)

		uc := newATSUsecase(mockRepo)
		_, err := uc.Analysis(context.Background(), "user1", "r9")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not found or not authorized")
	})

	t.Run("Delete of a foreign report is not found", func(t *testing.T) {
		mockRepo := new(MockATSRepo)
		mockRepo.On("DeleteReport", mock.Anything, "user1", "r9").Return(false, nil)

		uc := newATSUsecase(mockRepo)
		err := uc.DeleteAnalysis(context.Background(), "user1", "r9")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not authorized for deletion")
	})

	t.Run("Successful delete returns nil", func(t *testing.T) {
		mockRepo := new(MockATSRepo)
		mockRepo.On("DeleteReport", mock.Anything, "user1", "r1").Return(true, nil)

		uc := newATSUsecase(mockRepo)
		assert.NoError(t, uc.DeleteAnalysis(context.Background(), "user1", "r1"))
	})
}

func historyEntry(overall float64, age time.Duration) domain.ScoreHistoryEntry {
	return domain.ScoreHistoryEntry{
		OverallScore: overall,
		AnalysisDate: testNow.Add(-age),
	}
}

func TestScoreHistory(t *testing.T) {
	t.Run("Statistics cover the returned window", func(t *testing.T) {
		mockRepo := new(MockATSRepo)
		// Newest first, as the repository contract requires.
		mockRepo.On("ListHistory", mock.Anything, "user1", mock.Anything, 50).Return([]domain.ScoreHistoryEntry{
			historyEntry(90, 1*time.Hour),
			historyEntry(70, 2*time.Hour),
			historyEntry(80, 3*time.Hour),
		}, nil)

		uc := newATSUsecase(mockRepo)
		res, err := uc.ScoreHistory(context.Background(), "user1", "30d", 0)
		assert.NoError(t, err)
		assert.Equal(t, 3, res.Count)
		assert.Equal(t, "30d", res.Period)
		assert.Equal(t, 80.0, res.Statistics.AverageScore)
		assert.Equal(t, 90.0, res.Statistics.HighestScore)
		assert.Equal(t, 70.0, res.Statistics.LowestScore)
		// Newest minus oldest of the window.
		assert.Equal(t, 10.0, res.Statistics.Improvement)
	})

	t.Run("Bounded period passes a cutoff to the repository", func(t *testing.T) {
		mockRepo := new(MockATSRepo)
		expected := testNow.Add(-7 * 24 * time.Hour)
		mockRepo.On("ListHistory", mock.Anything, "user1", mock.MatchedBy(func(since *time.Time) bool {
			return since != nil && since.Equal(expected)
		}), 50).Return([]domain.ScoreHistoryEntry{}, nil)

		uc := newATSUsecase(mockRepo)
		_, err := uc.ScoreHistory(context.Background(), "user1", "7d", 0)
		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("All period queries without a cutoff", func(t *testing.T) {
		mockRepo := new(MockATSRepo)
		mockRepo.On("ListHistory", mock.Anything, "user1", (*time.Time)(nil), 50).Return(nil, nil)

		uc := newATSUsecase(mockRepo)
		res, err := uc.ScoreHistory(context.Background(), "user1", "", 0)
		assert.NoError(t, err)
		assert.Equal(t, "all", res.Period)
		assert.Equal(t, 0, res.Statistics.TotalEntries)
		assert.NotNil(t, res.History)
	})
}

func TestScoreTrends(t *testing.T) {
	t.Run("Empty history yields empty series", func(t *testing.T) {
		mockRepo := new(MockATSRepo)
		mockRepo.On("ListHistoryAsc", mock.Anything, "user1", 100).Return([]domain.ScoreHistoryEntry{}, nil)

		uc := newATSUsecase(mockRepo)
		res, err := uc.ScoreTrends(context.Background(), "user1")
		assert.NoError(t, err)
		assert.Empty(t, res.Trends)
		assert.Empty(t, res.Insights)
		assert.Equal(t, 0, res.TotalAnalyses)
	})

	t.Run("Deltas and category series", func(t *testing.T) {
		mockRepo := new(MockATSRepo)
		// Oldest first for trend computation.
		entries := []domain.ScoreHistoryEntry{
			{OverallScore: 60, AnalysisDate: testNow.Add(-3 * time.Hour), DetailedScores: map[string]float64{"keywords": 50, "skills": 0}},
			{OverallScore: 70, AnalysisDate: testNow.Add(-2 * time.Hour), DetailedScores: map[string]float64{"keywords": 65}},
			{OverallScore: 80, AnalysisDate: testNow.Add(-1 * time.Hour), DetailedScores: map[string]float64{"keywords": 62, "skills": 40}},
		}
		mockRepo.On("ListHistoryAsc", mock.Anything, "user1", 100).Return(entries, nil)

		uc := newATSUsecase(mockRepo)
		res, err := uc.ScoreTrends(context.Background(), "user1")
		assert.NoError(t, err)
		assert.Len(t, res.Trends, 3)
		assert.Equal(t, 0.0, res.Trends[0].Change)
		assert.Equal(t, 10.0, res.Trends[1].Change)

		keywords := res.CategoryTrends["keywords"]
		assert.Len(t, keywords, 3)
		assert.Equal(t, 15.0, keywords[1].Change)

		// Zero-valued entries are treated as unreported and excluded.
		skills := res.CategoryTrends["skills"]
		assert.Len(t, skills, 1)
		assert.Equal(t, 40.0, skills[0].Score)
	})

	t.Run("Recent improvement produces a positive insight", func(t *testing.T) {
		mockRepo := new(MockATSRepo)
		entries := []domain.ScoreHistoryEntry{
			{OverallScore: 50, AnalysisDate: testNow.Add(-6 * time.Hour)},
			{OverallScore: 60, AnalysisDate: testNow.Add(-5 * time.Hour)},
			{OverallScore: 60, AnalysisDate: testNow.Add(-4 * time.Hour)},
			{OverallScore: 60, AnalysisDate: testNow.Add(-3 * time.Hour)},
			{OverallScore: 60, AnalysisDate: testNow.Add(-2 * time.Hour)},
			{OverallScore: 60, AnalysisDate: testNow.Add(-1 * time.Hour)},
		}
		mockRepo.On("ListHistoryAsc", mock.Anything, "user1", 100).Return(entries, nil)

		uc := newATSUsecase(mockRepo)
		res, err := uc.ScoreTrends(context.Background(), "user1")
		assert.NoError(t, err)
		assert.Len(t, res.Insights, 1)
		assert.Equal(t, domain.InsightPositive, res.Insights[0].Type)
		assert.Contains(t, res.Insights[0].Message, "improved by 10 points")
	})
}

func TestConfig(t *testing.T) {
	uc := newATSUsecase(new(MockATSRepo))
	cfg := uc.Config()
	assert.Equal(t, 1.0, cfg.ScoreTolerance)
	assert.True(t, cfg.StoreOnlySignificantChanges)
	assert.Contains(t, cfg.Description, "at least 1%")
}

func TestExtractKeywords(t *testing.T) {
	uc := newATSUsecase(new(MockATSRepo))

	t.Run("Filters stop words, short words and duplicates", func(t *testing.T) {
		keywords, err := uc.ExtractKeywords("The senior Golang engineer will design scalable microservices and the engineer will own Golang deployments.")
		assert.NoError(t, err)
		assert.Equal(t, []string{"senior", "golang", "engineer", "design", "scalable", "microservices", "own", "deployments"}, keywords)
	})

	t.Run("Too-short input is rejected", func(t *testing.T) {
		_, err := uc.ExtractKeywords("short text")
		assert.Error(t, err)
	})

	t.Run("Result is capped at twenty keywords", func(t *testing.T) {
		text := "alpha bravo charlie delta echo foxtrot golf hotel india juliett kilo lima mike november oscar papa quebec romeo sierra tango uniform victor whiskey xray yankee zulu"
		keywords, err := uc.ExtractKeywords(text)
		assert.NoError(t, err)
		assert.Len(t, keywords, 20)
	})
}
