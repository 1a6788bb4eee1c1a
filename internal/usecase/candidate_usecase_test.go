package usecase_test

import (
	"context"
	"testing"
	"time"

	"resume-portfolio-backend/internal/domain"
	"resume-portfolio-backend/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

// Mock Repositories
type MockCandidateRepo struct {
	mock.Mock
}

func (m *MockCandidateRepo) ListJoined(ctx context.Context) ([]domain.Candidate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Candidate), args.Error(1)
}

func (m *MockCandidateRepo) GetJoinedByID(ctx context.Context, id string) (*domain.Candidate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Candidate), args.Error(1)
}

func (m *MockCandidateRepo) SkillFacets(ctx context.Context, limit int) ([]domain.SkillFacet, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SkillFacet), args.Error(1)
}

func (m *MockCandidateRepo) CategoryFacets(ctx context.Context) ([]domain.CategoryCount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CategoryCount), args.Error(1)
}

func (m *MockCandidateRepo) CountUsers(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func experienceSince(years float64) []domain.Experience {
	start := testNow.Add(-time.Duration(years * 365 * 24 * float64(time.Hour)))
	return []domain.Experience{{Company: "Acme", Position: "Dev", StartDate: start}}
}

func searchFixture() []domain.Candidate {
	return []domain.Candidate{
		{
			ID:          "u1",
			Username:    "alice",
			DisplayName: "Alice",
			Skills: []domain.Skill{
				{Name: "React", Category: "Frontend", Proficiency: 9},
				{Name: "Go", Category: "Backend", Proficiency: 7},
			},
			Experiences: experienceSince(6),
			Projects:    []domain.Project{{Title: "shop"}},
			Portfolio:   &domain.Portfolio{JobTitle: "Frontend Engineer", Location: "Berlin, Germany", Availability: domain.AvailabilityAvailable, Bio: "building UIs"},
		},
		{
			ID:          "u2",
			Username:    "bob",
			DisplayName: "Bob",
			Skills: []domain.Skill{
				{Name: "React", Category: "Frontend", Proficiency: 3},
			},
			Experiences: experienceSince(1.5),
			Portfolio:   &domain.Portfolio{Location: "Paris", Availability: domain.AvailabilityOpen},
		},
		{
			ID:          "u3",
			Username:    "carol",
			DisplayName: "Carol",
			Skills: []domain.Skill{
				{Name: "Python", Category: "Languages", Proficiency: 8},
			},
			Experiences: experienceSince(4),
		},
	}
}

func TestSearchSkillFilter(t *testing.T) {
	mockRepo := new(MockCandidateRepo)
	mockRepo.On("ListJoined", mock.Anything).Return(searchFixture(), nil)
	mockRepo.On("SkillFacets", mock.Anything, 100).Return([]domain.SkillFacet{{Name: "React", Category: "Frontend", Count: 2}}, nil)

	uc := usecase.NewCandidateUsecase(mockRepo, fixedNow)

	t.Run("Proficiency threshold must be met by the matched skill", func(t *testing.T) {
		res, err := uc.Search(context.Background(), domain.SearchFilter{
			Skills:         []string{"react"},
			MinProficiency: 5,
		})
		assert.NoError(t, err)
		assert.Len(t, res.Candidates, 1)
		assert.Equal(t, "u1", res.Candidates[0].ID)
		assert.Greater(t, res.Candidates[0].RelevanceScore, 0.0)
	})

	t.Run("Default threshold admits any proficiency", func(t *testing.T) {
		res, err := uc.Search(context.Background(), domain.SearchFilter{
			Skills: []string{"react"},
		})
		assert.NoError(t, err)
		assert.Len(t, res.Candidates, 2)
		// Alice ranks above Bob on relevance.
		assert.Equal(t, "u1", res.Candidates[0].ID)
		assert.Equal(t, "u2", res.Candidates[1].ID)
	})

	t.Run("Facets accompany every result", func(t *testing.T) {
		res, err := uc.Search(context.Background(), domain.SearchFilter{Skills: []string{"react"}})
		assert.NoError(t, err)
		assert.Len(t, res.Filters.AvailableSkills, 1)
		assert.Equal(t, domain.SkillCategories, res.Filters.Categories)
	})
}

func TestSearchCriteriaAreANDed(t *testing.T) {
	mockRepo := new(MockCandidateRepo)
	mockRepo.On("ListJoined", mock.Anything).Return(searchFixture(), nil)
	mockRepo.On("SkillFacets", mock.Anything, 100).Return([]domain.SkillFacet{}, nil)

	uc := usecase.NewCandidateUsecase(mockRepo, fixedNow)

	t.Run("Location substring is case-insensitive", func(t *testing.T) {
		res, err := uc.Search(context.Background(), domain.SearchFilter{Location: "berlin"})
		assert.NoError(t, err)
		assert.Len(t, res.Candidates, 1)
		assert.Equal(t, "u1", res.Candidates[0].ID)
	})

	t.Run("Availability is an exact match", func(t *testing.T) {
		res, err := uc.Search(context.Background(), domain.SearchFilter{Availability: domain.AvailabilityOpen})
		assert.NoError(t, err)
		assert.Len(t, res.Candidates, 1)
		assert.Equal(t, "u2", res.Candidates[0].ID)
	})

	t.Run("Conflicting criteria yield an empty page, not an error", func(t *testing.T) {
		res, err := uc.Search(context.Background(), domain.SearchFilter{
			Skills:   []string{"python"},
			Location: "Berlin",
		})
		assert.NoError(t, err)
		assert.Empty(t, res.Candidates)
		assert.Equal(t, int64(0), res.Pagination.Total)
	})

	t.Run("Free-text query searches name, bio and job title", func(t *testing.T) {
		res, err := uc.Search(context.Background(), domain.SearchFilter{SearchQuery: "building"})
		assert.NoError(t, err)
		assert.Len(t, res.Candidates, 1)
		assert.Equal(t, "u1", res.Candidates[0].ID)
	})
}

func TestSearchSortAndPagination(t *testing.T) {
	mockRepo := new(MockCandidateRepo)
	mockRepo.On("ListJoined", mock.Anything).Return(searchFixture(), nil)
	mockRepo.On("SkillFacets", mock.Anything, 100).Return([]domain.SkillFacet{}, nil)

	uc := usecase.NewCandidateUsecase(mockRepo, fixedNow)

	t.Run("Sort by experience descending", func(t *testing.T) {
		res, err := uc.Search(context.Background(), domain.SearchFilter{SortBy: domain.SortExperience})
		assert.NoError(t, err)
		assert.Equal(t, []string{"u1", "u3", "u2"}, ids(res.Candidates))
	})

	t.Run("Sort by name ascending", func(t *testing.T) {
		res, err := uc.Search(context.Background(), domain.SearchFilter{SortBy: domain.SortName})
		assert.NoError(t, err)
		assert.Equal(t, []string{"u1", "u2", "u3"}, ids(res.Candidates))
	})

	t.Run("Pagination metadata reflects the filtered set", func(t *testing.T) {
		res, err := uc.Search(context.Background(), domain.SearchFilter{Limit: 2, Page: 2, SortBy: domain.SortName})
		assert.NoError(t, err)
		assert.Len(t, res.Candidates, 1)
		assert.Equal(t, int64(3), res.Pagination.Total)
		assert.Equal(t, 2, res.Pagination.TotalPages)
		assert.False(t, res.Pagination.HasNextPage)
		assert.True(t, res.Pagination.HasPrevPage)
	})

	t.Run("Page beyond the end is empty but well-formed", func(t *testing.T) {
		res, err := uc.Search(context.Background(), domain.SearchFilter{Limit: 2, Page: 9})
		assert.NoError(t, err)
		assert.Empty(t, res.Candidates)
		assert.Equal(t, int64(3), res.Pagination.Total)
	})
}

func ids(candidates []domain.Candidate) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.ID)
	}
	return out
}

func TestStats(t *testing.T) {
	mockRepo := new(MockCandidateRepo)
	mockRepo.On("CountUsers", mock.Anything).Return(int64(4), nil)
	mockRepo.On("ListJoined", mock.Anything).Return([]domain.Candidate{
		{ID: "a", Experiences: experienceSince(0.5)},
		{ID: "b", Experiences: experienceSince(2)},
		{ID: "c", Experiences: experienceSince(4)},
		{ID: "d", Experiences: experienceSince(7)},
	}, nil)
	mockRepo.On("SkillFacets", mock.Anything, 10).Return([]domain.SkillFacet{
		{Name: "React", Category: "Frontend", Count: 3},
	}, nil)
	mockRepo.On("CategoryFacets", mock.Anything).Return([]domain.CategoryCount{
		{Category: "Frontend", Count: 3},
	}, nil)

	uc := usecase.NewCandidateUsecase(mockRepo, fixedNow)
	stats, err := uc.Stats(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalCandidates)
	assert.Equal(t, []domain.ExperienceLevelCount{
		{Level: domain.LevelEntry, Count: 1},
		{Level: domain.LevelJunior, Count: 1},
		{Level: domain.LevelMid, Count: 1},
		{Level: domain.LevelSenior, Count: 1},
	}, stats.ExperienceLevels)
	assert.Equal(t, []domain.PopularSkill{{Name: "React", Count: 3, Category: "Frontend"}}, stats.PopularSkills)
}

func TestProfile(t *testing.T) {
	t.Run("Unknown candidate returns not found", func(t *testing.T) {
		mockRepo := new(MockCandidateRepo)
		mockRepo.On("GetJoinedByID", mock.Anything, "ghost").Return(nil, nil)

		uc := usecase.NewCandidateUsecase(mockRepo, fixedNow)
		_, err := uc.Profile(context.Background(), "ghost")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "Candidate not found")
	})

	t.Run("Existing candidate is returned as-is", func(t *testing.T) {
		mockRepo := new(MockCandidateRepo)
		mockRepo.On("GetJoinedByID", mock.Anything, "u1").Return(&domain.Candidate{ID: "u1", Username: "alice"}, nil)

		uc := usecase.NewCandidateUsecase(mockRepo, fixedNow)
		candidate, err := uc.Profile(context.Background(), "u1")
		assert.NoError(t, err)
		assert.Equal(t, "alice", candidate.Username)
	})
}
