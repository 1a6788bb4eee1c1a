package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"resume-portfolio-backend/internal/domain"
	"resume-portfolio-backend/pkg/apperror"
)

const skillFacetLimit = 100

type candidateUsecase struct {
	repo domain.CandidateRepository
	now  func() time.Time
}

// NewCandidateUsecase creates the candidate search usecase. The clock is
// injected because experience-years derivation depends on the current time.
func NewCandidateUsecase(repo domain.CandidateRepository, now func() time.Time) domain.CandidateUsecase {
	if now == nil {
		now = time.Now
	}
	return &candidateUsecase{repo: repo, now: now}
}

// Search resolves a multi-criteria request into a ranked, paginated page of
// candidates plus facet metadata. There is no pre-built index; the joined
// read model is filtered, scored and sorted ad hoc per request.
func (u *candidateUsecase) Search(ctx context.Context, filter domain.SearchFilter) (*domain.SearchResult, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit == 0 {
		filter.Limit = 20
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	if filter.MinProficiency < 1 {
		filter.MinProficiency = 1
	}
	if filter.SortBy == "" {
		filter.SortBy = domain.SortRelevance
	}

	joined, err := u.repo.ListJoined(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidates: %w", err)
	}

	now := u.now()
	candidates := make([]domain.Candidate, 0, len(joined))
	for _, c := range joined {
		deriveCandidate(&c, now)
		if !u.matches(c, filter) {
			continue
		}
		c.RelevanceScore = relevanceScore(c, filter.Skills)
		candidates = append(candidates, c)
	}

	sortCandidates(candidates, filter.SortBy)

	total := int64(len(candidates))
	totalPages := int(total) / filter.Limit
	if int(total)%filter.Limit > 0 {
		totalPages++
	}

	offset := (filter.Page - 1) * filter.Limit
	if offset > len(candidates) {
		offset = len(candidates)
	}
	end := offset + filter.Limit
	if end > len(candidates) {
		end = len(candidates)
	}
	page := candidates[offset:end]

	facets, err := u.repo.SkillFacets(ctx, skillFacetLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load skill facets: %w", err)
	}
	if facets == nil {
		facets = []domain.SkillFacet{}
	}

	return &domain.SearchResult{
		Candidates: page,
		Pagination: domain.Pagination{
			Page:        filter.Page,
			Limit:       filter.Limit,
			Total:       total,
			TotalPages:  totalPages,
			HasNextPage: filter.Page < totalPages,
			HasPrevPage: filter.Page > 1,
		},
		Filters: domain.SearchFacets{
			AvailableSkills: facets,
			Categories:      domain.SkillCategories,
		},
	}, nil
}

// matches applies every supplied criterion as a logical AND.
func (u *candidateUsecase) matches(c domain.Candidate, filter domain.SearchFilter) bool {
	if len(filter.Skills) > 0 && !hasQualifyingSkill(c.Skills, filter.Skills, filter.MinProficiency) {
		return false
	}

	if filter.ExperienceMin > 0 && c.ExperienceYears < float64(filter.ExperienceMin) {
		return false
	}

	if filter.Location != "" {
		if c.Portfolio == nil || !containsFold(c.Portfolio.Location, filter.Location) {
			return false
		}
	}

	if filter.Availability != "" {
		if c.Portfolio == nil || c.Portfolio.Availability != filter.Availability {
			return false
		}
	}

	if filter.SearchQuery != "" {
		q := filter.SearchQuery
		hit := containsFold(c.DisplayName, q) || containsFold(c.Username, q)
		if !hit && c.Portfolio != nil {
			hit = containsFold(c.Portfolio.Bio, q) || containsFold(c.Portfolio.JobTitle, q)
		}
		if !hit {
			return false
		}
	}

	if len(filter.Categories) > 0 {
		hit := false
		for _, s := range c.Skills {
			for _, cat := range filter.Categories {
				if s.Category == cat {
					hit = true
					break
				}
			}
		}
		if !hit {
			return false
		}
	}

	return true
}

// sortCandidates orders the result set by the requested key. Ties beyond the
// stated keys keep their incoming order (stable sort).
func sortCandidates(candidates []domain.Candidate, sortBy string) {
	switch sortBy {
	case domain.SortExperience:
		sort.SliceStable(candidates, func(i, j int) bool {
			if candidates[i].ExperienceYears != candidates[j].ExperienceYears {
				return candidates[i].ExperienceYears > candidates[j].ExperienceYears
			}
			return candidates[i].RelevanceScore > candidates[j].RelevanceScore
		})
	case domain.SortSkills:
		sort.SliceStable(candidates, func(i, j int) bool {
			if candidates[i].SkillsCount != candidates[j].SkillsCount {
				return candidates[i].SkillsCount > candidates[j].SkillsCount
			}
			return candidates[i].AvgSkillProficiency > candidates[j].AvgSkillProficiency
		})
	case domain.SortName:
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].DisplayName < candidates[j].DisplayName
		})
	case domain.SortNewest:
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
		})
	default: // relevance
		sort.SliceStable(candidates, func(i, j int) bool {
			if candidates[i].RelevanceScore != candidates[j].RelevanceScore {
				return candidates[i].RelevanceScore > candidates[j].RelevanceScore
			}
			return candidates[i].AvgSkillProficiency > candidates[j].AvgSkillProficiency
		})
	}
}

// Stats aggregates dashboard numbers: total candidates, experience level
// buckets, the ten most popular skills and per-category skill counts.
func (u *candidateUsecase) Stats(ctx context.Context) (*domain.CandidateStats, error) {
	total, err := u.repo.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count candidates: %w", err)
	}

	joined, err := u.repo.ListJoined(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidates: %w", err)
	}

	now := u.now()
	buckets := map[string]int{}
	for _, c := range joined {
		years := experienceYears(c.Experiences, now)
		buckets[experienceLevel(years)]++
	}

	levels := make([]domain.ExperienceLevelCount, 0, 4)
	for _, label := range []string{domain.LevelEntry, domain.LevelJunior, domain.LevelMid, domain.LevelSenior} {
		if n := buckets[label]; n > 0 {
			levels = append(levels, domain.ExperienceLevelCount{Level: label, Count: n})
		}
	}

	facets, err := u.repo.SkillFacets(ctx, 10)
	if err != nil {
		return nil, fmt.Errorf("failed to load popular skills: %w", err)
	}
	popular := make([]domain.PopularSkill, 0, len(facets))
	for _, f := range facets {
		popular = append(popular, domain.PopularSkill{Name: f.Name, Count: f.Count, Category: f.Category})
	}

	categories, err := u.repo.CategoryFacets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load skill categories: %w", err)
	}
	if categories == nil {
		categories = []domain.CategoryCount{}
	}

	return &domain.CandidateStats{
		TotalCandidates:  total,
		ExperienceLevels: levels,
		PopularSkills:    popular,
		SkillCategories:  categories,
	}, nil
}

func experienceLevel(years float64) string {
	switch {
	case years < 1:
		return domain.LevelEntry
	case years < 3:
		return domain.LevelJunior
	case years < 5:
		return domain.LevelMid
	default:
		return domain.LevelSenior
	}
}

// Profile returns the full joined candidate view. Credential and internal
// identity fields are never selected by the repository, so nothing needs to
// be stripped here.
func (u *candidateUsecase) Profile(ctx context.Context, candidateID string) (*domain.Candidate, error) {
	candidate, err := u.repo.GetJoinedByID(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate: %w", err)
	}
	if candidate == nil {
		return nil, apperror.NotFound("Candidate not found")
	}
	return candidate, nil
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
