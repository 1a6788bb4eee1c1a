package v1

import (
	"net/http"
	"strconv"
	"strings"

	"resume-portfolio-backend/internal/delivery/http/response"
	"resume-portfolio-backend/internal/domain"

	"github.com/gin-gonic/gin"
)

type CandidateHandler struct {
	candidateUC domain.CandidateUsecase
}

// NewCandidateHandler registers candidate search routes
func NewCandidateHandler(protected *gin.RouterGroup, candidateUC domain.CandidateUsecase) {
	handler := &CandidateHandler{candidateUC: candidateUC}

	candidates := protected.Group("/candidates")
	{
		candidates.GET("/search", handler.Search)
		candidates.GET("/stats", handler.Stats)
		candidates.GET("/:id", handler.Profile)
	}
}

// Search godoc
// @Summary      Search candidates
// @Description  Returns a ranked, paginated list of candidates plus facet metadata
// @Tags         candidates
// @Produce      json
// @Security     BearerAuth
// @Param        skills          query  string  false  "Comma-separated skill names (case-insensitive)"
// @Param        categories      query  string  false  "Comma-separated skill categories"
// @Param        experience      query  int     false  "Minimum experience in years"
// @Param        location        query  string  false  "Location substring match"
// @Param        availability    query  string  false  "Availability (available, open_to_opportunities, not_available)"
// @Param        minProficiency  query  int     false  "Minimum proficiency on matched skills (default: 1)"
// @Param        searchQuery     query  string  false  "Free text over name, username, bio, job title"
// @Param        sortBy          query  string  false  "Sort key (relevance, experience, skills, name, newest)"
// @Param        page            query  int     false  "Page number (default: 1)"
// @Param        limit           query  int     false  "Items per page (default: 20, max: 100)"
// @Success      200  {object}  response.Response
// @Failure      401  {object}  response.Response
// @Router       /candidates/search [get]
func (h *CandidateHandler) Search(c *gin.Context) {
	filter := domain.SearchFilter{}

	if skills := c.Query("skills"); skills != "" {
		filter.Skills = splitCSV(skills)
	}
	if categories := c.Query("categories"); categories != "" {
		filter.Categories = splitCSV(categories)
	}
	if exp := c.Query("experience"); exp != "" {
		if v, err := strconv.Atoi(exp); err == nil {
			filter.ExperienceMin = v
		}
	}
	if prof := c.Query("minProficiency"); prof != "" {
		if v, err := strconv.Atoi(prof); err == nil {
			filter.MinProficiency = v
		}
	}
	filter.Location = c.Query("location")
	filter.Availability = c.Query("availability")
	filter.SearchQuery = c.Query("searchQuery")
	filter.SortBy = c.DefaultQuery("sortBy", domain.SortRelevance)
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))

	result, err := h.candidateUC.Search(c, filter)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Candidates retrieved", result)
}

// Stats godoc
// @Summary      Candidate statistics
// @Description  Returns dashboard aggregates: totals, experience levels, popular skills
// @Tags         candidates
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /candidates/stats [get]
func (h *CandidateHandler) Stats(c *gin.Context) {
	stats, err := h.candidateUC.Stats(c)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Candidate statistics retrieved", stats)
}

// Profile godoc
// @Summary      Candidate profile
// @Description  Returns the full joined candidate view
// @Tags         candidates
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Candidate ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /candidates/{id} [get]
func (h *CandidateHandler) Profile(c *gin.Context) {
	candidate, err := h.candidateUC.Profile(c, c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Candidate profile retrieved", candidate)
}

// splitCSV splits a comma-separated query value, trimming whitespace and
// dropping empty items.
func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
