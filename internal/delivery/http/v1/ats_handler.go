package v1

import (
	"net/http"
	"strconv"

	"resume-portfolio-backend/internal/delivery/http/response"
	"resume-portfolio-backend/internal/domain"
	"resume-portfolio-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

type ATSHandler struct {
	atsUC domain.ATSUsecase
}

// NewATSHandler registers ATS score tracking routes
func NewATSHandler(protected *gin.RouterGroup, atsUC domain.ATSUsecase) {
	handler := &ATSHandler{atsUC: atsUC}

	ats := protected.Group("/ats")
	{
		ats.POST("/store-score", handler.StoreScore)
		ats.GET("/history", handler.History)
		ats.GET("/analysis/:analysisId", handler.Analysis)
		ats.DELETE("/analysis/:analysisId", handler.DeleteAnalysis)
		ats.GET("/score-history", handler.ScoreHistory)
		ats.GET("/score-trends", handler.ScoreTrends)
		ats.GET("/score-config", handler.ScoreConfig)
		ats.POST("/keywords", handler.Keywords)
	}
}

// StoreScore godoc
// @Summary      Store an ATS score
// @Description  Persists the analysis report and, when materially different from the previous score, a history entry
// @Tags         ats
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      domain.StoreScoreRequest  true  "Score submission"
// @Success      201   {object}  response.Response
// @Success      200   {object}  response.Response
// @Failure      400   {object}  response.Response
// @Router       /ats/store-score [post]
func (h *ATSHandler) StoreScore(c *gin.Context) {
	var req domain.StoreScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest("Invalid request body"))
		return
	}

	result, err := h.atsUC.StoreScore(c, currentUserID(c), req)
	if err != nil {
		c.Error(err)
		return
	}

	if !result.Stored {
		response.Success(c, http.StatusOK, "Score unchanged from previous analysis, not stored.", result)
		return
	}
	response.Success(c, http.StatusCreated, "ATS score stored successfully.", result)
}

// History godoc
// @Summary      List analysis reports
// @Description  Returns all analysis reports for the authenticated user, newest first
// @Tags         ats
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /ats/history [get]
func (h *ATSHandler) History(c *gin.Context) {
	history, err := h.atsUC.History(c, currentUserID(c))
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "ATS history retrieved", gin.H{
		"count":   len(history),
		"history": history,
	})
}

// Analysis godoc
// @Summary      Get one analysis report
// @Tags         ats
// @Produce      json
// @Security     BearerAuth
// @Param        analysisId  path      string  true  "Analysis ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /ats/analysis/{analysisId} [get]
func (h *ATSHandler) Analysis(c *gin.Context) {
	report, err := h.atsUC.Analysis(c, currentUserID(c), c.Param("analysisId"))
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "ATS analysis report retrieved successfully.", report)
}

// DeleteAnalysis godoc
// @Summary      Delete one analysis report
// @Tags         ats
// @Produce      json
// @Security     BearerAuth
// @Param        analysisId  path      string  true  "Analysis ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /ats/analysis/{analysisId} [delete]
func (h *ATSHandler) DeleteAnalysis(c *gin.Context) {
	if err := h.atsUC.DeleteAnalysis(c, currentUserID(c), c.Param("analysisId")); err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "ATS analysis report deleted successfully.", nil)
}

// ScoreHistory godoc
// @Summary      Score history with statistics
// @Tags         ats
// @Produce      json
// @Security     BearerAuth
// @Param        period  query  string  false  "Trailing window (7d, 30d, 90d, 1y, all). Default: all"
// @Param        limit   query  int     false  "Maximum entries (default: 50)"
// @Success      200  {object}  response.Response
// @Router       /ats/score-history [get]
func (h *ATSHandler) ScoreHistory(c *gin.Context) {
	period := c.DefaultQuery("period", "all")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	result, err := h.atsUC.ScoreHistory(c, currentUserID(c), period, limit)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "ATS score history retrieved", result)
}

// ScoreTrends godoc
// @Summary      Score trends and insights
// @Tags         ats
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /ats/score-trends [get]
func (h *ATSHandler) ScoreTrends(c *gin.Context) {
	result, err := h.atsUC.ScoreTrends(c, currentUserID(c))
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "ATS score trends retrieved", result)
}

// ScoreConfig godoc
// @Summary      Score storage configuration
// @Tags         ats
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /ats/score-config [get]
func (h *ATSHandler) ScoreConfig(c *gin.Context) {
	response.Success(c, http.StatusOK, "Score configuration retrieved", h.atsUC.Config())
}

type keywordRequest struct {
	Text string `json:"text" binding:"required"`
}

// Keywords godoc
// @Summary      Extract keywords from text
// @Description  Stateless keyword extraction; nothing is stored
// @Tags         ats
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      keywordRequest  true  "Text to analyze"
// @Success      200   {object}  response.Response
// @Failure      400   {object}  response.Response
// @Router       /ats/keywords [post]
func (h *ATSHandler) Keywords(c *gin.Context) {
	var req keywordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest("Invalid input text for keyword extraction."))
		return
	}

	keywords, err := h.atsUC.ExtractKeywords(req.Text)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Keywords extracted successfully.", gin.H{"keywords": keywords})
}

func currentUserID(c *gin.Context) string {
	return c.GetString(string(domain.KeyUserID))
}
