package v1

import (
	"net/http"

	"resume-portfolio-backend/config"
	"resume-portfolio-backend/internal/delivery/http/middleware"
	"resume-portfolio-backend/internal/delivery/http/response"
	"resume-portfolio-backend/internal/domain"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type RouterDeps struct {
	CandidateUC domain.CandidateUsecase
	ATSUC       domain.ATSUsecase
	Config      *config.Config
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	// Global Middlewares
	r.Use(middleware.CORSMiddleware(deps.Config)) // CORS must be first!
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.RequestID())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimit(middleware.RateLimitConfig{
		Limit:  deps.Config.RateLimitGlobalThreshold,
		Window: deps.Config.RateLimitWindow,
	}))

	v1 := r.Group("/v1")

	// Health Check
	v1.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, "System operational", nil)
	})

	// Swagger
	v1.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Protected routes
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(deps.Config))
	{
		NewCandidateHandler(protected, deps.CandidateUC)
		NewATSHandler(protected, deps.ATSUC)
	}

	return r
}
