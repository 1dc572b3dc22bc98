package router

import (
	"github.com/gin-gonic/gin"

	"seikin/internal/config"
	"seikin/internal/handler"
	"seikin/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(cfg *config.Config, analysisH *handler.AnalysisHandler) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(cfg.Log))
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	r.GET("/health", analysisH.Health)
	r.POST("/page-count", analysisH.PageCount)
	r.POST("/convert", analysisH.Convert)
	r.POST("/analyze", analysisH.Analyze)
	r.POST("/analyze-full", analysisH.AnalyzeFull)
	r.POST("/export", analysisH.Export)

	return r
}
