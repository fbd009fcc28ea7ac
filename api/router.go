package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/vgm-archiver/api/handlers"
	"github.com/yourusername/vgm-archiver/api/middleware"
	"github.com/yourusername/vgm-archiver/internal/domain"
)

// SetupRouter sets up the HTTP router for the report API.
func SetupRouter(store domain.ProgressStore, ledger domain.FailureLedger, log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))

	healthHandler := handlers.NewHealthHandler()
	router.GET("/health", healthHandler.Health)

	v1 := router.Group("/api/v1")
	{
		statusHandler := handlers.NewStatusHandler(store, ledger, log)
		v1.GET("/progress", statusHandler.ListProgress)
		v1.GET("/failures", statusHandler.ListFailures)
		v1.GET("/stats", statusHandler.GetStats)
	}

	return router
}
