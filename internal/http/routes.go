package http

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func NewRouter(handler *Handler, authMiddleware gin.HandlerFunc, environment string) *gin.Engine {
	if environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	}))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")

	// Public: citizens submit without accounts, and the leaderboard is the
	// point of the whole exercise.
	api.POST("/reports", handler.submitReport)
	api.POST("/capture", handler.stashCapture)
	api.GET("/leaderboard", handler.getLeaderboard)
	api.GET("/drivers/:vehicle/reports", handler.getDriverReports)

	protected := api.Group("/")
	protected.Use(authMiddleware)
	protected.GET("/reports", handler.listReports)
	protected.GET("/reports/pending", handler.pendingReports)
	protected.GET("/reports/export", handler.exportReports)
	protected.GET("/reports/:id", handler.getReport)
	protected.POST("/reports/:id/decision", handler.decideReport)
	protected.GET("/reports/:id/export/pdf", handler.exportReportPDF)
	protected.GET("/claims", handler.listClaims)
	protected.POST("/claims/:id/flag", handler.flagClaim)
	protected.POST("/claims/:id/approve", handler.approveClaim)

	return router
}
