package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func NewRouter(handler *Handler, authMiddleware gin.HandlerFunc, healthCheck func() error, env string) *gin.Engine {
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"*"},
		ExposeHeaders:   []string{"Content-Type"},
		MaxAge:          12 * time.Hour,
	}))

	router.GET("/healthz", func(c *gin.Context) {
		if healthCheck != nil {
			if err := healthCheck(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	protected := router.Group("/api/v1")
	protected.Use(authMiddleware)
	{
		protected.POST("/complaints", handler.createComplaint)
		protected.GET("/complaints", handler.listComplaints)
		protected.GET("/complaints/:id", handler.getComplaint)
		protected.PATCH("/complaints/:id", handler.updateComplaint)
		protected.DELETE("/complaints/:id", handler.deleteComplaint)
		protected.GET("/complaints/:id/events", handler.listComplaintEvents)

		protected.POST("/complaints/:id/acknowledge", handler.acknowledgeComplaint)
		protected.POST("/complaints/:id/assign", handler.assignHandler)
		protected.POST("/complaints/:id/investigate", handler.startInvestigation)
		protected.POST("/complaints/:id/draft-response", handler.draftResponse)
		protected.POST("/complaints/:id/outcome", handler.recordOutcome)
		protected.POST("/complaints/:id/final-response", handler.issueFinalResponse)
		protected.POST("/complaints/:id/close", handler.closeComplaint)
		protected.POST("/complaints/:id/close-non-reportable", handler.closeNonReportable)
		protected.POST("/complaints/:id/escalate", handler.escalateComplaint)
		protected.POST("/complaints/:id/reopen", handler.reopenComplaint)
		protected.POST("/complaints/:id/fos", handler.referToFOS)

		protected.POST("/complaints/:id/communications", handler.addCommunication)
		protected.POST("/complaints/:id/tasks", handler.addTask)
		protected.POST("/complaints/:id/redress", handler.addRedress)
		protected.PATCH("/complaints/:id/redress/:rid", handler.updateRedress)
	}

	return router
}
