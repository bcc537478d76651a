package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/delivery-service/internal/middleware"
	"github.com/SAP-F-2025/delivery-service/internal/observability"
	"github.com/SAP-F-2025/delivery-service/internal/services"
	"github.com/SAP-F-2025/delivery-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type HandlerManager struct {
	deliveryHandler *DeliveryHandler
}

func NewHandlerManager(
	deliveryService services.DeliveryService,
	exportService services.ExportService,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		deliveryHandler: NewDeliveryHandler(deliveryService, exportService, logger),
	}
}

// SetupRoutes sets up all API routes. auth attaches the caller to every
// /api/v1 request.
func (hm *HandlerManager) SetupRoutes(router *gin.Engine, auth gin.HandlerFunc) {
	router.GET("/health", HealthCheck)
	router.GET("/metrics", observability.MetricsHandler())

	v1 := router.Group("/api/v1", auth)
	{
		assessments := v1.Group("/assessments")
		{
			assessments.POST("/:id/enter", hm.deliveryHandler.Enter)
			assessments.GET("/:id/submissions/export", middleware.RequireAdmin(), hm.deliveryHandler.ExportSubmissions)
		}

		submissions := v1.Group("/submissions")
		{
			submissions.GET("/:id/resume", hm.deliveryHandler.Resume)
			submissions.GET("/:id/pages/:selector", hm.deliveryHandler.GetPage)
			submissions.POST("/:id/pages/:selector", hm.deliveryHandler.SubmitPage)
			submissions.GET("/:id/instructions/:section_id", hm.deliveryHandler.SectionInstructions)
			submissions.GET("/:id/toc", hm.deliveryHandler.Toc)
			submissions.POST("/:id/finish", hm.deliveryHandler.Finish)
			submissions.GET("/:id/review", hm.deliveryHandler.Review)
			submissions.GET("/:id/expiration", hm.deliveryHandler.Expiration)
		}
	}
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "delivery-service",
	})
}
