// Package http wires the gin router.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sealpay/internal/infrastructure/metrics"
	"sealpay/internal/interfaces/http/handlers"
	"sealpay/internal/interfaces/http/middleware"
	"sealpay/internal/shared/logger"
)

// NewRouter builds the HTTP surface: the payment-intent and coupon APIs
// plus health and metrics endpoints.
func NewRouter(
	mode string,
	intentHandler *handlers.IntentHandler,
	couponHandler *handlers.CouponHandler,
	metricsRegistry *metrics.Registry,
	log logger.Interface,
) *gin.Engine {
	if mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(log),
	)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if metricsRegistry != nil {
		router.GET("/metrics", gin.WrapH(metricsRegistry.Handler()))
	}

	v1 := router.Group("/api/v1")
	{
		intents := v1.Group("/payment-intents")
		{
			intents.POST("", intentHandler.Create)
			intents.GET("/:id", intentHandler.Get)
			intents.POST("/:id/verify", intentHandler.Verify)
		}

		coupons := v1.Group("/coupons")
		{
			coupons.POST("", couponHandler.Seal)
			coupons.GET("/:id", couponHandler.Get)
			coupons.POST("/:id/reveal", couponHandler.Reveal)
			coupons.POST("/:id/claim", couponHandler.Claim)
		}
	}

	return router
}
