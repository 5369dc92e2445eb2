package routes

import (
	"time"

	"github.com/gin-gonic/gin"

	"rrg-backend/controllers"
	"rrg-backend/middleware"
	"rrg-backend/services"
)

// SetupRoutes sets up all API routes
func SetupRoutes(router *gin.Engine, mc *controllers.MarketController, hub *services.MarketHub, jwtSecret string) {
	ingestLimiter := middleware.NewRateLimiter(10, time.Minute)

	// API v1 group
	api := router.Group("/api/v1")
	{
		market := api.Group("/market")
		{
			market.POST("/data", mc.GetMarketData)
			market.POST("/ingest",
				middleware.JWTAuthMiddleware(jwtSecret),
				ingestLimiter.Middleware(),
				mc.IngestMarketData)
		}

		token := api.Group("/token")
		{
			token.POST("/refresh", middleware.JWTAuthMiddleware(jwtSecret), mc.RefreshToken)
		}
	}

	// Websocket push channel for the dashboard
	if hub != nil {
		router.GET("/ws/market", func(c *gin.Context) {
			hub.ServeWS(c.Writer, c.Request)
		})
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "RRG backend is running",
		})
	})
}
