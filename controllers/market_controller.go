package controllers

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"rrg-backend/services"
	"rrg-backend/services/fyers"
	"rrg-backend/services/ingest"
)

// MarketController handles ingestion triggers and market data queries
type MarketController struct {
	pipeline   *ingest.Pipeline
	marketData *services.MarketDataService
	client     *fyers.Client
	hub        *services.MarketHub
}

// NewMarketController creates a new market controller. hub may be nil when
// running without the websocket push channel.
func NewMarketController(pipeline *ingest.Pipeline, marketData *services.MarketDataService, client *fyers.Client, hub *services.MarketHub) *MarketController {
	return &MarketController{
		pipeline:   pipeline,
		marketData: marketData,
		client:     client,
		hub:        hub,
	}
}

// IngestMarketData triggers one ingestion run
// POST /api/v1/market/ingest
func (mc *MarketController) IngestMarketData(c *gin.Context) {
	result, err := mc.pipeline.Run()
	if err != nil {
		log.Printf("Ingestion failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   err.Error(),
			"details": "Check server logs for more information",
		})
		return
	}

	message := fmt.Sprintf("Stored %d quotes (%d skipped)", result.Stored, result.Skipped)
	if result.Stored == 0 {
		message = "No data fetched"
	}

	mc.broadcastLatest()

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"stored_count": result.Stored,
		"skipped":      result.Skipped,
		"message":      message,
	})
}

// marketDataRequest is the optional query body
type marketDataRequest struct {
	Timeframe string `json:"timeframe"`
}

// GetMarketData returns the latest row per symbol within the timeframe
// POST /api/v1/market/data
func (mc *MarketController) GetMarketData(c *gin.Context) {
	// No body or invalid JSON means the default timeframe
	var request marketDataRequest
	_ = c.ShouldBindJSON(&request)

	rows, err := mc.marketData.LatestRows(request.Timeframe)
	if err != nil {
		log.Printf("Market data query failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   err.Error(),
			"details": "Check server logs for more information",
		})
		return
	}

	c.JSON(http.StatusOK, rows)
}

// RefreshToken ensures a valid access token exists, refreshing if needed
// POST /api/v1/token/refresh
func (mc *MarketController) RefreshToken(c *gin.Context) {
	token, err := mc.client.GetValidToken()
	if err != nil {
		log.Printf("Token refresh failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   err.Error(),
			"details": "Check server logs for more information",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"access_token": token,
		"message":      "Valid access token retrieved",
	})
}

// broadcastLatest pushes the refreshed rows to websocket subscribers
func (mc *MarketController) broadcastLatest() {
	if mc.hub == nil {
		return
	}
	rows, err := mc.marketData.LatestRows("")
	if err != nil {
		log.Printf("Failed to load rows for broadcast: %v", err)
		return
	}
	mc.hub.BroadcastRows(rows)
}
