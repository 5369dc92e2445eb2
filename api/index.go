package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rrg-backend/config"
	"rrg-backend/controllers"
	"rrg-backend/middleware"
	"rrg-backend/routes"
	"rrg-backend/services"
	"rrg-backend/services/analysis"
	"rrg-backend/services/fyers"
	"rrg-backend/services/ingest"
)

var router *gin.Engine

func init() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic("Failed to load configuration")
	}

	store, err := services.NewStoreFromConfig(cfg)
	if err != nil {
		panic("Failed to initialize store: " + err.Error())
	}

	client := fyers.NewClient(cfg, store)
	calculator := analysis.NewRSCalculator(cfg.BenchmarkPrice)
	pipeline := ingest.NewPipeline(client, calculator, store, cfg.Instruments)
	marketData := services.NewMarketDataService(store)

	gin.SetMode(gin.ReleaseMode)

	router = gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())

	// No websocket hub in serverless mode; connections would not survive
	// between invocations.
	mc := controllers.NewMarketController(pipeline, marketData, client, nil)
	routes.SetupRoutes(router, mc, nil, cfg.SupabaseJWTSecret)
}

// Handler is the Vercel serverless function handler
func Handler(w http.ResponseWriter, r *http.Request) {
	router.ServeHTTP(w, r)
}
