package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"rrg-backend/config"
	"rrg-backend/controllers"
	"rrg-backend/middleware"
	"rrg-backend/routes"
	"rrg-backend/scheduler"
	"rrg-backend/services"
	"rrg-backend/services/analysis"
	"rrg-backend/services/fyers"
	"rrg-backend/services/ingest"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	store, err := services.NewStoreFromConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}

	client := fyers.NewClient(cfg, store)
	calculator := analysis.NewRSCalculator(cfg.BenchmarkPrice)
	pipeline := ingest.NewPipeline(client, calculator, store, cfg.Instruments)
	marketData := services.NewMarketDataService(store)
	hub := services.NewMarketHub()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())

	mc := controllers.NewMarketController(pipeline, marketData, client, hub)
	routes.SetupRoutes(router, mc, hub, cfg.SupabaseJWTSecret)

	jobs := scheduler.NewScheduler(pipeline, client)
	jobs.Start()
	defer jobs.Stop()

	log.Printf("Starting RRG backend on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
