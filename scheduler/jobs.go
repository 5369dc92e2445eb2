package scheduler

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"rrg-backend/services/fyers"
	"rrg-backend/services/ingest"
)

// Scheduler manages scheduled jobs
type Scheduler struct {
	cron     *gocron.Scheduler
	pipeline *ingest.Pipeline
	client   *fyers.Client
}

// NewScheduler creates a new scheduler instance
func NewScheduler(pipeline *ingest.Pipeline, client *fyers.Client) *Scheduler {
	return &Scheduler{
		cron:     gocron.NewScheduler(marketLocation()),
		pipeline: pipeline,
		client:   client,
	}
}

// Start starts all scheduled jobs
func (s *Scheduler) Start() {
	log.Println("Starting scheduler...")

	// Ingest quotes every 5 minutes during trading hours
	s.cron.Every(5).Minutes().Do(func() {
		if isMarketOpen() {
			s.runIngestion()
		}
	})

	// Warm up the access token before market open
	s.cron.Every(1).Day().At("08:45").Do(func() {
		if _, err := s.client.GetValidToken(); err != nil {
			log.Printf("Token warmup failed: %v", err)
		}
	})

	s.cron.StartAsync()
	log.Println("Scheduler started successfully")
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("Scheduler stopped")
}

// runIngestion executes one ingestion run
func (s *Scheduler) runIngestion() {
	log.Println("Running scheduled ingestion...")
	result, err := s.pipeline.Run()
	if err != nil {
		log.Printf("Scheduled ingestion failed: %v", err)
		return
	}
	log.Printf("Scheduled ingestion stored %d quotes (%d skipped)", result.Stored, result.Skipped)
}

// marketLocation returns the NSE trading timezone
func marketLocation() *time.Location {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		return time.FixedZone("IST", 5*3600+1800)
	}
	return loc
}

// isMarketOpen reports whether NSE is currently trading
func isMarketOpen() bool {
	now := time.Now().In(marketLocation())

	if now.Weekday() == time.Saturday || now.Weekday() == time.Sunday {
		return false
	}

	// NSE trading hours: 9:15 - 15:30 IST
	minutes := now.Hour()*60 + now.Minute()
	return minutes >= 9*60+15 && minutes < 15*60+30
}
