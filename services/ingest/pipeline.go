package ingest

import (
	"fmt"
	"log"
	"time"

	"rrg-backend/models"
	"rrg-backend/services"
	"rrg-backend/services/analysis"
	"rrg-backend/services/fyers"
)

// Result summarizes one ingestion run
type Result struct {
	Fetched int `json:"fetched"`
	Skipped int `json:"skipped"`
	Stored  int `json:"stored_count"`
}

// Pipeline orchestrates one ingestion run: obtain token, fetch quotes,
// derive indicators, persist the batch
type Pipeline struct {
	client      *fyers.Client
	calculator  *analysis.RSCalculator
	quotes      services.QuoteStore
	instruments []models.Instrument
}

// NewPipeline creates an ingestion pipeline over the given collaborators
func NewPipeline(client *fyers.Client, calculator *analysis.RSCalculator, quotes services.QuoteStore, instruments []models.Instrument) *Pipeline {
	return &Pipeline{
		client:      client,
		calculator:  calculator,
		quotes:      quotes,
		instruments: instruments,
	}
}

// Run executes one ingestion. Per-instrument fetch failures only shrink the
// stored batch; token and persistence failures fail the run.
func (p *Pipeline) Run() (*Result, error) {
	start := time.Now()

	token, err := p.client.GetValidToken()
	if err != nil {
		return nil, fmt.Errorf("failed to obtain access token: %w", err)
	}

	quotes, skipped := p.client.FetchQuotes(token, p.instruments)

	fetchedAt := time.Now().UTC()
	records := make([]models.QuoteRecord, 0, len(quotes))
	for _, quote := range quotes {
		rsRatio, rsMomentum := p.calculator.Derive(quote.Price, quote.ChangePercent)
		records = append(records, models.QuoteRecord{
			Symbol:     quote.Instrument.Symbol,
			Name:       quote.Instrument.Name,
			Sector:     quote.Instrument.Sector,
			Industry:   quote.Instrument.Industry,
			Price:      quote.Price,
			Change:     quote.ChangePercent,
			RSRatio:    rsRatio,
			RSMomentum: rsMomentum,
			FetchedAt:  fetchedAt,
		})
	}

	if len(records) > 0 {
		if err := p.quotes.InsertQuotes(records); err != nil {
			return nil, fmt.Errorf("failed to store %d quote records: %w", len(records), err)
		}
	}

	result := &Result{
		Fetched: len(records),
		Skipped: skipped,
		Stored:  len(records),
	}
	log.Printf("Ingestion completed: stored=%d skipped=%d duration=%s",
		result.Stored, result.Skipped, time.Since(start))
	return result, nil
}
