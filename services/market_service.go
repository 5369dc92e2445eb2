package services

import (
	"fmt"
	"strings"
	"time"

	"rrg-backend/models"
)

// Timeframe windows for the market data query
const (
	TimeframeDaily   = "daily"
	TimeframeWeekly  = "weekly"
	TimeframeMonthly = "monthly"
)

// TimeframeWindow maps a requested timeframe to its lookback window.
// Unknown or empty values default to weekly.
func TimeframeWindow(timeframe string) time.Duration {
	switch strings.ToLower(timeframe) {
	case TimeframeDaily:
		return 24 * time.Hour
	case TimeframeMonthly:
		return 30 * 24 * time.Hour
	default:
		return 7 * 24 * time.Hour
	}
}

// MarketDataService shapes stored quote records for the dashboard
type MarketDataService struct {
	quotes QuoteStore
}

// NewMarketDataService creates a new market data service
func NewMarketDataService(quotes QuoteStore) *MarketDataService {
	return &MarketDataService{quotes: quotes}
}

// LatestRows returns the most recent record per symbol within the requested
// timeframe, shaped for presentation. An empty window yields an empty slice.
func (s *MarketDataService) LatestRows(timeframe string) ([]models.PresentationRow, error) {
	cutoff := time.Now().Add(-TimeframeWindow(timeframe))

	records, err := s.quotes.QuotesSince(cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to read market data: %w", err)
	}

	// Records arrive newest first; keep the first occurrence per symbol.
	seen := make(map[string]bool)
	rows := make([]models.PresentationRow, 0, len(records))
	for _, record := range records {
		if seen[record.Symbol] {
			continue
		}
		seen[record.Symbol] = true
		rows = append(rows, presentationRow(record))
	}

	return rows, nil
}

// presentationRow relabels a stored record for the display layer
func presentationRow(record models.QuoteRecord) models.PresentationRow {
	return models.PresentationRow{
		Symbol:     record.Symbol,
		Name:       record.Name,
		Sector:     record.Sector,
		Industry:   record.Industry,
		Price:      record.Price,
		Change:     record.Change,
		RSRatio:    record.RSRatio,
		RSMomentum: record.RSMomentum,
		Visible:    true,
	}
}
