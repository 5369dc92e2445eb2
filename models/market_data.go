package models

import (
	"time"

	"gorm.io/gorm"
)

// Credential represents a cached Fyers access token
type Credential struct {
	ID          string    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id,omitempty"`
	AccessToken string    `gorm:"not null" json:"access_token"`
	ExpiresAt   time.Time `gorm:"index" json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName maps Credential to the fyers_tokens table
func (Credential) TableName() string {
	return "fyers_tokens"
}

// Valid reports whether the credential has not yet expired
func (c *Credential) Valid() bool {
	return time.Now().Before(c.ExpiresAt)
}

// Instrument describes one symbol in the configured fetch universe
type Instrument struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Sector   string `json:"sector"`
	Industry string `json:"industry"`
}

// QuoteRecord represents one fetched quote with derived RS indicators.
// Records are append-only: one row per instrument per ingestion run.
type QuoteRecord struct {
	ID         uint      `gorm:"primaryKey" json:"id,omitempty"`
	Symbol     string    `gorm:"index:idx_symbol_fetched" json:"symbol"`
	Name       string    `json:"name"`
	Sector     string    `json:"sector"`
	Industry   string    `json:"industry"`
	Price      float64   `json:"price"`
	Change     float64   `json:"change"`
	RSRatio    float64   `json:"rs_ratio"`
	RSMomentum float64   `json:"rs_momentum"`
	FetchedAt  time.Time `gorm:"index:idx_symbol_fetched" json:"fetched_at"`
}

// TableName maps QuoteRecord to the market_data table
func (QuoteRecord) TableName() string {
	return "market_data"
}

// PresentationRow is the latest-per-symbol view returned to the dashboard.
// Field labels match what the chart and table components expect.
type PresentationRow struct {
	Symbol     string  `json:"symbol"`
	Name       string  `json:"name"`
	Sector     string  `json:"sector"`
	Industry   string  `json:"industry"`
	Price      float64 `json:"price"`
	Change     float64 `json:"change"`
	RSRatio    float64 `json:"RS-Ratio"`
	RSMomentum float64 `json:"RS-Momentum"`
	Visible    bool    `json:"visible"`
}

// DefaultUniverse is the fetch universe used when no instruments file is provided
var DefaultUniverse = []Instrument{
	{Symbol: "NSE:SBIN-EQ", Name: "SBI", Sector: "Banking", Industry: "PSU Bank"},
	{Symbol: "NSE:RELIANCE-EQ", Name: "Reliance", Sector: "Energy", Industry: "Oil & Gas"},
	{Symbol: "NSE:TCS-EQ", Name: "TCS", Sector: "IT", Industry: "Software"},
	{Symbol: "NSE:INFY-EQ", Name: "Infosys", Sector: "IT", Industry: "Software"},
	{Symbol: "NSE:HDFCBANK-EQ", Name: "HDFC Bank", Sector: "Banking", Industry: "Private Bank"},
	{Symbol: "NSE:ICICIBANK-EQ", Name: "ICICI Bank", Sector: "Banking", Industry: "Private Bank"},
}

// MigrateMarketModels runs database migrations for market data models
func MigrateMarketModels(db *gorm.DB) error {
	return db.AutoMigrate(
		&Credential{},
		&QuoteRecord{},
	)
}
