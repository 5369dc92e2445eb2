package fyers

import (
	"errors"
	"fmt"
	"log"

	"rrg-backend/models"
)

// WithReauthRetry runs call with the given token. On ErrUnauthorized it
// refreshes exactly once and retries with the new token; any other outcome
// is returned as-is. The returned token is the one the call succeeded (or
// last ran) with, so batch callers can carry a refreshed token forward.
func WithReauthRetry(token string, call func(token string) error, refresh func() (string, error)) (string, error) {
	err := call(token)
	if !errors.Is(err, ErrUnauthorized) {
		return token, err
	}

	newToken, refreshErr := refresh()
	if refreshErr != nil {
		return token, fmt.Errorf("reauth failed: %w", refreshErr)
	}
	return newToken, call(newToken)
}

// QuoteResult is one successfully fetched quote
type QuoteResult struct {
	Instrument    models.Instrument
	Price         float64
	ChangePercent float64
}

// FetchQuotes fetches a live quote for every instrument in the universe.
// A rejected token triggers a single refresh-and-retry per instrument; any
// other failure skips that instrument without aborting the batch.
func (c *Client) FetchQuotes(token string, instruments []models.Instrument) (results []QuoteResult, skipped int) {
	for _, instrument := range instruments {
		var price, changePercent float64

		symbol := instrument.Symbol
		newToken, err := WithReauthRetry(token, func(tok string) error {
			p, chp, err := c.FetchQuote(tok, symbol)
			if err != nil {
				return err
			}
			price, changePercent = p, chp
			return nil
		}, c.RefreshAccessToken)
		token = newToken

		if err != nil {
			log.Printf("Skipping %s: %v", symbol, err)
			skipped++
			continue
		}

		results = append(results, QuoteResult{
			Instrument:    instrument,
			Price:         price,
			ChangePercent: changePercent,
		})
	}
	return results, skipped
}
