package collector

import (
	"context"

	"PriceCheck/internal/model"
)

// Fetcher retrieves the latest price reading for a symbol.
// Failures are returned as *model.FetchError.
type Fetcher interface {
	Fetch(ctx context.Context, symbol model.Symbol) (*model.PriceReading, error)
	Name() string
}
