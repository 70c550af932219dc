package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/quote"
	"github.com/shopspring/decimal"

	"PriceCheck/internal/model"
)

// QuoteFetcher implements Fetcher on top of the finance-go quote client.
type QuoteFetcher struct {
	Timeout time.Duration
	get     func(symbol string) (*finance.Quote, error)
}

// NewQuoteFetcher creates a fetcher that bounds each lookup by timeout.
func NewQuoteFetcher(timeout time.Duration) *QuoteFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &QuoteFetcher{Timeout: timeout, get: quote.Get}
}

func (f *QuoteFetcher) Name() string { return "quote" }

type quoteResult struct {
	q   *finance.Quote
	err error
}

// Fetch looks up the regular market price. The finance-go client takes no
// context, so the lookup runs in its own goroutine and is abandoned on timeout.
func (f *QuoteFetcher) Fetch(ctx context.Context, symbol model.Symbol) (*model.PriceReading, error) {
	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	done := make(chan quoteResult, 1)
	go func() {
		q, err := f.get(symbol.String())
		done <- quoteResult{q: q, err: err}
	}()

	var res quoteResult
	select {
	case <-ctx.Done():
		return nil, &model.FetchError{
			Kind:    model.KindTransport,
			Symbol:  symbol,
			Timeout: errors.Is(ctx.Err(), context.DeadlineExceeded),
			Err:     fmt.Errorf("quote lookup: %w", ctx.Err()),
		}
	case res = <-done:
	}

	if res.err != nil {
		return nil, &model.FetchError{Kind: model.KindTransport, Symbol: symbol, Err: fmt.Errorf("quote lookup: %w", res.err)}
	}
	if res.q == nil || res.q.RegularMarketPrice <= 0 {
		return nil, &model.FetchError{Kind: model.KindSchema, Symbol: symbol, Err: fmt.Errorf("%w: no quote for %s", model.ErrNoPriceData, symbol)}
	}

	return &model.PriceReading{
		Symbol: symbol,
		Price:  decimal.NewFromFloat(res.q.RegularMarketPrice),
		Time:   time.Unix(int64(res.q.RegularMarketTime), 0),
		Source: "quote",
	}, nil
}
