package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"PriceCheck/internal/model"
	"PriceCheck/internal/recorder"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	Time  time.Time
	Err   error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) Fetch(_ context.Context, symbol model.Symbol) (*model.PriceReading, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	ts := m.Time
	if ts.IsZero() {
		ts = time.Now().Truncate(time.Second)
	}
	return &model.PriceReading{
		Symbol: symbol,
		Price:  decimal.NewFromFloat(m.Price),
		Time:   ts,
		Source: m.Name(),
	}, nil
}

// Collector normalizes input, fetches a reading and records the outcome.
type Collector struct {
	Fetcher       Fetcher
	Recorder      recorder.Recorder
	RunID         string
	DefaultSymbol model.Symbol
}

// NewCollector creates a new Collector. A nil recorder records nothing.
func NewCollector(fetcher Fetcher, rec recorder.Recorder, runID string, defaultSymbol model.Symbol) *Collector {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Collector{
		Fetcher:       fetcher,
		Recorder:      rec,
		RunID:         runID,
		DefaultSymbol: defaultSymbol.OrDefault(model.DefaultSymbol),
	}
}

// Collect fetches the latest price for raw. Errors other than *model.FetchError
// are wrapped so callers can always switch on model.KindOf.
func (c *Collector) Collect(ctx context.Context, raw string) (*model.PriceReading, error) {
	symbol := model.NormalizeSymbol(raw).OrDefault(c.DefaultSymbol)
	entry := log.WithFields(log.Fields{"symbol": symbol, "source": c.Fetcher.Name()})

	reading, err := c.Fetcher.Fetch(ctx, symbol)
	if err != nil {
		var fe *model.FetchError
		if !errors.As(err, &fe) {
			err = &model.FetchError{Kind: model.KindUnknown, Symbol: symbol, Err: err}
		}
		kind := model.KindOf(err)
		entry.WithField("kind", kind).Debugf("fetch failed: %v", err)
		if rerr := c.Recorder.RecordFailure(c.RunID, symbol, kind, err.Error()); rerr != nil {
			entry.Errorf("record failure: %v", rerr)
		}
		return nil, err
	}

	entry.Debugf("fetched %s at %s", reading.Price, reading.Time.Format(time.RFC3339))
	if rerr := c.Recorder.RecordReading(c.RunID, reading); rerr != nil {
		entry.Errorf("record reading: %v", rerr)
	}
	return reading, nil
}

// String describes the collector for startup logs.
func (c *Collector) String() string {
	return fmt.Sprintf("collector(source=%s, default=%s)", c.Fetcher.Name(), c.DefaultSymbol)
}
