package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"PriceCheck/internal/model"
)

const (
	DefaultYahooBaseURL = "https://query1.finance.yahoo.com"
	DefaultTimeout      = 5 * time.Second
)

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=collector_test -destination=mock_http_client_test.go -source=yahoo.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// YahooFetcher implements Fetcher using the Yahoo Finance chart API.
type YahooFetcher struct {
	baseURL   string
	client    HTTPClient
	timeout   time.Duration
	userAgent string
	symbolMap map[model.Symbol]model.Symbol // maps user symbol to Yahoo ticker
}

// YahooOption configures a YahooFetcher.
type YahooOption func(*YahooFetcher)

// WithBaseURL overrides the API host, mainly for tests.
func WithBaseURL(baseURL string) YahooOption {
	return func(f *YahooFetcher) {
		f.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient replaces the proxy-aware default client.
func WithHTTPClient(client HTTPClient) YahooOption {
	return func(f *YahooFetcher) {
		f.client = client
	}
}

// WithTimeout bounds each request. Non-positive values keep the default.
func WithTimeout(d time.Duration) YahooOption {
	return func(f *YahooFetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithUserAgent sets a User-Agent header. Empty leaves the client default.
func WithUserAgent(ua string) YahooOption {
	return func(f *YahooFetcher) {
		f.userAgent = ua
	}
}

// WithSymbolMap adds aliases such as SPX500 -> ^GSPC.
func WithSymbolMap(aliases map[string]string) YahooOption {
	return func(f *YahooFetcher) {
		for k, v := range aliases {
			f.symbolMap[model.NormalizeSymbol(k)] = model.NormalizeSymbol(v)
		}
	}
}

// NewYahooFetcher creates a new Yahoo Finance fetcher with optional proxy support.
func NewYahooFetcher(proxyURL string, opts ...YahooOption) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		} else {
			log.Warnf("ignoring invalid proxy %q: %v", proxyURL, err)
		}
	}
	f := &YahooFetcher{
		baseURL:   DefaultYahooBaseURL,
		client:    &http.Client{Transport: transport},
		timeout:   DefaultTimeout,
		symbolMap: map[model.Symbol]model.Symbol{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol model.Symbol) model.Symbol {
	if mapped, ok := f.symbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// chartResponse is the subset of the chart API payload we read.
// Chart is a pointer so a missing "chart" key can be told apart from an empty one.
type chartResponse struct {
	Chart *struct {
		Result []struct {
			Meta struct {
				Currency string `json:"currency"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error json.RawMessage `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (f *YahooFetcher) chartURL(symbol model.Symbol) string {
	return fmt.Sprintf("%s/v8/finance/chart/%s", f.baseURL, url.PathEscape(f.yahooSymbol(symbol).String()))
}

// Fetch performs a single GET against the chart endpoint and returns the last close.
func (f *YahooFetcher) Fetch(ctx context.Context, symbol model.Symbol) (*model.PriceReading, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.chartURL(symbol), nil)
	if err != nil {
		return nil, &model.FetchError{Kind: model.KindUnknown, Symbol: symbol, Err: err}
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &model.FetchError{Kind: model.KindTransport, Symbol: symbol, Timeout: isTimeout(err), Err: fmt.Errorf("yahoo fetch: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &model.FetchError{Kind: model.KindTransport, Symbol: symbol, Timeout: isTimeout(err), Err: fmt.Errorf("yahoo read body: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &model.FetchError{Kind: model.KindHTTPStatus, Symbol: symbol, StatusCode: resp.StatusCode, Body: string(body)}
	}

	return parseChart(symbol, body)
}

func parseChart(symbol model.Symbol, body []byte) (*model.PriceReading, error) {
	var chart chartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, &model.FetchError{Kind: model.KindParse, Symbol: symbol, Body: string(body), Err: fmt.Errorf("yahoo decode: %w", err)}
	}

	schemaErr := func(cause error, format string, args ...any) error {
		return &model.FetchError{Kind: model.KindSchema, Symbol: symbol, Err: fmt.Errorf("%w: %s", cause, fmt.Sprintf(format, args...))}
	}

	if chart.Chart == nil {
		return nil, schemaErr(model.ErrChartError, "missing chart object")
	}
	if raw := chart.Chart.Error; len(raw) > 0 && string(raw) != "null" {
		var ce chartError
		if err := json.Unmarshal(raw, &ce); err == nil && ce.Description != "" {
			return nil, schemaErr(model.ErrChartError, "%s: %s", ce.Code, ce.Description)
		}
		return nil, schemaErr(model.ErrChartError, "%s", string(raw))
	}
	if len(chart.Chart.Result) == 0 {
		return nil, schemaErr(model.ErrNoPriceData, "empty result")
	}

	result := chart.Chart.Result[0]
	if len(result.Timestamp) == 0 {
		return nil, schemaErr(model.ErrNoPriceData, "empty timestamp sequence")
	}
	if len(result.Indicators.Quote) == 0 {
		return nil, schemaErr(model.ErrNoPriceData, "missing quote block")
	}
	closes := result.Indicators.Quote[0].Close
	if len(closes) == 0 {
		return nil, schemaErr(model.ErrNoPriceData, "empty close sequence")
	}
	last := closes[len(closes)-1]
	if last == nil {
		return nil, schemaErr(model.ErrNoPriceData, "latest close is null")
	}

	return &model.PriceReading{
		Symbol:   symbol,
		Price:    decimal.NewFromFloat(*last),
		Currency: result.Meta.Currency,
		Time:     time.Unix(result.Timestamp[len(result.Timestamp)-1], 0),
		Source:   "yahoo",
	}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
