package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a fetch failed.
type ErrorKind string

const (
	KindTransport  ErrorKind = "TRANSPORT"
	KindHTTPStatus ErrorKind = "HTTP_STATUS"
	KindParse      ErrorKind = "PARSE"
	KindSchema     ErrorKind = "SCHEMA"
	KindUnknown    ErrorKind = "UNKNOWN"
)

var (
	// ErrChartError means the payload had no chart object or carried an error marker.
	ErrChartError = errors.New("chart error")
	// ErrNoPriceData means the chart was well formed but held no usable close.
	ErrNoPriceData = errors.New("no price data")
)

// FetchError is returned by every Fetcher on failure.
type FetchError struct {
	Kind       ErrorKind
	Symbol     Symbol
	StatusCode int    // set for KindHTTPStatus
	Timeout    bool   // set for KindTransport when the deadline fired
	Body       string // raw response body for KindParse
	Err        error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case KindHTTPStatus:
		return fmt.Sprintf("fetch %s: status %d", e.Symbol, e.StatusCode)
	case KindTransport:
		if e.Timeout {
			return fmt.Sprintf("fetch %s: timed out: %v", e.Symbol, e.Err)
		}
	}
	if e.Err == nil {
		return fmt.Sprintf("fetch %s: %s", e.Symbol, e.Kind)
	}
	return fmt.Sprintf("fetch %s: %v", e.Symbol, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// KindOf reports the kind of err. Errors that are not a *FetchError are KindUnknown.
func KindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}
