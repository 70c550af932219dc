package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultSymbol is used when no symbol is given.
const DefaultSymbol Symbol = "AAPL"

// Symbol is a ticker as sent to the data source, always uppercase.
type Symbol string

// NormalizeSymbol trims and uppercases raw user input. Blank input yields "".
func NormalizeSymbol(raw string) Symbol {
	return Symbol(strings.ToUpper(strings.TrimSpace(raw)))
}

// OrDefault returns s, or def when s is empty.
func (s Symbol) OrDefault(def Symbol) Symbol {
	if s == "" {
		return def
	}
	return s
}

func (s Symbol) String() string { return string(s) }

// PriceReading is the most recent close reported for a symbol.
type PriceReading struct {
	Symbol   Symbol
	Price    decimal.Decimal
	Currency string // empty when the source does not report one
	Time     time.Time
	Source   string
}

// FailureEntry is a failed fetch as stored by a recorder.
type FailureEntry struct {
	RunID      string
	Symbol     Symbol
	Kind       ErrorKind
	Message    string
	RecordedAt time.Time
}

// HistoryEntry is a PriceReading as stored by a recorder.
type HistoryEntry struct {
	RunID      string
	Reading    PriceReading
	RecordedAt time.Time
}
