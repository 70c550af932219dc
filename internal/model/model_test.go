package model

import (
	"errors"
	"fmt"
	"testing"
)

func TestNormalizeSymbol(t *testing.T) {
	tests := []struct {
		in   string
		want Symbol
	}{
		{"aapl", "AAPL"},
		{"  brk.b\n", "BRK.B"},
		{"^gspc", "^GSPC"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := NormalizeSymbol(tt.in); got != tt.want {
			t.Errorf("NormalizeSymbol(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSymbolOrDefault(t *testing.T) {
	if got := Symbol("").OrDefault(DefaultSymbol); got != "AAPL" {
		t.Errorf("expected AAPL, got %q", got)
	}
	if got := Symbol("MSFT").OrDefault(DefaultSymbol); got != "MSFT" {
		t.Errorf("expected MSFT, got %q", got)
	}
}

func TestKindOf(t *testing.T) {
	fe := &FetchError{Kind: KindParse, Symbol: "AAPL", Err: errors.New("bad")}
	if got := KindOf(fe); got != KindParse {
		t.Errorf("expected PARSE, got %s", got)
	}
	if got := KindOf(fmt.Errorf("wrapped: %w", fe)); got != KindParse {
		t.Errorf("expected PARSE through wrapping, got %s", got)
	}
	if got := KindOf(errors.New("plain")); got != KindUnknown {
		t.Errorf("expected UNKNOWN, got %s", got)
	}
}

func TestFetchErrorMessages(t *testing.T) {
	tests := []struct {
		err  *FetchError
		want string
	}{
		{&FetchError{Kind: KindHTTPStatus, Symbol: "AAPL", StatusCode: 404}, "fetch AAPL: status 404"},
		{&FetchError{Kind: KindTransport, Symbol: "AAPL", Timeout: true, Err: errors.New("deadline")}, "fetch AAPL: timed out: deadline"},
		{&FetchError{Kind: KindSchema, Symbol: "AAPL", Err: ErrNoPriceData}, "fetch AAPL: no price data"},
		{&FetchError{Kind: KindSchema, Symbol: "AAPL"}, "fetch AAPL: SCHEMA"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestFetchErrorUnwrap(t *testing.T) {
	err := &FetchError{Kind: KindSchema, Err: fmt.Errorf("%w: empty result", ErrNoPriceData)}
	if !errors.Is(err, ErrNoPriceData) {
		t.Error("expected errors.Is to find ErrNoPriceData")
	}
	if errors.Is(err, ErrChartError) {
		t.Error("did not expect ErrChartError")
	}
}
