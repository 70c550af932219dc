package console

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"PriceCheck/internal/model"
)

// TimeLayout is how reading times are shown, in local time.
const TimeLayout = "2006-01-02 15:04:05"

// FormatReading formats a reading as the three-line console block.
func FormatReading(r *model.PriceReading) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("\nSymbol: %s\n", r.Symbol))
	b.WriteString(fmt.Sprintf("Price:  $%s\n", formatPrice(r.Price)))
	b.WriteString(fmt.Sprintf("Time:   %s\n", r.Time.Local().Format(TimeLayout)))
	return b.String()
}

// formatPrice rounds the float64 the price was built from, not its shortest
// decimal form, so ties such as 2.675 print as 2.67.
func formatPrice(p decimal.Decimal) string {
	return strconv.FormatFloat(p.InexactFloat64(), 'f', 2, 64)
}

// FormatError turns a fetch failure into the message shown to the user.
func FormatError(err error) string {
	var fe *model.FetchError
	if !errors.As(err, &fe) {
		return fmt.Sprintf("Unexpected error: %v\n", err)
	}

	switch fe.Kind {
	case model.KindHTTPStatus:
		return fmt.Sprintf("Error: HTTP %d received from Yahoo Finance.\n", fe.StatusCode)
	case model.KindParse:
		return fmt.Sprintf("Error: Failed to parse JSON. Raw response:\n%s\n", fe.Body)
	case model.KindSchema:
		if errors.Is(fe, model.ErrNoPriceData) {
			return "Error: Yahoo Finance returned no price data.\n"
		}
		return "Error: Yahoo Finance returned a chart error.\n"
	case model.KindTransport:
		if fe.Timeout {
			return "Error: Request timed out.\n"
		}
	}
	msg := err.Error()
	if fe.Err != nil {
		msg = fe.Err.Error()
	}
	return fmt.Sprintf("Unexpected error: %s\n", msg)
}

// Render formats whichever outcome a fetch produced.
func Render(r *model.PriceReading, err error) string {
	if err != nil {
		return FormatError(err)
	}
	return FormatReading(r)
}

// FormatHistory lists recorded readings, newest first, with their age relative to now.
func FormatHistory(entries []model.HistoryEntry, now time.Time) string {
	if len(entries) == 0 {
		return "No readings recorded.\n"
	}
	var b strings.Builder
	for _, e := range entries {
		r := e.Reading
		b.WriteString(fmt.Sprintf("%-8s $%-12s %s  (%s, %s)\n",
			r.Symbol, formatPrice(r.Price), r.Time.Local().Format(TimeLayout),
			r.Source, humanize.RelTime(e.RecordedAt, now, "ago", "from now")))
	}
	return b.String()
}

// FormatFailures lists recorded fetch failures, newest first. Nothing is
// printed when there are none.
func FormatFailures(entries []model.FailureEntry, now time.Time) string {
	if len(entries) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\nRecent failures:\n")
	for _, f := range entries {
		b.WriteString(fmt.Sprintf("%-8s %-12s %s  (%s)\n",
			f.Symbol, f.Kind, f.Message, humanize.RelTime(f.RecordedAt, now, "ago", "from now")))
	}
	return b.String()
}
