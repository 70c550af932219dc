package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const chartPayload = `{"chart":{"result":[{"meta":{"currency":"USD"},"timestamp":[1714593600],
	"indicators":{"quote":[{"close":[189.8437]}]}}],"error":null}}`

type fakeYahoo struct {
	*httptest.Server
	mu    sync.Mutex
	paths []string
}

func newFakeYahoo(t *testing.T, status int, body string) *fakeYahoo {
	t.Helper()
	fy := &fakeYahoo{}
	fy.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fy.mu.Lock()
		fy.paths = append(fy.paths, r.URL.Path)
		fy.mu.Unlock()
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(fy.Close)
	return fy
}

func (fy *fakeYahoo) requested() []string {
	fy.mu.Lock()
	defer fy.mu.Unlock()
	return append([]string(nil), fy.paths...)
}

// setup isolates the run from the host environment and writes a config pointing at baseURL.
func setup(t *testing.T, baseURL, extra string) string {
	t.Helper()
	for _, k := range []string{
		"CONFIG_PATH", "PRICECHECK_SOURCE", "PRICECHECK_BASE_URL", "PRICECHECK_TIMEOUT_SEC",
		"PRICECHECK_DEFAULT_SYMBOL", "PRICECHECK_USER_AGENT", "SQLITE_PATH",
		"WATCH_CRON", "WATCH_SYMBOLS", "HTTPS_PROXY", "LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := fmt.Sprintf("data_source:\n  base_url: %s\n  timeout_sec: 2\nlog_level: error\n%s", baseURL, extra)
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path
}

func expectedTime() string {
	return time.Unix(1714593600, 0).Format("2006-01-02 15:04:05")
}

func TestRun_EmptyInputDefaultsToAAPL(t *testing.T) {
	fy := newFakeYahoo(t, http.StatusOK, chartPayload)
	cfgPath := setup(t, fy.URL, "")

	var out bytes.Buffer
	require.NoError(t, run(t.Context(), []string{"-config", cfgPath}, strings.NewReader(""), &out))

	require.Equal(t, []string{"/v8/finance/chart/AAPL"}, fy.requested())
	want := "Enter stock symbol (default: AAPL): \nNo input received. Using default: AAPL\n" +
		"\nSymbol: AAPL\nPrice:  $189.84\nTime:   " + expectedTime() + "\n"
	require.Equal(t, want, out.String())
}

func TestRun_BlankLineDefaultsToAAPL(t *testing.T) {
	fy := newFakeYahoo(t, http.StatusOK, chartPayload)
	cfgPath := setup(t, fy.URL, "")

	var out bytes.Buffer
	require.NoError(t, run(t.Context(), []string{"-config", cfgPath}, strings.NewReader("\n"), &out))
	require.Equal(t, []string{"/v8/finance/chart/AAPL"}, fy.requested())
	require.NotContains(t, out.String(), "No input received")
}

func TestRun_SymbolArgument(t *testing.T) {
	fy := newFakeYahoo(t, http.StatusOK, chartPayload)
	cfgPath := setup(t, fy.URL, "")

	var out bytes.Buffer
	require.NoError(t, run(t.Context(), []string{"-config", cfgPath, "msft"}, strings.NewReader(""), &out))
	require.Equal(t, []string{"/v8/finance/chart/MSFT"}, fy.requested())
	require.Contains(t, out.String(), "Symbol: MSFT\n")
	require.NotContains(t, out.String(), "Enter stock symbol")
}

func TestRun_HTTPErrorIsPrintedNotReturned(t *testing.T) {
	fy := newFakeYahoo(t, http.StatusNotFound, "{}")
	cfgPath := setup(t, fy.URL, "")

	var out bytes.Buffer
	require.NoError(t, run(t.Context(), []string{"-config", cfgPath, "-symbol", "nope"}, nil, &out))
	require.Equal(t, "Error: HTTP 404 received from Yahoo Finance.\n", out.String())
}

func TestRun_ParseErrorEchoesBody(t *testing.T) {
	fy := newFakeYahoo(t, http.StatusOK, "not json")
	cfgPath := setup(t, fy.URL, "")

	var out bytes.Buffer
	require.NoError(t, run(t.Context(), []string{"-config", cfgPath, "-symbol", "aapl"}, nil, &out))
	require.Equal(t, "Error: Failed to parse JSON. Raw response:\nnot json\n", out.String())
}

func TestRun_ChartError(t *testing.T) {
	fy := newFakeYahoo(t, http.StatusOK, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data"}}}`)
	cfgPath := setup(t, fy.URL, "")

	var out bytes.Buffer
	require.NoError(t, run(t.Context(), []string{"-config", cfgPath, "-symbol", "aapl"}, nil, &out))
	require.Equal(t, "Error: Yahoo Finance returned a chart error.\n", out.String())
}

func TestRun_SameOutputTwice(t *testing.T) {
	fy := newFakeYahoo(t, http.StatusOK, chartPayload)
	cfgPath := setup(t, fy.URL, "")

	var first, second bytes.Buffer
	require.NoError(t, run(t.Context(), []string{"-config", cfgPath, "-symbol", "aapl"}, nil, &first))
	require.NoError(t, run(t.Context(), []string{"-config", cfgPath, "-symbol", "aapl"}, nil, &second))
	require.Equal(t, first.String(), second.String())
}

func TestRun_HistoryFromSQLite(t *testing.T) {
	fy := newFakeYahoo(t, http.StatusOK, chartPayload)
	dbPath := filepath.Join(t.TempDir(), "data", "history.db")
	cfgPath := setup(t, fy.URL, fmt.Sprintf("database:\n  sqlite_path: %s\n", dbPath))

	var out bytes.Buffer
	require.NoError(t, run(t.Context(), []string{"-config", cfgPath, "-symbol", "aapl"}, nil, &out))
	require.NoError(t, run(t.Context(), []string{"-config", cfgPath, "-symbol", "msft"}, nil, &out))

	out.Reset()
	require.NoError(t, run(t.Context(), []string{"-config", cfgPath, "-history", "5"}, nil, &out))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	require.True(t, strings.HasPrefix(lines[0], "MSFT"))
	require.True(t, strings.HasPrefix(lines[1], "AAPL"))
	require.Contains(t, lines[0], "$189.84")
}

func TestRun_HistoryListsFailures(t *testing.T) {
	fy := newFakeYahoo(t, http.StatusNotFound, "{}")
	dbPath := filepath.Join(t.TempDir(), "history.db")
	cfgPath := setup(t, fy.URL, fmt.Sprintf("database:\n  sqlite_path: %s\n", dbPath))

	var out bytes.Buffer
	require.NoError(t, run(t.Context(), []string{"-config", cfgPath, "-symbol", "nope"}, nil, &out))

	out.Reset()
	require.NoError(t, run(t.Context(), []string{"-config", cfgPath, "-history", "5"}, nil, &out))
	require.Contains(t, out.String(), "No readings recorded.\n")
	require.Contains(t, out.String(), "\nRecent failures:\n")
	require.Contains(t, out.String(), "NOPE")
	require.Contains(t, out.String(), "HTTP_STATUS")
	require.Contains(t, out.String(), "status 404")
}

func TestRun_MockSource(t *testing.T) {
	cfgPath := setup(t, "http://127.0.0.1:1", "")

	var out bytes.Buffer
	require.NoError(t, run(t.Context(), []string{"-config", cfgPath, "-source", "mock", "ibm"}, nil, &out))
	require.Contains(t, out.String(), "Symbol: IBM\nPrice:  $100.00\n")
}

func TestRun_InvalidSource(t *testing.T) {
	cfgPath := setup(t, "http://127.0.0.1:1", "")

	var out bytes.Buffer
	err := run(t.Context(), []string{"-config", cfgPath, "-source", "bloomberg"}, nil, &out)
	require.ErrorContains(t, err, "config validation")
}
