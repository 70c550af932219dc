package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"PriceCheck/internal/collector"
	"PriceCheck/internal/config"
	"PriceCheck/internal/console"
	"PriceCheck/internal/model"
	"PriceCheck/internal/recorder"
	"PriceCheck/internal/scheduler"
)

func main() {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		log.Fatalf("%v", err)
	}
}

// run only returns an error for setup problems. Fetch failures are printed.
func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("pricecheck", flag.ContinueOnError)
	fs.SetOutput(stdout)
	var (
		cfgPath = fs.String("config", getenv("CONFIG_PATH", "configs/config.yaml"), "path to config.yaml")
		symbol  = fs.String("symbol", "", "ticker symbol; prompts when empty")
		source  = fs.String("source", "", "data source override: chart, quote or mock")
		watch   = fs.String("watch", "", "cron spec (with seconds) to re-check the watch list")
		history = fs.Int("history", 0, "print the last N recorded readings and failures and exit")
	)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("parse flags: %w", err)
	}
	if *symbol == "" && fs.NArg() > 0 {
		*symbol = fs.Arg(0)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *source != "" {
		cfg.DataSource.Source = strings.ToLower(*source)
	}
	if *watch != "" {
		cfg.Watch.Cron = *watch
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	} else {
		log.Warnf("unknown log level %q, keeping %s", cfg.LogLevel, log.GetLevel())
	}

	rec := newRecorder(cfg)
	defer rec.Close()

	if *history > 0 {
		entries, err := rec.RecentReadings(*history)
		if err != nil {
			return fmt.Errorf("read history: %w", err)
		}
		failures, err := rec.RecentFailures(*history)
		if err != nil {
			return fmt.Errorf("read failures: %w", err)
		}
		now := time.Now()
		fmt.Fprint(stdout, console.FormatHistory(entries, now))
		fmt.Fprint(stdout, console.FormatFailures(failures, now))
		return nil
	}

	fetcher := newFetcher(cfg)
	col := collector.NewCollector(fetcher, rec, uuid.NewString(), model.NormalizeSymbol(cfg.DataSource.DefaultSymbol))
	log.Debugf("%s ready, run %s", col, col.RunID)

	if cfg.Watch.Cron != "" {
		return runWatch(ctx, cfg, col, stdout)
	}

	sym := model.NormalizeSymbol(*symbol)
	if sym == "" {
		sym = console.PromptSymbol(stdin, stdout, col.DefaultSymbol)
	}
	reading, err := col.Collect(ctx, sym.String())
	fmt.Fprint(stdout, console.Render(reading, err))
	return nil
}

func runWatch(ctx context.Context, cfg *config.Config, col *collector.Collector, stdout io.Writer) error {
	sched := scheduler.NewScheduler(ctx, col, cfg.WatchSymbols(), stdout)
	if err := sched.Register(cfg.Watch.Cron); err != nil {
		return err
	}
	sched.RunNow()
	sched.Start()
	defer sched.Stop()

	<-ctx.Done()
	log.Info("shutdown signal received, stopping...")
	return nil
}

func newFetcher(cfg *config.Config) collector.Fetcher {
	switch cfg.DataSource.Source {
	case config.SourceQuote:
		return collector.NewQuoteFetcher(cfg.Timeout())
	case config.SourceMock:
		return &collector.MockFetcher{Price: 100}
	default:
		return collector.NewYahooFetcher(cfg.Proxy,
			collector.WithBaseURL(cfg.DataSource.BaseURL),
			collector.WithTimeout(cfg.Timeout()),
			collector.WithUserAgent(cfg.DataSource.UserAgent),
			collector.WithSymbolMap(cfg.DataSource.Aliases),
		)
	}
}

func newRecorder(cfg *config.Config) recorder.Recorder {
	if cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database.SQLitePath), 0o755); err != nil {
		log.Warnf("create sqlite dir failed, using noop: %v", err)
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
	if err != nil {
		log.Warnf("init sqlite recorder failed, using noop: %v", err)
		return recorder.NewNoopRecorder()
	}
	return sr
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
