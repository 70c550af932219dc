package scheduler

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"PriceCheck/internal/collector"
	"PriceCheck/internal/console"
	"PriceCheck/internal/model"
)

// maxInFlight bounds concurrent fetches within one tick.
const maxInFlight = 4

// Scheduler re-runs the price check for a watch list on a cron schedule.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Symbols   []model.Symbol
	Out       io.Writer
	Ctx       context.Context

	mu sync.Mutex // serializes writes to Out
}

// NewScheduler creates a new Scheduler. Cron specs carry a leading seconds field.
func NewScheduler(ctx context.Context, col *collector.Collector, symbols []model.Symbol, out io.Writer) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Symbols:   symbols,
		Out:       out,
		Ctx:       ctx,
	}
}

// Register adds the watch tick under spec.
func (s *Scheduler) Register(spec string) error {
	if len(s.Symbols) == 0 {
		return fmt.Errorf("register watch task: no symbols to watch")
	}
	if _, err := s.Cron.AddFunc(spec, s.tick); err != nil {
		return fmt.Errorf("register watch task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Infof("scheduler started, watching %v", s.Symbols)
}

// Stop stops the cron scheduler and waits for a running tick to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info("scheduler stopped")
}

// RunNow executes one tick immediately.
func (s *Scheduler) RunNow() {
	s.tick()
}

func (s *Scheduler) tick() {
	if s.Ctx.Err() != nil {
		return
	}
	log.Debugf("watch tick for %d symbols", len(s.Symbols))

	outputs := make([]string, len(s.Symbols))
	var g errgroup.Group
	g.SetLimit(maxInFlight)
	for i, sym := range s.Symbols {
		g.Go(func() error {
			reading, err := s.Collector.Collect(s.Ctx, sym.String())
			outputs[i] = console.Render(reading, err)
			return nil
		})
	}
	_ = g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range outputs {
		if _, err := io.WriteString(s.Out, o); err != nil {
			log.Errorf("write watch output: %v", err)
			return
		}
	}
}
