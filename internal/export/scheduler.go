package export

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/yndnr/gatecam/internal/telemetry/metric"
)

const (
	// DefaultTarget is the local wall-clock minute of the daily export.
	DefaultTarget = "23:50"

	// DefaultInterval is how often the clock is checked.
	DefaultInterval = time.Second

	targetLayout = "15:04"
	dateLayout   = "2006-01-02"
)

// Runner performs one export.
type Runner interface {
	Export(ctx context.Context) (int, error)
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) { s.now = now }
}

// WithInterval sets the polling interval. Values above one second are clamped.
func WithInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 && d <= DefaultInterval {
			s.interval = d
		}
	}
}

// WithMetrics counts runs by result.
func WithMetrics(reg *metric.Registry) SchedulerOption {
	return func(s *Scheduler) { s.metrics = reg }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) { s.logger = logger }
}

// Scheduler runs an export at most once per calendar day, when the local
// time reaches the target minute.
type Scheduler struct {
	runner   Runner
	target   string
	interval time.Duration
	now      func() time.Time
	metrics  *metric.Registry
	logger   *slog.Logger

	mu           sync.Mutex
	lastExported string
}

// NewScheduler creates a scheduler. target is "HH:MM"; empty means DefaultTarget.
func NewScheduler(runner Runner, target string, opts ...SchedulerOption) (*Scheduler, error) {
	if target == "" {
		target = DefaultTarget
	}
	if err := ValidateTarget(target); err != nil {
		return nil, err
	}

	s := &Scheduler{
		runner:   runner,
		target:   target,
		interval: DefaultInterval,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ValidateTarget checks an "HH:MM" target.
func ValidateTarget(target string) error {
	t, err := time.Parse(targetLayout, target)
	if err != nil || t.Format(targetLayout) != target {
		return fmt.Errorf("export: invalid target %q, want HH:MM", target)
	}
	return nil
}

// Target returns the configured "HH:MM".
func (s *Scheduler) Target() string { return s.target }

// LastExported returns the date of the last run, or "" before the first.
func (s *Scheduler) LastExported() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastExported
}

// Run polls the clock until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("export scheduler started", "target", s.target)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("export scheduler stopped")
			return nil
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs the export if the current minute is the target and the day has
// not been exported yet. The day is marked even when the export fails, so a
// failing export is attempted once per day. It reports whether a run was made.
func (s *Scheduler) Tick(ctx context.Context) bool {
	now := s.now()
	if now.Format(targetLayout) != s.target {
		return false
	}

	today := now.Format(dateLayout)
	s.mu.Lock()
	if s.lastExported == today {
		s.mu.Unlock()
		return false
	}
	s.lastExported = today
	s.mu.Unlock()

	rows, err := s.runner.Export(ctx)
	if err != nil {
		s.logger.Error("daily export failed", "date", today, "error", err)
		s.observe("error")
		return true
	}
	s.logger.Info("daily export done", "date", today, "rows", rows)
	s.observe("ok")
	return true
}

func (s *Scheduler) observe(result string) {
	if s.metrics != nil {
		s.metrics.ExportRuns.WithLabelValues(result).Inc()
	}
}
