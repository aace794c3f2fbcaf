// Package scheduler runs background jobs of the finance service.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	financeapp "github.com/oneflow/backend/internal/application/finance"
)

// ErrInvalidConfig is returned when configuration is invalid
var ErrInvalidConfig = errors.New("invalid scheduler configuration")

// IntegrityChecker scans stored records for references to unknown projects
type IntegrityChecker interface {
	Check(ctx context.Context) (*financeapp.IntegrityReport, error)
}

// IntegritySchedulerConfig holds configuration for the integrity scheduler
type IntegritySchedulerConfig struct {
	// Schedule is a cron expression or descriptor ("0 3 * * *", "@daily",
	// "@every 6h"). Empty disables the scheduler.
	Schedule string

	// Timeout bounds a single run
	Timeout time.Duration
}

// DefaultIntegritySchedulerConfig returns a nightly check with a five minute budget
func DefaultIntegritySchedulerConfig() IntegritySchedulerConfig {
	return IntegritySchedulerConfig{
		Schedule: "0 3 * * *",
		Timeout:  5 * time.Minute,
	}
}

// IntegrityScheduler periodically runs the integrity check and logs
// every dangling project reference it finds. Overlapping runs are skipped.
type IntegrityScheduler struct {
	checker  IntegrityChecker
	logger   *zap.Logger
	config   IntegritySchedulerConfig
	schedule cron.Schedule

	mu        sync.Mutex
	cron      *cron.Cron
	cancel    context.CancelFunc
	isRunning bool

	// runs is signalled after every completed run; tests use it
	runs chan *financeapp.IntegrityReport
}

// NewIntegrityScheduler creates a new integrity scheduler
func NewIntegrityScheduler(checker IntegrityChecker, logger *zap.Logger, config IntegritySchedulerConfig) (*IntegrityScheduler, error) {
	if config.Timeout < 0 {
		return nil, fmt.Errorf("%w: negative timeout", ErrInvalidConfig)
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultIntegritySchedulerConfig().Timeout
	}

	s := &IntegrityScheduler{
		checker: checker,
		logger:  logger.Named("integrity_scheduler"),
		config:  config,
	}
	if config.Schedule != "" {
		schedule, err := cron.ParseStandard(config.Schedule)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		s.schedule = schedule
	}
	return s, nil
}

// Start launches the cron runner. It is a no-op when already running or disabled.
func (s *IntegrityScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return
	}
	if s.schedule == nil {
		s.logger.Info("Integrity scheduler is disabled")
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	log := cronLogger{s.logger}
	s.cron = cron.New(cron.WithLogger(log), cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)))
	s.cron.Schedule(s.schedule, cron.FuncJob(func() { s.RunOnce(ctx) }))
	s.cron.Start()
	s.isRunning = true

	s.logger.Info("Integrity scheduler started",
		zap.String("schedule", s.config.Schedule),
		zap.Time("next_run", s.schedule.Next(time.Now())),
	)
}

// Stop halts the runner and waits for a run in progress, bounded by ctx
func (s *IntegrityScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	runner, cancel := s.cron, s.cancel
	s.mu.Unlock()

	done := runner.Stop()
	cancel()

	select {
	case <-done.Done():
		s.logger.Info("Integrity scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Integrity scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether the runner is active
func (s *IntegrityScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// RunOnce performs a single check and logs the outcome
func (s *IntegrityScheduler) RunOnce(ctx context.Context) *financeapp.IntegrityReport {
	runCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	started := time.Now()
	report, err := s.checker.Check(runCtx)
	if err != nil {
		s.logger.Error("Integrity check failed", zap.Error(err))
		return nil
	}

	for _, ref := range report.Dangling {
		s.logger.Warn("Record references an unknown project",
			zap.String("family", ref.Family),
			zap.String("record_id", ref.RecordID),
			zap.String("number", ref.Number),
			zap.String("project", ref.Project),
		)
	}
	s.logger.Info("Integrity check completed",
		zap.Int("checked", report.Checked),
		zap.Int("dangling", len(report.Dangling)),
		zap.Duration("duration", time.Since(started)),
	)

	if s.runs != nil {
		select {
		case s.runs <- report:
		default:
		}
	}
	return report
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
