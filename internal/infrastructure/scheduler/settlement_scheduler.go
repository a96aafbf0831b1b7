package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	appinvestment "github.com/chrono60/backend/internal/application/investment"
	apppayment "github.com/chrono60/backend/internal/application/payment"
	"github.com/chrono60/backend/internal/domain/shared"
	"github.com/chrono60/backend/internal/infrastructure/config"
)

// depositExpirySweepInterval bounds how long an expired deposit stays PENDING
const depositExpirySweepInterval = 5 * time.Minute

// SettlementExecutor runs settlement and deposit-expiry jobs against the
// application services
type SettlementExecutor struct {
	settlements *appinvestment.SettlementService
	deposits    *apppayment.DepositService
	logger      *zap.Logger
}

// NewSettlementExecutor creates a settlement job executor
func NewSettlementExecutor(
	settlements *appinvestment.SettlementService,
	deposits *apppayment.DepositService,
	logger *zap.Logger,
) *SettlementExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettlementExecutor{
		settlements: settlements,
		deposits:    deposits,
		logger:      logger,
	}
}

// Execute dispatches a job to the matching service
func (e *SettlementExecutor) Execute(ctx context.Context, job *Job) error {
	switch job.Kind {
	case JobKindSettlement:
		report, err := e.settlements.RunDailySettlement(ctx, job.AsOf)
		if err != nil {
			return err
		}
		e.logger.Info("Settlement batch finished",
			zap.Time("as_of", job.AsOf),
			zap.Int("processed", report.Processed),
			zap.Int("skipped", report.Skipped),
			zap.Int("failed", report.Failed),
		)
		return nil
	case JobKindDepositExpiry:
		expired, err := e.deposits.ExpireDeposits(ctx, job.AsOf)
		if err != nil {
			return err
		}
		if expired > 0 {
			e.logger.Info("Expired pending deposits", zap.Int("count", expired))
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown job kind %q", ErrInvalidConfig, job.Kind)
	}
}

var _ JobExecutor = (*SettlementExecutor)(nil)

// SettlementScheduler fires the daily settlement run at the configured UTC
// hour and sweeps expired deposits at a fixed cadence. Actual work runs on
// the worker pool so a slow batch never blocks the cron loop.
type SettlementScheduler struct {
	config config.SettlementConfig
	pool   *Pool
	clock  shared.Clock
	logger *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	lastRunAt      *time.Time
	nextRunAt      *time.Time
	lastSettledDay time.Time
	lastSweepAt    time.Time
}

// NewSettlementScheduler creates the daily settlement cron scheduler
func NewSettlementScheduler(
	cfg config.SettlementConfig,
	executor JobExecutor,
	clock shared.Clock,
	logger *zap.Logger,
) *SettlementScheduler {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	poolConfig := DefaultPoolConfig()
	poolConfig.Workers = cfg.Workers

	return &SettlementScheduler{
		config: cfg,
		pool:   NewPool(poolConfig, executor, logger),
		clock:  clock,
		logger: logger,
	}
}

// Start starts the cron loop and the worker pool
func (s *SettlementScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	if err := s.pool.Start(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.calculateNextRunTime()

	s.wg.Add(1)
	go s.cronLoop(ctx)

	s.logger.Info("Settlement scheduler started",
		zap.Int("settlement_hour_utc", s.config.Hour),
		zap.Duration("check_interval", s.checkInterval()),
		zap.Timep("next_run_at", s.nextRunAt),
	)

	return nil
}

// Stop stops the cron loop, then drains the worker pool
func (s *SettlementScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		if err := s.pool.Stop(ctx); err != nil {
			s.logger.Warn("Error stopping job pool", zap.Error(err))
		}
		s.logger.Info("Settlement scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Settlement scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *SettlementScheduler) checkInterval() time.Duration {
	if s.config.CheckInterval > 0 {
		return s.config.CheckInterval
	}
	return time.Minute
}

func (s *SettlementScheduler) cronLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.checkInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := s.clock.Now().UTC()
			if s.shouldSettle(now) {
				s.submitSettlement(now)
				s.calculateNextRunTime()
			}
			if s.shouldSweep(now) {
				s.submitDepositSweep(now)
			}
		}
	}
}

// shouldSettle fires once per UTC day at the configured hour. The day guard
// keeps a sub-hour check interval from re-running the batch.
func (s *SettlementScheduler) shouldSettle(now time.Time) bool {
	if now.Hour() != s.config.Hour {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	today := now.Truncate(24 * time.Hour)
	return !s.lastSettledDay.Equal(today)
}

func (s *SettlementScheduler) shouldSweep(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSweepAt) >= depositExpirySweepInterval
}

func (s *SettlementScheduler) submitSettlement(now time.Time) {
	job := NewJob(JobKindSettlement, now, DefaultPoolConfig().RetryAttempts)
	if err := s.pool.Submit(job); err != nil {
		s.logger.Error("Failed to submit settlement job", zap.Error(err))
		return
	}

	s.mu.Lock()
	s.lastRunAt = &now
	s.lastSettledDay = now.Truncate(24 * time.Hour)
	s.mu.Unlock()
}

func (s *SettlementScheduler) submitDepositSweep(now time.Time) {
	job := NewJob(JobKindDepositExpiry, now, 0)
	if err := s.pool.Submit(job); err != nil {
		s.logger.Warn("Failed to submit deposit expiry job", zap.Error(err))
		return
	}

	s.mu.Lock()
	s.lastSweepAt = now
	s.mu.Unlock()
}

func (s *SettlementScheduler) calculateNextRunTime() {
	now := s.clock.Now().UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), s.config.Hour, 0, 0, 0, time.UTC)
	if now.After(next) {
		next = next.AddDate(0, 0, 1)
	}

	s.mu.Lock()
	s.nextRunAt = &next
	s.mu.Unlock()
}

// TriggerManualRun submits a settlement run outside the cron schedule.
// Uses the current time so a manual trigger settles exactly what is due now.
func (s *SettlementScheduler) TriggerManualRun() error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.mu.Unlock()

	now := s.clock.Now().UTC()
	return s.pool.Submit(NewJob(JobKindSettlement, now, 0))
}

// GetStatus returns the current status of the scheduler
func (s *SettlementScheduler) GetStatus() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	return map[string]any{
		"enabled":             s.config.Enabled,
		"is_running":          s.isRunning,
		"settlement_hour_utc": s.config.Hour,
		"workers":             s.config.Workers,
		"last_run_at":         s.lastRunAt,
		"next_run_at":         s.nextRunAt,
	}
}
