// Package scheduler runs the expiry sweeps using gocron v2. The sweeper is
// the single writer of time-based transitions; foreground calls only read
// the clock.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"sealpay/internal/shared/logger"
)

// BatchJob defines the interface for a scheduled batch processing job.
// Each Execute call processes one batch and returns the number of items
// transitioned.
type BatchJob interface {
	Execute(ctx context.Context) (int, error)
}

// SweepObserver receives per-store sweep counts.
type SweepObserver interface {
	AddSweeps(store string, count int)
}

// SweepManager owns the scheduler instance for both expiry sweeps.
type SweepManager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface
	observer  SweepObserver

	started   bool
	startedMu sync.Mutex
}

func NewSweepManager(log logger.Interface, observer SweepObserver) (*SweepManager, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
	)
	if err != nil {
		return nil, err
	}

	return &SweepManager{
		scheduler: scheduler,
		logger:    log,
		observer:  observer,
	}, nil
}

// RegisterExpirySweeps schedules both expiry jobs on the same interval.
// Singleton mode keeps a slow sweep from overlapping the next tick.
func (m *SweepManager) RegisterExpirySweeps(interval time.Duration, expireIntents, expireCoupons BatchJob) error {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()
			m.runSweep(ctx, "payment_intents", expireIntents)
			m.runSweep(ctx, "coupon_disclosures", expireCoupons)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName("expiry-sweeper"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered expiry sweeps", "interval", interval)
	return nil
}

func (m *SweepManager) runSweep(ctx context.Context, store string, job BatchJob) {
	start := time.Now()
	count, err := job.Execute(ctx)
	if err != nil {
		m.logger.Errorw("expiry sweep failed",
			"store", store,
			"error", err,
			"duration", time.Since(start),
		)
		return
	}
	if m.observer != nil {
		m.observer.AddSweeps(store, count)
	}
	if count > 0 {
		m.logger.Infow("expiry sweep completed",
			"store", store,
			"count", count,
			"duration", time.Since(start),
		)
	}
}

// Start begins executing registered jobs.
func (m *SweepManager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()
	if m.started {
		return
	}
	m.scheduler.Start()
	m.started = true
	m.logger.Infow("sweep scheduler started")
}

// Stop shuts the scheduler down, waiting for running jobs.
func (m *SweepManager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()
	if !m.started {
		return nil
	}
	m.started = false
	return m.scheduler.Shutdown()
}
