// Package expiry runs the periodic sweep that moves finished subscriptions to expired.
package expiry

import (
	"context"
	"fitplanhub/backend/internal/pkg/logger"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// sweepTimeout bounds a single scheduled sweep.
const sweepTimeout = 2 * time.Minute

// Sweeper expires active subscriptions whose endDate has passed.
// Satisfied by service.SubscriptionService.
type Sweeper interface {
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}

// Worker schedules Sweeper on a cron spec.
type Worker struct {
	sweeper  Sweeper
	schedule string
	log      *logger.Logger
	now      func() time.Time

	mu        sync.Mutex
	scheduler *cron.Cron
}

// NewWorker validates schedule and returns an idle worker. Standard five-field
// specs and descriptors such as "@every 1h" are accepted.
func NewWorker(sweeper Sweeper, schedule string, log *logger.Logger) (*Worker, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid expiry schedule %q: %w", schedule, err)
	}
	return &Worker{
		sweeper:  sweeper,
		schedule: schedule,
		log:      log.With("component", "expiry-worker"),
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// RunOnce performs a single sweep and returns how many subscriptions expired.
func (w *Worker) RunOnce(ctx context.Context) (int64, error) {
	return w.sweeper.ExpireDue(ctx, w.now())
}

func (w *Worker) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	start := time.Now()
	n, err := w.RunOnce(ctx)
	if err != nil {
		w.log.ErrorWithErr(err, "Subscription expiry sweep failed")
		return
	}
	w.log.WithFields(map[string]interface{}{
		"expired":  n,
		"duration": time.Since(start).Milliseconds(),
	}).Debug("Subscription expiry sweep finished")
}

// Start begins running sweeps in the background. Calling Start twice is a no-op.
func (w *Worker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.scheduler != nil {
		return nil
	}

	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := scheduler.AddFunc(w.schedule, w.sweep); err != nil {
		return fmt.Errorf("schedule expiry sweep: %w", err)
	}
	scheduler.Start()
	w.scheduler = scheduler
	w.log.Infof("Subscription expiry sweep scheduled (%s)", w.schedule)
	return nil
}

// Stop halts scheduling and waits for a running sweep until ctx is done.
func (w *Worker) Stop(ctx context.Context) {
	w.mu.Lock()
	scheduler := w.scheduler
	w.scheduler = nil
	w.mu.Unlock()
	if scheduler == nil {
		return
	}

	select {
	case <-scheduler.Stop().Done():
	case <-ctx.Done():
		w.log.Warn("Timed out waiting for expiry sweep to finish")
	}
}
