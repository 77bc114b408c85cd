// Package scheduler starts crawl runs, either on demand or on a cron
// schedule, while making sure at most one run is in flight.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/jobboard/crawler/internal/domain"
	"github.com/jobboard/crawler/internal/lock"
	"github.com/jobboard/crawler/internal/posttime"
)

// Runner performs one crawl
type Runner interface {
	Run(ctx context.Context) (*domain.CrawlResult, error)
}

// Trigger runs the crawler under the run lock
type Trigger struct {
	runner Runner
	locker lock.Locker
	logger *zap.Logger
}

// NewTrigger creates a trigger
func NewTrigger(runner Runner, locker lock.Locker, logger *zap.Logger) *Trigger {
	return &Trigger{runner: runner, locker: locker, logger: logger}
}

// Fire runs one crawl. It returns lock.ErrLocked when a run is in progress.
func (t *Trigger) Fire(ctx context.Context) (*domain.CrawlResult, error) {
	token, err := t.locker.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := t.locker.Release(releaseCtx, token); err != nil {
			t.logger.Error("Failed to release run lock", zap.Error(err))
		}
	}()

	return t.runner.Run(ctx)
}

// Scheduler wraps robfig/cron and fires the trigger on a schedule.
type Scheduler struct {
	cron    *cron.Cron
	trigger *Trigger
	spec    string
	logger  *zap.Logger
}

// New creates a Scheduler for a cron spec such as "@every 1h" or "0 */2 * * *".
// Specs are read in KST, the zone posting times are resolved in.
func New(trigger *Trigger, spec string, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(posttime.KST)),
		trigger: trigger,
		spec:    spec,
		logger:  logger,
	}
}

// Start registers the job and starts the scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runScheduled(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Cron started", zap.String("spec", s.spec))
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Cron stopped")
}

func (s *Scheduler) runScheduled(ctx context.Context) {
	s.logger.Info("Scheduled crawl started")

	result, err := s.trigger.Fire(ctx)
	switch {
	case errors.Is(err, lock.ErrLocked):
		s.logger.Warn("Previous crawl still running, skipping tick")
	case err != nil:
		s.logger.Error("Scheduled crawl failed", zap.Error(err))
	default:
		s.logger.Info("Scheduled crawl complete",
			zap.Int("inserted", result.Inserted),
			zap.Int("updated", result.Updated),
		)
	}
}
