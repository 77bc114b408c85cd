package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/jobboard/crawler/internal/domain"
	"github.com/jobboard/crawler/internal/lock"
	"github.com/jobboard/crawler/internal/posttime"
)

type blockingRunner struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (r *blockingRunner) Run(ctx context.Context) (*domain.CrawlResult, error) {
	r.calls.Add(1)
	if r.started != nil {
		r.started <- struct{}{}
		<-r.release
	}
	return &domain.CrawlResult{Inserted: 1}, nil
}

func TestTrigger_RejectsOverlappingRuns(t *testing.T) {
	runner := &blockingRunner{started: make(chan struct{}), release: make(chan struct{})}
	trigger := NewTrigger(runner, lock.NewLocalLocker(), zap.NewNop())

	done := make(chan error, 1)
	go func() {
		_, err := trigger.Fire(context.Background())
		done <- err
	}()
	<-runner.started

	if _, err := trigger.Fire(context.Background()); !errors.Is(err, lock.ErrLocked) {
		t.Fatalf("overlapping Fire error = %v, want ErrLocked", err)
	}

	close(runner.release)
	if err := <-done; err != nil {
		t.Fatalf("first Fire error: %v", err)
	}

	// lock is released once the run returns
	runner.started = nil
	if _, err := trigger.Fire(context.Background()); err != nil {
		t.Fatalf("Fire after release: %v", err)
	}
	if runner.calls.Load() != 2 {
		t.Errorf("runs = %d, want 2", runner.calls.Load())
	}
}

type errRunner struct{}

func (errRunner) Run(ctx context.Context) (*domain.CrawlResult, error) {
	return nil, errors.New("boom")
}

func TestTrigger_ReleasesLockOnError(t *testing.T) {
	locker := lock.NewLocalLocker()
	trigger := NewTrigger(errRunner{}, locker, zap.NewNop())

	if _, err := trigger.Fire(context.Background()); err == nil {
		t.Fatal("Fire should surface the run error")
	}
	if _, err := locker.Acquire(context.Background()); err != nil {
		t.Errorf("lock still held after failed run: %v", err)
	}
}

func TestScheduler_FiresOnSchedule(t *testing.T) {
	runner := &blockingRunner{}
	s := New(NewTrigger(runner, lock.NewLocalLocker(), zap.NewNop()), "@every 1s", zap.NewNop())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for runner.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	s.Stop()

	if runner.calls.Load() == 0 {
		t.Error("scheduled crawl never ran")
	}
}

func TestScheduler_InvalidSpec(t *testing.T) {
	s := New(NewTrigger(&blockingRunner{}, lock.NewLocalLocker(), zap.NewNop()), "not a spec", zap.NewNop())
	if err := s.Start(context.Background()); err == nil {
		t.Error("Start with invalid spec should fail")
	}
}

func TestScheduler_DailySpecFiresAtKSTMidnight(t *testing.T) {
	s := New(NewTrigger(&blockingRunner{}, lock.NewLocalLocker(), zap.NewNop()), "0 0 * * *", zap.NewNop())
	if s.cron.Location() != posttime.KST {
		t.Fatalf("cron location = %v, want KST", s.cron.Location())
	}

	sched, err := cron.ParseStandard("0 0 * * *")
	if err != nil {
		t.Fatal(err)
	}
	from := time.Date(2025, 6, 15, 12, 0, 0, 0, posttime.KST)
	next := sched.Next(from.In(s.cron.Location()))
	want := time.Date(2025, 6, 16, 0, 0, 0, 0, posttime.KST)
	if !next.Equal(want) {
		t.Errorf("next run = %v, want %v", next, want)
	}
}
