package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"trojmiasto-monitor/internal/contextkeys"
	"trojmiasto-monitor/internal/core/domain"
)

type fakeCrawl struct {
	mu    sync.Mutex
	runs  int
	err   error
	panic bool
}

func (f *fakeCrawl) Execute(ctx context.Context) (*domain.CrawlSessionStats, error) {
	f.mu.Lock()
	f.runs++
	f.mu.Unlock()
	if f.panic {
		panic("session exploded")
	}
	return &domain.CrawlSessionStats{}, f.err
}

func (f *fakeCrawl) runCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runs
}

func TestNextMidnightRun(t *testing.T) {
	now := time.Date(2026, 8, 28, 15, 42, 10, 0, time.UTC)
	interval := 3 * 24 * time.Hour

	got := nextMidnightRun(now, interval)
	want := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestSchedulerRunsImmediatelyOnStart(t *testing.T) {
	crawl := &fakeCrawl{}
	s := newTestScheduler(crawl)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	waitFor(t, func() bool { return crawl.runCount() >= 1 })
	cancel()
	<-done
}

func TestSchedulerSurvivesSessionFailureAndPanic(t *testing.T) {
	crawl := &fakeCrawl{err: errors.New("boom")}
	s := newTestScheduler(crawl)
	s.now = frozenClock(time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	waitFor(t, func() bool { return crawl.runCount() >= 2 })
	cancel()
	<-done

	crawl = &fakeCrawl{panic: true}
	s = newTestScheduler(crawl)
	s.now = frozenClock(time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC))

	ctx, cancel = context.WithCancel(context.Background())
	done = make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	waitFor(t, func() bool { return crawl.runCount() >= 2 })
	cancel()
	<-done
}

func TestSchedulerWaitsForNextRunTime(t *testing.T) {
	crawl := &fakeCrawl{}
	s := newTestScheduler(crawl)
	// часы стоят: время следующего запуска никогда не наступает
	s.now = func() time.Time { return time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC) }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	waitFor(t, func() bool { return crawl.runCount() == 1 })
	time.Sleep(20 * time.Millisecond)
	if crawl.runCount() != 1 {
		t.Errorf("scheduler must not re-run before the scheduled time, got %d runs", crawl.runCount())
	}
	cancel()
	<-done
}

func newTestScheduler(crawl *fakeCrawl) *Scheduler {
	s := NewScheduler(crawl, 3, contextkeys.LoggerFromContext(context.Background()))
	s.tick = time.Millisecond
	return s
}

func frozenClock(t time.Time) func() time.Time {
	// каждый вызов сдвигает часы далеко вперед, так что запуск всегда "пора"
	return func() time.Time {
		t = t.Add(4 * 24 * time.Hour)
		return t
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
