package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	logx "csgobot/pkg/logx"
)

func TestIntervalJobRuns(t *testing.T) {
	s := New(Config{Timezone: "UTC"}, logx.Nop())
	ran := make(chan struct{}, 4)
	if _, err := s.AddSchedule("tick", "1s", time.Second, func(context.Context) error {
		ran <- struct{}{}
		return nil
	}); err != nil {
		t.Fatalf("AddSchedule: %v", err)
	}
	s.Start(context.Background())
	defer s.Stop(context.Background())

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("job never ran")
	}
	snap := s.Snapshot()
	if len(snap) != 1 || snap[0].Name != "tick" || snap[0].Spec != "@every 1s" {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestAddReplacesByName(t *testing.T) {
	s := New(Config{}, logx.Nop())
	job := func(context.Context) error { return nil }
	if _, err := s.AddSchedule("a", "10m", 0, job); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddSchedule("a", "*/5 * * * *", 0, job); err != nil {
		t.Fatal(err)
	}
	snap := s.Snapshot()
	if len(snap) != 1 || snap[0].Spec != "*/5 * * * *" {
		t.Fatalf("snapshot = %+v", snap)
	}
	if !s.Remove("a") || s.Remove("a") {
		t.Fatal("Remove should succeed once")
	}
	if _, err := s.AddSchedule("", "10m", 0, job); err == nil {
		t.Fatal("empty name accepted")
	}
	if _, err := s.AddCron("bad", "not cron", 0, job); err == nil {
		t.Fatal("bad cron accepted")
	}
}

func TestRunSkipsOverlap(t *testing.T) {
	s := New(Config{}, logx.Nop())
	release := make(chan struct{})
	started := make(chan struct{})
	var calls atomic.Int32
	d := &scheduleDef{name: "slow", job: func(context.Context) error {
		calls.Add(1)
		close(started)
		<-release
		return nil
	}}

	done := make(chan struct{})
	go func() {
		s.run(context.Background(), d)
		close(done)
	}()
	<-started
	s.run(context.Background(), d)
	close(release)
	<-done

	if calls.Load() != 1 || d.skipped.Load() != 1 || d.runs.Load() != 1 {
		t.Fatalf("calls=%d skipped=%d runs=%d", calls.Load(), d.skipped.Load(), d.runs.Load())
	}
}

func TestRunRecordsErrorsAndPanics(t *testing.T) {
	s := New(Config{}, logx.Nop())
	d := &scheduleDef{name: "bad", job: func(context.Context) error { return errors.New("fetch failed") }}
	s.run(context.Background(), d)
	if d.lastErr != "fetch failed" {
		t.Fatalf("lastErr = %q", d.lastErr)
	}

	p := &scheduleDef{name: "panicky", job: func(context.Context) error { panic("boom") }}
	s.run(context.Background(), p)
	if p.lastErr == "" || p.running.Load() {
		t.Fatalf("panic not recorded: lastErr=%q running=%v", p.lastErr, p.running.Load())
	}
}

func TestRunHonoursTimeout(t *testing.T) {
	s := New(Config{}, logx.Nop())
	d := &scheduleDef{name: "t", timeout: 10 * time.Millisecond, job: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}
	s.run(context.Background(), d)
	if d.lastErr != context.DeadlineExceeded.Error() {
		t.Fatalf("lastErr = %q", d.lastErr)
	}
}
