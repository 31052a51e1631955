package timer_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"getmoredone/internal/db"
	"getmoredone/internal/domain"
	"getmoredone/internal/engine"
	"getmoredone/internal/migrate"
	"getmoredone/internal/resolve"
	"getmoredone/internal/timer"
)

func newEngine(t *testing.T) (*engine.Engine, context.Context) {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	eng := engine.New(conn, resolve.Calendar{IncludeSaturday: true, IncludeSunday: true})
	eng.Now = func() time.Time { return time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC) }
	return eng, context.Background()
}

func TestTimeAccounting(t *testing.T) {
	s := timer.NewSession("item-1", timer.Config{BlockMinutes: 50, BreakMinutes: 10})
	t0 := time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC)

	s.Start(t0)
	s.Pause(t0.Add(5 * time.Minute))
	s.Resume(t0.Add(7 * time.Minute))
	s.Stop(t0.Add(10 * time.Minute))

	if got := s.WorkMinutes(); got != 8 {
		t.Fatalf("work minutes = %d, want 8", got)
	}
	if got := s.ElapsedMinutes(t0.Add(10 * time.Minute)); got != 10 {
		t.Fatalf("elapsed minutes = %d, want 10", got)
	}
	if s.State != timer.StateStopped {
		t.Fatalf("state = %q", s.State)
	}
}

func TestNoAccrualWhilePaused(t *testing.T) {
	s := timer.NewSession("item-1", timer.Config{BlockMinutes: 50, BreakMinutes: 10})
	t0 := time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC)

	s.Start(t0)
	s.Pause(t0.Add(time.Minute))
	// ticks while paused must not add work time
	for i := 1; i <= 60; i++ {
		s.Tick(t0.Add(time.Minute + time.Duration(i)*time.Second))
	}
	if got := s.WorkMinutes(); got != 1 {
		t.Fatalf("work minutes = %d, want 1", got)
	}
}

func TestBreakSplit(t *testing.T) {
	// break carved out of the block: 50-minute block, 10-minute break,
	// work target 40 minutes
	s := timer.NewSession("item-1", timer.Config{BlockMinutes: 50, BreakMinutes: 10})
	t0 := time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC)
	s.Start(t0)

	snap := s.Tick(t0.Add(40 * time.Minute))
	if snap.State != timer.StateBreak {
		t.Fatalf("state after work target = %q, want break", snap.State)
	}
	snap = s.Tick(t0.Add(50 * time.Minute))
	if snap.State != timer.StateStopped {
		t.Fatalf("state after break = %q, want stopped", snap.State)
	}
	if got := s.WorkMinutes(); got != 40 {
		t.Fatalf("work minutes = %d, want 40", got)
	}
}

func TestNoBreakStopsAtTarget(t *testing.T) {
	// no break configured: the whole block is work, and reaching the
	// target ends the session
	s := timer.NewSession("item-1", timer.Config{BlockMinutes: 25})
	t0 := time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC)
	s.Start(t0)

	snap := s.Tick(t0.Add(24 * time.Minute))
	if snap.State != timer.StateRunning {
		t.Fatalf("state before target = %q, want running", snap.State)
	}
	snap = s.Tick(t0.Add(25 * time.Minute))
	if snap.State != timer.StateStopped {
		t.Fatalf("state at target = %q, want stopped", snap.State)
	}
	if got := s.WorkMinutes(); got != 25 {
		t.Fatalf("work minutes = %d, want 25", got)
	}
}

func TestBreakClampedToBlock(t *testing.T) {
	s := timer.NewSession("item-1", timer.Config{BlockMinutes: 5, BreakMinutes: 10})
	t0 := time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC)
	s.Start(t0)
	// work target is zero, so the whole block is break
	snap := s.Tick(t0.Add(time.Second))
	if snap.State != timer.StateBreak {
		t.Fatalf("state = %q, want break", snap.State)
	}
}

func TestWarningThreshold(t *testing.T) {
	s := timer.NewSession("item-1", timer.Config{BlockMinutes: 50, BreakMinutes: 10, WarnThreshold: 5})
	t0 := time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC)
	s.Start(t0)

	if snap := s.Tick(t0.Add(30 * time.Minute)); snap.Warning {
		t.Fatal("warning too early")
	}
	if snap := s.Tick(t0.Add(36 * time.Minute)); !snap.Warning {
		t.Fatal("warning expected inside threshold")
	}
}

func TestSingleActiveSession(t *testing.T) {
	eng, ctx := newEngine(t)
	it, err := eng.CreateItem(ctx, engine.CreateItemOptions{Who: "Alice", Title: "x"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	c := timer.NewController(eng)
	c.Now = eng.Now
	s, err := c.Begin(it.ID, timer.Config{BlockMinutes: 50, BreakMinutes: 10})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := c.Begin(it.ID, timer.Config{BlockMinutes: 50, BreakMinutes: 10}); !errors.Is(err, domain.ErrTimerActive) {
		t.Fatalf("second session must be refused: %v", err)
	}
	if _, err := c.Stop(ctx, s); err != nil {
		t.Fatalf("stop: %v", err)
	}
	// released after stop
	if _, err := c.Begin(it.ID, timer.Config{BlockMinutes: 50, BreakMinutes: 10}); err != nil {
		t.Fatalf("begin after stop: %v", err)
	}
}

func TestStopRecordsWorkLog(t *testing.T) {
	eng, ctx := newEngine(t)
	it, err := eng.CreateItem(ctx, engine.CreateItemOptions{Who: "Alice", Title: "x"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	clock := time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC)
	c := timer.NewController(eng)
	c.Now = func() time.Time { return clock }

	s, err := c.Begin(it.ID, timer.Config{BlockMinutes: 50, BreakMinutes: 10})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	clock = clock.Add(25 * time.Minute)
	log, err := c.Stop(ctx, s)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if log.Minutes != 25 || log.ItemID != it.ID {
		t.Fatalf("log = %+v", log)
	}
	if log.EndedAt == nil {
		t.Fatal("clean stop must set ended_at")
	}
}

func TestFinishCompletesItem(t *testing.T) {
	eng, ctx := newEngine(t)
	it, err := eng.CreateItem(ctx, engine.CreateItemOptions{Who: "Alice", Title: "x"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	c := timer.NewController(eng)
	c.Now = eng.Now
	s, err := c.Begin(it.ID, timer.Config{BlockMinutes: 50, BreakMinutes: 10})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	done, err := c.Finish(ctx, s)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if done.Status != domain.StatusCompleted {
		t.Fatalf("status = %q", done.Status)
	}
	if s.State != timer.StateFinished {
		t.Fatalf("session state = %q", s.State)
	}
}

func TestContinueCreatesFollowUp(t *testing.T) {
	eng, ctx := newEngine(t)
	it, err := eng.CreateItem(ctx, engine.CreateItemOptions{Who: "Alice", Title: "x"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	c := timer.NewController(eng)
	c.Now = eng.Now
	s, err := c.Begin(it.ID, timer.Config{BlockMinutes: 50, BreakMinutes: 10})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	due := "2026-01-19"
	note := "next: wire the export"
	dup, err := c.Continue(ctx, s, engine.DuplicateOptions{
		DueDate: &due, DueDateSet: true, Note: &note,
	})
	if err != nil {
		t.Fatalf("continue: %v", err)
	}
	if dup.ID == it.ID || dup.Status != domain.StatusOpen {
		t.Fatalf("dup = %+v", dup)
	}
	if dup.DueDate == nil || *dup.DueDate != due {
		t.Fatalf("dup due = %v", dup.DueDate)
	}

	src, err := eng.GetItem(ctx, it.ID)
	if err != nil || src.Status != domain.StatusCompleted {
		t.Fatalf("source not completed: %+v %v", src, err)
	}
	if s.State != timer.StateContinued {
		t.Fatalf("session state = %q", s.State)
	}
}
