// Package timer holds the work-session state machine. A session accrues
// work time only while running, tracks wall-clock elapsed from the first
// start, and emits a work log when it ends. One session at a time.
package timer

import (
	"context"
	"sync"
	"time"

	"getmoredone/internal/domain"
	"getmoredone/internal/engine"
)

type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StatePaused    State = "paused"
	StateBreak     State = "break"
	StateStopped   State = "stopped"
	StateFinished  State = "finished"
	StateContinued State = "continued"
)

// Config fixes the session split once at start: the break is carved out of
// the block, never added to it.
type Config struct {
	BlockMinutes  int
	BreakMinutes  int
	WarnThreshold int
}

// Session is one timed run against an item. Not safe for concurrent use;
// the controller serializes access.
type Session struct {
	ItemID string
	State  State

	blockSeconds  int
	breakSeconds  int
	workTarget    int // seconds of work before the break starts
	warnThreshold int // seconds remaining that trigger the warning

	workSeconds int
	breakTaken  int
	startedAt   time.Time
	stoppedAt   time.Time
	lastTick    time.Time
}

// NewSession computes the work/break split. A break longer than the block is
// clamped so the work target never goes negative.
func NewSession(itemID string, cfg Config) *Session {
	block := cfg.BlockMinutes * 60
	brk := cfg.BreakMinutes * 60
	if brk > block {
		brk = block
	}
	return &Session{
		ItemID:        itemID,
		State:         StateIdle,
		blockSeconds:  block,
		breakSeconds:  brk,
		workTarget:    block - brk,
		warnThreshold: cfg.WarnThreshold * 60,
	}
}

func (s *Session) Start(now time.Time) {
	if s.State != StateIdle {
		return
	}
	s.State = StateRunning
	s.startedAt = now
	s.lastTick = now
}

// Tick advances the session clock. Work seconds accrue only in the running
// state; paused and break time count toward elapsed wall clock only. When the
// work target is reached the session rolls into its break, and when the break
// is exhausted it stops.
func (s *Session) Tick(now time.Time) Snapshot {
	delta := int(now.Sub(s.lastTick).Seconds())
	if delta < 0 {
		delta = 0
	}
	s.lastTick = now

	switch s.State {
	case StateRunning:
		s.workSeconds += delta
		if s.workSeconds >= s.workTarget {
			if s.breakSeconds > 0 {
				s.State = StateBreak
			} else {
				s.State = StateStopped
				s.stoppedAt = now
			}
		}
	case StateBreak:
		s.breakTaken += delta
		if s.breakTaken >= s.breakSeconds {
			s.State = StateStopped
			s.stoppedAt = now
		}
	}
	return s.Snapshot(now)
}

func (s *Session) Pause(now time.Time) {
	s.Tick(now)
	if s.State == StateRunning {
		s.State = StatePaused
	}
}

func (s *Session) Resume(now time.Time) {
	s.Tick(now)
	if s.State == StatePaused || s.State == StateBreak {
		s.State = StateRunning
	}
}

// Stop ends the session. Further ticks are no-ops.
func (s *Session) Stop(now time.Time) {
	if s.done() {
		return
	}
	s.Tick(now)
	if s.done() {
		return
	}
	s.State = StateStopped
	s.stoppedAt = now
}

func (s *Session) done() bool {
	return s.State == StateStopped || s.State == StateFinished || s.State == StateContinued
}

// WorkMinutes is the accrued work time, floored to whole minutes.
func (s *Session) WorkMinutes() int {
	return s.workSeconds / 60
}

// ElapsedMinutes is wall clock from first start to stop (or now while live).
func (s *Session) ElapsedMinutes(now time.Time) int {
	if s.startedAt.IsZero() {
		return 0
	}
	end := now
	if !s.stoppedAt.IsZero() {
		end = s.stoppedAt
	}
	return int(end.Sub(s.startedAt).Minutes())
}

// WorkLogDraft converts the finished session into the engine's work log
// input. EndedAt is only set when the session was stopped cleanly.
func (s *Session) WorkLogDraft() engine.AddWorkLogOptions {
	opts := engine.AddWorkLogOptions{
		ItemID:    s.ItemID,
		StartedAt: s.startedAt.UTC().Format(time.RFC3339),
		Minutes:   s.WorkMinutes(),
	}
	if !s.stoppedAt.IsZero() {
		ended := s.stoppedAt.UTC().Format(time.RFC3339)
		opts.EndedAt = &ended
	}
	return opts
}

// Snapshot is the read-only view the tick loop renders.
type Snapshot struct {
	State            State
	WorkSeconds      int
	RemainingSeconds int
	BreakSeconds     int
	Warning          bool
	ElapsedMinutes   int
}

func (s *Session) Snapshot(now time.Time) Snapshot {
	remaining := s.workTarget - s.workSeconds
	if remaining < 0 {
		remaining = 0
	}
	return Snapshot{
		State:            s.State,
		WorkSeconds:      s.workSeconds,
		RemainingSeconds: remaining,
		BreakSeconds:     s.breakSeconds - s.breakTaken,
		Warning:          s.State == StateRunning && s.warnThreshold > 0 && remaining <= s.warnThreshold,
		ElapsedMinutes:   s.ElapsedMinutes(now),
	}
}

// Lifecycle is the slice of the engine the timer ends sessions through.
type Lifecycle interface {
	AddWorkLog(ctx context.Context, opts engine.AddWorkLogOptions) (domain.WorkLog, error)
	CompleteItem(ctx context.Context, id string) (domain.ActionItem, error)
	CompleteAndDuplicate(ctx context.Context, id string, opts engine.DuplicateOptions) (domain.ActionItem, domain.ActionItem, error)
}

// Controller enforces the single-active-session rule and runs the session
// outcomes through the engine.
type Controller struct {
	Engine Lifecycle
	Now    func() time.Time

	mu     sync.Mutex
	active *Session
}

func NewController(eng Lifecycle) *Controller {
	return &Controller{Engine: eng, Now: time.Now}
}

// Begin starts a session for an item. A second concurrent session is refused.
func (c *Controller) Begin(itemID string, cfg Config) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil && !c.active.done() {
		return nil, domain.ErrTimerActive
	}
	s := NewSession(itemID, cfg)
	s.Start(c.Now())
	c.active = s
	return s, nil
}

// Stop ends the active session and records its work log.
func (c *Controller) Stop(ctx context.Context, s *Session) (domain.WorkLog, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s.Stop(c.Now())
	log, err := c.Engine.AddWorkLog(ctx, s.WorkLogDraft())
	if err != nil {
		return domain.WorkLog{}, err
	}
	c.release(s)
	return log, nil
}

// Finish stops the session, records the log, and completes the item.
func (c *Controller) Finish(ctx context.Context, s *Session) (domain.ActionItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s.Stop(c.Now())
	if _, err := c.Engine.AddWorkLog(ctx, s.WorkLogDraft()); err != nil {
		return domain.ActionItem{}, err
	}
	it, err := c.Engine.CompleteItem(ctx, s.ItemID)
	if err != nil {
		return domain.ActionItem{}, err
	}
	s.State = StateFinished
	c.release(s)
	return it, nil
}

// Continue stops the session, records the log, completes the item, and
// creates the follow-up copy with the given overrides.
func (c *Controller) Continue(ctx context.Context, s *Session, opts engine.DuplicateOptions) (domain.ActionItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s.Stop(c.Now())
	if _, err := c.Engine.AddWorkLog(ctx, s.WorkLogDraft()); err != nil {
		return domain.ActionItem{}, err
	}
	_, dup, err := c.Engine.CompleteAndDuplicate(ctx, s.ItemID, opts)
	if err != nil {
		return domain.ActionItem{}, err
	}
	s.State = StateContinued
	c.release(s)
	return dup, nil
}

func (c *Controller) release(s *Session) {
	if c.active == s {
		c.active = nil
	}
}
