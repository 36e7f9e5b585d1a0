package pomodoro

import (
	"time"

	"github.com/rs/zerolog/log"
)

// Display receives the derived view after every tick and every command.
type Display interface {
	Render(View)
}

// Signaler delivers the best-effort side effects of a phase boundary.
// Errors are logged and otherwise ignored by the engine.
type Signaler interface {
	PlayCompletionSound() error
	RequestNotificationPermission() error
	ShowNotification(title, body string) error
}

// Recorder observes every phase change, live or reconstructed.
type Recorder interface {
	RecordTransition(Transition)
}

// Transition describes a phase change. CatchUp transitions were reconstructed
// from the clock and never produce a completion signal. A catch-up
// transition with Phases > 1 stands for whole cycles skipped at once.
type Transition struct {
	From      Mode
	FromCycle int
	To        Mode
	ToCycle   int
	At        time.Time
	Seconds   int
	Phases    int
	CatchUp   bool
}

type nopDisplay struct{}

func (nopDisplay) Render(View) {}

type nopSignaler struct{}

func (nopSignaler) PlayCompletionSound() error { return nil }

func (nopSignaler) RequestNotificationPermission() error { return nil }

func (nopSignaler) ShowNotification(string, string) error { return nil }

type nopRecorder struct{}

func (nopRecorder) RecordTransition(Transition) {}

// Option configures an Engine.
type Option func(*Engine)

func WithDisplay(d Display) Option {
	return func(e *Engine) { e.display = d }
}

func WithSignaler(s Signaler) Option {
	return func(e *Engine) { e.signaler = s }
}

func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// Engine is the phase timer. It is not safe for concurrent use: every call
// must come from a single goroutine, which Runner provides.
type Engine struct {
	durations Durations
	state     State

	display  Display
	signaler Signaler
	recorder Recorder
}

// NewEngine creates a stopped engine at Work, cycle 1. Durations below the
// floor are raised to it.
func NewEngine(d Durations, now time.Time, opts ...Option) *Engine {
	d = clampDurations(d)
	e := &Engine{
		durations: d,
		state:     newState(d, now),
		display:   nopDisplay{},
		signaler:  nopSignaler{},
		recorder:  nopRecorder{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func clampDurations(d Durations) Durations {
	for _, m := range []Mode{ModeWork, ModeShortBreak, ModeLongBreak} {
		if d.Seconds(m) < MinDuration {
			d.set(m, MinDuration)
		}
	}
	return d
}

func (e *Engine) State() State { return e.state }

func (e *Engine) Durations() Durations { return e.durations }

func (e *Engine) View() View { return makeView(e.state, e.durations) }

func (e *Engine) render() {
	e.display.Render(e.View())
}

// remainingUntil is the whole seconds from now to end, bounded by the
// current mode's duration.
func (e *Engine) remainingUntil(end, now time.Time) int {
	r := ceilSeconds(end.Sub(now))
	if limit := e.durations.Seconds(e.state.Mode); r > limit {
		return limit
	}
	return r
}

// Tick reconciles the display with the clock and completes the phase when its
// end has been reached. It does nothing while paused.
func (e *Engine) Tick(now time.Time) {
	s := &e.state
	if !s.IsRunning {
		return
	}

	if !s.HasPhaseEnd() || now.After(s.PhaseEnd.Add(DriftTolerance)) {
		e.RecomputeFromClock(now)
	} else {
		s.RemainingSeconds = e.remainingUntil(s.PhaseEnd, now)
	}
	e.render()

	if s.RemainingSeconds <= 0 {
		e.complete(now)
	}
}

// complete fires the completion signals and advances exactly one phase,
// anchoring the new phase at now.
func (e *Engine) complete(now time.Time) {
	s := &e.state
	ended, cycle := s.Mode, s.CycleCount

	if err := e.signaler.PlayCompletionSound(); err != nil {
		log.Debug().Err(err).Msg("completion sound unavailable")
	}
	if err := e.signaler.ShowNotification("Pomodoro", completionMessage(ended)); err != nil {
		log.Debug().Err(err).Msg("notification unavailable")
	}

	next, nextCycle := NextPhase(ended, cycle)
	s.Mode, s.CycleCount = next, nextCycle
	s.RemainingSeconds = e.durations.Seconds(next)
	s.PhaseStart = now
	s.PhaseEnd = now.Add(e.durations.For(next))

	e.recorder.RecordTransition(Transition{
		From:      ended,
		FromCycle: cycle,
		To:        next,
		ToCycle:   nextCycle,
		At:        now,
		Seconds:   e.durations.Seconds(ended),
		Phases:    1,
	})
	e.render()
}

// Toggle starts a stopped timer or pauses a running one and reports whether
// the timer is running afterwards.
func (e *Engine) Toggle(now time.Time) bool {
	if e.state.IsRunning {
		e.pause(now)
		return false
	}
	e.start(now)
	return true
}

func (e *Engine) start(now time.Time) {
	if err := e.signaler.RequestNotificationPermission(); err != nil {
		log.Debug().Err(err).Msg("notification permission unavailable")
	}

	s := &e.state
	switch {
	case s.HasPhaseEnd() && now.After(s.PhaseEnd.Add(DriftTolerance)):
		s.IsRunning = true
		e.RecomputeFromClock(now)
	case !s.HasPhaseEnd():
		total := e.durations.For(s.Mode)
		remaining := time.Duration(s.RemainingSeconds) * time.Second
		s.PhaseEnd = now.Add(remaining)
		s.PhaseStart = now.Add(-(total - remaining))
		s.IsRunning = true
	default:
		s.RemainingSeconds = e.remainingUntil(s.PhaseEnd, now)
		s.IsRunning = true
	}
	e.render()
}

func (e *Engine) pause(now time.Time) {
	s := &e.state
	s.IsRunning = false

	if s.HasPhaseEnd() {
		total := e.durations.For(s.Mode)
		remaining := s.PhaseEnd.Sub(now)
		if remaining < 0 {
			remaining = 0
		}
		if remaining > total {
			remaining = total
		}
		s.RemainingSeconds = ceilSeconds(remaining)
		s.PhaseStart = now.Add(-(total - remaining))
	}
	s.PhaseEnd = time.Time{}
	e.render()
}

// Reset stops the timer and refills the current phase. Mode and cycle count
// are kept.
func (e *Engine) Reset(now time.Time) {
	s := &e.state
	s.IsRunning = false
	s.RemainingSeconds = e.durations.Seconds(s.Mode)
	s.PhaseStart = now
	s.PhaseEnd = time.Time{}
	e.render()
}

// AdjustDuration changes the duration of mode by delta seconds, a non-zero
// multiple of DurationStep. It is ignored while running, for any other delta,
// or when the result would fall below MinDuration. When mode is
// the current phase the countdown is refilled to the new duration.
func (e *Engine) AdjustDuration(now time.Time, mode Mode, delta int) bool {
	if e.state.IsRunning || !mode.Valid() || delta == 0 || delta%DurationStep != 0 {
		return false
	}
	next := e.durations.Seconds(mode) + delta
	if next < MinDuration {
		return false
	}
	e.durations.set(mode, next)

	if mode == e.state.Mode {
		s := &e.state
		s.RemainingSeconds = next
		s.PhaseStart = now
		s.PhaseEnd = time.Time{}
	}
	e.render()
	return true
}

// Refresh brings a running timer up to date and returns the view. It goes
// through Tick so a phase that ended since the last tick still signals.
func (e *Engine) Refresh(now time.Time) View {
	if e.state.IsRunning {
		e.Tick(now)
	}
	return e.View()
}
