package pomodoro

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const (
	MinTickInterval     = 250 * time.Millisecond
	MaxTickInterval     = 500 * time.Millisecond
	DefaultTickInterval = 500 * time.Millisecond
)

// ErrRunnerStopped is returned by commands sent after Run has returned.
var ErrRunnerStopped = errors.New("pomodoro runner stopped")

// Result is the engine's answer to a command.
type Result struct {
	View      View
	Durations Durations
	// Applied is false when the command was a guarded no-op.
	Applied bool
}

type commandKind int

const (
	cmdToggle commandKind = iota
	cmdReset
	cmdAdjust
	cmdStatus
	cmdSnapshot
)

type command struct {
	kind  commandKind
	mode  Mode
	delta int
	reply chan reply
}

type reply struct {
	result   Result
	snapshot Snapshot
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithPersist registers a hook called with a fresh snapshot after every
// state-changing command and every phase change.
func WithPersist(fn func(Snapshot)) RunnerOption {
	return func(r *Runner) { r.persist = fn }
}

// Runner owns an Engine and serialises commands and ticks on one goroutine.
// The ticker only exists while the engine is running; pausing or resetting
// stops it and detaches it from the loop, so no tick is observed afterwards.
type Runner struct {
	engine   *Engine
	clock    clockwork.Clock
	interval time.Duration
	persist  func(Snapshot)

	cmdChan chan command
	done    chan struct{}
	ticker  clockwork.Ticker
}

// NewRunner wraps engine. The tick interval is clamped to
// [MinTickInterval, MaxTickInterval].
func NewRunner(engine *Engine, clock clockwork.Clock, interval time.Duration, opts ...RunnerOption) *Runner {
	if interval < MinTickInterval {
		interval = MinTickInterval
	}
	if interval > MaxTickInterval {
		interval = MaxTickInterval
	}
	r := &Runner{
		engine:   engine,
		clock:    clock,
		interval: interval,
		persist:  func(Snapshot) {},
		cmdChan:  make(chan command),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Interval is the effective tick period.
func (r *Runner) Interval() time.Duration { return r.interval }

// Run processes commands and ticks until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	defer close(r.done)
	defer r.stopTicker()
	defer log.Debug().Msg("pomodoro runner stopped")

	// A restored running timer needs its ticker from the start.
	r.syncTicker()

	for {
		var tickChan <-chan time.Time
		if r.ticker != nil {
			tickChan = r.ticker.Chan()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()

		case cmd := <-r.cmdChan:
			cmd.reply <- r.handle(cmd)

		case <-tickChan:
			r.tick()
		}
	}
}

func (r *Runner) tick() {
	before := r.engine.State()
	r.engine.Tick(r.clock.Now())
	if phaseChanged(before, r.engine.State()) {
		r.persist(r.engine.Snapshot())
	}
}

func (r *Runner) handle(cmd command) reply {
	now := r.clock.Now()
	before := r.engine.State()
	applied, changed := true, true

	switch cmd.kind {
	case cmdToggle:
		r.engine.Toggle(now)
	case cmdReset:
		r.engine.Reset(now)
	case cmdAdjust:
		applied = r.engine.AdjustDuration(now, cmd.mode, cmd.delta)
		changed = applied
	case cmdStatus:
		r.engine.Refresh(now)
		changed = phaseChanged(before, r.engine.State())
	case cmdSnapshot:
		return reply{snapshot: r.engine.Snapshot(), result: r.result(true)}
	}
	r.syncTicker()

	if changed {
		r.persist(r.engine.Snapshot())
	}
	return reply{result: r.result(applied)}
}

func (r *Runner) result(applied bool) Result {
	return Result{View: r.engine.View(), Durations: r.engine.Durations(), Applied: applied}
}

func (r *Runner) syncTicker() {
	running := r.engine.State().IsRunning
	switch {
	case running && r.ticker == nil:
		r.ticker = r.clock.NewTicker(r.interval)
		log.Debug().Dur("interval", r.interval).Msg("tick driver started")
	case !running && r.ticker != nil:
		r.stopTicker()
		log.Debug().Msg("tick driver stopped")
	}
}

func (r *Runner) stopTicker() {
	if r.ticker == nil {
		return
	}
	r.ticker.Stop()
	// Drain a tick that fired before Stop so it can't leak into a later ticker.
	select {
	case <-r.ticker.Chan():
	default:
	}
	r.ticker = nil
}

func phaseChanged(a, b State) bool {
	return a.Mode != b.Mode || a.CycleCount != b.CycleCount
}

func (r *Runner) send(ctx context.Context, cmd command) (reply, error) {
	cmd.reply = make(chan reply, 1)
	select {
	case r.cmdChan <- cmd:
	case <-r.done:
		return reply{}, ErrRunnerStopped
	case <-ctx.Done():
		return reply{}, ctx.Err()
	}
	select {
	case rep := <-cmd.reply:
		return rep, nil
	case <-ctx.Done():
		return reply{}, ctx.Err()
	}
}

// Toggle starts or pauses the timer.
func (r *Runner) Toggle(ctx context.Context) (Result, error) {
	rep, err := r.send(ctx, command{kind: cmdToggle})
	return rep.result, err
}

// Reset stops the timer and refills the current phase.
func (r *Runner) Reset(ctx context.Context) (Result, error) {
	rep, err := r.send(ctx, command{kind: cmdReset})
	return rep.result, err
}

// Adjust changes the duration of mode by delta seconds. Result.Applied is
// false when the adjustment was ignored.
func (r *Runner) Adjust(ctx context.Context, mode Mode, delta int) (Result, error) {
	rep, err := r.send(ctx, command{kind: cmdAdjust, mode: mode, delta: delta})
	return rep.result, err
}

// Status reconciles a running timer with the clock and returns the view.
func (r *Runner) Status(ctx context.Context) (Result, error) {
	rep, err := r.send(ctx, command{kind: cmdStatus})
	return rep.result, err
}

// Snapshot returns the current persisted layout.
func (r *Runner) Snapshot(ctx context.Context) (Snapshot, error) {
	rep, err := r.send(ctx, command{kind: cmdSnapshot})
	return rep.snapshot, err
}
