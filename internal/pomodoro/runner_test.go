package pomodoro

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncDisplay struct {
	mu    sync.Mutex
	count int
	last  View
}

func (d *syncDisplay) Render(v View) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.count++
	d.last = v
}

func (d *syncDisplay) renders() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.count
}

type syncSignaler struct {
	mu     sync.Mutex
	sounds int
}

func (s *syncSignaler) PlayCompletionSound() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sounds++
	return nil
}

func (s *syncSignaler) RequestNotificationPermission() error { return nil }

func (s *syncSignaler) ShowNotification(string, string) error { return nil }

func (s *syncSignaler) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sounds
}

type snapshotSink struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (s *snapshotSink) persist(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps = append(s.snaps, snap)
}

func (s *snapshotSink) all() []Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Snapshot(nil), s.snaps...)
}

type runnerFixture struct {
	clock    *clockwork.FakeClock
	engine   *Engine
	runner   *Runner
	display  *syncDisplay
	signaler *syncSignaler
	sink     *snapshotSink
	ctx      context.Context
	cancel   context.CancelFunc
	errCh    chan error
}

func newRunnerFixture(t *testing.T, d Durations) *runnerFixture {
	t.Helper()
	f := &runnerFixture{
		clock:    clockwork.NewFakeClockAt(t0),
		display:  &syncDisplay{},
		signaler: &syncSignaler{},
		sink:     &snapshotSink{},
		errCh:    make(chan error, 1),
	}
	f.engine = NewEngine(d, f.clock.Now(), WithDisplay(f.display), WithSignaler(f.signaler))
	f.runner = NewRunner(f.engine, f.clock, DefaultTickInterval, WithPersist(f.sink.persist))
	f.ctx, f.cancel = context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(f.cancel)
	return f
}

func (f *runnerFixture) start() {
	go func() { f.errCh <- f.runner.Run(f.ctx) }()
}

func TestNewRunner_ClampsInterval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	e := NewEngine(DefaultDurations(), clock.Now())

	assert.Equal(t, MinTickInterval, NewRunner(e, clock, 10*time.Millisecond).Interval())
	assert.Equal(t, MaxTickInterval, NewRunner(e, clock, time.Minute).Interval())
	assert.Equal(t, 300*time.Millisecond, NewRunner(e, clock, 300*time.Millisecond).Interval())
}

func TestRunner_TicksWhileRunning(t *testing.T) {
	f := newRunnerFixture(t, DefaultDurations())
	f.start()

	res, err := f.runner.Toggle(f.ctx)
	require.NoError(t, err)
	assert.True(t, res.View.Running)

	require.NoError(t, f.clock.BlockUntilContext(f.ctx, 1))
	f.clock.Advance(30 * time.Second)

	res, err = f.runner.Status(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1470, res.View.RemainingSeconds)
	assert.Equal(t, "24:30", res.View.FormattedTime)
}

func TestRunner_NoTickAfterPause(t *testing.T) {
	f := newRunnerFixture(t, DefaultDurations())
	f.start()

	_, err := f.runner.Toggle(f.ctx)
	require.NoError(t, err)
	require.NoError(t, f.clock.BlockUntilContext(f.ctx, 1))

	res, err := f.runner.Toggle(f.ctx)
	require.NoError(t, err)
	assert.False(t, res.View.Running)
	require.NoError(t, f.clock.BlockUntilContext(f.ctx, 0))

	renders := f.display.renders()
	f.clock.Advance(10 * time.Minute)

	res, err = f.runner.Status(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, renders, f.display.renders())
	assert.Equal(t, 1500, res.View.RemainingSeconds)
}

func TestRunner_NoTickAfterReset(t *testing.T) {
	f := newRunnerFixture(t, DefaultDurations())
	f.start()

	_, err := f.runner.Toggle(f.ctx)
	require.NoError(t, err)
	require.NoError(t, f.clock.BlockUntilContext(f.ctx, 1))
	f.clock.Advance(40 * time.Second)

	res, err := f.runner.Reset(f.ctx)
	require.NoError(t, err)
	assert.False(t, res.View.Running)
	assert.Equal(t, 1500, res.View.RemainingSeconds)
	require.NoError(t, f.clock.BlockUntilContext(f.ctx, 0))

	renders := f.display.renders()
	f.clock.Advance(time.Hour)
	_, err = f.runner.Status(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, renders, f.display.renders())
}

func TestRunner_PhaseChangePersistsAndSignalsOnce(t *testing.T) {
	f := newRunnerFixture(t, Durations{Work: 60, ShortBreak: 60, LongBreak: 120})
	f.start()

	_, err := f.runner.Toggle(f.ctx)
	require.NoError(t, err)
	require.Len(t, f.sink.all(), 1)

	res, err := f.runner.Adjust(f.ctx, ModeWork, DurationStep)
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.Len(t, f.sink.all(), 1)

	require.NoError(t, f.clock.BlockUntilContext(f.ctx, 1))
	f.clock.Advance(60 * time.Second)

	res, err = f.runner.Status(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, ModeShortBreak, res.View.Mode)
	assert.Equal(t, 1, f.signaler.count())

	snaps := f.sink.all()
	require.Len(t, snaps, 2)
	assert.Equal(t, ModeShortBreak, snaps[1].Mode)
	assert.NotNil(t, snaps[1].PhaseEndMs)
}

func TestRunner_AdjustWhilePaused(t *testing.T) {
	f := newRunnerFixture(t, DefaultDurations())
	f.start()

	res, err := f.runner.Adjust(f.ctx, ModeLongBreak, 5*DurationStep)
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, 1200, res.Durations.LongBreak)

	snap, err := f.runner.Snapshot(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1200, snap.LongBreak)
	assert.Len(t, f.sink.all(), 1)
}

func TestRunner_RestoredRunningStartsTicker(t *testing.T) {
	f := newRunnerFixture(t, DefaultDurations())
	f.engine.Toggle(f.clock.Now())
	f.start()

	require.NoError(t, f.clock.BlockUntilContext(f.ctx, 1))
	f.clock.Advance(time.Second)

	res, err := f.runner.Status(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1499, res.View.RemainingSeconds)
}

func TestRunner_Stopped(t *testing.T) {
	f := newRunnerFixture(t, DefaultDurations())
	f.start()
	f.cancel()

	select {
	case err := <-f.errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("runner did not stop")
	}

	_, err := f.runner.Toggle(context.Background())
	assert.ErrorIs(t, err, ErrRunnerStopped)
}
