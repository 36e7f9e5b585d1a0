package pomodoro

import (
	"fmt"
	"time"
)

// DriftTolerance is how far past PhaseEnd a tick may arrive before the stored
// end time is distrusted and the phase is reconstructed from PhaseStart.
const DriftTolerance = 2 * time.Second

// State is the clock-anchored timer state. PhaseStart and PhaseEnd are the
// ground truth while running; RemainingSeconds is a cached display value.
type State struct {
	Mode             Mode
	CycleCount       int
	RemainingSeconds int
	IsRunning        bool
	PhaseStart       time.Time
	// PhaseEnd is the zero time whenever the timer is not running.
	PhaseEnd time.Time
}

// HasPhaseEnd reports whether a live end time is set.
func (s State) HasPhaseEnd() bool {
	return !s.PhaseEnd.IsZero()
}

func newState(d Durations, now time.Time) State {
	return State{
		Mode:             ModeWork,
		CycleCount:       1,
		RemainingSeconds: d.Seconds(ModeWork),
		PhaseStart:       now,
	}
}

// Check verifies the state invariants against d.
func (s State) Check(d Durations) error {
	if !s.Mode.Valid() {
		return fmt.Errorf("invalid mode %q", s.Mode)
	}
	if s.CycleCount < 1 {
		return fmt.Errorf("cycle count %d below 1", s.CycleCount)
	}
	if s.IsRunning != s.HasPhaseEnd() {
		return fmt.Errorf("running=%t but phase end set=%t", s.IsRunning, s.HasPhaseEnd())
	}
	if s.RemainingSeconds < 0 || s.RemainingSeconds > d.Seconds(s.Mode) {
		return fmt.Errorf("remaining %ds outside [0, %d]", s.RemainingSeconds, d.Seconds(s.Mode))
	}
	return nil
}

// ceilSeconds rounds d up to whole seconds so a countdown never reads zero a
// tick early. Negative durations count as zero.
func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}
