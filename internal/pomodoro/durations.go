package pomodoro

import "time"

const (
	// DurationStep is the increment used by AdjustDuration, in seconds.
	DurationStep = 60
	// MinDuration is the floor for every phase duration, in seconds.
	MinDuration = 60
)

// Durations holds the length of each phase kind in whole seconds.
type Durations struct {
	Work       int `json:"work_seconds"`
	ShortBreak int `json:"short_break_seconds"`
	LongBreak  int `json:"long_break_seconds"`
}

// DefaultDurations is the classic 25/5/15 minute split.
func DefaultDurations() Durations {
	return Durations{Work: 25 * 60, ShortBreak: 5 * 60, LongBreak: 15 * 60}
}

// Seconds returns the configured length of mode.
func (d Durations) Seconds(mode Mode) int {
	switch mode {
	case ModeShortBreak:
		return d.ShortBreak
	case ModeLongBreak:
		return d.LongBreak
	default:
		return d.Work
	}
}

// For returns the configured length of mode as a time.Duration.
func (d Durations) For(mode Mode) time.Duration {
	return time.Duration(d.Seconds(mode)) * time.Second
}

func (d *Durations) set(mode Mode, seconds int) {
	switch mode {
	case ModeShortBreak:
		d.ShortBreak = seconds
	case ModeLongBreak:
		d.LongBreak = seconds
	default:
		d.Work = seconds
	}
}

// Valid reports whether every duration respects the floor.
func (d Durations) Valid() bool {
	return d.Work >= MinDuration && d.ShortBreak >= MinDuration && d.LongBreak >= MinDuration
}

// period is the length of eight consecutive phases starting at (mode, cycle).
// After eight phases the mode repeats and the cycle count has advanced by
// LongBreakInterval, so the same block repeats from then on. ok is false when
// the starting state is not on the regular cycle (a break kind that disagrees
// with the cycle count), in which case the block does not repeat.
func (d Durations) period(mode Mode, cycle int) (total time.Duration, ok bool) {
	m, c := mode, cycle
	for i := 0; i < 2*LongBreakInterval; i++ {
		total += d.For(m)
		m, c = NextPhase(m, c)
	}
	return total, m == mode
}
