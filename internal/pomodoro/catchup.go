package pomodoro

import "time"

// RecomputeFromClock rebuilds mode, cycle count and remaining time from
// PhaseStart, walking through every phase that would have completed by now.
// Skipped phases are recorded as catch-up transitions and never signal.
// A paused timer is left untouched.
//
// PhaseStart is re-anchored to the start of the landing phase, so calling it
// again with the same now changes nothing.
func (e *Engine) RecomputeFromClock(now time.Time) {
	s := &e.state
	if !s.IsRunning {
		return
	}

	elapsed := now.Sub(s.PhaseStart)
	if elapsed < 0 {
		// Wall clock stepped backwards past the anchor.
		elapsed = 0
	}
	mode, cycle := s.Mode, s.CycleCount
	anchor := s.PhaseStart

	if period, ok := e.durations.period(mode, cycle); ok && elapsed >= period {
		n := elapsed / period
		skipped := n * period
		elapsed -= skipped
		anchor = anchor.Add(skipped)
		e.recorder.RecordTransition(Transition{
			From:      mode,
			FromCycle: cycle,
			To:        mode,
			ToCycle:   cycle + int(n)*LongBreakInterval,
			At:        anchor,
			Seconds:   int(skipped / time.Second),
			Phases:    int(n) * 2 * LongBreakInterval,
			CatchUp:   true,
		})
		cycle += int(n) * LongBreakInterval
	}

	for {
		d := e.durations.For(mode)
		if elapsed < d {
			break
		}
		elapsed -= d
		anchor = anchor.Add(d)
		next, nextCycle := NextPhase(mode, cycle)
		e.recorder.RecordTransition(Transition{
			From:      mode,
			FromCycle: cycle,
			To:        next,
			ToCycle:   nextCycle,
			At:        anchor,
			Seconds:   int(d / time.Second),
			Phases:    1,
			CatchUp:   true,
		})
		mode, cycle = next, nextCycle
	}

	d := e.durations.For(mode)
	left := d - elapsed
	s.Mode, s.CycleCount = mode, cycle
	s.RemainingSeconds = ceilSeconds(left)
	s.PhaseEnd = now.Add(left)
	s.PhaseStart = s.PhaseEnd.Add(-d)
}
