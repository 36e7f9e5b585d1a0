package pomodoro

import (
	"encoding/json"
	"fmt"
	"time"
)

// StateKey identifies the persisted timer record.
const StateKey = "pomodoro_state_v2"

// ResumePolicy decides how much of a persisted record survives a restart.
type ResumePolicy string

const (
	// PolicyFresh ignores any persisted record.
	PolicyFresh ResumePolicy = "fresh"
	// PolicyDurations keeps the adjusted durations but starts at Work, cycle 1.
	PolicyDurations ResumePolicy = "durations"
	// PolicyResume restores the full state and catches a running timer up
	// with the time spent offline.
	PolicyResume ResumePolicy = "resume"
)

func (p ResumePolicy) Valid() bool {
	switch p {
	case PolicyFresh, PolicyDurations, PolicyResume:
		return true
	}
	return false
}

// Snapshot is the persisted layout: the durations plus every State field.
// Timestamps are Unix milliseconds.
type Snapshot struct {
	Durations
	Mode             Mode   `json:"mode"`
	CycleCount       int    `json:"cycle_count"`
	RemainingSeconds int    `json:"remaining_seconds"`
	IsRunning        bool   `json:"is_running"`
	PhaseStartMs     int64  `json:"phase_start_ms"`
	PhaseEndMs       *int64 `json:"phase_end_ms,omitempty"`
}

// Snapshot captures the engine for persistence.
func (e *Engine) Snapshot() Snapshot {
	s := e.state
	snap := Snapshot{
		Durations:        e.durations,
		Mode:             s.Mode,
		CycleCount:       s.CycleCount,
		RemainingSeconds: s.RemainingSeconds,
		IsRunning:        s.IsRunning,
		PhaseStartMs:     s.PhaseStart.UnixMilli(),
	}
	if s.HasPhaseEnd() {
		end := s.PhaseEnd.UnixMilli()
		snap.PhaseEndMs = &end
	}
	return snap
}

// DecodeSnapshot parses and validates a persisted record. Callers treat any
// error as "no prior state".
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("failed to parse timer state: %w", err)
	}
	if !snap.Durations.Valid() {
		return Snapshot{}, fmt.Errorf("durations below %ds: %+v", MinDuration, snap.Durations)
	}
	if !snap.Mode.Valid() {
		return Snapshot{}, fmt.Errorf("invalid mode %q", snap.Mode)
	}
	if snap.CycleCount < 1 {
		return Snapshot{}, fmt.Errorf("invalid cycle count %d", snap.CycleCount)
	}
	if !Reachable(snap.Mode, snap.CycleCount) {
		return Snapshot{}, fmt.Errorf("%s cannot occur in cycle %d", snap.Mode, snap.CycleCount)
	}
	if snap.RemainingSeconds < 0 || snap.RemainingSeconds > snap.Durations.Seconds(snap.Mode) {
		return Snapshot{}, fmt.Errorf("remaining %ds out of range for %s", snap.RemainingSeconds, snap.Mode)
	}
	return snap, nil
}

// Restore applies snap according to policy. A running record is reconciled
// with now through the silent catch-up path; a stopped one never keeps an end
// time.
func (e *Engine) Restore(snap Snapshot, now time.Time, policy ResumePolicy) {
	switch policy {
	case PolicyDurations:
		e.durations = clampDurations(snap.Durations)
		e.state = newState(e.durations, now)
	case PolicyResume:
		e.durations = clampDurations(snap.Durations)
		e.state = State{
			Mode:             snap.Mode,
			CycleCount:       snap.CycleCount,
			RemainingSeconds: snap.RemainingSeconds,
			IsRunning:        snap.IsRunning,
			PhaseStart:       time.UnixMilli(snap.PhaseStartMs),
		}
		if snap.IsRunning {
			e.RecomputeFromClock(now)
		}
	default:
		return
	}
	e.render()
}
