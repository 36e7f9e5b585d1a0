package pomodoro

import "fmt"

// View is the derived state pushed to the UI after every tick and command.
type View struct {
	FormattedTime    string  `json:"formatted_time"`
	PhaseLabel       string  `json:"phase_label"`
	ProgressPercent  float64 `json:"progress_percent"`
	Mode             Mode    `json:"mode"`
	CycleCount       int     `json:"cycle_count"`
	RemainingSeconds int     `json:"remaining_seconds"`
	Running          bool    `json:"running"`
}

// FormatClock renders seconds as MM:SS. Minutes are not wrapped at 60.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// Progress is the elapsed share of a phase of total seconds, clamped to [0,100].
func Progress(total, remaining int) float64 {
	if total <= 0 {
		return 0
	}
	p := float64(total-remaining) / float64(total) * 100
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func makeView(s State, d Durations) View {
	return View{
		FormattedTime:    FormatClock(s.RemainingSeconds),
		PhaseLabel:       Label(s.Mode, s.CycleCount),
		ProgressPercent:  Progress(d.Seconds(s.Mode), s.RemainingSeconds),
		Mode:             s.Mode,
		CycleCount:       s.CycleCount,
		RemainingSeconds: s.RemainingSeconds,
		Running:          s.IsRunning,
	}
}
