package pomodoro

import "fmt"

// Mode is the kind of the current phase.
type Mode string

const (
	ModeWork       Mode = "Work"
	ModeShortBreak Mode = "ShortBreak"
	ModeLongBreak  Mode = "LongBreak"
)

// LongBreakInterval is the number of work sessions per long break.
const LongBreakInterval = 4

func (m Mode) Valid() bool {
	switch m {
	case ModeWork, ModeShortBreak, ModeLongBreak:
		return true
	}
	return false
}

// IsBreak reports whether m is one of the two break kinds.
func (m Mode) IsBreak() bool {
	return m == ModeShortBreak || m == ModeLongBreak
}

// ParseMode accepts the canonical names plus the short aliases used on the command line.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "Work", "work", "pomodoro", "focus":
		return ModeWork, nil
	case "ShortBreak", "short", "short-break", "short_break":
		return ModeShortBreak, nil
	case "LongBreak", "long", "long-break", "long_break":
		return ModeLongBreak, nil
	}
	return "", fmt.Errorf("invalid mode %q: use work, short or long", s)
}

// NextPhase applies the fixed cycle rule. A work session is followed by a long
// break when cycle is a multiple of LongBreakInterval and by a short break
// otherwise; any break is followed by work with the cycle count advanced by one.
func NextPhase(mode Mode, cycle int) (Mode, int) {
	if mode == ModeWork {
		if cycle%LongBreakInterval == 0 {
			return ModeLongBreak, cycle
		}
		return ModeShortBreak, cycle
	}
	return ModeWork, cycle + 1
}

// Reachable reports whether NextPhase can ever land on mode at cycle. Long
// breaks only follow every LongBreakInterval-th work session.
func Reachable(mode Mode, cycle int) bool {
	if !mode.Valid() || cycle < 1 {
		return false
	}
	switch mode {
	case ModeLongBreak:
		return cycle%LongBreakInterval == 0
	case ModeShortBreak:
		return cycle%LongBreakInterval != 0
	}
	return true
}

// Label is the human readable phase name shown next to the countdown.
func Label(mode Mode, cycle int) string {
	switch mode {
	case ModeShortBreak:
		return "Short Break"
	case ModeLongBreak:
		return "Long Break"
	default:
		return fmt.Sprintf("Pomodoro %d", cycle)
	}
}

// completionMessage is the notification body for the phase that just ended.
func completionMessage(ended Mode) string {
	if ended == ModeWork {
		return "Time's up! Break is next."
	}
	return "Break's over! Back to work."
}
