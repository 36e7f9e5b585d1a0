package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"pomoclock/internal/ipc"
	"pomoclock/internal/pomodoro"
)

// UI writes colored CLI output.
type UI struct {
	Verbose bool
	Out     io.Writer
	ErrOut  io.Writer
}

// New creates a UI with default stdout/stderr writers.
func New() *UI {
	return &UI{
		Out:    os.Stdout,
		ErrOut: os.Stderr,
	}
}

var (
	infoPrefix    = color.New(color.FgHiBlue).Sprint("i")
	successPrefix = color.New(color.FgHiGreen).Sprint("✓")
	warningPrefix = color.New(color.FgHiYellow).Sprint("⚠")
	errorPrefix   = color.New(color.FgHiRed).Sprint("✗")
	verbosePrefix = color.New(color.FgHiBlue).Sprint("  →")
	cyan          = color.New(color.FgHiCyan).SprintFunc()
	green         = color.New(color.FgHiGreen).SprintFunc()
	yellow        = color.New(color.FgHiYellow).SprintFunc()
	red           = color.New(color.FgHiRed).SprintFunc()
	bold          = color.New(color.Bold).SprintFunc()
)

// ModeColor colors s by phase kind: red for work, green for short breaks, cyan for long ones.
func ModeColor(mode pomodoro.Mode, s string) string {
	switch mode {
	case pomodoro.ModeWork:
		return red(s)
	case pomodoro.ModeShortBreak:
		return green(s)
	case pomodoro.ModeLongBreak:
		return cyan(s)
	default:
		return s
	}
}

func (u *UI) Info(format string, a ...any) {
	fmt.Fprintf(u.Out, "%s %s\n", infoPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Success(format string, a ...any) {
	fmt.Fprintf(u.Out, "%s %s\n", successPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Warning(format string, a ...any) {
	fmt.Fprintf(u.ErrOut, "%s %s\n", warningPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Error(format string, a ...any) {
	fmt.Fprintf(u.ErrOut, "%s %s\n", errorPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) VerboseLog(format string, a ...any) {
	if u.Verbose {
		fmt.Fprintf(u.Out, "%s %s\n", verbosePrefix, fmt.Sprintf(format, a...))
	}
}

// Status prints the one-line timer summary followed by the durations.
func (u *UI) Status(s ipc.StatusData) {
	v := s.View
	state := yellow("paused")
	if v.Running {
		state = green("running")
	}
	fmt.Fprintf(u.Out, "%s  %s  %s  %s\n",
		ModeColor(v.Mode, bold(v.PhaseLabel)),
		bold(v.FormattedTime),
		state,
		fmt.Sprintf("%3.0f%%", v.ProgressPercent),
	)
	u.VerboseLog("work %s, short break %s, long break %s",
		pomodoro.FormatClock(s.Durations.Work),
		pomodoro.FormatClock(s.Durations.ShortBreak),
		pomodoro.FormatClock(s.Durations.LongBreak),
	)
}

// Bar renders a fixed-width text progress bar for percent in [0,100].
func Bar(percent float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(percent / 100 * float64(width))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// Table creates a new tablewriter configured with consistent styling.
func (u *UI) Table(headers []string) *tablewriter.Table {
	table := tablewriter.NewTable(u.Out,
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Lines:      tw.LinesNone,
				Separators: tw.SeparatorsNone,
			},
		}),
		tablewriter.WithPadding(tw.Padding{Left: "", Right: "  "}),
	)
	table.Header(headers)
	return table
}
