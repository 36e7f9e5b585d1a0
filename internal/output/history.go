package output

import (
	"fmt"
	"sort"
	"time"

	"pomoclock/internal/event"
	"pomoclock/internal/pomodoro"
)

// DayTotal aggregates one calendar day of recorded phases.
type DayTotal struct {
	Day          time.Time
	Pomodoros    int
	FocusSeconds int
	BreakSeconds int
	// Skipped counts phases reconstructed while the daemon was not ticking.
	Skipped int
	TopApp  string
}

// DailyTotals groups phase events by local day, oldest first.
func DailyTotals(events []event.Event, loc *time.Location) []DayTotal {
	byDay := make(map[time.Time]*DayTotal)
	apps := make(map[time.Time]map[string]int)

	for _, e := range events {
		if e.Type != event.EventTypePhaseComplete && e.Type != event.EventTypePhaseSkipped {
			continue
		}
		t := e.Timestamp.In(loc)
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
		d, ok := byDay[day]
		if !ok {
			d = &DayTotal{Day: day}
			byDay[day] = d
			apps[day] = make(map[string]int)
		}

		if e.Type == event.EventTypePhaseSkipped {
			d.Skipped++
			continue
		}
		if pomodoro.Mode(e.Mode) == pomodoro.ModeWork {
			d.Pomodoros++
			d.FocusSeconds += int(e.Value)
			if e.AppName != "" {
				apps[day][e.AppName]++
			}
		} else {
			d.BreakSeconds += int(e.Value)
		}
	}

	totals := make([]DayTotal, 0, len(byDay))
	for day, d := range byDay {
		d.TopApp = topApp(apps[day])
		totals = append(totals, *d)
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Day.Before(totals[j].Day) })
	return totals
}

func topApp(counts map[string]int) string {
	best, bestN := "", 0
	for app, n := range counts {
		if n > bestN || (n == bestN && app < best) {
			best, bestN = app, n
		}
	}
	return best
}

// History renders daily totals as a table.
func (u *UI) History(totals []DayTotal) {
	if len(totals) == 0 {
		u.Info("No completed phases in this period.")
		return
	}
	table := u.Table([]string{"Day", "Pomodoros", "Focus", "Breaks", "Skipped", "Top app"})
	var pomodoros, focus int
	for _, d := range totals {
		table.Append([]string{
			d.Day.Format("Mon 2006-01-02"),
			fmt.Sprintf("%d", d.Pomodoros),
			FormatMinutes(d.FocusSeconds),
			FormatMinutes(d.BreakSeconds),
			fmt.Sprintf("%d", d.Skipped),
			d.TopApp,
		})
		pomodoros += d.Pomodoros
		focus += d.FocusSeconds
	}
	table.Render()
	u.Success("%d pomodoros, %s focused", pomodoros, FormatMinutes(focus))
}

// FormatMinutes renders seconds as "1h 05m" or "25m".
func FormatMinutes(seconds int) string {
	d := (time.Duration(seconds) * time.Second).Round(time.Minute)
	h := d / time.Hour
	m := (d - h*time.Hour) / time.Minute
	if h > 0 {
		return fmt.Sprintf("%dh %02dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
