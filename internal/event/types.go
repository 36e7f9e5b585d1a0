package event

import "time"

type EventType string

const (
	EventTypePhaseComplete EventType = "phase_complete" // live completion, signalled
	EventTypePhaseSkipped  EventType = "phase_skipped"  // reconstructed by catch-up, silent
	EventTypeCommand       EventType = "command"
	EventTypeAppStart      EventType = "app_start"
	EventTypeAppStop       EventType = "app_stop"
)

// Event structure to store in DB
type Event struct {
	ID          int64     `db:"id"`
	Timestamp   time.Time `db:"timestamp"`
	Type        EventType `db:"type"`
	RunID       string    `db:"run_id"` // One per daemon process
	Mode        string    `db:"mode"`   // Phase that ended, or the mode a command acted on
	Cycle       int       `db:"cycle"`
	Value       float64   `db:"value"` // Phase length in seconds
	AppName     string    `db:"app_name"`
	WindowTitle string    `db:"window_title"`
	Notes       string    `db:"notes"`
}

// FocusInfo is the window that had input focus when a phase ended.
type FocusInfo struct {
	AppName string
	Title   string
}
