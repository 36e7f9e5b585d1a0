package ipc

import (
	"encoding/json"
	"fmt"

	"pomoclock/internal/pomodoro"
)

const DefaultSocketPath = "/tmp/pomoclock.sock"

// Command represents a command sent over the socket
type Command struct {
	Name string      `json:"name"`
	Args interface{} `json:"args,omitempty"`
}

// Response represents a response sent back over the socket
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// AdjustArgs changes the duration of Mode by DeltaSeconds.
type AdjustArgs struct {
	Mode         string `json:"mode"` // work, short or long
	DeltaSeconds int    `json:"delta_seconds"`
}

const (
	CmdPing      = "ping"
	CmdToggle    = "toggle"
	CmdReset     = "reset"
	CmdAdjust    = "adjust"
	CmdGetStatus = "get_status"
)

// StatusData is attached to every timer command response.
type StatusData struct {
	View      pomodoro.View      `json:"view"`
	Durations pomodoro.Durations `json:"durations"`
	// Applied is false when the daemon ignored the command.
	Applied bool `json:"applied"`
}

// NewStatusData converts a runner result.
func NewStatusData(res pomodoro.Result) StatusData {
	return StatusData{View: res.View, Durations: res.Durations, Applied: res.Applied}
}

// Decode converts a generically decoded JSON value (args or data) into out.
func Decode(input interface{}, out interface{}) error {
	if input == nil {
		return nil
	}
	jsonBytes, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	if err := json.Unmarshal(jsonBytes, out); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return nil
}
