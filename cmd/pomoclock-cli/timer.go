package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"pomoclock/internal/ipc"
	"pomoclock/internal/pomodoro"
	"pomoclock/internal/tui"
)

var statusJSON bool

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the daemon is running",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		if err := client().Ping(ctx); err != nil {
			return explain(err)
		}
		ui.Success("pong")
		return nil
	},
}

// toggleUnless toggles the timer unless it is already in the wanted state.
func toggleUnless(cmd *cobra.Command, running bool, already string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	c := client()
	status, err := c.Status(ctx)
	if err != nil {
		return explain(err)
	}
	if status.View.Running == running {
		ui.Info("%s", already)
		ui.Status(status)
		return nil
	}
	return call(cmd, ipc.CmdToggle, nil)
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start or resume the timer",
	RunE: func(cmd *cobra.Command, args []string) error {
		return toggleUnless(cmd, true, "Timer already running")
	},
}

var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause the timer",
	RunE: func(cmd *cobra.Command, args []string) error {
		return toggleUnless(cmd, false, "Timer already paused")
	},
}

var toggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Start the timer if paused, pause it if running",
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd, ipc.CmdToggle, nil)
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Stop the timer and refill the current phase",
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd, ipc.CmdReset, nil)
	},
}

var adjustCmd = &cobra.Command{
	Use:   "adjust <work|short|long> <+N|-N>",
	Short: "Change a phase duration by N minutes (timer must be paused)",
	Example: `  pomoclock-cli adjust work +5
  pomoclock-cli adjust short -1`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := pomodoro.ParseMode(args[0])
		if err != nil {
			return err
		}
		minutes, err := strconv.Atoi(args[1])
		if err != nil || minutes == 0 {
			return fmt.Errorf("invalid minutes %q: use a non-zero number like +5 or -1", args[1])
		}
		return call(cmd, ipc.CmdAdjust, ipc.AdjustArgs{
			Mode:         string(mode),
			DeltaSeconds: minutes * pomodoro.DurationStep,
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current phase and remaining time",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		status, err := client().Status(ctx)
		if err != nil {
			return explain(err)
		}
		if statusJSON {
			enc := json.NewEncoder(ui.Out)
			enc.SetIndent("", "  ")
			return enc.Encode(status)
		}
		ui.Status(status)
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Show a live countdown (space start/pause, r reset, +/- adjust, q quit)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !isatty.IsTerminal(os.Stdout.Fd()) {
			return fmt.Errorf("watch needs an interactive terminal, use `status` instead")
		}
		c := client()
		ctx, cancel := commandContext(cmd)
		defer cancel()
		if err := c.Ping(ctx); err != nil {
			return explain(err)
		}
		return tui.Run(c, pomodoro.DefaultTickInterval)
	},
}

// call sends a timer command and prints the daemon's answer.
func call(cmd *cobra.Command, name string, args interface{}) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	status, msg, err := client().Call(ctx, name, args)
	if err != nil {
		return explain(err)
	}
	if status.Applied {
		ui.Success("%s", msg)
	} else {
		ui.Warning("%s", msg)
	}
	ui.Status(status)
	return nil
}

func addTimerCommands(root *cobra.Command) {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Print the raw status as JSON")

	root.AddCommand(pingCmd, startCmd, pauseCmd, toggleCmd, resetCmd, adjustCmd, statusCmd, watchCmd)
}
