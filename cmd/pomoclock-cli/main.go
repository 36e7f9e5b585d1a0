package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"pomoclock/internal/config"
	"pomoclock/internal/ipc"
	"pomoclock/internal/output"
)

var (
	configPath string
	socketPath string
	dbPath     string
	verbose    bool

	cfg *config.Config
	ui  = output.New()
)

var rootCmd = &cobra.Command{
	Use:   "pomoclock-cli",
	Short: "Control the pomoclock daemon",
	Long: `A command-line interface for the pomoclock daemon. Timer commands go over
the daemon's Unix socket; history is read straight from the database.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := zerolog.WarnLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		zerolog.SetGlobalLevel(level)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
		ui.Verbose = verbose

		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		if socketPath == "" {
			socketPath = cfg.SocketPath
		}
		if dbPath == "" {
			dbPath = cfg.DatabasePath
		}
		return nil
	},
}

func client() *ipc.Client {
	return ipc.NewClient(socketPath)
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 5*time.Second)
}

// explain adds a hint when the daemon is not running.
func explain(err error) error {
	if errors.Is(err, ipc.ErrDaemonUnavailable) {
		ui.Warning("Is the pomoclock daemon running? Start it with `pomoclock -d`.")
	}
	return err
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", "", "Daemon socket path (default: socket_path from config)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database file (default: database_path from config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	addTimerCommands(rootCmd)
	addHistoryCommands(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		ui.Error("%v", err)
		os.Exit(1)
	}
}
