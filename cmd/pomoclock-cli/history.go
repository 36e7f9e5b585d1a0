package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"pomoclock/internal/event"
	"pomoclock/internal/output"

	sqlitestore "pomoclock/internal/storage/sqlite"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Summarize completed pomodoros per day",
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")
		if days < 1 {
			return fmt.Errorf("--days must be at least 1")
		}

		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return fmt.Errorf("database file not found at %s, has the daemon run yet? Use --db to point at it", dbPath)
		} else if err != nil {
			return fmt.Errorf("error accessing database file %s: %w", dbPath, err)
		}

		now := time.Now()
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		start := midnight.AddDate(0, 0, -(days - 1))
		ui.VerboseLog("Reading %s from %s", dbPath, start.Format("2006-01-02"))

		store := sqlitestore.NewSQLiteStore(dbPath)
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()
		if err := store.Init(ctx); err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer store.Close()

		events, err := store.GetEvents(ctx, start, now, event.EventTypePhaseComplete, event.EventTypePhaseSkipped)
		if err != nil {
			return err
		}
		ui.VerboseLog("Fetched %d phase events", len(events))

		ui.History(output.DailyTotals(events, time.Local))
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the effective configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the configuration after defaults, file and environment are applied",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.File != "" {
			ui.Info("Loaded from %s", cfg.File)
		} else {
			ui.Info("No config file found, showing defaults")
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to render config: %w", err)
		}
		_, err = ui.Out.Write(data)
		return err
	},
}

func addHistoryCommands(root *cobra.Command) {
	historyCmd.Flags().IntP("days", "d", 7, "Number of days to include, today counted")
	root.AddCommand(historyCmd)

	configCmd.AddCommand(configShowCmd)
	root.AddCommand(configCmd)
}
