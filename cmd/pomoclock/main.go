package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sevlyar/go-daemon"
	"github.com/spf13/pflag"

	"pomoclock/internal/app"
	"pomoclock/internal/config"
)

var (
	configPath = pflag.StringP("config", "c", "", "Path to configuration file. Defaults to ./config.yaml, ~/.config/pomoclock/config.yaml, /etc/pomoclock/config.yaml")
	logPath    = pflag.String("log", "", "Path to log file (defaults to stderr, or log_file when daemonized)")
	daemonize  = pflag.BoolP("daemon", "d", false, "Detach from the terminal and run in the background")
	envFile    = pflag.String("env", ".env", "Environment file loaded before the configuration")
)

// consoleLogger writes human readable logs on a terminal and JSON otherwise.
func consoleLogger() zerolog.Logger {
	if isatty.IsTerminal(os.Stderr.Fd()) {
		return log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// setupLogging points the global logger at logFilePath, or stderr when empty.
func setupLogging(logFilePath string) (*os.File, error) {
	if logFilePath == "" {
		log.Logger = consoleLogger()
		return nil, nil
	}

	dir := filepath.Dir(logFilePath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}
	file, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", logFilePath, err)
	}

	log.Logger = zerolog.New(file).With().Timestamp().Caller().Logger()
	return file, nil
}

func main() {
	pflag.Parse()

	log.Logger = consoleLogger()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Str("file", *envFile).Msg("could not load env file")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	zerolog.SetGlobalLevel(cfg.Level())

	target := *logPath
	if *daemonize {
		if target == "" {
			target = cfg.LogFile
		}
		wd, err := os.Getwd()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to resolve working directory")
		}
		dctx := &daemon.Context{
			PidFileName: cfg.PIDFile,
			PidFilePerm: 0644,
			LogFileName: target,
			LogFilePerm: 0640,
			WorkDir:     wd,
			Umask:       027,
		}
		child, err := dctx.Reborn()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to daemonize")
		}
		if child != nil {
			fmt.Printf("pomoclock started in background (pid %d, log %s)\n", child.Pid, target)
			return
		}
		defer dctx.Release()
		// The daemon's stderr is already redirected to the log file.
		target = ""
	}

	logFile, logErr := setupLogging(target)
	if logErr != nil {
		log.Logger = consoleLogger()
		log.Error().Err(logErr).Msg("Error setting up file logging, logging to stderr instead")
	}
	if logFile != nil {
		defer logFile.Close()
	}

	application, err := app.NewApp(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create application")
	}

	if err := application.Run(); err != nil {
		log.Error().Err(err).Msg("Application exited with error")
		os.Exit(1)
	}
	log.Info().Msg("pomoclock finished successfully.")
}
