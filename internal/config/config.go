package config

import (
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"pomoclock/internal/pomodoro"
)

type PomodoroConfig struct {
	WorkMinutes       int `mapstructure:"work_minutes" yaml:"work_minutes"`
	ShortBreakMinutes int `mapstructure:"short_break_minutes" yaml:"short_break_minutes"`
	LongBreakMinutes  int `mapstructure:"long_break_minutes" yaml:"long_break_minutes"`
}

type Config struct {
	DatabasePath   string         `mapstructure:"database_path" yaml:"database_path"`
	SocketPath     string         `mapstructure:"socket_path" yaml:"socket_path"`
	PIDFile        string         `mapstructure:"pid_file" yaml:"pid_file"`
	LogFile        string         `mapstructure:"log_file" yaml:"log_file"`
	LogLevel       string         `mapstructure:"log_level" yaml:"log_level"`
	TickIntervalMs int            `mapstructure:"tick_interval_ms" yaml:"tick_interval_ms"`
	ResumePolicy   string         `mapstructure:"resume_policy" yaml:"resume_policy"` // fresh, durations or resume
	Notifications  bool           `mapstructure:"notifications" yaml:"notifications"`
	Sound          bool           `mapstructure:"sound" yaml:"sound"`
	FocusTracking  bool           `mapstructure:"focus_tracking" yaml:"focus_tracking"` // X11 only
	Pomodoro       PomodoroConfig `mapstructure:"pomodoro" yaml:"pomodoro"`

	// File is the config file that was read, empty when running on defaults.
	File string `mapstructure:"-" yaml:"-"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database_path", "pomoclock.db")
	v.SetDefault("socket_path", "/tmp/pomoclock.sock")
	v.SetDefault("pid_file", "/tmp/pomoclock.pid")
	v.SetDefault("log_file", "pomoclock.log")
	v.SetDefault("log_level", "info")
	v.SetDefault("tick_interval_ms", pomodoro.DefaultTickInterval.Milliseconds())
	v.SetDefault("resume_policy", string(pomodoro.PolicyFresh))
	v.SetDefault("notifications", true)
	v.SetDefault("sound", true)
	v.SetDefault("focus_tracking", false)
	v.SetDefault("pomodoro.work_minutes", 25)
	v.SetDefault("pomodoro.short_break_minutes", 5)
	v.SetDefault("pomodoro.long_break_minutes", 15)
}

func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/pomoclock")
		v.AddConfigPath("/etc/pomoclock/")
	}

	v.SetEnvPrefix("POMOCLOCK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		log.Info().Msg("Config file not found, using defaults.")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.File = v.ConfigFileUsed()
	cfg.normalize()

	log.Debug().Interface("config", cfg).Msg("Configuration loaded")
	return &cfg, nil
}

func (c *Config) normalize() {
	minMs := int(pomodoro.MinTickInterval.Milliseconds())
	maxMs := int(pomodoro.MaxTickInterval.Milliseconds())
	if c.TickIntervalMs < minMs {
		log.Warn().Int("tick_interval_ms", c.TickIntervalMs).Msgf("tick_interval_ms too low, setting to %d", minMs)
		c.TickIntervalMs = minMs
	}
	if c.TickIntervalMs > maxMs {
		log.Warn().Int("tick_interval_ms", c.TickIntervalMs).Msgf("tick_interval_ms too high, setting to %d", maxMs)
		c.TickIntervalMs = maxMs
	}

	if !pomodoro.ResumePolicy(c.ResumePolicy).Valid() {
		log.Warn().Str("resume_policy", c.ResumePolicy).Msg("invalid resume_policy, defaulting to 'fresh'")
		c.ResumePolicy = string(pomodoro.PolicyFresh)
	}

	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil || c.LogLevel == "" {
		log.Warn().Str("log_level", c.LogLevel).Msg("invalid log_level, defaulting to 'info'")
		c.LogLevel = "info"
	}

	for _, m := range []*int{&c.Pomodoro.WorkMinutes, &c.Pomodoro.ShortBreakMinutes, &c.Pomodoro.LongBreakMinutes} {
		if *m < 1 {
			log.Warn().Int("minutes", *m).Msg("phase length below one minute, setting to 1")
			*m = 1
		}
	}
}

// Durations converts the configured minutes into engine durations.
func (c *Config) Durations() pomodoro.Durations {
	return pomodoro.Durations{
		Work:       c.Pomodoro.WorkMinutes * 60,
		ShortBreak: c.Pomodoro.ShortBreakMinutes * 60,
		LongBreak:  c.Pomodoro.LongBreakMinutes * 60,
	}
}

func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMs) * time.Millisecond
}

func (c *Config) Policy() pomodoro.ResumePolicy {
	return pomodoro.ResumePolicy(c.ResumePolicy)
}

// Level is the parsed log level, info when unset.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
