package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// Environment variables consulted when a flag is not given
const (
	EnvPort           = "CUEVOTE_PORT"
	EnvDBPath         = "CUEVOTE_DB"
	EnvAdminPassword  = "CUEVOTE_ADMIN_PASSWORD"
	EnvLogLevel       = "CUEVOTE_LOG_LEVEL"
	EnvBaseURL        = "CUEVOTE_BASE_URL"
	EnvLeagueHubURL   = "CUEVOTE_LEAGUEHUB_URL"
	EnvLeagueHubToken = "CUEVOTE_LEAGUEHUB_TOKEN"
	EnvQuorum         = "CUEVOTE_QUORUM"
	EnvLiveQuorum     = "CUEVOTE_LIVE_QUORUM"
	EnvAppealWindow   = "CUEVOTE_APPEAL_WINDOW"
	EnvRetention      = "CUEVOTE_RETENTION"
)

// Config holds the server's runtime options
type Config struct {
	Port           int
	DBPath         string
	AdminPassword  string
	LogLevel       string
	BaseURL        string
	LeagueHubURL   string
	LeagueHubToken string
	QuorumFraction float64
	LiveQuorum     bool
	AppealWindow   time.Duration
	Retention      time.Duration
	NoKeyboard     bool
	ShowVersion    bool
}

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		Port:           8081,
		DBPath:         "cuevote.db",
		LogLevel:       "info",
		QuorumFraction: 0.5,
		AppealWindow:   72 * time.Hour,
		Retention:      10 * time.Minute,
	}
}

// Parse reads flags from args. Any flag not given falls back to its
// CUEVOTE_* environment variable, then to the default.
func Parse(args []string) (Config, error) {
	return parse(args, os.Stderr)
}

func parse(args []string, output io.Writer) (Config, error) {
	cfg, err := fromEnv(Default())
	if err != nil {
		return Config{}, err
	}

	fs := flag.NewFlagSet("cuevote", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.IntVar(&cfg.Port, "port", cfg.Port, "HTTP server port")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path")
	fs.StringVar(&cfg.AdminPassword, "adminpw", cfg.AdminPassword, "Operator password (auto-generated if not set)")
	fs.StringVar(&cfg.LogLevel, "loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.BaseURL, "baseurl", cfg.BaseURL, "Base URL for ballot links (detected from the LAN address if not set)")
	fs.StringVar(&cfg.LeagueHubURL, "leaguehub", cfg.LeagueHubURL, "League hub URL for roster sync")
	fs.StringVar(&cfg.LeagueHubToken, "leaguehub-token", cfg.LeagueHubToken, "League hub API token")
	fs.Float64Var(&cfg.QuorumFraction, "quorum", cfg.QuorumFraction, "Share of eligible weight that must be cast (0-1]")
	fs.BoolVar(&cfg.LiveQuorum, "live-quorum", cfg.LiveQuorum, "Recompute quorum from the roster at the deadline")
	fs.DurationVar(&cfg.AppealWindow, "appeal-window", cfg.AppealWindow, "How long an incident may be appealed")
	fs.DurationVar(&cfg.Retention, "retention", cfg.Retention, "How long resolved votes stay in memory")
	fs.BoolVar(&cfg.NoKeyboard, "nokeyboard", false, "Disable keyboard shortcuts")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "Show version and exit")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks option ranges
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.DBPath == "" {
		return errors.New("database path is required")
	}
	if c.QuorumFraction <= 0 || c.QuorumFraction > 1 {
		return fmt.Errorf("quorum must be in (0, 1], got %v", c.QuorumFraction)
	}
	if c.AppealWindow <= 0 {
		return errors.New("appeal window must be positive")
	}
	if c.Retention <= 0 {
		return errors.New("retention must be positive")
	}
	return nil
}

func fromEnv(cfg Config) (Config, error) {
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s env variable", EnvPort)
		}
		cfg.Port = port
	}
	setString(&cfg.DBPath, EnvDBPath)
	setString(&cfg.AdminPassword, EnvAdminPassword)
	setString(&cfg.LogLevel, EnvLogLevel)
	setString(&cfg.BaseURL, EnvBaseURL)
	setString(&cfg.LeagueHubURL, EnvLeagueHubURL)
	setString(&cfg.LeagueHubToken, EnvLeagueHubToken)

	if v := os.Getenv(EnvQuorum); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s env variable", EnvQuorum)
		}
		cfg.QuorumFraction = f
	}
	if v := os.Getenv(EnvLiveQuorum); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s env variable", EnvLiveQuorum)
		}
		cfg.LiveQuorum = b
	}
	for env, dst := range map[string]*time.Duration{EnvAppealWindow: &cfg.AppealWindow, EnvRetention: &cfg.Retention} {
		if v := os.Getenv(env); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return Config{}, fmt.Errorf("invalid %s env variable", env)
			}
			*dst = d
		}
	}
	return cfg, nil
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}
