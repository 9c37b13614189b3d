package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/medeasy-app/routinecore/internal/api"
	"github.com/medeasy-app/routinecore/internal/checkin"
	"github.com/medeasy-app/routinecore/internal/routineapi"
	"github.com/medeasy-app/routinecore/internal/store"
	"github.com/medeasy-app/routinecore/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for local engine state.
	DefaultStateDir = "/var/lib/routinecore"
	// DefaultDBFileName is the default SQLite database filename.
	DefaultDBFileName = "routinecore.db"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	clientOpts := buildClientOptions(flags)
	storeOpts := buildStoreOptions(flags)
	engineOpts := buildEngineOptions()
	apiOpts := buildAPIOptions(flags)

	slog.Info("Bootstrapping routine engine with configured modules")
	slog.Debug("Final configuration",
		"api_addr", *flags.apiAddr, "base_url_set", *flags.baseURL != "", "dsn_set", *flags.dbDSN != "")
	if err := api.Run(clientOpts, storeOpts, engineOpts, apiOpts); err != nil {
		slog.Error("Routine engine failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("Routine engine exited successfully")
}

// Config holds environment configuration.
type Config struct {
	BaseURL     string
	Token       string
	DatabaseDSN string
	StateDir    string
	APIAddr     string
	RefreshCron string
	Debug       bool
}

// Flags holds command line flag values.
type Flags struct {
	baseURL     *string
	token       *string
	dbDSN       *string
	stateDir    *string
	apiAddr     *string
	refreshCron *string
}

// initializeLogger sets up structured logging.
func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("ROUTINECORE_DEBUG", false) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file.
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	return Config{
		BaseURL:     os.Getenv("ROUTINE_API_BASE_URL"),
		Token:       os.Getenv("ROUTINE_API_TOKEN"),
		DatabaseDSN: os.Getenv("ROUTINECORE_DB_DSN"),
		StateDir:    util.GetEnvOrDefault("ROUTINECORE_STATE_DIR", DefaultStateDir),
		APIAddr:     util.GetEnvOrDefault("ROUTINECORE_API_ADDR", api.DefaultAddr),
		RefreshCron: util.GetEnvOrDefault("ROUTINECORE_REFRESH_CRON", api.DefaultRefreshCron),
		Debug:       util.ParseBoolEnv("ROUTINECORE_DEBUG", false),
	}
}

// parseCommandLineFlags parses flags, defaulting to environment values.
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		baseURL:     flag.String("base-url", config.BaseURL, "routine service base URL"),
		token:       flag.String("token", config.Token, "routine service bearer token"),
		dbDSN:       flag.String("db-dsn", config.DatabaseDSN, "event log DSN (SQLite path or postgres:// URL; empty for in-memory)"),
		stateDir:    flag.String("state-dir", config.StateDir, "directory for local engine state"),
		apiAddr:     flag.String("api-addr", config.APIAddr, "HTTP listen address"),
		refreshCron: flag.String("refresh-cron", config.RefreshCron, "cron expression for the next-up cache refresh"),
	}
	flag.Parse()
	return flags
}

// buildClientOptions builds routine service client options.
func buildClientOptions(flags Flags) []routineapi.Option {
	opts := []routineapi.Option{routineapi.WithBaseURL(*flags.baseURL)}
	if *flags.token != "" {
		opts = append(opts, routineapi.WithToken(*flags.token))
	}
	return opts
}

// buildStoreOptions builds event-log store options. When no DSN is given the
// default SQLite file under the state directory is used.
func buildStoreOptions(flags Flags) []store.Option {
	dsn := *flags.dbDSN
	if dsn == "" && *flags.stateDir != "" {
		dsn = filepath.Join(*flags.stateDir, DefaultDBFileName)
	}
	if dsn == "" {
		return nil
	}
	return []store.Option{store.WithDSN(dsn)}
}

// buildEngineOptions builds orchestrator options from the environment.
func buildEngineOptions() []checkin.Option {
	var opts []checkin.Option
	if d := util.ParseDurationEnv("ROUTINECORE_DEDUP_WINDOW", checkin.DefaultDedupWindow); d != checkin.DefaultDedupWindow {
		opts = append(opts, checkin.WithDedupWindow(d))
	}
	if d := util.ParseDurationEnv("ROUTINECORE_SETTLE_DELAY", checkin.DefaultSettleDelay); d != checkin.DefaultSettleDelay {
		opts = append(opts, checkin.WithSettleDelay(d))
	}
	return opts
}

// buildAPIOptions builds API server options.
func buildAPIOptions(flags Flags) []api.Option {
	return []api.Option{
		api.WithAddr(*flags.apiAddr),
		api.WithRefreshCron(*flags.refreshCron),
	}
}
