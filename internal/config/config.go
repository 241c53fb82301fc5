// Package config defines processor configuration structures and loading
// hooks.
//
// Conventions:
//   - Keep fields exported with koanf tags so file/env layers can target them.
//   - Provide New() to build a Config with defaults.
//   - External errors are wrapped via procerr.
package config

import (
	"github.com/ppy/osu-performance/internal/mods"
)

// Acceptance-window constants. Compile-time per spec: only beatmaps whose
// ranked status falls in this window contribute PP records.
const (
	MinRankedStatus = 1 // ranked
	MaxRankedStatus = 2 // approved
)

// Config contains process configuration, covering every key in the
// external-interfaces section: MySQL master/slave credentials, the PP
// column name, alerting sink addresses, and the two poll intervals.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// MetricsAddr configures the HTTP listen address for the Prometheus
	// /metrics endpoint, e.g. ":9080".
	MetricsAddr string `koanf:"metrics_addr"`

	MySQLHost     string `koanf:"mysql_db_host"`
	MySQLPort     int    `koanf:"mysql_db_port"`
	MySQLUsername string `koanf:"mysql_db_username"`
	MySQLPassword string `koanf:"mysql_db_password"`
	MySQLDatabase string `koanf:"mysql_db_database"`

	MySQLSlaveHost     string `koanf:"mysql_db_slave_host"`
	MySQLSlavePort     int    `koanf:"mysql_db_slave_port"`
	MySQLSlaveUsername string `koanf:"mysql_db_slave_username"`
	MySQLSlavePassword string `koanf:"mysql_db_slave_password"`
	MySQLSlaveDatabase string `koanf:"mysql_db_slave_database"`

	// UserPPColumnName names the osu_user_stats{suffix} column holding this
	// mode's PP. It has no default here; when left empty, cmd/pp-processor
	// sets it to "pp_raw" at startup.
	UserPPColumnName string `koanf:"user_pp_column_name"`

	// Alerting sinks, all optional.
	SlackHookHost    string `koanf:"slack_hook_host"`
	SentryHost       string `koanf:"sentry_host"`
	SentryProjectID  string `koanf:"sentry_project_id"`
	SentryPublicKey  string `koanf:"sentry_public_key"`
	SentryPrivateKey string `koanf:"sentry_private_key"`

	DifficultyUpdateIntervalMS int `koanf:"difficulty_update_interval_ms"`
	ScoreUpdateIntervalMS      int `koanf:"score_update_interval_ms"`

	// WorkerCount sizes the fixed worker pool used by ProcessAllUsers.
	WorkerCount int `koanf:"worker_count"`

	// UpdateBatchHWM is the update batcher's high-water mark; 0 means flush
	// on every append (the low-latency live path).
	UpdateBatchHWM int `koanf:"update_batch_hwm"`

	// BeatmapRangeSize is the chunk size for the beatmap cache's full
	// bootstrap and ProcessAllUsers' user-id walk. Fixed at 10,000 per spec
	// but exposed for tests.
	BeatmapRangeSize int32 `koanf:"beatmap_range_size"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:                   "info",
		MetricsAddr:                ":9080",
		MySQLPort:                  3306,
		MySQLSlavePort:             3306,
		DifficultyUpdateIntervalMS: 5000,
		ScoreUpdateIntervalMS:      1000,
		WorkerCount:                4,
		UpdateBatchHWM:             50,
		BeatmapRangeSize:           10000,
	}
}

// AcceptedRankedStatusWindow exposes the compile-time acceptance window as
// a pair, for call sites that want it as a unit.
func AcceptedRankedStatusWindow() (min, max int) { return MinRankedStatus, MaxRankedStatus }

// InAcceptedWindow reports whether a ranked status contributes to ratings.
func InAcceptedWindow(rankedStatus int) bool {
	return rankedStatus >= MinRankedStatus && rankedStatus <= MaxRankedStatus
}

// AllModes lists the modes the CLI accepts, in their declared order.
var AllModes = [...]mods.Gamemode{mods.Standard, mods.Taiko, mods.CatchTheBeat, mods.Mania}
