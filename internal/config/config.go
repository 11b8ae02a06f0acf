// Package config loads the application configuration from file, environment
// and defaults. Every tuning knob of the pipeline lives here; nothing is
// hard-coded in the stages.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	API         APIConfig         `yaml:"api" mapstructure:"api"`
	Budget      BudgetConfig      `yaml:"budget" mapstructure:"budget"`
	Runs        RunsConfig        `yaml:"runs" mapstructure:"runs"`
	Discovery   DiscoveryConfig   `yaml:"discovery" mapstructure:"discovery"`
	Verify      VerifyConfig      `yaml:"verify" mapstructure:"verify"`
	Timeline    TimelineConfig    `yaml:"timeline" mapstructure:"timeline"`
	Reconstruct ReconstructConfig `yaml:"reconstruct" mapstructure:"reconstruct"`
	Assemble    AssembleConfig    `yaml:"assemble" mapstructure:"assemble"`
	Metrics     MetricsConfig     `yaml:"metrics" mapstructure:"metrics"`
	Export      ExportConfig      `yaml:"export" mapstructure:"export"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// APIConfig holds credentials and pacing for the flight-data service.
type APIConfig struct {
	Key         string  `yaml:"key" mapstructure:"key"`
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"` // requests per second
	RateBurst   int     `yaml:"rate_burst" mapstructure:"rate_burst"`
}

// BudgetConfig sets the per-run credit ceiling and per-operation costs.
type BudgetConfig struct {
	RunCredits   int64 `yaml:"run_credits" mapstructure:"run_credits"`
	DiscoverCost int64 `yaml:"discover_cost" mapstructure:"discover_cost"`
	SummaryCost  int64 `yaml:"summary_cost" mapstructure:"summary_cost"`
	SnapshotCost int64 `yaml:"snapshot_cost" mapstructure:"snapshot_cost"`
}

// RunsConfig locates the run directories.
type RunsConfig struct {
	BaseDir string `yaml:"base_dir" mapstructure:"base_dir"`
}

// DiscoveryConfig configures the candidate discovery seeds.
type DiscoveryConfig struct {
	AirportsFile  string   `yaml:"airports_file" mapstructure:"airports_file"`
	Airports      []string `yaml:"airports" mapstructure:"airports"` // overrides the file when set
	Bounds        string   `yaml:"bounds" mapstructure:"bounds"`     // "north,south,west,east"
	SnapshotHours []int    `yaml:"snapshot_hours" mapstructure:"snapshot_hours"`
	LookbackDays  int      `yaml:"lookback_days" mapstructure:"lookback_days"`
	MaxCandidates int      `yaml:"max_candidates" mapstructure:"max_candidates"`
	PageLimit     int      `yaml:"page_limit" mapstructure:"page_limit"`
}

// VerifyConfig configures completion verification.
type VerifyConfig struct {
	MinWaitHours int `yaml:"min_wait_hours" mapstructure:"min_wait_hours"`
	MaxAttempts  int `yaml:"max_attempts" mapstructure:"max_attempts"`
	Workers      int `yaml:"workers" mapstructure:"workers"`
}

// TimelineConfig configures the per-flight polling schedule.
type TimelineConfig struct {
	MaxSamples          int `yaml:"max_samples" mapstructure:"max_samples"`
	FallbackWindowHours int `yaml:"fallback_window_hours" mapstructure:"fallback_window_hours"`
}

// ReconstructConfig configures snapshot harvesting.
type ReconstructConfig struct {
	BucketSecs int    `yaml:"bucket_secs" mapstructure:"bucket_secs"`
	Bounds     string `yaml:"bounds" mapstructure:"bounds"`
	Workers    int    `yaml:"workers" mapstructure:"workers"`
}

// AssembleConfig configures trajectory assembly.
type AssembleConfig struct {
	MinSamples int `yaml:"min_samples" mapstructure:"min_samples"`
}

// MetricsConfig holds the heuristic thresholds of the phase detector and the
// emission model. These are design knobs meant to be tuned without code
// changes.
type MetricsConfig struct {
	AirportsFile     string  `yaml:"airports_file" mapstructure:"airports_file"`
	FuelProfilesFile string  `yaml:"fuel_profiles_file" mapstructure:"fuel_profiles_file"`
	VerticalRateThr  float64 `yaml:"vertical_rate_thr" mapstructure:"vertical_rate_thr"` // ft/min
	LowAltitudeFt    float64 `yaml:"low_altitude_ft" mapstructure:"low_altitude_ft"`
	TakeoffSpeedKts  float64 `yaml:"takeoff_speed_kts" mapstructure:"takeoff_speed_kts"`
	LandingSpeedKts  float64 `yaml:"landing_speed_kts" mapstructure:"landing_speed_kts"`
	GroundSpeedKts   float64 `yaml:"ground_speed_kts" mapstructure:"ground_speed_kts"`
	MinDwellSamples  int     `yaml:"min_dwell_samples" mapstructure:"min_dwell_samples"`
	EmissionFactor   float64 `yaml:"emission_factor" mapstructure:"emission_factor"` // kg CO2 per kg fuel
	SuspectTolerance float64 `yaml:"suspect_tolerance" mapstructure:"suspect_tolerance"`
}

// ExportConfig configures the downstream database sink.
type ExportConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	PostGIS     bool   `yaml:"postgis" mapstructure:"postgis"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Timeout returns the API client timeout as a duration.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// MinWait returns the completion-wait window as a duration.
func (c VerifyConfig) MinWait() time.Duration {
	return time.Duration(c.MinWaitHours) * time.Hour
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("FLIGHTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal only sees keys viper knows about, so even secret and
	// optional keys need a default for their env override to apply.
	v.SetDefault("api.key", "")
	v.SetDefault("api.base_url", "https://fr24api.flightradar24.com/api")
	v.SetDefault("api.timeout_secs", 30)
	v.SetDefault("api.rate_limit", 0.5) // the upstream plan allows roughly one call per 2s
	v.SetDefault("api.rate_burst", 1)

	v.SetDefault("budget.run_credits", 50000)
	v.SetDefault("budget.discover_cost", 10)
	v.SetDefault("budget.summary_cost", 20)
	v.SetDefault("budget.snapshot_cost", 60)

	v.SetDefault("runs.base_dir", "data/flights")

	v.SetDefault("discovery.airports_file", "data/airports.yaml")
	v.SetDefault("discovery.bounds", "")
	v.SetDefault("discovery.snapshot_hours", []int{2, 8, 14, 20})
	v.SetDefault("discovery.lookback_days", 1)
	v.SetDefault("discovery.max_candidates", 1200)
	v.SetDefault("discovery.page_limit", 100)

	v.SetDefault("verify.min_wait_hours", 24)
	v.SetDefault("verify.max_attempts", 3)
	v.SetDefault("verify.workers", 10)

	v.SetDefault("timeline.max_samples", 30)
	v.SetDefault("timeline.fallback_window_hours", 6)

	v.SetDefault("reconstruct.bucket_secs", 360)
	v.SetDefault("reconstruct.bounds", "")
	v.SetDefault("reconstruct.workers", 5)

	v.SetDefault("assemble.min_samples", 5)

	v.SetDefault("metrics.airports_file", "data/airports.yaml")
	v.SetDefault("metrics.fuel_profiles_file", "data/fuel_profiles.json")
	v.SetDefault("metrics.vertical_rate_thr", 300)
	v.SetDefault("metrics.low_altitude_ft", 500)
	v.SetDefault("metrics.takeoff_speed_kts", 30)
	v.SetDefault("metrics.landing_speed_kts", 50)
	v.SetDefault("metrics.ground_speed_kts", 30)
	v.SetDefault("metrics.min_dwell_samples", 2)
	v.SetDefault("metrics.emission_factor", 3.16)
	v.SetDefault("metrics.suspect_tolerance", 0.05)

	v.SetDefault("export.database_url", "")
	v.SetDefault("export.postgis", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
