package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server" envconfig:"SERVER"`
	Security   SecurityConfig   `yaml:"security" envconfig:"SECURITY"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Paths      PathsConfig      `yaml:"paths" envconfig:"PATHS"`
	Normalizer NormalizerConfig `yaml:"normalizer" envconfig:"NORMALIZER"`
	Forecast   ForecastConfig   `yaml:"forecast" envconfig:"FORECAST"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" validate:"gt=0"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" validate:"gt=0"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`

	// AllowedOrigins enables CORS for the listed origins; empty disables CORS headers
	AllowedOrigins []string `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gte=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	ModelsDir string `yaml:"models_dir" envconfig:"MODELS_DIR" validate:"required"`
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
	LogsDir   string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// NormalizerConfig controls schema reconciliation
type NormalizerConfig struct {
	// PlaceholderTrackID is assigned to every row of a single-track upload
	PlaceholderTrackID string `yaml:"placeholder_track_id" envconfig:"PLACEHOLDER_TRACK_ID" validate:"required"`
}

// ForecastConfig controls feature windowing, scaling and the quantile models
type ForecastConfig struct {
	SequenceLength  int        `yaml:"sequence_length" envconfig:"SEQUENCE_LENGTH" validate:"min=1"`
	Epsilon         float64    `yaml:"epsilon" envconfig:"EPSILON" validate:"gt=0"`
	Scaler          string     `yaml:"scaler" envconfig:"SCALER" validate:"oneof=per_window fixed"`
	ScalerStatsFile string     `yaml:"scaler_stats_file" envconfig:"SCALER_STATS_FILE" validate:"required_if=Scaler fixed"`
	QuantilePolicy  string     `yaml:"quantile_policy" envconfig:"QUANTILE_POLICY" validate:"oneof=none sort"`
	Models          ModelFiles `yaml:"models" envconfig:"MODELS"`
}

// ModelFiles names the artifact of each quantile model, relative to the models directory
type ModelFiles struct {
	P10 string `yaml:"p10" envconfig:"P10" validate:"required"`
	P50 string `yaml:"p50" envconfig:"P50" validate:"required"`
	P90 string `yaml:"p90" envconfig:"P90" validate:"required"`
}

// TelemetryConfig contains OpenTelemetry configuration
type TelemetryConfig struct {
	EnableMetrics  bool    `yaml:"enable_metrics" envconfig:"ENABLE_METRICS"`
	EnableTracing  bool    `yaml:"enable_tracing" envconfig:"ENABLE_TRACING"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" validate:"oneof=prometheus none"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
}

// Load builds the configuration from defaults, an optional YAML file and
// STREAMCAST_* environment variables, in increasing order of precedence.
// An empty filePath searches the usual locations.
func Load(filePath string) (*Config, error) {
	cfg := Default()

	if filePath == "" {
		filePath = getConfigFilePath()
	}
	if filePath != "" {
		if err := loadFromFile(filePath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Fields without a matching env var are left as they are
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays a YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		c.Logging.FilePath = filepath.Join(c.Paths.LogsDir, DefaultLogFileName)
	}
	return nil
}

// ModelPath resolves a model artifact path against the models directory
func (c *Config) ModelPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Paths.ModelsDir, name)
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"streamcast.yaml",
		"configs/streamcast.yaml",
		"../configs/streamcast.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  30 * time.Second,
			MaxUploadBytes:  DefaultMaxUploadBytes,
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimit,
				Burst:   DefaultBurstSize,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: "console",
		},
		Paths: PathsConfig{
			ModelsDir: DefaultModelsDir,
			OutputDir: DefaultOutputDir,
			LogsDir:   DefaultLogsDir,
		},
		Normalizer: NormalizerConfig{
			PlaceholderTrackID: DefaultPlaceholderTrackID,
		},
		Forecast: ForecastConfig{
			SequenceLength: DefaultSequenceLength,
			Epsilon:        DefaultEpsilon,
			Scaler:         ScalerPerWindow,
			QuantilePolicy: QuantilePolicyNone,
			Models: ModelFiles{
				P10: "model_q10.json",
				P50: "model_q50.json",
				P90: "model_q90.json",
			},
		},
		Telemetry: TelemetryConfig{
			EnableMetrics:  true,
			EnableTracing:  false,
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
			Environment:    "development",
		},
	}
}
