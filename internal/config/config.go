package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config holds all configuration for the RMS console
type Config struct {
	// Server configuration
	Listen    string `mapstructure:"listen"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"` // json, text

	// Public URL of the console, used for CORS and logged at startup
	PublicConsoleURL string `mapstructure:"public_console_url"` // e.g., https://rms.example.com or http://localhost:8090

	// TLS configuration
	EnableTLS bool   `mapstructure:"enable_tls"`
	CertFile  string `mapstructure:"cert_file"`
	KeyFile   string `mapstructure:"key_file"`

	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Reasons    ReasonsConfig    `mapstructure:"reasons"`
	Security   SecurityConfig   `mapstructure:"security"`
	Workspaces WorkspacesConfig `mapstructure:"workspaces"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// MetricsConfig defines metrics configuration
type MetricsConfig struct {
	Enable bool   `mapstructure:"enable"`
	Path   string `mapstructure:"path"`
}

// ReasonsConfig defines how the reason catalog is seeded
type ReasonsConfig struct {
	SeedFile   string `mapstructure:"seed_file"`   // YAML document replacing the built-in reasons
	IDStrategy string `mapstructure:"id_strategy"` // timestamp, uuid
}

// SecurityConfig defines request protection
type SecurityConfig struct {
	// CSRFKey enables CSRF protection of mutating console calls when set.
	// Must be exactly 32 bytes.
	CSRFKey string `mapstructure:"csrf_key"`
}

// WorkspacesConfig bounds the per-session panels held in memory
type WorkspacesConfig struct {
	Max              int           `mapstructure:"max"`
	IdleTimeout      time.Duration `mapstructure:"idle_timeout"`
	CleanupInterval  time.Duration `mapstructure:"cleanup_interval"`
	CreatesPerMinute int           `mapstructure:"creates_per_minute"` // per client IP, 0 disables
	EvictionGrace    time.Duration `mapstructure:"eviction_grace"`
}

// RateLimitConfig defines per-client API rate limiting
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"` // 0 disables
}

// LoggingConfig lists the external destinations log entries are shipped to
type LoggingConfig struct {
	Targets []LogTarget `mapstructure:"targets"`
}

// LogTarget is one external log destination
type LogTarget struct {
	Name  string `mapstructure:"name"`
	Type  string `mapstructure:"type"`  // syslog, http
	Level string `mapstructure:"level"` // minimum level shipped, default info

	// syslog
	Protocol string `mapstructure:"protocol"` // tcp, udp
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Tag      string `mapstructure:"tag"`

	// http
	URL           string        `mapstructure:"url"`
	AuthToken     string        `mapstructure:"auth_token"`
	BatchSize     int           `mapstructure:"batch_size"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

// Load loads configuration from various sources
func Load(cmd *cobra.Command) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Bind command line flags
	if err := bindFlags(cmd, v); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	// Read from config file if specified
	if configFile, _ := cmd.Flags().GetString("config"); configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Read from environment variables, e.g. RMSCONSOLE_METRICS_ENABLE
	v.SetEnvPrefix("RMSCONSOLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal configuration
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("listen", ":8090")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("public_console_url", "http://localhost:8090")

	// TLS defaults
	v.SetDefault("enable_tls", false)

	// Metrics defaults
	v.SetDefault("metrics.enable", true)
	v.SetDefault("metrics.path", "/metrics")

	// Reason catalog defaults
	v.SetDefault("reasons.seed_file", "")
	v.SetDefault("reasons.id_strategy", "timestamp")

	// CSRF is off unless a key is configured
	v.SetDefault("security.csrf_key", "")

	// Workspace defaults
	v.SetDefault("workspaces.max", 1000)
	v.SetDefault("workspaces.idle_timeout", "24h")
	v.SetDefault("workspaces.cleanup_interval", "10m")
	v.SetDefault("workspaces.creates_per_minute", 20)
	v.SetDefault("workspaces.eviction_grace", "5m")

	v.SetDefault("rate_limit.requests_per_second", 100.0)
}

func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	flags := map[string]string{
		"listen":             "listen",
		"log-level":          "log_level",
		"log-format":         "log_format",
		"public-console-url": "public_console_url",
		"tls-cert":           "cert_file",
		"tls-key":            "key_file",
	}

	for flag, key := range flags {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return err
		}
	}

	return nil
}

func validate(cfg *Config) error {
	if cfg.Listen == "" {
		return fmt.Errorf("listen address is required")
	}

	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", cfg.LogLevel, err)
	}

	switch cfg.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log_format %q: must be json or text", cfg.LogFormat)
	}

	// Validate TLS configuration
	if cfg.EnableTLS || cfg.CertFile != "" || cfg.KeyFile != "" {
		if cfg.CertFile == "" || cfg.KeyFile == "" {
			return fmt.Errorf("TLS enabled but cert-file or key-file not specified")
		}
		cfg.EnableTLS = true
	}

	switch cfg.Reasons.IDStrategy {
	case "timestamp", "uuid":
	default:
		return fmt.Errorf("invalid reasons.id_strategy %q: must be timestamp or uuid", cfg.Reasons.IDStrategy)
	}

	if cfg.Reasons.SeedFile != "" {
		if _, err := os.Stat(cfg.Reasons.SeedFile); err != nil {
			return fmt.Errorf("reasons.seed_file: %w", err)
		}
	}

	if key := cfg.Security.CSRFKey; key != "" && len(key) != 32 {
		return fmt.Errorf("security.csrf_key must be 32 bytes, got %d", len(key))
	}

	if cfg.Workspaces.Max < 0 {
		return fmt.Errorf("workspaces.max must not be negative")
	}

	if cfg.Workspaces.CreatesPerMinute < 0 {
		return fmt.Errorf("workspaces.creates_per_minute must not be negative")
	}

	if cfg.Workspaces.EvictionGrace < 0 {
		return fmt.Errorf("workspaces.eviction_grace must not be negative")
	}

	if cfg.RateLimit.RequestsPerSecond < 0 {
		return fmt.Errorf("rate_limit.requests_per_second must not be negative")
	}

	return nil
}
