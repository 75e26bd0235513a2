// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Gateway modes.
const (
	GatewayModeHTTP      = "http"
	GatewayModeSimulated = "simulated"
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml on top
// and applies environment overrides.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	// API_BASE_URL overrides api.base_url, and so on.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // overlay is optional

	return finish(v, env)
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v, os.Getenv("APP_ENVIRONMENT"))
}

func finish(v *viper.Viper, env string) (*Config, error) {
	// Failure rates may legitimately be zero, so they are defaulted through
	// viper instead of applyDefaults.
	v.SetDefault("gateway.simulator.fetch_fail_rate", 0.2)
	v.SetDefault("gateway.simulator.submit_fail_rate", 0.1)
	v.SetDefault("gateway.simulator.search_fail_rate", 0.0)

	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.App.Environment == "" {
		cfg.App.Environment = env
	}

	overrideEmptyConfig(&cfg)
	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders in string values. A placeholder
// whose variable is unset becomes empty so applyDefaults can fill it.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig fills values still empty after expansion from the
// well-known environment variables.
func overrideEmptyConfig(cfg *Config) {
	if val := os.Getenv("API_BASE_URL"); val != "" {
		cfg.API.BaseURL = val
	}
	if cfg.Redis.Address == "" {
		if val := os.Getenv("REDIS_ADDRESS"); val != "" {
			cfg.Redis.Address = val
		}
	}
	if cfg.Redis.Password == "" {
		if val := os.Getenv("REDIS_PASSWORD"); val != "" {
			cfg.Redis.Password = val
		}
	}
	if cfg.Tracing.Endpoint == "" {
		if val := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); val != "" {
			cfg.Tracing.Endpoint = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "lead-capture"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	// Server defaults
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 15000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10000
	}
	if cfg.Server.SubmitRateLimit == 0 {
		cfg.Server.SubmitRateLimit = 10
	}

	// Backend defaults
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "http://localhost:3000/api"
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 5000
	}
	if cfg.API.Profile == "" {
		cfg.API.Profile = "business"
	}

	// Simulator defaults
	sim := &cfg.Gateway.Simulator
	if sim.FetchLatency == 0 {
		sim.FetchLatency = 1000
	}
	if sim.SubmitLatency == 0 {
		sim.SubmitLatency = 1500
	}
	if sim.SearchLatency == 0 {
		sim.SearchLatency = 300
	}

	// Redis defaults
	if cfg.Redis.Address == "" {
		cfg.Redis.Address = "localhost:6379"
	}

	// Draft defaults
	if cfg.Draft.KeyPrefix == "" {
		cfg.Draft.KeyPrefix = "formData"
	}
	if cfg.Draft.TTL == 0 {
		cfg.Draft.TTL = 1800000
	}

	// Address defaults
	if cfg.Address.Debounce == 0 {
		cfg.Address.Debounce = 300
	}
	if cfg.Address.MinQueryLength == 0 {
		cfg.Address.MinQueryLength = 3
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = 1.0
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	switch cfg.API.Profile {
	case "business", "contact":
	default:
		return fmt.Errorf("api.profile must be business or contact, got %q", cfg.API.Profile)
	}

	switch cfg.Gateway.Mode {
	case "", GatewayModeHTTP, GatewayModeSimulated:
	default:
		return fmt.Errorf("gateway.mode must be http or simulated, got %q", cfg.Gateway.Mode)
	}

	if cfg.ResolveGatewayMode() == GatewayModeHTTP && cfg.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}

	for name, rate := range map[string]float64{
		"fetch_fail_rate":  cfg.Gateway.Simulator.FetchFailRate,
		"submit_fail_rate": cfg.Gateway.Simulator.SubmitFailRate,
		"search_fail_rate": cfg.Gateway.Simulator.SearchFailRate,
	} {
		if rate < 0 || rate > 1 {
			return fmt.Errorf("gateway.simulator.%s must be within [0,1]", name)
		}
	}

	if cfg.Redis.Address == "" {
		return fmt.Errorf("redis.address is required")
	}
	if cfg.Draft.TTL < 0 {
		return fmt.Errorf("draft.ttl must not be negative")
	}
	if cfg.Address.Debounce < 0 {
		return fmt.Errorf("address.debounce must not be negative")
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		return fmt.Errorf("tracing.endpoint is required when tracing is enabled")
	}

	return nil
}

// ResolveGatewayMode returns the configured gateway mode. When unset, every
// environment except development talks to the real backend.
func (c *Config) ResolveGatewayMode() string {
	if c.Gateway.Mode != "" {
		return c.Gateway.Mode
	}
	if c.App.Environment == "development" {
		return GatewayModeSimulated
	}
	return GatewayModeHTTP
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
