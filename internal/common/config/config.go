// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Server  ServerConfig  `mapstructure:"server"`
	API     APIConfig     `mapstructure:"api"`
	Gateway GatewayConfig `mapstructure:"gateway"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Draft   DraftConfig   `mapstructure:"draft"`
	Address AddressConfig `mapstructure:"address"`
	Logging LoggingConfig `mapstructure:"logging"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// IsProduction reports whether the app runs with production semantics.
func (a AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`      // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`     // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`  // milliseconds
	SubmitRateLimit int    `mapstructure:"submit_rate_limit"` // requests per minute per IP
	SecureCookies   bool   `mapstructure:"secure_cookies"`
}

// APIConfig holds settings for the lead backend.
type APIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
	Profile string `mapstructure:"profile"` // business | contact
	Prefill bool   `mapstructure:"prefill"`
}

// GatewayConfig selects between the real backend and the simulator.
type GatewayConfig struct {
	Mode      string          `mapstructure:"mode"` // http | simulated | "" (auto)
	Simulator SimulatorConfig `mapstructure:"simulator"`
}

// SimulatorConfig holds latency and failure-rate knobs per operation.
type SimulatorConfig struct {
	FetchLatency  int     `mapstructure:"fetch_latency"` // milliseconds
	FetchFailRate float64 `mapstructure:"fetch_fail_rate"`

	SubmitLatency  int     `mapstructure:"submit_latency"` // milliseconds
	SubmitFailRate float64 `mapstructure:"submit_fail_rate"`

	SearchLatency  int     `mapstructure:"search_latency"` // milliseconds
	SearchFailRate float64 `mapstructure:"search_fail_rate"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// DraftConfig holds settings for the per-session draft store.
type DraftConfig struct {
	KeyPrefix string `mapstructure:"key_prefix"`
	TTL       int    `mapstructure:"ttl"` // milliseconds
}

// Key returns the storage key for a session's draft.
func (d DraftConfig) Key(sessionID string) string {
	return fmt.Sprintf("%s:%s", d.KeyPrefix, sessionID)
}

// AddressConfig holds settings for the address suggestion controller.
type AddressConfig struct {
	Debounce       int `mapstructure:"debounce"` // milliseconds
	MinQueryLength int `mapstructure:"min_query_length"`
	MaxSuggestions int `mapstructure:"max_suggestions"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TracingConfig holds OTLP trace export settings.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}
