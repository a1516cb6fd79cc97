package config

import "time"

// Config holds all configuration for the application
type Config struct {
	Environment string           `mapstructure:"environment"`
	Server      ServerConfig     `mapstructure:"server"`
	Database    DatabaseConfig   `mapstructure:"database"`
	Logger      LoggerConfig     `mapstructure:"logger"`
	Dispatcher  DispatcherConfig `mapstructure:"dispatcher"`
	Sweeper     SweeperConfig    `mapstructure:"sweeper"`
	Cron        CronConfig       `mapstructure:"cron"`
	LLM         LLMConfig        `mapstructure:"llm"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"readTimeout"`       // seconds
	WriteTimeout      time.Duration `mapstructure:"writeTimeout"`      // seconds
	IdleTimeout       time.Duration `mapstructure:"idleTimeout"`       // seconds
	ReadHeaderTimeout time.Duration `mapstructure:"readHeaderTimeout"` // seconds
	ShutdownTimeout   time.Duration `mapstructure:"shutdownTimeout"`   // seconds
	// DispatchSecret guards the dispatch trigger endpoint; callers must
	// present it in the X-Dispatch-Secret header
	DispatchSecret string `mapstructure:"dispatchSecret"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"sslMode"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"` // minutes
	ConnMaxIdleTime time.Duration `mapstructure:"connMaxIdleTime"` // minutes
	QueryTimeout    time.Duration `mapstructure:"queryTimeout"`    // seconds
	RetryAttempts   int           `mapstructure:"retryAttempts"`
	RetryDelay      time.Duration `mapstructure:"retryDelay"` // seconds
}

// LoggerConfig contains logger settings
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	TimeFormat string `mapstructure:"timeFormat"`
	CallerInfo bool   `mapstructure:"callerInfo"`
}

// DispatcherConfig contains worker pool and queue settings
type DispatcherConfig struct {
	Workers         int           `mapstructure:"workers"`
	CallTimeout     time.Duration `mapstructure:"callTimeout"` // seconds
	ClaimBatchSize  int           `mapstructure:"claimBatchSize"`
	DefaultPriority int           `mapstructure:"defaultPriority"`
}

// SweeperConfig contains stuck-work recovery thresholds
type SweeperConfig struct {
	StuckScanThresholdMinutes     int `mapstructure:"stuckScanThresholdMinutes"`
	EntryLivenessThresholdMinutes int `mapstructure:"entryLivenessThresholdMinutes"`
}

// CronConfig contains the internal scheduler settings. Specs use the
// standard 5-field cron format.
type CronConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	DispatchSpec string `mapstructure:"dispatchSpec"`
	SweepSpec    string `mapstructure:"sweepSpec"`
}

// LLMConfig contains provider call settings and the pricing table
type LLMConfig struct {
	// GatewayURL is the base URL of the OpenAI-compatible gateway that
	// fronts all providers
	GatewayURL string `mapstructure:"gatewayUrl"`
	APIKey     string `mapstructure:"apiKey"`
	// Models maps "provider/model" to its pricing entry
	Models map[string]ModelPricing `mapstructure:"models"`
}

// ModelPricing holds per-token rates (decimal strings, USD) and the token
// bounds used for worst-case cost estimation
type ModelPricing struct {
	InputCostPerToken  string `mapstructure:"inputCostPerToken"`
	OutputCostPerToken string `mapstructure:"outputCostPerToken"`
	MaxTokensIn        int    `mapstructure:"maxTokensIn"`
	MaxTokensOut       int    `mapstructure:"maxTokensOut"`
}
