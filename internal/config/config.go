package config

// Config holds all application configuration loaded from environment
// variables via github.com/caarlos0/env.
type Config struct {
	// Server configuration
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8089"`
	MetricsPort int    `env:"METRICS_PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"dev"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"AttentionBudgetEngine"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Redis configuration
	RedisHost       string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort       string `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword   string `env:"REDIS_PASSWORD"`
	RedisMaxRetries int    `env:"REDIS_MAX_RETRIES" envDefault:"5"`

	// Fallback cache for storage outages
	CacheTTLMinutes int `env:"CACHE_TTL_MINUTES" envDefault:"60"`

	// Engine configuration (plan table overrides + nudge sinks)
	ConfigPath string `env:"CONFIG_PATH" envDefault:"config/engine.yaml"`

	// Classifier configuration. An empty URL disables remote
	// classification; every video is then treated as neutral.
	ClassifierURL       string `env:"CLASSIFIER_URL"`
	ClassifierTimeoutMs int    `env:"CLASSIFIER_TIMEOUT_MS" envDefault:"3000"`
	ClassifierRetries   int    `env:"CLASSIFIER_RETRIES" envDefault:"2"`

	// Telemetry configuration
	OtelEnabled bool `env:"OTEL_ENABLED" envDefault:"true"`
}
