package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Server       ServerConfig       `mapstructure:"server"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Redis        RedisConfig        `mapstructure:"redis"`
	NATS         NATSConfig         `mapstructure:"nats"`
	CORS         CORSConfig         `mapstructure:"cors"`
	RateLimit    RateLimitConfig    `mapstructure:"ratelimit"`
	Logger       LoggerConfig       `mapstructure:"logger"`
	Detection    DetectionConfig    `mapstructure:"detection"`
	LLM          LLMConfig          `mapstructure:"llm"`
	Conversation ConversationConfig `mapstructure:"conversation"`
	Persona      PersonaConfig      `mapstructure:"persona"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	HTTPPort        int           `mapstructure:"http_port"`
	GRPCPort        int           `mapstructure:"grpc_port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
}

// AuthConfig controls the shared-secret header check on honeypot routes
type AuthConfig struct {
	APIKey string `mapstructure:"api_key"`
	Header string `mapstructure:"header"`
}

type RedisConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	Password      string        `mapstructure:"password"`
	DB            int           `mapstructure:"db"`
	KeyPrefix     string        `mapstructure:"key_prefix"`
	AssessmentTTL time.Duration `mapstructure:"assessment_ttl"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type NATSConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	URL        string `mapstructure:"url"`
	StreamName string `mapstructure:"stream_name"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	TimeFormat string `mapstructure:"time_format"`
}

// DetectionConfig tunes how much history the scorer sees and how long the
// external assessment may take. Signal weights and the verdict threshold are
// fixed in the scorer.
type DetectionConfig struct {
	HistoryWindow   int           `mapstructure:"history_window"`
	ExternalTimeout time.Duration `mapstructure:"external_timeout"`
}

// LLMConfig configures the external text-generation service used for both the
// scam assessment and persona replies.
type LLMConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	Provider          string        `mapstructure:"provider"` // groq, openai, claude
	APIKey            string        `mapstructure:"api_key"`
	Model             string        `mapstructure:"model"`
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
}

// ConversationConfig controls session lifetime and history windows
type ConversationConfig struct {
	MaxAge        time.Duration `mapstructure:"max_age"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	ReplyHistory  int           `mapstructure:"reply_history"`
}

// PersonaConfig describes the target the agent role-plays
type PersonaConfig struct {
	Name            string   `mapstructure:"name"`
	Age             int      `mapstructure:"age"`
	Occupation      string   `mapstructure:"occupation"`
	Location        string   `mapstructure:"location"`
	Characteristics []string `mapstructure:"characteristics"`
	// Seeds fallback template selection; 0 always picks the first template
	Seed int64 `mapstructure:"seed"`
}

// Load reads configuration from file and environment variables.
// A missing config file is not an error; defaults and environment apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/honeypot")
	}

	v.SetEnvPrefix("HONEYPOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind nested env vars explicitly (viper doesn't auto-bind nested struct fields)
	v.BindEnv("auth.api_key", "HONEYPOT_AUTH_API_KEY", "HONEYPOT_API_KEY")
	v.BindEnv("llm.api_key", "HONEYPOT_LLM_API_KEY", "GROQ_API_KEY")
	v.BindEnv("llm.enabled", "HONEYPOT_LLM_ENABLED")
	v.BindEnv("llm.provider", "HONEYPOT_LLM_PROVIDER")
	v.BindEnv("redis.enabled", "HONEYPOT_REDIS_ENABLED")
	v.BindEnv("redis.host", "HONEYPOT_REDIS_HOST")
	v.BindEnv("redis.port", "HONEYPOT_REDIS_PORT")
	v.BindEnv("redis.password", "HONEYPOT_REDIS_PASSWORD")
	v.BindEnv("nats.enabled", "HONEYPOT_NATS_ENABLED")
	v.BindEnv("nats.url", "HONEYPOT_NATS_URL")
	v.BindEnv("server.host", "HONEYPOT_SERVER_HOST", "HOST")
	v.BindEnv("server.http_port", "HONEYPOT_SERVER_HTTP_PORT", "PORT")
	v.BindEnv("app.environment", "HONEYPOT_APP_ENVIRONMENT")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadDefault loads configuration with default path
func LoadDefault() (*Config, error) {
	return Load("")
}

// Validate rejects configurations the service cannot run with
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 {
		return fmt.Errorf("invalid server.http_port: %d", c.Server.HTTPPort)
	}
	if c.Conversation.MaxAge <= 0 {
		return fmt.Errorf("conversation.max_age must be positive")
	}
	switch c.LLM.Provider {
	case "groq", "openai", "claude":
	default:
		return fmt.Errorf("unsupported llm.provider: %q", c.LLM.Provider)
	}
	if c.LLM.Enabled && c.LLM.APIKey == "" {
		return fmt.Errorf("llm.enabled requires llm.api_key")
	}
	// Each attempt gets llm.timeout; both must fit in one detection deadline
	if c.LLM.MaxRetries > 0 && c.LLM.Timeout > 0 && c.Detection.ExternalTimeout > 0 &&
		2*c.LLM.Timeout >= c.Detection.ExternalTimeout {
		return fmt.Errorf("llm.timeout (%s) must be under half of detection.external_timeout (%s) to leave room for a retry",
			c.LLM.Timeout, c.Detection.ExternalTimeout)
	}
	return nil
}

// LLMAvailable reports whether the external text-generation service is usable
func (c *Config) LLMAvailable() bool {
	return c.LLM.Enabled && c.LLM.APIKey != ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "honeypot-api")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "1.0.0")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8000)
	v.SetDefault("server.grpc_port", 9000)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.request_timeout", 30*time.Second)

	v.SetDefault("auth.api_key", "test-key-123")
	v.SetDefault("auth.header", "X-API-Key")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.key_prefix", "honeypot:")
	v.SetDefault("redis.assessment_ttl", 10*time.Minute)

	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.stream_name", "HONEYPOT_EVENTS")

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"*"})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 300)

	v.SetDefault("ratelimit.enabled", false)
	v.SetDefault("ratelimit.requests_per_minute", 120)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.time_format", time.RFC3339)

	v.SetDefault("detection.history_window", 5)
	v.SetDefault("detection.external_timeout", 8*time.Second)

	v.SetDefault("llm.enabled", false)
	v.SetDefault("llm.provider", "groq")
	v.SetDefault("llm.model", "llama-3.1-8b-instant")
	v.SetDefault("llm.timeout", 3*time.Second)
	v.SetDefault("llm.max_retries", 1)
	v.SetDefault("llm.requests_per_second", 5.0)

	v.SetDefault("conversation.max_age", 24*time.Hour)
	v.SetDefault("conversation.sweep_interval", 10*time.Minute)
	v.SetDefault("conversation.reply_history", 6)

	v.SetDefault("persona.name", "Ramesh Kumar")
	v.SetDefault("persona.age", 58)
	v.SetDefault("persona.occupation", "Retired government employee")
	v.SetDefault("persona.location", "Lucknow")
	v.SetDefault("persona.characteristics", []string{
		"Trusting and naive about technology",
		"Eager to receive money or prizes",
		"Slightly confused but cooperative",
		"Asks clarifying questions",
		"Takes time to understand instructions",
	})
	v.SetDefault("persona.seed", 1)
}
