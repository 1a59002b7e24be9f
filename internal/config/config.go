package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Score parse policies understood by the workflow.
const (
	ScoreParseZero = "zero"
	ScoreParseFail = "fail"
)

// Config holds the configuration for the application.
type Config struct {
	Environment string `mapstructure:"environment"`
	Server      struct {
		Port         int           `mapstructure:"port"`
		ReadTimeout  time.Duration `mapstructure:"read_timeout"`
		WriteTimeout time.Duration `mapstructure:"write_timeout"`
		IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	} `mapstructure:"server"`
	DB  DBConfig `mapstructure:"db"`
	LLM struct {
		BaseURL string        `mapstructure:"base_url"`
		Model   string        `mapstructure:"model"`
		APIKey  string        `mapstructure:"api_key"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"llm"`
	Search struct {
		BaseURL string        `mapstructure:"base_url"`
		APIKey  string        `mapstructure:"api_key"`
		Depth   string        `mapstructure:"depth"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"search"`
	Workflow struct {
		ScoreThreshold   int    `mapstructure:"score_threshold"`
		MaxIterations    int    `mapstructure:"max_iterations"`
		SearchResults    int    `mapstructure:"search_results"`
		ScoreParsePolicy string `mapstructure:"score_parse_policy"`
	} `mapstructure:"workflow"`
	TLS struct {
		Enable    bool     `mapstructure:"enable"`
		CertFile  string   `mapstructure:"cert_file"`
		KeyFile   string   `mapstructure:"key_file"`
		Hostnames []string `mapstructure:"hostnames"`
	} `mapstructure:"tls"`
	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"metrics"`
}

// DBConfig describes how to reach Postgres. URL wins over the discrete fields.
type DBConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// ConnString renders a pgx connection string.
func (d DBConfig) ConnString() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// LoadConfig loads the configuration from an optional .env file, a config
// file and the environment. A missing config file is not an error.
func LoadConfig(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.LLM.BaseURL = normalizeBaseURL(config.LLM.BaseURL)
	config.Search.BaseURL = normalizeBaseURL(config.Search.BaseURL)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// setDefaults registers every key so AutomaticEnv can resolve it during
// Unmarshal even when no config file mentions it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "dev")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 120*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)

	v.SetDefault("db.url", "")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "postgres")
	v.SetDefault("db.name", "agentqa")
	v.SetDefault("db.sslmode", "disable")

	v.SetDefault("llm.base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("llm.model", "gemini-2.0-flash")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.timeout", 60*time.Second)

	v.SetDefault("search.base_url", "https://api.tavily.com")
	v.SetDefault("search.api_key", "")
	v.SetDefault("search.depth", "basic")
	v.SetDefault("search.timeout", 10*time.Second)

	v.SetDefault("workflow.score_threshold", 80)
	v.SetDefault("workflow.max_iterations", 3)
	v.SetDefault("workflow.search_results", 3)
	v.SetDefault("workflow.score_parse_policy", ScoreParseZero)

	v.SetDefault("tls.enable", false)
	v.SetDefault("tls.cert_file", "")
	v.SetDefault("tls.key_file", "")
	v.SetDefault("tls.hostnames", []string{})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("metrics.enabled", true)
}

// Validate checks the workflow knobs that would otherwise break termination.
func (c *Config) Validate() error {
	w := c.Workflow
	if w.ScoreThreshold < 0 || w.ScoreThreshold > 100 {
		return fmt.Errorf("workflow.score_threshold must be within 0-100, got %d", w.ScoreThreshold)
	}
	if w.MaxIterations < 1 {
		return fmt.Errorf("workflow.max_iterations must be at least 1, got %d", w.MaxIterations)
	}
	if w.SearchResults < 1 {
		return fmt.Errorf("workflow.search_results must be at least 1, got %d", w.SearchResults)
	}
	switch w.ScoreParsePolicy {
	case ScoreParseZero, ScoreParseFail:
	default:
		return fmt.Errorf("workflow.score_parse_policy must be %q or %q, got %q", ScoreParseZero, ScoreParseFail, w.ScoreParsePolicy)
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be positive, got %d", c.Server.Port)
	}
	return nil
}

// normalizeBaseURL strips whitespace and any trailing slash so callers can
// join paths without worrying about double separators.
func normalizeBaseURL(input string) string {
	u := strings.TrimRight(strings.TrimSpace(input), "/")
	if _, err := url.Parse(u); err != nil {
		return input
	}
	return u
}
