package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the analysis server.
type Config struct {
	Server  ServerConfig
	Worker  WorkerConfig
	Store   StoreConfig
	Fetch   FetchConfig
	Cluster ClusterConfig
}

type ServerConfig struct {
	Port         int           `mapstructure:"API_PORT"`
	ReadTimeout  time.Duration `mapstructure:"API_READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"API_WRITE_TIMEOUT"`
	RateLimit    int           `mapstructure:"API_RATE_LIMIT"`
	GinMode      string        `mapstructure:"GIN_MODE"`
}

type WorkerConfig struct {
	PoolSize int `mapstructure:"WORKER_POOL_SIZE"`
}

type StoreConfig struct {
	Backend   string        `mapstructure:"STORE_BACKEND"`
	RedisURL  string        `mapstructure:"REDIS_URL"`
	Retention time.Duration `mapstructure:"STORE_RETENTION"`
	MaxJobs   int           `mapstructure:"STORE_MAX_JOBS"`
}

type FetchConfig struct {
	Timeout      time.Duration `mapstructure:"FETCH_TIMEOUT"`
	MaxDepth     int           `mapstructure:"FETCH_MAX_DEPTH"`
	MaxChildren  int           `mapstructure:"FETCH_MAX_CHILDREN"`
	MaxURLs      int           `mapstructure:"FETCH_MAX_URLS"`
	MaxBodyBytes int64         `mapstructure:"FETCH_MAX_BODY_BYTES"`
}

type ClusterConfig struct {
	APIKey      string        `mapstructure:"OPENAI_API_KEY"`
	BaseURL     string        `mapstructure:"OPENAI_BASE_URL"`
	Model       string        `mapstructure:"OPENAI_MODEL"`
	Timeout     time.Duration `mapstructure:"CLUSTER_TIMEOUT"`
	MaxURLs     int           `mapstructure:"CLUSTER_MAX_URLS"`
	MaxClusters int           `mapstructure:"CLUSTER_MAX_CLUSTERS"`
	MaxExamples int           `mapstructure:"CLUSTER_MAX_EXAMPLES"`
	MaxIdeas    int           `mapstructure:"CLUSTER_MAX_IDEAS"`
}

// APIKeyWarning reports a human-readable reason the configured clustering
// API key looks unusable, or "" when it looks fine. Misconfiguration is not
// fatal at startup: jobs fail visibly at the clustering stage instead.
func (c ClusterConfig) APIKeyWarning() string {
	switch {
	case c.APIKey == "":
		return "OPENAI_API_KEY is not set; analysis jobs will fail at the clustering stage"
	case strings.HasPrefix(c.APIKey, "sk_test_") || strings.HasPrefix(c.APIKey, "sk_live_"):
		return "OPENAI_API_KEY looks like a Stripe key, not an OpenAI key"
	case len(c.APIKey) < 20:
		return "OPENAI_API_KEY looks too short to be valid"
	}
	return ""
}

// Load reads configuration from environment variables and .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("API_PORT", 8080)
	viper.SetDefault("API_READ_TIMEOUT", "10s")
	viper.SetDefault("API_WRITE_TIMEOUT", "30s")
	viper.SetDefault("API_RATE_LIMIT", 30)
	viper.SetDefault("GIN_MODE", "debug")
	viper.SetDefault("WORKER_POOL_SIZE", 4)
	viper.SetDefault("STORE_BACKEND", "memory")
	viper.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	viper.SetDefault("STORE_RETENTION", "1h")
	viper.SetDefault("STORE_MAX_JOBS", 1000)
	viper.SetDefault("FETCH_TIMEOUT", "30s")
	viper.SetDefault("FETCH_MAX_DEPTH", 3)
	viper.SetDefault("FETCH_MAX_CHILDREN", 50)
	viper.SetDefault("FETCH_MAX_URLS", 5000)
	viper.SetDefault("FETCH_MAX_BODY_BYTES", 10<<20) // 10 MB per document
	viper.SetDefault("OPENAI_API_KEY", "")
	viper.SetDefault("OPENAI_BASE_URL", "https://api.openai.com")
	viper.SetDefault("OPENAI_MODEL", "gpt-4o")
	viper.SetDefault("CLUSTER_TIMEOUT", "60s")
	viper.SetDefault("CLUSTER_MAX_URLS", 200)
	viper.SetDefault("CLUSTER_MAX_CLUSTERS", 5)
	viper.SetDefault("CLUSTER_MAX_EXAMPLES", 3)
	viper.SetDefault("CLUSTER_MAX_IDEAS", 3)

	// Attempt to read .env file (non-fatal if missing)
	_ = viper.ReadInConfig()

	cfg := &Config{}
	cfg.Server.Port = viper.GetInt("API_PORT")
	cfg.Server.ReadTimeout = viper.GetDuration("API_READ_TIMEOUT")
	cfg.Server.WriteTimeout = viper.GetDuration("API_WRITE_TIMEOUT")
	cfg.Server.RateLimit = viper.GetInt("API_RATE_LIMIT")
	cfg.Server.GinMode = viper.GetString("GIN_MODE")
	cfg.Worker.PoolSize = viper.GetInt("WORKER_POOL_SIZE")
	cfg.Store.Backend = viper.GetString("STORE_BACKEND")
	cfg.Store.RedisURL = viper.GetString("REDIS_URL")
	cfg.Store.Retention = viper.GetDuration("STORE_RETENTION")
	cfg.Store.MaxJobs = viper.GetInt("STORE_MAX_JOBS")
	cfg.Fetch.Timeout = viper.GetDuration("FETCH_TIMEOUT")
	cfg.Fetch.MaxDepth = viper.GetInt("FETCH_MAX_DEPTH")
	cfg.Fetch.MaxChildren = viper.GetInt("FETCH_MAX_CHILDREN")
	cfg.Fetch.MaxURLs = viper.GetInt("FETCH_MAX_URLS")
	cfg.Fetch.MaxBodyBytes = viper.GetInt64("FETCH_MAX_BODY_BYTES")
	cfg.Cluster.APIKey = viper.GetString("OPENAI_API_KEY")
	cfg.Cluster.BaseURL = viper.GetString("OPENAI_BASE_URL")
	cfg.Cluster.Model = viper.GetString("OPENAI_MODEL")
	cfg.Cluster.Timeout = viper.GetDuration("CLUSTER_TIMEOUT")
	cfg.Cluster.MaxURLs = viper.GetInt("CLUSTER_MAX_URLS")
	cfg.Cluster.MaxClusters = viper.GetInt("CLUSTER_MAX_CLUSTERS")
	cfg.Cluster.MaxExamples = viper.GetInt("CLUSTER_MAX_EXAMPLES")
	cfg.Cluster.MaxIdeas = viper.GetInt("CLUSTER_MAX_IDEAS")

	return cfg, nil
}
