package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port string
		Mode string
	}
	Log struct {
		Level string
	}
	OpenSearch OpenSearchConfig
	Search     struct {
		DefaultIndex  string
		DefaultTopK   int
		UpsertEnabled bool
	}
	Breaker struct {
		MaxFailures uint32
		Timeout     time.Duration
	}
	Cache struct {
		Enabled  bool
		RedisURL string
		TTL      time.Duration
	}
	RateLimit struct {
		PerMinute int
	}
}

// OpenSearchConfig describes how to reach the managed search domain.
type OpenSearchConfig struct {
	Endpoint           string
	Region             string
	Service            string
	AWSAuth            bool
	AccessKeyID        string
	SecretAccessKey    string
	SessionToken       string
	Username           string
	Password           string
	Timeout            time.Duration
	InsecureSkipVerify bool
	VectorField        string
	IngestPipeline     string
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("log.level", "info")

	v.SetDefault("opensearch.endpoint", "https://localhost:9200")
	v.SetDefault("opensearch.region", "us-west-2")
	v.SetDefault("opensearch.service", "es")
	v.SetDefault("opensearch.aws_auth", true)
	v.SetDefault("opensearch.timeout", 30*time.Second)
	v.SetDefault("opensearch.insecure_skip_verify", false)
	v.SetDefault("opensearch.vector_field", "embedding_vector")
	v.SetDefault("opensearch.ingest_pipeline", "neural-ingest-pipeline")

	v.SetDefault("search.default_index", "neural-search-index")
	v.SetDefault("search.default_top_k", 5)
	v.SetDefault("search.upsert_enabled", false)

	v.SetDefault("breaker.max_failures", 0)
	v.SetDefault("breaker.timeout", 30*time.Second)

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.redis_url", "redis://localhost:6379")
	v.SetDefault("cache.ttl", 5*time.Minute)

	v.SetDefault("ratelimit.per_minute", 0)
}

func fromViper(v *viper.Viper) *Config {
	var config Config

	config.Server.Port = v.GetString("server.port")
	config.Server.Mode = v.GetString("server.mode")
	config.Log.Level = v.GetString("log.level")

	config.OpenSearch = OpenSearchConfig{
		Endpoint:           v.GetString("opensearch.endpoint"),
		Region:             v.GetString("opensearch.region"),
		Service:            v.GetString("opensearch.service"),
		AWSAuth:            v.GetBool("opensearch.aws_auth"),
		Username:           v.GetString("opensearch.username"),
		Password:           v.GetString("opensearch.password"),
		Timeout:            v.GetDuration("opensearch.timeout"),
		InsecureSkipVerify: v.GetBool("opensearch.insecure_skip_verify"),
		VectorField:        v.GetString("opensearch.vector_field"),
		IngestPipeline:     v.GetString("opensearch.ingest_pipeline"),
	}
	// Credentials stay out of config files.
	config.OpenSearch.AccessKeyID = os.Getenv("AWS_ACCESS_KEY_ID")
	config.OpenSearch.SecretAccessKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	config.OpenSearch.SessionToken = os.Getenv("AWS_SESSION_TOKEN")

	config.Search.DefaultIndex = v.GetString("search.default_index")
	config.Search.DefaultTopK = v.GetInt("search.default_top_k")
	config.Search.UpsertEnabled = v.GetBool("search.upsert_enabled")

	config.Breaker.MaxFailures = v.GetUint32("breaker.max_failures")
	config.Breaker.Timeout = v.GetDuration("breaker.timeout")

	config.Cache.Enabled = v.GetBool("cache.enabled")
	config.Cache.RedisURL = v.GetString("cache.redis_url")
	config.Cache.TTL = v.GetDuration("cache.ttl")

	config.RateLimit.PerMinute = v.GetInt("ratelimit.per_minute")

	return &config
}

func (c *Config) ValidateOpenSearch() error {
	if c.OpenSearch.Endpoint == "" {
		return fmt.Errorf("OPENSEARCH_ENDPOINT is required")
	}
	if c.OpenSearch.AWSAuth && c.OpenSearch.Region == "" {
		return fmt.Errorf("OPENSEARCH_REGION is required when AWS auth is enabled")
	}
	if c.Search.DefaultTopK <= 0 {
		return fmt.Errorf("SEARCH_DEFAULT_TOP_K must be positive, got %d", c.Search.DefaultTopK)
	}
	return nil
}
