package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App        AppConfig
	Qdrant     QdrantConfig
	Similarity SimilarityConfig
	Redis      RedisConfig
	Cache      CacheConfig
	Logger     LoggerConfig
	Auth       AuthConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// QdrantConfig holds vector store connection values.
type QdrantConfig struct {
	BaseURL        string
	APIKey         string
	Collection     string
	EmbeddingModel string
	TimeoutSeconds int
}

// SimilarityConfig holds default similarity search parameters.
type SimilarityConfig struct {
	TopK      int
	Threshold float64
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// CacheConfig configures the search result cache.
type CacheConfig struct {
	TTLSeconds int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines service token parameters. An empty secret disables
// authentication on tool routes.
type AuthConfig struct {
	ServiceTokenSecret string
	TokenTTLMinutes    int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	threshold, err := strconv.ParseFloat(getEnv("SIMILARITY_THRESHOLD", "0.7"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid SIMILARITY_THRESHOLD: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "ticket-knowledge-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Qdrant: QdrantConfig{
			BaseURL:        getEnv("QDRANT_BASE_URL", "http://127.0.0.1:6333"),
			APIKey:         os.Getenv("QDRANT_API_KEY"),
			Collection:     getEnv("QDRANT_COLLECTION", "tickets"),
			EmbeddingModel: getEnv("QDRANT_EMBEDDING_MODEL", "sentence-transformers/all-minilm-l6-v2"),
			TimeoutSeconds: getEnvAsInt("QDRANT_TIMEOUT_SECONDS", 15),
		},
		Similarity: SimilarityConfig{
			TopK:      getEnvAsInt("SIMILARITY_TOP_K", 5),
			Threshold: threshold,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Cache: CacheConfig{
			TTLSeconds: getEnvAsInt("SEARCH_CACHE_TTL_SECONDS", 300),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			ServiceTokenSecret: os.Getenv("AUTH_SERVICE_TOKEN_SECRET"),
			TokenTTLMinutes:    getEnvAsInt("AUTH_TOKEN_TTL_MINUTES", 60),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Timeout returns the store client timeout duration.
func (q QdrantConfig) Timeout() time.Duration {
	if q.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(q.TimeoutSeconds) * time.Second
}

// TTL returns the cache entry lifetime. Zero disables caching.
func (c CacheConfig) TTL() time.Duration {
	if c.TTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.TTLSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}
