package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr              string
	SessionSigningKey string
	SessionCookieName string
	SessionTTL        time.Duration
}

// Documents configures where verification documents are read from. An empty
// BaseURL means DataDir is read directly.
type Documents struct {
	DataDir      string
	BaseURL      string
	FetchTimeout time.Duration
}

// Cache configures the sharing preference cache.
type Cache struct {
	Backend string // memory, file or redis
	Dir     string
	TTL     time.Duration
}

// RedisConfig is only consulted when the cache backend is redis.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Database configures the sharing store. An empty URL selects in-memory stores.
type Database struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Kafka configures sharing history publishing. No brokers means history
// events are only logged.
type Kafka struct {
	Brokers      []string
	HistoryTopic string
}

// Sharing configures share delivery.
type Sharing struct {
	PhoneRegion string
}

// Log configures the process logger.
type Log struct {
	Level  string
	Format string
}

// Config is the full process configuration.
type Config struct {
	Server         Server
	Documents      Documents
	Cache          Cache
	Redis          RedisConfig
	Database       Database
	Kafka          Kafka
	Sharing        Sharing
	Log            Log
	PreferencesAPI string
}

// SharingCacheTTL is how long a cached preference list is trusted.
const SharingCacheTTL = 24 * time.Hour

// DocumentFetchTimeout bounds a single document store request.
const DocumentFetchTimeout = 5 * time.Second

func setDefaults(v *viper.Viper) {
	v.SetDefault("TRUSTVERIFY_ADDR", ":8080")
	v.SetDefault("SESSION_SIGNING_KEY", "dev-secret-key-change-in-production")
	v.SetDefault("SESSION_COOKIE_NAME", "session")
	v.SetDefault("SESSION_TTL", 7*24*time.Hour)
	v.SetDefault("DATA_DIR", "./data")
	v.SetDefault("DOCUMENT_BASE_URL", "")
	v.SetDefault("FETCH_TIMEOUT", DocumentFetchTimeout)
	v.SetDefault("CACHE_BACKEND", "memory")
	v.SetDefault("CACHE_DIR", "./cache")
	v.SetDefault("CACHE_TTL", SharingCacheTTL)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_POOL_SIZE", 10)
	v.SetDefault("REDIS_MIN_IDLE_CONNS", 2)
	v.SetDefault("REDIS_DIAL_TIMEOUT", 5*time.Second)
	v.SetDefault("REDIS_READ_TIMEOUT", 3*time.Second)
	v.SetDefault("REDIS_WRITE_TIMEOUT", 3*time.Second)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DATABASE_MAX_OPEN_CONNS", 10)
	v.SetDefault("DATABASE_MAX_IDLE_CONNS", 5)
	v.SetDefault("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_HISTORY_TOPIC", "sharing.history")
	v.SetDefault("SHARE_PHONE_REGION", "IN")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("PREFERENCES_API_URL", "")
}

// FromEnv builds the config from environment variables, optionally layered
// over a file named by TRUSTVERIFY_CONFIG, so main stays lean.
func FromEnv() (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path := v.GetString("TRUSTVERIFY_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}
	return fromViper(v), nil
}

func fromViper(v *viper.Viper) Config {
	return Config{
		Server: Server{
			Addr:              v.GetString("TRUSTVERIFY_ADDR"),
			SessionSigningKey: v.GetString("SESSION_SIGNING_KEY"),
			SessionCookieName: v.GetString("SESSION_COOKIE_NAME"),
			SessionTTL:        v.GetDuration("SESSION_TTL"),
		},
		Documents: Documents{
			DataDir:      v.GetString("DATA_DIR"),
			BaseURL:      strings.TrimRight(v.GetString("DOCUMENT_BASE_URL"), "/"),
			FetchTimeout: v.GetDuration("FETCH_TIMEOUT"),
		},
		Cache: Cache{
			Backend: strings.ToLower(v.GetString("CACHE_BACKEND")),
			Dir:     v.GetString("CACHE_DIR"),
			TTL:     v.GetDuration("CACHE_TTL"),
		},
		Redis: RedisConfig{
			URL:          v.GetString("REDIS_URL"),
			PoolSize:     v.GetInt("REDIS_POOL_SIZE"),
			MinIdleConns: v.GetInt("REDIS_MIN_IDLE_CONNS"),
			DialTimeout:  v.GetDuration("REDIS_DIAL_TIMEOUT"),
			ReadTimeout:  v.GetDuration("REDIS_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("REDIS_WRITE_TIMEOUT"),
		},
		Database: Database{
			URL:             v.GetString("DATABASE_URL"),
			MaxOpenConns:    v.GetInt("DATABASE_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DATABASE_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DATABASE_CONN_MAX_LIFETIME"),
		},
		Kafka: Kafka{
			Brokers:      splitList(v.GetString("KAFKA_BROKERS")),
			HistoryTopic: v.GetString("KAFKA_HISTORY_TOPIC"),
		},
		Sharing: Sharing{
			PhoneRegion: strings.ToUpper(v.GetString("SHARE_PHONE_REGION")),
		},
		Log: Log{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		PreferencesAPI: strings.TrimRight(v.GetString("PREFERENCES_API_URL"), "/"),
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
