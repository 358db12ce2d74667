package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Cache     CacheConfig
	Events    EventsConfig
	RateLimit RateLimitConfig
	Telemetry TelemetryConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Schema   string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret       string
	AccessExpiry int // in minutes
}

type CacheConfig struct {
	TTL       time.Duration
	KeyPrefix string
}

// EventsConfig selects and tunes the event channel.
// Driver is one of "redis", "sqs" or "none".
type EventsConfig struct {
	Driver              string
	ProductCreatedTopic string
	StreamMaxLen        int64
	PublishTimeout      time.Duration
	ConsumerGroup       string
	ConsumerName        string
	ClaimMinIdle        time.Duration
	SQSQueueURL         string
	AWSRegion           string
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

type TelemetryConfig struct {
	ServiceName string
	Endpoint    string
}

func Load() *Config {
	// Export .env into the process environment as well, for the AWS SDK and OTel
	// which read os.Getenv directly.
	_ = godotenv.Load()

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SCHEMA", "public")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("JWT_ACCESS_EXPIRY", 300)
	viper.SetDefault("CACHE_TTL_SECONDS", 60)
	viper.SetDefault("CACHE_KEY_PREFIX", "catalog:")
	viper.SetDefault("EVENTS_DRIVER", "redis")
	viper.SetDefault("EVENTS_TOPIC_PRODUCT_CREATED", "product-created")
	viper.SetDefault("EVENTS_STREAM_MAXLEN", 100000)
	viper.SetDefault("EVENTS_PUBLISH_TIMEOUT_MS", 2000)
	viper.SetDefault("EVENTS_CONSUMER_GROUP", "tagging-service")
	viper.SetDefault("EVENTS_CLAIM_MIN_IDLE_SECONDS", 60)
	viper.SetDefault("AWS_REGION", "us-east-1")
	viper.SetDefault("RATE_LIMIT_REQUESTS", 20)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)
	viper.SetDefault("OTEL_SERVICE_NAME", "artify-catalog")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			Env:            viper.GetString("SERVER_ENV"),
			AllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Database: viper.GetString("DB_DATABASE"),
			Schema:   viper.GetString("DB_SCHEMA"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:       viper.GetString("JWT_SECRET"),
			AccessExpiry: viper.GetInt("JWT_ACCESS_EXPIRY"),
		},
		Cache: CacheConfig{
			TTL:       time.Duration(viper.GetInt("CACHE_TTL_SECONDS")) * time.Second,
			KeyPrefix: viper.GetString("CACHE_KEY_PREFIX"),
		},
		Events: EventsConfig{
			Driver:              strings.ToLower(viper.GetString("EVENTS_DRIVER")),
			ProductCreatedTopic: viper.GetString("EVENTS_TOPIC_PRODUCT_CREATED"),
			StreamMaxLen:        viper.GetInt64("EVENTS_STREAM_MAXLEN"),
			PublishTimeout:      time.Duration(viper.GetInt("EVENTS_PUBLISH_TIMEOUT_MS")) * time.Millisecond,
			ConsumerGroup:       viper.GetString("EVENTS_CONSUMER_GROUP"),
			ConsumerName:        viper.GetString("EVENTS_CONSUMER_NAME"),
			ClaimMinIdle:        time.Duration(viper.GetInt("EVENTS_CLAIM_MIN_IDLE_SECONDS")) * time.Second,
			SQSQueueURL:         viper.GetString("SQS_QUEUE_URL"),
			AWSRegion:           viper.GetString("AWS_REGION"),
		},
		RateLimit: RateLimitConfig{
			Requests: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Window:   time.Duration(viper.GetInt("RATE_LIMIT_WINDOW_SECONDS")) * time.Second,
		},
		Telemetry: TelemetryConfig{
			ServiceName: viper.GetString("OTEL_SERVICE_NAME"),
			Endpoint:    viper.GetString("OTEL_ENDPOINT"),
		},
	}
}

// IsDevelopment reports whether the server runs with development defaults.
func (c ServerConfig) IsDevelopment() bool {
	return c.Env == "" || c.Env == "development"
}

// RedisAddr returns host:port for the go-redis client.
func (c RedisConfig) RedisAddr() string {
	return c.Host + ":" + c.Port
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
