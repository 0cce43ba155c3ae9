package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the server configuration.
type Config struct {
	Port     string
	LogLevel string

	MongoURI string
	MongoDB  string

	JWTSecret string
	JWTExpiry time.Duration

	// ClientURL is the browser origin allowed by CORS.
	ClientURL string

	MQTTBroker   string
	MQTTClientID string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	GeocodeBaseURL  string
	GeocodeCacheTTL time.Duration

	RateLimitRequests      int
	RateLimitWindowSeconds int
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Port:                   getEnv("PORT", "5000"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		MongoURI:               getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:                getEnv("MONGO_DB", "anchor"),
		JWTSecret:              os.Getenv("JWT_SECRET"),
		JWTExpiry:              getEnvAsDuration("JWT_EXPIRY", 24*time.Hour),
		ClientURL:              getEnv("CLIENT_URL", "*"),
		MQTTBroker:             os.Getenv("MQTT_BROKER"),
		MQTTClientID:           getEnv("MQTT_CLIENT_ID", "anchor-api"),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		RedisDB:                getEnvAsInt("REDIS_DB", 0),
		GeocodeBaseURL:         getEnv("GEOCODE_BASE_URL", "https://nominatim.openstreetmap.org"),
		GeocodeCacheTTL:        getEnvAsDuration("GEOCODE_CACHE_TTL", 24*time.Hour),
		RateLimitRequests:      getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindowSeconds: getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 60),
	}

	if cfg.RateLimitWindowSeconds <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_WINDOW_SECONDS must be positive, got %d", cfg.RateLimitWindowSeconds)
	}
	return cfg, nil
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if durationValue, err := time.ParseDuration(value); err == nil {
			return durationValue
		}
	}
	return defaultValue
}
