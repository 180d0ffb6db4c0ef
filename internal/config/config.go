package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	MongoURI string
	Database string

	RabbitMQURI string
	Exchange    string

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	VerifyCacheTTL time.Duration

	ConsulAddress  string
	ServiceName    string
	ServiceID      string
	ServiceAddress string

	AllowOrigins []string

	SeedFile string
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "6680"),

		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017"),
		Database: getEnv("PROGRESSION_SERVICE_MONGO_DB", "progression_service"),

		RabbitMQURI: os.Getenv("RABBITMQ_URI"),
		Exchange:    getEnv("RABBITMQ_EXCHANGE", "events_exchange"),

		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		VerifyCacheTTL: getEnvDuration("VERIFY_CACHE_TTL", 5*time.Minute),

		ConsulAddress:  os.Getenv("CONSUL_ADDRESS"),
		ServiceName:    getEnv("SERVICE_NAME", "progression-service"),
		ServiceID:      getEnv("SERVICE_ID", "progression-service-1"),
		ServiceAddress: getEnv("SERVICE_ADDRESS", "localhost"),

		AllowOrigins: strings.Split(getEnv("ALLOW_ORIGINS", "http://localhost:3000"), ","),

		SeedFile: os.Getenv("CURRICULUM_SEED_FILE"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
