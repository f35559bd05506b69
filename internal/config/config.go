package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds all runtime settings, loaded once at startup.
type Config struct {
	Port        string
	MongoURI    string
	MongoDB     string
	JWTSecret   string
	TokenExpiry time.Duration

	// BaseURL is the externally reachable address used in email links.
	BaseURL string

	AllowedOrigin string

	SMTPHost     string
	SMTPPort     int
	SMTPSender   string
	SMTPPassword string

	// Requests per second and burst for the per-IP limiter on auth routes.
	RateLimitRPS   float64
	RateLimitBurst int
}

// LoadConfig reads configuration from the environment, falling back to a
// .env file when present.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file found, relying on environment variables")
	}

	return &Config{
		Port:           getEnv("PORT", "8080"),
		MongoURI:       getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:        getEnv("MONGO_DB", "deenverse"),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		TokenExpiry:    getEnvDuration("TOKEN_EXPIRY", 24*time.Hour),
		BaseURL:        getEnv("BASE_URL", "http://localhost:8080"),
		AllowedOrigin:  getEnv("ALLOWED_ORIGIN", "http://localhost:3000"),
		SMTPHost:       getEnv("SMTP_HOST", ""),
		SMTPPort:       getEnvInt("SMTP_PORT", 587),
		SMTPSender:     getEnv("SMTP_SENDER", ""),
		SMTPPassword:   getEnv("SMTP_PASSWORD", ""),
		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 10),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		logrus.Warnf("Invalid integer for %s, using default %d", key, fallback)
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		logrus.Warnf("Invalid float for %s, using default %v", key, fallback)
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		logrus.Warnf("Invalid duration for %s, using default %s", key, fallback)
	}
	return fallback
}
