package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	JWTSecret  string
	TokenTTL   time.Duration
	LogLevel   string
}

// ClientConfig is read by the terminal client. Flags override these values.
type ClientConfig struct {
	BackendURL string
	HomeDir    string
	LogLevel   string
}

// Load reads the server config from the environment, after merging an optional .env file.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "periskope"),
		DBPassword: getEnv("DB_PASSWORD", "periskope_dev_password"),
		DBName:     getEnv("DB_NAME", "periskope"),
		JWTSecret:  getEnv("JWT_SECRET", "dev-secret-change-me"),
		TokenTTL:   getDuration("TOKEN_TTL", 24*time.Hour),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
	}
}

func LoadClient() *ClientConfig {
	_ = godotenv.Load()

	return &ClientConfig{
		BackendURL: getEnv("PERISKOPE_URL", "http://localhost:8080"),
		HomeDir:    getEnv("PERISKOPE_HOME", "~/.periskope"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, fallback string) string {
	val, exists := os.LookupEnv(key)

	if exists {
		return val
	}

	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return d
}
