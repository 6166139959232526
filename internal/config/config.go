package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort        string
	PublicBaseURL   string
	FrontendBaseURL string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	BackendBaseURL string
	BackendTimeout time.Duration

	TossBaseURL   string
	TossClientKey string
	TossSecretKey string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MongoURI      string
	MongoDatabase string

	DBDriver          string
	DBDataSourceName  string
	MigrationsDirPath string

	KafkaBrokers []string

	DeliveryFee int64
	IntentTTL   time.Duration
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("no .env file found, using environment")
	}

	cfg := &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		PublicBaseURL:   getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		FrontendBaseURL: os.Getenv("FRONTEND_BASE_URL"),
		RequestTimeout:  getDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		BackendBaseURL: getEnv("BACKEND_BASE_URL", "http://localhost:8090"),
		BackendTimeout: getDuration("BACKEND_TIMEOUT", 10*time.Second),

		TossBaseURL:   getEnv("TOSS_BASE_URL", "https://api.tosspayments.com"),
		TossClientKey: os.Getenv("TOSS_CLIENT_KEY"),
		TossSecretKey: os.Getenv("TOSS_SECRET_KEY"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getInt("REDIS_DB", 0),

		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "realive"),

		DBDriver:          getEnv("DB_DRIVER", "postgres"),
		MigrationsDirPath: getEnv("MIGRATIONS_DIR", "internal/repository/migrations"),

		DeliveryFee: int64(getInt("DELIVERY_FEE", 3000)),
		IntentTTL:   getDuration("INTENT_TTL", 30*time.Minute),
	}

	// DB_DSN wins outright so a non-postgres driver never ends up paired
	// with a postgres-shaped DSN.
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		cfg.DBDataSourceName = dsn
	} else {
		dbHost := getEnv("DB_HOST", "localhost")
		dbPort := getEnv("DB_PORT", "5432")
		dbName := getEnv("DB_NAME", "realive_checkout")
		dbUser := getEnv("DB_USER", "realive")
		dbPassword := getEnv("DB_PASSWORD", "realive")
		cfg.DBDataSourceName = fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			dbHost, dbPort, dbUser, dbPassword, dbName)
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	} else {
		cfg.KafkaBrokers = []string{"localhost:9092"}
	}

	if cfg.TossClientKey == "" || cfg.TossSecretKey == "" {
		return nil, fmt.Errorf("TOSS_CLIENT_KEY and TOSS_SECRET_KEY are required")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
