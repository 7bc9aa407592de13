package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	Area         string
	WantTo       string
	PropertyType string
	FindPast     bool
	PageStart    int
	NPages       int
	MinPrice     int
	MaxPrice     int
	DaysSince    int

	MaxConcurrency     int
	RateLimitPerSecond float64
	DelayMinMs         int
	DelayMaxMs         int
	MaxRetries         int
	RequestTimeoutSec  int

	CSVOutputDir  string
	SelectorsPath string
	Debug         bool
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", ""),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "houseprice_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		Area:         getEnv("AREA", "amsterdam"),
		WantTo:       getEnv("WANT_TO", "rent"),
		PropertyType: getEnv("PROPERTY_TYPE", ""),
		FindPast:     getEnvBool("FIND_PAST", false),
		PageStart:    getEnvInt("PAGE_START", 1),
		NPages:       getEnvInt("N_PAGES", 1),
		MinPrice:     getEnvInt("MIN_PRICE", 0),
		MaxPrice:     getEnvInt("MAX_PRICE", 0),
		DaysSince:    getEnvInt("DAYS_SINCE", 0),

		MaxConcurrency:     getEnvInt("MAX_CONCURRENCY", 4),
		RateLimitPerSecond: getEnvFloat("RATE_LIMIT_PER_SECOND", 2),
		DelayMinMs:         getEnvInt("DELAY_MIN_MS", 500),
		DelayMaxMs:         getEnvInt("DELAY_MAX_MS", 2000),
		MaxRetries:         getEnvInt("MAX_RETRIES", 3),
		RequestTimeoutSec:  getEnvInt("REQUEST_TIMEOUT_SEC", 15),

		CSVOutputDir:  getEnv("CSV_OUTPUT_DIR", "./data"),
		SelectorsPath: getEnv("SELECTORS_PATH", "./config/selectors.yaml"),
		Debug:         getEnvBool("DEBUG", false),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
