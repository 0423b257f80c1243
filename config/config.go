package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers understood by the CLI.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverBackend  = "backend"
	StoreDriverNone     = "none"
)

// Config holds all application configuration loaded from environment variables.
// Extraction budgets are not part of it; see DefaultBudgets.
type Config struct {
	StoreDriver string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	DBConnectRetries int

	BackendURL     string
	BackendTimeout time.Duration

	ChromeBin         string
	Headless          bool
	NavigationTimeout time.Duration

	LogLevel      string
	CSVOutputPath string
}

// Load reads the .env file (if any) and returns a populated Config struct.
// The returned bool reports whether a .env file was found.
func Load() (*Config, bool) {
	found := godotenv.Load() == nil

	return &Config{
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "realtor"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "realtor"),
		PostgresDB:       getEnv("POSTGRES_DB", "realtor_crm"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		DBConnectRetries: getEnvInt("DB_CONNECT_RETRIES", 5),

		BackendURL:     strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:5001"), "/"),
		BackendTimeout: getEnvMillis("BACKEND_TIMEOUT_MS", 5000),

		ChromeBin:         getEnv("CHROME_BIN", ""),
		Headless:          getEnvBool("HEADLESS", true),
		NavigationTimeout: getEnvMillis("NAVIGATION_TIMEOUT_MS", 15000),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", "./output/agents.csv"),
	}, found
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

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

func getEnvMillis(key string, fallbackMs int) time.Duration {
	return time.Duration(getEnvInt(key, fallbackMs)) * time.Millisecond
}
