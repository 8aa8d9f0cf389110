package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port         string
	Environment  string
	DatabaseURL  string // Postgres; takes precedence over SQLitePath
	SQLitePath   string // Used when DatabaseURL is empty; empty as well means in-memory storage
	TablePrefix  string
	CORSOrigins  string
	JWKSURL      string // Bearer auth is enabled only when set
	DefaultOwner string // Owner of every request when JWKSURL is empty
	PaletteFile  string // Overrides the embedded palette catalog and is watched for changes
	LogDir       string

	SSEKeepAlive     time.Duration
	CompressionLevel int
	EditorCacheSize  int     // Workspaces kept loaded in memory
	ParseCacheSize   int     // Parsed expressions kept by the math engine
	RateLimit        float64 // Requests per second per owner; 0 disables limiting
	RateBurst        int

	// Debug flags
	Debug bool // Enables debug logging and request details in error responses
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:             getEnv("PORT", "8080"),
		Environment:      env,
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		SQLitePath:       getEnv("SQLITE_PATH", ""),
		TablePrefix:      getTablePrefix(env),
		CORSOrigins:      getEnv("CORS_ORIGINS", "http://localhost:3000"),
		JWKSURL:          getEnv("JWKS_URL", ""),
		DefaultOwner:     getEnv("DEFAULT_OWNER", "local"),
		PaletteFile:      getEnv("PALETTE_FILE", ""),
		LogDir:           getEnv("LOG_DIR", ""),
		SSEKeepAlive:     getDuration("SSE_KEEPALIVE", 15*time.Second),
		CompressionLevel: getInt("COMPRESSION_LEVEL", 5),
		EditorCacheSize:  getInt("EDITOR_CACHE_SIZE", 512),
		ParseCacheSize:   getInt("PARSE_CACHE_SIZE", 256),
		RateLimit:        getFloat("RATE_LIMIT", 20),
		RateBurst:        getInt("RATE_BURST", 40),
		// Debug flags - default to true in dev/test, false in production
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true" // Enable DEBUG in dev/test by default
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	// Auto-generate based on environment
	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return n
}

func getFloat(key string, defaultValue float64) float64 {
	f, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || f < 0 {
		return defaultValue
	}
	return f
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
