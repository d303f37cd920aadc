package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port          string
	PostgresDSN   string
	MongoURI      string
	MongoDB       string
	RedisAddr     string
	RedisPassword string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	AIServiceURL         string
	LaTeXServiceURL      string
	SuggestionServiceURL string

	SessionSecret   string
	AllowedOrigins  []string
	ReportTypesPath string

	MaxUploadBytes     int64
	SuggestionDelay    time.Duration
	SuggestionMinChars int
}

func Load() *Config {
	return &Config{
		Port:          getenv("PORT", "8080"),
		PostgresDSN:   getenv("POSTGRES_DSN", ""),
		MongoURI:      getenv("MONGO_URI", ""),
		MongoDB:       getenv("MONGO_DB", "paper_studio"),
		RedisAddr:     getenv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getenv("REDIS_PASSWORD", ""),

		MinioEndpoint:  getenv("MINIO_ENDPOINT", "minio:9000"),
		MinioAccessKey: getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getenv("MINIO_BUCKET", "paper-artifacts"),
		MinioUseSSL:    getenv("MINIO_USE_SSL", "false") == "true",

		AIServiceURL:         getenv("AI_SERVICE_URL", "http://ai-service:8000"),
		LaTeXServiceURL:      getenv("LATEX_SERVICE_URL", "http://latex-service:8001"),
		SuggestionServiceURL: getenv("SUGGESTION_SERVICE_URL", "http://ai-service:8000"),

		SessionSecret:   getenv("SESSION_SECRET", ""),
		AllowedOrigins:  []string{getenv("FRONTEND_ORIGIN", "http://localhost:5173"), "http://localhost:3000"},
		ReportTypesPath: getenv("REPORT_TYPES_PATH", ""),

		MaxUploadBytes:     getint64("MAX_UPLOAD_BYTES", 10<<20),
		SuggestionDelay:    getduration("SUGGESTION_DELAY", time.Second),
		SuggestionMinChars: int(getint64("SUGGESTION_MIN_CHARS", 50)),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
