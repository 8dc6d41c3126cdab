package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	Env             string

	StorageBackend    string
	DatabaseURL       string
	RedisURL          string
	RedisPrefix       string
	StorageQuotaBytes int64

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string

	AIProvider string
	AIModel    string
	AIBaseURL  string
	AIAPIKey   string
	AITimeout  time.Duration

	JWTSecret       string
	ShutdownTimeout time.Duration

	RateLimit RateLimitConfig
	Editor    EditorConfig
}

// RateLimitConfig sets per-principal token buckets. Rates are per second.
type RateLimitConfig struct {
	Rate    float64
	Burst   int
	AIRate  float64
	AIBurst int
}

// EditorConfig tunes the editing session engine.
type EditorConfig struct {
	HistoryLimit  int
	VersionLimit  int
	AutosaveDelay time.Duration
	RedoEnabled   bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	backend := normalizeBackend(getEnv("STORAGE_BACKEND", "memory"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && backend == "memory" {
		log.Printf("STORAGE_BACKEND=memory in production; resumes will not survive a restart")
	}
	if backend == "postgres" && dbURL == "" {
		log.Printf("DATABASE_URL is required for STORAGE_BACKEND=postgres")
	}

	return Config{
		Port:              getEnv("PORT", "8080"),
		CORSAllowOrigin:   splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		Env:               env,
		StorageBackend:    backend,
		DatabaseURL:       dbURL,
		RedisURL:          getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RedisPrefix:       getEnv("REDIS_PREFIX", "workspace:"),
		StorageQuotaBytes: getInt64("STORAGE_QUOTA_BYTES", 5*1024*1024),
		ObjectStoreType:   normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:     getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:         getEnv("AWS_REGION", ""),
		S3Bucket:          getEnv("S3_BUCKET", ""),
		S3Prefix:          getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:       getEnv("SSE_KMS_KEY_ID", ""),
		AIProvider:        strings.ToLower(getEnv("AI_PROVIDER", "openai")),
		AIModel:           getEnv("AI_MODEL", "gpt-4o-mini"),
		AIBaseURL:         getEnv("AI_BASE_URL", ""),
		AIAPIKey:          strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		AITimeout:         time.Duration(getInt64("AI_TIMEOUT_SECONDS", 60)) * time.Second,
		JWTSecret:         os.Getenv("JWT_SECRET"),
		ShutdownTimeout:   time.Duration(getInt64("SHUTDOWN_TIMEOUT_SECONDS", 15)) * time.Second,
		RateLimit: RateLimitConfig{
			Rate:    getFloat("RATE_LIMIT_RPS", 20),
			Burst:   int(getInt64("RATE_LIMIT_BURST", 40)),
			AIRate:  getFloat("AI_RATE_LIMIT_RPS", 0.2),
			AIBurst: int(getInt64("AI_RATE_LIMIT_BURST", 3)),
		},
		Editor: EditorConfig{
			HistoryLimit:  int(getInt64("EDITOR_HISTORY_LIMIT", 50)),
			VersionLimit:  int(getInt64("EDITOR_VERSION_LIMIT", 30)),
			AutosaveDelay: time.Duration(getInt64("EDITOR_AUTOSAVE_MS", 2000)) * time.Millisecond,
			RedoEnabled:   getBool("EDITOR_REDO_ENABLED", false),
		},
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getInt64(key string, def int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		log.Printf("ignoring invalid %s=%q", key, raw)
		return def
	}
	return v
}

func getFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		log.Printf("ignoring invalid %s=%q", key, raw)
		return def
	}
	return v
}

func getBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "test":
		return "test"
	default:
		return "dev"
	}
}

func normalizeBackend(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "redis":
		return "redis"
	case "postgres", "pg":
		return "postgres"
	default:
		return "memory"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}
