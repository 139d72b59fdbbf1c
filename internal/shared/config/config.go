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
	Env             string
	CORSAllowOrigin []string

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string

	ResultStore   string
	ResultLogFile string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	Classifier ClassifierConfig

	HandlerBaseURL string
	HandlerTimeout time.Duration
	CaptionContext bool
	GeminiAPIKey   string
	GeminiModel    string
}

// ClassifierConfig drives the remote tiers of the classifier cascade.
type ClassifierConfig struct {
	PrimaryURL     string
	PrimaryKey     string
	FallbackURL    string
	UseSecondary   bool
	SecondaryURLs  []string
	SecondaryKey   string
	SecondaryModel string
	SecondaryChat  bool
	MaxTokens      int
	Temperature    float64
	Timeout        time.Duration
	ProbeTimeout   time.Duration
}

// DefaultSecondaryURLs are the secondary classifier candidates probed when
// USE_SECONDARY_CLASSIFIER is on and SECONDARY_CLASSIFIER_URLS is unset.
var DefaultSecondaryURLs = []string{
	"https://api.cerebras.com/v1/chat/completions",
	"https://api.cerebras.com/v1/completions",
	"https://api.cerebras.com/chat/completions",
	"https://api.cerebras.com/completions",
	"https://cerebras-api.com/v1/chat/completions",
	"https://cerebras-api.com/v1/completions",
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	resultStore := normalizeResultStore(getEnv("RESULT_STORE", "memory"))
	dbURL := os.Getenv("DATABASE_URL")

	if resultStore == "postgres" && dbURL == "" {
		log.Printf("RESULT_STORE=postgres requires DATABASE_URL")
	}

	useSecondary := getEnvBool("USE_SECONDARY_CLASSIFIER", false)
	secondaryURLs := splitAndTrim(getEnv("SECONDARY_CLASSIFIER_URLS", ""))
	if useSecondary && len(secondaryURLs) == 0 {
		log.Printf("USE_SECONDARY_CLASSIFIER set without SECONDARY_CLASSIFIER_URLS; using %d default candidates", len(DefaultSecondaryURLs))
		secondaryURLs = append([]string(nil), DefaultSecondaryURLs...)
	}

	return Config{
		Port:            getEnv("PORT", "8000"),
		Env:             env,
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000")),

		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./uploads"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:     getEnv("SSE_KMS_KEY_ID", ""),

		ResultStore:   resultStore,
		ResultLogFile: getEnv("RESULT_LOG_FILE", "./logs.json"),
		DatabaseURL:   dbURL,
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RedisPrefix:   getEnv("REDIS_PREFIX", "vision-router"),

		Classifier: ClassifierConfig{
			PrimaryURL:     getEnv("PRIMARY_CLASSIFIER_URL", "http://localhost:8000/qwen/predict"),
			PrimaryKey:     getEnv("PRIMARY_CLASSIFIER_KEY", ""),
			FallbackURL:    getEnv("FALLBACK_CLASSIFIER_URL", ""),
			UseSecondary:   useSecondary,
			SecondaryURLs:  secondaryURLs,
			SecondaryKey:   getEnv("SECONDARY_CLASSIFIER_KEY", ""),
			SecondaryModel: getEnv("SECONDARY_CLASSIFIER_MODEL", "qwen-7b"),
			SecondaryChat:  getEnvBool("SECONDARY_CLASSIFIER_CHAT", false),
			MaxTokens:      getEnvInt("CLASSIFIER_MAX_TOKENS", 100),
			Temperature:    getEnvFloat("CLASSIFIER_TEMPERATURE", 0.7),
			Timeout:        getEnvDuration("CLASSIFIER_TIMEOUT", 30*time.Second),
			ProbeTimeout:   getEnvDuration("PROBE_TIMEOUT", 5*time.Second),
		},

		HandlerBaseURL: strings.TrimRight(getEnv("HANDLER_BASE_URL", "http://localhost:8000"), "/"),
		HandlerTimeout: getEnvDuration("HANDLER_TIMEOUT", 30*time.Second),
		CaptionContext: getEnvBool("CAPTION_CONTEXT", false),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config: %s invalid int %q, using %d", key, raw, def)
		return def
	}
	return val
}

func getEnvFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("config: %s invalid float %q, using %v", key, raw, def)
		return def
	}
	return val
}

func getEnvBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("config: %s invalid bool %q, using %v", key, raw, def)
		return def
	}
	return val
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("config: %s invalid duration %q, using %s", key, raw, def)
		return def
	}
	return val
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
	default:
		return "dev"
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

func normalizeResultStore(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "file", "json":
		return "file"
	case "postgres", "pg":
		return "postgres"
	case "redis":
		return "redis"
	default:
		return "memory"
	}
}
