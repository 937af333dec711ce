package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL   string
	DBMaxConns    int
	DBMinConns    int
	MigrationsDir string

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// Speech-to-text providers. A missing key disables that provider;
	// the gateway only holds adapters with credentials.
	ElevenLabsAPIKey string
	DeepgramAPIKey   string

	// Gemini AI. A missing key disables the LLM synthesis path; the
	// engine then always answers from its heuristic.
	GeminiAPIKey         string
	GeminiModel          string
	GeminiFallbackModels []string

	// Audio fetching
	AudioStorageOrigin string
	AudioMaxBytes      int64

	// Workers
	WorkerCount int

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:        getEnvOrDefault("PORT", "8080"),
		Env:         getEnvOrDefault("ENV", "development"),
		DatabaseURL:   mustGetEnv("DATABASE_URL"),
		DBMaxConns:    getEnvAsIntOrDefault("DB_MAX_CONNS", 25),
		DBMinConns:    getEnvAsIntOrDefault("DB_MIN_CONNS", 5),
		MigrationsDir: getEnvOrDefault("MIGRATIONS_DIR", "migrations"),
		RedisURL:      mustGetEnv("REDIS_URL"),
		JWTSecret:     mustGetEnv("JWT_SECRET"),

		ElevenLabsAPIKey: getEnvOrDefault("ELEVENLABS_API_KEY", ""),
		DeepgramAPIKey:   getEnvOrDefault("DEEPGRAM_API_KEY", ""),

		GeminiAPIKey:         getEnvOrDefault("GEMINI_API_KEY", ""),
		GeminiModel:          getEnvOrDefault("GEMINI_MODEL", "gemini-3-flash-preview"),
		GeminiFallbackModels: getEnvAsListOrDefault("GEMINI_FALLBACK_MODELS", []string{"gemini-2.5-flash"}),

		AudioStorageOrigin: getEnvOrDefault("AUDIO_STORAGE_ORIGIN", "storage.bibliomnomnom.app"),
		AudioMaxBytes:      getEnvAsInt64OrDefault("AUDIO_MAX_BYTES", 100*1024*1024),

		WorkerCount: getEnvAsIntOrDefault("WORKER_COUNT", 4),

		FrontendURL: getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

// SynthesisModels returns the preferred model followed by its fallbacks.
func (c *Config) SynthesisModels() []string {
	return append([]string{c.GeminiModel}, c.GeminiFallbackModels...)
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsInt64OrDefault(key string, defaultVal int64) int64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsListOrDefault(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
