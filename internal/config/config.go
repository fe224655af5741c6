package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	AppName     = "moveinventory"
	EnvFileName = "config.env"
)

// LoadEnvFile loads environment variables from the config file in the
// user's config directory. Errors are ignored since the file may not
// exist.
func LoadEnvFile() {
	configBase, err := os.UserConfigDir()
	if err != nil {
		return
	}
	configPath := filepath.Join(configBase, AppName, EnvFileName)
	_ = godotenv.Load(configPath)
}

// Config holds everything the server reads from the environment.
type Config struct {
	ListenAddr string

	// Model backend: "openai" (any chat-completions-compatible endpoint)
	// or "gemini".
	ModelBackend string
	ModelName    string
	OpenAIAPIKey string
	OpenAIBase   string
	GeminiAPIKey string

	MaxRetries  int
	CallTimeout time.Duration

	DBPath      string
	FieldKey    string // passphrase for customer-field encryption, optional
	PricingFile string
	PricingTTL  time.Duration
	CacheMaxAge time.Duration
}

// Load reads configuration from the environment, applying defaults.
// It returns an error for a missing model credential, the one setting the
// pipeline cannot run without.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:   getenv("LISTEN_ADDR", ":8080"),
		ModelBackend: getenv("MODEL_BACKEND", "openai"),
		ModelName:    os.Getenv("MODEL_NAME"),
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		OpenAIBase:   os.Getenv("OPENAI_BASE_URL"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		MaxRetries:   getenvInt("MODEL_MAX_RETRIES", 3),
		CallTimeout:  getenvDuration("MODEL_CALL_TIMEOUT", 90*time.Second),
		DBPath:       getenv("DB_PATH", "moveinventory.db"),
		FieldKey:     os.Getenv("FIELD_ENCRYPTION_KEY"),
		PricingFile:  os.Getenv("PRICING_FILE"),
		PricingTTL:   getenvDuration("PRICING_TTL", 5*time.Minute),
		CacheMaxAge:  getenvDuration("RESPONSE_CACHE_MAX_AGE", 14*24*time.Hour),
	}

	switch cfg.ModelBackend {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is not set")
		}
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is not set")
		}
	default:
		return nil, fmt.Errorf("unknown MODEL_BACKEND %q", cfg.ModelBackend)
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
