package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingAPIKey is returned when no Gemini API key is configured.
var ErrMissingAPIKey = errors.New("GEMINI_API_KEY is required")

// Config holds all configuration for the application.
type Config struct {
	Port string
	Env  string

	GeminiAPIKey      string
	Model             string
	GenerationTimeout time.Duration
	RateLimitWait     bool

	SessionCapacity int
	SessionTTL      time.Duration

	LogLevel  slog.Level
	LogFormat string

	// CORSAllowedOrigins are the cross-site origins allowed to call the API
	// and open the state stream. Empty means same-origin only.
	CORSAllowedOrigins []string
}

// IsLocal reports whether the app runs in a local development environment.
func (c *Config) IsLocal() bool {
	return strings.EqualFold(c.Env, "local")
}

// Load reads configuration from an optional .env file, the environment and
// the command line arguments (without the program name).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("pixelart", flag.ContinueOnError)
	port := fs.String("port", ":8080", "server port")
	envFile := fs.String("env-file", ".env", "optional dotenv file")
	model := fs.String("model", "", "image model (overrides PIXELART_MODEL)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// A missing .env file is fine; values may come from the environment.
	_ = godotenv.Load(*envFile)

	if envPort := strings.TrimSpace(os.Getenv("PORT")); envPort != "" {
		*port = envPort
	}
	if !strings.Contains(*port, ":") {
		*port = ":" + *port
	}

	cfg := &Config{
		Port:               *port,
		Env:                firstNonEmpty(strings.TrimSpace(os.Getenv("APP_ENV")), "local"),
		GeminiAPIKey:       strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		Model:              firstNonEmpty(*model, strings.TrimSpace(os.Getenv("PIXELART_MODEL")), "imagen-4"),
		LogFormat:          strings.ToLower(firstNonEmpty(strings.TrimSpace(os.Getenv("LOG_FORMAT")), "text")),
		CORSAllowedOrigins: listEnv("CORS_ALLOWED_ORIGINS"),
	}

	var err error
	if cfg.GenerationTimeout, err = secondsEnv("GENERATION_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = minutesEnv("SESSION_TTL", 60*time.Minute); err != nil {
		return nil, err
	}
	if cfg.SessionCapacity, err = intEnv("SESSION_CAPACITY", 1024); err != nil {
		return nil, err
	}
	if cfg.RateLimitWait, err = boolEnv("RATE_LIMIT_WAIT", false); err != nil {
		return nil, err
	}
	if cfg.LogLevel, err = levelEnv("LOG_LEVEL", slog.LevelInfo); err != nil {
		return nil, err
	}

	if cfg.GeminiAPIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	return cfg, nil
}

// NewLogger builds the application logger writing to w.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func intEnv(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
	}
	return v, nil
}

func secondsEnv(key string, def time.Duration) (time.Duration, error) {
	v, err := intEnv(key, int(def/time.Second))
	if err != nil {
		return 0, err
	}
	return time.Duration(v) * time.Second, nil
}

func minutesEnv(key string, def time.Duration) (time.Duration, error) {
	v, err := intEnv(key, int(def/time.Minute))
	if err != nil {
		return 0, err
	}
	return time.Duration(v) * time.Minute, nil
}

func boolEnv(key string, def bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", key, raw)
	}
	return v, nil
}

func levelEnv(key string, def slog.Level) (slog.Level, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return level, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// listEnv splits a comma-separated variable, dropping empty entries.
func listEnv(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
