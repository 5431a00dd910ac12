package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/joho/godotenv"
)

// Settings holds process-level configuration read from the environment.
type Settings struct {
	DevCode       string
	LogLevel      string
	HTTPAddr      string
	RedisAddr     string
	TrialTTL      time.Duration // 0 keeps trial markers forever
	PriceCacheTTL time.Duration
	PriceDir      string
	AlpacaKeyID   string
	AlpacaSecret  string
}

// secretVars are masked by Settings.Masked.
var secretVars = map[string]bool{
	"PLANNER_DEV_CODE":    true,
	"APCA_API_KEY_ID":     true,
	"APCA_API_SECRET_KEY": true,
}

// LoadSettings loads .env files (default ".env"; a missing file is fine) into
// the process environment and reads the planner's variables from it.
func LoadSettings(files ...string) (*Settings, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	trialTTL, err := envDuration("PLANNER_TRIAL_TTL", 0)
	if err != nil {
		return nil, err
	}
	cacheTTL, err := envDuration("PLANNER_PRICE_CACHE_TTL", 6*time.Hour)
	if err != nil {
		return nil, err
	}

	return &Settings{
		DevCode:       os.Getenv("PLANNER_DEV_CODE"),
		LogLevel:      getEnv("PLANNER_LOG_LEVEL", "info"),
		HTTPAddr:      getEnv("PLANNER_HTTP_ADDR", ":8080"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		TrialTTL:      trialTTL,
		PriceCacheTTL: cacheTTL,
		PriceDir:      os.Getenv("PLANNER_PRICE_DIR"),
		AlpacaKeyID:   os.Getenv("APCA_API_KEY_ID"),
		AlpacaSecret:  os.Getenv("APCA_API_SECRET_KEY"),
	}, nil
}

// HasAlpacaCredentials reports whether both Alpaca keys are set.
func (s *Settings) HasAlpacaCredentials() bool {
	return s.AlpacaKeyID != "" && s.AlpacaSecret != ""
}

// Masked returns the settings as environment variable pairs with secrets
// reduced to their last four characters, for logging.
func (s *Settings) Masked() map[string]string {
	vars := map[string]string{
		"PLANNER_DEV_CODE":        s.DevCode,
		"PLANNER_LOG_LEVEL":       s.LogLevel,
		"PLANNER_HTTP_ADDR":       s.HTTPAddr,
		"REDIS_ADDR":              s.RedisAddr,
		"PLANNER_TRIAL_TTL":       s.TrialTTL.String(),
		"PLANNER_PRICE_CACHE_TTL": s.PriceCacheTTL.String(),
		"PLANNER_PRICE_DIR":       s.PriceDir,
		"APCA_API_KEY_ID":         s.AlpacaKeyID,
		"APCA_API_SECRET_KEY":     s.AlpacaSecret,
	}
	for k, v := range vars {
		if secretVars[k] && v != "" {
			vars[k] = mask(v)
		}
	}
	return vars
}

// MaskedKeys returns the keys of Masked in sorted order.
func (s *Settings) MaskedKeys() []string {
	m := s.Masked()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func mask(v string) string {
	if len(v) > 4 {
		return "***" + v[len(v)-4:]
	}
	return "***"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", key, v)
	}
	return d, nil
}
