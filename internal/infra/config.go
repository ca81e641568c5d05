package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	JWTSecret          string
	CallbackBaseURL    string
	KieAPIKey          string
	KieBaseURL         string
	SunoAPIKey         string
	SunoBaseURL        string
	CreditDefaultSecs  int
	CreditCostSecs     int
	GalleryLimit       int
	ProviderTimeout    time.Duration
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	RateLimitPerMin    int
	CORSAllowedOrigins []string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		Port:              getEnv("PORT", "8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		CallbackBaseURL:   os.Getenv("CALLBACK_BASE_URL"),
		KieAPIKey:         os.Getenv("KIE_API_KEY"),
		KieBaseURL:        getEnv("KIE_BASE_URL", "https://api.kie.ai/v1"),
		SunoAPIKey:        os.Getenv("SUNO_API_KEY"),
		SunoBaseURL:       getEnv("SUNO_BASE_URL", "https://api.sunoapi.org"),
		CreditDefaultSecs: getEnvInt("CREDIT_DEFAULT_SECONDS", 30),
		CreditCostSecs:    getEnvInt("CREDIT_COST_SECONDS", 5),
		GalleryLimit:      getEnvInt("GALLERY_LIMIT", 30),
		ProviderTimeout:   time.Second * time.Duration(getEnvInt("PROVIDER_TIMEOUT_SECONDS", 30)),
		HTTPReadTimeout:   time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:  time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:   time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:   getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	for _, origin := range strings.Split(os.Getenv("CORS_ALLOWED_ORIGINS"), ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if cfg.CallbackBaseURL == "" {
		return nil, fmt.Errorf("CALLBACK_BASE_URL is required")
	}

	if cfg.CreditCostSecs <= 0 {
		return nil, fmt.Errorf("CREDIT_COST_SECONDS must be positive")
	}

	return cfg, nil
}

// CallbackURL is the absolute URL providers deliver generation updates to.
func (c *Config) CallbackURL() string {
	return strings.TrimRight(c.CallbackBaseURL, "/") + "/v1/callbacks/generation"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
