package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds the application configuration
type Config struct {
	KratosURL            string        `validate:"required,url"` // Kratos internal URL (Frontend API - port 4433)
	AnalyticsURL         string        `validate:"required,url"` // Analytics backend base URL
	Port                 string        `validate:"required"`     // Service port
	LoginPath            string        `validate:"required"`     // Path the browser is sent to after sign-out
	SessionCacheTTL      time.Duration `validate:"gt=0"`         // Session cache TTL
	KPIStaleTime         time.Duration `validate:"gt=0"`         // How long cached KPI results stay fresh
	BackendTokenSecret   string        // Secret for signing backend JWT tokens
	BackendTokenIssuer   string        `validate:"required"` // JWT issuer claim
	BackendTokenAudience string        `validate:"required"` // JWT audience claim
	BackendTokenTTL      time.Duration `validate:"gt=0"`     // JWT token TTL
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	config := &Config{
		KratosURL:            getEnv("KRATOS_URL", "http://kratos:4433"),
		AnalyticsURL:         getEnv("ANALYTICS_URL", "http://analytics:9500"),
		Port:                 getEnv("PORT", "8888"),
		LoginPath:            getEnv("LOGIN_PATH", "/auth/login"),
		SessionCacheTTL:      5 * time.Minute,
		KPIStaleTime:         5 * time.Minute,
		BackendTokenSecret:   getEnv("BACKEND_TOKEN_SECRET", ""),
		BackendTokenIssuer:   getEnv("BACKEND_TOKEN_ISSUER", "insight-hub"),
		BackendTokenAudience: getEnv("BACKEND_TOKEN_AUDIENCE", "insight-analytics"),
		BackendTokenTTL:      5 * time.Minute,
	}

	durations := []struct {
		env    string
		target *time.Duration
	}{
		{"SESSION_CACHE_TTL", &config.SessionCacheTTL},
		{"KPI_STALE_TIME", &config.KPIStaleTime},
		{"BACKEND_TOKEN_TTL", &config.BackendTokenTTL},
	}
	for _, d := range durations {
		if raw := os.Getenv(d.env); raw != "" {
			duration, err := time.ParseDuration(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid %s format: %w", d.env, err)
			}
			*d.target = duration
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var violations validator.ValidationErrors
		if errors.As(err, &violations) && len(violations) > 0 {
			f := violations[0]
			return fmt.Errorf("config field %s failed %q validation", f.StructField(), f.Tag())
		}
		return err
	}
	return nil
}

// getEnv retrieves an environment variable or returns a fallback value.
// A KEY_FILE variant pointing at a file takes precedence, which is how
// container secrets are mounted.
func getEnv(key, fallback string) string {
	if fileValue := os.Getenv(key + "_FILE"); fileValue != "" {
		content, err := os.ReadFile(fileValue)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
