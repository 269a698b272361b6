package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	// Namespace filtering
	SystemNamespacePrefixes []string // namespaces with these prefixes are skipped
	ExcludedNamespaces      []string // exact namespace names to skip
	IncludeSystem           bool     // scan system namespaces anyway

	// Cluster access
	ListTimeout time.Duration

	// Usage hints
	UsageHintsEnabled bool
	PrometheusURL     string

	// Storage
	StorageEnabled bool
	DatabaseURL    string

	// Output
	ReportFormat string // text, csv, pdf
	ReportOutput string
	Verbose      bool
}

// NewConfig creates a new configuration with defaults
func NewConfig() *Config {
	return &Config{
		SystemNamespacePrefixes: []string{"kube-", "system-"},
		ExcludedNamespaces:      getEnvList("EXCLUDED_NAMESPACES", nil),
		IncludeSystem:           getEnvBool("INCLUDE_SYSTEM_NAMESPACES", false),
		ListTimeout:             getEnvDuration("LIST_TIMEOUT_SECONDS", 30*time.Second),
		UsageHintsEnabled:       getEnvBool("USAGE_HINTS_ENABLED", true),
		PrometheusURL:           getEnv("PROMETHEUS_URL", ""),
		StorageEnabled:          getEnvBool("STORAGE_ENABLED", false),
		DatabaseURL:             getEnv("DATABASE_URL", ""),
		ReportFormat:            getEnv("REPORT_FORMAT", "text"),
		ReportOutput:            getEnv("REPORT_OUTPUT", ""),
		Verbose:                 false,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	switch c.ReportFormat {
	case "text", "csv", "pdf":
	default:
		return fmt.Errorf("report format must be text, csv, or pdf, got %q", c.ReportFormat)
	}
	if c.ListTimeout < time.Second {
		return fmt.Errorf("list timeout must be at least 1 second")
	}
	if c.StorageEnabled && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must be set when storage is enabled")
	}
	return nil
}
