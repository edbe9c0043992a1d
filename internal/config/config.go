// Package config provides centralized configuration for the verify CLI.
// It loads configuration from CLI flags and environment variables, validates
// the result, and provides defaults that match a local `vite` dev server.
//
// Flags override environment variables, which override defaults.
package config

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL     = "http://localhost:3000"
	defaultArtifactDir = "verification"
	defaultS3Region    = "auto"
)

// DefaultBrowserArgs are the Chromium flags used in containers and CI.
var DefaultBrowserArgs = []string{
	"--no-sandbox",
	"--disable-setuid-sandbox",
	"--disable-dev-shm-usage",
	"--disable-gpu",
}

// Config holds all verify configuration.
type Config struct {
	// Target application
	BaseURL string

	// Browser
	Headless       bool
	BrowserArgs    []string
	ViewportWidth  int
	ViewportHeight int

	// Bounded waits
	DefaultTimeout    time.Duration // every wait without an explicit bound
	NavigationTimeout time.Duration // page.Goto
	ElementTimeout    time.Duration // key element waits
	SettleDelay       time.Duration // fixed wait before the favicon check

	// Screenshots
	ArtifactDir string

	// Optional S3 mirror for screenshots
	S3Endpoint        string // ARTIFACT_S3_ENDPOINT
	S3Bucket          string // ARTIFACT_S3_BUCKET
	S3Prefix          string // ARTIFACT_S3_PREFIX
	S3PublicURL       string // ARTIFACT_S3_PUBLIC_URL
	S3Region          string // AWS_REGION
	S3AccessKeyID     string // AWS_ACCESS_KEY_ID
	S3SecretAccessKey string // AWS_SECRET_ACCESS_KEY
	S3UsePathStyle    bool   // ARTIFACT_S3_PATH_STYLE
}

// Flags are the values the CLI accepts on the command line.
// Zero values mean "not set" and fall through to env vars.
type Flags struct {
	BaseURL     string
	ArtifactDir string
	Headed      bool
	List        bool
	Scenarios   []string
}

// ValidationError represents a configuration validation error with multiple issues.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// ParseFlags registers and parses the CLI flags on fs.
// Positional arguments are scenario names.
func ParseFlags(fs *flag.FlagSet, args []string) (Flags, error) {
	var f Flags
	fs.StringVar(&f.BaseURL, "base-url", "", "Target app URL (default http://localhost:3000, overrides VERIFY_BASE_URL)")
	fs.StringVar(&f.ArtifactDir, "out", "", "Screenshot directory (default ./verification, overrides VERIFY_ARTIFACT_DIR)")
	fs.BoolVar(&f.Headed, "headed", false, "Show the browser window")
	fs.BoolVar(&f.List, "list", false, "List scenarios and exit")
	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}
	f.Scenarios = fs.Args()
	return f, nil
}

// LoadConfig loads configuration from environment variables and CLI flag values.
func LoadConfig(f Flags) (*Config, error) {
	cfg := &Config{}

	cfg.BaseURL = strings.TrimRight(getEnvOrDefault("VERIFY_BASE_URL", defaultBaseURL), "/")
	if f.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(strings.TrimSpace(f.BaseURL), "/")
	}

	cfg.Headless = parseBoolOrDefault("VERIFY_HEADLESS", true)
	if f.Headed {
		cfg.Headless = false
	}
	cfg.BrowserArgs = append([]string(nil), DefaultBrowserArgs...)
	if extra := strings.TrimSpace(os.Getenv("VERIFY_BROWSER_ARGS")); extra != "" {
		cfg.BrowserArgs = strings.Fields(extra)
	}
	cfg.ViewportWidth = parseIntOrDefault("VERIFY_VIEWPORT_WIDTH", 1280)
	cfg.ViewportHeight = parseIntOrDefault("VERIFY_VIEWPORT_HEIGHT", 720)

	cfg.DefaultTimeout = parseDurationOrDefault("VERIFY_DEFAULT_TIMEOUT", 5*time.Second)
	cfg.NavigationTimeout = parseDurationOrDefault("VERIFY_NAVIGATION_TIMEOUT", 30*time.Second)
	cfg.ElementTimeout = parseDurationOrDefault("VERIFY_ELEMENT_TIMEOUT", 10*time.Second)
	cfg.SettleDelay = parseDurationOrDefault("VERIFY_SETTLE_DELAY", 2*time.Second)

	cfg.ArtifactDir = getEnvOrDefault("VERIFY_ARTIFACT_DIR", defaultArtifactDir)
	if f.ArtifactDir != "" {
		cfg.ArtifactDir = strings.TrimSpace(f.ArtifactDir)
	}

	cfg.S3Endpoint = strings.TrimSpace(os.Getenv("ARTIFACT_S3_ENDPOINT"))
	cfg.S3Bucket = strings.TrimSpace(os.Getenv("ARTIFACT_S3_BUCKET"))
	cfg.S3Prefix = strings.Trim(strings.TrimSpace(os.Getenv("ARTIFACT_S3_PREFIX")), "/")
	cfg.S3Region = getEnvOrDefault("AWS_REGION", defaultS3Region)
	cfg.S3AccessKeyID = strings.TrimSpace(os.Getenv("AWS_ACCESS_KEY_ID"))
	cfg.S3SecretAccessKey = strings.TrimSpace(os.Getenv("AWS_SECRET_ACCESS_KEY"))
	cfg.S3UsePathStyle = parseBoolOrDefault("ARTIFACT_S3_PATH_STYLE", false)
	cfg.S3PublicURL = strings.TrimSpace(os.Getenv("ARTIFACT_S3_PUBLIC_URL"))
	if cfg.S3PublicURL == "" && cfg.S3Endpoint != "" && cfg.S3Bucket != "" {
		cfg.S3PublicURL = strings.TrimRight(cfg.S3Endpoint, "/") + "/" + cfg.S3Bucket
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that all required configuration is present and valid.
func (c *Config) Validate() error {
	var errs []string

	if c.BaseURL == "" {
		errs = append(errs, "VERIFY_BASE_URL must not be empty")
	} else if u, err := url.Parse(c.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, "VERIFY_BASE_URL must be an absolute http(s) URL")
	}

	if strings.TrimSpace(c.ArtifactDir) == "" {
		errs = append(errs, "VERIFY_ARTIFACT_DIR must not be empty")
	}

	if c.ViewportWidth <= 0 || c.ViewportHeight <= 0 {
		errs = append(errs, "VERIFY_VIEWPORT_WIDTH and VERIFY_VIEWPORT_HEIGHT must be positive")
	}

	if c.DefaultTimeout <= 0 {
		errs = append(errs, "VERIFY_DEFAULT_TIMEOUT must be positive")
	}
	if c.NavigationTimeout <= 0 {
		errs = append(errs, "VERIFY_NAVIGATION_TIMEOUT must be positive")
	}
	if c.ElementTimeout <= 0 {
		errs = append(errs, "VERIFY_ELEMENT_TIMEOUT must be positive")
	}
	if c.SettleDelay < 0 {
		errs = append(errs, "VERIFY_SETTLE_DELAY must not be negative")
	}

	// S3 mirror: all or nothing
	if c.S3Bucket != "" || c.S3Endpoint != "" {
		if c.S3Bucket == "" {
			errs = append(errs, "ARTIFACT_S3_BUCKET is required when ARTIFACT_S3_ENDPOINT is set")
		}
		if c.S3AccessKeyID == "" {
			errs = append(errs, "AWS_ACCESS_KEY_ID is required for the S3 artifact mirror")
		}
		if c.S3SecretAccessKey == "" {
			errs = append(errs, "AWS_SECRET_ACCESS_KEY is required for the S3 artifact mirror")
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// MirrorsToS3 reports whether screenshots are also uploaded to a bucket.
func (c *Config) MirrorsToS3() bool {
	return c.S3Bucket != ""
}

// PrintStartupSummary prints a human-readable summary of the configuration to stderr.
func (c *Config) PrintStartupSummary() {
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "margea verify starting...")
	fmt.Fprintf(os.Stderr, "  Target:   %s\n", c.BaseURL)
	if c.Headless {
		fmt.Fprintln(os.Stderr, "  Browser:  Chromium (headless)")
	} else {
		fmt.Fprintln(os.Stderr, "  Browser:  Chromium (headed)")
	}
	fmt.Fprintf(os.Stderr, "  Timeouts: default=%s navigation=%s element=%s\n", c.DefaultTimeout, c.NavigationTimeout, c.ElementTimeout)
	fmt.Fprintf(os.Stderr, "  Output:   %s\n", c.ArtifactDir)
	if c.MirrorsToS3() {
		fmt.Fprintf(os.Stderr, "  Mirror:   s3://%s/%s\n", c.S3Bucket, c.S3Prefix)
	}
	fmt.Fprintln(os.Stderr, "")
}

// Helper functions for parsing environment variables

func getEnvOrDefault(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func parseIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
