package config

import (
	"errors"
	"flag"
	"io"
	"strings"
	"testing"
	"time"

	"pgregory.net/rapid"
)

func validTestConfig() Config {
	return Config{
		BaseURL:           "http://localhost:3000",
		Headless:          true,
		BrowserArgs:       DefaultBrowserArgs,
		ViewportWidth:     1280,
		ViewportHeight:    720,
		DefaultTimeout:    5 * time.Second,
		NavigationTimeout: 30 * time.Second,
		ElementTimeout:    10 * time.Second,
		SettleDelay:       2 * time.Second,
		ArtifactDir:       "verification",
	}
}

func clearVerifyEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"VERIFY_BASE_URL", "VERIFY_HEADLESS", "VERIFY_BROWSER_ARGS",
		"VERIFY_VIEWPORT_WIDTH", "VERIFY_VIEWPORT_HEIGHT",
		"VERIFY_DEFAULT_TIMEOUT", "VERIFY_NAVIGATION_TIMEOUT", "VERIFY_ELEMENT_TIMEOUT", "VERIFY_SETTLE_DELAY",
		"VERIFY_ARTIFACT_DIR",
		"ARTIFACT_S3_ENDPOINT", "ARTIFACT_S3_BUCKET", "ARTIFACT_S3_PREFIX", "ARTIFACT_S3_PUBLIC_URL", "ARTIFACT_S3_PATH_STYLE",
		"AWS_REGION", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY",
	} {
		t.Setenv(key, "")
	}
}

func TestValidate_DefaultsPass(t *testing.T) {
	t.Parallel()
	cfg := validTestConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got error: %v", err)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearVerifyEnv(t)

	cfg, err := LoadConfig(Flags{})
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.BaseURL != "http://localhost:3000" {
		t.Fatalf("BaseURL=%q", cfg.BaseURL)
	}
	if cfg.ArtifactDir != "verification" {
		t.Fatalf("ArtifactDir=%q", cfg.ArtifactDir)
	}
	if !cfg.Headless {
		t.Fatal("expected headless by default")
	}
	if cfg.NavigationTimeout != 30*time.Second || cfg.ElementTimeout != 10*time.Second || cfg.DefaultTimeout != 5*time.Second {
		t.Fatalf("unexpected timeouts: %+v", cfg)
	}
	if cfg.SettleDelay != 2*time.Second {
		t.Fatalf("SettleDelay=%s", cfg.SettleDelay)
	}
	if cfg.MirrorsToS3() {
		t.Fatal("S3 mirror should be off by default")
	}
}

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	clearVerifyEnv(t)
	t.Setenv("VERIFY_BASE_URL", "http://env.example:3000/")
	t.Setenv("VERIFY_ARTIFACT_DIR", "env-out")

	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	f, err := ParseFlags(fs, []string{"-base-url", "http://127.0.0.1:4173/", "-out", "flag-out", "-headed", "favicon", "bulk-merge-toast"})
	if err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	if got := strings.Join(f.Scenarios, ","); got != "favicon,bulk-merge-toast" {
		t.Fatalf("Scenarios=%q", got)
	}

	cfg, err := LoadConfig(f)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.BaseURL != "http://127.0.0.1:4173" {
		t.Fatalf("BaseURL=%q, want trailing slash trimmed flag value", cfg.BaseURL)
	}
	if cfg.ArtifactDir != "flag-out" {
		t.Fatalf("ArtifactDir=%q", cfg.ArtifactDir)
	}
	if cfg.Headless {
		t.Fatal("-headed should disable headless")
	}
}

func TestLoadConfig_S3MirrorRequiresCredentials(t *testing.T) {
	clearVerifyEnv(t)
	t.Setenv("ARTIFACT_S3_ENDPOINT", "http://127.0.0.1:9000")

	_, err := LoadConfig(Flags{})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	msg := err.Error()
	for _, expected := range []string{"ARTIFACT_S3_BUCKET", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY"} {
		if !strings.Contains(msg, expected) {
			t.Fatalf("expected validation error to mention %q, got: %v", expected, err)
		}
	}
}

func TestLoadConfig_S3PublicURLDerived(t *testing.T) {
	clearVerifyEnv(t)
	t.Setenv("ARTIFACT_S3_ENDPOINT", "http://127.0.0.1:9000/")
	t.Setenv("ARTIFACT_S3_BUCKET", "screens")
	t.Setenv("AWS_ACCESS_KEY_ID", "k")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "s")

	cfg, err := LoadConfig(Flags{})
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.S3PublicURL != "http://127.0.0.1:9000/screens" {
		t.Fatalf("S3PublicURL=%q", cfg.S3PublicURL)
	}
	if !cfg.MirrorsToS3() {
		t.Fatal("expected S3 mirror to be on")
	}
}

func testValidate_RejectsNonPositiveTimeouts(t *rapid.T) {
	cfg := validTestConfig()
	cfg.DefaultTimeout = time.Duration(rapid.Int64Range(-int64(time.Minute), 0).Draw(t, "default"))
	cfg.NavigationTimeout = time.Duration(rapid.Int64Range(-int64(time.Minute), 0).Draw(t, "navigation"))
	cfg.ElementTimeout = time.Duration(rapid.Int64Range(-int64(time.Minute), 0).Draw(t, "element"))

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error for non-positive timeouts")
	}
	msg := err.Error()
	for _, token := range []string{"VERIFY_DEFAULT_TIMEOUT", "VERIFY_NAVIGATION_TIMEOUT", "VERIFY_ELEMENT_TIMEOUT"} {
		if !strings.Contains(msg, token) {
			t.Fatalf("expected error mentioning %q, got: %v", token, err)
		}
	}
}

func TestValidate_RejectsNonPositiveTimeouts(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testValidate_RejectsNonPositiveTimeouts)
}

func testValidate_RejectsRelativeBaseURL(t *rapid.T) {
	cfg := validTestConfig()
	cfg.BaseURL = rapid.StringMatching(`(ftp://|/)?[a-z]{1,12}(/[a-z]{0,8})?`).Draw(t, "base_url")

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "VERIFY_BASE_URL") {
		t.Fatalf("expected VERIFY_BASE_URL error for %q, got %v", cfg.BaseURL, err)
	}
}

func TestValidate_RejectsRelativeBaseURL(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testValidate_RejectsRelativeBaseURL)
}

func TestHelperParsers_DefaultOnBadInput(t *testing.T) {
	t.Setenv("CFG_TEST_INT", "not-an-int")
	t.Setenv("CFG_TEST_BOOL", "not-a-bool")
	t.Setenv("CFG_TEST_DUR", "not-a-duration")
	if got := parseIntOrDefault("CFG_TEST_INT", 7); got != 7 {
		t.Fatalf("parseIntOrDefault fallback mismatch: got=%d want=7", got)
	}
	if got := parseBoolOrDefault("CFG_TEST_BOOL", true); !got {
		t.Fatal("parseBoolOrDefault fallback mismatch: got=false want=true")
	}
	if got := parseDurationOrDefault("CFG_TEST_DUR", 2*time.Minute); got != 2*time.Minute {
		t.Fatalf("parseDurationOrDefault fallback mismatch: got=%v want=%v", got, 2*time.Minute)
	}
}
