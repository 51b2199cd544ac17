package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGetEnv(t *testing.T) {
	result := GetEnv("TEST_NONEXISTENT_VAR", "default")
	if result != "default" {
		t.Errorf("Expected 'default', got %q", result)
	}

	os.Setenv("TEST_GET_ENV", "custom")
	defer os.Unsetenv("TEST_GET_ENV")

	result = GetEnv("TEST_GET_ENV", "default")
	if result != "custom" {
		t.Errorf("Expected 'custom', got %q", result)
	}
}

func TestGetIntEnv(t *testing.T) {
	if got := GetIntEnv("TEST_NONEXISTENT_INT", 42); got != 42 {
		t.Errorf("Expected 42, got %d", got)
	}

	os.Setenv("TEST_INT_ENV", "123")
	defer os.Unsetenv("TEST_INT_ENV")
	if got := GetIntEnv("TEST_INT_ENV", 42); got != 123 {
		t.Errorf("Expected 123, got %d", got)
	}

	os.Setenv("TEST_INVALID_INT", "not-a-number")
	defer os.Unsetenv("TEST_INVALID_INT")
	if got := GetIntEnv("TEST_INVALID_INT", 42); got != 42 {
		t.Errorf("Expected 42 for invalid int, got %d", got)
	}
}

func TestGetDurationEnv(t *testing.T) {
	if got := GetDurationEnv("TEST_NONEXISTENT_DURATION", 5*time.Second); got != 5*time.Second {
		t.Errorf("Expected 5s, got %v", got)
	}

	os.Setenv("TEST_DURATION_ENV", "250ms")
	defer os.Unsetenv("TEST_DURATION_ENV")
	if got := GetDurationEnv("TEST_DURATION_ENV", 5*time.Second); got != 250*time.Millisecond {
		t.Errorf("Expected 250ms, got %v", got)
	}
}

func TestGetSecretFile(t *testing.T) {
	if got := GetSecretFile(""); got != "" {
		t.Errorf("Expected empty string for empty path, got %q", got)
	}
	if got := GetSecretFile("/nonexistent/secret"); got != "" {
		t.Errorf("Expected empty string for missing file, got %q", got)
	}

	path := filepath.Join(t.TempDir(), "secret")
	if err := os.WriteFile(path, []byte("  hunter2\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if got := GetSecretFile(path); got != "hunter2" {
		t.Errorf("Expected trimmed secret, got %q", got)
	}
}

func TestLoadServiceConfig(t *testing.T) {
	svc := LoadServiceConfig()
	if svc.MetricsPort != 0 {
		t.Errorf("Expected metrics disabled by default, got port %d", svc.MetricsPort)
	}
	if svc.ShutdownTimeout != 5*time.Second {
		t.Errorf("Expected 5s default shutdown timeout, got %v", svc.ShutdownTimeout)
	}

	t.Setenv("METRICS_PORT", "9090")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	svc = LoadServiceConfig()
	if svc.MetricsPort != 9090 {
		t.Errorf("Expected port 9090, got %d", svc.MetricsPort)
	}
	if svc.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected 30s shutdown timeout, got %v", svc.ShutdownTimeout)
	}
}
