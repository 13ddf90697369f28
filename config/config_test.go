// ABOUTME: Tests for configuration loading
// ABOUTME: Covers defaults, overrides, .env files, and validation errors

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Cleanup(withCleanEnv(t, nil))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Port)
	}
	if cfg.CacheTTL != 300 {
		t.Errorf("Expected CacheTTL 300, got %d", cfg.CacheTTL)
	}
	if cfg.SessionTTL != 3600 {
		t.Errorf("Expected SessionTTL 3600, got %d", cfg.SessionTTL)
	}
	if !cfg.RateLimitEnabled {
		t.Error("Expected rate limiting enabled by default")
	}
	if cfg.RateLimitWrite != 30 || cfg.RateLimitDefault != 100 {
		t.Errorf("Expected rate limits 30/100, got %d/%d", cfg.RateLimitWrite, cfg.RateLimitDefault)
	}
	if cfg.InstanceNamePrefix != "SQLNOVA" {
		t.Errorf("Expected prefix SQLNOVA, got %s", cfg.InstanceNamePrefix)
	}
	if cfg.ScanConcurrency != 4 {
		t.Errorf("Expected ScanConcurrency 4, got %d", cfg.ScanConcurrency)
	}
	if cfg.SQLServerTimeout != 15*time.Second {
		t.Errorf("Expected SQLServerTimeout 15s, got %s", cfg.SQLServerTimeout)
	}
	if cfg.SQLServerEncrypt != "true" {
		t.Errorf("Expected SQLServerEncrypt true, got %s", cfg.SQLServerEncrypt)
	}
	if cfg.DiskTotalGB != 500 || cfg.DiskReservedGB != 50 {
		t.Errorf("Expected 500/50 GB disks, got %g/%g", cfg.DiskTotalGB, cfg.DiskReservedGB)
	}
	if cfg.SQLServerConfigured() {
		t.Error("Expected SQL Server not configured")
	}
	if cfg.VSphereConfigured() {
		t.Error("Expected vSphere not configured")
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Cleanup(withCleanEnv(t, map[string]string{
		"PORT":                 "9090",
		"INSTANCE_NAME_PREFIX": "dbnova",
		"CORS_ALLOWED_ORIGINS": "http://a.test, http://b.test,",
		"SQLSERVER_USERNAME":   "scanner",
		"SQLSERVER_PASSWORD":   "secret",
		"SQLSERVER_TIMEOUT":    "5",
		"SCAN_CONCURRENCY":     "8",
		"DISK_TOTAL_GB":        "1000",
		"DISK_RESERVED_GB":     "100",
	}))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Port)
	}
	if cfg.InstanceNamePrefix != "DBNOVA" {
		t.Errorf("Expected upper-cased prefix DBNOVA, got %s", cfg.InstanceNamePrefix)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "http://b.test" {
		t.Errorf("Expected 2 trimmed origins, got %v", cfg.CORSAllowedOrigins)
	}
	if !cfg.SQLServerConfigured() {
		t.Error("Expected SQL Server configured")
	}
	if cfg.SQLServerTimeout != 5*time.Second {
		t.Errorf("Expected 5s timeout, got %s", cfg.SQLServerTimeout)
	}
	if cfg.ScanConcurrency != 8 {
		t.Errorf("Expected ScanConcurrency 8, got %d", cfg.ScanConcurrency)
	}
	if cfg.DiskTotalGB != 1000 || cfg.DiskReservedGB != 100 {
		t.Errorf("Expected 1000/100 GB disks, got %g/%g", cfg.DiskTotalGB, cfg.DiskReservedGB)
	}
}

func TestLoadConfig_EnvFile(t *testing.T) {
	t.Cleanup(withCleanEnv(t, map[string]string{"PORT": "7070"}))

	path := filepath.Join(t.TempDir(), "test.env")
	content := "PORT=6060\nSCAN_CONCURRENCY=2\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write env file: %v", err)
	}
	os.Setenv("ENV_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// Existing environment wins over the file
	if cfg.Port != "7070" {
		t.Errorf("Expected port 7070 from environment, got %s", cfg.Port)
	}
	if cfg.ScanConcurrency != 2 {
		t.Errorf("Expected ScanConcurrency 2 from file, got %d", cfg.ScanConcurrency)
	}
}

func TestLoadConfig_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"rate limit too low", map[string]string{"RATE_LIMIT_DEFAULT": "0"}},
		{"rate limit too high", map[string]string{"RATE_LIMIT_WRITE": "20000"}},
		{"scan concurrency zero", map[string]string{"SCAN_CONCURRENCY": "0"}},
		{"reserved exceeds total", map[string]string{"DISK_TOTAL_GB": "100", "DISK_RESERVED_GB": "100"}},
		{"negative total", map[string]string{"DISK_TOTAL_GB": "-1"}},
		{"username without password", map[string]string{"SQLSERVER_USERNAME": "scanner"}},
		{"invalid encrypt", map[string]string{"SQLSERVER_ENCRYPT": "maybe"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Cleanup(withCleanEnv(t, tt.env))

			if _, err := Load(); err == nil {
				t.Error("Expected validation error, got nil")
			}
		})
	}
}

func TestGetEnvFloat_InvalidFallsBack(t *testing.T) {
	t.Cleanup(withCleanEnv(t, map[string]string{"DISK_TOTAL_GB": "lots"}))

	if got := getEnvFloat("DISK_TOTAL_GB", 500); got != 500 {
		t.Errorf("Expected fallback 500, got %g", got)
	}
}
