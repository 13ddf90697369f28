// ABOUTME: Configuration loader for the migration planner service
// ABOUTME: Loads settings from an optional .env file and environment variables with defaults

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port               string
	CacheTTL           int      // seconds, for memoized simulation results (default 300)
	SessionTTL         int      // seconds, for planning sessions (default 3600)
	CORSAllowedOrigins []string // allowed CORS origins (empty = block all cross-origin)

	// Rate Limiting
	RateLimitEnabled bool // Enable rate limiting (default: true)
	RateLimitWrite   int  // Requests per minute for simulate/export/session writes (default: 30)
	RateLimitDefault int  // Requests per minute for all other endpoints (default: 100)

	// Inventory
	InventoryFile      string // optional YAML inventory of source servers and destinations
	InstanceNamePrefix string // prefix for generated instance names (default: SQLNOVA)
	ScanConcurrency    int    // parallel SQL Server probes (default: 4)

	// SQL Server (optional, enables live inventory)
	SQLServerUsername   string
	SQLServerPassword   string
	SQLServerDomainAuth bool   // use NTLM/domain authentication
	SQLServerEncrypt    string // disable, false, true, strict (default: true)
	SQLServerTimeout    time.Duration
	SQLServerAllProxy   string // ssh+socks5://user@jumpbox:22?private-key=/path

	// vSphere (optional, observed data disk counts)
	VSphereHost       string
	VSphereUsername   string
	VSpherePassword   string
	VSphereDatacenter string
	VSphereInsecure   bool

	// Disk geometry
	DiskTotalGB    float64
	DiskReservedGB float64
}

// VSphereConfigured returns true if vSphere credentials are set
func (c *Config) VSphereConfigured() bool {
	return c.VSphereHost != "" && c.VSphereUsername != "" && c.VSpherePassword != "" && c.VSphereDatacenter != ""
}

// SQLServerConfigured returns true if SQL Server credentials are set
func (c *Config) SQLServerConfigured() bool {
	return c.SQLServerUsername != "" && c.SQLServerPassword != ""
}

// Load reads ENV_FILE (default .env) when present, then builds the config from the environment.
// Variables already set in the environment win over the file.
func Load() (*Config, error) {
	envFile := getEnv("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	} else {
		slog.Debug("Loaded environment file", "path", envFile)
	}

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		CacheTTL:           getEnvInt("CACHE_TTL", 300),
		SessionTTL:         getEnvInt("SESSION_TTL", 3600),
		CORSAllowedOrigins: getEnvStringList("CORS_ALLOWED_ORIGINS"),

		RateLimitEnabled: getEnvBool("RATE_LIMIT_ENABLED", true),
		RateLimitWrite:   getEnvInt("RATE_LIMIT_WRITE", 30),
		RateLimitDefault: getEnvInt("RATE_LIMIT_DEFAULT", 100),

		InventoryFile:      os.Getenv("INVENTORY_FILE"),
		InstanceNamePrefix: strings.ToUpper(getEnv("INSTANCE_NAME_PREFIX", "SQLNOVA")),
		ScanConcurrency:    getEnvInt("SCAN_CONCURRENCY", 4),

		SQLServerUsername:   os.Getenv("SQLSERVER_USERNAME"),
		SQLServerPassword:   os.Getenv("SQLSERVER_PASSWORD"),
		SQLServerDomainAuth: getEnvBool("SQLSERVER_DOMAIN_AUTH", false),
		SQLServerEncrypt:    getEnv("SQLSERVER_ENCRYPT", "true"),
		SQLServerTimeout:    time.Duration(getEnvInt("SQLSERVER_TIMEOUT", 15)) * time.Second,
		SQLServerAllProxy:   os.Getenv("SQLSERVER_ALL_PROXY"),

		VSphereHost:       os.Getenv("VSPHERE_HOST"),
		VSphereUsername:   os.Getenv("VSPHERE_USERNAME"),
		VSpherePassword:   os.Getenv("VSPHERE_PASSWORD"),
		VSphereDatacenter: os.Getenv("VSPHERE_DATACENTER"),
		VSphereInsecure:   getEnvBool("VSPHERE_INSECURE", false),

		DiskTotalGB:    getEnvFloat("DISK_TOTAL_GB", 500),
		DiskReservedGB: getEnvFloat("DISK_RESERVED_GB", 50),
	}

	// Validate rate limit values
	for _, rl := range []struct {
		name  string
		value int
	}{
		{"RATE_LIMIT_WRITE", cfg.RateLimitWrite},
		{"RATE_LIMIT_DEFAULT", cfg.RateLimitDefault},
	} {
		if rl.value < 1 || rl.value > 10000 {
			return nil, fmt.Errorf("%s must be between 1 and 10000, got %d", rl.name, rl.value)
		}
	}

	if cfg.ScanConcurrency < 1 || cfg.ScanConcurrency > 64 {
		return nil, fmt.Errorf("SCAN_CONCURRENCY must be between 1 and 64, got %d", cfg.ScanConcurrency)
	}
	if cfg.DiskTotalGB <= 0 {
		return nil, fmt.Errorf("DISK_TOTAL_GB must be positive, got %g", cfg.DiskTotalGB)
	}
	if cfg.DiskReservedGB < 0 || cfg.DiskReservedGB >= cfg.DiskTotalGB {
		return nil, fmt.Errorf("DISK_RESERVED_GB must be between 0 and DISK_TOTAL_GB, got %g", cfg.DiskReservedGB)
	}
	if (cfg.SQLServerUsername == "") != (cfg.SQLServerPassword == "") {
		return nil, fmt.Errorf("SQLSERVER_USERNAME and SQLSERVER_PASSWORD must be set together")
	}
	switch cfg.SQLServerEncrypt {
	case "disable", "false", "true", "strict":
	default:
		return nil, fmt.Errorf("SQLSERVER_ENCRYPT must be one of disable, false, true, strict, got %q", cfg.SQLServerEncrypt)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvStringList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
