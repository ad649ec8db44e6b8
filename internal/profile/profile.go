package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is the configuration to start main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where cachewise stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string

	// DefaultTTL is the lifetime applied to cache entries stored without an
	// explicit TTL.
	DefaultTTL time.Duration
	// CleanupInterval is the period of the background reclamation cycle.
	CleanupInterval time.Duration
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads cache tuning configuration from CACHEWISE_* environment
// variables. Invalid values fall back to the defaults.
func (p *Profile) FromEnv() {
	if v := os.Getenv("CACHEWISE_DEFAULT_TTL"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil && seconds > 0 {
			p.DefaultTTL = time.Duration(seconds) * time.Second
		}
	}
	if v := os.Getenv("CACHEWISE_CLEANUP_INTERVAL"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			p.CleanupInterval = time.Duration(ms) * time.Millisecond
		}
	}
	p.Driver = getEnvOrDefault("CACHEWISE_DRIVER", p.Driver)
	if v := os.Getenv("CACHEWISE_DSN"); v != "" {
		p.DSN = v
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Driver != "sqlite" && p.Driver != "postgres" {
		p.Driver = "sqlite"
	}

	if p.DefaultTTL <= 0 {
		p.DefaultTTL = 300 * time.Second
	}
	if p.CleanupInterval <= 0 {
		p.CleanupInterval = 60 * time.Second
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "cachewise")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/cachewise"
		}
	}

	if p.Driver == "postgres" {
		if p.DSN == "" {
			return errors.New("dsn is required for postgres driver")
		}
		return nil
	}

	// The in-memory SQLite DSN needs no data directory.
	if p.DSN == ":memory:" {
		return nil
	}

	if p.DSN == "" {
		if p.Data == "" {
			p.Data = "."
		}
		dataDir, err := checkDataDir(p.Data)
		if err != nil {
			slog.Error("failed to check data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
			return err
		}
		p.Data = dataDir
		dbFile := fmt.Sprintf("cachewise_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	} else if dir := filepath.Dir(p.DSN); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0770); err != nil {
			return errors.Wrapf(err, "unable to create database directory %s", dir)
		}
	}

	return nil
}
