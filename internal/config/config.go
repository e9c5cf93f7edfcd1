// Package config loads and validates the stfd configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/msageha/stfd/internal/model"
)

const (
	FileName = "config.yaml"

	defaultConnectTimeoutSec  = 4
	defaultShutdownTimeoutSec = 30
	defaultEventSource        = "STF Service"
	defaultAuditMaxBytes      = 10 * 1024 * 1024
)

// Load reads <stateDir>/config.yaml, applies STF_* environment overrides and
// returns a validated configuration.
func Load(stateDir string) (model.Config, error) {
	return LoadFile(filepath.Join(stateDir, FileName))
}

func LoadFile(path string) (model.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Config{}, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	var cfg model.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return model.Config{}, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := Validate(cfg); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

// Validate reports the first missing or invalid key.
func Validate(c model.Config) error {
	if c.PollIntervalMs <= 0 {
		return fmt.Errorf("poll_interval_ms is required and must be positive")
	}
	if c.RunMode == "" {
		return fmt.Errorf("run_mode is required")
	}
	if !c.RunMode.Valid() {
		return fmt.Errorf("run_mode must be one of run_only, run_and_process, run_and_report; got %q", c.RunMode)
	}
	if strings.TrimSpace(c.Intake.Directory) == "" {
		return fmt.Errorf("intake.directory is required")
	}
	if IsNetworkPath(c.Intake.Directory) && (c.Intake.Username == "" || c.Intake.Password == "") {
		return fmt.Errorf("intake.username and intake.password are required for network directory %q", c.Intake.Directory)
	}
	if strings.TrimSpace(c.ServiceID) == "" {
		return fmt.Errorf("service_id is required")
	}
	if c.PasswordsEncrypted == nil {
		return fmt.Errorf("passwords_encrypted is required")
	}
	needSecret := c.EncryptedPasswords() || c.Intake.Password != ""
	if needSecret && c.SharedSecret == "" {
		return fmt.Errorf("shared_secret is required when encrypted passwords are used")
	}
	if (c.FallbackCredentials.Username == "") != (c.FallbackCredentials.Password == "") {
		return fmt.Errorf("fallback_credentials needs both username and password")
	}
	return nil
}

// IsNetworkPath reports whether dir is a UNC share path.
func IsNetworkPath(dir string) bool {
	return strings.HasPrefix(dir, `\\`) || strings.HasPrefix(dir, "//")
}

func applyDefaults(c *model.Config) {
	if c.InstrumentConnectTimeoutSec <= 0 {
		c.InstrumentConnectTimeoutSec = defaultConnectTimeoutSec
	}
	if c.Daemon.ShutdownTimeoutSec <= 0 {
		c.Daemon.ShutdownTimeoutSec = defaultShutdownTimeoutSec
	}
	if c.Daemon.EventSource == "" {
		c.Daemon.EventSource = defaultEventSource
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.AuditMaxBytes <= 0 {
		c.Logging.AuditMaxBytes = defaultAuditMaxBytes
	}
}

func applyEnv(c *model.Config) {
	c.PollIntervalMs = envInt("STF_POLL_INTERVAL_MS", c.PollIntervalMs)
	c.RunMode = model.RunMode(envString("STF_RUN_MODE", string(c.RunMode)))
	c.InstrumentConnectTimeoutSec = envInt("STF_INSTRUMENT_CONNECT_TIMEOUT_SEC", c.InstrumentConnectTimeoutSec)
	c.Intake.Directory = envString("STF_INTAKE_DIRECTORY", c.Intake.Directory)
	c.Intake.Username = envString("STF_INTAKE_USERNAME", c.Intake.Username)
	c.Intake.Password = envString("STF_INTAKE_PASSWORD", c.Intake.Password)
	c.Intake.Domain = envString("STF_INTAKE_DOMAIN", c.Intake.Domain)
	c.ServiceID = envString("STF_SERVICE_ID", c.ServiceID)
	c.SharedSecret = envString("STF_SHARED_SECRET", c.SharedSecret)
	c.Logging.Level = envString("STF_LOG_LEVEL", c.Logging.Level)
	if v, ok := envBool("STF_PASSWORDS_ENCRYPTED"); ok {
		c.PasswordsEncrypted = &v
	}
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envBool(key string) (bool, bool) {
	v := os.Getenv(key)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}
