// Package model defines the data structures for stfd's configuration, job descriptors and instrument state.
package model

type Config struct {
	PollIntervalMs              int               `yaml:"poll_interval_ms"`
	RunMode                     RunMode           `yaml:"run_mode"`
	InstrumentConnectTimeoutSec int               `yaml:"instrument_connect_timeout_sec"`
	Intake                      IntakeConfig      `yaml:"intake"`
	ServiceID                   string            `yaml:"service_id"`
	PasswordsEncrypted          *bool             `yaml:"passwords_encrypted"`
	SharedSecret                string            `yaml:"shared_secret"`
	FallbackCredentials         CredentialsConfig `yaml:"fallback_credentials"`
	Watch                       bool              `yaml:"watch"`
	ControlSocket               string            `yaml:"control_socket"`
	Daemon                      DaemonConfig      `yaml:"daemon"`
	Logging                     LoggingConfig     `yaml:"logging"`
}

type IntakeConfig struct {
	Directory string `yaml:"directory"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"` // AES-encrypted with shared_secret
	Domain    string `yaml:"domain"`
}

// CredentialsConfig is used when a job must be run under a different project
// than the one named in the descriptor header.
type CredentialsConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type DaemonConfig struct {
	ShutdownTimeoutSec int    `yaml:"shutdown_timeout_sec"`
	EventSource        string `yaml:"event_source"`
}

type LoggingConfig struct {
	Level         string `yaml:"level"`
	Stderr        bool   `yaml:"stderr"`
	AuditMaxBytes int64  `yaml:"audit_max_bytes"`
	// AuditChecksum stamps every audit entry with a checksum that
	// verify-audit checks.
	AuditChecksum bool `yaml:"audit_checksum"`
}

// EncryptedPasswords reports whether descriptor passwords arrive AES-encrypted.
func (c Config) EncryptedPasswords() bool {
	return c.PasswordsEncrypted != nil && *c.PasswordsEncrypted
}

// RunMode selects how a submitted sample set is executed by the instrument.
type RunMode string

const (
	RunOnly       RunMode = "run_only"
	RunAndProcess RunMode = "run_and_process"
	RunAndReport  RunMode = "run_and_report"
)

var validRunModes = map[RunMode]bool{
	RunOnly:       true,
	RunAndProcess: true,
	RunAndReport:  true,
}

func (m RunMode) Valid() bool {
	return validRunModes[m]
}
