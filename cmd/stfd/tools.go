package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/msageha/stfd/internal/codec"
	"github.com/msageha/stfd/internal/config"
	"github.com/msageha/stfd/internal/events"
	"github.com/msageha/stfd/internal/intake"
	"github.com/msageha/stfd/internal/logging"
	"github.com/msageha/stfd/internal/secret"
)

type encryptCommand struct {
	Secret string `long:"secret" env:"STF_SHARED_SECRET" description:"Shared secret (default: shared_secret from config)"`
	Args   struct {
		Password string `positional-arg-name:"PASSWORD" description:"Password to encrypt; read from stdin when omitted"`
	} `positional-args:"yes"`
}

func (c *encryptCommand) Execute([]string) error {
	sharedSecret := c.Secret
	if sharedSecret == "" {
		cfg, err := config.Load(stateDir())
		if err != nil {
			return fmt.Errorf("no --secret given and %w", err)
		}
		sharedSecret = cfg.SharedSecret
	}
	password := c.Args.Password
	if password == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return err
		}
		password = strings.TrimRight(string(data), "\r\n")
	}
	out, err := encryptPassword(sharedSecret, password)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func encryptPassword(sharedSecret, password string) (string, error) {
	if password == "" {
		return "", errors.New("password is empty")
	}
	c, err := secret.New(sharedSecret)
	if err != nil {
		return "", err
	}
	return c.Encrypt(password)
}

type submitCommand struct {
	Origin string `long:"origin" required:"yes" description:"Origin (integrator) id"`
	Job    string `long:"job" required:"yes" description:"Origin job id"`
	Dir    string `long:"dir" value-name:"DIR" description:"Intake directory (default: intake.directory from config)"`
	Force  bool   `long:"force" description:"Submit even if the job file does not validate"`
	Args   struct {
		File string `positional-arg-name:"FILE" required:"yes" description:"Job file to submit"`
	} `positional-args:"yes" required:"yes"`
}

func (c *submitCommand) Execute([]string) error {
	dir := c.Dir
	if dir == "" {
		cfg, err := config.Load(stateDir())
		if err != nil {
			return fmt.Errorf("no --dir given and %w", err)
		}
		dir = cfg.Intake.Directory
	}
	data, err := os.ReadFile(c.Args.File)
	if err != nil {
		return err
	}
	name, err := submit(dir, c.Origin, c.Job, data, time.Now(), c.Force)
	if err != nil {
		return err
	}
	fmt.Println(name)
	return nil
}

// submit checks data and writes it under a new job file name in dir. The
// descriptor is decoded without decryption, so encrypted passwords pass
// through untouched.
func submit(dir, origin, job string, data []byte, now time.Time, force bool) (string, error) {
	for _, tok := range []string{origin, job} {
		if tok == "" || strings.ContainsAny(tok, `_./\`) {
			return "", fmt.Errorf("origin and job ids must be non-empty and free of '_', '.' and path separators, got %q", tok)
		}
	}
	desc, err := codec.New(nil, false, logging.Discard()).Decode(data)
	if err != nil {
		return "", err
	}
	if err := codec.Validate(desc); err != nil && !force {
		return "", fmt.Errorf("job file does not validate: %w", err)
	}

	name := intake.FormatName(origin, job, now)
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("%s already exists", name)
	}
	if err := intake.AtomicWrite(path, data); err != nil {
		return "", err
	}
	return name, nil
}

type verifyAuditCommand struct {
	Args struct {
		File string `positional-arg-name:"FILE" description:"Audit log to check (default: logs/audit.jsonl under the state directory)"`
	} `positional-args:"yes"`
}

func (c *verifyAuditCommand) Execute([]string) error {
	path := c.Args.File
	if path == "" {
		path = auditPath(stateDir())
	}
	summary, err := verifyAudit(path)
	if err != nil {
		return err
	}
	fmt.Println(summary)
	return nil
}

// verifyAudit fails when any entry of the audit log at path carries a
// checksum that does not match its content.
func verifyAudit(path string) (string, error) {
	total, valid, err := events.VerifyLogIntegrity(path)
	if err != nil {
		return "", err
	}
	if valid < total {
		return "", fmt.Errorf("%s: %d of %d entries fail their checksum", path, total-valid, total)
	}
	return fmt.Sprintf("%s: %d entries verified", path, total), nil
}
