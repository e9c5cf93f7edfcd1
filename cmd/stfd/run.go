package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/msageha/stfd/internal/access"
	"github.com/msageha/stfd/internal/automation"
	"github.com/msageha/stfd/internal/automation/simulator"
	"github.com/msageha/stfd/internal/codec"
	"github.com/msageha/stfd/internal/config"
	"github.com/msageha/stfd/internal/daemon"
	"github.com/msageha/stfd/internal/events"
	"github.com/msageha/stfd/internal/intake"
	"github.com/msageha/stfd/internal/logging"
	"github.com/msageha/stfd/internal/model"
	"github.com/msageha/stfd/internal/reconcile"
	"github.com/msageha/stfd/internal/secret"
)

const shareConnectTimeout = 30 * time.Second

var errNoToolkit = errors.New("no instrument toolkit is linked into this build; use --simulate <seed.yaml>")

type runCommand struct {
	Simulate string `long:"simulate" value-name:"SEED" description:"Drive an in-memory instrument loaded from a YAML seed file"`
}

func (c *runCommand) Execute([]string) error {
	dir := stateDir()
	cfg, err := config.Load(dir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, closeLog, err := openLogger(dir, cfg.Logging)
	if err != nil {
		return err
	}
	defer closeLog()

	sink, err := logging.OpenEventSink(cfg.Daemon.EventSource)
	if err != nil {
		logger.Warnf("event sink unavailable: %v", err)
	} else {
		logger.SetSink(sink)
		defer sink.Close()
	}

	if err := serve(dir, cfg, c.Simulate, logger); err != nil {
		logger.Eventf(logging.LevelError, "STF service stopped: %v", err)
		return err
	}
	return nil
}

func serve(dir string, cfg model.Config, seed string, logger *logging.Logger) error {
	toolkit, err := loadToolkit(seed)
	if err != nil {
		return err
	}

	var cipher *secret.Cipher
	if cfg.SharedSecret != "" {
		if cipher, err = secret.New(cfg.SharedSecret); err != nil {
			return fmt.Errorf("shared secret: %w", err)
		}
	}

	share, err := openIntakeShare(cfg.Intake, cipher)
	if err != nil {
		return err
	}
	defer func() {
		if err := share.Close(); err != nil {
			logger.Warnf("release share: %v", err)
		}
	}()
	if err := access.CheckFolderAccess(cfg.Intake.Directory); err != nil {
		return err
	}

	audit, err := events.NewAuditLogger(auditPath(dir), cfg.Logging.AuditMaxBytes)
	if err != nil {
		return err
	}
	defer audit.Close()
	audit.EnableChecksum(cfg.Logging.AuditChecksum)

	// A nil *Cipher must not reach the codec as a non-nil interface.
	var dec codec.Decrypter
	if cipher != nil {
		dec = cipher
	}

	proc := daemon.NewProcessor(daemon.ProcessorConfig{
		Toolkit:        toolkit,
		Tracker:        intake.NewTracker(cfg.Intake.Directory, logger),
		Codec:          codec.New(dec, cfg.EncryptedPasswords(), logger),
		Audit:          audit,
		RunMode:        cfg.RunMode,
		ServiceID:      cfg.ServiceID,
		ConnectTimeout: time.Duration(cfg.InstrumentConnectTimeoutSec) * time.Second,
		Fallback:       fallbackCredentials(cfg.FallbackCredentials),
	}, logger)

	d := daemon.New(daemon.OptionsFromConfig(dir, cfg), proc, logger)
	logger.Eventf(logging.LevelInfo, "STF service [%s] started on %s", cfg.ServiceID, cfg.Intake.Directory)
	return runHost(d, logger)
}

func openLogger(dir string, cfg model.LoggingConfig) (*logging.Logger, func(), error) {
	logDir := filepath.Join(dir, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(logDir, "stfd.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	var w io.Writer = f
	if cfg.Stderr {
		w = io.MultiWriter(f, os.Stderr)
	}
	return logging.New(w, logging.ParseLevel(cfg.Level)), func() { f.Close() }, nil
}

func loadToolkit(seed string) (automation.Toolkit, error) {
	if seed == "" {
		return nil, errNoToolkit
	}
	sys, err := simulator.Load(seed)
	if err != nil {
		return nil, err
	}
	return sys, nil
}

func openIntakeShare(in model.IntakeConfig, cipher *secret.Cipher) (*access.Share, error) {
	if !config.IsNetworkPath(in.Directory) {
		return access.OpenShare(context.Background(), in.Directory, access.Credentials{}, nil)
	}
	if cipher == nil {
		return nil, errors.New("intake.password cannot be decrypted without shared_secret")
	}
	password, err := cipher.Decrypt(in.Password)
	if err != nil {
		return nil, fmt.Errorf("decrypt intake.password: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), shareConnectTimeout)
	defer cancel()
	return access.OpenShare(ctx, in.Directory, access.Credentials{
		Username: in.Username,
		Password: password,
		Domain:   in.Domain,
	}, nil)
}

func fallbackCredentials(c model.CredentialsConfig) *reconcile.Credentials {
	if c.Username == "" {
		return nil
	}
	return &reconcile.Credentials{Username: c.Username, Password: c.Password}
}

func auditPath(stateDir string) string {
	return filepath.Join(stateDir, "logs", "audit.jsonl")
}
