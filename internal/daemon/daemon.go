// Package daemon runs the intake poller: a ticker and an optional directory
// watcher trigger passes, a control socket reports on them.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/msageha/stfd/internal/lock"
	"github.com/msageha/stfd/internal/logging"
	"github.com/msageha/stfd/internal/model"
	"github.com/msageha/stfd/internal/uds"
)

const defaultShutdownTimeout = 30 * time.Second

// Passer runs one intake pass.
type Passer interface {
	RunPass(ctx context.Context) (PassSummary, error)
}

type Options struct {
	StateDir     string
	IntakeDir    string
	PollInterval time.Duration
	// Watch adds a directory watcher that requests a pass as soon as a new
	// file appears.
	Watch bool
	// SocketPath empty disables the control socket.
	SocketPath      string
	ShutdownTimeout time.Duration
}

// OptionsFromConfig derives Options from a validated config.
func OptionsFromConfig(stateDir string, cfg model.Config) Options {
	socket := cfg.ControlSocket
	if socket == "" {
		socket = filepath.Join(stateDir, uds.DefaultSocketName)
	}
	return Options{
		StateDir:        stateDir,
		IntakeDir:       cfg.Intake.Directory,
		PollInterval:    time.Duration(cfg.PollIntervalMs) * time.Millisecond,
		Watch:           cfg.Watch,
		SocketPath:      socket,
		ShutdownTimeout: time.Duration(cfg.Daemon.ShutdownTimeoutSec) * time.Second,
	}
}

// LockPath is the single-instance lock file under stateDir.
func LockPath(stateDir string) string {
	return filepath.Join(stateDir, "locks", "stfd.lock")
}

// Status is the answer to the status command.
type Status struct {
	PID       int          `json:"pid"`
	IntakeDir string       `json:"intake_dir"`
	Busy      bool         `json:"busy"`
	Passes    int          `json:"passes"`
	Skipped   int          `json:"skipped"`
	LastPass  *PassSummary `json:"last_pass,omitempty"`
	LastError string       `json:"last_error,omitempty"`
}

// Daemon is the long-running stfd service.
type Daemon struct {
	opts   Options
	passer Passer
	logger *logging.Logger

	fileLock *lock.FileLock
	server   *uds.Server

	busy    atomic.Bool
	trigger chan struct{}

	mu        sync.Mutex
	passes    int
	skipped   int
	lastPass  *PassSummary
	lastError string

	stop     chan struct{}
	shutdown sync.Once
}

func New(opts Options, passer Passer, logger *logging.Logger) *Daemon {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = defaultShutdownTimeout
	}
	logger = logger.WithComponent("daemon")
	d := &Daemon{
		opts:     opts,
		passer:   passer,
		logger:   logger,
		fileLock: lock.NewFileLock(LockPath(opts.StateDir)),
		trigger:  make(chan struct{}, 1),
		stop:     make(chan struct{}),
	}
	if opts.SocketPath != "" {
		d.server = uds.NewServer(opts.SocketPath, logger)
	}
	return d
}

// Run holds the single-instance lock and serves until ctx is done or
// Shutdown is called. The in-flight pass is given ShutdownTimeout to finish.
func (d *Daemon) Run(ctx context.Context) error {
	if d.opts.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", d.opts.PollInterval)
	}
	if err := d.fileLock.TryLock(); err != nil {
		return fmt.Errorf("daemon lock: %w", err)
	}
	defer d.fileLock.Unlock()
	d.logger.Infof("stfd starting pid=%d intake=%s interval=%s", os.Getpid(), d.opts.IntakeDir, d.opts.PollInterval)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-d.stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	var watcher *fsnotify.Watcher
	if d.opts.Watch {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("create fsnotify watcher: %w", err)
		}
		defer w.Close()
		if err := w.Add(d.opts.IntakeDir); err != nil {
			return fmt.Errorf("watch %s: %w", d.opts.IntakeDir, err)
		}
		watcher = w
	}

	if d.server != nil {
		d.registerHandlers()
		if err := d.server.Start(); err != nil {
			return fmt.Errorf("start control socket: %w", err)
		}
		defer d.server.Stop()
		d.logger.Infof("control socket listening on %s", d.server.Path())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return d.tickerLoop(gctx) })
	if watcher != nil {
		g.Go(func() error { return d.watchLoop(gctx, watcher) })
	}
	d.logger.Infof("stfd ready")

	errc := make(chan error, 1)
	go func() { errc <- g.Wait() }()

	select {
	case err := <-errc:
		return d.stopped(err)
	case <-gctx.Done():
	}
	d.logger.Infof("shutdown started")
	select {
	case err := <-errc:
		return d.stopped(err)
	case <-time.After(d.opts.ShutdownTimeout):
		d.logger.Warnf("shutdown timeout after %s, pass still running", d.opts.ShutdownTimeout)
		return nil
	}
}

func (d *Daemon) stopped(err error) error {
	if err != nil && !errors.Is(err, context.Canceled) {
		d.logger.Errorf("stopped: %v", err)
		return err
	}
	d.logger.Infof("stfd stopped")
	return nil
}

// Shutdown asks Run to stop. It is safe to call more than once and before
// Run.
func (d *Daemon) Shutdown() {
	d.shutdown.Do(func() { close(d.stop) })
}

func (d *Daemon) stopping() bool {
	select {
	case <-d.stop:
		return true
	default:
		return false
	}
}

// RunWithSignals runs until SIGINT or SIGTERM. A second signal exits the
// process immediately.
func (d *Daemon) RunWithSignals() error {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	go func() {
		sig, ok := <-sigCh
		if !ok {
			return
		}
		d.logger.Infof("received signal=%s, initiating graceful shutdown", sig)
		d.Shutdown()
		if _, ok := <-sigCh; ok {
			d.logger.Warnf("received second signal, forcing exit")
			os.Exit(1)
		}
	}()
	return d.Run(context.Background())
}

// tickerLoop runs a pass at start, on every tick and on every trigger.
func (d *Daemon) tickerLoop(ctx context.Context) error {
	ticker := time.NewTicker(d.opts.PollInterval)
	defer ticker.Stop()

	d.TryPass(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			d.TryPass(ctx)
		case <-d.trigger:
			d.TryPass(ctx)
		}
	}
}

// triggersPass reports whether event announces a new job file. Rename events
// carry the old name, so only creations count; a file renamed into the
// directory arrives as a Create of its new name.
func triggersPass(event fsnotify.Event) bool {
	return event.Has(fsnotify.Create) && strings.Contains(filepath.Base(event.Name), model.MarkerNew.Suffix())
}

func (d *Daemon) watchLoop(ctx context.Context, w *fsnotify.Watcher) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !triggersPass(event) {
				continue
			}
			d.logger.Debugf("fsnotify event=%s file=%s", event.Op, event.Name)
			d.TryPass(ctx)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			d.logger.Errorf("fsnotify error=%v", err)
		}
	}
}

// TryPass runs a pass unless one is already running. It reports whether a
// pass ran.
func (d *Daemon) TryPass(ctx context.Context) bool {
	if !d.busy.CompareAndSwap(false, true) {
		d.mu.Lock()
		d.skipped++
		d.mu.Unlock()
		d.logger.Debugf("pass already running, skipped")
		return false
	}
	defer d.busy.Store(false)

	sum, err := d.passer.RunPass(ctx)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.passes++
	d.lastPass = &sum
	d.lastError = ""
	if err != nil {
		d.lastError = err.Error()
		d.logger.Errorf("pass failed: %v", err)
	}
	return true
}

// RequestPass schedules a pass on the ticker loop. It returns false when a
// pass is running or already scheduled.
func (d *Daemon) RequestPass() bool {
	if d.busy.Load() {
		return false
	}
	select {
	case d.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

func (d *Daemon) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	st := Status{
		PID:       os.Getpid(),
		IntakeDir: d.opts.IntakeDir,
		Busy:      d.busy.Load(),
		Passes:    d.passes,
		Skipped:   d.skipped,
		LastError: d.lastError,
	}
	if d.lastPass != nil {
		last := *d.lastPass
		st.LastPass = &last
	}
	return st
}

func (d *Daemon) registerHandlers() {
	d.server.Handle(uds.CmdPing, func(*uds.Request) *uds.Response {
		return uds.SuccessResponse(map[string]string{"status": "ok"})
	})

	d.server.Handle(uds.CmdScan, func(*uds.Request) *uds.Response {
		if d.stopping() {
			return uds.ErrorResponse(uds.ErrCodeShuttingDown, "service is stopping")
		}
		if !d.RequestPass() {
			return uds.ErrorResponse(uds.ErrCodeBusy, "a pass is already running or scheduled")
		}
		return uds.SuccessResponse(map[string]string{"status": "scheduled"})
	})

	d.server.Handle(uds.CmdStatus, func(*uds.Request) *uds.Response {
		return uds.SuccessResponse(d.Status())
	})

	d.server.Handle(uds.CmdShutdown, func(*uds.Request) *uds.Response {
		d.logger.Infof("shutdown requested via control socket")
		d.Shutdown()
		return uds.SuccessResponse(map[string]string{"status": "shutdown_accepted"})
	})
}
