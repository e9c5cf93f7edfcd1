package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/msageha/stfd/internal/config"
	"github.com/msageha/stfd/internal/daemon"
	"github.com/msageha/stfd/internal/lock"
	"github.com/msageha/stfd/internal/uds"
)

// socketPath resolves --socket, then control_socket from the config, then
// the default next to the state.
func socketPath() string {
	if opts.Socket != "" {
		return opts.Socket
	}
	dir := stateDir()
	if cfg, err := config.Load(dir); err == nil && cfg.ControlSocket != "" {
		return cfg.ControlSocket
	}
	return filepath.Join(dir, uds.DefaultSocketName)
}

func call(cmd string, out any) error {
	return uds.NewClient(socketPath()).Call(cmd, nil, out)
}

type pingCommand struct{}

func (c *pingCommand) Execute([]string) error {
	var resp map[string]string
	if err := call(uds.CmdPing, &resp); err != nil {
		return err
	}
	fmt.Println(resp["status"])
	return nil
}

type scanCommand struct{}

func (c *scanCommand) Execute([]string) error {
	var detail *uds.ErrorDetail
	err := call(uds.CmdScan, nil)
	switch {
	case err == nil:
		fmt.Println("pass scheduled")
	case errors.As(err, &detail) && detail.Code == uds.ErrCodeBusy:
		fmt.Println(detail.Message)
	default:
		return err
	}
	return nil
}

type stopCommand struct{}

func (c *stopCommand) Execute([]string) error {
	if err := call(uds.CmdShutdown, nil); err != nil {
		return err
	}
	fmt.Println("shutdown requested")
	return nil
}

type statusCommand struct {
	JSON bool `long:"json" description:"Print the raw status document"`
}

func (c *statusCommand) Execute([]string) error {
	var st daemon.Status
	if err := call(uds.CmdStatus, &st); err != nil {
		return unreachable(stateDir(), err)
	}
	if c.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}
	printStatus(st)
	return nil
}

// unreachable explains a failed status call using the lock file, which names
// the service process while it runs.
func unreachable(dir string, err error) error {
	pid, lerr := lock.HolderPID(daemon.LockPath(dir))
	if lerr != nil {
		return fmt.Errorf("service is not running (%v)", err)
	}
	return fmt.Errorf("service pid %d holds the lock but does not answer on the control socket: %w", pid, err)
}

func printStatus(st daemon.Status) {
	state := "idle"
	if st.Busy {
		state = "processing"
	}
	fmt.Printf("pid:      %d\n", st.PID)
	fmt.Printf("intake:   %s\n", st.IntakeDir)
	fmt.Printf("state:    %s\n", state)
	fmt.Printf("passes:   %d (skipped %d)\n", st.Passes, st.Skipped)
	if st.LastError != "" {
		fmt.Printf("error:    %s\n", st.LastError)
	}
	last := st.LastPass
	if last == nil {
		return
	}
	fmt.Printf("last:     %s (%s)\n", last.Started.Format(time.RFC3339), last.Finished.Sub(last.Started).Round(time.Millisecond))
	fmt.Printf("seen:     %d, naming errors %d\n", last.Seen, last.NamingErrors)
	states := make([]string, 0, len(last.States))
	for s := range last.States {
		states = append(states, s)
	}
	sort.Strings(states)
	for _, s := range states {
		fmt.Printf("  %-22s %d\n", s, last.States[s])
	}
	for _, f := range last.Files {
		fmt.Printf("  %s: %s\n", f.Name, f.Report)
	}
}
