//go:build windows

package main

import (
	"context"

	"golang.org/x/sys/windows/svc"

	"github.com/msageha/stfd/internal/daemon"
	"github.com/msageha/stfd/internal/logging"
)

const serviceName = "stfd"

// runHost runs d under the service control manager when started by it, and
// as a console process otherwise.
func runHost(d *daemon.Daemon, logger *logging.Logger) error {
	isService, err := svc.IsWindowsService()
	if err != nil {
		return err
	}
	if !isService {
		return d.RunWithSignals()
	}
	h := &serviceHandler{d: d, logger: logger}
	if err := svc.Run(serviceName, h); err != nil {
		return err
	}
	return h.err
}

type serviceHandler struct {
	d      *daemon.Daemon
	logger *logging.Logger
	err    error
}

func (h *serviceHandler) Execute(_ []string, r <-chan svc.ChangeRequest, s chan<- svc.Status) (bool, uint32) {
	s <- svc.Status{State: svc.StartPending}
	done := make(chan error, 1)
	go func() { done <- h.d.Run(context.Background()) }()
	s <- svc.Status{State: svc.Running, Accepts: svc.AcceptStop | svc.AcceptShutdown}

	for {
		select {
		case err := <-done:
			s <- svc.Status{State: svc.StopPending}
			if err != nil {
				h.err = err
				return false, 1
			}
			return false, 0
		case c := <-r:
			switch c.Cmd {
			case svc.Interrogate:
				s <- c.CurrentStatus
			case svc.Stop, svc.Shutdown:
				h.logger.Eventf(logging.LevelInfo, "STF service stop requested")
				s <- svc.Status{State: svc.StopPending}
				h.d.Shutdown()
			}
		}
	}
}
