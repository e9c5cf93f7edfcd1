//go:build !windows

package main

import (
	"github.com/msageha/stfd/internal/daemon"
	"github.com/msageha/stfd/internal/logging"
)

func runHost(d *daemon.Daemon, _ *logging.Logger) error {
	return d.RunWithSignals()
}
