//go:build windows

package logging

import (
	"fmt"

	"golang.org/x/sys/windows/svc/eventlog"
)

const eventID = 1

type eventLogSink struct {
	log *eventlog.Log
}

// OpenEventSink opens the Windows Event Log for source, registering the source
// on first use.
func OpenEventSink(source string) (EventSink, error) {
	l, err := eventlog.Open(source)
	if err != nil {
		if ierr := eventlog.InstallAsEventCreate(source, eventlog.Error|eventlog.Warning|eventlog.Info); ierr != nil {
			return nil, fmt.Errorf("open event log %q: %w", source, err)
		}
		if l, err = eventlog.Open(source); err != nil {
			return nil, fmt.Errorf("open event log %q: %w", source, err)
		}
	}
	return &eventLogSink{log: l}, nil
}

func (s *eventLogSink) Info(msg string) error    { return s.log.Info(eventID, msg) }
func (s *eventLogSink) Warning(msg string) error { return s.log.Warning(eventID, msg) }
func (s *eventLogSink) Error(msg string) error   { return s.log.Error(eventID, msg) }
func (s *eventLogSink) Close() error             { return s.log.Close() }
