//go:build !windows

package logging

type nopSink struct{}

// OpenEventSink returns a sink that drops messages; the event log only exists
// on Windows. Events still reach the log file.
func OpenEventSink(string) (EventSink, error) {
	return nopSink{}, nil
}

func (nopSink) Info(string) error    { return nil }
func (nopSink) Warning(string) error { return nil }
func (nopSink) Error(string) error   { return nil }
func (nopSink) Close() error         { return nil }
