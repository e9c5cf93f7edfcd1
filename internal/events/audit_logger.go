// Package events keeps the append-only audit trail of file and job outcomes.
package events

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	DefaultMaxLogSize = 10 * 1024 * 1024
	LogFileExtension  = ".jsonl"
	ArchiveDir        = "archive"
)

// Event types written by the poller.
const (
	EventPassStarted  = "pass_started"
	EventPassFinished = "pass_finished"
	EventFileOutcome  = "file_outcome"
	EventJobOutcome   = "job_outcome"
	EventNamingError  = "naming_error"
)

// LogEntry is one line of the audit trail.
type LogEntry struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	PassID    string            `json:"pass_id,omitempty"`
	File      string            `json:"file,omitempty"`
	OriginID  string            `json:"origin_id,omitempty"`
	Job       string            `json:"job,omitempty"`
	Route     string            `json:"route,omitempty"`
	State     string            `json:"state,omitempty"`
	Status    string            `json:"status,omitempty"`
	Report    string            `json:"report,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
	Checksum  string            `json:"checksum,omitempty"`
}

// Recorder accepts audit entries. A nil *AuditLogger is not a Recorder; use
// Discard instead.
type Recorder interface {
	Record(entry LogEntry) error
}

type discard struct{}

func (discard) Record(LogEntry) error { return nil }

// Discard drops every entry.
var Discard Recorder = discard{}

// AuditLogger appends entries to a JSONL file and rotates it into
// archive/ once it would grow past maxSize.
type AuditLogger struct {
	mu              sync.Mutex
	file            *os.File
	currentSize     int64
	maxSize         int64
	logPath         string
	enableChecksum  bool
	rotationCounter int
	now             func() time.Time
}

func NewAuditLogger(logPath string, maxSize int64) (*AuditLogger, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxLogSize
	}
	l := &AuditLogger{
		logPath: logPath,
		maxSize: maxSize,
		now:     time.Now,
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, fmt.Errorf("create audit log directory: %w", err)
	}
	if err := l.openLogFile(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *AuditLogger) openLogFile() error {
	file, err := os.OpenFile(l.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("stat audit log: %w", err)
	}
	l.file = file
	l.currentSize = stat.Size()
	return nil
}

// Record stamps entry and appends it. The file is synced after every entry.
func (l *AuditLogger) Record(entry LogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return fmt.Errorf("audit log %s is closed", l.logPath)
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = l.now().UTC()
	}
	if l.enableChecksum {
		entry.Checksum = checksum(entry)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}
	data = append(data, '\n')

	if l.currentSize > 0 && l.currentSize+int64(len(data)) > l.maxSize {
		if err := l.rotate(); err != nil {
			return fmt.Errorf("rotate audit log: %w", err)
		}
	}

	n, err := l.file.Write(data)
	if err != nil {
		return fmt.Errorf("write audit entry: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("sync audit log: %w", err)
	}
	l.currentSize += int64(n)
	return nil
}

func (l *AuditLogger) rotate() error {
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("close audit log: %w", err)
	}
	l.file = nil

	archiveDir := filepath.Join(filepath.Dir(l.logPath), ArchiveDir)
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return fmt.Errorf("create archive directory: %w", err)
	}

	l.rotationCounter++
	base := filepath.Base(l.logPath)
	stem := base[:len(base)-len(filepath.Ext(base))]
	archiveName := fmt.Sprintf("%s.%s.%d%s", stem, l.now().Format("20060102_150405"), l.rotationCounter, LogFileExtension)
	if err := os.Rename(l.logPath, filepath.Join(archiveDir, archiveName)); err != nil {
		return fmt.Errorf("archive audit log: %w", err)
	}
	return l.openLogFile()
}

// EnableChecksum adds a content checksum to every later entry.
func (l *AuditLogger) EnableChecksum(enable bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enableChecksum = enable
}

func checksum(entry LogEntry) string {
	entry.Checksum = ""
	data, err := json.Marshal(entry)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%x", djb2(data))
}

func djb2(data []byte) uint64 {
	var hash uint64 = 5381
	for _, b := range data {
		hash = ((hash << 5) + hash) + uint64(b)
	}
	return hash
}

// VerifyLogIntegrity returns the number of decodable entries in logPath and
// how many of them carry no checksum or a matching one.
func VerifyLogIntegrity(logPath string) (total, valid int, err error) {
	file, err := os.Open(logPath)
	if err != nil {
		return 0, 0, fmt.Errorf("open audit log: %w", err)
	}
	defer file.Close()

	dec := json.NewDecoder(file)
	for dec.More() {
		var entry LogEntry
		if err := dec.Decode(&entry); err != nil {
			return total, valid, fmt.Errorf("decode entry %d: %w", total+1, err)
		}
		total++
		if entry.Checksum == "" || entry.Checksum == checksum(entry) {
			valid++
		}
	}
	return total, valid, nil
}

func (l *AuditLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Sync()
	if cerr := l.file.Close(); err == nil {
		err = cerr
	}
	l.file = nil
	return err
}

func (l *AuditLogger) Path() string { return l.logPath }

func (l *AuditLogger) Size() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.currentSize
}
