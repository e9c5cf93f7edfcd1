// Package automation declares the instrument and project operations stfd
// needs from the chromatography data system toolkit.
package automation

import (
	"errors"
	"fmt"

	"github.com/msageha/stfd/internal/model"
)

//go:generate mockgen -destination=../mocks/automation_mock/automation_mock.go -package=automation_mock github.com/msageha/stfd/internal/automation Project,Instrument,Toolkit

// Login identifies a project session.
type Login struct {
	Database string
	Project  string
	Username string
	Password string
	UserType string
}

// Project is a logged-in project session.
type Project interface {
	Login(l Login) error
	Logoff() error
	// SetAuditComment sets the comment attached to audit trail entries
	// created by this session.
	SetAuditComment(comment string)
	// MethodByName returns nil, nil when no method of that name exists.
	MethodByName(name string) (*model.MethodDetails, error)
	SampleLines(methodID int) ([]model.MethodLine, error)
	SaveMethodAndLines(details model.MethodDetails, lines []model.MethodLine) error
}

// Instrument is a connection to one acquisition system.
type Instrument interface {
	Connect(node, system string) error
	Disconnect() error
	ConnectionDone() bool
	ConnectionSucceeded() bool
	QueueEntries() ([]model.QueueEntry, error)
	Run(methodName, outputName string, mode model.RunMode) error
	ReplaceCurrentJob(methodName string) error
	RemoveFromQueue(jobID int) error
	Pause(seconds int) error
	// CurrentLineIndex returns the index of the line being executed by the
	// running job. ok is false when nothing is running.
	CurrentLineIndex() (index int, ok bool, err error)
}

// Toolkit creates sessions. One project and one instrument are used per file.
type Toolkit interface {
	NewProject() Project
	NewInstrument() Instrument
}

// CallError wraps any failure reported by the toolkit.
type CallError struct {
	Op  string
	Err error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// Reason returns the toolkit's own message for err, without the operation
// prefix, for use in reports.
func Reason(err error) string {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Err.Error()
	}
	return err.Error()
}

// Wrap returns nil for a nil err.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &CallError{Op: op, Err: err}
}
