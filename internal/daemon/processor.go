package daemon

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/msageha/stfd/internal/automation"
	"github.com/msageha/stfd/internal/codec"
	"github.com/msageha/stfd/internal/events"
	"github.com/msageha/stfd/internal/intake"
	"github.com/msageha/stfd/internal/logging"
	"github.com/msageha/stfd/internal/model"
	"github.com/msageha/stfd/internal/reconcile"
)

type ProcessorConfig struct {
	Toolkit   automation.Toolkit
	Tracker   *intake.Tracker
	Codec     *codec.Codec
	Audit     events.Recorder
	RunMode   model.RunMode
	ServiceID string
	// ConnectTimeout <= 0 means automation.DefaultConnectTimeout.
	ConnectTimeout time.Duration
	Fallback       *reconcile.Credentials
}

// Processor runs intake passes. A pass handles every new file in the intake
// directory, oldest first, one at a time.
type Processor struct {
	toolkit        automation.Toolkit
	tracker        *intake.Tracker
	codec          *codec.Codec
	audit          events.Recorder
	runMode        model.RunMode
	serviceID      string
	connectTimeout time.Duration
	fallback       *reconcile.Credentials
	logger         *logging.Logger
}

func NewProcessor(cfg ProcessorConfig, logger *logging.Logger) *Processor {
	audit := cfg.Audit
	if audit == nil {
		audit = events.Discard
	}
	return &Processor{
		toolkit:        cfg.Toolkit,
		tracker:        cfg.Tracker,
		codec:          cfg.Codec,
		audit:          audit,
		runMode:        cfg.RunMode,
		serviceID:      cfg.ServiceID,
		connectTimeout: cfg.ConnectTimeout,
		fallback:       cfg.Fallback,
		logger:         logger.WithComponent("processor"),
	}
}

// FileResult is the outcome of one job file.
type FileResult struct {
	Name      string       `json:"name"`
	State     model.Marker `json:"state"`
	Status    string       `json:"status,omitempty"`
	Report    string       `json:"report,omitempty"`
	Jobs      int          `json:"jobs"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Skipped   bool         `json:"skipped,omitempty"`
}

type PassSummary struct {
	PassID       string         `json:"pass_id"`
	Started      time.Time      `json:"started"`
	Finished     time.Time      `json:"finished"`
	Seen         int            `json:"seen"`
	NamingErrors int            `json:"naming_errors"`
	States       map[string]int `json:"states"`
	Interrupted  bool           `json:"interrupted,omitempty"`
	Files        []FileResult   `json:"files,omitempty"`
}

// RunPass processes the new files present at the start of the pass. ctx is
// checked between files only, so a file is never left locked by a stop.
func (p *Processor) RunPass(ctx context.Context) (sum PassSummary, err error) {
	sum = PassSummary{
		PassID:  uuid.NewString(),
		Started: time.Now(),
		States:  make(map[string]int),
	}
	defer func() { sum.Finished = time.Now() }()

	files, namingErrs, err := p.tracker.ScanNewFiles()
	if err != nil {
		return sum, err
	}
	sum.Seen = len(files)
	sum.NamingErrors = len(namingErrs)
	for _, nerr := range namingErrs {
		p.logger.Eventf(logging.LevelError, "%v", nerr)
		var ne *intake.NamingError
		entry := events.LogEntry{EventType: events.EventNamingError, PassID: sum.PassID, Report: nerr.Error()}
		if errors.As(nerr, &ne) {
			entry.File = ne.Name
		}
		p.record(entry)
	}
	if len(files) == 0 {
		return sum, nil
	}

	p.logger.Infof("pass %s: %d new file(s)", sum.PassID, len(files))
	p.record(events.LogEntry{EventType: events.EventPassStarted, PassID: sum.PassID, Details: map[string]string{"files": fmt.Sprint(len(files))}})

	for _, f := range files {
		if ctx.Err() != nil {
			sum.Interrupted = true
			p.logger.Infof("pass %s: stop requested, %d file(s) left for the next start", sum.PassID, len(files)-len(sum.Files))
			break
		}
		res := p.processFile(ctx, f, sum.PassID)
		sum.Files = append(sum.Files, res)
		sum.States[string(res.State)]++
	}

	p.record(events.LogEntry{EventType: events.EventPassFinished, PassID: sum.PassID, Details: stateDetails(sum.States)})
	return sum, nil
}

func stateDetails(states map[string]int) map[string]string {
	out := make(map[string]string, len(states))
	for k, v := range states {
		out[k] = fmt.Sprint(v)
	}
	return out
}

func (p *Processor) record(e events.LogEntry) {
	if err := p.audit.Record(e); err != nil {
		p.logger.Warnf("audit: %v", err)
	}
}

func (p *Processor) processFile(ctx context.Context, f *intake.JobFile, passID string) (res FileResult) {
	res = FileResult{Name: f.Name(), State: f.State}

	defer func() {
		if r := recover(); r != nil {
			p.logger.Eventf(logging.LevelError, "File %s: internal error: %v", f.Name(), r)
			p.logger.Errorf("%s", debug.Stack())
			if f.State == model.MarkerLocked {
				p.move(f, model.MarkerError)
			}
			res.State = f.State
			res.Status = model.OutcomeFailed
			res.Report = fmt.Sprintf("internal error: %v", r)
		}
		p.record(events.LogEntry{
			EventType: events.EventFileOutcome,
			PassID:    passID,
			File:      f.Name(),
			OriginID:  f.OriginID,
			State:     string(res.State),
			Status:    res.Status,
			Report:    res.Report,
		})
	}()

	if _, err := p.tracker.Transition(f, model.MarkerNew, model.MarkerLocked); err != nil {
		// Taken by another reader or withdrawn by the producer.
		p.logger.Warnf("skip %s: %v", f.Name(), err)
		res.Skipped = true
		return res
	}
	p.logger.Infof("locked %s", f.Name())

	desc, err := p.codec.Deserialize(f.Path())
	if err != nil {
		p.logger.Eventf(logging.LevelError, "File %s could not be deserialized: %v", f.Name(), err)
		p.move(f, model.MarkerErrorDeserialization)
		res.State = f.State
		res.Status = model.OutcomeFailed
		res.Report = err.Error()
		return res
	}

	out := p.apply(ctx, f, desc, passID)
	res.Jobs, res.Succeeded, res.Failed = out.jobs, out.succeeded, out.failed
	res.Status, res.Report = out.status, out.report

	if desc.TrailerReport == nil {
		desc.TrailerReport = &model.Trailer{}
	}
	desc.TrailerReport.SetResult(out.status, out.report)

	target := model.MarkerProcessed
	if !out.processed {
		target = model.MarkerError
		p.logger.Eventf(logging.LevelError, "File %s: %s", f.Name(), out.report)
	}
	if err := p.writeBack(f, desc); err != nil {
		p.logger.Eventf(logging.LevelError, "File %s: write back failed: %v", f.Name(), err)
		target = model.MarkerError
	}
	p.move(f, target)
	res.State = f.State
	p.logger.Infof("%s: %s", f.Name(), out.report)
	return res
}

func (p *Processor) writeBack(f *intake.JobFile, desc *model.Descriptor) error {
	content, err := p.codec.Serialize(desc)
	if err != nil {
		return err
	}
	return p.tracker.Save(f, content)
}

// move takes a locked file to its final marker. A failure leaves the file
// locked for an operator to inspect.
func (p *Processor) move(f *intake.JobFile, to model.Marker) {
	if _, err := p.tracker.Transition(f, model.MarkerLocked, to); err != nil {
		p.logger.Eventf(logging.LevelError, "File %s: cannot move to %s: %v", f.Name(), to, err)
	}
}

type fileOutcome struct {
	processed bool
	status    string
	report    string
	jobs      int
	succeeded int
	failed    int
}

func notProcessed(format string, args ...any) fileOutcome {
	return fileOutcome{status: model.OutcomeFailed, report: "File not processed - " + fmt.Sprintf(format, args...)}
}

// AuditComment is attached to audit trail entries and to the comments of
// every method saved on behalf of originID.
func AuditComment(serviceID, originID string) string {
	return fmt.Sprintf("STF service [%s] automatic action following Integrator [%s] command", serviceID, originID)
}

// apply validates desc and runs every job against the instrument named in
// its header.
func (p *Processor) apply(ctx context.Context, f *intake.JobFile, desc *model.Descriptor, passID string) fileOutcome {
	if err := codec.Validate(desc); err != nil {
		return notProcessed("validation failure: %v", err)
	}
	h := desc.HeaderFields
	comment := AuditComment(p.serviceID, f.OriginID)

	home := automation.Login{
		Database: h.EmpowerDatabase,
		Project:  h.EmpowerProject,
		Username: h.EmpowerUn,
		Password: h.Password(),
	}
	project := p.toolkit.NewProject()
	if err := project.Login(home); err != nil {
		return notProcessed("login failure: %s", automation.Reason(err))
	}
	defer func() {
		if err := project.Logoff(); err != nil {
			p.logger.Warnf("logoff %s: %v", h.EmpowerProject, err)
		}
	}()
	project.SetAuditComment(comment)

	// A stop must not interrupt a file half way; the connection wait
	// is bounded by its own timeout.
	inst := p.toolkit.NewInstrument()
	defer func() {
		if err := inst.Disconnect(); err != nil {
			p.logger.Warnf("disconnect %s@%s: %v", h.System, h.Node, err)
		}
	}()
	if err := automation.WaitForConnection(context.WithoutCancel(ctx), inst, h.Node, h.System, p.connectTimeout); err != nil {
		return notProcessed("Cannot connect to system. Error: %s", automation.Reason(err))
	}
	queue, err := inst.QueueEntries()
	if err != nil {
		return notProcessed("Cannot read the queue of %s@%s. Error: %s", h.System, h.Node, automation.Reason(err))
	}

	engine := reconcile.NewEngine(reconcile.EngineConfig{
		Project:    project,
		Instrument: inst,
		Session:    reconcile.NewSession(project, home, p.fallback, p.logger),
		RunMode:    p.runMode,
		Comment:    comment,
	}, p.logger)

	out := fileOutcome{processed: true, status: model.OutcomeCompleted, jobs: len(desc.SampleSetDetails)}
	for _, job := range desc.SampleSetDetails {
		res, err := engine.Process(job, queue)
		if err != nil {
			return notProcessed("%v", err)
		}
		job.SetResult(res.Status, res.Report)
		if res.Succeeded() {
			out.succeeded++
		} else {
			out.failed++
		}
		p.record(events.LogEntry{
			EventType: events.EventJobOutcome,
			PassID:    passID,
			File:      f.Name(),
			OriginID:  f.OriginID,
			Job:       job.Name,
			Route:     res.Route.String(),
			Status:    res.Status,
			Report:    res.Report,
		})
	}
	out.report = fmt.Sprintf("File completed '%d' ssm processed, %d succeeded, %d failed.", out.jobs, out.succeeded, out.failed)
	return out
}
