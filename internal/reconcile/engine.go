package reconcile

import (
	"errors"
	"fmt"

	"github.com/msageha/stfd/internal/automation"
	"github.com/msageha/stfd/internal/logging"
	"github.com/msageha/stfd/internal/merge"
	"github.com/msageha/stfd/internal/model"
)

// PauseSeconds is how long a running job is paused while its remaining
// lines are replaced.
const PauseSeconds = 60

// ErrNoNewWork means an update carried no injection lines beyond those the
// stored method already has.
var ErrNoNewWork = errors.New("no new inject lines")

// Outcome is the result of one job. Report is written back into the
// descriptor.
type Outcome struct {
	Route  RouteKind
	Status string
	Report string
	Err    error
}

func (o Outcome) Succeeded() bool { return o.Status == model.OutcomeCompleted }

func succeeded(route RouteKind, report string) Outcome {
	return Outcome{Route: route, Status: model.OutcomeCompleted, Report: report}
}

func failed(route RouteKind, report string, err error) Outcome {
	return Outcome{Route: route, Status: model.OutcomeFailed, Report: report, Err: err}
}

type EngineConfig struct {
	Project    automation.Project
	Instrument automation.Instrument
	Session    *Session
	RunMode    model.RunMode
	// Comment is appended to the comments of every saved method.
	Comment string
}

// Engine applies the jobs of one descriptor. It is bound to one login and one
// instrument connection and is not safe for concurrent use.
type Engine struct {
	project automation.Project
	inst    automation.Instrument
	session *Session
	runMode model.RunMode
	comment string
	logger  *logging.Logger
}

func NewEngine(cfg EngineConfig, logger *logging.Logger) *Engine {
	return &Engine{
		project: cfg.Project,
		inst:    cfg.Instrument,
		session: cfg.Session,
		runMode: cfg.RunMode,
		comment: cfg.Comment,
		logger:  logger.WithComponent("reconcile"),
	}
}

// Process applies one job against the queue snapshot. Toolkit failures are
// reported in the Outcome; the error return is reserved for conditions that
// must abort the whole descriptor.
func (e *Engine) Process(job *model.JobSpec, queue []model.QueueEntry) (Outcome, error) {
	project := job.Project
	if project == "" {
		project = e.session.Home()
	}
	route := Decide(job, project, queue)
	return e.session.Within(project, route.Kind, func() Outcome {
		return e.dispatch(job, route, project)
	})
}

func (e *Engine) dispatch(job *model.JobSpec, route Route, project string) Outcome {
	e.logger.Infof("job %s: route=%s project=%s", job.Name, route.Kind, project)

	switch route.Kind {
	case RouteCreateNew:
		return e.createNew(RouteCreateNew, job.BaseMethodName, job.Name, job.Samples, false)
	case RouteQueued:
		return e.updateQueued(job, route.Entry)
	case RouteRunning:
		return e.updateRunning(job)
	default:
		return e.updateCompleted(RouteCompleted, job)
	}
}

// updateQueued takes the queued job off the queue and resubmits it built from
// its own stored method.
func (e *Engine) updateQueued(job *model.JobSpec, entry model.QueueEntry) Outcome {
	if err := e.inst.RemoveFromQueue(entry.JobID); err != nil {
		return failed(RouteQueued, fmt.Sprintf("Removing SSM:%s with JobId:%d was NOT successful. Error:%s", entry.Name, entry.JobID, automation.Reason(err)), automation.Wrap("remove", err))
	}
	e.logger.Infof("removed %s job_id=%d from queue", entry.Name, entry.JobID)
	return e.createNew(RouteQueued, entry.Name, entry.Name, job.Samples, false)
}

// updateRunning replaces the running job in place while injections are still
// ahead of the cursor, and otherwise treats the job as completed.
func (e *Engine) updateRunning(job *model.JobSpec) Outcome {
	cursor, last, ok := e.runningPosition(job.Name)
	if !ok || cursor >= last {
		e.logger.Infof("job %s: cursor past last injection, updating as completed", job.Name)
		return e.updateCompleted(RouteRunning, job)
	}

	pauseErr := e.inst.Pause(PauseSeconds)
	if pauseErr != nil {
		e.logger.Warnf("pause before replacing %s: %v", job.Name, pauseErr)
	}
	out := e.createNew(RouteRunning, job.BaseMethodName, job.Name, job.Samples, true)
	if pauseErr != nil {
		out.Report += fmt.Sprintf(" Pausing the running SSM was NOT successful. Error: %s", automation.Reason(pauseErr))
	}
	return out
}

// runningPosition returns the cursor of the running job and the index of the
// last injection line of its stored method. ok is false when either is
// unavailable.
func (e *Engine) runningPosition(name string) (cursor, lastInjection int, ok bool) {
	details, err := e.project.MethodByName(name)
	if err != nil || details == nil {
		e.logger.Warnf("running job %s: stored method unavailable: %v", name, err)
		return 0, 0, false
	}
	lines, err := e.project.SampleLines(details.ID)
	if err != nil {
		e.logger.Warnf("running job %s: lines unavailable: %v", name, err)
		return 0, 0, false
	}
	cursor, running, err := e.inst.CurrentLineIndex()
	if err != nil || !running {
		e.logger.Warnf("running job %s: cursor unavailable: %v", name, err)
		return 0, 0, false
	}
	return cursor, LastInjectionIndex(lines), true
}

// updateCompleted resubmits only the injection lines the stored method does
// not have yet.
func (e *Engine) updateCompleted(route RouteKind, job *model.JobSpec) Outcome {
	existing, err := e.project.MethodByName(job.Name)
	if err != nil {
		return failed(route, fmt.Sprintf("Cannot read SSM to update %s. Error: %s", job.Name, automation.Reason(err)), automation.Wrap("fetch method", err))
	}
	if existing == nil {
		return failed(route, fmt.Sprintf("SSM to update with name %s does not exist in the project.", job.Name), nil)
	}
	lines, err := e.project.SampleLines(existing.ID)
	if err != nil {
		return failed(route, fmt.Sprintf("Cannot read lines of SSM %s. Error: %s", job.Name, automation.Reason(err)), automation.Wrap("fetch lines", err))
	}

	pending := CountInjectionSamples(job.Samples) - model.CountInjections(lines)
	if pending <= 0 {
		report := fmt.Sprintf("SSM for update has no new inject lines: %s.", job.Name)
		e.logger.Warnf("%s", report)
		return failed(route, report, ErrNoNewWork)
	}
	return e.createNew(route, job.BaseMethodName, job.Name, TrimToPending(job.Samples, pending), false)
}

// createNew merges samples onto the template method, saves the result as
// target and either submits it or swaps it in for the running job.
func (e *Engine) createNew(route RouteKind, template, target string, samples []model.SampleLine, replace bool) Outcome {
	details, err := e.project.MethodByName(template)
	if err != nil {
		return failed(route, fmt.Sprintf("Cannot read BaseSampleSetMethodName '%s'. Error: %s", template, automation.Reason(err)), automation.Wrap("fetch method", err))
	}
	if details == nil {
		return failed(route, fmt.Sprintf("BaseSampleSetMethodName '%s' does not exist in the project.", template), nil)
	}
	lines, err := e.project.SampleLines(details.ID)
	if err != nil {
		return failed(route, fmt.Sprintf("Cannot read lines of BaseSampleSetMethodName '%s'. Error: %s", template, automation.Reason(err)), automation.Wrap("fetch lines", err))
	}

	merged, err := merge.Merge(template, lines, samples)
	if err != nil {
		return failed(route, err.Error(), err)
	}

	method := *details
	method.Name = target
	method.Comments = appendComment(method.Comments, e.comment)
	if err := e.project.SaveMethodAndLines(method, merged); err != nil {
		return failed(route, fmt.Sprintf("Cannot save SSM: %s. Error: %s.", target, automation.Reason(err)), automation.Wrap("save", err))
	}
	e.logger.Infof("saved %s (%d lines)", target, len(merged))

	if replace {
		if err := e.inst.ReplaceCurrentJob(target); err != nil {
			return failed(route, fmt.Sprintf("Successfully stored SSM, but error occurred while replacing Empower current job:%s. Error: %s.", target, automation.Reason(err)), automation.Wrap("replace", err))
		}
		return succeeded(route, fmt.Sprintf("SSM stored and replaced successfully to Empower: %s.", target))
	}
	if err := e.inst.Run(target, target, e.runMode); err != nil {
		return failed(route, fmt.Sprintf("Successfully stored SSM, but error occurred while adding to Empower queue:%s. Error: %s.", target, automation.Reason(err)), automation.Wrap("run", err))
	}
	return succeeded(route, fmt.Sprintf("SSM stored and submitted successfully to Empower: %s.", target))
}

func appendComment(comments, extra string) string {
	switch {
	case extra == "":
		return comments
	case comments == "":
		return extra
	default:
		return comments + " " + extra
	}
}
