// Package reconcile decides, for each job of a descriptor, how it relates to
// the instrument's run queue and drives the toolkit accordingly.
package reconcile

import (
	"sort"

	"github.com/msageha/stfd/internal/model"
)

type RouteKind int

const (
	// RouteCreateNew builds the method from its template and submits it.
	RouteCreateNew RouteKind = iota
	// RouteRunning targets the job the instrument is executing now.
	RouteRunning
	// RouteQueued targets a job waiting in the queue.
	RouteQueued
	// RouteCompleted targets a job that is no longer on the queue.
	RouteCompleted
)

func (k RouteKind) String() string {
	switch k {
	case RouteCreateNew:
		return "create_new"
	case RouteRunning:
		return "update_running"
	case RouteQueued:
		return "update_queued"
	case RouteCompleted:
		return "update_completed"
	default:
		return "unknown"
	}
}

// Route is the outcome of Decide. Entry and Position are set for the running
// and queued routes.
type Route struct {
	Kind     RouteKind
	Entry    model.QueueEntry
	Position int
}

// Decide routes job against a queue snapshot. Only entries of the project the
// session is logged in to are considered; a same-named job of another project
// is not ours to touch.
func Decide(job *model.JobSpec, project string, queue []model.QueueEntry) Route {
	if job.IsNew {
		return Route{Kind: RouteCreateNew}
	}
	for i, e := range model.SortQueue(queue) {
		if e.Name != job.Name || e.Project != project {
			continue
		}
		if i == 0 {
			return Route{Kind: RouteRunning, Entry: e, Position: 0}
		}
		return Route{Kind: RouteQueued, Entry: e, Position: i}
	}
	return Route{Kind: RouteCompleted}
}

// LastInjectionIndex returns the index of the last InjectSamples line, or -1.
// Lines are not assumed to hold a single contiguous injection block.
func LastInjectionIndex(lines []model.MethodLine) int {
	last := -1
	for i, l := range lines {
		if l.Function == model.InjectSamples {
			last = i
		}
	}
	return last
}

// CountInjectionSamples counts the sample lines requesting an injection.
func CountInjectionSamples(samples []model.SampleLine) int {
	n := 0
	for _, s := range samples {
		if s.IsInjection() {
			n++
		}
	}
	return n
}

// TrimToPending keeps the last pending injection lines of samples in line
// number order and drops everything else. samples is not modified.
func TrimToPending(samples []model.SampleLine, pending int) []model.SampleLine {
	if pending <= 0 {
		return nil
	}
	type numbered struct {
		n    int
		line model.SampleLine
	}
	var inj []numbered
	for _, s := range samples {
		if !s.IsInjection() {
			continue
		}
		n, _ := s.LineNumber()
		inj = append(inj, numbered{n: n, line: s})
	}
	sort.SliceStable(inj, func(i, j int) bool { return inj[i].n < inj[j].n })
	if pending < len(inj) {
		inj = inj[len(inj)-pending:]
	}
	out := make([]model.SampleLine, len(inj))
	for i, x := range inj {
		out[i] = x.line
	}
	return out
}
