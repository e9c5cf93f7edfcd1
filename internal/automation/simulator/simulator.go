// Package simulator is an in-memory stand-in for the chromatography data
// system toolkit. It backs integration tests and dry runs.
package simulator

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/msageha/stfd/internal/automation"
	"github.com/msageha/stfd/internal/model"
)

// Operation names accepted by Fail.
const (
	OpLogin   = "login"
	OpLogoff  = "logoff"
	OpMethod  = "method"
	OpLines   = "lines"
	OpSave    = "save"
	OpConnect = "connect"
	OpQueue   = "queue"
	OpRun     = "run"
	OpReplace = "replace"
	OpRemove  = "remove"
	OpPause   = "pause"
)

var (
	ErrNotLoggedIn    = errors.New("not logged in")
	ErrNoSuchProject  = errors.New("no such project")
	ErrBadCredentials = errors.New("invalid user name or password")
	ErrNotConnected   = errors.New("instrument not connected")
)

type method struct {
	details model.MethodDetails
	lines   []model.MethodLine
}

// System holds the projects, the run queue and the running job of one
// simulated installation. It is safe for concurrent use.
type System struct {
	mu        sync.Mutex
	users     map[string]string
	projects  map[string]map[string]*method
	nodes     map[string]bool
	queue     []model.QueueEntry
	cursor    int
	active    string
	nextID    int
	nextJobID int
	faults    map[string]error
	comments  []string
	calls     []string
}

func New() *System {
	return &System{
		users:     make(map[string]string),
		projects:  make(map[string]map[string]*method),
		nodes:     make(map[string]bool),
		faults:    make(map[string]error),
		nextID:    1,
		nextJobID: 1,
	}
}

// AddUser registers a login. With no users registered any credentials are
// accepted.
func (s *System) AddUser(name, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[name] = password
}

// AddSystem registers an acquisition system. With none registered every
// connection succeeds.
func (s *System) AddSystem(node, system string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[system+"@"+node] = true
}

// AddMethod stores a method in project, creating the project if needed.
func (s *System) AddMethod(project, name, comments string, lines []model.MethodLine) model.MethodDetails {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store(project, model.MethodDetails{Name: name, Comments: comments}, lines)
}

func (s *System) store(project string, d model.MethodDetails, lines []model.MethodLine) model.MethodDetails {
	methods, ok := s.projects[project]
	if !ok {
		methods = make(map[string]*method)
		s.projects[project] = methods
	}
	d.ID = s.nextID
	s.nextID++
	methods[d.Name] = &method{details: d, lines: cloneLines(lines)}
	return d
}

// Method returns a copy of a stored method and its lines.
func (s *System) Method(project, name string) (model.MethodDetails, []model.MethodLine, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.projects[project][name]
	if !ok {
		return model.MethodDetails{}, nil, false
	}
	return m.details, cloneLines(m.lines), true
}

// Enqueue puts a job on the run queue and returns its job id.
func (s *System) Enqueue(project, name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enqueue(project, name)
}

func (s *System) enqueue(project, name string) int {
	id := s.nextJobID
	s.nextJobID++
	s.queue = append(s.queue, model.QueueEntry{JobID: id, Name: name, Project: project})
	return id
}

// Queue returns the run queue ordered by job id.
func (s *System) Queue() []model.QueueEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.SortQueue(s.queue)
}

// SetCursor sets the line index the running job is executing.
func (s *System) SetCursor(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = i
}

// Fail makes every later call of op return err. A nil err clears the fault.
func (s *System) Fail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.faults, op)
		return
	}
	s.faults[op] = err
}

// Calls returns the operations performed so far, in order.
func (s *System) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.calls))
	copy(out, s.calls)
	return out
}

// AuditComments returns the audit comments set by project sessions.
func (s *System) AuditComments() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.comments))
	copy(out, s.comments)
	return out
}

// ActiveProject returns the project the last successful login opened.
func (s *System) ActiveProject() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// call records op and returns its injected fault. Callers hold s.mu.
func (s *System) call(op, detail string) error {
	if detail != "" {
		s.calls = append(s.calls, op+" "+detail)
	} else {
		s.calls = append(s.calls, op)
	}
	return s.faults[op]
}

func (s *System) NewProject() automation.Project       { return &project{sys: s} }
func (s *System) NewInstrument() automation.Instrument { return &instrument{sys: s} }

var _ automation.Toolkit = (*System)(nil)

type project struct {
	sys   *System
	login *automation.Login
}

func (p *project) Login(l automation.Login) error {
	s := p.sys
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call(OpLogin, l.Project); err != nil {
		return err
	}
	if len(s.users) > 0 {
		if pw, ok := s.users[l.Username]; !ok || pw != l.Password {
			return ErrBadCredentials
		}
	}
	if _, ok := s.projects[l.Project]; !ok {
		return fmt.Errorf("%w: %s", ErrNoSuchProject, l.Project)
	}
	p.login = &l
	s.active = l.Project
	return nil
}

func (p *project) Logoff() error {
	s := p.sys
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call(OpLogoff, ""); err != nil {
		return err
	}
	p.login = nil
	return nil
}

func (p *project) SetAuditComment(comment string) {
	s := p.sys
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments = append(s.comments, comment)
}

func (p *project) MethodByName(name string) (*model.MethodDetails, error) {
	s := p.sys
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call(OpMethod, name); err != nil {
		return nil, err
	}
	if p.login == nil {
		return nil, ErrNotLoggedIn
	}
	m, ok := s.projects[p.login.Project][name]
	if !ok {
		return nil, nil
	}
	d := m.details
	return &d, nil
}

func (p *project) SampleLines(methodID int) ([]model.MethodLine, error) {
	s := p.sys
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call(OpLines, fmt.Sprint(methodID)); err != nil {
		return nil, err
	}
	if p.login == nil {
		return nil, ErrNotLoggedIn
	}
	for _, m := range s.projects[p.login.Project] {
		if m.details.ID == methodID {
			return cloneLines(m.lines), nil
		}
	}
	return nil, fmt.Errorf("method id %d not found", methodID)
}

// SaveMethodAndLines stores a new version under details.Name with a fresh id.
func (p *project) SaveMethodAndLines(details model.MethodDetails, lines []model.MethodLine) error {
	s := p.sys
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call(OpSave, details.Name); err != nil {
		return err
	}
	if p.login == nil {
		return ErrNotLoggedIn
	}
	s.store(p.login.Project, details, lines)
	return nil
}

type instrument struct {
	sys       *System
	connected bool
	succeeded bool
}

func (i *instrument) Connect(node, system string) error {
	s := i.sys
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call(OpConnect, system+"@"+node); err != nil {
		return err
	}
	i.connected = true
	i.succeeded = len(s.nodes) == 0 || s.nodes[system+"@"+node]
	return nil
}

func (i *instrument) Disconnect() error {
	s := i.sys
	s.mu.Lock()
	defer s.mu.Unlock()
	if i.connected {
		s.calls = append(s.calls, "disconnect")
	}
	i.connected = false
	i.succeeded = false
	return nil
}

func (i *instrument) ConnectionDone() bool      { return i.connected }
func (i *instrument) ConnectionSucceeded() bool { return i.succeeded }

func (i *instrument) ready(op, detail string) error {
	if err := i.sys.call(op, detail); err != nil {
		return err
	}
	if !i.succeeded {
		return ErrNotConnected
	}
	return nil
}

func (i *instrument) QueueEntries() ([]model.QueueEntry, error) {
	s := i.sys
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := i.ready(OpQueue, ""); err != nil {
		return nil, err
	}
	out := make([]model.QueueEntry, len(s.queue))
	copy(out, s.queue)
	return out, nil
}

// Run queues methodName from the active project. outputName and mode are
// recorded only.
func (i *instrument) Run(methodName, outputName string, mode model.RunMode) error {
	s := i.sys
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := i.ready(OpRun, methodName+" "+string(mode)); err != nil {
		return err
	}
	if _, ok := s.projects[s.active][methodName]; !ok {
		return fmt.Errorf("method %s not found in %s", methodName, s.active)
	}
	s.enqueue(s.active, methodName)
	return nil
}

func (i *instrument) ReplaceCurrentJob(methodName string) error {
	s := i.sys
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := i.ready(OpReplace, methodName); err != nil {
		return err
	}
	if len(s.queue) == 0 {
		return errors.New("no job is running")
	}
	sort.SliceStable(s.queue, func(a, b int) bool { return s.queue[a].JobID < s.queue[b].JobID })
	s.queue[0].Name = methodName
	return nil
}

func (i *instrument) RemoveFromQueue(jobID int) error {
	s := i.sys
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := i.ready(OpRemove, fmt.Sprint(jobID)); err != nil {
		return err
	}
	for k, e := range s.queue {
		if e.JobID == jobID {
			s.queue = append(s.queue[:k], s.queue[k+1:]...)
			return nil
		}
	}
	return fmt.Errorf("job %d is not queued", jobID)
}

func (i *instrument) Pause(seconds int) error {
	s := i.sys
	s.mu.Lock()
	defer s.mu.Unlock()
	return i.ready(OpPause, fmt.Sprint(seconds))
}

func (i *instrument) CurrentLineIndex() (int, bool, error) {
	s := i.sys
	s.mu.Lock()
	defer s.mu.Unlock()
	if !i.succeeded {
		return 0, false, ErrNotConnected
	}
	if len(s.queue) == 0 {
		return 0, false, nil
	}
	return s.cursor, true, nil
}

func cloneLines(lines []model.MethodLine) []model.MethodLine {
	if lines == nil {
		return nil
	}
	out := make([]model.MethodLine, len(lines))
	for i, l := range lines {
		out[i] = l.Clone()
	}
	return out
}

// Seed is the YAML form of an installation used by --simulate.
type Seed struct {
	Users   map[string]string `yaml:"users"`
	Systems []struct {
		Node   string `yaml:"node"`
		System string `yaml:"system"`
	} `yaml:"systems"`
	Projects map[string][]SeedMethod `yaml:"projects"`
	Queue    []struct {
		Project string `yaml:"project"`
		Name    string `yaml:"name"`
	} `yaml:"queue"`
	Cursor int `yaml:"cursor"`
}

type SeedMethod struct {
	Name     string     `yaml:"name"`
	Comments string     `yaml:"comments"`
	Lines    []SeedLine `yaml:"lines"`
}

type SeedLine struct {
	Vial      string            `yaml:"vial"`
	Function  string            `yaml:"function"`
	InjVol    *float64          `yaml:"inj_vol"`
	NumOfInjs *int              `yaml:"num_of_injs"`
	Label     string            `yaml:"label"`
	Columns   map[string]string `yaml:"columns"`
}

// Load builds a System from a seed file.
func Load(path string) (*System, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed %s: %w", path, err)
	}
	return FromSeed(seed), nil
}

func FromSeed(seed Seed) *System {
	s := New()
	for u, pw := range seed.Users {
		s.AddUser(u, pw)
	}
	for _, sys := range seed.Systems {
		s.AddSystem(sys.Node, sys.System)
	}
	names := make([]string, 0, len(seed.Projects))
	for name := range seed.Projects {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, m := range seed.Projects[name] {
			s.AddMethod(name, m.Name, m.Comments, seedLines(m.Lines))
		}
	}
	for _, q := range seed.Queue {
		s.Enqueue(q.Project, q.Name)
	}
	s.SetCursor(seed.Cursor)
	return s
}

func seedLines(in []SeedLine) []model.MethodLine {
	out := make([]model.MethodLine, len(in))
	for i, l := range in {
		line := model.MethodLine{
			Vial:      l.Vial,
			Function:  l.Function,
			InjVol:    l.InjVol,
			NumOfInjs: l.NumOfInjs,
			Label:     l.Label,
		}
		keys := make([]string, 0, len(l.Columns))
		for k := range l.Columns {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			line.Columns = append(line.Columns, model.Column{Name: k, Value: model.StringValue(l.Columns[k])})
		}
		out[i] = line
	}
	return out
}
