package reconcile

import (
	"errors"
	"fmt"

	"github.com/msageha/stfd/internal/automation"
	"github.com/msageha/stfd/internal/logging"
)

// ErrCredentialsRequired means a project switch was needed but there were no
// credentials to log in with. It aborts the whole descriptor.
var ErrCredentialsRequired = errors.New("credentials required to switch project")

// Credentials override the descriptor's own when switching project.
type Credentials struct {
	Username string
	Password string
}

// Session tracks which project the toolkit session is logged in to.
type Session struct {
	project  automation.Project
	home     automation.Login
	current  automation.Login
	fallback *Credentials
	logger   *logging.Logger
}

// NewSession wraps a project that is already logged in as home.
func NewSession(project automation.Project, home automation.Login, fallback *Credentials, logger *logging.Logger) *Session {
	return &Session{
		project:  project,
		home:     home,
		current:  home,
		fallback: fallback,
		logger:   logger.WithComponent("session"),
	}
}

// Current returns the project currently logged in to, or "" after a failed
// restore.
func (s *Session) Current() string { return s.current.Project }

// Home returns the project named in the descriptor header.
func (s *Session) Home() string { return s.home.Project }

// Within runs fn logged in to project. When project differs from the current
// one the session logs off, logs in to project, runs fn and then logs back in
// to the home project. A failed login is reported under route. Failure to
// restore is only logged; the next call for the home project retries it.
func (s *Session) Within(project string, route RouteKind, fn func() Outcome) (Outcome, error) {
	if project == "" || project == s.current.Project {
		return fn(), nil
	}
	if project == s.home.Project {
		// Only reached after a failed restore left the session logged off.
		if err := s.switchTo(s.home); err != nil {
			return failed(route, fmt.Sprintf("Cannot log in to project %s. Error: %s", project, automation.Reason(err)), err), nil
		}
		return fn(), nil
	}

	target := s.home
	target.Project = project
	if s.fallback != nil && s.fallback.Username != "" {
		target.Username = s.fallback.Username
		target.Password = s.fallback.Password
	}
	if target.Username == "" || target.Password == "" {
		return Outcome{}, fmt.Errorf("%w: project '%s'", ErrCredentialsRequired, project)
	}

	original := s.home
	if err := s.switchTo(target); err != nil {
		s.restore(original)
		return failed(route, fmt.Sprintf("Cannot log in to project %s. Error: %s", project, automation.Reason(err)), err), nil
	}
	out := fn()
	s.restore(original)
	return out, nil
}

func (s *Session) switchTo(l automation.Login) error {
	if s.current.Project != "" {
		if err := s.project.Logoff(); err != nil {
			s.logger.Warnf("logoff %s before switch: %v", s.current.Project, err)
		}
		s.current = automation.Login{}
	}
	if err := s.project.Login(l); err != nil {
		return automation.Wrap("login", err)
	}
	s.current = l
	s.logger.Infof("switched to project %s", l.Project)
	return nil
}

func (s *Session) restore(original automation.Login) {
	if s.current == original {
		return
	}
	if s.current.Project != "" {
		if err := s.project.Logoff(); err != nil {
			s.logger.Warnf("logoff %s: %v", s.current.Project, err)
		}
		s.current = automation.Login{}
	}
	if err := s.project.Login(original); err != nil {
		s.logger.Errorf("restore login to project %s failed: %v", original.Project, err)
		return
	}
	s.current = original
	s.logger.Infof("restored project %s", original.Project)
}
