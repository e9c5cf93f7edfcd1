package intake

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/msageha/stfd/internal/logging"
	"github.com/msageha/stfd/internal/model"
)

var (
	// ErrSourceMissing means the file was renamed or removed by someone else
	// since it was listed.
	ErrSourceMissing = errors.New("job file no longer exists")
	ErrTargetExists  = errors.New("target job file already exists")
)

// ErrIllegalTransition is re-exported so callers need not import model.
var ErrIllegalTransition = model.ErrIllegalTransition

// JobFile is one job file and its current lifecycle marker.
type JobFile struct {
	OriginID    string
	OriginJobID string
	Created     time.Time
	State       model.Marker

	dir  string
	stem string // base name up to the marker
	rest string // anything after the marker suffix
}

// Path returns the file's current location.
func (f *JobFile) Path() string {
	return f.pathFor(f.State)
}

// Name returns the current base name.
func (f *JobFile) Name() string {
	return filepath.Base(f.Path())
}

func (f *JobFile) pathFor(m model.Marker) string {
	return filepath.Join(f.dir, f.stem+m.Suffix()+f.rest)
}

// Tracker lists and renames job files in one directory. It is used by a
// single goroutine at a time.
type Tracker struct {
	dir    string
	logger *logging.Logger
}

func NewTracker(dir string, logger *logging.Logger) *Tracker {
	return &Tracker{dir: dir, logger: logger.WithComponent("intake")}
}

func (t *Tracker) Dir() string { return t.dir }

// ScanNewFiles returns the parseable new files ordered by creation time,
// plus one NamingError per file whose name could not be parsed. Files with
// bad names are left untouched.
func (t *Tracker) ScanNewFiles() ([]*JobFile, []error, error) {
	entries, err := os.ReadDir(t.dir)
	if err != nil {
		return nil, nil, fmt.Errorf("read intake dir: %w", err)
	}
	marker := model.MarkerNew.Suffix()
	var files []*JobFile
	var namingErrs []error
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		idx := strings.Index(name, marker)
		if idx < 0 {
			continue
		}
		parsed, err := ParseName(name)
		if err != nil {
			namingErrs = append(namingErrs, err)
			continue
		}
		files = append(files, &JobFile{
			OriginID:    parsed.OriginID,
			OriginJobID: parsed.OriginJobID,
			Created:     parsed.Created,
			State:       model.MarkerNew,
			dir:         t.dir,
			stem:        name[:idx],
			rest:        name[idx+len(marker):],
		})
	}
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].Created.Before(files[j].Created)
	})
	return files, namingErrs, nil
}

// ListNewFiles is ScanNewFiles that fails when any candidate name is invalid.
func (t *Tracker) ListNewFiles() ([]*JobFile, error) {
	files, namingErrs, err := t.ScanNewFiles()
	if err != nil {
		return nil, err
	}
	if len(namingErrs) > 0 {
		return nil, namingErrs[0]
	}
	return files, nil
}

// Transition renames f from one marker to the next and returns the new path.
func (t *Tracker) Transition(f *JobFile, from, to model.Marker) (string, error) {
	if err := model.ValidateMarkerTransition(from, to); err != nil {
		return "", err
	}
	src := f.pathFor(from)
	if _, err := os.Stat(src); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrSourceMissing, filepath.Base(src))
		}
		return "", fmt.Errorf("stat %s: %w", filepath.Base(src), err)
	}
	dst := f.pathFor(to)
	if _, err := os.Stat(dst); err == nil {
		return "", fmt.Errorf("%w: %s", ErrTargetExists, filepath.Base(dst))
	}
	if err := os.Rename(src, dst); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrSourceMissing, filepath.Base(src))
		}
		return "", fmt.Errorf("rename %s: %w", filepath.Base(src), err)
	}
	f.State = to
	t.logger.Debugf("renamed %s -> %s", filepath.Base(src), filepath.Base(dst))
	return dst, nil
}

// Read returns the content of f at its current path.
func (t *Tracker) Read(f *JobFile) ([]byte, error) {
	return os.ReadFile(f.Path())
}

// Save replaces the content of f at its current path.
func (t *Tracker) Save(f *JobFile, content []byte) error {
	return AtomicWrite(f.Path(), content)
}
