// Package access checks that the intake directory is usable and, for network
// shares, holds the share connection for the life of the service.
package access

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/msageha/stfd/internal/config"
)

const probeSuffix = ".temp"

var ErrNotShare = errors.New("not a network share path")

// CheckFolderAccess creates, reads back and deletes a uniquely named probe
// file in dir.
func CheckFolderAccess(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("intake directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("intake directory %s is not a directory", dir)
	}

	probe := filepath.Join(dir, uuid.NewString()+probeSuffix)
	want := []byte{'1'}
	if err := os.WriteFile(probe, want, 0644); err != nil {
		return fmt.Errorf("write access to %s: %w", dir, err)
	}
	defer os.Remove(probe)

	got, err := os.ReadFile(probe)
	if err != nil {
		return fmt.Errorf("read access to %s: %w", dir, err)
	}
	if !bytes.Equal(got, want) {
		return fmt.Errorf("read access to %s: probe content mismatch", dir)
	}
	if err := os.Remove(probe); err != nil {
		return fmt.Errorf("delete access to %s: %w", dir, err)
	}
	return nil
}

// ShareRoot returns the \\host\share prefix of a UNC path.
func ShareRoot(path string) (string, error) {
	if !config.IsNetworkPath(path) {
		return "", fmt.Errorf("%w: %s", ErrNotShare, path)
	}
	parts := strings.FieldsFunc(path, func(r rune) bool { return r == '\\' || r == '/' })
	if len(parts) < 2 {
		return "", fmt.Errorf("%w: %s has no share name", ErrNotShare, path)
	}
	return `\\` + parts[0] + `\` + parts[1], nil
}

type Credentials struct {
	Username string
	Password string
	Domain   string
}

func (c Credentials) user() string {
	if c.Domain == "" || strings.Contains(c.Username, `\`) {
		return c.Username
	}
	return c.Domain + `\` + c.Username
}

// Runner executes an external command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Share is a held network share connection. Close releases it once.
type Share struct {
	root    string
	once    sync.Once
	closeFn func() error
}

func (s *Share) Root() string { return s.root }

func (s *Share) Close() error {
	var err error
	s.once.Do(func() {
		if s.closeFn != nil {
			err = s.closeFn()
		}
	})
	return err
}

// OpenShare connects the share holding dir with creds. For a local dir it
// returns a Share whose Close does nothing.
func OpenShare(ctx context.Context, dir string, creds Credentials, run Runner) (*Share, error) {
	if !config.IsNetworkPath(dir) {
		return &Share{}, nil
	}
	root, err := ShareRoot(dir)
	if err != nil {
		return nil, err
	}
	if run == nil {
		run = defaultRunner
	}

	// The password must never appear in returned errors.
	out, err := run(ctx, "net", "use", root, creds.Password, "/user:"+creds.user(), "/persistent:no")
	if err != nil {
		return nil, fmt.Errorf("connect %s as %s: %w: %s", root, creds.user(), err, strings.TrimSpace(string(out)))
	}

	s := &Share{root: root}
	s.closeFn = func() error {
		out, err := run(context.Background(), "net", "use", root, "/delete", "/y")
		if err != nil {
			return fmt.Errorf("disconnect %s: %w: %s", root, err, strings.TrimSpace(string(out)))
		}
		return nil
	}
	return s, nil
}
