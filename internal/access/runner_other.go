//go:build !windows

package access

import (
	"context"
	"errors"
)

func defaultRunner(context.Context, string, ...string) ([]byte, error) {
	return nil, errors.New("network share connections require Windows; mount the share before starting stfd")
}
