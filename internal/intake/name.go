// Package intake discovers job files in the intake directory and moves them
// through their lifecycle by renaming.
package intake

import (
	"fmt"
	"strings"
	"time"
)

// nameLayout is the yyMMdd_HHmm part of a job file name, with the underscore
// replaced by a space.
const nameLayout = "060102 1504"

// NamingError means a file name does not follow
// <originId>_<originJobId>_<yyMMdd>_<HHmm>.<marker>.json.
type NamingError struct {
	Name   string
	Reason string
}

func (e *NamingError) Error() string {
	return fmt.Sprintf("invalid job file name %q: %s", e.Name, e.Reason)
}

// ParsedName holds the identity encoded in a job file name.
type ParsedName struct {
	OriginID    string
	OriginJobID string
	Created     time.Time
}

// ParseName parses a base file name. Only the text before the first dot is
// considered.
func ParseName(base string) (ParsedName, error) {
	stem := base
	if i := strings.IndexByte(base, '.'); i >= 0 {
		stem = base[:i]
	}
	tokens := strings.Split(stem, "_")
	if len(tokens) != 4 {
		return ParsedName{}, &NamingError{Name: base, Reason: fmt.Sprintf("expected 4 underscore-separated tokens, got %d", len(tokens))}
	}
	for i, tok := range tokens {
		if tok == "" {
			return ParsedName{}, &NamingError{Name: base, Reason: fmt.Sprintf("token %d is empty", i+1)}
		}
	}
	created, err := time.ParseInLocation(nameLayout, tokens[2]+" "+tokens[3], time.Local)
	if err != nil {
		return ParsedName{}, &NamingError{Name: base, Reason: fmt.Sprintf("bad timestamp %s_%s", tokens[2], tokens[3])}
	}
	return ParsedName{OriginID: tokens[0], OriginJobID: tokens[1], Created: created}, nil
}

// FormatName builds the base name of a new job file.
func FormatName(originID, originJobID string, created time.Time) string {
	return fmt.Sprintf("%s_%s_%s.new.json", originID, originJobID, strings.Replace(created.Format(nameLayout), " ", "_", 1))
}
