package model

import (
	"errors"
	"fmt"
)

// Marker is the lifecycle tag embedded in a job file name before ".json".
type Marker string

const (
	MarkerNew                  Marker = "new"
	MarkerLocked               Marker = "lck"
	MarkerProcessed            Marker = "prc"
	MarkerError                Marker = "error"
	MarkerErrorDeserialization Marker = "error-deserialization"
)

// ErrIllegalTransition is returned for any lifecycle move outside the table below.
var ErrIllegalTransition = errors.New("illegal lifecycle transition")

var terminalMarkers = map[Marker]bool{
	MarkerProcessed:            true,
	MarkerError:                true,
	MarkerErrorDeserialization: true,
}

// new → lck on pickup; lck → prc | error | error-deserialization when done.
var validMarkerTransitions = map[Marker]map[Marker]bool{
	MarkerNew: {
		MarkerLocked: true,
	},
	MarkerLocked: {
		MarkerProcessed:            true,
		MarkerError:                true,
		MarkerErrorDeserialization: true,
	},
}

// Suffix returns the file name suffix carrying the marker, e.g. ".lck.json".
func (m Marker) Suffix() string {
	return "." + string(m) + ".json"
}

func IsTerminalMarker(m Marker) bool {
	return terminalMarkers[m]
}

func ValidateMarkerTransition(from, to Marker) error {
	if IsTerminalMarker(from) {
		return fmt.Errorf("%w: %q is terminal", ErrIllegalTransition, from)
	}
	allowed, ok := validMarkerTransitions[from]
	if !ok {
		return fmt.Errorf("%w: unknown marker %q", ErrIllegalTransition, from)
	}
	if !allowed[to] {
		return fmt.Errorf("%w: %q → %q", ErrIllegalTransition, from, to)
	}
	return nil
}

// Job and file outcome texts written back into the descriptor.
const (
	OutcomeCompleted = "Completed"
	OutcomeFailed    = "Failed"
)
