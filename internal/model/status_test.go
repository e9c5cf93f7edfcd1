package model

import (
	"errors"
	"testing"
)

func TestIsTerminalMarker(t *testing.T) {
	tests := []struct {
		marker   Marker
		terminal bool
	}{
		{MarkerNew, false},
		{MarkerLocked, false},
		{MarkerProcessed, true},
		{MarkerError, true},
		{MarkerErrorDeserialization, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.marker), func(t *testing.T) {
			if got := IsTerminalMarker(tt.marker); got != tt.terminal {
				t.Errorf("IsTerminalMarker(%q) = %v, want %v", tt.marker, got, tt.terminal)
			}
		})
	}
}

func TestValidateMarkerTransition(t *testing.T) {
	valid := []struct {
		from, to Marker
	}{
		{MarkerNew, MarkerLocked},
		{MarkerLocked, MarkerProcessed},
		{MarkerLocked, MarkerError},
		{MarkerLocked, MarkerErrorDeserialization},
	}
	for _, tt := range valid {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if err := ValidateMarkerTransition(tt.from, tt.to); err != nil {
				t.Errorf("expected valid, got %v", err)
			}
		})
	}

	invalid := []struct {
		from, to Marker
	}{
		{MarkerNew, MarkerProcessed},
		{MarkerNew, MarkerError},
		{MarkerNew, MarkerNew},
		{MarkerLocked, MarkerNew},
		{MarkerLocked, MarkerLocked},
		{MarkerProcessed, MarkerLocked},
		{MarkerError, MarkerProcessed},
		{MarkerErrorDeserialization, MarkerError},
		{Marker("bogus"), MarkerLocked},
	}
	for _, tt := range invalid {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			err := ValidateMarkerTransition(tt.from, tt.to)
			if err == nil {
				t.Fatalf("expected error for %q → %q", tt.from, tt.to)
			}
			if !errors.Is(err, ErrIllegalTransition) {
				t.Errorf("expected ErrIllegalTransition, got %v", err)
			}
		})
	}
}

func TestMarkerSuffix(t *testing.T) {
	if got := MarkerErrorDeserialization.Suffix(); got != ".error-deserialization.json" {
		t.Errorf("Suffix() = %q", got)
	}
	if got := MarkerLocked.Suffix(); got != ".lck.json" {
		t.Errorf("Suffix() = %q", got)
	}
}
