package main

import (
	"strconv"
	"sync"
	"time"
)

// Validate checks ISO-8601 syntax and ordering: start <= end, and current
// within [start, end] when all three are present. Messages name the field,
// the constraint and the offending value.
func (ts TimeState) Validate() *CommandError {
	parsed := map[string]time.Time{}
	for _, field := range []struct {
		name  string
		value string
	}{
		{"current", ts.Current},
		{"start", ts.Start},
		{"end", ts.End},
	} {
		if field.value == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, field.value)
		if err != nil {
			return InvalidInputError("TimeState.%s must be an ISO-8601 timestamp, got %q",
				field.name, field.value)
		}
		parsed[field.name] = t
	}

	start, hasStart := parsed["start"]
	end, hasEnd := parsed["end"]
	current, hasCurrent := parsed["current"]

	if hasStart && hasEnd && start.After(end) {
		return InvalidInputError("TimeState.start (%s) must not be after TimeState.end (%s)",
			ts.Start, ts.End)
	}
	if hasCurrent && hasStart && current.Before(start) {
		return InvalidInputError("TimeState.current (%s) must not be before TimeState.start (%s)",
			ts.Current, ts.Start)
	}
	if hasCurrent && hasEnd && current.After(end) {
		return InvalidInputError("TimeState.current (%s) must not be after TimeState.end (%s)",
			ts.Current, ts.End)
	}
	return nil
}

// viewportBoundNames maps bounds indexes to their compass names.
var viewportBoundNames = [4]string{"west", "south", "east", "north"}

func formatDegrees(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Validate checks the bounds shape and degree ranges. Longitudes (west,
// east) must be within [-180, 180] and latitudes (south, north) within
// [-90, 90]. West greater than east is legal: the view crosses the
// antimeridian.
func (vs ViewportState) Validate() *CommandError {
	if len(vs.Bounds) != 4 {
		return InvalidInputError(
			"ViewportState.bounds must have exactly 4 elements [west, south, east, north], got %d",
			len(vs.Bounds))
	}
	for i, v := range vs.Bounds {
		name := viewportBoundNames[i]
		switch name {
		case "west", "east":
			if v < -180 || v > 180 {
				return InvalidInputError(
					"ViewportState.bounds[%d] (%s) must be between -180 and 180 degrees, got %s",
					i, name, formatDegrees(v))
			}
		case "south", "north":
			if v < -90 || v > 90 {
				return InvalidInputError(
					"ViewportState.bounds[%d] (%s) must be between -90 and 90 degrees, got %s",
					i, name, formatDegrees(v))
			}
		}
	}
	if vs.Bounds[1] > vs.Bounds[3] {
		return InvalidInputError(
			"ViewportState.bounds[1] (south, %s) must not be greater than bounds[3] (north, %s)",
			formatDegrees(vs.Bounds[1]), formatDegrees(vs.Bounds[3]))
	}
	return nil
}

// StateStore holds the auxiliary per-document state slices: time range and
// map viewport. All of it is in-memory and dies with the registration; the
// host's file storage is the only persistence in the system.
type StateStore struct {
	mu        sync.RWMutex
	times     map[string]TimeState     // by document path
	viewports map[string]ViewportState // by document path
}

// NewStateStore creates an empty state store.
func NewStateStore() *StateStore {
	return &StateStore{
		times:     map[string]TimeState{},
		viewports: map[string]ViewportState{},
	}
}

// Time returns the stored time slice, if any.
func (s *StateStore) Time(doc *PlotDocument) (TimeState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ts, ok := s.times[doc.Path]
	return ts, ok
}

// SetTime validates and stores the time slice.
func (s *StateStore) SetTime(doc *PlotDocument, ts TimeState) *CommandError {
	if cerr := ts.Validate(); cerr != nil {
		return cerr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.times[doc.Path] = ts
	return nil
}

// Viewport returns the stored viewport, if any.
func (s *StateStore) Viewport(doc *PlotDocument) (ViewportState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vs, ok := s.viewports[doc.Path]
	return vs, ok
}

// SetViewport validates and stores the viewport.
func (s *StateStore) SetViewport(doc *PlotDocument, vs ViewportState) *CommandError {
	if cerr := vs.Validate(); cerr != nil {
		return cerr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewports[doc.Path] = vs
	return nil
}

// Clear drops all state slices for a closed document.
func (s *StateStore) Clear(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.times, path)
	delete(s.viewports, path)
}
