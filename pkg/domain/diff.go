package domain

import (
	"reflect"
)

// StateDiff represents the changes between two states.
// It is serialized to JSON and pushed to event stream subscribers.
type StateDiff struct {
	// Fields holds only changed fields, keyed by field name.
	Fields map[string]any `json:"fields"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, every field of newState is reported (initial load).
// It returns nil when nothing changed.
func Diff(oldState, newState *State) *StateDiff {
	if newState == nil {
		return nil
	}

	next := newState.Fields()
	if oldState == nil {
		return &StateDiff{Fields: next}
	}

	prev := oldState.Fields()
	delta := make(map[string]any)
	for k, v := range next {
		if old, ok := prev[k]; !ok || !reflect.DeepEqual(old, v) {
			delta[k] = v
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return &StateDiff{Fields: delta}
}

// IsEmpty checks if the diff contains any changes.
func (d *StateDiff) IsEmpty() bool {
	return d == nil || len(d.Fields) == 0
}
