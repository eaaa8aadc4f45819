package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Built-in action names.
const (
	ActionIncrement  = "increment"
	ActionDecrement  = "decrement"
	ActionSetMessage = "set_message"
)

// ActionKey is the payload field naming the handler.
const ActionKey = "action"

// Action is a host request to mutate State.
type Action struct {
	// Name selects the handler. Empty when the payload had no string "action".
	Name string `json:"action"`

	// Args holds every other payload field. Handlers decode what they need.
	Args map[string]any `json:"-"`
}

// ParseAction decodes an action payload. The payload must be a JSON object;
// anything else yields ErrMalformedAction. A missing or non-string "action"
// field is not an error: the result simply names no handler.
func ParseAction(data []byte) (Action, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Action{}, fmt.Errorf("%w: expected a JSON object", ErrMalformedAction)
	}

	var fields map[string]any
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return Action{}, fmt.Errorf("%w: %v", ErrMalformedAction, err)
	}
	if fields == nil {
		return Action{}, fmt.Errorf("%w: expected a JSON object", ErrMalformedAction)
	}

	act := Action{Args: make(map[string]any, len(fields))}
	for k, v := range fields {
		if k == ActionKey {
			if name, ok := v.(string); ok {
				act.Name = name
			}
			continue
		}
		act.Args[k] = v
	}
	return act, nil
}
