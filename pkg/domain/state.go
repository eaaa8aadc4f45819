package domain

import (
	"fmt"
	"strconv"

	"github.com/mitchellh/mapstructure"
)

// DefaultMessage is the message a fresh State starts with.
const DefaultMessage = "Hello from Python!"

// State is the application state shared by every request.
// It lives for the lifetime of the process and survives reloads.
type State struct {
	Counter int    `json:"counter" mapstructure:"counter"`
	Message string `json:"message" mapstructure:"message"`
}

// NewState returns the state a process starts with.
func NewState() State {
	return State{
		Counter: 0,
		Message: DefaultMessage,
	}
}

// Fields exposes the state as a flat map keyed by field name.
func (s State) Fields() map[string]any {
	out := make(map[string]any, 2)
	if err := mapstructure.Decode(s, &out); err != nil {
		// Decoding a flat struct of scalars into a map cannot fail.
		panic(fmt.Sprintf("domain: state fields: %v", err))
	}
	return out
}

// CountLabel is the text the reference screen shows for the counter.
func (s State) CountLabel() string {
	return "Count: " + strconv.Itoa(s.Counter)
}
