package domain

import "errors"

// ErrMalformedAction is returned when an action payload is not a JSON object.
var ErrMalformedAction = errors.New("malformed action payload")

// ErrRenderFailed wraps any failure raised while producing a component tree.
var ErrRenderFailed = errors.New("render failed")

// ErrReloadFailed wraps any failure raised while loading new code bindings.
var ErrReloadFailed = errors.New("reload failed")

// ErrNoRenderFunc is returned when a render script does not define render(state).
var ErrNoRenderFunc = errors.New("script does not define a render function")

// ErrInvalidRequest is returned when a request body does not match its schema.
var ErrInvalidRequest = errors.New("invalid request")
