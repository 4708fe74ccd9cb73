package state

import "context"

// Builtin demo states forming a small request-processing loop:
//
//	InitialState --start--> AwaitingConfirmation
//	AwaitingConfirmation --confirm(confirmed)--> ProcessingRequest
//	AwaitingConfirmation --cancel--> InitialState
//	ProcessingRequest --complete--> InitialState
//	ProcessingRequest --error--> ErrorHandling
//	ErrorHandling --acknowledge--> InitialState

// BuiltinStateNames lists the names registered by NewBuiltinRegistry.
var BuiltinStateNames = []string{
	"AwaitingConfirmation",
	"ErrorHandling",
	"InitialState",
	"ProcessingRequest",
}

// NewBuiltinRegistry creates a registry pre-populated with the builtin
// demo states.
func NewBuiltinRegistry() *Registry {
	r := NewRegistry()
	r.Register("InitialState", func() State { return Initial{} })
	r.Register("AwaitingConfirmation", func() State { return AwaitingConfirmation{} })
	r.Register("ProcessingRequest", func() State { return ProcessingRequest{} })
	r.Register("ErrorHandling", func() State { return ErrorHandling{} })
	return r
}

// Initial is the resting state; a "start" message begins a request.
type Initial struct{}

// Name implements State.
func (Initial) Name() string { return "InitialState" }

// Handle implements State.
func (s Initial) Handle(_ context.Context, msg Message, _ any) (State, bool, error) {
	if msg.Type() == "start" {
		return AwaitingConfirmation{}, true, nil
	}
	return s, false, nil
}

// AwaitingConfirmation waits for the caller to confirm or cancel.
type AwaitingConfirmation struct{}

// Name implements State.
func (AwaitingConfirmation) Name() string { return "AwaitingConfirmation" }

// Handle implements State.
func (s AwaitingConfirmation) Handle(_ context.Context, msg Message, _ any) (State, bool, error) {
	switch msg.Type() {
	case "confirm":
		if msg.Content() == "confirmed" {
			return ProcessingRequest{}, true, nil
		}
	case "cancel":
		return Initial{}, true, nil
	}
	return s, false, nil
}

// ProcessingRequest represents work in flight.
type ProcessingRequest struct{}

// Name implements State.
func (ProcessingRequest) Name() string { return "ProcessingRequest" }

// Handle implements State.
func (s ProcessingRequest) Handle(_ context.Context, msg Message, _ any) (State, bool, error) {
	switch msg.Type() {
	case "complete":
		return Initial{}, true, nil
	case "error":
		return ErrorHandling{}, true, nil
	}
	return s, false, nil
}

// ErrorHandling waits for an operator acknowledgement before resetting.
type ErrorHandling struct{}

// Name implements State.
func (ErrorHandling) Name() string { return "ErrorHandling" }

// Handle implements State.
func (s ErrorHandling) Handle(_ context.Context, msg Message, _ any) (State, bool, error) {
	if msg.Type() == "acknowledge" {
		return Initial{}, true, nil
	}
	return s, false, nil
}
