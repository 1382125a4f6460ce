package agent

import (
	"errors"
	"fmt"
)

// Sentinel errors for agent operations.
var (
	// ErrNoProvider indicates no model provider is configured.
	ErrNoProvider = errors.New("no provider configured")

	// ErrIterationLimit marks the tool-round cap. Reaching it is a graceful
	// completion for the caller; the sentinel exists for classification and
	// metrics, never for a failed response.
	ErrIterationLimit = errors.New("iteration limit reached")
)

// ValidationError reports a malformed request field. Maps to HTTP 400.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// SecurityBlockError carries a localized block reason for the caller.
// Maps to HTTP 403 with {blocked:true, reason}.
type SecurityBlockError struct {
	Reason    string
	RiskScore int
}

func (e *SecurityBlockError) Error() string {
	return "request blocked: " + e.Reason
}

// UpstreamModelError wraps a failure from the model API.
type UpstreamModelError struct {
	Provider string
	Model    string
	Cause    error
}

func (e *UpstreamModelError) Error() string {
	return fmt.Sprintf("model call failed (%s/%s): %v", e.Provider, e.Model, e.Cause)
}

func (e *UpstreamModelError) Unwrap() error { return e.Cause }

// ToolExecutionError wraps a tool failure. It is fed back to the model as an
// error result, never surfaced to the caller directly.
type ToolExecutionError struct {
	ToolName   string
	ToolCallID string
	Cause      error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %s failed: %v", e.ToolName, e.Cause)
}

func (e *ToolExecutionError) Unwrap() error { return e.Cause }

// TransportError marks a broken caller connection or cancelled request.
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %v", e.Cause)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// LoopError annotates a failure with the loop phase and iteration it
// occurred in.
type LoopError struct {
	Phase     LoopPhase
	Iteration int
	Cause     error
}

func (e *LoopError) Error() string {
	return fmt.Sprintf("loop error at %s (iteration %d): %v", e.Phase, e.Iteration, e.Cause)
}

func (e *LoopError) Unwrap() error { return e.Cause }

// LoopPhase is a distinct stage in the orchestration loop lifecycle.
type LoopPhase string

const (
	// PhaseStart is request validation and state setup.
	PhaseStart LoopPhase = "start"

	// PhaseModelCall is the model streaming stage.
	PhaseModelCall LoopPhase = "model_call"

	// PhaseToolDispatch is the tool execution stage.
	PhaseToolDispatch LoopPhase = "tool_dispatch"

	// PhaseFinalize is output filtering and delivery of the final reply.
	PhaseFinalize LoopPhase = "finalize"

	// PhaseEnd closes the stream.
	PhaseEnd LoopPhase = "end"
)
