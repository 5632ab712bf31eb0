package reliability

import (
	"errors"
	"fmt"
)

// Error classes for session failures. Every error crossing a component
// boundary is wrapped in exactly one of these so handlers and metrics can
// classify it without string matching.

// AcquisitionError reports that a hardware grant (microphone or camera)
// was denied or timed out. Fatal to session start.
type AcquisitionError struct {
	Device string
	Err    error
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("media acquisition failed for %s: %v", e.Device, e.Err)
}

func (e *AcquisitionError) Unwrap() error { return e.Err }

// TransportError reports a failure of the live model connection. Terminal
// for the current session; the caller decides whether to start over.
type TransportError struct {
	Op        string
	Retryable bool
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ToolExecutionError reports a failed tool handler side effect. Recovered at
// the dispatcher boundary; never ends the session.
type ToolExecutionError struct {
	Tool string
	Err  error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %s: %v", e.Tool, e.Err)
}

func (e *ToolExecutionError) Unwrap() error { return e.Err }

// ConfigurationError reports missing or inconsistent persona settings.
// Fatal to session start, raised before any hardware is touched.
type ConfigurationError struct {
	Field  string
	Detail string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error (%s): %s", e.Field, e.Detail)
}

// ProtocolViolation reports an unmapped tool name or malformed arguments from
// the model. Handled like a tool failure: logged, answered, session continues.
type ProtocolViolation struct {
	Detail string
}

func (e *ProtocolViolation) Error() string {
	return fmt.Sprintf("protocol violation: %s", e.Detail)
}

// Class labels used for metrics and wire error codes.
const (
	ClassAcquisition   = "acquisition"
	ClassTransport     = "transport"
	ClassToolExecution = "tool_execution"
	ClassConfiguration = "configuration"
	ClassProtocol      = "protocol_violation"
	ClassUnknown       = "unknown"
)

// Classify maps an error to its taxonomy class label.
func Classify(err error) string {
	var acq *AcquisitionError
	var tr *TransportError
	var tool *ToolExecutionError
	var cfg *ConfigurationError
	var proto *ProtocolViolation
	switch {
	case errors.As(err, &acq):
		return ClassAcquisition
	case errors.As(err, &tr):
		return ClassTransport
	case errors.As(err, &tool):
		return ClassToolExecution
	case errors.As(err, &cfg):
		return ClassConfiguration
	case errors.As(err, &proto):
		return ClassProtocol
	default:
		return ClassUnknown
	}
}

// Retryable reports whether the caller may usefully retry the failed
// operation. Only transport errors carry retry semantics.
func Retryable(err error) bool {
	var tr *TransportError
	if errors.As(err, &tr) {
		return tr.Retryable
	}
	return false
}
