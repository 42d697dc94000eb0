package autotranslate

import (
	"errors"
	"fmt"
)

// ErrTranslationInProgress is returned when a translation is requested while
// another one is still outstanding on the same page.
var ErrTranslationInProgress = errors.New("translation already in progress")

// TransportError indicates the model endpoint could not be reached or
// answered with an HTTP-level failure.
type TransportError struct {
	Message   string
	Cause     error
	Retryable bool // Whether the request can be retried
}

func (e *TransportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("transport error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("transport error: %s", e.Message)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// ProtocolError indicates a response that arrived but cannot be used:
// no choices, a finish reason other than "stop", or content that is not the
// expected JSON object.
type ProtocolError struct {
	Reason       string
	FinishReason string // Set when the model stopped for a reason other than "stop"
	Cause        error
}

func (e *ProtocolError) Error() string {
	msg := "protocol error: " + e.Reason
	if e.FinishReason != "" {
		msg += fmt.Sprintf(" (finish reason %q)", e.FinishReason)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ProtocolError) Unwrap() error {
	return e.Cause
}

// MarkupError indicates translated content for a single unit could not be
// restored into the page. Only that unit is skipped.
type MarkupError struct {
	UnitID  string
	Message string
	Cause   error
}

func (e *MarkupError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("markup error (%s): %s: %v", e.UnitID, e.Message, e.Cause)
	}
	return fmt.Sprintf("markup error (%s): %s", e.UnitID, e.Message)
}

func (e *MarkupError) Unwrap() error {
	return e.Cause
}

// BatchError wraps a failure of one request batch.
type BatchError struct {
	Index int // Position of the batch in dispatch order
	Units int // Number of units left untranslated
	Cause error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch %d (%d units): %v", e.Index, e.Units, e.Cause)
}

func (e *BatchError) Unwrap() error {
	return e.Cause
}
