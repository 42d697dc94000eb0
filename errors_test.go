package autotranslate

import (
	"errors"
	"strings"
	"testing"
)

func TestTransportError(t *testing.T) {
	cause := errors.New("connection refused")
	err := &TransportError{Message: "request failed", Cause: cause, Retryable: true}

	if !strings.Contains(err.Error(), "transport error") {
		t.Errorf("Error() = %q, should mention transport error", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("TransportError should unwrap to its cause")
	}
}

func TestProtocolError_FinishReason(t *testing.T) {
	err := &ProtocolError{Reason: "model did not finish", FinishReason: "length"}

	if !strings.Contains(err.Error(), `"length"`) {
		t.Errorf("Error() = %q, should include finish reason", err.Error())
	}
}

func TestMarkupError(t *testing.T) {
	err := &MarkupError{UnitID: "element3", Message: "unknown relative id"}

	if !strings.Contains(err.Error(), "element3") {
		t.Errorf("Error() = %q, should include unit id", err.Error())
	}
}

func TestBatchError_Unwrap(t *testing.T) {
	inner := &ProtocolError{Reason: "no choices"}
	err := &BatchError{Index: 2, Units: 5, Cause: inner}

	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatal("BatchError should unwrap to ProtocolError")
	}
	if !strings.HasPrefix(err.Error(), "batch 2 (5 units)") {
		t.Errorf("unexpected message: %s", err.Error())
	}
}
