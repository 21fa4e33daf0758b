package telemetry

import (
	"context"
	"errors"
	"testing"
)

// TestRecordRPC_NoPanic confirms the default (no configured MeterProvider)
// recording path is a safe no-op: lazy instrument init against OTel's
// no-op global meter provider must never panic.
func TestRecordRPC_NoPanic(t *testing.T) {
	r := NewRecorder()
	r.RecordRPC(context.Background(), "exec", 42, nil)
	r.RecordRPC(context.Background(), "exec", 7, errors.New("boom"))
}

func TestStatusStr(t *testing.T) {
	if got := statusStr(nil); got != "ok" {
		t.Fatalf("statusStr(nil) = %q, want ok", got)
	}
	if got := statusStr(errors.New("x")); got != "error" {
		t.Fatalf("statusStr(err) = %q, want error", got)
	}
}
