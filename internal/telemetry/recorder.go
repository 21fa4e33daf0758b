// Package telemetry records RPC counters and durations for the sandbox
// core's exec and patch calls as OTel metric instruments. Upload/download
// and preview-link calls are not recorded.
package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/nextlevelbuilder/sandboxcore"

type instruments struct {
	rpcTotal      metric.Int64Counter
	rpcDurationMS metric.Float64Histogram
}

var (
	instOnce sync.Once
	inst     instruments
)

func initInstruments() {
	instOnce.Do(func() {
		m := otel.GetMeterProvider().Meter(meterName)

		inst.rpcTotal, _ = m.Int64Counter("sandbox.rpc.total",
			metric.WithDescription("Total sandbox core RPC calls"),
		)
		inst.rpcDurationMS, _ = m.Float64Histogram("sandbox.rpc.duration_ms",
			metric.WithDescription("Sandbox core RPC round-trip latency"),
			metric.WithUnit("ms"),
		)
	})
}

func statusStr(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Recorder implements sandbox.MetricsRecorder against the process-wide
// OTel MeterProvider, lazily resolved on first record.
type Recorder struct{}

// NewRecorder returns a Recorder. Instruments are initialized lazily so
// construction never depends on telemetry setup having already run.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// RecordRPC records one sandbox core operation's outcome and duration.
func (r *Recorder) RecordRPC(ctx context.Context, op string, durationMS int64, err error) {
	initInstruments()
	status := statusStr(err)
	attrs := metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("status", status),
	)
	inst.rpcTotal.Add(ctx, 1, attrs)
	inst.rpcDurationMS.Record(ctx, float64(durationMS), attrs)
}
