// Package obstrace wires a minimal OpenTelemetry tracer for the core's two
// longest-running operations: launcher.Start (including the readiness loop)
// and each verification assertion. No exporter is configured — spans are
// recorded in-process only, since no external collector is part of this
// core.
package obstrace

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Tracer starts spans for hosting/verification operations.
type Tracer struct {
	tracer oteltrace.Tracer
}

// New builds a process-local tracer provider scoped to serviceName and
// registers it as the default so nested spans (e.g. a verification inside
// a page action) share a trace.
func New(serviceName string) *Tracer {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", serviceName),
		)),
	)
	otel.SetTracerProvider(tp)
	return &Tracer{tracer: otel.Tracer(serviceName)}
}

// StartSpan starts a span named name, returning the derived context and a
// finish function the caller must invoke (typically via defer).
func (t *Tracer) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func()) {
	if t == nil || t.tracer == nil {
		return ctx, func() {}
	}
	ctx, span := t.tracer.Start(ctx, name, oteltrace.WithAttributes(attrs...))
	return ctx, func() { span.End() }
}
