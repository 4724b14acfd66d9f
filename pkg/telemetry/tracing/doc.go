// Package tracing provides OpenTelemetry tracing for ferry.
//
// # Overview
//
// The policy store opens a span per data operation ("policy.Set",
// "policy.Get", "policy.Remove") and a "policy.dispatch" span around each
// notification walk. Operations made by
// callbacks are children of the dispatch span, so nested mutations show up
// in the trace tree. This package builds the tracer provider those spans go
// to.
//
// # Export
//
// Spans are batched to an OTLP gRPC collector:
//
//	telemetry:
//	  tracing:
//	    enabled: true
//	    endpoint: "localhost:4317"
//	    otlp:
//	      insecure: true
//
// When tracing is disabled a noop tracer is used.
//
// # Sampling Strategies
//
// Three sampling strategies are supported:
//   - always: Sample all traces
//   - never: Sample no traces
//   - ratio: Sample a fraction of traces by trace ID
//
// All samplers respect the parent span's decision.
//
// # Usage
//
//	tracer, err := tracing.New(ctx, &cfg.Telemetry.Tracing)
//	if err != nil {
//		return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	svc := store.New(environment, store.WithTracer(tracer.Tracer()))
package tracing
