/*
Package runtime hosts the enclave boundary engine and the Watermill service
that exposes it over a message broker.

# Boundary Engine (engine.go)

Engine.Process is the single entry point used by the native library: encoded
request bytes in, encoded response bytes out. Decode failures become failure
responses with request id "unknown". A nil result is the null sentinel and
only happens when the response cannot be encoded or a panic was recovered.
Engine.ProcessWithTrace also reports the stages a call went through.

## Metrics (boundary_metrics.go)

BoundaryMetrics counts calls per payload variant and outcome, sentinels per
reason and requests moved to the poison topic. Metrics are optional; a nil
collector is a no-op.

# Service (service.go)

The Service consumes encoded requests from the request topic, runs them
through the engine and publishes encoded responses to the response topic.
The transport is picked by name from the transport registry.

## Middleware (middleware.go)

The default chain, outermost first:
  - CorrelationID: fills correlation_id when the producer did not
  - LogMessages: logs message ids and sizes, never payloads
  - Tracer: OpenTelemetry consumer span per message
  - Metrics: Watermill Prometheus router metrics
  - Retry: exponential backoff, skipping unprocessable requests
  - PoisonQueue: routes null-sentinel requests to the poison topic
  - Recoverer: panic recovery

## Publishing (publisher.go)

PublishRequest and ResponseFromMessage let producers talk to a running
service without touching the wire format.

# Sub-packages

  - codec/: enclave.v1 binary and JSON codec
  - config/: koanf-backed configuration with validation
  - dispatch/: variant routing
  - envelope/: request and response model
  - errors/: sentinel errors
  - handlers/: prover interfaces and mock provers
  - ids/: ULID correlation and message ids
  - jsoncodec/: JSON helpers for tooling output
  - logging/: logger interface and adapters
  - metadata/: broker header keys
  - schema/: embedded enclave.v1 descriptors
  - transport/: connects the config to the transport registry
*/
package runtime
