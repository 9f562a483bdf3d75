// Package protoenclave is the native boundary of a privacy enclave: encoded
// EnclaveRequest bytes go in, encoded EnclaveResponse bytes come out, and no
// panic or error ever crosses the boundary. Requests carry at most one
// payload variant (identity, governance, income or health) and are routed to
// a prover for that variant. The bundled provers are deterministic mocks that
// stand in for real ZK/MPC code.
//
// Engine.Process is the entry point shared by the cgo library in
// cmd/libprotoenclave and the enclavectl CLI. Malformed input yields a
// failure response with request id "unknown"; the null sentinel (a nil
// result) is reserved for responses that cannot be encoded and for recovered
// panics.
//
// # Service mode
//
// Service hosts the same engine behind a Watermill router: requests are read
// from a topic, responses are published to another, and requests answered
// with the null sentinel are moved to a poison topic. The broker is picked by
// Config.Service.PubSubSystem from the transport registry:
//   - channel: in-memory Go channels for tests and local runs
//   - kafka: consumer groups over IBM/sarama
//   - rabbitmq: durable AMQP work queue
//   - nats: core NATS with a queue group
//   - http: webhook style delivery
//   - aws: SNS/SQS with LocalStack support
//
// # Middleware
//
// The default chain adds correlation ids, size-only message logging,
// OpenTelemetry spans, Prometheus router metrics, retries for transient
// errors, poison queue forwarding and panic recovery. Custom middleware is
// appended through ServiceDependencies.Middlewares.
package protoenclave
