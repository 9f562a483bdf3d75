package metadata

// Metadata keys set on messages the enclave service publishes.
// These keys are reserved and should not be used for custom metadata.
const (
	// KeyCorrelationID tracks a request and its response across services.
	KeyCorrelationID = "correlation_id"

	// KeyRequestUUID carries the request id echoed in the response.
	KeyRequestUUID = "enclave_request_uuid"

	// KeyVariant names the payload variant that was dispatched.
	KeyVariant = "enclave_variant"

	// KeyOutcome is "success", "failure" or "decode_error".
	KeyOutcome = "enclave_outcome"

	// KeyTraceID stores distributed tracing ID.
	KeyTraceID = "trace_id"

	// KeySpanID stores distributed tracing span ID.
	KeySpanID = "span_id"
)
