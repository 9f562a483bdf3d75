package metadata

import "github.com/drblury/protoenclave/internal/runtime/envelope"

// Metadata represents the headers carried alongside a brokered enclave
// request or response. Payload bytes never appear here.
type Metadata map[string]string

// Clone returns a shallow copy of the metadata map. It never returns nil.
func (m Metadata) Clone() Metadata {
	cloned := make(Metadata, len(m))
	for k, v := range m {
		cloned[k] = v
	}
	return cloned
}

// With returns a cloned metadata map containing the provided key/value pair.
// Empty values are skipped.
func (m Metadata) With(key, value string) Metadata {
	cloned := m.Clone()
	if value != "" {
		cloned[key] = value
	}
	return cloned
}

// ForResponse builds the headers published next to an encoded response.
func ForResponse(correlationID, requestID string, variant envelope.Variant, outcome string) Metadata {
	return Metadata{}.
		With(KeyCorrelationID, correlationID).
		With(KeyRequestUUID, requestID).
		With(KeyVariant, string(variant)).
		With(KeyOutcome, outcome)
}
