// Package dispatch routes a decoded request to the prover registered for its
// payload variant and folds the prover's outcome into a response.
package dispatch

import (
	"context"
	"strings"

	"github.com/drblury/protoenclave/internal/runtime/envelope"
	"github.com/drblury/protoenclave/internal/runtime/handlers"
)

// DefaultFailureMessage replaces an empty message on a failed outcome.
const DefaultFailureMessage = "request failed"

// Dispatcher is stateless and safe for concurrent use.
type Dispatcher struct {
	set handlers.HandlerSet
}

// New builds a dispatcher over set. Nil provers fall back to the mocks.
func New(set handlers.HandlerSet) *Dispatcher {
	return &Dispatcher{set: set.WithDefaults()}
}

// Dispatch never fails by itself. The response always carries
// req.RequestID; prover errors become failure responses with the error text.
// Panics raised by a prover are left to the caller's recovery boundary.
func (d *Dispatcher) Dispatch(ctx context.Context, req envelope.Request) envelope.Response {
	out, err := d.route(ctx, req.Payload)
	return respond(req.RequestID, out, err)
}

func (d *Dispatcher) route(ctx context.Context, payload envelope.Payload) (handlers.Outcome, error) {
	switch p := payload.(type) {
	case *envelope.IdentityPayload:
		return d.set.Identity.ProveIdentity(ctx, p)
	case *envelope.GovernancePayload:
		return d.set.Governance.ProveVote(ctx, p)
	case *envelope.IncomePayload:
		return d.set.Income.ProvePayment(ctx, p)
	case *envelope.HealthPayload:
		return d.set.Health.ProveHealth(ctx, p)
	default:
		return d.set.Default.ProveDefault(ctx)
	}
}

func respond(requestID string, out handlers.Outcome, err error) envelope.Response {
	if err != nil {
		return envelope.Failure(requestID, failureMessage(err.Error()))
	}
	if !out.Success {
		return envelope.Failure(requestID, failureMessage(out.ErrorMessage))
	}
	return envelope.Succeeded(requestID, out.ProofData)
}

// failureMessage keeps prover text encodable as a proto3 string.
func failureMessage(msg string) string {
	msg = strings.ToValidUTF8(msg, "�")
	if msg == "" {
		return DefaultFailureMessage
	}
	return msg
}
