package handlers

import (
	"context"
	"strconv"

	"github.com/drblury/protoenclave/internal/runtime/envelope"
)

// InvalidAttributeID is rejected by the mock identity prover.
const InvalidAttributeID = "invalid"

// Proof prefixes keep mock outputs of different variants distinguishable.
const (
	IdentityProofPrefix   = "zkp:identity:"
	GovernanceProofPrefix = "zkp:governance:"
	IncomeProofPrefix     = "zkp:income:"
)

// PlaceholderProof is returned for health and empty-payload requests.
var PlaceholderProof = []byte{0xCA, 0xFE, 0xBA, 0xBE}

// MockOptions tunes the mock provers.
type MockOptions struct {
	// RejectNegativeAmounts turns negative income amounts into a semantic
	// failure instead of a proof.
	RejectNegativeAmounts bool
}

// NewMockSet returns the deterministic placeholder provers.
func NewMockSet(opts MockOptions) HandlerSet {
	return HandlerSet{
		Identity:   IdentityProverFunc(mockIdentity),
		Governance: GovernanceProverFunc(mockGovernance),
		Income: IncomeProverFunc(func(ctx context.Context, p *envelope.IncomePayload) (Outcome, error) {
			return mockIncome(ctx, p, opts.RejectNegativeAmounts)
		}),
		Health:  HealthProverFunc(mockHealth),
		Default: DefaultProverFunc(mockDefault),
	}
}

func mockIdentity(_ context.Context, p *envelope.IdentityPayload) (Outcome, error) {
	if p.AttributeID == InvalidAttributeID {
		return Outcome{}, &SemanticValidationError{Field: "attribute_id", Err: ErrInvalidAttribute}
	}
	// A real prover would verify the encrypted identity seed here.
	return Proof([]byte(IdentityProofPrefix + p.AttributeID)), nil
}

func mockGovernance(_ context.Context, p *envelope.GovernancePayload) (Outcome, error) {
	return Proof([]byte(GovernanceProofPrefix + p.ProposalID)), nil
}

func mockIncome(_ context.Context, p *envelope.IncomePayload, rejectNegative bool) (Outcome, error) {
	if rejectNegative && p.Amount < 0 {
		return Outcome{}, &SemanticValidationError{Field: "amount", Err: ErrInvalidAmount}
	}
	proof := IncomeProofPrefix + p.ReceiverPubkey + ":" + strconv.FormatInt(p.Amount, 10)
	return Proof([]byte(proof)), nil
}

func mockHealth(context.Context, *envelope.HealthPayload) (Outcome, error) {
	return Proof(placeholder()), nil
}

func mockDefault(context.Context) (Outcome, error) {
	return Proof(placeholder()), nil
}

// placeholder hands out a copy so callers can never mutate PlaceholderProof.
func placeholder() []byte {
	out := make([]byte, len(PlaceholderProof))
	copy(out, PlaceholderProof)
	return out
}
