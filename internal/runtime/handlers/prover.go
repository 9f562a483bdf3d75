// Package handlers defines the prover contract the dispatcher routes to and
// ships the deterministic mock provers that stand in for real ZK/MPC code.
//
// A prover receives one typed payload and returns an Outcome. Returning an
// error is equivalent to a failed Outcome carrying the error text; the
// dispatcher turns either into a failure response that still echoes the
// request id.
package handlers

import (
	"context"

	"github.com/drblury/protoenclave/internal/runtime/envelope"
)

// Outcome is what a prover hands back to the dispatcher.
type Outcome struct {
	Success      bool
	ErrorMessage string
	ProofData    []byte
}

// Proof builds a successful outcome.
func Proof(data []byte) Outcome {
	return Outcome{Success: true, ProofData: data}
}

// Failed builds a failed outcome with an empty proof.
func Failed(message string) Outcome {
	return Outcome{ErrorMessage: message}
}

type IdentityProver interface {
	ProveIdentity(ctx context.Context, p *envelope.IdentityPayload) (Outcome, error)
}

type GovernanceProver interface {
	ProveVote(ctx context.Context, p *envelope.GovernancePayload) (Outcome, error)
}

type IncomeProver interface {
	ProvePayment(ctx context.Context, p *envelope.IncomePayload) (Outcome, error)
}

type HealthProver interface {
	ProveHealth(ctx context.Context, p *envelope.HealthPayload) (Outcome, error)
}

// DefaultProver serves requests that carry no payload.
type DefaultProver interface {
	ProveDefault(ctx context.Context) (Outcome, error)
}

type IdentityProverFunc func(ctx context.Context, p *envelope.IdentityPayload) (Outcome, error)

func (f IdentityProverFunc) ProveIdentity(ctx context.Context, p *envelope.IdentityPayload) (Outcome, error) {
	return f(ctx, p)
}

type GovernanceProverFunc func(ctx context.Context, p *envelope.GovernancePayload) (Outcome, error)

func (f GovernanceProverFunc) ProveVote(ctx context.Context, p *envelope.GovernancePayload) (Outcome, error) {
	return f(ctx, p)
}

type IncomeProverFunc func(ctx context.Context, p *envelope.IncomePayload) (Outcome, error)

func (f IncomeProverFunc) ProvePayment(ctx context.Context, p *envelope.IncomePayload) (Outcome, error) {
	return f(ctx, p)
}

type HealthProverFunc func(ctx context.Context, p *envelope.HealthPayload) (Outcome, error)

func (f HealthProverFunc) ProveHealth(ctx context.Context, p *envelope.HealthPayload) (Outcome, error) {
	return f(ctx, p)
}

type DefaultProverFunc func(ctx context.Context) (Outcome, error)

func (f DefaultProverFunc) ProveDefault(ctx context.Context) (Outcome, error) {
	return f(ctx)
}

// HandlerSet groups one prover per payload variant. Nil members are filled
// with the mock provers by WithDefaults.
type HandlerSet struct {
	Identity   IdentityProver
	Governance GovernanceProver
	Income     IncomeProver
	Health     HealthProver
	Default    DefaultProver
}

// WithDefaults returns a copy of s with every nil prover replaced by the
// matching mock from NewMockSet(MockOptions{}).
func (s HandlerSet) WithDefaults() HandlerSet {
	mocks := NewMockSet(MockOptions{})
	if s.Identity == nil {
		s.Identity = mocks.Identity
	}
	if s.Governance == nil {
		s.Governance = mocks.Governance
	}
	if s.Income == nil {
		s.Income = mocks.Income
	}
	if s.Health == nil {
		s.Health = mocks.Health
	}
	if s.Default == nil {
		s.Default = mocks.Default
	}
	return s
}
