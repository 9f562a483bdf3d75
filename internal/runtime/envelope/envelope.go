// Package envelope holds the Go data model exchanged across the enclave
// boundary. Every value is created per call and never shared between calls.
package envelope

import (
	"fmt"
	"log/slog"
)

// UnknownRequestID is echoed when the request could not be decoded.
const UnknownRequestID = "unknown"

// Variant names the active member of a request payload.
type Variant string

const (
	VariantNone       Variant = "none"
	VariantIdentity   Variant = "identity"
	VariantGovernance Variant = "governance"
	VariantIncome     Variant = "income"
	VariantHealth     Variant = "health"
)

// Variants lists every payload variant, empty payload included.
func Variants() []Variant {
	return []Variant{VariantNone, VariantIdentity, VariantGovernance, VariantIncome, VariantHealth}
}

// Payload is the tagged union carried by a Request. Only the types in this
// package implement it, so a Request holds at most one variant; a nil Payload
// is the empty case.
type Payload interface {
	Variant() Variant
	isPayload()
}

// VariantOf reports the variant of p, including VariantNone for nil.
func VariantOf(p Payload) Variant {
	if p == nil {
		return VariantNone
	}
	return p.Variant()
}

// Request is the decoded inbound envelope.
type Request struct {
	RequestID string
	Payload   Payload
}

// Variant reports the active payload variant.
func (r Request) Variant() Variant {
	return VariantOf(r.Payload)
}

func (r Request) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("request_id", r.RequestID),
		slog.String("variant", string(r.Variant())),
	}
	if lv, ok := r.Payload.(slog.LogValuer); ok {
		attrs = append(attrs, slog.Any("payload", lv))
	}
	return slog.GroupValue(attrs...)
}

// IdentityPayload asks for an attribute proof. EncryptedIdentitySeed is opaque
// and never rendered.
type IdentityPayload struct {
	AttributeID           string
	EncryptedIdentitySeed []byte
}

func (*IdentityPayload) Variant() Variant { return VariantIdentity }
func (*IdentityPayload) isPayload()       {}

func (p *IdentityPayload) String() string {
	return fmt.Sprintf("identity{attribute_id=%q seed=%s}", p.AttributeID, redacted(p.EncryptedIdentitySeed))
}

func (p *IdentityPayload) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("attribute_id", p.AttributeID),
		slog.Int("encrypted_identity_seed_len", len(p.EncryptedIdentitySeed)),
	)
}

// GovernancePayload asks for a vote proof.
type GovernancePayload struct {
	ProposalID        string
	VoteChoice        string
	IdentitySignature []byte
}

func (*GovernancePayload) Variant() Variant { return VariantGovernance }
func (*GovernancePayload) isPayload()       {}

func (p *GovernancePayload) String() string {
	return fmt.Sprintf("governance{proposal_id=%q vote_choice=%q signature=%s}", p.ProposalID, p.VoteChoice, redacted(p.IdentitySignature))
}

func (p *GovernancePayload) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("proposal_id", p.ProposalID),
		slog.String("vote_choice", p.VoteChoice),
		slog.Int("identity_signature_len", len(p.IdentitySignature)),
	)
}

// IncomePayload asks for a payment proof.
type IncomePayload struct {
	Amount         int64
	ReceiverPubkey string
}

func (*IncomePayload) Variant() Variant { return VariantIncome }
func (*IncomePayload) isPayload()       {}

func (p *IncomePayload) String() string {
	return fmt.Sprintf("income{amount=%d receiver_pubkey=%q}", p.Amount, p.ReceiverPubkey)
}

func (p *IncomePayload) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("amount", p.Amount),
		slog.String("receiver_pubkey", p.ReceiverPubkey),
	)
}

// HealthPayload carries no fields; its presence selects the health prover.
type HealthPayload struct{}

func (*HealthPayload) Variant() Variant { return VariantHealth }
func (*HealthPayload) isPayload()       {}
func (*HealthPayload) String() string   { return "health{}" }

// Response is the outbound envelope. ErrorMessage is empty and ProofData
// non-nil only on success.
type Response struct {
	RequestID    string
	Success      bool
	ErrorMessage string
	ProofData    []byte
}

// Failure builds a failed response with an empty proof.
func Failure(requestID, message string) Response {
	return Response{RequestID: requestID, ErrorMessage: message}
}

// Succeeded builds a successful response.
func Succeeded(requestID string, proof []byte) Response {
	return Response{RequestID: requestID, Success: true, ProofData: proof}
}

func (r Response) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("request_id", r.RequestID),
		slog.Bool("success", r.Success),
		slog.String("error_message", r.ErrorMessage),
		slog.Int("proof_data_len", len(r.ProofData)),
	)
}

func redacted(b []byte) string {
	if len(b) == 0 {
		return "<empty>"
	}
	return fmt.Sprintf("<%d bytes>", len(b))
}
