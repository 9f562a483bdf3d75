// Package codec converts between enclave.v1 wire bytes and the envelope
// model. Decoding is total: any byte sequence yields a Request or a
// *DecodeError, never a panic. Decoding performs no semantic validation.
package codec

import (
	"bytes"
	"fmt"
	"strings"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/drblury/protoenclave/internal/runtime/envelope"
	"github.com/drblury/protoenclave/internal/runtime/schema"
)

// DefaultMaxRequestBytes bounds request buffers accepted by New.
const DefaultMaxRequestBytes = 4 << 20

// Format selects the wire representation.
type Format string

const (
	// FormatBinary is the protobuf wire format used across the boundary.
	FormatBinary Format = "binary"
	// FormatJSON is the protojson form, for debugging and tooling.
	FormatJSON Format = "json"
)

// ParseFormat accepts "binary", "proto", "json" or an empty string (binary).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "binary", "proto", "protobuf":
		return FormatBinary, nil
	case "json", "protojson":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

var (
	binaryUnmarshal = proto.UnmarshalOptions{DiscardUnknown: true}
	binaryMarshal   = proto.MarshalOptions{Deterministic: true}
	jsonUnmarshal   = protojson.UnmarshalOptions{DiscardUnknown: true}
	jsonMarshal     = protojson.MarshalOptions{EmitUnpopulated: true}
)

var (
	reqIDField         = schema.Field(schema.Request, schema.FieldRequestID)
	reqIdentityField   = schema.Field(schema.Request, schema.FieldIdentityReq)
	reqGovernanceField = schema.Field(schema.Request, schema.FieldGovernanceReq)
	reqIncomeField     = schema.Field(schema.Request, schema.FieldIncomeReq)
	reqHealthField     = schema.Field(schema.Request, schema.FieldHealthReq)

	attributeIDField  = schema.Field(schema.Identity, schema.FieldAttributeID)
	identitySeedField = schema.Field(schema.Identity, schema.FieldEncryptedIdentitySeed)

	proposalIDField = schema.Field(schema.Governance, schema.FieldProposalID)
	voteChoiceField = schema.Field(schema.Governance, schema.FieldVoteChoice)
	signatureField  = schema.Field(schema.Governance, schema.FieldIdentitySignature)

	amountField   = schema.Field(schema.Income, schema.FieldAmount)
	receiverField = schema.Field(schema.Income, schema.FieldReceiverPubkey)

	respIDField      = schema.Field(schema.Response, schema.FieldRequestID)
	respSuccessField = schema.Field(schema.Response, schema.FieldSuccess)
	respErrorField   = schema.Field(schema.Response, schema.FieldErrorMessage)
	respProofField   = schema.Field(schema.Response, schema.FieldProofData)
)

// Option customises a Codec.
type Option func(*Codec)

// WithFormat selects the wire representation.
func WithFormat(format Format) Option {
	return func(c *Codec) {
		c.format = format
	}
}

// WithMaxRequestBytes bounds accepted request buffers. Zero or a negative
// value disables the limit.
func WithMaxRequestBytes(n int) Option {
	return func(c *Codec) {
		c.maxRequestBytes = n
	}
}

// Codec is stateless after construction and safe for concurrent use.
type Codec struct {
	format          Format
	maxRequestBytes int
}

// New returns a binary codec with DefaultMaxRequestBytes unless overridden.
func New(opts ...Option) *Codec {
	c := &Codec{format: FormatBinary, maxRequestBytes: DefaultMaxRequestBytes}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Format reports the wire representation in use.
func (c *Codec) Format() Format {
	return c.format
}

// DecodeRequest parses b into a Request.
func (c *Codec) DecodeRequest(b []byte) (req envelope.Request, err error) {
	defer func() {
		if r := recover(); r != nil {
			req = envelope.Request{}
			err = &DecodeError{Reason: fmt.Sprintf("panic while decoding request: %v", r)}
		}
	}()

	if c.maxRequestBytes > 0 && len(b) > c.maxRequestBytes {
		return envelope.Request{}, &DecodeError{
			Reason: fmt.Sprintf("request is %d bytes, limit is %d", len(b), c.maxRequestBytes),
			Err:    ErrRequestTooLarge,
		}
	}

	msg := dynamicpb.NewMessage(schema.Request)
	if err := c.unmarshal(b, msg); err != nil {
		return envelope.Request{}, decodeFailure(err)
	}
	return requestFromMessage(msg), nil
}

// EncodeRequest serialises req. Hosts use it to build boundary input.
func (c *Codec) EncodeRequest(req envelope.Request) ([]byte, error) {
	msg := dynamicpb.NewMessage(schema.Request)
	msg.Set(reqIDField, protoreflect.ValueOfString(req.RequestID))

	if req.Payload != nil {
		field, sub, err := payloadMessage(req.Payload)
		if err != nil {
			return nil, encodeFailure(err)
		}
		msg.Set(field, protoreflect.ValueOfMessage(sub))
	}

	out, err := c.marshal(msg)
	if err != nil {
		return nil, encodeFailure(err)
	}
	return out, nil
}

// DecodeResponse parses b into a Response.
func (c *Codec) DecodeResponse(b []byte) (resp envelope.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp = envelope.Response{}
			err = &DecodeError{Reason: fmt.Sprintf("panic while decoding response: %v", r)}
		}
	}()

	msg := dynamicpb.NewMessage(schema.Response)
	if err := c.unmarshal(b, msg); err != nil {
		return envelope.Response{}, decodeFailure(err)
	}
	return envelope.Response{
		RequestID:    msg.Get(respIDField).String(),
		Success:      msg.Get(respSuccessField).Bool(),
		ErrorMessage: msg.Get(respErrorField).String(),
		ProofData:    cloneBytes(msg.Get(respProofField).Bytes()),
	}, nil
}

// EncodeResponse serialises resp.
func (c *Codec) EncodeResponse(resp envelope.Response) ([]byte, error) {
	msg := dynamicpb.NewMessage(schema.Response)
	msg.Set(respIDField, protoreflect.ValueOfString(resp.RequestID))
	msg.Set(respSuccessField, protoreflect.ValueOfBool(resp.Success))
	msg.Set(respErrorField, protoreflect.ValueOfString(resp.ErrorMessage))
	msg.Set(respProofField, protoreflect.ValueOfBytes(resp.ProofData))

	out, err := c.marshal(msg)
	if err != nil {
		return nil, encodeFailure(err)
	}
	if out == nil {
		out = []byte{}
	}
	return out, nil
}

func (c *Codec) unmarshal(b []byte, msg proto.Message) error {
	switch c.format {
	case FormatBinary, "":
		return binaryUnmarshal.Unmarshal(b, msg)
	case FormatJSON:
		return jsonUnmarshal.Unmarshal(b, msg)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, c.format)
	}
}

func (c *Codec) marshal(msg proto.Message) ([]byte, error) {
	switch c.format {
	case FormatBinary, "":
		return binaryMarshal.Marshal(msg)
	case FormatJSON:
		return jsonMarshal.Marshal(msg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, c.format)
	}
}

func requestFromMessage(msg *dynamicpb.Message) envelope.Request {
	req := envelope.Request{RequestID: msg.Get(reqIDField).String()}

	field := msg.WhichOneof(schema.Payload)
	if field == nil {
		return req
	}
	sub := msg.Get(field).Message()

	switch field.Number() {
	case reqIdentityField.Number():
		req.Payload = &envelope.IdentityPayload{
			AttributeID:           sub.Get(attributeIDField).String(),
			EncryptedIdentitySeed: cloneBytes(sub.Get(identitySeedField).Bytes()),
		}
	case reqGovernanceField.Number():
		req.Payload = &envelope.GovernancePayload{
			ProposalID:        sub.Get(proposalIDField).String(),
			VoteChoice:        sub.Get(voteChoiceField).String(),
			IdentitySignature: cloneBytes(sub.Get(signatureField).Bytes()),
		}
	case reqIncomeField.Number():
		req.Payload = &envelope.IncomePayload{
			Amount:         sub.Get(amountField).Int(),
			ReceiverPubkey: sub.Get(receiverField).String(),
		}
	case reqHealthField.Number():
		req.Payload = &envelope.HealthPayload{}
	}
	return req
}

func payloadMessage(p envelope.Payload) (protoreflect.FieldDescriptor, *dynamicpb.Message, error) {
	switch v := p.(type) {
	case *envelope.IdentityPayload:
		if v == nil {
			return nil, nil, ErrEmptyOneofMessage
		}
		sub := dynamicpb.NewMessage(schema.Identity)
		sub.Set(attributeIDField, protoreflect.ValueOfString(v.AttributeID))
		sub.Set(identitySeedField, protoreflect.ValueOfBytes(v.EncryptedIdentitySeed))
		return reqIdentityField, sub, nil
	case *envelope.GovernancePayload:
		if v == nil {
			return nil, nil, ErrEmptyOneofMessage
		}
		sub := dynamicpb.NewMessage(schema.Governance)
		sub.Set(proposalIDField, protoreflect.ValueOfString(v.ProposalID))
		sub.Set(voteChoiceField, protoreflect.ValueOfString(v.VoteChoice))
		sub.Set(signatureField, protoreflect.ValueOfBytes(v.IdentitySignature))
		return reqGovernanceField, sub, nil
	case *envelope.IncomePayload:
		if v == nil {
			return nil, nil, ErrEmptyOneofMessage
		}
		sub := dynamicpb.NewMessage(schema.Income)
		sub.Set(amountField, protoreflect.ValueOfInt64(v.Amount))
		sub.Set(receiverField, protoreflect.ValueOfString(v.ReceiverPubkey))
		return reqIncomeField, sub, nil
	case *envelope.HealthPayload:
		if v == nil {
			return nil, nil, ErrEmptyOneofMessage
		}
		return reqHealthField, dynamicpb.NewMessage(schema.Health), nil
	default:
		return nil, nil, fmt.Errorf("codec: unknown payload type %T", p)
	}
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return bytes.Clone(b)
}

var defaultCodec = New()

// DecodeRequest parses binary request bytes with the default codec.
func DecodeRequest(b []byte) (envelope.Request, error) {
	return defaultCodec.DecodeRequest(b)
}

// EncodeRequest serialises a request with the default codec.
func EncodeRequest(req envelope.Request) ([]byte, error) {
	return defaultCodec.EncodeRequest(req)
}

// DecodeResponse parses binary response bytes with the default codec.
func DecodeResponse(b []byte) (envelope.Response, error) {
	return defaultCodec.DecodeResponse(b)
}

// EncodeResponse serialises a response with the default codec.
func EncodeResponse(resp envelope.Response) ([]byte, error) {
	return defaultCodec.EncodeResponse(resp)
}
