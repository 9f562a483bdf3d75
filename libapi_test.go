package protoenclave

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestEngineExports(t *testing.T) {
	raw, err := EncodeRequest(Request{RequestID: "r1", Payload: &IdentityPayload{AttributeID: "invalid"}})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	resp, err := DecodeResponse(NewEngine().Process(context.Background(), raw))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if resp.Success || resp.ErrorMessage != ErrInvalidAttribute.Error() {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestCustomProverThroughFacade(t *testing.T) {
	set := HandlerSet{
		Governance: GovernanceProverFunc(func(_ context.Context, p *GovernancePayload) (Outcome, error) {
			return Proof([]byte("custom:" + p.ProposalID)), nil
		}),
	}
	engine := NewEngine(WithDispatcher(NewDispatcher(set)))

	raw, err := EncodeRequest(Request{RequestID: "r5", Payload: &GovernancePayload{ProposalID: "P1"}})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	resp, err := DecodeResponse(engine.Process(context.Background(), raw))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !bytes.Equal(resp.ProofData, []byte("custom:P1")) {
		t.Fatalf("unexpected proof %q", resp.ProofData)
	}

	empty, _ := EncodeRequest(Request{RequestID: "r3"})
	resp, _ = DecodeResponse(engine.Process(context.Background(), empty))
	if !bytes.Equal(resp.ProofData, PlaceholderProof()) {
		t.Fatalf("nil provers must fall back to the mocks, got %v", resp.ProofData)
	}
}

func TestPlaceholderProofIsACopy(t *testing.T) {
	p := PlaceholderProof()
	p[0] = 0
	if PlaceholderProof()[0] == 0 {
		t.Fatal("PlaceholderProof must not expose shared state")
	}
}

func TestHandlerExportsPropagateErrors(t *testing.T) {
	if err := RegisterMessageHandler(nil, MessageHandlerRegistration{}); !errors.Is(err, ErrServiceRequired) {
		t.Fatalf("expected service required error, got %v", err)
	}
	if _, err := NewBoundaryHandler(nil); !errors.Is(err, ErrEngineRequired) {
		t.Fatalf("expected engine required error, got %v", err)
	}
}

func TestConfigExports(t *testing.T) {
	conf := DefaultConfig()
	if err := ValidateConfig(conf); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	if _, err := NewEngineFromConfig(conf, NopLogger()); err != nil {
		t.Fatalf("engine from config: %v", err)
	}
	if !GetCapabilities(conf.Service.PubSubSystem).SupportsAck {
		t.Fatal("channel transport should support acks")
	}
}

func TestEncodingExportAliases(t *testing.T) {
	payload := map[string]string{"hello": "world"}
	if _, err := Marshal(payload); err != nil {
		t.Fatalf("marshal alias failed: %v", err)
	}
	if _, err := MarshalIndent(payload, "", "  "); err != nil {
		t.Fatalf("marshal indent alias failed: %v", err)
	}
	if err := Unmarshal([]byte(`{"hello":"world"}`), &payload); err != nil {
		t.Fatalf("unmarshal alias failed: %v", err)
	}
}
