package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/drblury/protoenclave/internal/runtime/codec"
	"github.com/drblury/protoenclave/internal/runtime/envelope"
	errspkg "github.com/drblury/protoenclave/internal/runtime/errors"
	metadatapkg "github.com/drblury/protoenclave/internal/runtime/metadata"
)

func TestNewRequestMessage(t *testing.T) {
	req := envelope.Request{RequestID: "r1", Payload: &envelope.GovernancePayload{ProposalID: "P1"}}

	msg, correlationID, err := NewRequestMessage(codec.New(), req, metadatapkg.Metadata{"tenant": "t1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if correlationID == "" || msg.Metadata.Get(metadatapkg.KeyCorrelationID) != correlationID {
		t.Fatalf("expected generated correlation id, got %q", correlationID)
	}
	if msg.Metadata.Get("tenant") != "t1" {
		t.Fatal("caller metadata must be kept")
	}
	decoded, err := codec.DecodeRequest(msg.Payload)
	if err != nil {
		t.Fatalf("payload does not decode: %v", err)
	}
	if decoded.RequestID != "r1" || decoded.Variant() != envelope.VariantGovernance {
		t.Fatalf("unexpected decoded request %+v", decoded)
	}

	_, correlationID, err = NewRequestMessage(codec.New(), req, metadatapkg.Metadata{metadatapkg.KeyCorrelationID: "fixed"})
	if err != nil || correlationID != "fixed" {
		t.Fatalf("expected caller correlation id, got %q / %v", correlationID, err)
	}

	if _, _, err := NewRequestMessage(nil, req, nil); !errors.Is(err, errspkg.ErrEncoderRequired) {
		t.Fatalf("expected ErrEncoderRequired, got %v", err)
	}

	var typedNil *envelope.IdentityPayload
	if _, _, err := NewRequestMessage(codec.New(), envelope.Request{Payload: typedNil}, nil); !errors.Is(err, codec.ErrEmptyOneofMessage) {
		t.Fatalf("expected encode error, got %v", err)
	}
}

func TestPublishRequest(t *testing.T) {
	ctx := context.Background()
	req := envelope.Request{RequestID: "r1"}

	if _, err := PublishRequest(ctx, nil, "topic", codec.New(), req, nil); !errors.Is(err, errspkg.ErrPublisherRequired) {
		t.Fatalf("expected ErrPublisherRequired, got %v", err)
	}
	if _, err := PublishRequest(ctx, &testPublisher{}, "", codec.New(), req, nil); !errors.Is(err, errspkg.ErrTopicRequired) {
		t.Fatalf("expected ErrTopicRequired, got %v", err)
	}

	failing := &testPublisher{err: errors.New("broker down")}
	if _, err := PublishRequest(ctx, failing, "topic", codec.New(), req, nil); err == nil {
		t.Fatal("expected publish error")
	}

	pub := &testPublisher{}
	id, err := PublishRequest(ctx, pub, "topic", codec.New(), req, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	published := pub.Published("topic")
	if len(published) != 1 || published[0].Metadata.Get(metadatapkg.KeyCorrelationID) != id {
		t.Fatalf("unexpected published messages %v", published)
	}
}

func TestServicePublishRequestUsesConfiguredFormat(t *testing.T) {
	svc := newTestService(t)
	svc.Conf.Codec.Format = "json"

	if _, err := svc.PublishRequest(context.Background(), envelope.Request{RequestID: "r-json"}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	published := svc.publisher.(*testPublisher).Published(svc.Conf.Service.RequestTopic)
	if len(published) != 1 {
		t.Fatalf("expected one message, got %d", len(published))
	}
	decoded, err := codec.New(codec.WithFormat(codec.FormatJSON)).DecodeRequest(published[0].Payload)
	if err != nil || decoded.RequestID != "r-json" {
		t.Fatalf("expected JSON request, got %+v / %v", decoded, err)
	}

	var nilSvc *Service
	if _, err := nilSvc.PublishRequest(context.Background(), envelope.Request{}, nil); !errors.Is(err, errspkg.ErrServiceRequired) {
		t.Fatalf("expected ErrServiceRequired, got %v", err)
	}
}

func TestResponseFromMessage(t *testing.T) {
	raw, err := codec.EncodeResponse(envelope.Succeeded("r1", []byte{1}))
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	msg := message.NewMessage("m", raw)
	msg.Metadata.Set(metadatapkg.KeyOutcome, OutcomeSuccess)

	resp, md, err := ResponseFromMessage(codec.New(), msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.RequestID != "r1" || !resp.Success || md[metadatapkg.KeyOutcome] != OutcomeSuccess {
		t.Fatalf("unexpected response %+v / %v", resp, md)
	}

	if _, _, err := ResponseFromMessage(nil, msg); err == nil {
		t.Fatal("expected decoder error")
	}
	if _, _, err := ResponseFromMessage(codec.New(), nil); err == nil {
		t.Fatal("expected nil message error")
	}
	if _, _, err := ResponseFromMessage(codec.New(), message.NewMessage("bad", []byte{0x0f})); err == nil {
		t.Fatal("expected decode error")
	}
}
