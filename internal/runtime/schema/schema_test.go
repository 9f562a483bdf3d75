package schema

import (
	"testing"

	"google.golang.org/protobuf/reflect/protoreflect"
)

func TestSchemaResolves(t *testing.T) {
	if File == nil {
		t.Fatal("file descriptor not initialised")
	}
	if got := File.Package(); got != Package {
		t.Fatalf("unexpected package %q", got)
	}
	for _, md := range []protoreflect.MessageDescriptor{Request, Response, Identity, Governance, Income, Health} {
		if md == nil {
			t.Fatal("message descriptor missing")
		}
	}
}

func TestFieldTagsAreStable(t *testing.T) {
	tests := []struct {
		md     protoreflect.MessageDescriptor
		name   protoreflect.Name
		number protoreflect.FieldNumber
		kind   protoreflect.Kind
	}{
		{Request, FieldRequestID, 1, protoreflect.StringKind},
		{Request, FieldIdentityReq, 2, protoreflect.MessageKind},
		{Request, FieldGovernanceReq, 3, protoreflect.MessageKind},
		{Request, FieldIncomeReq, 4, protoreflect.MessageKind},
		{Request, FieldHealthReq, 5, protoreflect.MessageKind},
		{Identity, FieldAttributeID, 1, protoreflect.StringKind},
		{Identity, FieldEncryptedIdentitySeed, 2, protoreflect.BytesKind},
		{Governance, FieldProposalID, 1, protoreflect.StringKind},
		{Governance, FieldVoteChoice, 2, protoreflect.StringKind},
		{Governance, FieldIdentitySignature, 3, protoreflect.BytesKind},
		{Income, FieldAmount, 1, protoreflect.Int64Kind},
		{Income, FieldReceiverPubkey, 2, protoreflect.StringKind},
		{Response, FieldRequestID, 1, protoreflect.StringKind},
		{Response, FieldSuccess, 2, protoreflect.BoolKind},
		{Response, FieldErrorMessage, 3, protoreflect.StringKind},
		{Response, FieldProofData, 4, protoreflect.BytesKind},
	}
	for _, tt := range tests {
		t.Run(string(tt.md.Name())+"."+string(tt.name), func(t *testing.T) {
			fd := Field(tt.md, tt.name)
			if fd.Number() != tt.number {
				t.Fatalf("expected tag %d, got %d", tt.number, fd.Number())
			}
			if fd.Kind() != tt.kind {
				t.Fatalf("expected kind %s, got %s", tt.kind, fd.Kind())
			}
		})
	}
}

func TestPayloadOneofHoldsAllVariants(t *testing.T) {
	if Payload == nil {
		t.Fatal("payload oneof missing")
	}
	fields := Payload.Fields()
	if fields.Len() != 4 {
		t.Fatalf("expected 4 payload variants, got %d", fields.Len())
	}
	want := map[protoreflect.Name]protoreflect.MessageDescriptor{
		FieldIdentityReq:   Identity,
		FieldGovernanceReq: Governance,
		FieldIncomeReq:     Income,
		FieldHealthReq:     Health,
	}
	for i := 0; i < fields.Len(); i++ {
		fd := fields.Get(i)
		md, ok := want[fd.Name()]
		if !ok {
			t.Fatalf("unexpected oneof member %s", fd.Name())
		}
		if fd.Message().FullName() != md.FullName() {
			t.Fatalf("%s references %s, want %s", fd.Name(), fd.Message().FullName(), md.FullName())
		}
	}
}

func TestFieldPanicsOnUnknownName(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic for unknown field")
		}
	}()
	Field(Response, "nope")
}

func TestBuildReturnsIndependentDescriptors(t *testing.T) {
	a := FileDescriptorProto()
	b := FileDescriptorProto()
	a.MessageType[0].Name = nil
	if b.MessageType[0].GetName() != string(RequestMessage) {
		t.Fatal("FileDescriptorProto must return a fresh copy")
	}
	if _, err := Build(); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
}
