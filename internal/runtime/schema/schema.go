// Package schema owns the enclave.v1 wire contract.
//
// The descriptors mirror proto/enclave/v1/enclave.proto and are assembled at
// init time with descriptorpb and protodesc, so the codec can work on
// dynamicpb messages without generated code. Field numbers are frozen: new
// payload variants must take new tags inside the payload oneof.
package schema

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

const (
	FileName = "enclave/v1/enclave.proto"
	Package  = "enclave.v1"
)

// Message names inside the enclave.v1 package.
const (
	RequestMessage    protoreflect.Name = "EnclaveRequest"
	ResponseMessage   protoreflect.Name = "EnclaveResponse"
	IdentityMessage   protoreflect.Name = "IdentityRequest"
	GovernanceMessage protoreflect.Name = "GovernanceRequest"
	IncomeMessage     protoreflect.Name = "IncomeRequest"
	HealthMessage     protoreflect.Name = "HealthRequest"
)

// Field and oneof names.
const (
	FieldRequestID             protoreflect.Name = "request_id"
	OneofPayload               protoreflect.Name = "payload"
	FieldIdentityReq           protoreflect.Name = "identity_req"
	FieldGovernanceReq         protoreflect.Name = "governance_req"
	FieldIncomeReq             protoreflect.Name = "income_req"
	FieldHealthReq             protoreflect.Name = "health_req"
	FieldAttributeID           protoreflect.Name = "attribute_id"
	FieldEncryptedIdentitySeed protoreflect.Name = "encrypted_identity_seed"
	FieldProposalID            protoreflect.Name = "proposal_id"
	FieldVoteChoice            protoreflect.Name = "vote_choice"
	FieldIdentitySignature     protoreflect.Name = "identity_signature"
	FieldAmount                protoreflect.Name = "amount"
	FieldReceiverPubkey        protoreflect.Name = "receiver_pubkey"
	FieldSuccess               protoreflect.Name = "success"
	FieldErrorMessage          protoreflect.Name = "error_message"
	FieldProofData             protoreflect.Name = "proof_data"
)

var (
	// File is the resolved enclave.v1 file descriptor.
	File protoreflect.FileDescriptor

	Request    protoreflect.MessageDescriptor
	Response   protoreflect.MessageDescriptor
	Identity   protoreflect.MessageDescriptor
	Governance protoreflect.MessageDescriptor
	Income     protoreflect.MessageDescriptor
	Health     protoreflect.MessageDescriptor

	// Payload is the oneof on EnclaveRequest that carries exactly one variant.
	Payload protoreflect.OneofDescriptor
)

func init() {
	fd, err := Build()
	if err != nil {
		panic(fmt.Sprintf("protoenclave: invalid enclave.v1 schema: %v", err))
	}
	File = fd

	messages := fd.Messages()
	Request = messages.ByName(RequestMessage)
	Response = messages.ByName(ResponseMessage)
	Identity = messages.ByName(IdentityMessage)
	Governance = messages.ByName(GovernanceMessage)
	Income = messages.ByName(IncomeMessage)
	Health = messages.ByName(HealthMessage)
	Payload = Request.Oneofs().ByName(OneofPayload)
}

// Build resolves the enclave.v1 descriptor from its proto form.
func Build() (protoreflect.FileDescriptor, error) {
	return protodesc.NewFile(FileDescriptorProto(), new(protoregistry.Files))
}

// FileDescriptorProto returns a fresh copy of the enclave.v1 schema.
func FileDescriptorProto() *descriptorpb.FileDescriptorProto {
	return &descriptorpb.FileDescriptorProto{
		Name:    proto.String(FileName),
		Package: proto.String(Package),
		Syntax:  proto.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: proto.String(string(RequestMessage)),
				Field: []*descriptorpb.FieldDescriptorProto{
					scalar(FieldRequestID, 1, descriptorpb.FieldDescriptorProto_TYPE_STRING),
					oneofMessage(FieldIdentityReq, 2, IdentityMessage),
					oneofMessage(FieldGovernanceReq, 3, GovernanceMessage),
					oneofMessage(FieldIncomeReq, 4, IncomeMessage),
					oneofMessage(FieldHealthReq, 5, HealthMessage),
				},
				OneofDecl: []*descriptorpb.OneofDescriptorProto{
					{Name: proto.String(string(OneofPayload))},
				},
			},
			{
				Name: proto.String(string(IdentityMessage)),
				Field: []*descriptorpb.FieldDescriptorProto{
					scalar(FieldAttributeID, 1, descriptorpb.FieldDescriptorProto_TYPE_STRING),
					scalar(FieldEncryptedIdentitySeed, 2, descriptorpb.FieldDescriptorProto_TYPE_BYTES),
				},
			},
			{
				Name: proto.String(string(GovernanceMessage)),
				Field: []*descriptorpb.FieldDescriptorProto{
					scalar(FieldProposalID, 1, descriptorpb.FieldDescriptorProto_TYPE_STRING),
					scalar(FieldVoteChoice, 2, descriptorpb.FieldDescriptorProto_TYPE_STRING),
					scalar(FieldIdentitySignature, 3, descriptorpb.FieldDescriptorProto_TYPE_BYTES),
				},
			},
			{
				Name: proto.String(string(IncomeMessage)),
				Field: []*descriptorpb.FieldDescriptorProto{
					scalar(FieldAmount, 1, descriptorpb.FieldDescriptorProto_TYPE_INT64),
					scalar(FieldReceiverPubkey, 2, descriptorpb.FieldDescriptorProto_TYPE_STRING),
				},
			},
			{
				Name: proto.String(string(HealthMessage)),
			},
			{
				Name: proto.String(string(ResponseMessage)),
				Field: []*descriptorpb.FieldDescriptorProto{
					scalar(FieldRequestID, 1, descriptorpb.FieldDescriptorProto_TYPE_STRING),
					scalar(FieldSuccess, 2, descriptorpb.FieldDescriptorProto_TYPE_BOOL),
					scalar(FieldErrorMessage, 3, descriptorpb.FieldDescriptorProto_TYPE_STRING),
					scalar(FieldProofData, 4, descriptorpb.FieldDescriptorProto_TYPE_BYTES),
				},
			},
		},
	}
}

func scalar(name protoreflect.Name, number int32, typ descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto {
	return &descriptorpb.FieldDescriptorProto{
		Name:   proto.String(string(name)),
		Number: proto.Int32(number),
		Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		Type:   typ.Enum(),
	}
}

func oneofMessage(name protoreflect.Name, number int32, message protoreflect.Name) *descriptorpb.FieldDescriptorProto {
	return &descriptorpb.FieldDescriptorProto{
		Name:       proto.String(string(name)),
		Number:     proto.Int32(number),
		Label:      descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		Type:       descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum(),
		TypeName:   proto.String("." + Package + "." + string(message)),
		OneofIndex: proto.Int32(0),
	}
}

// Field returns the named field of md, panicking when the schema and the
// caller disagree. It is only used with the constants declared above.
func Field(md protoreflect.MessageDescriptor, name protoreflect.Name) protoreflect.FieldDescriptor {
	fd := md.Fields().ByName(name)
	if fd == nil {
		panic(fmt.Sprintf("protoenclave: %s has no field %q", md.FullName(), name))
	}
	return fd
}
