package runtime

import (
	"context"
	"errors"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/drblury/protoenclave/internal/runtime/codec"
	"github.com/drblury/protoenclave/internal/runtime/envelope"
	errspkg "github.com/drblury/protoenclave/internal/runtime/errors"
	idspkg "github.com/drblury/protoenclave/internal/runtime/ids"
	metadatapkg "github.com/drblury/protoenclave/internal/runtime/metadata"
)

// RequestEncoder turns a request into the bytes the boundary consumes.
type RequestEncoder interface {
	EncodeRequest(req envelope.Request) ([]byte, error)
}

// ResponseDecoder parses the bytes the boundary produced.
type ResponseDecoder interface {
	DecodeResponse(b []byte) (envelope.Response, error)
}

// Producer emits encoded enclave requests onto the configured transport.
type Producer interface {
	PublishRequest(ctx context.Context, req envelope.Request, md metadatapkg.Metadata) (string, error)
}

// NewRequestMessage encodes req into a Watermill message and returns it with
// its correlation id, generating one when md does not carry it.
func NewRequestMessage(enc RequestEncoder, req envelope.Request, md metadatapkg.Metadata) (*message.Message, string, error) {
	if enc == nil {
		return nil, "", errspkg.ErrEncoderRequired
	}

	payload, err := enc.EncodeRequest(req)
	if err != nil {
		return nil, "", err
	}

	correlationID := md[metadatapkg.KeyCorrelationID]
	if correlationID == "" {
		correlationID = idspkg.NewCorrelationID()
	}

	msg := message.NewMessage(idspkg.NewMessageID(), payload)
	msg.Metadata = metadatapkg.ToWatermill(md.With(metadatapkg.KeyCorrelationID, correlationID), msg.Metadata)
	return msg, correlationID, nil
}

// PublishRequest encodes req and publishes it to topic. It returns the
// correlation id the response will carry.
func PublishRequest(ctx context.Context, publisher message.Publisher, topic string, enc RequestEncoder, req envelope.Request, md metadatapkg.Metadata) (string, error) {
	if publisher == nil {
		return "", errspkg.ErrPublisherRequired
	}
	if topic == "" {
		return "", errspkg.ErrTopicRequired
	}

	msg, correlationID, err := NewRequestMessage(enc, req, md)
	if err != nil {
		return "", err
	}
	if ctx != nil {
		msg.SetContext(ctx)
	}

	if err := publisher.Publish(topic, msg); err != nil {
		return "", err
	}
	return correlationID, nil
}

// ResponseFromMessage decodes a response message published by the boundary
// handler together with its metadata.
func ResponseFromMessage(dec ResponseDecoder, msg *message.Message) (envelope.Response, metadatapkg.Metadata, error) {
	if dec == nil {
		return envelope.Response{}, nil, errors.New("response decoder is required")
	}
	if msg == nil {
		return envelope.Response{}, nil, errors.New("response message is nil")
	}
	resp, err := dec.DecodeResponse(msg.Payload)
	if err != nil {
		return envelope.Response{}, nil, err
	}
	return resp, metadatapkg.FromWatermill(msg.Metadata), nil
}

// PublishRequest encodes req with the configured codec and publishes it to
// the request topic.
func (s *Service) PublishRequest(ctx context.Context, req envelope.Request, md metadatapkg.Metadata) (string, error) {
	if s == nil {
		return "", errspkg.ErrServiceRequired
	}
	c, err := s.codec()
	if err != nil {
		return "", err
	}
	return PublishRequest(ctx, s.publisher, s.Conf.Service.RequestTopic, c, req, md)
}

// DecodeResponse parses a message taken from the response topic.
func (s *Service) DecodeResponse(msg *message.Message) (envelope.Response, metadatapkg.Metadata, error) {
	c, err := s.codec()
	if err != nil {
		return envelope.Response{}, nil, err
	}
	return ResponseFromMessage(c, msg)
}

func (s *Service) codec() (*codec.Codec, error) {
	format, err := codec.ParseFormat(s.Conf.Codec.Format)
	if err != nil {
		return nil, err
	}
	return codec.New(codec.WithFormat(format)), nil
}
