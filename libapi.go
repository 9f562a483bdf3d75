package protoenclave

import (
	"github.com/ThreeDotsLabs/watermill/message"

	runtimepkg "github.com/drblury/protoenclave/internal/runtime"
	"github.com/drblury/protoenclave/internal/runtime/codec"
	configpkg "github.com/drblury/protoenclave/internal/runtime/config"
	"github.com/drblury/protoenclave/internal/runtime/dispatch"
	"github.com/drblury/protoenclave/internal/runtime/envelope"
	errspkg "github.com/drblury/protoenclave/internal/runtime/errors"
	"github.com/drblury/protoenclave/internal/runtime/handlers"
	idspkg "github.com/drblury/protoenclave/internal/runtime/ids"
	jsoncodec "github.com/drblury/protoenclave/internal/runtime/jsoncodec"
	loggingpkg "github.com/drblury/protoenclave/internal/runtime/logging"
	metadatapkg "github.com/drblury/protoenclave/internal/runtime/metadata"
	transportpkg "github.com/drblury/protoenclave/internal/runtime/transport"
	"github.com/drblury/protoenclave/transport"
)

type (
	Config              = configpkg.Config
	Engine              = runtimepkg.Engine
	EngineOption        = runtimepkg.EngineOption
	Trace               = runtimepkg.Trace
	Stage               = runtimepkg.Stage
	BoundaryMetrics     = runtimepkg.BoundaryMetrics
	BoundarySnapshot    = runtimepkg.BoundarySnapshot
	Service             = runtimepkg.Service
	ServiceDependencies = runtimepkg.ServiceDependencies
	TransportFactory    = transportpkg.Factory

	Request           = envelope.Request
	Response          = envelope.Response
	Payload           = envelope.Payload
	Variant           = envelope.Variant
	IdentityPayload   = envelope.IdentityPayload
	GovernancePayload = envelope.GovernancePayload
	IncomePayload     = envelope.IncomePayload
	HealthPayload     = envelope.HealthPayload

	Codec       = codec.Codec
	CodecOption = codec.Option
	Format      = codec.Format
	DecodeError = codec.DecodeError
	EncodeError = codec.EncodeError

	Outcome                 = handlers.Outcome
	HandlerSet              = handlers.HandlerSet
	MockOptions             = handlers.MockOptions
	IdentityProver          = handlers.IdentityProver
	GovernanceProver        = handlers.GovernanceProver
	IncomeProver            = handlers.IncomeProver
	HealthProver            = handlers.HealthProver
	DefaultProver           = handlers.DefaultProver
	IdentityProverFunc      = handlers.IdentityProverFunc
	GovernanceProverFunc    = handlers.GovernanceProverFunc
	IncomeProverFunc        = handlers.IncomeProverFunc
	HealthProverFunc        = handlers.HealthProverFunc
	DefaultProverFunc       = handlers.DefaultProverFunc
	SemanticValidationError = handlers.SemanticValidationError
	Dispatcher              = dispatch.Dispatcher

	MessageHandlerRegistration = runtimepkg.MessageHandlerRegistration
	MiddlewareBuilder          = runtimepkg.MiddlewareBuilder
	MiddlewareRegistration     = runtimepkg.MiddlewareRegistration
	RetryMiddlewareConfig      = runtimepkg.RetryMiddlewareConfig
	HandlerInfo                = runtimepkg.HandlerInfo
	HandlerStats               = runtimepkg.HandlerStats
	HandlerStatsSnapshot       = runtimepkg.HandlerStatsSnapshot

	Producer        = runtimepkg.Producer
	RequestEncoder  = runtimepkg.RequestEncoder
	ResponseDecoder = runtimepkg.ResponseDecoder

	Metadata           = metadatapkg.Metadata
	Message            = message.Message
	MessageHandlerFunc = message.HandlerFunc

	LogFields     = loggingpkg.LogFields
	ServiceLogger = loggingpkg.ServiceLogger

	UnprocessableEventError = runtimepkg.UnprocessableEventError
	ConfigValidationError   = errspkg.ConfigValidationError

	TransportBuilder      = transport.Builder
	TransportConfig       = transport.Config
	TransportRegistry     = transport.Registry
	TransportCapabilities = transport.Capabilities
)

var (
	NewEngine             = runtimepkg.NewEngine
	NewEngineFromConfig   = runtimepkg.NewEngineFromConfig
	NewBoundaryMetrics    = runtimepkg.NewBoundaryMetrics
	WithCodec             = runtimepkg.WithCodec
	WithDispatcher        = runtimepkg.WithDispatcher
	WithEngineLogger      = runtimepkg.WithEngineLogger
	WithBoundaryMetrics   = runtimepkg.WithBoundaryMetrics
	WithTracerProvider    = runtimepkg.WithTracerProvider
	NewBoundaryHandler    = runtimepkg.NewBoundaryHandler
	NewDispatcher         = dispatch.New
	NewMockHandlerSet     = handlers.NewMockSet
	NewCodec              = codec.New
	WithFormat            = codec.WithFormat
	WithMaxRequestBytes   = codec.WithMaxRequestBytes
	ParseFormat           = codec.ParseFormat
	DecodeRequest         = codec.DecodeRequest
	EncodeRequest         = codec.EncodeRequest
	DecodeResponse        = codec.DecodeResponse
	EncodeResponse        = codec.EncodeResponse
	VariantOf             = envelope.VariantOf
	Succeeded             = envelope.Succeeded
	Failure               = envelope.Failure
	Proof                 = handlers.Proof
	Failed                = handlers.Failed
	NewService            = runtimepkg.NewService
	DefaultConfig         = configpkg.Default
	LoadConfig            = configpkg.Load
	ValidateConfig        = configpkg.ValidateConfig
	IsUnprocessable       = runtimepkg.IsUnprocessable
	NewRequestMessage     = runtimepkg.NewRequestMessage
	PublishRequest        = runtimepkg.PublishRequest
	ResponseFromMessage   = runtimepkg.ResponseFromMessage
	NewCorrelationID      = idspkg.NewCorrelationID
	ResponseMetadata      = metadatapkg.ForResponse
	DefaultTransports     = transportpkg.DefaultFactory
	RegistryTransports    = transportpkg.RegistryFactory
	GetCapabilities       = transport.GetCapabilities
	RegisterTransport     = transport.Register
	BuildTransport        = transport.Build
	DefaultTransportReg   = transport.DefaultRegistry
	NewSlogServiceLogger  = loggingpkg.NewSlogServiceLogger
	NewSlogLogger         = loggingpkg.NewSlogLogger
	NopLogger             = loggingpkg.NopLogger

	RegisterMessageHandler  = runtimepkg.RegisterMessageHandler
	DefaultMiddlewares      = runtimepkg.DefaultMiddlewares
	CorrelationIDMiddleware = runtimepkg.CorrelationIDMiddleware
	LogMessagesMiddleware   = runtimepkg.LogMessagesMiddleware
	TracerMiddleware        = runtimepkg.TracerMiddleware
	MetricsMiddleware       = runtimepkg.MetricsMiddleware
	RetryMiddleware         = runtimepkg.RetryMiddleware
	PoisonQueueMiddleware   = runtimepkg.PoisonQueueMiddleware
	RecovererMiddleware     = runtimepkg.RecovererMiddleware

	Marshal       = jsoncodec.Marshal
	MarshalIndent = jsoncodec.MarshalIndent
	Unmarshal     = jsoncodec.Unmarshal

	ErrEngineRequired       = errspkg.ErrEngineRequired
	ErrServiceRequired      = errspkg.ErrServiceRequired
	ErrHandlerRequired      = errspkg.ErrHandlerRequired
	ErrHandlerNameRequired  = errspkg.ErrHandlerNameRequired
	ErrConsumeQueueRequired = errspkg.ErrConsumeQueueRequired
	ErrPublisherRequired    = errspkg.ErrPublisherRequired
	ErrEncoderRequired      = errspkg.ErrEncoderRequired
	ErrTopicRequired        = errspkg.ErrTopicRequired
	ErrConfigRequired       = errspkg.ErrConfigRequired
	ErrLoggerRequired       = errspkg.ErrLoggerRequired
	ErrNullSentinel         = errspkg.ErrNullSentinel
	ErrInvalidAttribute     = handlers.ErrInvalidAttribute
	ErrInvalidAmount        = handlers.ErrInvalidAmount
	ErrRequestTooLarge      = codec.ErrRequestTooLarge
	ErrUnknownTransport     = transport.ErrUnknownTransport
)

// Wire formats.
const (
	FormatBinary = codec.FormatBinary
	FormatJSON   = codec.FormatJSON
)

// Payload variants.
const (
	VariantNone       = envelope.VariantNone
	VariantIdentity   = envelope.VariantIdentity
	VariantGovernance = envelope.VariantGovernance
	VariantIncome     = envelope.VariantIncome
	VariantHealth     = envelope.VariantHealth
)

// UnknownRequestID is echoed by responses to requests that did not decode.
const UnknownRequestID = envelope.UnknownRequestID

// Metadata keys set on brokered requests and responses.
const (
	MetadataKeyCorrelationID = metadatapkg.KeyCorrelationID
	MetadataKeyRequestUUID   = metadatapkg.KeyRequestUUID
	MetadataKeyVariant       = metadatapkg.KeyVariant
	MetadataKeyOutcome       = metadatapkg.KeyOutcome
	MetadataKeyTraceID       = metadatapkg.KeyTraceID
	MetadataKeySpanID        = metadatapkg.KeySpanID
)

// Call outcomes and null-sentinel reasons.
const (
	OutcomeSuccess     = runtimepkg.OutcomeSuccess
	OutcomeFailure     = runtimepkg.OutcomeFailure
	OutcomeDecodeError = runtimepkg.OutcomeDecodeError
	OutcomeSentinel    = runtimepkg.OutcomeSentinel

	SentinelEncodeError      = runtimepkg.SentinelEncodeError
	SentinelPanic            = runtimepkg.SentinelPanic
	SentinelInvalidArguments = runtimepkg.SentinelInvalidArguments
	SentinelAllocation       = runtimepkg.SentinelAllocation
)

// PlaceholderProof is the proof returned for health and empty requests by
// the mock provers.
func PlaceholderProof() []byte {
	return append([]byte(nil), handlers.PlaceholderProof...)
}
