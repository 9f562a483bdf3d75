package runtime

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/drblury/protoenclave/internal/runtime/codec"
	"github.com/drblury/protoenclave/internal/runtime/config"
	"github.com/drblury/protoenclave/internal/runtime/dispatch"
	"github.com/drblury/protoenclave/internal/runtime/envelope"
	errspkg "github.com/drblury/protoenclave/internal/runtime/errors"
	"github.com/drblury/protoenclave/internal/runtime/handlers"
	loggingpkg "github.com/drblury/protoenclave/internal/runtime/logging"
)

// SpanName is the span opened around every boundary call.
const SpanName = "enclave.Process"

// DecodeErrorPrefix starts the error message of a decode failure response.
const DecodeErrorPrefix = "Decode error: "

// Stage is one state of a boundary call.
type Stage string

const (
	StageReceivedBytes      Stage = "received_bytes"
	StageDecoded            Stage = "decoded"
	StageDecodeFailed       Stage = "decode_failed"
	StageErrorResponseBuilt Stage = "error_response_built"
	StageDispatched         Stage = "dispatched"
	StageHandled            Stage = "handled"
	StageEncoded            Stage = "encoded"
	StageEncodeFailed       Stage = "encode_failed"
	StageRecovered          Stage = "recovered"
	StageReturned           Stage = "returned"
	StageReturnedNullSignal Stage = "returned_null_signal"
)

// Trace records how a single call moved through the boundary. It never holds
// request or response bytes.
type Trace struct {
	Stages    []Stage
	RequestID string
	Variant   envelope.Variant
	Outcome   string
	// Reason is set when the call ended in the null sentinel.
	Reason string
	Err    error
}

// Sentinel reports whether the call returned the null sentinel.
func (t Trace) Sentinel() bool {
	return t.Outcome == OutcomeSentinel
}

func (t *Trace) visit(stage Stage) {
	t.Stages = append(t.Stages, stage)
}

func (t *Trace) sentinel(reason string, err error) {
	t.Outcome = OutcomeSentinel
	t.Reason = reason
	t.Err = err
}

// Codec is the wire codec the engine needs.
type Codec interface {
	DecodeRequest(b []byte) (envelope.Request, error)
	EncodeResponse(resp envelope.Response) ([]byte, error)
}

// Dispatcher routes a decoded request to its prover.
type Dispatcher interface {
	Dispatch(ctx context.Context, req envelope.Request) envelope.Response
}

// EngineOption customises an Engine.
type EngineOption func(*Engine)

func WithCodec(c Codec) EngineOption {
	return func(e *Engine) {
		if c != nil {
			e.codec = c
		}
	}
}

func WithDispatcher(d Dispatcher) EngineOption {
	return func(e *Engine) {
		if d != nil {
			e.dispatcher = d
		}
	}
}

func WithEngineLogger(log loggingpkg.ServiceLogger) EngineOption {
	return func(e *Engine) {
		if log != nil {
			e.logger = log
		}
	}
}

// WithBoundaryMetrics enables per-call metrics. Metrics are off by default.
func WithBoundaryMetrics(m *BoundaryMetrics) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

func WithTracerProvider(tp trace.TracerProvider) EngineOption {
	return func(e *Engine) {
		if tp != nil {
			e.tracer = tp.Tracer("protoenclave")
		}
	}
}

// Engine is the boundary entry point: bytes in, bytes out, and no panic or
// error ever escapes Process. It is stateless and safe for concurrent use.
type Engine struct {
	codec      Codec
	dispatcher Dispatcher
	logger     loggingpkg.ServiceLogger
	metrics    *BoundaryMetrics
	tracer     trace.Tracer
}

// NewEngine builds an engine over the binary codec and the mock provers
// unless options say otherwise.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		codec:      codec.New(),
		dispatcher: dispatch.New(handlers.HandlerSet{}),
		logger:     loggingpkg.NopLogger(),
		tracer:     otel.Tracer("protoenclave"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewEngineFromConfig wires the codec and mock provers from conf. Extra
// options are applied last.
func NewEngineFromConfig(conf *config.Config, log loggingpkg.ServiceLogger, opts ...EngineOption) (*Engine, error) {
	if conf == nil {
		return nil, errspkg.ErrConfigRequired
	}
	if log == nil {
		return nil, errspkg.ErrLoggerRequired
	}
	format, err := codec.ParseFormat(conf.Codec.Format)
	if err != nil {
		return nil, err
	}
	c := codec.New(codec.WithFormat(format), codec.WithMaxRequestBytes(conf.Codec.MaxRequestBytes))
	set := handlers.NewMockSet(handlers.MockOptions{RejectNegativeAmounts: conf.Handlers.RejectNegativeAmounts})

	base := []EngineOption{
		WithCodec(c),
		WithDispatcher(dispatch.New(set)),
		WithEngineLogger(log),
	}
	return NewEngine(append(base, opts...)...), nil
}

// Metrics returns the engine's collector, which may be nil.
func (e *Engine) Metrics() *BoundaryMetrics {
	return e.metrics
}

// Process turns request bytes into response bytes. A nil result is the null
// sentinel: the call itself could not be completed.
func (e *Engine) Process(ctx context.Context, in []byte) []byte {
	out, _ := e.ProcessWithTrace(ctx, in)
	return out
}

// ProcessWithTrace is Process plus the record of stages visited.
func (e *Engine) ProcessWithTrace(ctx context.Context, in []byte) (out []byte, tr Trace) {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, SpanName, trace.WithSpanKind(trace.SpanKindServer))

	defer func() {
		if r := recover(); r != nil {
			out = nil
			tr.visit(StageRecovered)
			tr.visit(StageReturnedNullSignal)
			tr.sentinel(SentinelPanic, fmt.Errorf("boundary panic: %v", r))
		}
		e.finish(span, tr, len(in), len(out), time.Since(start))
	}()

	tr.visit(StageReceivedBytes)
	resp := e.respond(ctx, in, &tr)

	encoded, err := e.codec.EncodeResponse(resp)
	if err != nil {
		tr.visit(StageEncodeFailed)
		tr.visit(StageReturnedNullSignal)
		tr.sentinel(SentinelEncodeError, err)
		return nil, tr
	}
	tr.visit(StageEncoded)
	tr.visit(StageReturned)
	return encoded, tr
}

func (e *Engine) respond(ctx context.Context, in []byte, tr *Trace) envelope.Response {
	req, err := e.codec.DecodeRequest(in)
	if err != nil {
		tr.visit(StageDecodeFailed)
		tr.RequestID = envelope.UnknownRequestID
		tr.Variant = envelope.VariantNone
		tr.Outcome = OutcomeDecodeError
		tr.Err = err
		resp := envelope.Failure(envelope.UnknownRequestID, DecodeErrorPrefix+decodeReason(err))
		tr.visit(StageErrorResponseBuilt)
		return resp
	}
	tr.visit(StageDecoded)
	tr.RequestID = req.RequestID
	tr.Variant = req.Variant()

	tr.visit(StageDispatched)
	resp := e.dispatcher.Dispatch(ctx, req)
	tr.visit(StageHandled)
	if resp.Success {
		tr.Outcome = OutcomeSuccess
	} else {
		tr.Outcome = OutcomeFailure
	}
	return resp
}

func decodeReason(err error) string {
	reason := err.Error()
	var decodeErr *codec.DecodeError
	if errors.As(err, &decodeErr) && decodeErr.Reason != "" {
		reason = decodeErr.Reason
	}
	return strings.ToValidUTF8(reason, "�")
}

func (e *Engine) finish(span trace.Span, tr Trace, inLen, outLen int, elapsed time.Duration) {
	variant := tr.Variant
	if variant == "" {
		variant = envelope.VariantNone
	}

	span.SetAttributes(
		attribute.String("enclave.variant", string(variant)),
		attribute.String("enclave.outcome", tr.Outcome),
	)
	if tr.Sentinel() {
		span.SetAttributes(attribute.String("enclave.sentinel_reason", tr.Reason))
		span.RecordError(tr.Err)
		span.SetStatus(codes.Error, "null sentinel")
	}
	span.End()

	e.metrics.RecordCall(variant, tr.Outcome, elapsed)
	fields := loggingpkg.LogFields{
		"request_id": tr.RequestID,
		"variant":    string(variant),
		"outcome":    tr.Outcome,
		"in_bytes":   inLen,
		"out_bytes":  outLen,
		"elapsed":    elapsed,
	}
	if tr.Sentinel() {
		e.metrics.RecordSentinel(tr.Reason)
		fields["reason"] = tr.Reason
		e.logger.Error("Boundary returned null sentinel", tr.Err, fields)
		return
	}
	e.logger.Debug("Boundary call processed", fields)
}

// RecordHostFault accounts for a sentinel the host glue returns before the
// engine ever sees the bytes, for example invalid pointer arguments.
func (e *Engine) RecordHostFault(reason string) {
	e.metrics.RecordSentinel(reason)
	e.logger.Error("Boundary rejected host arguments", nil, loggingpkg.LogFields{"reason": reason})
}
