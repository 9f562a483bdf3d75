package runtime

import (
	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/trace"

	errspkg "github.com/drblury/protoenclave/internal/runtime/errors"
	idspkg "github.com/drblury/protoenclave/internal/runtime/ids"
	metadatapkg "github.com/drblury/protoenclave/internal/runtime/metadata"
)

// NewBoundaryHandler turns the engine into a Watermill handler: the message
// payload is the encoded request, the single produced message carries the
// encoded response. A null sentinel becomes an UnprocessableEventError so the
// request lands on the poison topic.
func NewBoundaryHandler(engine *Engine) (message.HandlerFunc, error) {
	if engine == nil {
		return nil, errspkg.ErrEngineRequired
	}
	return func(msg *message.Message) ([]*message.Message, error) {
		ctx := msg.Context()
		out, tr := engine.ProcessWithTrace(ctx, msg.Payload)
		if out == nil {
			return nil, NewUnprocessableEventError(tr.RequestID, tr.Reason, tr.Err)
		}

		md := metadatapkg.ForResponse(
			msg.Metadata.Get(metadatapkg.KeyCorrelationID),
			tr.RequestID,
			tr.Variant,
			tr.Outcome,
		)
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			md = md.With(metadatapkg.KeyTraceID, sc.TraceID().String()).
				With(metadatapkg.KeySpanID, sc.SpanID().String())
		}

		resp := message.NewMessage(idspkg.NewMessageID(), out)
		resp.Metadata = metadatapkg.ToWatermill(md, resp.Metadata)
		resp.SetContext(ctx)
		return []*message.Message{resp}, nil
	}, nil
}
