package runtime

import (
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	errspkg "github.com/drblury/protoenclave/internal/runtime/errors"
	idspkg "github.com/drblury/protoenclave/internal/runtime/ids"
	metadatapkg "github.com/drblury/protoenclave/internal/runtime/metadata"
)

func TestCorrelationIDMiddleware(t *testing.T) {
	t.Parallel()

	svc := &Service{}
	mw := svc.correlationIDMiddleware()

	t.Run("adds missing id", func(t *testing.T) {
		msg := message.NewMessage(idspkg.NewMessageID(), nil)
		called := false
		_, err := mw(func(m *message.Message) ([]*message.Message, error) {
			called = true
			id := m.Metadata.Get(metadatapkg.KeyCorrelationID)
			if _, ok := idspkg.CorrelationTime(id); !ok {
				t.Fatalf("expected a ULID correlation id, got %q", id)
			}
			return nil, nil
		})(msg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !called {
			t.Fatal("handler not invoked")
		}
	})

	t.Run("keeps existing id", func(t *testing.T) {
		msg := message.NewMessage(idspkg.NewMessageID(), nil)
		msg.Metadata.Set(metadatapkg.KeyCorrelationID, "fixed")
		_, err := mw(func(m *message.Message) ([]*message.Message, error) {
			if m.Metadata.Get(metadatapkg.KeyCorrelationID) != "fixed" {
				t.Fatal("expected correlation id to be preserved")
			}
			return nil, nil
		})(msg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestLogMessagesMiddlewareOmitsPayload(t *testing.T) {
	svc := newTestService(t)
	logger := &recordingServiceLogger{}
	mw := svc.logMessagesMiddleware(logger)

	msg := message.NewMessage("m1", []byte("secret-payload"))
	_, err := mw(func(*message.Message) ([]*message.Message, error) {
		return nil, errors.New("boom")
	})(msg)
	if err == nil {
		t.Fatal("expected handler error to propagate")
	}
	if len(logger.debugs) != 1 || len(logger.errors) != 1 {
		t.Fatalf("expected one debug and one error log, got %d/%d", len(logger.debugs), len(logger.errors))
	}
	for _, fields := range logger.allFields() {
		if _, ok := fields["request_age"]; ok {
			t.Fatal("request_age must only be logged for ULID correlation ids")
		}
		if fields["payload_bytes"] != len("secret-payload") {
			t.Fatalf("unexpected payload size field: %v", fields["payload_bytes"])
		}
		for key, value := range fields {
			if s, ok := value.(string); ok && s == "secret-payload" {
				t.Fatalf("field %s leaks the payload", key)
			}
		}
	}
}

func TestLogMessagesMiddlewareRequiresLogger(t *testing.T) {
	svc := newTestService(t)
	svc.Logger = nil
	if _, err := LogMessagesMiddleware(nil).Builder(svc); !errors.Is(err, errspkg.ErrLoggerRequired) {
		t.Fatalf("expected ErrLoggerRequired, got %v", err)
	}
}

func TestRetryMiddlewareSkipsUnprocessable(t *testing.T) {
	svc := newTestService(t)
	mw := svc.retryMiddlewareWithConfig(RetryMiddlewareConfig{MaxRetries: 3, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond})

	calls := 0
	_, err := mw(func(*message.Message) ([]*message.Message, error) {
		calls++
		return nil, NewUnprocessableEventError("r", SentinelPanic, nil)
	})(message.NewMessage("m", nil))
	if !IsUnprocessable(err) {
		t.Fatalf("expected unprocessable error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("unprocessable requests must not be retried, got %d calls", calls)
	}

	calls = 0
	_, err = mw(func(*message.Message) ([]*message.Message, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("transient")
		}
		return nil, nil
	})(message.NewMessage("m", nil))
	if err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestRetryMiddlewareConfigDefaults(t *testing.T) {
	cfg := RetryMiddlewareConfig{}.withDefaults()
	if cfg.MaxRetries != 3 || cfg.InitialInterval != 100*time.Millisecond || cfg.MaxInterval != 2*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.RetryIf(NewUnprocessableEventError("", "", nil)) {
		t.Fatal("default RetryIf must skip unprocessable errors")
	}
	if !cfg.RetryIf(errors.New("other")) {
		t.Fatal("default RetryIf must retry other errors")
	}
}

func TestPoisonQueueMiddleware(t *testing.T) {
	svc := newTestService(t)
	metrics := NewBoundaryMetrics(prometheus.NewRegistry())
	svc.engine = NewEngine(WithBoundaryMetrics(metrics))

	mw, err := svc.poisonMiddlewareWithFilter(IsUnprocessable)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = mw(func(*message.Message) ([]*message.Message, error) {
		return nil, NewUnprocessableEventError("r", SentinelEncodeError, errors.New("encode"))
	})(message.NewMessage("m1", []byte{1}))
	if err != nil {
		t.Fatalf("poisoned message should be acked, got %v", err)
	}

	pub := svc.publisher.(*testPublisher)
	if got := len(pub.Published(svc.Conf.Service.PoisonQueue)); got != 1 {
		t.Fatalf("expected one poisoned message, got %d", got)
	}
	if metrics.Snapshot().TotalPoisoned != 1 {
		t.Fatal("expected poisoned counter to increase")
	}

	_, err = mw(func(*message.Message) ([]*message.Message, error) {
		return nil, errors.New("transient")
	})(message.NewMessage("m2", nil))
	if err == nil {
		t.Fatal("non-matching errors must be returned")
	}
	if got := len(pub.Published(svc.Conf.Service.PoisonQueue)); got != 1 {
		t.Fatalf("unexpected poisoned count %d", got)
	}
}

func TestPoisonQueueMiddlewareRequirements(t *testing.T) {
	svc := newTestService(t)
	svc.publisher = nil
	if _, err := svc.poisonMiddlewareWithFilter(IsUnprocessable); !errors.Is(err, errspkg.ErrPublisherRequired) {
		t.Fatalf("expected ErrPublisherRequired, got %v", err)
	}

	svc = newTestService(t)
	svc.Conf = nil
	if _, err := svc.poisonMiddlewareWithFilter(IsUnprocessable); !errors.Is(err, errspkg.ErrConfigRequired) {
		t.Fatalf("expected ErrConfigRequired, got %v", err)
	}

	svc = newTestService(t)
	svc.Conf.Service.PoisonQueue = ""
	if _, err := svc.poisonMiddlewareWithFilter(IsUnprocessable); err == nil {
		t.Fatal("expected an error for an empty poison topic")
	}
}

func TestTracerMiddlewareRecordsErrors(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	svc := newTestService(t)
	svc.tracer = sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)).Tracer("test")
	mw := svc.tracerMiddleware()

	msg := message.NewMessage("m1", []byte{1, 2, 3})
	msg.Metadata.Set(metadatapkg.KeyCorrelationID, "corr")
	_, err := mw(func(m *message.Message) ([]*message.Message, error) {
		return nil, errors.New("boom")
	})(msg)
	if err == nil {
		t.Fatal("expected error")
	}

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected one span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name() != HandlerSpanName {
		t.Fatalf("unexpected span name %q", span.Name())
	}
	if span.Status().Code != codes.Error {
		t.Fatalf("expected error status, got %v", span.Status())
	}
	want := map[attribute.Key]attribute.Value{
		"message.uuid":           attribute.StringValue("m1"),
		"message.correlation_id": attribute.StringValue("corr"),
		"message.payload_bytes":  attribute.IntValue(3),
	}
	for _, kv := range span.Attributes() {
		if expected, ok := want[kv.Key]; ok {
			if kv.Value != expected {
				t.Fatalf("attribute %s = %v, want %v", kv.Key, kv.Value.Emit(), expected.Emit())
			}
			delete(want, kv.Key)
		}
	}
	if len(want) != 0 {
		t.Fatalf("missing attributes: %v", want)
	}
}

func TestRegisterMiddlewareValidations(t *testing.T) {
	t.Run("requires router", func(t *testing.T) {
		svc := &Service{}
		if err := svc.RegisterMiddleware(RecovererMiddleware()); !errors.Is(err, errspkg.ErrRouterRequired) {
			t.Fatalf("expected ErrRouterRequired, got %v", err)
		}
	})

	t.Run("requires middleware or builder", func(t *testing.T) {
		svc := newTestService(t)
		if err := svc.RegisterMiddleware(MiddlewareRegistration{Name: "empty"}); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("builder error", func(t *testing.T) {
		svc := newTestService(t)
		err := svc.RegisterMiddleware(MiddlewareRegistration{Builder: func(*Service) (message.HandlerMiddleware, error) {
			return nil, errors.New("boom")
		}})
		if err == nil || err.Error() != "boom" {
			t.Fatalf("expected builder error, got %v", err)
		}
	})

	t.Run("nil middleware from builder is skipped", func(t *testing.T) {
		svc := newTestService(t)
		err := svc.RegisterMiddleware(MiddlewareRegistration{Builder: func(*Service) (message.HandlerMiddleware, error) {
			return nil, nil
		}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestDefaultMiddlewaresRegister(t *testing.T) {
	svc := newTestService(t)
	for _, reg := range DefaultMiddlewares() {
		if err := svc.RegisterMiddleware(reg); err != nil {
			t.Fatalf("register %s: %v", reg.Name, err)
		}
	}
}

func TestMetricsMiddleware(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		svc := newTestService(t)
		mw, err := MetricsMiddleware().Builder(svc)
		if err != nil || mw != nil {
			t.Fatalf("expected no middleware, got %v / %v", mw, err)
		}
	})

	t.Run("enabled", func(t *testing.T) {
		svc := newTestService(t)
		reg := prometheus.NewRegistry()
		svc.registerer = reg
		svc.gatherer = reg
		svc.Conf.Metrics.Enabled = true
		svc.Conf.Metrics.Port = 19292

		mw, err := MetricsMiddleware().Builder(svc)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if mw == nil {
			t.Fatal("expected middleware")
		}
		if _, ok := svc.httpServers[19292]; !ok {
			t.Fatal("expected /metrics to be mounted")
		}
	})
}
