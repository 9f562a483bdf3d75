package runtime

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	configpkg "github.com/drblury/protoenclave/internal/runtime/config"
	loggingpkg "github.com/drblury/protoenclave/internal/runtime/logging"
	"github.com/drblury/protoenclave/transport"
)

func newTestLogger() loggingpkg.ServiceLogger {
	return loggingpkg.NewSlogServiceLogger(slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug})))
}

type recordingServiceLogger struct {
	mu     sync.Mutex
	debugs []string
	infos  []string
	errors []string
	fields []loggingpkg.LogFields
}

func (r *recordingServiceLogger) With(loggingpkg.LogFields) loggingpkg.ServiceLogger { return r }

func (r *recordingServiceLogger) Debug(msg string, fields loggingpkg.LogFields) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.debugs = append(r.debugs, msg)
	r.fields = append(r.fields, fields)
}

func (r *recordingServiceLogger) Info(msg string, fields loggingpkg.LogFields) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.infos = append(r.infos, msg)
	r.fields = append(r.fields, fields)
}

func (r *recordingServiceLogger) Error(msg string, _ error, fields loggingpkg.LogFields) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, msg)
	r.fields = append(r.fields, fields)
}

func (r *recordingServiceLogger) Trace(string, loggingpkg.LogFields) {}

func (r *recordingServiceLogger) allFields() []loggingpkg.LogFields {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]loggingpkg.LogFields, len(r.fields))
	copy(out, r.fields)
	return out
}

func (r *recordingServiceLogger) errorCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errors)
}

type testPublisher struct {
	mu       sync.Mutex
	messages map[string][]*message.Message
	err      error
}

func (p *testPublisher) Publish(topic string, messages ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	if p.messages == nil {
		p.messages = make(map[string][]*message.Message)
	}
	p.messages[topic] = append(p.messages[topic], messages...)
	return nil
}

func (p *testPublisher) Close() error { return nil }

func (p *testPublisher) Published(topic string) []*message.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	clone := make([]*message.Message, len(p.messages[topic]))
	copy(clone, p.messages[topic])
	return clone
}

type testSubscriber struct {
	err error
}

func (s *testSubscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	if s.err != nil {
		return nil, s.err
	}
	ch := make(chan *message.Message)
	close(ch)
	return ch, nil
}

func (s *testSubscriber) Close() error { return nil }

// testTransportFactory hands out a fixed transport.
type testTransportFactory struct {
	transport    transport.Transport
	capabilities transport.Capabilities
	err          error
	builds       int
}

func (f *testTransportFactory) Build(context.Context, *configpkg.Config, watermill.LoggerAdapter) (transport.Transport, error) {
	f.builds++
	if f.err != nil {
		return transport.Transport{}, f.err
	}
	return f.transport, nil
}

func (f *testTransportFactory) Capabilities(*configpkg.Config) transport.Capabilities {
	return f.capabilities
}

func newTestFactory() *testTransportFactory {
	return &testTransportFactory{
		transport:    transport.Transport{Publisher: &testPublisher{}, Subscriber: &testSubscriber{}},
		capabilities: transport.ChannelCapabilities,
	}
}

// newTestService builds a bare Service with a router and test transport,
// skipping NewService so single pieces can be exercised.
func newTestService(t *testing.T) *Service {
	t.Helper()
	log := newTestLogger()
	router, err := message.NewRouter(message.RouterConfig{}, loggingpkg.NewWatermillAdapter(log))
	if err != nil {
		t.Fatalf("router init failed: %v", err)
	}
	pub := &testPublisher{}
	sub := &testSubscriber{}
	return &Service{
		Conf:         configpkg.Default(),
		Logger:       log,
		engine:       NewEngine(),
		capabilities: transport.ChannelCapabilities,
		transport:    transport.Transport{Publisher: pub, Subscriber: sub},
		publisher:    pub,
		subscriber:   sub,
		router:       router,
		tracer:       noopTracer(),
	}
}

func noopTracer() trace.Tracer {
	return noop.NewTracerProvider().Tracer("test")
}
