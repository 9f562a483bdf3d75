package runtime

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	errspkg "github.com/drblury/protoenclave/internal/runtime/errors"
)

type handlerRegistration struct {
	Name         string
	ConsumeQueue string
	Subscriber   message.Subscriber
	PublishQueue string
	Publisher    message.Publisher
	Handler      message.HandlerFunc
}

// MessageHandlerRegistration wires a raw Watermill handler next to the
// boundary handler. Subscriber and Publisher default to the service transport.
type MessageHandlerRegistration struct {
	Name         string
	ConsumeQueue string
	PublishQueue string
	Handler      message.HandlerFunc
	Subscriber   message.Subscriber
	Publisher    message.Publisher
}

// HandlerInfo describes a handler registered on the service router.
type HandlerInfo struct {
	Name         string
	ConsumeQueue string
	PublishQueue string
	Stats        *HandlerStats
}

// HandlerStats counts handler invocations. It is safe for concurrent use.
type HandlerStats struct {
	processed     atomic.Int64
	failed        atomic.Int64
	unprocessable atomic.Int64

	mu          sync.Mutex
	lastError   string
	lastElapsed time.Duration
}

// HandlerStatsSnapshot is a point-in-time copy of HandlerStats.
type HandlerStatsSnapshot struct {
	Processed     int64
	Failed        int64
	Unprocessable int64
	LastError     string
	LastElapsed   time.Duration
}

func (h *HandlerStats) record(elapsed time.Duration, err error) {
	h.processed.Add(1)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastElapsed = elapsed
	if err == nil {
		return
	}
	h.failed.Add(1)
	if IsUnprocessable(err) {
		h.unprocessable.Add(1)
	}
	h.lastError = err.Error()
}

// Snapshot returns the current counters.
func (h *HandlerStats) Snapshot() HandlerStatsSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return HandlerStatsSnapshot{
		Processed:     h.processed.Load(),
		Failed:        h.failed.Load(),
		Unprocessable: h.unprocessable.Load(),
		LastError:     h.lastError,
		LastElapsed:   h.lastElapsed,
	}
}

// RegisterMessageHandler attaches the provided handler to the service router.
func RegisterMessageHandler(svc *Service, cfg MessageHandlerRegistration) error {
	if svc == nil {
		return errspkg.ErrServiceRequired
	}

	return svc.registerHandler(handlerRegistration{
		Name:         cfg.Name,
		ConsumeQueue: cfg.ConsumeQueue,
		PublishQueue: cfg.PublishQueue,
		Subscriber:   cfg.Subscriber,
		Publisher:    cfg.Publisher,
		Handler:      cfg.Handler,
	})
}

// Handlers lists the registered handlers in registration order.
func (s *Service) Handlers() []HandlerInfo {
	s.handlersMu.RLock()
	defer s.handlersMu.RUnlock()
	out := make([]HandlerInfo, len(s.handlers))
	copy(out, s.handlers)
	return out
}

func (s *Service) registerHandler(cfg handlerRegistration) error {
	if cfg.Handler == nil {
		return errspkg.ErrHandlerRequired
	}
	if cfg.ConsumeQueue == "" {
		return errspkg.ErrConsumeQueueRequired
	}
	if cfg.Name == "" {
		return errspkg.ErrHandlerNameRequired
	}
	if s.router == nil {
		return errspkg.ErrRouterRequired
	}
	if cfg.Subscriber == nil {
		cfg.Subscriber = s.subscriber
	}
	if cfg.Publisher == nil {
		cfg.Publisher = s.publisher
	}

	stats := &HandlerStats{}
	s.handlersMu.Lock()
	s.handlers = append(s.handlers, HandlerInfo{
		Name:         cfg.Name,
		ConsumeQueue: cfg.ConsumeQueue,
		PublishQueue: cfg.PublishQueue,
		Stats:        stats,
	})
	s.handlersMu.Unlock()

	handler := wrapHandlerWithStats(cfg.Handler, stats)
	if cfg.PublishQueue == "" {
		s.router.AddNoPublisherHandler(cfg.Name, cfg.ConsumeQueue, cfg.Subscriber, func(msg *message.Message) error {
			_, err := handler(msg)
			return err
		})
		return nil
	}

	s.router.AddHandler(
		cfg.Name,
		cfg.ConsumeQueue,
		cfg.Subscriber,
		cfg.PublishQueue,
		cfg.Publisher,
		handler,
	)
	return nil
}

func wrapHandlerWithStats(handler message.HandlerFunc, stats *HandlerStats) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		start := time.Now()
		msgs, err := handler(msg)
		stats.record(time.Since(start), err)
		return msgs, err
	}
}
