package runtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/plugin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	configpkg "github.com/drblury/protoenclave/internal/runtime/config"
	errspkg "github.com/drblury/protoenclave/internal/runtime/errors"
	loggingpkg "github.com/drblury/protoenclave/internal/runtime/logging"
	transportpkg "github.com/drblury/protoenclave/internal/runtime/transport"
	"github.com/drblury/protoenclave/transport"
)

var routerRun = func(router *message.Router, ctx context.Context) error {
	return router.Run(ctx)
}

const httpShutdownTimeout = 5 * time.Second

// ServiceDependencies holds the optional collaborators of a Service. Leave
// fields nil to get the defaults.
type ServiceDependencies struct {
	// Engine replaces the engine built from the config.
	Engine                    *Engine
	Middlewares               []MiddlewareRegistration // Appended after the default middleware chain.
	DisableDefaultMiddlewares bool                     // Skips registering the default middleware chain when true.
	TransportFactory          transportpkg.Factory
	// Registerer and Gatherer back the Prometheus metrics; they default to
	// the global registry.
	Registerer     prometheus.Registerer
	Gatherer       prometheus.Gatherer
	TracerProvider trace.TracerProvider
	// DisableSignalHandler keeps the router from closing on SIGINT/SIGTERM.
	DisableSignalHandler bool
}

// Service hosts the boundary engine behind a Watermill router: encoded
// requests are consumed from the request topic and encoded responses are
// published to the response topic.
type Service struct {
	Conf   *configpkg.Config
	Logger loggingpkg.ServiceLogger

	engine       *Engine
	capabilities transport.Capabilities

	transport  transport.Transport
	publisher  message.Publisher
	subscriber message.Subscriber
	router     *message.Router

	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer
	tracer     trace.Tracer

	handlers   []HandlerInfo
	handlersMu sync.RWMutex

	httpServers   map[int]*http.ServeMux
	httpServersMu sync.Mutex
}

// NewService validates conf, builds the transport and the engine, installs
// the middleware chain and registers the boundary handler. Call Start to run it.
func NewService(conf *configpkg.Config, log loggingpkg.ServiceLogger, ctx context.Context, deps ServiceDependencies) (*Service, error) {
	if err := configpkg.ValidateConfig(conf); err != nil {
		return nil, err
	}
	if log == nil {
		return nil, errspkg.ErrLoggerRequired
	}
	if ctx == nil {
		ctx = context.Background()
	}

	log.Info("Creating enclave service", loggingpkg.LogFields{
		"pubsub_system": conf.Service.PubSubSystem,
		"config":        conf.String(),
	})

	s := &Service{
		Conf:       conf,
		Logger:     log,
		registerer: deps.Registerer,
		gatherer:   deps.Gatherer,
	}
	if s.registerer == nil {
		s.registerer = prometheus.DefaultRegisterer
	}
	if s.gatherer == nil {
		s.gatherer = prometheus.DefaultGatherer
	}
	tp := deps.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	s.tracer = tp.Tracer("protoenclave/service")

	wmLogger := loggingpkg.NewWatermillAdapter(log)
	factory := deps.TransportFactory
	if factory == nil {
		factory = transportpkg.DefaultFactory()
	}
	s.capabilities = factory.Capabilities(conf)

	engine := deps.Engine
	if engine == nil {
		var err error
		if engine, err = s.buildEngine(tp); err != nil {
			return nil, err
		}
	}
	s.engine = engine

	tr, err := factory.Build(ctx, conf, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("build %s transport: %w", conf.Service.PubSubSystem, err)
	}
	s.transport = tr
	s.publisher = tr.Publisher
	s.subscriber = tr.Subscriber

	router, err := message.NewRouter(message.RouterConfig{}, wmLogger)
	if err != nil {
		_ = tr.Close()
		return nil, err
	}
	s.router = router
	if !deps.DisableSignalHandler {
		s.router.AddPlugin(plugin.SignalsHandler)
	}

	if err := s.registerConfiguredMiddlewares(deps); err != nil {
		_ = s.Close()
		return nil, err
	}
	if err := s.registerBoundaryHandler(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// buildEngine derives the engine from the config, clamping the request limit
// to what the transport can carry.
func (s *Service) buildEngine(tp trace.TracerProvider) (*Engine, error) {
	engineConf := *s.Conf
	limit := s.capabilities.RequestLimit(engineConf.Codec.MaxRequestBytes)
	if limit != engineConf.Codec.MaxRequestBytes {
		s.Logger.Info("Clamping request limit to transport maximum", loggingpkg.LogFields{
			"configured": engineConf.Codec.MaxRequestBytes,
			"effective":  limit,
			"transport":  s.capabilities.Name,
		})
		engineConf.Codec.MaxRequestBytes = limit
	}

	opts := []EngineOption{WithTracerProvider(tp)}
	if s.Conf.Metrics.Enabled {
		bm := NewBoundaryMetrics(s.registerer)
		if err := bm.Register(); err != nil {
			return nil, err
		}
		opts = append(opts, WithBoundaryMetrics(bm))
	}
	return NewEngineFromConfig(&engineConf, s.Logger, opts...)
}

func (s *Service) registerBoundaryHandler() error {
	handler, err := NewBoundaryHandler(s.engine)
	if err != nil {
		return err
	}
	return s.registerHandler(handlerRegistration{
		Name:         s.Conf.Service.HandlerName,
		ConsumeQueue: s.Conf.Service.RequestTopic,
		PublishQueue: s.Conf.Service.ResponseTopic,
		Handler:      handler,
	})
}

// Engine returns the boundary engine the service runs.
func (s *Service) Engine() *Engine {
	return s.engine
}

// Capabilities reports what the configured transport supports.
func (s *Service) Capabilities() transport.Capabilities {
	return s.capabilities
}

// Running is closed once the router has started all handlers.
func (s *Service) Running() chan struct{} {
	return s.router.Running()
}

// Start runs the router until ctx is cancelled or the router is closed.
func (s *Service) Start(ctx context.Context) error {
	stop := s.startHTTPServers(ctx)
	defer stop()
	return routerRun(s.router, ctx)
}

// Close stops the router, if it was started, and closes the transport.
func (s *Service) Close() error {
	var errs []error
	if s.router != nil && s.router.IsRunning() {
		errs = append(errs, s.router.Close())
	}
	errs = append(errs, s.transport.Close())
	return errors.Join(errs...)
}

func (s *Service) registerConfiguredMiddlewares(deps ServiceDependencies) error {
	var defaults []MiddlewareRegistration
	if !deps.DisableDefaultMiddlewares {
		defaults = DefaultMiddlewares()
	}
	registrations := make([]MiddlewareRegistration, 0, len(defaults)+len(deps.Middlewares))
	registrations = append(registrations, defaults...)
	registrations = append(registrations, deps.Middlewares...)

	for _, reg := range registrations {
		if err := s.RegisterMiddleware(reg); err != nil {
			name := reg.Name
			if name == "" {
				name = "anonymous_middleware"
			}
			return fmt.Errorf("register middleware %s: %w", name, err)
		}
	}
	return nil
}

// RegisterHTTPHandler mounts handler on the HTTP server listening on port.
// Servers start with Start.
func (s *Service) RegisterHTTPHandler(port int, pattern string, handler http.Handler) {
	s.httpServersMu.Lock()
	defer s.httpServersMu.Unlock()

	if s.httpServers == nil {
		s.httpServers = make(map[int]*http.ServeMux)
	}

	mux, ok := s.httpServers[port]
	if !ok {
		mux = http.NewServeMux()
		s.httpServers[port] = mux
	}

	mux.Handle(pattern, handler)
}

// startHTTPServers starts one server per registered port and returns a func
// that shuts them down. Servers also stop when ctx is cancelled.
func (s *Service) startHTTPServers(ctx context.Context) func() {
	s.httpServersMu.Lock()
	ports := make([]int, 0, len(s.httpServers))
	for port := range s.httpServers {
		ports = append(ports, port)
	}
	sort.Ints(ports)
	servers := make([]*http.Server, 0, len(ports))
	for _, port := range ports {
		servers = append(servers, &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           s.httpServers[port],
			ReadHeaderTimeout: httpShutdownTimeout,
		})
	}
	s.httpServersMu.Unlock()

	for _, srv := range servers {
		s.Logger.Info("Starting HTTP server", loggingpkg.LogFields{"address": srv.Addr})
		go func(srv *http.Server) {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.Logger.Error("HTTP server stopped", err, loggingpkg.LogFields{"address": srv.Addr})
			}
		}(srv)
	}

	var once sync.Once
	stop := func() {
		once.Do(func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
			defer cancel()
			for _, srv := range servers {
				_ = srv.Shutdown(shutdownCtx)
			}
		})
	}
	detach := context.AfterFunc(ctx, stop)
	return func() {
		detach()
		stop()
	}
}
