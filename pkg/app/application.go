package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"carelink/pkg/auth"
	"carelink/pkg/config"
	"carelink/pkg/contracts"
	"carelink/pkg/middleware"

	"github.com/go-redis/redis/v8"
	"github.com/julienschmidt/httprouter"
)

type Option func(*options)

type options struct {
	verifier     auth.Verifier
	authRequired bool
	streams      map[string]http.Handler
}

// WithAuthentication resolves bearer tokens on every application route.
func WithAuthentication(verifier auth.Verifier, required bool) Option {
	return func(o *options) {
		o.verifier = verifier
		o.authRequired = required
	}
}

// WithStream mounts a long-lived endpoint (websocket) outside the request
// timeout, content-type and idempotency layers.
func WithStream(path string, handler http.Handler) Option {
	return func(o *options) {
		o.streams[path] = handler
	}
}

type Application struct {
	cfg              *config.Config
	server           *http.Server
	idempotencyStore middleware.IdempotencyStore
	rateLimiter      *middleware.RateLimiter
	healthHandler    http.Handler
	appHTTPHandler   http.Handler
	streams          map[string]http.Handler
	shutdownHooks    []func(context.Context)
}

func NewApplication(cfg *config.Config) *Application {
	return &Application{cfg: cfg}
}

func (a *Application) SetApp(appHandler contracts.Handler, opts ...Option) {
	o := &options{streams: make(map[string]http.Handler)}
	for _, opt := range opts {
		opt(o)
	}

	a.setHealthHandler()
	a.setAppHandler(appHandler, o)
	a.setStreams(o)
	a.setAppServer()
}

// OnShutdown registers a hook run after the HTTP server stops accepting
// requests, in registration order.
func (a *Application) OnShutdown(hook func(context.Context)) {
	a.shutdownHooks = append(a.shutdownHooks, hook)
}

// Handler exposes the assembled handler for in-process tests.
func (a *Application) Handler() http.Handler {
	return a.server.Handler
}

func (a *Application) setHealthHandler() {
	healthRouter := httprouter.New()
	NewHealthHandler(a.cfg.Client, a.cfg.Log).RegisterRoutes(healthRouter)

	var healthHTTPHandler http.Handler = healthRouter
	healthHTTPHandler = middleware.RequestLogging(a.cfg.Log)(healthHTTPHandler)
	healthHTTPHandler = middleware.Recovery(a.cfg.Log)(healthHTTPHandler)
	a.healthHandler = healthHTTPHandler
	a.cfg.Log.Info("Health endpoints configured with minimal middleware (Recovery + Logging only)")
}

func (a *Application) setAppHandler(appHandler contracts.Handler, o *options) {
	appRouter := httprouter.New()
	appHandler.RegisterRoutes(appRouter)

	a.idempotencyStore = a.newIdempotencyStore()
	a.rateLimiter = middleware.NewRateLimiter(
		a.cfg.RateLimitRequests,
		a.cfg.RateLimitWindow,
		middleware.PrincipalOrIPExtractor,
		a.cfg.Log,
	)

	var appHTTPHandler http.Handler = appRouter
	appHTTPHandler = middleware.Idempotency(a.idempotencyStore, middleware.IdempotencyHeader)(appHTTPHandler)
	appHTTPHandler = middleware.RequestTimeout(a.cfg.RequestTimeout)(appHTTPHandler)
	appHTTPHandler = middleware.RateLimit(a.rateLimiter)(appHTTPHandler)
	if o.verifier != nil {
		appHTTPHandler = middleware.Authenticate(o.verifier, o.authRequired, a.cfg.Log)(appHTTPHandler)
		a.cfg.Log.Info("Bearer authentication enabled", "required", o.authRequired)
	}
	appHTTPHandler = middleware.ContentTypeValidation(a.cfg.Log)(appHTTPHandler)
	appHTTPHandler = middleware.MaxRequestSize(int64(a.cfg.MaxRequestSize))(appHTTPHandler)
	appHTTPHandler = middleware.Metrics()(appHTTPHandler)
	appHTTPHandler = middleware.RequestLogging(a.cfg.Log)(appHTTPHandler)
	appHTTPHandler = middleware.Recovery(a.cfg.Log)(appHTTPHandler)
	a.appHTTPHandler = appHTTPHandler
	a.cfg.Log.Info("Application endpoints configured with full security middleware stack")
}

func (a *Application) setStreams(o *options) {
	a.streams = make(map[string]http.Handler, len(o.streams))
	for path, handler := range o.streams {
		var streamHandler = handler
		streamHandler = middleware.RequestLogging(a.cfg.Log)(streamHandler)
		streamHandler = middleware.Recovery(a.cfg.Log)(streamHandler)
		a.streams[path] = streamHandler
		a.cfg.Log.Info("Stream endpoint configured", "path", path)
	}
}

func (a *Application) newIdempotencyStore() middleware.IdempotencyStore {
	if a.cfg.IdempotencyRedisAddr == "" {
		return middleware.NewInMemoryIdempotencyStore(a.cfg.IdempotencyTTL)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     a.cfg.IdempotencyRedisAddr,
		Password: a.cfg.IdempotencyRedisPassword,
		DB:       a.cfg.IdempotencyRedisDB,
	})
	a.cfg.Log.Info("Using Redis idempotency store", "addr", a.cfg.IdempotencyRedisAddr)
	return middleware.NewRedisIdempotencyStore(client, a.cfg.IdempotencyTTL, a.cfg.Log)
}

func (a *Application) setAppServer() {
	mux := http.NewServeMux()
	mux.Handle("/health", a.healthHandler)
	mux.Handle("/ready", a.healthHandler)
	mux.Handle("/metrics", a.healthHandler)
	for path, handler := range a.streams {
		mux.Handle(path, handler)
	}
	mux.Handle("/", a.appHTTPHandler)

	a.server = &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      mux,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
		IdleTimeout:  a.cfg.IdleTimeout,
	}

	a.cfg.Log.Info("HTTP server configured", "port", a.cfg.Port)
}

func (a *Application) Run() {
	serverErrors := make(chan error, 1)

	go func() {
		a.cfg.Log.Info("Starting HTTP server", "address", a.server.Addr)
		serverErrors <- a.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			a.cfg.Log.Fatal("HTTP server failed", "error", err)
		}

	case sig := <-shutdown:
		a.cfg.Log.Info("Shutdown signal received", "signal", sig)
		a.gracefulShutdown()
	}
}

func (a *Application) gracefulShutdown() {
	a.cfg.Log.Info("Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.cfg.Log.Error("Server shutdown failed", "error", err)
		if err := a.server.Close(); err != nil {
			a.cfg.Log.Error("Could not stop server gracefully", "error", err)
		}
	}

	a.cfg.Log.Info("Stopping background workers...")
	for _, hook := range a.shutdownHooks {
		hook(ctx)
	}
	a.idempotencyStore.Stop()
	a.rateLimiter.Stop()
	a.cfg.Log.Info("Background workers stopped")

	a.cfg.GracefulShutdown()
	a.cfg.Log.Info("Server stopped gracefully")
}
