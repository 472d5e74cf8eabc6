package apiserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/ayurankh/claims-processor/internal/config"
	"github.com/ayurankh/claims-processor/internal/events"
	handlers "github.com/ayurankh/claims-processor/internal/handlers/v1alpha1"
	"github.com/ayurankh/claims-processor/internal/pipeline"
	"github.com/ayurankh/claims-processor/internal/registry"
	"github.com/ayurankh/claims-processor/internal/service"
	"github.com/ayurankh/claims-processor/internal/store"
	"github.com/ayurankh/claims-processor/pkg/metrics"
	"github.com/ayurankh/claims-processor/pkg/middleware"
)

const (
	gracefulShutdownTimeout = 5 * time.Second
)

type Server struct {
	cfg      *config.Config
	store    store.Store
	listener net.Listener
	producer *events.EventProducer
}

// New returns a new instance of the claims-processor API server.
func New(
	cfg *config.Config,
	store store.Store,
	listener net.Listener,
	producer *events.EventProducer,
) *Server {
	return &Server{
		cfg:      cfg,
		store:    store,
		listener: listener,
		producer: producer,
	}
}

func (s *Server) Run(ctx context.Context) error {
	zap.S().Named("api_server").Info("Initializing API server")

	registryClient := s.registryClient()
	runner := pipeline.NewRunner(s.store, registryClient, pipeline.WithEventProducer(s.producer))
	dispatcher := pipeline.NewDispatcher(runner, s.cfg.Pipeline.Workers, s.cfg.Pipeline.QueueDepth)
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	router := chi.NewRouter()

	metricMiddleware := metrics.NewMiddleware("api_server")
	metricMiddleware.MustRegisterDefault()

	router.Use(
		metricMiddleware.Handler,
		cors.Handler(cors.Options{
			AllowedOrigins:   s.cfg.Service.CorsOrigins,
			AllowedMethods:   []string{"GET", "PUT", "POST", "DELETE", "HEAD", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
		middleware.RequestID,
		middleware.Logger(),
		chiMiddleware.Recoverer,
	)

	h := handlers.NewServiceHandler(
		service.NewClaimService(s.store, dispatcher, s.cfg.Pipeline.UploadDir,
			service.WithClaimEventProducer(s.producer)),
		service.NewOverrideService(s.store, service.WithOverrideEventProducer(s.producer)),
	)

	router.Get("/health", h.Health)
	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/claims", h.SubmitClaim)
		r.Get("/claims/{id}", h.GetTaskStatus)
		r.Post("/overrides", h.PostOverride)
		r.Get("/overrides", h.ListOverrides)
		r.Get("/logs", h.ListOverrides)
		r.Post("/registry/claims", h.AcceptRegistryClaim)
	})

	srv := http.Server{Addr: s.cfg.Service.Address, Handler: router}

	go func() {
		<-ctx.Done()
		zap.S().Named("api_server").Infof("Shutdown signal received: %s", ctx.Err())
		ctxTimeout, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		_ = srv.Shutdown(ctxTimeout)
		zap.S().Named("api_server").Info("api server terminated")
	}()

	zap.S().Named("api_server").Infof("Listening on %s...", s.listener.Addr().String())
	if err := srv.Serve(s.listener); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}

	return nil
}

func (s *Server) registryClient() registry.Client {
	if s.cfg.Service.RegistryUrl == "" {
		return registry.NewStubClient()
	}
	return registry.NewHTTPClient(s.cfg.Service.RegistryUrl)
}
