package apiserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"

	"github.com/reelforge/reelforge/internal/auth"
	"github.com/reelforge/reelforge/internal/brand"
	"github.com/reelforge/reelforge/internal/config"
	"github.com/reelforge/reelforge/internal/events"
	handlers "github.com/reelforge/reelforge/internal/handlers/v1"
	"github.com/reelforge/reelforge/internal/live"
	"github.com/reelforge/reelforge/internal/provider/avatar"
	"github.com/reelforge/reelforge/internal/provider/compositor"
	"github.com/reelforge/reelforge/internal/provider/textgen"
	"github.com/reelforge/reelforge/internal/service"
	"github.com/reelforge/reelforge/internal/store"
	"github.com/reelforge/reelforge/pkg/log"
	"github.com/reelforge/reelforge/pkg/metrics"
	"github.com/reelforge/reelforge/pkg/requestid"
	"go.uber.org/zap"
)

const (
	gracefulShutdownTimeout = 5 * time.Second
)

type Server struct {
	cfg      *config.Config
	store    store.Store
	listener net.Listener
}

// New returns a new instance of a reelforge server.
func New(
	cfg *config.Config,
	store store.Store,
	listener net.Listener,
) *Server {
	return &Server{
		cfg:      cfg,
		store:    store,
		listener: listener,
	}
}

type healthReply struct {
	Status string `json:"status"`
}

func (h healthReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func (s *Server) Run(ctx context.Context) error {
	zap.S().Named("api_server").Info("Initializing API server")

	authenticator, err := auth.NewAuthenticator(s.cfg.Service.Auth)
	if err != nil {
		return fmt.Errorf("failed to create authenticator: %w", err)
	}

	brandResolver, err := s.newBrandResolver()
	if err != nil {
		return fmt.Errorf("failed to create brand resolver: %w", err)
	}

	// every job event goes to the log and to the websocket watchers
	hub := live.NewHub(s.cfg.Service.CorsOrigins...)
	producer := events.NewEventProducer(events.NewMultiWriter(events.NewLogWriter(), hub))
	defer func() {
		if err := producer.Close(); err != nil {
			zap.S().Named("api_server").Warnw("failed to close event producer", "error", err)
		}
	}()

	vendors := s.cfg.Vendors
	avatarClient := avatar.NewClient(vendors.AvatarBaseURL, vendors.AvatarAPIKey, vendors.Timeout)
	compositorClient := compositor.NewClient(vendors.CompositorBaseURL, vendors.CompositorAPIKey, vendors.Timeout)
	textgenClient := textgen.NewClient(vendors.TextGenBaseURL, vendors.TextGenAPIKey, vendors.TextGenModel, vendors.Timeout)

	accountService := service.NewAccountService(s.store, avatarClient, s.cfg.Service.StartingCredits)
	videoService := service.NewVideoService(
		s.store,
		producer,
		avatarClient,
		compositorClient,
		brandResolver,
		accountService,
		service.PipelineConfig{
			CallbackBaseURL: s.cfg.Service.BaseUrl,
			WebhookSecret:   s.cfg.Service.WebhookSecret,
			DefaultAccent:   s.cfg.Service.Branding.AccentColor,
		},
	)

	h := handlers.NewServiceHandler(
		videoService,
		service.NewWebhookService(s.store, producer, s.cfg.Service.WebhookSecret),
		service.NewCompletionService(s.store, producer, textgenClient),
		accountService,
		hub,
	)

	router := chi.NewRouter()

	metricMiddleware := metrics.NewMiddleware("api_server")
	metricMiddleware.MustRegister(nil)

	router.Use(
		metricMiddleware.Handler,
		cors.Handler(cors.Options{
			AllowedOrigins:   s.cfg.Service.CorsOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", requestid.HeaderName},
			ExposedHeaders:   []string{requestid.HeaderName},
			AllowCredentials: true,
			MaxAge:           300,
		}),
		chiMiddleware.RequestID,
		requestid.Middleware,
		log.Logger(zap.L(), "http"),
		chiMiddleware.Recoverer,
	)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_ = render.Render(w, r, healthReply{Status: "ok"})
	})
	h.RegisterWebhooks(router)
	router.Group(func(r chi.Router) {
		r.Use(authenticator.Authenticator)
		h.RegisterAPI(r)
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
	if err := srv.Serve(s.listener); err != nil && !errors.Is(err, net.ErrClosed) && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) newBrandResolver() (*brand.Resolver, error) {
	branding := s.cfg.Service.Branding
	opts := []brand.Option{brand.WithDefaults(branding.LogoURL, branding.BackgroundURL)}

	if s.cfg.StorageEnabled() {
		st := s.cfg.Storage
		opts = append(opts,
			brand.WithMinio(st.Endpoint, st.Bucket, st.AccessKey, st.SecretKey, st.Region, st.UseSSL),
			brand.WithURLTTL(st.URLTTL),
		)
	} else {
		zap.S().Named("api_server").Info("object storage not configured, brand assets fall back to defaults")
	}

	return brand.NewResolver(opts...)
}
