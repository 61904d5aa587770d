package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	slacklib "github.com/slack-go/slack"

	"github.com/jpd-dfo/spacos/internal/ai"
	v1 "github.com/jpd-dfo/spacos/internal/api/v1"
	"github.com/jpd-dfo/spacos/internal/api/ws"
	"github.com/jpd-dfo/spacos/internal/auth"
	"github.com/jpd-dfo/spacos/internal/config"
	"github.com/jpd-dfo/spacos/internal/edgar"
	"github.com/jpd-dfo/spacos/internal/guard"
	"github.com/jpd-dfo/spacos/internal/notify"
	"github.com/jpd-dfo/spacos/internal/server/middleware"
	"github.com/jpd-dfo/spacos/internal/store/postgres"
	redisstore "github.com/jpd-dfo/spacos/internal/store/redis"
)

// Server is the HTTP server that wires all application routes and middleware.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	store      *postgres.Store
	cfg        *config.Config
}

// New creates a Server with all routes wired. pubsub may be nil; without it
// the websocket activity feed is disabled and activity events only reach
// the optional Slack notifier.
func New(cfg *config.Config, store *postgres.Store, pubsub *redisstore.PubSub, authSvc *auth.Service, filings *edgar.Client, scorer *ai.Client) *Server {
	router := chi.NewRouter()

	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Logger)
	router.Use(chimw.Recoverer)
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-OAuth-State"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	s := &Server{
		router: router,
		store:  store,
		cfg:    cfg,
		httpServer: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}

	g := guard.New(store.Memberships())
	bus := buildActivityBus(cfg, pubsub)
	providers := buildOAuthProviders(cfg)

	// Middleware lifecycle context: rate-limiter cleanup goroutines stop
	// when the process shuts down, not per request.
	mwCtx := context.Background()

	// Two sub-groups under /api/v1: unauthenticated auth endpoints with
	// per-IP limits, then everything else behind JWT auth with per-user
	// limits.
	router.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(mwCtx, 5, 10))

			authConfig := huma.DefaultConfig("SPACOS Auth API", "1.0.0")
			authConfig.Servers = []*huma.Server{{URL: "/api/v1"}}
			authAPI := humachi.New(r, authConfig)
			v1.RegisterAuthRoutes(authAPI, authSvc, providers)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT.Secret))
			r.Use(middleware.RateLimitByUser(mwCtx, 50, 100))

			apiConfig := huma.DefaultConfig("SPACOS API", "1.0.0")
			apiConfig.Servers = []*huma.Server{{URL: "/api/v1"}}
			api := humachi.New(r, apiConfig)
			registerAPIRoutes(api, store, g, bus, filings, scorer, cfg)
		})
	})

	// WebSocket activity feed, only when Redis fan-out is available.
	if pubsub != nil {
		hub := ws.NewHub(pubsub, g)
		router.Route("/ws", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT.Secret))
			registerWSRoutes(r, hub)
		})
	}

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return s
}

// buildActivityBus composes the configured activity sinks: Redis fan-out
// for websocket clients, Slack for notable deal events. Either may be
// absent; with neither, the bus is nil and publishing is a no-op.
func buildActivityBus(cfg *config.Config, pubsub *redisstore.PubSub) v1.ActivityBus {
	var sinks multiBus

	if pubsub != nil {
		sinks = append(sinks, pubsub)
	}

	if cfg.Slack.BotToken != "" && cfg.Slack.Channel != "" {
		client := slacklib.New(cfg.Slack.BotToken)
		sinks = append(sinks, notify.NewSlack(client, cfg.Slack.Channel))
		log.Info().Str("channel", cfg.Slack.Channel).Msg("slack deal notifications enabled")
	}

	if len(sinks) == 0 {
		return nil
	}
	return sinks
}

func buildOAuthProviders(cfg *config.Config) map[string]*auth.OAuthProvider {
	providers := make(map[string]*auth.OAuthProvider)

	if cfg.OAuth.GoogleClientID != "" {
		providers["google"] = auth.NewGoogleProvider(
			cfg.OAuth.GoogleClientID,
			cfg.OAuth.GoogleClientSecret,
			cfg.OAuth.RedirectBaseURL+"/api/v1/auth/oauth/google/callback",
		)
		log.Info().Msg("google sign-in enabled")
	}

	if cfg.OAuth.MicrosoftClientID != "" {
		providers["microsoft"] = auth.NewMicrosoftProvider(
			cfg.OAuth.MicrosoftClientID,
			cfg.OAuth.MicrosoftClientSecret,
			cfg.OAuth.RedirectBaseURL+"/api/v1/auth/oauth/microsoft/callback",
		)
		log.Info().Msg("microsoft sign-in enabled")
	}

	return providers
}

// Start begins listening for HTTP requests.
func (s *Server) Start(_ context.Context) error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.Start: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
