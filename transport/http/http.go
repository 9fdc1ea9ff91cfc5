package http

import (
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"lendit/config"
	"lendit/shared/constant"
	"lendit/transport/http/middleware"
	"lendit/transport/http/response"
	"lendit/transport/http/router"
)

type ServerState int

const (
	ServerStateReady ServerState = iota + 1
	ServerStateInGracePeriod
	ServerStateInCleanupPeriod
)

type HTTP struct {
	Config     *config.Config
	Router     router.Router
	Middleware middleware.AppMiddleware
	State      ServerState
	mux        chi.Router
}

func New(cfg *config.Config, r router.Router, appMiddleware middleware.AppMiddleware) *HTTP {
	return &HTTP{
		Config:     cfg,
		Router:     r,
		Middleware: appMiddleware,
	}
}

func (h *HTTP) Serve() {
	h.setup()

	log.Info().Str("port", h.Config.Server.Port).Msg("Starting up HTTP server.")

	server := &http.Server{
		Addr:              net.JoinHostPort("0.0.0.0", h.Config.Server.Port),
		Handler:           h.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if err := server.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start HTTP server")
	}
}

// Adaptor exposes the configured mux as a plain handler for serverless hosts.
func (h *HTTP) Adaptor() http.HandlerFunc {
	h.setup()

	return h.mux.ServeHTTP
}

func (h *HTTP) setup() {
	h.setupRoutes()
	h.setupGracefulShutdown()
	h.State = ServerStateReady
}

func (h *HTTP) setupRoutes() {
	h.mux = chi.NewRouter()

	h.mux.Use(h.Middleware.Tracing)
	h.mux.Use(h.Middleware.RateLimit())

	if h.Config.App.CORS.Enable {
		corsConfig := h.Config.App.CORS

		h.mux.Use(cors.Handler(cors.Options{
			AllowCredentials: corsConfig.AllowCredentials,
			AllowedHeaders:   corsConfig.AllowedHeaders,
			AllowedMethods:   corsConfig.AllowedMethods,
			AllowedOrigins:   corsConfig.AllowedOrigins,
			MaxAge:           corsConfig.MaxAgeSeconds,
		}))
	}

	h.mux.Get("/health", h.HealthCheck)

	h.Router.SetupRoutes(h.mux)
}

// HealthCheck reports readiness, refusing traffic once shutdown has begun.
func (h *HTTP) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.State != ServerStateReady {
		response.WithPreparingShutdown(w)

		return
	}

	response.WithMessage(w, http.StatusOK, "OK")
}

func (h *HTTP) setupGracefulShutdown() {
	serverStateCh := make(chan os.Signal, 1)

	signal.Notify(serverStateCh, os.Interrupt, syscall.SIGTERM)

	go h.respondToSigterm(serverStateCh)
}

func (h *HTTP) respondToSigterm(done chan os.Signal) {
	<-done

	defer os.Exit(0)

	if h.Config.Server.Env == constant.ServerEnvDevelopment {
		log.Warn().Msg("Received SIGTERM. Shutting down now.")

		return
	}

	shutdownConfig := h.Config.Server.Shutdown

	log.Info().Msg("Received SIGTERM.")
	log.Info().Int64("seconds", shutdownConfig.GracePeriodSeconds).Msg("Entering grace period.")

	h.State = ServerStateInGracePeriod

	time.Sleep(time.Duration(shutdownConfig.GracePeriodSeconds) * time.Second)

	log.Info().Int64("seconds", shutdownConfig.CleanupPeriodSeconds).Msg("Entering cleanup period.")

	h.State = ServerStateInCleanupPeriod

	time.Sleep(time.Duration(shutdownConfig.CleanupPeriodSeconds) * time.Second)

	log.Info().Msg("Cleaning up completed. Shutting down now.")
}
