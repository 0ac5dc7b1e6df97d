package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"brightnest/internal/catalog"
	"brightnest/internal/config"
	"brightnest/internal/domain"
	"brightnest/internal/payments"
	"brightnest/internal/reconciler"
	"brightnest/internal/service"
)

// Server is the public HTTP surface: the booking funnel endpoints, the
// Stripe webhook and the admin review surface.
type Server struct {
	cfg        config.Config
	checkout   *service.CheckoutService
	reconciler *reconciler.Reconciler
	store      domain.Store
	gateway    payments.Gateway
	sessions   domain.SessionRepository
	notifier   domain.Notifier
	catalog    *catalog.Catalog
	logger     *zerolog.Logger
	admin      *adminAuth
	server     *http.Server
}

func NewServer(
	cfg config.Config,
	checkout *service.CheckoutService,
	rec *reconciler.Reconciler,
	store domain.Store,
	gateway payments.Gateway,
	sessions domain.SessionRepository,
	notifier domain.Notifier,
	cat *catalog.Catalog,
	logger *zerolog.Logger,
) *Server {
	srv := &Server{
		cfg:        cfg,
		checkout:   checkout,
		reconciler: rec,
		store:      store,
		gateway:    gateway,
		sessions:   sessions,
		notifier:   notifier,
		catalog:    cat,
		logger:     logger,
	}
	srv.admin = newAdminAuth(cfg.Admin, sessions, logger)

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	return srv
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/checkout", s.handleCheckout)
	mux.HandleFunc("/api/v1/quote", s.handleQuote)
	mux.HandleFunc("/api/v1/catalog", s.handleCatalog)
	mux.HandleFunc("/api/v1/contact", s.handleContact)
	mux.HandleFunc("/api/v1/webhook", s.handleWebhook)
	mux.HandleFunc("/api/v1/bookings/reconcile", s.handleReconcile)
	mux.HandleFunc("/api/v1/bookings/session/", s.handleBookingBySession)
	mux.HandleFunc("/api/v1/bookings/", s.handleBookingByReference)

	mux.HandleFunc("/api/v1/admin/login", s.admin.handleLogin)
	mux.HandleFunc("/api/v1/admin/logout", s.admin.handleLogout)
	mux.HandleFunc("/api/v1/admin/check-auth", s.admin.handleCheckAuth)
	mux.Handle("/api/v1/admin/bookings", s.admin.require(http.HandlerFunc(s.handleAdminBookings)))
	mux.Handle("/api/v1/admin/bookings/export", s.admin.require(http.HandlerFunc(s.handleAdminExport)))
	mux.Handle("/api/v1/admin/bookings/", s.admin.require(http.HandlerFunc(s.handleAdminBookingStatus)))

	mux.HandleFunc("/healthz", s.handleHealth)

	return s.loggingMiddleware(mux)
}

func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("http server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
