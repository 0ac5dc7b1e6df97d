package api

import (
	"crypto/subtle"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"brightnest/internal/config"
	"brightnest/internal/database"
	"brightnest/internal/domain"
	"brightnest/internal/models"
)

// adminAuth handles the password login, session cookies and per-IP login
// rate limiting for the admin surface.
type adminAuth struct {
	cfg      config.AdminConfig
	sessions domain.SessionRepository
	logger   *zerolog.Logger
	limiters sync.Map // map[string]*rate.Limiter
}

func newAdminAuth(cfg config.AdminConfig, sessions domain.SessionRepository, logger *zerolog.Logger) *adminAuth {
	return &adminAuth{cfg: cfg, sessions: sessions, logger: logger}
}

func (a *adminAuth) sessionTTL() time.Duration {
	return time.Duration(a.cfg.SessionTTLDays) * 24 * time.Hour
}

func (a *adminAuth) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if !a.allowLogin(r) {
		writeError(w, http.StatusTooManyRequests, "too many login attempts")
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(a.cfg.Password)) != 1 {
		a.logger.Warn().Str("ip", clientIP(r)).Msg("admin login rejected")
		writeError(w, http.StatusUnauthorized, "invalid password")
		return
	}

	token := uuid.NewString()
	if err := a.sessions.CreateSession(r.Context(), token, a.sessionTTL()); err != nil {
		a.logger.Error().Err(err).Msg("creating admin session failed")
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	http.SetCookie(w, a.sessionCookie(token, int(a.sessionTTL().Seconds())))
	a.logger.Info().Str("ip", clientIP(r)).Msg("admin logged in")
	writeJSON(w, http.StatusOK, map[string]bool{"authenticated": true})
}

func (a *adminAuth) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if cookie, err := r.Cookie(models.AdminSessionCookie); err == nil {
		if err := a.sessions.DeleteSession(r.Context(), cookie.Value); err != nil {
			a.logger.Error().Err(err).Msg("deleting admin session failed")
		}
	}

	http.SetCookie(w, a.sessionCookie("", -1))
	writeJSON(w, http.StatusOK, map[string]bool{"authenticated": false})
}

func (a *adminAuth) handleCheckAuth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"authenticated": a.authenticated(r)})
}

// require guards admin handlers behind a valid session cookie.
func (a *adminAuth) require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.authenticated(r) {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *adminAuth) authenticated(r *http.Request) bool {
	cookie, err := r.Cookie(models.AdminSessionCookie)
	if err != nil || cookie.Value == "" {
		return false
	}
	exists, err := a.sessions.SessionExists(r.Context(), cookie.Value)
	if err != nil {
		a.logger.Error().Err(err).Msg("session lookup failed")
		return false
	}
	return exists
}

func (a *adminAuth) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     models.AdminSessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func (a *adminAuth) allowLogin(r *http.Request) bool {
	return a.getLimiter(clientIP(r)).Allow()
}

func (a *adminAuth) getLimiter(key string) *rate.Limiter {
	if v, ok := a.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}

	lim := rate.NewLimiter(rate.Limit(models.LoginRateLimitRPS), models.LoginRateLimitBurst)
	actual, loaded := a.limiters.LoadOrStore(key, lim)
	if loaded {
		return actual.(*rate.Limiter)
	}
	return lim
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return "unknown"
}

func (s *Server) handleAdminBookings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	filter := database.BookingFilter{
		Status: strings.TrimSpace(r.URL.Query().Get("status")),
		Search: strings.TrimSpace(r.URL.Query().Get("search")),
	}
	if filter.Status != "" && !models.ValidStatus(filter.Status) {
		writeError(w, http.StatusBadRequest, "invalid status filter")
		return
	}

	bookings, err := s.store.ListBookings(r.Context(), filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("listing bookings failed")
		writeError(w, http.StatusInternalServerError, "listing failed")
		return
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings, "count": len(bookings)})
}

// handleAdminBookingStatus serves PATCH /api/v1/admin/bookings/{id}/status.
func (s *Server) handleAdminBookingStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/admin/bookings/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[1] != "status" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !models.ValidStatus(req.Status) {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	if err := s.store.UpdateBookingStatus(r.Context(), id, req.Status); err != nil {
		if err == database.ErrNotFound {
			writeError(w, http.StatusNotFound, "booking not found")
			return
		}
		s.logger.Error().Err(err).Int64("booking_id", id).Msg("status update failed")
		writeError(w, http.StatusInternalServerError, "update failed")
		return
	}

	booking, err := s.store.GetBooking(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "update failed")
		return
	}

	// Mirror the change outward, best-effort.
	s.reconciler.SyncBookingStatus(r.Context(), booking)

	writeJSON(w, http.StatusOK, booking)
}
