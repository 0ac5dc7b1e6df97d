package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"brightnest/internal/database"
	"brightnest/internal/models"
	"brightnest/internal/service"
)

// maxBodySize bounds inbound JSON and webhook payloads.
const maxBodySize = 128 * 1024

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req models.CheckoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := s.checkout.StartCheckout(r.Context(), &req)
	if err != nil {
		if isValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error().Err(err).Msg("checkout failed")
		writeError(w, http.StatusInternalServerError, "checkout failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var sel models.Selection
	if err := decodeJSON(w, r, &sel); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	writeJSON(w, http.StatusOK, s.checkout.Quote(sel))
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	writeJSON(w, http.StatusOK, s.catalog)
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Phone   string `json:"phone"`
		Message string `json:"message"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "name, email and message are required")
		return
	}

	if s.notifier != nil {
		if err := s.notifier.ContactMessage(r.Context(), req.Name, req.Email, req.Phone, req.Message); err != nil {
			s.logger.Error().Err(err).Msg("contact message delivery failed")
			writeError(w, http.StatusInternalServerError, "message could not be delivered")
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]bool{"sent": true})
}

// handleWebhook receives Stripe events. The signature is verified before any
// payload field is read. A handler error returns 500 so Stripe retries the
// delivery; replays are absorbed by the store's uniqueness constraints.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "cannot read payload")
		return
	}

	event, err := s.gateway.VerifyWebhook(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		s.logger.Warn().Err(err).Msg("webhook signature verification failed")
		writeError(w, http.StatusBadRequest, "invalid signature")
		return
	}

	if err := s.reconciler.HandleEvent(r.Context(), event); err != nil {
		s.logger.Error().Err(err).Str("type", string(event.Type)).Msg("webhook event handling failed")
		writeError(w, http.StatusInternalServerError, "event handling failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

// handleReconcile is the success-page fallback: it rebuilds the booking from
// the checkout session when the webhook has not landed yet.
func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := decodeJSON(w, r, &req); err != nil || strings.TrimSpace(req.SessionID) == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	booking, err := s.reconciler.ReconcileSession(r.Context(), req.SessionID)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", req.SessionID).Msg("session reconcile failed")
		writeError(w, http.StatusBadGateway, "could not reconcile session")
		return
	}

	writeJSON(w, http.StatusOK, booking)
}

func (s *Server) handleBookingBySession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	sessionID := strings.TrimPrefix(r.URL.Path, "/api/v1/bookings/session/")
	if sessionID == "" || strings.Contains(sessionID, "/") {
		writeError(w, http.StatusBadRequest, "session id is required")
		return
	}

	booking, err := s.store.GetBookingBySessionID(r.Context(), sessionID)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "booking not found")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("booking lookup failed")
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, booking)
}

func (s *Server) handleBookingByReference(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	reference := strings.TrimPrefix(r.URL.Path, "/api/v1/bookings/")
	if reference == "" || strings.Contains(reference, "/") {
		writeError(w, http.StatusBadRequest, "reference is required")
		return
	}

	booking, err := s.store.GetBookingByReference(r.Context(), reference)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "booking not found")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("booking lookup failed")
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, booking)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	return decoder.Decode(dst)
}

func isValidationError(err error) bool {
	for _, v := range []error{
		service.ErrMissingContact,
		service.ErrInvalidEmail,
		service.ErrPastDate,
		service.ErrInvalidDate,
		service.ErrInvalidTime,
		service.ErrUnknownService,
	} {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}
