// Package httphandler is the HTTP driving adapter serving the JSON API.
package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ericfisherdev/mergeboard/internal/application"
	"github.com/ericfisherdev/mergeboard/internal/domain/model"
	"github.com/ericfisherdev/mergeboard/internal/secrets"
)

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	secretSvc *application.SecretService
	fetchSvc  *application.FetchService
	logger    *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(secretSvc *application.SecretService, fetchSvc *application.FetchService, logger *slog.Logger) *Handler {
	return &Handler{
		secretSvc: secretSvc,
		fetchSvc:  fetchSvc,
		logger:    logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and
// wrapped with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.HandleFunc("GET /api/v1/credential", h.GetCredential)
	mux.HandleFunc("PUT /api/v1/credential", h.PutCredential)
	mux.HandleFunc("DELETE /api/v1/credential", h.DeleteCredential)
	mux.HandleFunc("GET /api/v1/pulls", h.ListPulls)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// GetCredential reports whether a credential is configured. The value is
// never included; only existence and timestamps leave the store.
func (h *Handler) GetCredential(w http.ResponseWriter, r *http.Request) {
	cred, err := h.secretSvc.Describe(r.Context())
	if err != nil {
		h.logger.Error("failed to describe credential", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := CredentialResponse{Configured: cred != nil}
	if cred != nil {
		resp.UpdatedAt = cred.UpdatedAt.UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}

// PutCredential validates and stores a new token.
func (h *Handler) PutCredential(w http.ResponseWriter, r *http.Request) {
	var req SaveCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.secretSvc.SaveSecret(r.Context(), req.Token); err != nil {
		h.writeSaveError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteCredential removes the stored token. Idempotent: deleting when
// nothing is stored still succeeds.
func (h *Handler) DeleteCredential(w http.ResponseWriter, r *http.Request) {
	if err := h.secretSvc.DeleteSecret(r.Context()); err != nil {
		h.logger.Error("failed to delete credential", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListPulls returns the aggregated pull request set. ?refresh=true
// bypasses the cache and forces fresh page fetches.
func (h *Handler) ListPulls(w http.ResponseWriter, r *http.Request) {
	forceRefresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))

	result, err := h.fetchSvc.FetchAggregated(r.Context(), forceRefresh)
	if err != nil {
		h.writeFetchError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toFetchResponse(result))
}

// CacheStats exposes the result cache snapshot. Keys are token
// fingerprints, safe to display.
func (h *Handler) CacheStats(w http.ResponseWriter, _ *http.Request) {
	stats := h.fetchSvc.CacheStats()
	writeJSON(w, http.StatusOK, CacheStatsResponse{
		Size:     stats.Size,
		Capacity: stats.Capacity,
		Keys:     stats.Keys,
	})
}

// writeSaveError maps SaveSecret failures onto HTTP statuses.
func (h *Handler) writeSaveError(w http.ResponseWriter, err error) {
	if errors.Is(err, application.ErrInvalidSecret) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var fetchErr *model.FetchError
	if errors.As(err, &fetchErr) {
		switch fetchErr.Class {
		case model.FetchAuthRejected:
			writeError(w, http.StatusUnauthorized, "github rejected the token")
		case model.FetchRateLimited:
			setRetryAfter(w, fetchErr.RetryAfter)
			writeError(w, http.StatusTooManyRequests, "github rate limit exhausted, retry later")
		default:
			writeError(w, http.StatusBadGateway, "could not reach github to validate the token")
		}
		return
	}

	h.logger.Error("failed to save credential", "error", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// writeFetchError maps aggregation failures onto HTTP statuses. Each
// class gets a distinct status because the caller's remediation differs:
// replace the token, wait, or retry.
func (h *Handler) writeFetchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, application.ErrNoCredential):
		writeError(w, http.StatusConflict, "no github credential configured")
		return
	case errors.Is(err, secrets.ErrDecrypt):
		writeError(w, http.StatusConflict, "stored credential cannot be decrypted, re-enter it")
		return
	}

	var fetchErr *model.FetchError
	if errors.As(err, &fetchErr) {
		switch fetchErr.Class {
		case model.FetchAuthRejected:
			writeError(w, http.StatusUnauthorized, "github rejected the stored token, replace it")
		case model.FetchRateLimited:
			setRetryAfter(w, fetchErr.RetryAfter)
			writeError(w, http.StatusTooManyRequests, "github rate limit exhausted, retry later")
		case model.FetchTimeout, model.FetchTransient:
			writeError(w, http.StatusBadGateway, "github request failed, retry later")
		}
		return
	}

	h.logger.Error("failed to aggregate pull requests", "error", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// setRetryAfter writes a Retry-After header when a wait is known.
func setRetryAfter(w http.ResponseWriter, d time.Duration) {
	if d > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(d.Round(time.Second).Seconds())))
	}
}
