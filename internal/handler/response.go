package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ClareAI/astra-fleet-dashboard/internal/domain"
	"github.com/ClareAI/astra-fleet-dashboard/pkg/logger"
	"go.uber.org/zap"
)

// ErrorResponse is the JSON body of every failed API call
type ErrorResponse struct {
	Error   string `json:"error"`
	Warning string `json:"warning,omitempty"`
}

const missingKeyWarning = "Configure your calling API key under Settings before placing calls"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Base().Warn("failed to encode response", zap.Error(err))
	}
}

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrMissingAPIKey),
		errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrCallNotFound),
		errors.Is(err, domain.ErrAssistantNotFound),
		errors.Is(err, domain.ErrCampaignNotFound),
		errors.Is(err, domain.ErrBatchNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrCampaignExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnreadableFile),
		errors.Is(err, domain.ErrMissingColumn),
		errors.Is(err, domain.ErrUnsupportedFormat):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	body := ErrorResponse{Error: err.Error()}
	if errors.Is(err, domain.ErrMissingAPIKey) {
		body.Warning = missingKeyWarning
	}
	if status == http.StatusInternalServerError {
		logger.Error(r.Context(), "request failed", zap.String("path", r.URL.Path), zap.Error(err))
		body.Error = "internal server error"
	}
	writeJSON(w, status, body)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

// queryInt parses an optional integer query parameter
func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, name)
	}
	return v, nil
}
