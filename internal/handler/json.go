// Package handler provides HTTP handlers for the Kvitok API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/prn-tf/kvitok/internal/domain"
)

// errorResponse is the JSON error body.
type errorResponse struct {
	Detail string `json:"detail"`
}

// respondJSON writes v as a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// respondError maps domain errors to HTTP status codes. Unrecognized
// errors become opaque 500 responses.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrTicketNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrInvalidNickname):
		respondJSON(w, http.StatusNotFound, errorResponse{Detail: err.Error()})
	case errors.Is(err, domain.ErrIncorrectTicketAmount),
		errors.Is(err, domain.ErrIncorrectPassword),
		errors.Is(err, domain.ErrInvalidPaymentType):
		respondJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: err.Error()})
	case errors.Is(err, domain.ErrUserAlreadyExists):
		respondJSON(w, http.StatusConflict, errorResponse{Detail: err.Error()})
	case errors.Is(err, domain.ErrCredentialsInvalid):
		respondJSON(w, http.StatusUnauthorized, errorResponse{Detail: err.Error()})
	default:
		log.Error().Err(err).Msg("request failed")
		respondJSON(w, http.StatusInternalServerError, errorResponse{Detail: "internal server error"})
	}
}

// decodeJSON decodes the request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// respondBadRequest reports a malformed request body or parameter.
func respondBadRequest(w http.ResponseWriter, detail string) {
	respondJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: detail})
}
