package apierr

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/whotscan/internal/model"
	"github.com/mcoot/whotscan/internal/services/reader"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeInvalidGameID      = "INVALID_GAME_ID"
	CodeInvalidPlayerIndex = "INVALID_PLAYER_INDEX"
	CodeInvalidWord        = "INVALID_WORD"
	CodeGameNotFound       = "GAME_NOT_FOUND"
	CodeHandNotFound       = "HAND_NOT_FOUND"
	CodeChainReadFailed    = "CHAIN_READ_FAILED"
	CodeTimeout            = "TIMEOUT"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status an error maps to
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	var readErr *reader.ReadError
	switch {
	case errors.Is(err, model.ErrGameNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeGameNotFound, "Game not found"}}
	case errors.Is(err, model.ErrHandNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeHandNotFound, "No hand has been revealed for this player"}}
	case errors.Is(err, model.ErrInvalidGameID):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidGameID, "Game id must be a decimal or 0x-hex 256-bit integer"}}
	case errors.Is(err, model.ErrInvalidPlayerIndex):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidPlayerIndex, "Player index must be a non-negative integer"}}
	case errors.Is(err, model.ErrInvalidWord):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidWord, err.Error()}}

	// Chain errors. Deadline first: a timed out read is also a ReadError.
	case errors.Is(err, context.DeadlineExceeded):
		return &httpError{http.StatusGatewayTimeout, APIError{CodeTimeout, "Chain read timed out"}}
	case errors.As(err, &readErr):
		return &httpError{http.StatusBadGateway, APIError{CodeChainReadFailed, "Could not read contract storage"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
