package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rpupo63/collage-backend/errs"
	"github.com/rs/zerolog"
)

// maxResponseSize caps a single JSON response
const maxResponseSize = 10 * 1024 * 1024

type Responder struct {
	logger zerolog.Logger
}

func NewResponder(logger zerolog.Logger) Responder {
	return Responder{logger}
}

func (r Responder) WriteJSON(w http.ResponseWriter, data any) {
	r.WriteJSONStatus(w, http.StatusOK, data)
}

// WriteJSONStatus marshals data and writes it with the given status code.
func (r Responder) WriteJSONStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	// Marshal the data first to check size and handle errors
	jsonData, err := json.Marshal(data)
	if err != nil {
		r.logger.Error().Err(err).Msg("error marshaling response data")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if len(jsonData) > maxResponseSize {
		r.logger.Error().
			Int("responseSize", len(jsonData)).
			Int("maxSize", maxResponseSize).
			Msg("response too large")

		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Response too large","status":"error"}`))
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(jsonData); err != nil {
		r.logger.Error().Err(err).Msg("error writing response")
	}
}

// storageRetryAfter is sent with 504s caused by a slow object store
const storageRetryAfter = "5"

func (r Responder) WriteError(w http.ResponseWriter, err error) {
	var apiErr *errs.ApiErr

	// For unexpected errors, log and return generic internal error
	if !errors.As(err, &apiErr) {
		r.logger.Error().Err(err).Msg("unexpected error")
		r.WriteJSONStatus(w, http.StatusInternalServerError, ErrorResponse{
			Error:   err.Error(),
			Status:  "error",
			Details: "An unexpected error occurred",
		})
		return
	}

	response := ErrorResponse{
		Error:  apiErr.Error(),
		Status: "error",
		Field:  apiErr.Field,
	}

	// Full cause chain is only exposed for server side failures; auth
	// failures keep their reason in the logs.
	if apiErr.Cause != nil {
		if apiErr.StatusCode >= http.StatusInternalServerError {
			response.Cause = apiErr.GetFullError()
		}
		r.logger.Debug().Err(apiErr.Cause).Int("status", apiErr.StatusCode).Msg(apiErr.Error())
	}

	if apiErr.StatusCode >= http.StatusInternalServerError {
		r.logger.Error().Str("error", apiErr.GetFullError()).Int("status", apiErr.StatusCode).Msg("request failed")
	}
	if errs.IsStorageUnavailable(apiErr) {
		w.Header().Set("Retry-After", storageRetryAfter)
	}

	r.WriteJSONStatus(w, apiErr.StatusCode, response)
}

// wrapStorageError wraps a storage error with context information
func wrapStorageError(operation, entity string, cause error) error {
	return errs.NewStorageError(operation, entity, cause)
}
