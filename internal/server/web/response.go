package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/labcms/internal/common"
)

// MaxBodyBytes bounds JSON request bodies.
const MaxBodyBytes = 1 << 20

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type dataResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Success: false, Error: msg})
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, dataResponse{Success: true, Data: data})
}

// statusFor maps a service error to an HTTP status and a client-safe
// message. Anything unrecognised is a 500 with a generic message.
func statusFor(err error) (int, string) {
	var detail *common.DetailError
	msg := func(fallback string) string {
		if errors.As(err, &detail) {
			return detail.Msg
		}
		return fallback
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "request body too large"
	case errors.Is(err, common.ErrBadRequest):
		return http.StatusBadRequest, msg("bad request")
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest, msg("validation error")
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized, common.ErrInvalidCredentials.Error()
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden, common.ErrForbidden.Error()
	case errors.Is(err, common.ErrUnknownCollection):
		return http.StatusNotFound, "unknown collection"
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusConflict, "already exists"
	case errors.Is(err, common.ErrUnsupportedMedia):
		return http.StatusUnsupportedMediaType, msg("unsupported media type")
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
