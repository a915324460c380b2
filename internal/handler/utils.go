package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"lmsadmin/internal/errdefs"
	"lmsadmin/internal/logging"
)

var ErrBadRequest = errors.New("bad request")

func mapErr(err error) int {
	var fe *errdefs.FetchError
	switch {
	case errors.Is(err, errdefs.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errdefs.ErrConfirmationRequired):
		return http.StatusPreconditionRequired
	case errors.Is(err, errdefs.ErrInvalidTransition), errors.Is(err, errdefs.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, ErrBadRequest), errors.Is(err, errdefs.ErrUnknownAction):
		return http.StatusBadRequest
	case errors.Is(err, errdefs.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, errdefs.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, errdefs.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &fe):
		if fe.Status >= 400 && fe.Status < 500 {
			return fe.Status
		}
		return http.StatusBadGateway
	case errors.Is(err, errdefs.ErrDecode):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// errMessage is what the browser sees. Backend messages pass through verbatim.
func errMessage(err error, statusCode int) string {
	var fe *errdefs.FetchError
	if errors.As(err, &fe) {
		return fe.Message
	}
	if statusCode == http.StatusInternalServerError {
		return http.StatusText(statusCode)
	}
	return err.Error()
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	statusCode := mapErr(err)
	logger := logging.FromContext(ctx)
	if statusCode >= http.StatusInternalServerError {
		logger.Error(ctx, "request failed", zap.Error(err), zap.Int("status", statusCode))
	} else {
		logger.Debug(ctx, "request rejected", zap.Error(err), zap.Int("status", statusCode))
	}

	var ve *errdefs.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, statusCode, map[string]any{"error": ve.Error(), "fields": ve.Fields})
		return
	}
	writeErrorJSON(w, statusCode, errMessage(err, statusCode))
}

func writeErrorJSON(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	resp, _ := json.Marshal(map[string]string{"error": message})
	w.Write(resp)
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		writeErrorJSON(w, http.StatusInternalServerError, "failed to serialize response")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(data)
}

func parsePathParam(r *http.Request, key string) (string, error) {
	val := chi.URLParam(r, key)
	if val == "" {
		return "", fmt.Errorf("%w: missing path param: %s", ErrBadRequest, key)
	}
	return val, nil
}
