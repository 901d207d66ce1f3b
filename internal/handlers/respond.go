package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Zllawi/bassmaStore/internal/platform/httpx"
	"github.com/Zllawi/bassmaStore/internal/services"
)

const maxBodySize = 1 << 20

var errBodyTooLarge = errors.New("request body too large")

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func readLimitedBody(r *http.Request, limit int64) ([]byte, error) {
	if r.Body == nil {
		return nil, errors.New("request body is required")
	}
	defer r.Body.Close()

	data, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, errBodyTooLarge
	}
	if len(data) == 0 {
		return nil, errors.New("request body is required")
	}
	return data, nil
}

func decodeJSONBody(r *http.Request, dst any) error {
	body, err := readLimitedBody(r, maxBodySize)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, dst)
}

func writeBodyError(ctx context.Context, w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	code := "invalid_request"
	if errors.Is(err, errBodyTooLarge) {
		status = http.StatusRequestEntityTooLarge
		code = "payload_too_large"
	}
	httpx.WriteError(ctx, w, httpx.NewError(code, err.Error(), status))
}

// writeServiceError maps service layer errors to the JSON error envelope.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	var vErr *services.ValidationError
	switch {
	case errors.As(err, &vErr):
		fields := make([]map[string]string, 0, len(vErr.Fields))
		for _, f := range vErr.Fields {
			fields = append(fields, map[string]string{"field": f.Field, "message": f.Message})
		}
		httpx.WriteError(ctx, w, httpx.NewError("validation_failed", vErr.Error(), http.StatusBadRequest).
			WithDetails(map[string]any{"fields": fields}))
	case errors.Is(err, services.ErrMissingAddress):
		httpx.WriteError(ctx, w, httpx.NewError("missing_address", "no shipping address available", http.StatusUnprocessableEntity))
	case errors.Is(err, services.ErrNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("not_found", "resource not found", http.StatusNotFound))
	case errors.Is(err, services.ErrForbidden):
		httpx.WriteError(ctx, w, httpx.NewError("forbidden", "insufficient permissions", http.StatusForbidden))
	case errors.Is(err, services.ErrEmailTaken):
		httpx.WriteError(ctx, w, httpx.NewError("email_taken", "email already registered", http.StatusConflict))
	case errors.Is(err, services.ErrInvalidCredentials):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_credentials", "invalid email or password", http.StatusUnauthorized))
	case errors.Is(err, services.ErrInvalidRefreshToken):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_refresh_token", "refresh token invalid or revoked", http.StatusUnauthorized))
	case errors.Is(err, services.ErrUnknownOrderStatus):
		httpx.WriteError(ctx, w, httpx.NewError("unknown_status", "unknown order status", http.StatusBadRequest))
	case errors.Is(err, services.ErrCounterUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("sequence_unavailable", "invoice sequence unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "internal server error", http.StatusInternalServerError))
	}
}
