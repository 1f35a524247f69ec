package http

import (
	"encoding/json"
	"errors"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"solana-miniapp/internal/domain"
	"solana-miniapp/internal/pkg/apperrors"
)

type errorBody struct {
	Error string `json:"error"`
}

// writeJSON encodes v with the given status.
func writeJSON(ctx *fasthttp.RequestCtx, status int, v any, logger *zap.Logger) {
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	if err := json.NewEncoder(ctx).Encode(v); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

// writeError maps err to a status code and writes it as {"error": ...}.
func writeError(ctx *fasthttp.RequestCtx, err error, logger *zap.Logger) {
	status := statusFor(err)
	if status >= fasthttp.StatusInternalServerError {
		logger.Warn("Request failed", zap.ByteString("uri", ctx.RequestURI()), zap.Int("status", status), zap.Error(err))
	}
	writeJSON(ctx, status, errorBody{Error: err.Error()}, logger)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotReady),
		errors.Is(err, domain.ErrHostUnavailable):
		return fasthttp.StatusServiceUnavailable
	case errors.Is(err, domain.ErrWalletNotConnected),
		errors.Is(err, domain.ErrNoTokenSelected),
		errors.Is(err, domain.ErrNoDestination),
		errors.Is(err, apperrors.ErrInvalidInput):
		return fasthttp.StatusBadRequest
	case errors.Is(err, apperrors.ErrRateLimited):
		return fasthttp.StatusTooManyRequests
	case errors.Is(err, apperrors.ErrNotFound):
		return fasthttp.StatusNotFound
	case errors.Is(err, apperrors.ErrTimeout):
		return fasthttp.StatusGatewayTimeout
	case errors.Is(err, domain.ErrHostRejection),
		errors.Is(err, apperrors.ErrExternalServiceFailure):
		return fasthttp.StatusBadGateway
	default:
		return fasthttp.StatusInternalServerError
	}
}
