package http

import (
	"encoding/json"
	"errors"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"solana-miniapp/internal/application/port"
	"solana-miniapp/internal/domain/entity"
	"solana-miniapp/internal/pkg/apperrors"
)

// NotificationHandler serves POST /api/send-notification.
type NotificationHandler struct {
	service port.NotificationService
	logger  *zap.Logger
}

// NewNotificationHandler creates the handler.
func NewNotificationHandler(service port.NotificationService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{service: service, logger: logger.Named("NotificationHandler")}
}

// SendNotification answers 200 on delivery, 400 on a malformed request, 429
// when rate limited and 500 otherwise. Error bodies are plain text.
func (h *NotificationHandler) SendNotification(ctx *fasthttp.RequestCtx) {
	var req entity.SendNotificationRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.logger.Debug("Malformed send-notification body", zap.Error(err))
		ctx.Error("Invalid request body: "+err.Error(), fasthttp.StatusBadRequest)
		return
	}

	err := h.service.Send(ctx, req)
	switch {
	case err == nil:
		writeJSON(ctx, fasthttp.StatusOK, map[string]bool{"success": true}, h.logger)
	case errors.Is(err, apperrors.ErrInvalidInput):
		ctx.Error(err.Error(), fasthttp.StatusBadRequest)
	case errors.Is(err, apperrors.ErrRateLimited):
		ctx.Error("Rate limited", fasthttp.StatusTooManyRequests)
	default:
		h.logger.Error("Failed to send notification", zap.Int64("fid", req.FID), zap.Error(err))
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
	}
}
