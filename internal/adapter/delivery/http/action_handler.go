package http

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"solana-miniapp/internal/application/port"
	"solana-miniapp/internal/pkg/apperrors"
)

// Action names accepted under /api/actions/{action}.
const (
	ActionSignMessage      = "sign-message"
	ActionSendNative       = "send-native"
	ActionSendToken        = "send-token"
	ActionAddMiniApp       = "add-mini-app"
	ActionSendNotification = "send-notification"
	ActionOpenURL          = "open-url"
	ActionComposeCast      = "compose-cast"
	ActionSignIn           = "sign-in"
	ActionClose            = "close"
	ActionViewProfile      = "view-profile"
)

type sendTokenBody struct {
	Symbol      string `json:"symbol"`
	Destination string `json:"destination"`
}

type acceptedBody struct {
	Status string `json:"status"`
	Action string `json:"action"`
}

// ActionHandler serves the action API and the state view model.
type ActionHandler struct {
	app                port.MiniAppService
	defaultDestination string
	logger             *zap.Logger
}

// NewActionHandler creates the handler. defaultDestination fills an empty
// send-token destination.
func NewActionHandler(app port.MiniAppService, defaultDestination string, logger *zap.Logger) *ActionHandler {
	return &ActionHandler{
		app:                app,
		defaultDestination: defaultDestination,
		logger:             logger.Named("ActionHandler"),
	}
}

// GetState returns the current view model.
func (h *ActionHandler) GetState(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, fasthttp.StatusOK, h.app.View(), h.logger)
}

// PostAction runs one action. Wallet flows are started in the background and
// answered with 202; host actions answer with their result.
func (h *ActionHandler) PostAction(ctx *fasthttp.RequestCtx) {
	action, _ := ctx.UserValue("action").(string)
	h.logger.Debug("Action requested", zap.String("action", action))

	switch action {
	case ActionSignMessage:
		h.accepted(ctx, action, h.app.LaunchSignMessage())
	case ActionSendNative:
		h.accepted(ctx, action, h.app.LaunchSendNative())
	case ActionSendToken:
		body, err := h.parseSendToken(ctx.PostBody())
		if err != nil {
			writeError(ctx, err, h.logger)
			return
		}
		h.accepted(ctx, action, h.app.LaunchSendToken(body.Symbol, body.Destination))
	case ActionAddMiniApp:
		out, err := h.app.AddMiniApp(ctx)
		h.result(ctx, out, err)
	case ActionSendNotification:
		msg, err := h.app.SendNotification(ctx)
		h.result(ctx, map[string]string{"result": msg}, err)
	case ActionSignIn:
		res, err := h.app.SignIn(ctx)
		h.result(ctx, res, err)
	case ActionOpenURL:
		h.result(ctx, okBody, h.app.OpenURL(ctx))
	case ActionComposeCast:
		h.result(ctx, okBody, h.app.ComposeCast(ctx))
	case ActionClose:
		h.result(ctx, okBody, h.app.Close(ctx))
	case ActionViewProfile:
		h.result(ctx, okBody, h.app.ViewProfile(ctx))
	default:
		writeError(ctx, fmt.Errorf("%w: unknown action %q", apperrors.ErrNotFound, action), h.logger)
	}
}

var okBody = map[string]bool{"ok": true}

func (h *ActionHandler) parseSendToken(raw []byte) (sendTokenBody, error) {
	var body sendTokenBody
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			return body, fmt.Errorf("%w: invalid send-token body: %v", apperrors.ErrInvalidInput, err)
		}
	}
	if strings.TrimSpace(body.Destination) == "" {
		body.Destination = h.defaultDestination
	}
	return body, nil
}

func (h *ActionHandler) accepted(ctx *fasthttp.RequestCtx, action string, err error) {
	if err != nil {
		writeError(ctx, err, h.logger)
		return
	}
	writeJSON(ctx, fasthttp.StatusAccepted, acceptedBody{Status: "pending", Action: action}, h.logger)
}

func (h *ActionHandler) result(ctx *fasthttp.RequestCtx, v any, err error) {
	if err != nil {
		writeError(ctx, err, h.logger)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, v, h.logger)
}
