package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"solana-miniapp/internal/domain/entity"
	"solana-miniapp/internal/pkg/apperrors"
)

type dispatchRequest struct {
	entity.Notification
	Tokens []string `json:"tokens"`
}

type dispatchResponse struct {
	Result *entity.DispatchResult `json:"result"`
}

// Dispatcher delivers notifications to the URL the host handed out with the token.
type Dispatcher struct {
	client *fasthttp.Client
	logger *zap.Logger
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		client: &fasthttp.Client{ReadTimeout: defaultTimeout, WriteTimeout: defaultTimeout},
		logger: logger.Named("NotificationDispatcher"),
	}
}

// Dispatch posts n for details.Token to details.URL. Non-2xx answers and
// bodies without a result fail with apperrors.ErrExternalServiceFailure.
func (d *Dispatcher) Dispatch(
	ctx context.Context,
	details entity.NotificationDetails,
	n entity.Notification,
) (entity.DispatchResult, error) {
	payload, err := json.Marshal(dispatchRequest{Notification: n, Tokens: []string{details.Token}})
	if err != nil {
		return entity.DispatchResult{}, fmt.Errorf("%w: encode notification: %v", apperrors.ErrInternal, err)
	}

	status, body, err := post(ctx, d.client, details.URL, payload)
	if err != nil {
		return entity.DispatchResult{}, err
	}
	if status < 200 || status >= 300 {
		d.logger.Debug("Notification URL returned non-2xx", zap.Int("status", status), zap.ByteString("body", body))
		return entity.DispatchResult{}, fmt.Errorf("%w: notification url returned status %d: %s",
			apperrors.ErrExternalServiceFailure, status, body)
	}

	var out dispatchResponse
	if err := json.Unmarshal(body, &out); err != nil || out.Result == nil {
		d.logger.Debug("Undecodable notification response", zap.ByteString("body", body), zap.Error(err))
		return entity.DispatchResult{}, fmt.Errorf("%w: undecodable notification response: %s",
			apperrors.ErrExternalServiceFailure, body)
	}
	return *out.Result, nil
}
