// Package notification talks to the notification endpoints over HTTP: the
// app's own send-notification backend and the host's notification URL.
package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"solana-miniapp/internal/domain/entity"
	domainService "solana-miniapp/internal/domain/service"
	"solana-miniapp/internal/pkg/apperrors"
)

// Compile-time checks
var (
	_ domainService.NotificationClient     = (*Client)(nil)
	_ domainService.NotificationDispatcher = (*Dispatcher)(nil)
)

const (
	sendNotificationPath = "/api/send-notification"
	defaultTimeout       = 10 * time.Second
)

// Client posts send-notification requests to the backend endpoint.
type Client struct {
	client   *fasthttp.Client
	endpoint string
	logger   *zap.Logger
}

// NewClient creates a client for the backend rooted at baseURL.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		client:   &fasthttp.Client{ReadTimeout: defaultTimeout, WriteTimeout: defaultTimeout},
		endpoint: strings.TrimRight(baseURL, "/") + sendNotificationPath,
		logger:   logger.Named("NotificationClient"),
	}
}

// SendNotification posts {fid, notificationDetails} and returns the raw status and body.
func (c *Client) SendNotification(
	ctx context.Context,
	fid int64,
	details entity.NotificationDetails,
) (domainService.NotificationResponse, error) {
	payload, err := json.Marshal(entity.SendNotificationRequest{FID: fid, NotificationDetails: &details})
	if err != nil {
		return domainService.NotificationResponse{}, fmt.Errorf("%w: encode notification request: %v", apperrors.ErrInternal, err)
	}

	status, body, err := post(ctx, c.client, c.endpoint, payload)
	if err != nil {
		c.logger.Debug("Send-notification request failed", zap.String("url", c.endpoint), zap.Error(err))
		return domainService.NotificationResponse{}, err
	}
	c.logger.Debug("Send-notification response", zap.Int("status", status))
	return domainService.NotificationResponse{StatusCode: status, Body: string(body)}, nil
}

// post sends a JSON body and returns a copy of the response body. The timeout
// is the client's read timeout, clamped to the context deadline.
func post(ctx context.Context, client *fasthttp.Client, url string, payload []byte) (int, []byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(payload)

	timeout := client.ReadTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining > 0 && remaining < timeout {
			timeout = remaining
		}
	}

	if err := client.DoTimeout(req, resp, timeout); err != nil {
		if errors.Is(err, fasthttp.ErrTimeout) {
			return 0, nil, fmt.Errorf("%w: POST %s timed out after %v", apperrors.ErrTimeout, url, timeout)
		}
		return 0, nil, fmt.Errorf("%w: POST %s: %v", apperrors.ErrExternalServiceFailure, url, err)
	}

	body := append([]byte(nil), resp.Body()...)
	return resp.StatusCode(), body, nil
}
