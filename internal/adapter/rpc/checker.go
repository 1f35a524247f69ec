package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"solana-miniapp/internal/domain/entity"
	domainService "solana-miniapp/internal/domain/service"
	"solana-miniapp/internal/metrics"
	"solana-miniapp/internal/pkg/apperrors"

	"github.com/gorilla/websocket"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// Compile-time check
var _ domainService.RPCChecker = (*Checker)(nil)

// Checker implements the domainService.RPCChecker interface for Solana endpoints.
type Checker struct {
	client *fasthttp.Client
	logger *zap.Logger
}

// NewChecker creates a new RPC checker instance.
func NewChecker(logger *zap.Logger) *Checker {
	return &Checker{
		client: &fasthttp.Client{
			ReadTimeout: 10 * time.Second,
		},
		logger: logger.Named("RPCChecker"),
	}
}

var (
	// httpCheckPayload asks an HTTP endpoint for node health.
	httpCheckPayload = []byte(`{"jsonrpc":"2.0","id":1,"method":"getHealth"}`)

	// wsCheckPayload opens a slot subscription; pubsub endpoints don't serve getHealth.
	wsCheckPayload = []byte(`{"jsonrpc":"2.0","id":1,"method":"slotSubscribe"}`)
)

// rpcResponse is the envelope of a JSON-RPC 2.0 answer.
type rpcResponse struct {
	ID      interface{}     `json:"id"`
	Jsonrpc string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError is the error member of a JSON-RPC answer.
type rpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// CheckRPC determines the protocol and calls the appropriate check function.
func (c *Checker) CheckRPC(
	ctx context.Context,
	rpcURL entity.RPCURL,
) (isWorking bool, latency time.Duration, err error) {
	startTime := time.Now()
	protocol := rpcURL.Protocol()

	defer func() {
		result := "ok"
		if err != nil || !isWorking {
			result = "failed"
		}
		metrics.RPCChecks.WithLabelValues(string(protocol), result).Inc()
	}()

	switch protocol {
	case entity.ProtocolWS, entity.ProtocolWSS:
		return c.checkWS(ctx, rpcURL.String(), startTime)
	case entity.ProtocolHTTP, entity.ProtocolHTTPS:
		return c.checkHTTP(ctx, rpcURL.String(), startTime)
	default:
		c.logger.Warn("Skipping check for unsupported protocol", zap.String("url", rpcURL.String()))
		return false, 0, fmt.Errorf("%w: unsupported protocol in URL %s", apperrors.ErrInvalidInput, rpcURL)
	}
}

// checkHTTP calls getHealth over HTTP/HTTPS.
func (c *Checker) checkHTTP(ctx context.Context, rpcURL string, startTime time.Time) (bool, time.Duration, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(rpcURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(httpCheckPayload)

	timeout := c.client.ReadTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if requestTimeout := time.Until(deadline); requestTimeout > 0 && requestTimeout < timeout {
			timeout = requestTimeout
		}
	}

	requestErr := c.client.DoTimeout(req, resp, timeout)
	latency := time.Since(startTime)

	if requestErr != nil {
		if errors.Is(requestErr, fasthttp.ErrTimeout) {
			c.logger.Debug("HTTP RPC check timed out",
				zap.String("url", rpcURL), zap.Duration("timeout", timeout), zap.Error(requestErr),
			)
			return false, latency, fmt.Errorf("%w: http request to %s timed out after %v: %v",
				apperrors.ErrTimeout, rpcURL, timeout, requestErr,
			)
		}
		c.logger.Debug("HTTP RPC check request failed", zap.String("url", rpcURL), zap.Error(requestErr))
		return false, latency, fmt.Errorf("%w: http request to %s failed: %v",
			apperrors.ErrExternalServiceFailure, rpcURL, requestErr,
		)
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Debug("HTTP RPC check returned non-OK status",
			zap.String("url", rpcURL), zap.Int("statusCode", resp.StatusCode()),
		)
		return false, latency, fmt.Errorf("%w: rpc %s returned non-OK http status: %d",
			apperrors.ErrExternalServiceFailure, rpcURL, resp.StatusCode(),
		)
	}

	isValid, jsonErr := c.parseRPCResponse(rpcURL, resp.Body(), true)
	return isValid, latency, jsonErr
}

// checkWS opens a slot subscription over WS/WSS and waits for its confirmation.
func (c *Checker) checkWS(ctx context.Context, rpcURL string, startTime time.Time) (bool, time.Duration, error) {
	operationTimeout := c.client.ReadTimeout
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < operationTimeout {
		operationTimeout = time.Until(deadline)
	}
	if operationTimeout <= 0 {
		return false, 0, fmt.Errorf("%w: wss check of %s has no time left", apperrors.ErrTimeout, rpcURL)
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: operationTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, rpcURL, nil)
	if err != nil {
		latency := time.Since(startTime)
		c.logger.Debug("WS dial failed", zap.String("url", rpcURL), zap.Error(err))
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return false, latency, fmt.Errorf("%w: ws dial to %s timed out: %v", apperrors.ErrTimeout, rpcURL, err)
		}
		return false, latency, fmt.Errorf("%w: ws dial to %s failed: %v", apperrors.ErrExternalServiceFailure, rpcURL, err)
	}
	defer conn.Close()

	_ = conn.SetWriteDeadline(time.Now().Add(operationTimeout))
	_ = conn.SetReadDeadline(time.Now().Add(operationTimeout))

	if wErr := conn.WriteMessage(websocket.TextMessage, wsCheckPayload); wErr != nil {
		c.logger.Debug("WS write message failed", zap.String("url", rpcURL), zap.Error(wErr))
		return false, time.Since(startTime), fmt.Errorf("%w: ws write to %s failed: %v",
			apperrors.ErrExternalServiceFailure, rpcURL, wErr,
		)
	}

	_, message, rErr := conn.ReadMessage()
	latency := time.Since(startTime)
	if rErr != nil {
		c.logger.Debug("WS read message failed", zap.String("url", rpcURL), zap.Error(rErr))
		var netErr interface{ Timeout() bool }
		if errors.As(rErr, &netErr) && netErr.Timeout() {
			return false, latency, fmt.Errorf("%w: ws read from %s timed out: %v", apperrors.ErrTimeout, rpcURL, rErr)
		}
		return false, latency, fmt.Errorf("%w: ws read from %s failed: %v",
			apperrors.ErrExternalServiceFailure, rpcURL, rErr,
		)
	}

	isValid, jsonErr := c.parseRPCResponse(rpcURL, message, false)
	return isValid, latency, jsonErr
}

// parseRPCResponse checks that body is a successful JSON-RPC response.
// When wantOK is set the result must be the getHealth answer "ok".
func (c *Checker) parseRPCResponse(rpcURL string, body []byte, wantOK bool) (bool, error) {
	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		c.logger.Debug("RPC check failed to unmarshal JSON response",
			zap.String("url", rpcURL), zap.ByteString("body", body), zap.Error(err),
		)
		return false, fmt.Errorf("%w: rpc %s returned invalid JSON response: %v",
			apperrors.ErrExternalServiceFailure, rpcURL, err,
		)
	}

	if rpcResp.Error != nil {
		c.logger.Debug("RPC check returned JSON-RPC error",
			zap.String("url", rpcURL),
			zap.Int("errorCode", rpcResp.Error.Code),
			zap.String("errorMessage", rpcResp.Error.Message),
		)
		return false, fmt.Errorf("%w: rpc %s returned json-rpc error: %d %s",
			apperrors.ErrExternalServiceFailure, rpcURL, rpcResp.Error.Code, rpcResp.Error.Message,
		)
	}

	if rpcResp.Jsonrpc != "2.0" || len(rpcResp.Result) == 0 {
		c.logger.Debug("RPC check returned invalid JSON-RPC structure",
			zap.String("url", rpcURL), zap.ByteString("body", body),
		)
		return false, fmt.Errorf("%w: rpc %s returned invalid JSON-RPC structure",
			apperrors.ErrExternalServiceFailure, rpcURL,
		)
	}

	if wantOK {
		var health string
		if err := json.Unmarshal(rpcResp.Result, &health); err != nil || health != "ok" {
			return false, nil
		}
	}

	return true, nil
}
