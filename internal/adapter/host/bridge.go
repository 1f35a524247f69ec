// Package host implements the host bridge over a websocket connection to the
// embedding client.
//
// Frames are JSON text messages. Calls are {"id","method","params"}, answered by
// {"id","result"} or {"id","error":{"kind","message"}}. Events arrive unsolicited
// as {"event","data"}.
package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"solana-miniapp/internal/domain"
	"solana-miniapp/internal/domain/entity"
	domainService "solana-miniapp/internal/domain/service"
	"solana-miniapp/internal/metrics"
	"solana-miniapp/internal/pkg/apperrors"
)

// Compile-time check
var _ domainService.HostBridge = (*Bridge)(nil)

// ErrBridgeClosed is returned for calls made on, or outstanding at, a closed bridge.
var ErrBridgeClosed = fmt.Errorf("%w: connection closed", domain.ErrHostUnavailable)

// Error kinds sent by the host.
const (
	errorKindRejectedByUser        = "rejected_by_user"
	errorKindInvalidDomainManifest = "invalid_domain_manifest"
)

type request struct {
	ID     uint64 `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

type frame struct {
	ID     *uint64         `json:"id,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *frameError     `json:"error,omitempty"`
	Event  string          `json:"event,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

type frameError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type eventData struct {
	NotificationDetails *entity.NotificationDetails `json:"notificationDetails,omitempty"`
	Reason              string                      `json:"reason,omitempty"`
}

type reply struct {
	result json.RawMessage
	err    error
}

type listener struct {
	id      uint64
	handler domainService.HostEventHandler
}

// Bridge is a websocket client speaking the host bridge protocol.
type Bridge struct {
	conn        *websocket.Conn
	callTimeout time.Duration
	logger      *zap.Logger

	writeMu sync.Mutex

	mu        sync.Mutex
	pending   map[uint64]chan reply
	listeners map[entity.HostEventKind][]listener
	closed    bool

	nextID     atomic.Uint64
	nextListen atomic.Uint64
	done       chan struct{}
}

// Dial connects to the host bridge at url and starts the read loop.
func Dial(ctx context.Context, url string, dialTimeout, callTimeout time.Duration, logger *zap.Logger) (*Bridge, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: dialTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial host bridge %s: %v", apperrors.ErrExternalServiceFailure, url, err)
	}
	logger.Info("Connected to host bridge", zap.String("url", url))
	return New(conn, callTimeout, logger), nil
}

// New wraps an established websocket connection.
func New(conn *websocket.Conn, callTimeout time.Duration, logger *zap.Logger) *Bridge {
	b := &Bridge{
		conn:        conn,
		callTimeout: callTimeout,
		logger:      logger.Named("HostBridge"),
		pending:     make(map[uint64]chan reply),
		listeners:   make(map[entity.HostEventKind][]listener),
		done:        make(chan struct{}),
	}
	go b.readLoop()
	return b
}

// Done is closed once the read loop has exited.
func (b *Bridge) Done() <-chan struct{} {
	return b.done
}

// Context requests the host context snapshot.
func (b *Bridge) Context(ctx context.Context) (entity.HostContext, error) {
	var out entity.HostContext
	err := b.call(ctx, "context", nil, &out)
	return out, err
}

// Ready tells the host the app finished loading.
func (b *Bridge) Ready(ctx context.Context) error {
	return b.call(ctx, "ready", struct{}{}, nil)
}

// OpenURL asks the host to open an external URL.
func (b *Bridge) OpenURL(ctx context.Context, url string) error {
	return b.call(ctx, "openUrl", map[string]string{"url": url}, nil)
}

// ComposeCast opens the host's post composer prefilled with text.
func (b *Bridge) ComposeCast(ctx context.Context, text string) error {
	return b.call(ctx, "composeCast", map[string]string{"text": text}, nil)
}

// SignIn starts the host sign-in flow.
func (b *Bridge) SignIn(ctx context.Context) (entity.SignInResult, error) {
	var out entity.SignInResult
	err := b.call(ctx, "signIn", nil, &out)
	return out, err
}

// Close asks the host to close the mini app. It does not close the bridge; see Shutdown.
func (b *Bridge) Close(ctx context.Context) error {
	return b.call(ctx, "close", nil, nil)
}

// AddFrame asks the host to add the mini app for the user.
func (b *Bridge) AddFrame(ctx context.Context) (entity.AddFrameResult, error) {
	var out entity.AddFrameResult
	err := b.call(ctx, "addFrame", nil, &out)
	return out, err
}

// On registers handler for events of kind. The returned handle removes exactly this registration.
func (b *Bridge) On(kind entity.HostEventKind, handler domainService.HostEventHandler) domainService.Subscription {
	id := b.nextListen.Add(1)
	b.mu.Lock()
	b.listeners[kind] = append(b.listeners[kind], listener{id: id, handler: handler})
	b.mu.Unlock()
	return &subscription{bridge: b, kind: kind, id: id}
}

// RemoveAllListeners drops every registered event handler.
func (b *Bridge) RemoveAllListeners() {
	b.mu.Lock()
	b.listeners = make(map[entity.HostEventKind][]listener)
	b.mu.Unlock()
}

// ListenerCount returns the number of handlers registered for kind.
func (b *Bridge) ListenerCount(kind entity.HostEventKind) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners[kind])
}

// Shutdown closes the connection, fails outstanding calls and waits for the read loop.
func (b *Bridge) Shutdown() error {
	b.writeMu.Lock()
	_ = b.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	b.writeMu.Unlock()

	err := b.conn.Close()
	<-b.done
	return err
}

func (b *Bridge) removeListener(kind entity.HostEventKind, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ls := b.listeners[kind]
	for i, l := range ls {
		if l.id == id {
			b.listeners[kind] = append(ls[:i:i], ls[i+1:]...)
			return
		}
	}
}

func (b *Bridge) call(ctx context.Context, method string, params any, out any) error {
	if b.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.callTimeout)
		defer cancel()
	}

	id := b.nextID.Add(1)
	ch := make(chan reply, 1)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrBridgeClosed
	}
	b.pending[id] = ch
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.pending, id)
		b.mu.Unlock()
	}()

	payload, err := json.Marshal(request{ID: id, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("%w: encode %s request: %v", apperrors.ErrInternal, method, err)
	}

	b.writeMu.Lock()
	if deadline, ok := ctx.Deadline(); ok {
		_ = b.conn.SetWriteDeadline(deadline)
	} else {
		_ = b.conn.SetWriteDeadline(time.Time{})
	}
	err = b.conn.WriteMessage(websocket.TextMessage, payload)
	b.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("%w: write %s request: %v", apperrors.ErrExternalServiceFailure, method, err)
	}
	b.logger.Debug("Host call sent", zap.String("method", method), zap.Uint64("id", id))

	select {
	case r := <-ch:
		if r.err != nil {
			return r.err
		}
		if out != nil && len(r.result) > 0 && string(r.result) != "null" {
			if err := json.Unmarshal(r.result, out); err != nil {
				return fmt.Errorf("%w: decode %s result: %v", apperrors.ErrExternalServiceFailure, method, err)
			}
		}
		return nil
	case <-ctx.Done():
		return apperrors.FromContext(ctx, "host call "+method)
	}
}

func (b *Bridge) readLoop() {
	defer close(b.done)
	for {
		_, data, err := b.conn.ReadMessage()
		if err != nil {
			b.fail(err)
			return
		}

		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			b.logger.Warn("Dropping undecodable host frame", zap.ByteString("frame", data), zap.Error(err))
			continue
		}

		switch {
		case f.ID != nil:
			b.deliver(*f.ID, f)
		case f.Event != "":
			b.dispatch(f)
		default:
			b.logger.Warn("Dropping host frame without id or event", zap.ByteString("frame", data))
		}
	}
}

func (b *Bridge) deliver(id uint64, f frame) {
	b.mu.Lock()
	ch, ok := b.pending[id]
	b.mu.Unlock()
	if !ok {
		b.logger.Debug("Reply for unknown or abandoned call", zap.Uint64("id", id))
		return
	}

	r := reply{result: f.Result}
	if f.Error != nil {
		r.err = hostError(f.Error)
	}
	select {
	case ch <- r:
	default:
		b.logger.Warn("Duplicate reply for host call", zap.Uint64("id", id))
	}
}

func (b *Bridge) dispatch(f frame) {
	kind := entity.HostEventKind(f.Event)
	var data eventData
	if len(f.Data) > 0 {
		if err := json.Unmarshal(f.Data, &data); err != nil {
			b.logger.Warn("Dropping host event with bad data", zap.String("event", f.Event), zap.Error(err))
			return
		}
	}
	metrics.HostEvents.WithLabelValues(f.Event).Inc()

	b.mu.Lock()
	handlers := make([]domainService.HostEventHandler, 0, len(b.listeners[kind]))
	for _, l := range b.listeners[kind] {
		handlers = append(handlers, l.handler)
	}
	b.mu.Unlock()

	ev := entity.HostEvent{Kind: kind, NotificationDetails: data.NotificationDetails, Reason: data.Reason}
	for _, h := range handlers {
		h(ev)
	}
}

func (b *Bridge) fail(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for id, ch := range b.pending {
		select {
		case ch <- reply{err: fmt.Errorf("%w: %v", ErrBridgeClosed, err)}:
		default:
		}
		delete(b.pending, id)
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		b.logger.Info("Host bridge connection closed")
	} else {
		b.logger.Warn("Host bridge read loop stopped", zap.Error(err))
	}
}

func hostError(e *frameError) error {
	switch e.Kind {
	case errorKindRejectedByUser:
		return &domain.RejectionError{Kind: domain.ErrRejectedByUser, Message: e.Message}
	case errorKindInvalidDomainManifest:
		return &domain.RejectionError{Kind: domain.ErrInvalidDomainManifest, Message: e.Message}
	default:
		if e.Message == "" {
			return fmt.Errorf("host error: %s", e.Kind)
		}
		return errors.New(e.Message)
	}
}

type subscription struct {
	bridge *Bridge
	kind   entity.HostEventKind
	id     uint64
	once   sync.Once
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() { s.bridge.removeListener(s.kind, s.id) })
}
