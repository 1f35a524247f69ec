package host

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"solana-miniapp/internal/domain"
	"solana-miniapp/internal/domain/entity"
	"solana-miniapp/internal/pkg/apperrors"
)

type hostReply struct {
	result any
	kind   string
	msg    string
	silent bool
}

// fakeHost is a websocket server playing the host client.
type fakeHost struct {
	srv     *httptest.Server
	mu      sync.Mutex
	conn    *websocket.Conn
	methods []string
	answer  func(method string, params json.RawMessage) hostReply
	ready   chan struct{}
}

func newFakeHost(t *testing.T, answer func(method string, params json.RawMessage) hostReply) *fakeHost {
	t.Helper()
	h := &fakeHost{answer: answer, ready: make(chan struct{})}
	upgrader := websocket.Upgrader{}
	h.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		h.mu.Lock()
		h.conn = conn
		h.mu.Unlock()
		close(h.ready)

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var req struct {
				ID     uint64          `json:"id"`
				Method string          `json:"method"`
				Params json.RawMessage `json:"params"`
			}
			if json.Unmarshal(data, &req) != nil {
				continue
			}
			h.mu.Lock()
			h.methods = append(h.methods, req.Method)
			h.mu.Unlock()

			rep := h.answer(req.Method, req.Params)
			if rep.silent {
				continue
			}
			out := map[string]any{"id": req.ID}
			if rep.kind != "" || rep.msg != "" {
				out["error"] = map[string]string{"kind": rep.kind, "message": rep.msg}
			} else {
				out["result"] = rep.result
			}
			h.write(out)
		}
	}))
	t.Cleanup(h.srv.Close)
	return h
}

func (h *fakeHost) url() string {
	return "ws" + strings.TrimPrefix(h.srv.URL, "http")
}

func (h *fakeHost) write(v any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	_ = h.conn.WriteJSON(v)
}

func (h *fakeHost) emit(event string, data any) {
	<-h.ready
	h.write(map[string]any{"event": event, "data": data})
}

func (h *fakeHost) calls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.methods...)
}

// verifyNoLeaks checks for stray goroutines once the test and its cleanups,
// including the fake host server shutdown, have finished.
func verifyNoLeaks(t *testing.T) {
	t.Helper()
	ignore := goleak.IgnoreCurrent()
	t.Cleanup(func() { goleak.VerifyNone(t, ignore) })
}

func dialFake(t *testing.T, h *fakeHost, callTimeout time.Duration) *Bridge {
	t.Helper()
	b, err := Dial(context.Background(), h.url(), time.Second, callTimeout, zap.NewNop())
	require.NoError(t, err)
	return b
}

func TestBridge_ContextAndReady(t *testing.T) {
	verifyNoLeaks(t)

	h := newFakeHost(t, func(method string, _ json.RawMessage) hostReply {
		if method == "context" {
			return hostReply{result: entity.HostContext{
				User:   entity.User{FID: 1374072, Username: "townsquare", DisplayName: "TownSquare"},
				Client: entity.Client{PlatformType: "mobile", ClientFID: 9152, Added: true},
			}}
		}
		return hostReply{result: nil}
	})
	b := dialFake(t, h, time.Second)

	hc, err := b.Context(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1374072), hc.User.FID)
	assert.Equal(t, "townsquare", hc.User.Username)
	assert.True(t, hc.Client.Added)

	require.NoError(t, b.Ready(context.Background()))
	require.NoError(t, b.OpenURL(context.Background(), "https://x.com/PlayTownSquare"))
	assert.Equal(t, []string{"context", "ready", "openUrl"}, h.calls())

	require.NoError(t, b.Shutdown())
}

func TestBridge_AddFrameRejections(t *testing.T) {
	verifyNoLeaks(t)

	var mode string
	var mu sync.Mutex
	h := newFakeHost(t, func(method string, _ json.RawMessage) hostReply {
		mu.Lock()
		defer mu.Unlock()
		switch mode {
		case "user":
			return hostReply{kind: errorKindRejectedByUser, msg: "user dismissed the prompt"}
		case "manifest":
			return hostReply{kind: errorKindInvalidDomainManifest, msg: "manifest domain mismatch"}
		case "other":
			return hostReply{kind: "boom", msg: "host exploded"}
		default:
			return hostReply{result: map[string]any{"notificationDetails": map[string]string{"url": "https://n.example", "token": "tok"}}}
		}
	})
	b := dialFake(t, h, time.Second)
	defer b.Shutdown()

	res, err := b.AddFrame(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res.NotificationDetails)
	assert.Equal(t, "tok", res.NotificationDetails.Token)

	for _, tc := range []struct {
		mode string
		want error
	}{
		{"user", domain.ErrRejectedByUser},
		{"manifest", domain.ErrInvalidDomainManifest},
	} {
		mu.Lock()
		mode = tc.mode
		mu.Unlock()
		_, err := b.AddFrame(context.Background())
		assert.True(t, errors.Is(err, tc.want), "mode %s: %v", tc.mode, err)
		assert.True(t, errors.Is(err, domain.ErrHostRejection))
		var rej *domain.RejectionError
		require.True(t, errors.As(err, &rej))
		assert.NotEmpty(t, rej.Message)
		assert.Equal(t, rej.Message, err.Error())
	}

	mu.Lock()
	mode = "other"
	mu.Unlock()
	_, err = b.AddFrame(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrHostRejection))
	assert.Equal(t, "host exploded", err.Error())
}

func TestBridge_EventsAndUnsubscribe(t *testing.T) {
	verifyNoLeaks(t)

	h := newFakeHost(t, func(string, json.RawMessage) hostReply { return hostReply{} })
	b := dialFake(t, h, time.Second)
	defer b.Shutdown()

	got := make(chan entity.HostEvent, 4)
	sub := b.On(entity.EventNotificationsEnabled, func(ev entity.HostEvent) { got <- ev })
	other := b.On(entity.EventNotificationsEnabled, func(entity.HostEvent) {})
	assert.Equal(t, 2, b.ListenerCount(entity.EventNotificationsEnabled))

	h.emit("notificationsEnabled", map[string]any{"notificationDetails": map[string]string{"url": "u", "token": "t"}})
	select {
	case ev := <-got:
		assert.Equal(t, entity.EventNotificationsEnabled, ev.Kind)
		require.NotNil(t, ev.NotificationDetails)
		assert.Equal(t, "t", ev.NotificationDetails.Token)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}

	sub.Unsubscribe()
	sub.Unsubscribe()
	assert.Equal(t, 1, b.ListenerCount(entity.EventNotificationsEnabled))

	other.Unsubscribe()
	assert.Equal(t, 0, b.ListenerCount(entity.EventNotificationsEnabled))
}

func TestBridge_RemoveAllListeners(t *testing.T) {
	verifyNoLeaks(t)

	h := newFakeHost(t, func(string, json.RawMessage) hostReply { return hostReply{} })
	b := dialFake(t, h, time.Second)
	defer b.Shutdown()

	removed := make(chan entity.HostEvent, 1)
	kept := make(chan entity.HostEvent, 1)
	sub := b.On(entity.EventMiniAppAdded, func(ev entity.HostEvent) { removed <- ev })
	b.On(entity.EventMiniAppRemoved, func(entity.HostEvent) {})

	b.RemoveAllListeners()
	assert.Equal(t, 0, b.ListenerCount(entity.EventMiniAppAdded))
	assert.Equal(t, 0, b.ListenerCount(entity.EventMiniAppRemoved))
	sub.Unsubscribe()

	b.On(entity.EventMiniAppAdded, func(ev entity.HostEvent) { kept <- ev })
	h.emit("miniAppAdded", map[string]any{})
	select {
	case <-kept:
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered to the new listener")
	}
	assert.Empty(t, removed)
}

func TestBridge_CallTimeout(t *testing.T) {
	verifyNoLeaks(t)

	h := newFakeHost(t, func(string, json.RawMessage) hostReply { return hostReply{silent: true} })
	b := dialFake(t, h, 50*time.Millisecond)
	defer b.Shutdown()

	err := b.Ready(context.Background())
	assert.True(t, errors.Is(err, apperrors.ErrTimeout), "got %v", err)
}

func TestBridge_ShutdownFailsLaterCalls(t *testing.T) {
	verifyNoLeaks(t)

	h := newFakeHost(t, func(string, json.RawMessage) hostReply { return hostReply{} })
	b := dialFake(t, h, time.Second)

	require.NoError(t, b.Shutdown())
	<-b.Done()

	err := b.Ready(context.Background())
	assert.True(t, errors.Is(err, ErrBridgeClosed))
	assert.True(t, errors.Is(err, domain.ErrHostUnavailable))
}

func TestDial_Unreachable(t *testing.T) {
	_, err := Dial(context.Background(), "ws://127.0.0.1:1/bridge", 200*time.Millisecond, 0, zap.NewNop())
	assert.True(t, errors.Is(err, apperrors.ErrExternalServiceFailure))
}
