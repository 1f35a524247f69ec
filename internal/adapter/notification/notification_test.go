package notification

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"solana-miniapp/internal/domain/entity"
	"solana-miniapp/internal/pkg/apperrors"
)

func TestClient_SendNotification(t *testing.T) {
	var got entity.SendNotificationRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, sendNotificationPath, r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, "slow down")
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", zap.NewNop())
	resp, err := c.SendNotification(context.Background(), 42, entity.NotificationDetails{URL: "https://n.example", Token: "tok"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "slow down", resp.Body)

	assert.Equal(t, int64(42), got.FID)
	require.NotNil(t, got.NotificationDetails)
	assert.Equal(t, "tok", got.NotificationDetails.Token)
}

func TestClient_TransportError(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", zap.NewNop())
	_, err := c.SendNotification(context.Background(), 1, entity.NotificationDetails{URL: "u", Token: "t"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrExternalServiceFailure))
}

func TestDispatcher_Dispatch(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = io.WriteString(w, `{"result":{"successfulTokens":["tok"],"invalidTokens":[],"rateLimitedTokens":[]}}`)
	}))
	defer srv.Close()

	d := NewDispatcher(zap.NewNop())
	res, err := d.Dispatch(context.Background(),
		entity.NotificationDetails{URL: srv.URL, Token: "tok"},
		entity.Notification{ID: "id-1", Title: "Solana Starter", Body: "hi", TargetURL: "http://localhost:3000"},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"tok"}, res.SuccessfulTokens)

	assert.Equal(t, "id-1", body["notificationId"])
	assert.Equal(t, "Solana Starter", body["title"])
	assert.Equal(t, "http://localhost:3000", body["targetUrl"])
	assert.Equal(t, []any{"tok"}, body["tokens"])
}

func TestDispatcher_Failures(t *testing.T) {
	for name, handler := range map[string]http.HandlerFunc{
		"non-2xx": func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "nope", http.StatusBadGateway)
		},
		"undecodable": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "not json")
		},
		"missing result": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `{}`)
		},
	} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(handler)
			defer srv.Close()

			_, err := NewDispatcher(zap.NewNop()).Dispatch(context.Background(),
				entity.NotificationDetails{URL: srv.URL, Token: "tok"}, entity.Notification{ID: "x"})
			assert.True(t, errors.Is(err, apperrors.ErrExternalServiceFailure), "got %v", err)
		})
	}
}
