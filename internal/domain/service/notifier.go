package service

import (
	"context"

	"solana-miniapp/internal/domain/entity"
)

// NotificationResponse is the raw outcome of a send-notification request.
type NotificationResponse struct {
	StatusCode int
	Body       string
}

// NotificationClient posts send-notification requests to the backend endpoint.
type NotificationClient interface {
	SendNotification(ctx context.Context, fid int64, details entity.NotificationDetails) (NotificationResponse, error)
}

// NotificationDispatcher delivers a notification to the host's notification URL.
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, details entity.NotificationDetails, n entity.Notification) (entity.DispatchResult, error)
}
