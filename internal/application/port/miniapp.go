package port

import (
	"context"

	"solana-miniapp/internal/domain/entity"
)

// MiniAppService is the action coordinator exposed to the delivery layer.
type MiniAppService interface {
	// Loaded reports whether the host session finished bootstrapping.
	Loaded() bool

	// View returns the current state view model.
	View() View

	// LaunchSignMessage, LaunchSendNative and LaunchSendToken start a wallet flow in
	// the background. The outcome is read back through View.
	LaunchSignMessage() error
	LaunchSendNative() error
	// LaunchSendToken checks the send-token preconditions before launching and
	// returns their error synchronously.
	LaunchSendToken(symbol, destination string) error

	AddMiniApp(ctx context.Context) (AddMiniAppOutcome, error)
	SendNotification(ctx context.Context) (string, error)
	OpenURL(ctx context.Context) error
	ComposeCast(ctx context.Context) error
	SignIn(ctx context.Context) (entity.SignInResult, error)
	Close(ctx context.Context) error
	ViewProfile(ctx context.Context) error
}

// NotificationService delivers notifications on behalf of the send-notification endpoint.
type NotificationService interface {
	// Send fails with apperrors.ErrInvalidInput, apperrors.ErrRateLimited or domain.ErrBackend.
	Send(ctx context.Context, req entity.SendNotificationRequest) error
}

// MetadataService renders the documents hosts read to discover the app.
type MetadataService interface {
	Page(ctx context.Context) ([]byte, error)
	FrameEmbed(ctx context.Context) ([]byte, error)
	Manifest(ctx context.Context) ([]byte, error)
}
