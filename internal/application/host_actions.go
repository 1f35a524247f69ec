package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"solana-miniapp/internal/application/port"
	"solana-miniapp/internal/config"
	"solana-miniapp/internal/domain"
	"solana-miniapp/internal/domain/entity"
	domainService "solana-miniapp/internal/domain/service"
)

const (
	notificationSentMsg    = "Notification sent successfully!"
	notificationLimitedMsg = "Rate limited - try again later"
)

// HostActions performs the one-shot host actions and keeps the last
// add-mini-app and send-notification results.
type HostActions struct {
	bridge   domainService.HostBridge
	session  *Session
	notifier domainService.NotificationClient
	demo     config.DemoConfig
	logger   *zap.Logger

	mu               sync.Mutex
	addFrameResult   string
	notificationSent string
}

// NewHostActions creates the host actions for session.
func NewHostActions(
	bridge domainService.HostBridge,
	session *Session,
	notifier domainService.NotificationClient,
	demo config.DemoConfig,
	logger *zap.Logger,
) *HostActions {
	return &HostActions{
		bridge:   bridge,
		session:  session,
		notifier: notifier,
		demo:     demo,
		logger:   logger.Named("HostActions"),
	}
}

// OpenURL opens the demo external link.
func (a *HostActions) OpenURL(ctx context.Context) error {
	return a.bridge.OpenURL(ctx, a.demo.ExternalURL)
}

// ComposeCast opens the composer with the demo text.
func (a *HostActions) ComposeCast(ctx context.Context) error {
	return a.bridge.ComposeCast(ctx, a.demo.CastText)
}

// SignIn triggers host sign-in.
func (a *HostActions) SignIn(ctx context.Context) (entity.SignInResult, error) {
	return a.bridge.SignIn(ctx)
}

// Close asks the host to close the app.
func (a *HostActions) Close(ctx context.Context) error {
	return a.bridge.Close(ctx)
}

// ViewProfile opens the demo profile.
func (a *HostActions) ViewProfile(ctx context.Context) error {
	return a.bridge.OpenURL(ctx, a.demo.ProfileURL)
}

// AddMiniApp asks the host to add the app. Stored notification details are
// cleared first and replaced by the ones the host returns, if any.
func (a *HostActions) AddMiniApp(ctx context.Context) port.AddMiniAppOutcome {
	a.session.setNotificationDetails(nil)

	res, err := a.bridge.AddFrame(ctx)
	var out port.AddMiniAppOutcome
	switch {
	case err == nil && res.NotificationDetails != nil:
		a.session.setNotificationDetails(res.NotificationDetails)
		out = port.AddMiniAppOutcome{
			Kind:    port.AddedWithNotifications,
			Message: "Added! Got notification token: " + res.NotificationDetails.Token,
		}
	case err == nil:
		out = port.AddMiniAppOutcome{Kind: port.AddedWithoutNotifications, Message: "Added! No notification details"}
	case errors.Is(err, domain.ErrRejectedByUser):
		out = port.AddMiniAppOutcome{Kind: port.RejectedByUser, Message: "Not added: " + err.Error()}
	case errors.Is(err, domain.ErrInvalidDomainManifest):
		out = port.AddMiniAppOutcome{Kind: port.InvalidManifest, Message: "Not added: " + err.Error()}
	default:
		out = port.AddMiniAppOutcome{Kind: port.AddFailed, Message: "Error: " + err.Error()}
	}

	a.logger.Info("Add mini app finished", zap.String("kind", string(out.Kind)))
	a.mu.Lock()
	a.addFrameResult = out.Message
	a.mu.Unlock()
	return out
}

// SendNotification asks the backend to notify the current user. It returns ""
// without a request when the user or notification details are unknown.
func (a *HostActions) SendNotification(ctx context.Context) string {
	a.setNotificationResult("")

	fid, details, ok := a.session.notificationTarget()
	if !ok {
		a.logger.Debug("Skipping notification: no context or notification details")
		return ""
	}

	var msg string
	resp, err := a.notifier.SendNotification(ctx, fid, details)
	switch {
	case err != nil:
		msg = "Error: " + err.Error()
	case resp.StatusCode == http.StatusOK:
		msg = notificationSentMsg
	case resp.StatusCode == http.StatusTooManyRequests:
		msg = notificationLimitedMsg
	default:
		a.logger.Warn("Notification backend error",
			zap.Error(fmt.Errorf("%w: status %d", domain.ErrBackend, resp.StatusCode)))
		msg = "Error: " + resp.Body
	}

	a.setNotificationResult(msg)
	return msg
}

// Results returns the last add-mini-app and send-notification results.
func (a *HostActions) Results() (addFrame, notification string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.addFrameResult, a.notificationSent
}

func (a *HostActions) setNotificationResult(msg string) {
	a.mu.Lock()
	a.notificationSent = msg
	a.mu.Unlock()
}
