package application

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"solana-miniapp/internal/application/port"
	"solana-miniapp/internal/config"
	"solana-miniapp/internal/domain"
	"solana-miniapp/internal/domain/entity"
	domainService "solana-miniapp/internal/domain/service"
	"solana-miniapp/internal/metrics"
	"solana-miniapp/internal/pkg/apperrors"
	"solana-miniapp/internal/pkg/ratelimiter"
)

// Compile-time check
var _ port.NotificationService = (*NotificationService)(nil)

// NotificationService validates, rate-limits and delivers notifications.
type NotificationService struct {
	dispatcher domainService.NotificationDispatcher
	limiter    *ratelimiter.MapLimiter[int64]
	cfg        config.NotificationsConfig
	now        func() time.Time
	logger     *zap.Logger
}

// NewNotificationService creates the service with a per-fid limiter from cfg.
func NewNotificationService(
	dispatcher domainService.NotificationDispatcher,
	cfg config.NotificationsConfig,
	logger *zap.Logger,
) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		limiter:    ratelimiter.New[int64](cfg.RateLimitRPS, cfg.RateLimitBurst, cfg.LimiterIdleTTL),
		cfg:        cfg,
		now:        time.Now,
		logger:     logger.Named("NotificationService"),
	}
}

// Send delivers the configured notification to the user's notification URL.
func (s *NotificationService) Send(ctx context.Context, req entity.SendNotificationRequest) error {
	if err := validateNotificationRequest(req); err != nil {
		metrics.Notifications.WithLabelValues("invalid").Inc()
		return err
	}

	if !s.limiter.Allow(req.FID, s.now()) {
		metrics.Notifications.WithLabelValues("rate_limited").Inc()
		s.logger.Info("Notification rate limited", zap.Int64("fid", req.FID))
		return fmt.Errorf("%w: fid %d", apperrors.ErrRateLimited, req.FID)
	}

	n := entity.Notification{
		ID:        uuid.NewString(),
		Title:     s.cfg.Title,
		Body:      s.cfg.Body,
		TargetURL: s.cfg.TargetURL,
	}
	details := *req.NotificationDetails

	result, err := s.dispatcher.Dispatch(ctx, details, n)
	if err != nil {
		metrics.Notifications.WithLabelValues("error").Inc()
		s.logger.Warn("Notification delivery failed", zap.Int64("fid", req.FID), zap.Error(err))
		return fmt.Errorf("%w: %v", domain.ErrBackend, err)
	}

	if slices.Contains(result.RateLimitedTokens, details.Token) {
		metrics.Notifications.WithLabelValues("rate_limited").Inc()
		s.logger.Info("Host rate limited notification token", zap.Int64("fid", req.FID))
		return fmt.Errorf("%w: host rate limited the notification token", apperrors.ErrRateLimited)
	}

	metrics.Notifications.WithLabelValues("sent").Inc()
	s.logger.Info("Notification sent",
		zap.Int64("fid", req.FID),
		zap.String("notificationId", n.ID),
		zap.Int("successful", len(result.SuccessfulTokens)),
		zap.Int("invalid", len(result.InvalidTokens)),
	)
	return nil
}

func validateNotificationRequest(req entity.SendNotificationRequest) error {
	if req.FID <= 0 {
		return fmt.Errorf("%w: fid must be a positive number", apperrors.ErrInvalidInput)
	}
	d := req.NotificationDetails
	if d == nil || d.URL == "" || d.Token == "" {
		return fmt.Errorf("%w: notificationDetails requires url and token", apperrors.ErrInvalidInput)
	}
	return nil
}
