package application

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"solana-miniapp/internal/domain"
	"solana-miniapp/internal/domain/entity"
	domainService "solana-miniapp/internal/domain/service"
	"solana-miniapp/internal/metrics"
)

// SessionSnapshot is a copy of the session state.
type SessionSnapshot struct {
	Loaded              bool
	Context             *entity.HostContext
	Added               bool
	LastEvent           string
	NotificationDetails *entity.NotificationDetails
}

// Session holds the host context for the lifetime of one host session and
// keeps it current from host events.
type Session struct {
	bridge domainService.HostBridge
	logger *zap.Logger

	mu        sync.RWMutex
	started   bool
	closed    bool
	loaded    bool
	hostCtx   *entity.HostContext
	added     bool
	lastEvent string
	details   *entity.NotificationDetails
	subs      []domainService.Subscription
}

// NewSession creates a session over bridge. Call Start to load it.
func NewSession(bridge domainService.HostBridge, logger *zap.Logger) *Session {
	return &Session{bridge: bridge, logger: logger.Named("Session")}
}

// Start loads the host context, subscribes to host events and signals
// readiness. It succeeds at most once per session and never after Close.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrSessionNotReady
	}
	if s.started {
		s.mu.Unlock()
		return domain.ErrSessionStarted
	}
	s.started = true
	s.mu.Unlock()

	hostCtx, err := s.bridge.Context(ctx)
	if err != nil {
		s.reset()
		return fmt.Errorf("failed to load host context: %w", err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrSessionNotReady
	}
	s.hostCtx = &hostCtx
	s.added = hostCtx.Client.Added
	s.details = cloneDetails(hostCtx.Client.NotificationDetails)
	s.mu.Unlock()

	subs := make([]domainService.Subscription, 0, len(entity.HostEventKinds))
	for _, kind := range entity.HostEventKinds {
		subs = append(subs, s.bridge.On(kind, s.handleEvent))
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		for _, sub := range subs {
			sub.Unsubscribe()
		}
		return domain.ErrSessionNotReady
	}
	s.subs = subs
	s.mu.Unlock()

	if err := s.bridge.Ready(ctx); err != nil {
		s.releaseSubscriptions()
		s.reset()
		return fmt.Errorf("failed to signal readiness: %w", err)
	}

	s.mu.Lock()
	if s.closed {
		// Close already released the subscriptions.
		s.mu.Unlock()
		return domain.ErrSessionNotReady
	}
	s.loaded = true
	s.mu.Unlock()
	metrics.HostBridgeConnected.Set(1)

	s.logger.Info("Host session loaded",
		zap.Int64("fid", hostCtx.User.FID),
		zap.String("platform", hostCtx.Client.PlatformType),
		zap.Bool("added", hostCtx.Client.Added),
	)
	return nil
}

// Loaded reports whether Start completed.
func (s *Session) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := SessionSnapshot{
		Loaded:              s.loaded,
		Added:               s.added,
		LastEvent:           s.lastEvent,
		NotificationDetails: cloneDetails(s.details),
	}
	if s.hostCtx != nil {
		c := s.hostCtx.Clone()
		snap.Context = &c
	}
	return snap
}

// Close ends the session and releases every event subscription, including
// those a concurrent Start registers afterwards. It is safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.releaseSubscriptions()
	s.mu.Lock()
	wasLoaded := s.loaded
	s.loaded = false
	s.mu.Unlock()
	if wasLoaded {
		metrics.HostBridgeConnected.Set(0)
		s.logger.Info("Host session closed")
	}
}

// setNotificationDetails replaces the stored details; nil clears them.
func (s *Session) setNotificationDetails(d *entity.NotificationDetails) {
	s.mu.Lock()
	s.details = cloneDetails(d)
	s.mu.Unlock()
}

// notificationTarget returns the user fid and details when both are known.
func (s *Session) notificationTarget() (int64, entity.NotificationDetails, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.hostCtx == nil || s.details == nil {
		return 0, entity.NotificationDetails{}, false
	}
	return s.hostCtx.User.FID, *s.details, true
}

func (s *Session) handleEvent(ev entity.HostEvent) {
	s.mu.Lock()
	switch ev.Kind {
	case entity.EventMiniAppAdded:
		s.lastEvent = string(entity.EventMiniAppAdded)
		if ev.NotificationDetails != nil {
			s.lastEvent += ", notifications enabled"
			s.details = cloneDetails(ev.NotificationDetails)
		}
		s.added = true
	case entity.EventMiniAppAddRejected:
		s.lastEvent = fmt.Sprintf("%s, reason %s", entity.EventMiniAppAddRejected, ev.Reason)
	case entity.EventMiniAppRemoved:
		s.lastEvent = string(entity.EventMiniAppRemoved)
		s.added = false
		s.details = nil
	case entity.EventNotificationsEnabled:
		s.lastEvent = string(entity.EventNotificationsEnabled)
		s.details = cloneDetails(ev.NotificationDetails)
	case entity.EventNotificationsDisabled:
		s.lastEvent = string(entity.EventNotificationsDisabled)
		s.details = nil
	default:
		s.mu.Unlock()
		s.logger.Warn("Ignoring unknown host event", zap.String("kind", string(ev.Kind)))
		return
	}
	last := s.lastEvent
	s.mu.Unlock()

	s.logger.Debug("Host event applied", zap.String("lastEvent", last))
}

func (s *Session) releaseSubscriptions() {
	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()
	for _, sub := range subs {
		sub.Unsubscribe()
	}
}

func (s *Session) reset() {
	s.mu.Lock()
	s.started = false
	s.hostCtx = nil
	s.added = false
	s.details = nil
	s.mu.Unlock()
}

func cloneDetails(d *entity.NotificationDetails) *entity.NotificationDetails {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}
