package service

import (
	"context"

	"solana-miniapp/internal/domain/entity"
)

// Subscription is a handle to one registered host event handler.
type Subscription interface {
	Unsubscribe()
}

// HostEventHandler receives host events.
type HostEventHandler func(entity.HostEvent)

// HostBridge is the boundary to the host client that embeds the mini app.
type HostBridge interface {
	Context(ctx context.Context) (entity.HostContext, error)
	Ready(ctx context.Context) error
	On(kind entity.HostEventKind, handler HostEventHandler) Subscription

	OpenURL(ctx context.Context, url string) error
	ComposeCast(ctx context.Context, text string) error
	SignIn(ctx context.Context) (entity.SignInResult, error)
	Close(ctx context.Context) error
	// AddFrame fails with domain.ErrRejectedByUser or domain.ErrInvalidDomainManifest
	// when the host rejects the request.
	AddFrame(ctx context.Context) (entity.AddFrameResult, error)
}
