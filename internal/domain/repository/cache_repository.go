package repository

import (
	"context"
	"time"

	"solana-miniapp/internal/domain/entity"
)

// CacheRepository caches rendered metadata documents and endpoint health.
type CacheRepository interface {
	// GetDocument retrieves a rendered metadata document by name.
	GetDocument(ctx context.Context, name string) ([]byte, bool, error)

	// SetDocument stores a rendered metadata document for ttl.
	SetDocument(ctx context.Context, name string, body []byte, ttl time.Duration) error

	// GetRPCDetail retrieves the last health check of an endpoint.
	GetRPCDetail(ctx context.Context, url entity.RPCURL) (entity.RPCDetail, bool, error)

	// SetRPCDetail stores the health check of an endpoint for ttl.
	SetRPCDetail(ctx context.Context, detail entity.RPCDetail, ttl time.Duration) error
}
