package memory

import (
	"context"
	"fmt"
	"time"

	"solana-miniapp/internal/domain/entity"
	domainRepo "solana-miniapp/internal/domain/repository"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Compile-time check
var _ domainRepo.CacheRepository = (*CacheRepository)(nil)

// Cache keys
const (
	documentKeyPrefix  = "document_"
	rpcDetailKeyPrefix = "rpc_detail_"
)

// CacheRepository implements domainRepo.CacheRepository using the go-cache in-memory library.
type CacheRepository struct {
	cache      *cache.Cache
	logger     *zap.Logger
	defaultTTL time.Duration
}

// NewCacheRepository creates a new in-memory cache repository instance.
func NewCacheRepository(defaultTTL, cleanupInterval time.Duration, logger *zap.Logger) *CacheRepository {
	c := cache.New(defaultTTL, cleanupInterval)
	logger.Info(
		"Initialized go-cache for memory storage",
		zap.Duration("defaultExpiration", defaultTTL),
		zap.Duration("cleanupInterval", cleanupInterval),
	)

	return &CacheRepository{
		cache:      c,
		logger:     logger.Named("MemoryCacheStorage"),
		defaultTTL: defaultTTL,
	}
}

// GetDocument retrieves a cached metadata document, returning found status.
func (r *CacheRepository) GetDocument(_ context.Context, name string) ([]byte, bool, error) {
	key := documentKeyPrefix + name
	if x, found := r.cache.Get(key); found {
		if body, ok := x.([]byte); ok {
			r.logger.Debug("Memory cache hit", zap.String("key", key))
			return body, true, nil
		}
		r.logger.Warn(
			"Memory cache data type mismatch for key",
			zap.String("key", key), zap.String("type", fmt.Sprintf("%T", x)),
		)
	}
	r.logger.Debug("Memory cache miss", zap.String("key", key))
	return nil, false, nil
}

// SetDocument caches a metadata document with a given TTL.
func (r *CacheRepository) SetDocument(_ context.Context, name string, body []byte, ttl time.Duration) error {
	key := documentKeyPrefix + name
	r.cache.Set(key, body, r.ttl(ttl))
	r.logger.Debug("Memory cache set", zap.String("key", key), zap.Duration("ttl", r.ttl(ttl)))
	return nil
}

// GetRPCDetail retrieves the cached health of an endpoint, returning found status.
func (r *CacheRepository) GetRPCDetail(_ context.Context, url entity.RPCURL) (entity.RPCDetail, bool, error) {
	key := rpcDetailKeyPrefix + url.String()
	if x, found := r.cache.Get(key); found {
		if detail, ok := x.(entity.RPCDetail); ok {
			r.logger.Debug("Memory cache hit", zap.String("key", key))
			return detail, true, nil
		}
		r.logger.Warn(
			"Memory cache data type mismatch for key",
			zap.String("key", key), zap.String("type", fmt.Sprintf("%T", x)),
		)
	}
	r.logger.Debug("Memory cache miss", zap.String("key", key))
	return entity.RPCDetail{}, false, nil
}

// SetRPCDetail caches the health of an endpoint with a given TTL.
func (r *CacheRepository) SetRPCDetail(_ context.Context, detail entity.RPCDetail, ttl time.Duration) error {
	key := rpcDetailKeyPrefix + detail.URL.String()
	r.cache.Set(key, detail, r.ttl(ttl))
	r.logger.Debug("Memory cache set", zap.String("key", key), zap.Duration("ttl", r.ttl(ttl)))
	return nil
}

func (r *CacheRepository) ttl(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return r.defaultTTL
	}
	return ttl
}
