package service

import (
	"context"
	"time"

	"solana-miniapp/internal/domain/entity"
)

// RPCChecker reports whether a Solana RPC endpoint answers health checks.
type RPCChecker interface {
	CheckRPC(ctx context.Context, rpcURL entity.RPCURL) (bool, time.Duration, error)
}
