package application

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"solana-miniapp/internal/config"
	"solana-miniapp/internal/domain/entity"
	domainRepo "solana-miniapp/internal/domain/repository"
	domainService "solana-miniapp/internal/domain/service"
)

const maxEndpointWorkers = 4

// EndpointSelector picks the RPC endpoint the chain connection uses.
type EndpointSelector struct {
	checker   domainService.RPCChecker
	cacheRepo domainRepo.CacheRepository
	cfg       config.SolanaConfig
	logger    *zap.Logger
}

// NewEndpointSelector creates a selector over the configured endpoints.
func NewEndpointSelector(
	checker domainService.RPCChecker,
	cacheRepo domainRepo.CacheRepository,
	cfg config.SolanaConfig,
	logger *zap.Logger,
) *EndpointSelector {
	return &EndpointSelector{
		checker:   checker,
		cacheRepo: cacheRepo,
		cfg:       cfg,
		logger:    logger.Named("EndpointSelector"),
	}
}

// Select returns the first healthy HTTP(S) endpoint in configured order along
// with every check result. With no healthy endpoint it falls back to the first
// valid HTTP(S) URL, and returns "" when there is none.
func (s *EndpointSelector) Select(ctx context.Context) (string, []entity.RPCDetail) {
	var urls []entity.RPCURL
	for _, raw := range s.cfg.RPCURLs {
		u, err := entity.NewRPCURL(raw)
		if err != nil {
			s.logger.Warn("Skipping invalid RPC URL", zap.String("url", raw), zap.Error(err))
			continue
		}
		urls = append(urls, u)
	}

	details := s.check(ctx, urls)
	for _, d := range details {
		if d.IsWorking && !d.Protocol.IsWebsocket() {
			s.logger.Info("Selected RPC endpoint", zap.String("url", d.URL.String()), zap.Int64("latencyMs", d.LatencyMs))
			return d.URL.String(), details
		}
	}

	for _, u := range urls {
		if !u.Protocol().IsWebsocket() {
			s.logger.Warn("No healthy RPC endpoint found, falling back to first HTTP endpoint",
				zap.String("url", u.String()))
			return u.String(), details
		}
	}
	s.logger.Warn("No usable HTTP RPC endpoint configured")
	return "", details
}

// check returns one detail per url, in order, serving cached results first.
func (s *EndpointSelector) check(ctx context.Context, urls []entity.RPCURL) []entity.RPCDetail {
	details := make([]entity.RPCDetail, len(urls))
	if len(urls) == 0 {
		return details
	}

	type job struct {
		index int
		url   entity.RPCURL
	}
	jobs := make(chan job, len(urls))

	numWorkers := maxEndpointWorkers
	if len(urls) < numWorkers {
		numWorkers = len(urls)
	}

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				details[j.index] = s.checkOne(ctx, j.url)
			}
		}()
	}

	for i, u := range urls {
		jobs <- job{index: i, url: u}
	}
	close(jobs)
	wg.Wait()
	return details
}

func (s *EndpointSelector) checkOne(ctx context.Context, url entity.RPCURL) entity.RPCDetail {
	if cached, found, err := s.cacheRepo.GetRPCDetail(ctx, url); err != nil {
		s.logger.Warn("Cache error when getting RPC detail", zap.String("url", url.String()), zap.Error(err))
	} else if found {
		return cached
	}

	detail := entity.RPCDetail{URL: url, Protocol: url.Protocol()}

	timeout := s.cfg.GetCheckTimeout()
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	isWorking, latency, err := s.checker.CheckRPC(checkCtx, url)
	cancel()

	if err != nil {
		s.logger.Debug("RPC check failed", zap.String("rpc", url.String()), zap.Error(err))
		detail.Error = err.Error()
	} else {
		detail.IsWorking = isWorking
		if isWorking {
			detail.LatencyMs = latency.Milliseconds()
		}
	}

	if ttl := s.cfg.GetCheckTTL(); ttl > 0 {
		if err := s.cacheRepo.SetRPCDetail(ctx, detail, ttl); err != nil {
			s.logger.Warn("Failed to cache RPC detail", zap.String("url", url.String()), zap.Error(err))
		}
	}
	return detail
}
