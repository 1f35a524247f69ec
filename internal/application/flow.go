package application

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"solana-miniapp/internal/domain/entity"
	"solana-miniapp/internal/metrics"
)

// flowState is the ActionResult of one flow. Overlapping invocations are not
// excluded: each writes its own outcome and the last to resolve wins.
type flowState struct {
	name   string
	logger *zap.Logger

	mu     sync.Mutex
	result entity.ActionResult
}

func newFlowState(name string, logger *zap.Logger) *flowState {
	return &flowState{name: name, logger: logger, result: entity.None{}}
}

// State returns the current result.
func (f *flowState) State() entity.ActionResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result
}

func (f *flowState) begin() time.Time {
	f.set(entity.Pending{})
	f.logger.Debug("Flow pending")
	return time.Now()
}

func (f *flowState) succeed(started time.Time, payload string) entity.ActionResult {
	r := entity.Success{Payload: payload}
	f.resolve(started, r)
	f.logger.Info("Flow succeeded", zap.String("payload", payload))
	return r
}

func (f *flowState) fail(started time.Time, err error) entity.ActionResult {
	r := entity.Failure{Message: err.Error()}
	f.resolve(started, r)
	f.logger.Warn("Flow failed", zap.Error(err))
	return r
}

func (f *flowState) resolve(started time.Time, r entity.ActionResult) {
	f.set(r)
	metrics.FlowResults.WithLabelValues(f.name, string(r.Status())).Inc()
	metrics.FlowDuration.WithLabelValues(f.name).Observe(time.Since(started).Seconds())
}

func (f *flowState) set(r entity.ActionResult) {
	f.mu.Lock()
	f.result = r
	f.mu.Unlock()
}
