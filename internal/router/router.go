// Package router dispatches trade, balance and price operations to the
// adapter registered for each platform.
package router

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/SyrupLabs-code/Syrup/internal/models"
	"github.com/SyrupLabs-code/Syrup/internal/platforms"
)

// TradeRouter owns the platform -> adapter registry. At most one adapter is
// live per platform; registering again replaces (and closes) the previous
// one. State is process-lifetime only.
type TradeRouter struct {
	logger *zap.Logger

	mu       sync.RWMutex
	adapters map[models.Platform]platforms.Adapter
}

// New creates an empty router.
func New(logger *zap.Logger) *TradeRouter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TradeRouter{
		logger:   logger,
		adapters: make(map[models.Platform]platforms.Adapter),
	}
}

// RegisterPlatform constructs the matching adapter and installs it. A
// previously registered adapter for the same platform is closed before it is
// replaced.
func (r *TradeRouter) RegisterPlatform(creds *models.PlatformCredentials) error {
	adapter, err := platforms.New(creds, r.logger)
	if err != nil {
		return err
	}
	r.RegisterAdapter(adapter)
	return nil
}

// RegisterAdapter installs a pre-built adapter under its own platform key.
func (r *TradeRouter) RegisterAdapter(adapter platforms.Adapter) {
	platform := adapter.Platform()

	r.mu.Lock()
	old := r.adapters[platform]
	r.adapters[platform] = adapter
	r.mu.Unlock()

	if old != nil {
		if err := old.Close(); err != nil {
			r.logger.Warn("Failed to close replaced adapter",
				zap.String("platform", string(platform)), zap.Error(err))
		}
	}
	r.logger.Info("Platform registered", zap.String("platform", string(platform)))
}

// UnregisterPlatform removes and closes the platform's adapter. Unknown
// platforms are a no-op.
func (r *TradeRouter) UnregisterPlatform(platform models.Platform) {
	r.mu.Lock()
	adapter, ok := r.adapters[platform]
	delete(r.adapters, platform)
	r.mu.Unlock()

	if !ok {
		return
	}
	if err := adapter.Close(); err != nil {
		r.logger.Warn("Failed to close adapter",
			zap.String("platform", string(platform)), zap.Error(err))
	}
	r.logger.Info("Platform unregistered", zap.String("platform", string(platform)))
}

// adapter looks up the live adapter for a platform.
func (r *TradeRouter) adapter(platform models.Platform) (platforms.Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[platform]
	return a, ok
}

// ExecuteTrade dispatches the request to its platform's adapter. A missing
// registration produces a failed TradeResult, not an error.
func (r *TradeRouter) ExecuteTrade(ctx context.Context, trade *models.TradeRequest) *models.TradeResult {
	adapter, ok := r.adapter(trade.Platform)
	if !ok {
		return models.FailedResult(trade.Platform,
			fmt.Sprintf("platform %s not registered", trade.Platform))
	}
	return adapter.ExecuteTrade(ctx, trade)
}

// GetBalance delegates to the platform's adapter; an unregistered platform
// yields an empty map, matching adapter-level failure.
func (r *TradeRouter) GetBalance(ctx context.Context, platform models.Platform, token string) map[string]float64 {
	adapter, ok := r.adapter(platform)
	if !ok {
		return map[string]float64{}
	}
	return adapter.GetBalance(ctx, token)
}

// GetPrice delegates to the platform's adapter, or returns 0 when none is
// registered.
func (r *TradeRouter) GetPrice(ctx context.Context, platform models.Platform, symbol string) float64 {
	adapter, ok := r.adapter(platform)
	if !ok {
		return 0
	}
	return adapter.GetPrice(ctx, symbol)
}

// GetAllBalances fans out to every registered adapter concurrently. A
// faulting adapter contributes an empty entry; it never aborts the
// aggregation for the other platforms.
func (r *TradeRouter) GetAllBalances(ctx context.Context) map[models.Platform]map[string]float64 {
	r.mu.RLock()
	snapshot := make(map[models.Platform]platforms.Adapter, len(r.adapters))
	for p, a := range r.adapters {
		snapshot[p] = a
	}
	r.mu.RUnlock()

	balances := make(map[models.Platform]map[string]float64, len(snapshot))
	var bmu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for platform, adapter := range snapshot {
		platform, adapter := platform, adapter
		g.Go(func() error {
			entry := r.safeBalance(gctx, platform, adapter)
			bmu.Lock()
			balances[platform] = entry
			bmu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return balances
}

// safeBalance shields the aggregation from a misbehaving adapter.
func (r *TradeRouter) safeBalance(ctx context.Context, platform models.Platform, adapter platforms.Adapter) (entry map[string]float64) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Adapter panicked during balance fetch",
				zap.String("platform", string(platform)), zap.Any("panic", rec))
			entry = map[string]float64{}
		}
	}()
	entry = adapter.GetBalance(ctx, "")
	if entry == nil {
		entry = map[string]float64{}
	}
	return entry
}

// RegisteredPlatforms lists the platforms with a live adapter.
func (r *TradeRouter) RegisteredPlatforms() []models.Platform {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Platform, 0, len(r.adapters))
	for p := range r.adapters {
		out = append(out, p)
	}
	return out
}

// CloseAll closes every registered adapter; used at process shutdown.
func (r *TradeRouter) CloseAll() {
	r.mu.Lock()
	adapters := r.adapters
	r.adapters = make(map[models.Platform]platforms.Adapter)
	r.mu.Unlock()

	for platform, adapter := range adapters {
		if err := adapter.Close(); err != nil {
			r.logger.Warn("Failed to close adapter",
				zap.String("platform", string(platform)), zap.Error(err))
		}
	}
}
