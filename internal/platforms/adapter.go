package platforms

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/SyrupLabs-code/Syrup/internal/models"
)

// Adapter is the uniform contract every trading venue implements. Operations
// never propagate transport errors: trades report failure through the
// TradeResult status, balances degrade to an empty map, prices to zero.
type Adapter interface {
	// Platform returns the venue identity this adapter serves.
	Platform() models.Platform

	// ExecuteTrade validates, translates and submits a trade. It always
	// returns a usable TradeResult; a rejected or failed trade carries
	// status "failed" and a human-readable error.
	ExecuteTrade(ctx context.Context, trade *models.TradeRequest) *models.TradeResult

	// GetBalance returns asset symbol -> quantity in human-readable units.
	// An empty map is returned on any failure. token optionally narrows
	// the lookup to a single asset.
	GetBalance(ctx context.Context, token string) map[string]float64

	// GetPrice returns the current price for a symbol, or 0 on failure.
	GetPrice(ctx context.Context, symbol string) float64

	// GetOrderStatus reports a venue order or settlement reference as a
	// free-form map; failures appear under an "error" key.
	GetOrderStatus(ctx context.Context, orderID string) map[string]any

	// CancelOrder attempts a best-effort cancellation.
	CancelOrder(ctx context.Context, orderID string) bool

	// Close releases the owned connection. Idempotent and safe on a
	// never-opened connection.
	Close() error
}

// New constructs the adapter matching the credentials' platform.
func New(creds *models.PlatformCredentials, logger *zap.Logger) (Adapter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch creds.Platform {
	case models.PlatformSolana:
		return NewSolanaAdapter(creds, logger)
	case models.PlatformPolymarket:
		return NewPolymarketAdapter(creds, logger), nil
	case models.PlatformKalshi:
		return NewKalshiAdapter(creds, logger), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", creds.Platform)
	}
}

// validateTrade is the shared pre-trade check every adapter runs before
// touching its transport. Venue-specific feasibility checks happen in the
// adapters themselves.
func validateTrade(trade *models.TradeRequest) (bool, string) {
	if err := trade.Validate(); err != nil {
		return false, err.Error()
	}
	return true, ""
}
