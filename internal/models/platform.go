package models

// Platform identifies a supported trading venue.
type Platform string

const (
	PlatformSolana     Platform = "solana"
	PlatformPolymarket Platform = "polymarket"
	PlatformKalshi     Platform = "kalshi"
)

// Valid reports whether p is a known platform.
func (p Platform) Valid() bool {
	switch p {
	case PlatformSolana, PlatformPolymarket, PlatformKalshi:
		return true
	}
	return false
}

// TradeType is the kind of operation requested.
// Venue support is partial: Solana only honors swaps, the order-driven
// venues only honor buy/sell.
type TradeType string

const (
	TradeTypeBuy  TradeType = "buy"
	TradeTypeSell TradeType = "sell"
	TradeTypeSwap TradeType = "swap"
)

// Valid reports whether t is a known trade type.
func (t TradeType) Valid() bool {
	switch t {
	case TradeTypeBuy, TradeTypeSell, TradeTypeSwap:
		return true
	}
	return false
}

// TradeStatus is the execution state of a trade.
type TradeStatus string

const (
	StatusPending   TradeStatus = "pending"
	StatusExecuting TradeStatus = "executing"
	StatusCompleted TradeStatus = "completed"
	StatusFailed    TradeStatus = "failed"
	StatusCancelled TradeStatus = "cancelled"
)
