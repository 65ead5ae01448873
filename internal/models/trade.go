package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// DefaultSlippage is applied when a request does not specify a tolerance.
const DefaultSlippage = 0.01

// TradeRequest is a venue-agnostic trade intent. It is immutable once
// constructed and never mutated after dispatch.
type TradeRequest struct {
	Platform  Platform       `json:"platform"`
	TradeType TradeType      `json:"trade_type"`
	Symbol    string         `json:"symbol"`
	Amount    float64        `json:"amount"`
	Price     *float64       `json:"price,omitempty"` // nil means market order
	Slippage  float64        `json:"slippage"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Validate checks the venue-independent trade parameters.
func (t *TradeRequest) Validate() error {
	if t.Amount <= 0 {
		return errors.New("amount must be positive")
	}
	if t.Slippage < 0 || t.Slippage > 1 {
		return errors.New("slippage must be between 0 and 1")
	}
	return nil
}

// TradeResult is one observation of a trade execution. Amounts and prices
// are always in the venue's human-readable unit (dollars, whole tokens);
// adapters convert at the boundary.
type TradeResult struct {
	TradeID         string         `json:"trade_id"`
	Platform        Platform       `json:"platform"`
	Status          TradeStatus    `json:"status"`
	TransactionHash string         `json:"transaction_hash,omitempty"`
	ExecutedAmount  float64        `json:"executed_amount,omitempty"`
	ExecutedPrice   float64        `json:"executed_price,omitempty"`
	Fee             float64        `json:"fee,omitempty"`
	Timestamp       time.Time      `json:"timestamp"`
	Error           string         `json:"error,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// FailedResult builds the uniform failure observation every adapter and the
// router return instead of propagating an error. The venue never issued an
// identifier for a rejected trade, so one is synthesized to keep results
// addressable.
func FailedResult(platform Platform, reason string) *TradeResult {
	return &TradeResult{
		TradeID:   uuid.NewString(),
		Platform:  platform,
		Status:    StatusFailed,
		Timestamp: time.Now().UTC(),
		Error:     reason,
	}
}
