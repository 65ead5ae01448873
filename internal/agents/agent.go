// Package agents turns generative-model output into typed trade decisions.
package agents

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/SyrupLabs-code/Syrup/internal/models"
)

// Analysis is the uniform outcome of a market analysis call. A failed call
// fills Error and leaves the rest zero; the call itself never returns a Go
// error.
type Analysis struct {
	Analysis   string `json:"analysis,omitempty"`
	Model      string `json:"model,omitempty"`
	TokensUsed int    `json:"tokens_used,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Agent is the contract every model provider implements.
type Agent interface {
	// Config returns the immutable configuration the agent was built from.
	Config() *models.AgentConfig

	// AnalyzeMarket produces free-text analysis of the market data.
	AnalyzeMarket(ctx context.Context, marketData map[string]any, context string) *Analysis

	// GenerateTradeDecision returns a validated trade intent, or nil for a
	// hold. Malformed or out-of-envelope model output also collapses to
	// nil; callers cannot tell decode failure from a deliberate hold.
	GenerateTradeDecision(ctx context.Context, marketData, portfolio map[string]any, context string) *models.TradeRequest

	// StreamAnalysis emits analysis fragments as the model produces them.
	// The channel is single-consumer and closes when the model finishes; a
	// mid-stream failure is delivered as one final "Error: ..." fragment.
	StreamAnalysis(ctx context.Context, marketData map[string]any, context string) <-chan string
}

// New constructs the agent matching the config's provider type.
func New(cfg *models.AgentConfig, logger *zap.Logger) (Agent, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.ApplyDefaults()
	switch cfg.AgentType {
	case models.AgentTypeOpenAI:
		return NewOpenAIAgent(cfg, logger)
	case models.AgentTypeAnthropic:
		return NewAnthropicAgent(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported agent type: %s", cfg.AgentType)
	}
}
