package agents

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/SyrupLabs-code/Syrup/internal/models"
)

func TestBuildSystemPrompt(t *testing.T) {
	cfg := &models.AgentConfig{
		SystemPrompt: "You are a cautious trading agent.",
		Platforms:    []models.Platform{models.PlatformSolana, models.PlatformKalshi},
	}

	prompt := buildSystemPrompt(cfg)

	assert.True(t, strings.HasPrefix(prompt, "You are a cautious trading agent."))
	assert.Contains(t, prompt, "Trading Guidelines:")
	assert.Contains(t, prompt, "Never exceed maximum position size")
	assert.True(t, strings.HasSuffix(prompt, "Available Platforms: solana, kalshi"))
}

func TestBuildTradeContext(t *testing.T) {
	cfg := &models.AgentConfig{MaxPositionSize: 500, RiskLimit: 0.1}
	market := map[string]any{
		"volume":    "1.2M",
		"SOL/USDC":  150.5,
		"sentiment": "bullish",
	}
	portfolio := map[string]any{"SOL": 2.5}

	got := buildTradeContext(cfg, market, portfolio)

	assert.Contains(t, got, "Market Data:")
	assert.Contains(t, got, "- SOL/USDC: 150.5")
	assert.Contains(t, got, "Portfolio:")
	assert.Contains(t, got, "- SOL: 2.5")
	assert.Contains(t, got, "Max Position Size: 500")
	assert.Contains(t, got, "Risk Limit: 10%")

	// Sorted keys make the prompt stable across runs.
	assert.Equal(t, got, buildTradeContext(cfg, market, portfolio))
	assert.Less(t, strings.Index(got, "SOL/USDC"), strings.Index(got, "sentiment"))
	assert.Less(t, strings.Index(got, "sentiment"), strings.Index(got, "volume"))
}

func TestBuildTradeContext_NoPortfolio(t *testing.T) {
	cfg := &models.AgentConfig{MaxPositionSize: 1000, RiskLimit: 0.05}

	got := buildTradeContext(cfg, map[string]any{"trend": "flat"}, nil)

	assert.NotContains(t, got, "Portfolio:")
	assert.Contains(t, got, "Risk Limit: 5%")
}
