// Package server is the thin HTTP boundary over the trade router and the
// agent registry.
package server

import (
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/SyrupLabs-code/Syrup/internal/agents"
	"github.com/SyrupLabs-code/Syrup/internal/router"
)

// Handler holds the process-scoped state behind the HTTP API: the trade
// router and the named-agent registry. Both live for the process lifetime
// and are lost on restart.
type Handler struct {
	logger *zap.Logger
	trades *router.TradeRouter

	mu     sync.RWMutex
	agents map[string]agents.Agent
}

// NewHandler creates a Handler around an existing router.
func NewHandler(trades *router.TradeRouter, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		logger: logger,
		trades: trades,
		agents: make(map[string]agents.Agent),
	}
}

// Routes mounts the API onto a gin engine.
func (h *Handler) Routes(engine *gin.Engine) {
	engine.GET("/", h.Health)

	api := engine.Group("/api")
	{
		api.POST("/platforms/register", h.RegisterPlatform)
		api.POST("/platforms/unregister", h.UnregisterPlatform)
		api.GET("/balances", h.AllBalances)
		api.GET("/balances/:platform", h.PlatformBalance)
		api.GET("/price/:platform/:symbol", h.Price)
		api.POST("/trade/execute", h.ExecuteTrade)

		api.POST("/agents", h.CreateAgent)
		api.GET("/agents", h.ListAgents)
		api.DELETE("/agents/:name", h.DeleteAgent)
		api.POST("/agents/:name/analyze", h.AnalyzeMarket)
		api.POST("/agents/:name/trade", h.AgentTrade)
		api.POST("/agents/:name/stream", h.StreamAnalysis)
	}
}

// agent looks up a registered agent by name.
func (h *Handler) agent(name string) (agents.Agent, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	a, ok := h.agents[name]
	return a, ok
}
