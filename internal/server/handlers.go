package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/SyrupLabs-code/Syrup/internal/agents"
	"github.com/SyrupLabs-code/Syrup/internal/models"
)

// Health is the root liveness endpoint.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    "Syrup Trading API",
		"version": "0.1.0",
		"status":  "running",
	})
}

// RegisterPlatform installs a venue adapter from a credentials payload.
func (h *Handler) RegisterPlatform(c *gin.Context) {
	var creds models.PlatformCredentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.trades.RegisterPlatform(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"platform": creds.Platform,
		"message":  "Platform registered successfully",
	})
}

// UnregisterPlatform removes a venue adapter. Unknown platforms are
// accepted; unregistration is idempotent.
func (h *Handler) UnregisterPlatform(c *gin.Context) {
	var body struct {
		Platform models.Platform `json:"platform"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.trades.UnregisterPlatform(body.Platform)
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"platform": body.Platform,
		"message":  "Platform unregistered successfully",
	})
}

// AllBalances aggregates balances across every registered platform.
func (h *Handler) AllBalances(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"balances": h.trades.GetAllBalances(c.Request.Context()),
	})
}

// PlatformBalance fetches the balance of one platform, optionally narrowed
// to a single token via ?token=.
func (h *Handler) PlatformBalance(c *gin.Context) {
	platform := models.Platform(c.Param("platform"))
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"platform": platform,
		"balance":  h.trades.GetBalance(c.Request.Context(), platform, c.Query("token")),
	})
}

// Price fetches the current price of a symbol on one platform.
func (h *Handler) Price(c *gin.Context) {
	platform := models.Platform(c.Param("platform"))
	symbol := c.Param("symbol")
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"platform": platform,
		"symbol":   symbol,
		"price":    h.trades.GetPrice(c.Request.Context(), platform, symbol),
	})
}

// tradePayload mirrors TradeRequest but keeps slippage optional so the
// default applies only when the field is absent.
type tradePayload struct {
	Platform  models.Platform  `json:"platform"`
	TradeType models.TradeType `json:"trade_type"`
	Symbol    string           `json:"symbol"`
	Amount    float64          `json:"amount"`
	Price     *float64         `json:"price"`
	Slippage  *float64         `json:"slippage"`
	Metadata  map[string]any   `json:"metadata"`
}

func (p *tradePayload) toRequest() *models.TradeRequest {
	slippage := models.DefaultSlippage
	if p.Slippage != nil {
		slippage = *p.Slippage
	}
	return &models.TradeRequest{
		Platform:  p.Platform,
		TradeType: p.TradeType,
		Symbol:    p.Symbol,
		Amount:    p.Amount,
		Price:     p.Price,
		Slippage:  slippage,
		Metadata:  p.Metadata,
	}
}

// ExecuteTrade dispatches a trade synchronously and returns its result. A
// denied or failed trade is still a 200 with an inspectable failed result.
func (h *Handler) ExecuteTrade(c *gin.Context) {
	var payload tradePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result := h.trades.ExecuteTrade(c.Request.Context(), payload.toRequest())
	c.JSON(http.StatusOK, result)
}

// CreateAgent builds and registers a named agent instance.
func (h *Handler) CreateAgent(c *gin.Context) {
	var cfg models.AgentConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if cfg.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "agent name is required"})
		return
	}

	agent, err := agents.New(&cfg, h.logger)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.mu.Lock()
	h.agents[cfg.Name] = agent
	h.mu.Unlock()

	h.logger.Info("Agent created",
		zap.String("name", cfg.Name), zap.String("type", string(cfg.AgentType)))
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"agent_name": cfg.Name,
		"agent_type": cfg.AgentType,
		"message":    "Agent created successfully",
	})
}

// ListAgents reports the registered agents and their envelopes.
func (h *Handler) ListAgents(c *gin.Context) {
	h.mu.RLock()
	list := make([]gin.H, 0, len(h.agents))
	for name, agent := range h.agents {
		cfg := agent.Config()
		list = append(list, gin.H{
			"name":      name,
			"type":      cfg.AgentType,
			"platforms": cfg.Platforms,
		})
	}
	h.mu.RUnlock()

	c.JSON(http.StatusOK, gin.H{"success": true, "agents": list})
}

// DeleteAgent removes an agent from the registry.
func (h *Handler) DeleteAgent(c *gin.Context) {
	name := c.Param("name")

	h.mu.Lock()
	_, ok := h.agents[name]
	delete(h.agents, name)
	h.mu.Unlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "agent " + name + " not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Agent " + name + " deleted"})
}

// agentCallPayload is the shared body of the agent invocation endpoints.
type agentCallPayload struct {
	MarketData map[string]any `json:"market_data"`
	Portfolio  map[string]any `json:"portfolio"`
	Context    string         `json:"context"`
	Execute    bool           `json:"execute"`
}

// AnalyzeMarket runs one-shot market analysis through a named agent.
func (h *Handler) AnalyzeMarket(c *gin.Context) {
	agent, ok := h.agent(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "agent " + c.Param("name") + " not found"})
		return
	}
	var payload agentCallPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"agent":    c.Param("name"),
		"analysis": agent.AnalyzeMarket(c.Request.Context(), payload.MarketData, payload.Context),
	})
}

// AgentTrade asks a named agent for a trade decision, optionally executing
// it through the router when execute is set.
func (h *Handler) AgentTrade(c *gin.Context) {
	agent, ok := h.agent(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "agent " + c.Param("name") + " not found"})
		return
	}
	var payload agentCallPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	trade := agent.GenerateTradeDecision(c.Request.Context(), payload.MarketData, payload.Portfolio, payload.Context)
	if trade == nil {
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"agent":    c.Param("name"),
			"decision": "hold",
			"message":  "Agent decided not to trade",
		})
		return
	}

	response := gin.H{
		"success":       true,
		"agent":         c.Param("name"),
		"decision":      "trade",
		"trade_request": trade,
	}
	if payload.Execute {
		response["execution_result"] = h.trades.ExecuteTrade(c.Request.Context(), trade)
	}
	c.JSON(http.StatusOK, response)
}

// StreamAnalysis forwards agent analysis fragments as server-sent events.
// Stream failures arrive as an "Error: ..." fragment, never a broken
// response.
func (h *Handler) StreamAnalysis(c *gin.Context) {
	agent, ok := h.agent(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "agent " + c.Param("name") + " not found"})
		return
	}
	var payload agentCallPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fragments := agent.StreamAnalysis(c.Request.Context(), payload.MarketData, payload.Context)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		fragment, open := <-fragments
		if !open {
			return false
		}
		c.SSEvent("data", fragment)
		return true
	})
}
