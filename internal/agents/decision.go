package agents

import (
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/SyrupLabs-code/Syrup/internal/models"
)

// rawDecision is the decision object the model is asked to emit, either as
// embedded JSON or as structured tool-call arguments.
type rawDecision struct {
	Action    string   `json:"action"`
	Platform  string   `json:"platform"`
	TradeType string   `json:"trade_type"`
	Symbol    string   `json:"symbol"`
	Amount    float64  `json:"amount"`
	Price     *float64 `json:"price,omitempty"`
	Slippage  *float64 `json:"slippage,omitempty"`
	Reasoning string   `json:"reasoning,omitempty"`
}

// extractJSONObject locates the first '{' through the last '}' in the raw
// model text.
func extractJSONObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// decodeDecision interprets free model text as a trade decision. Anything
// other than a well-formed trade collapses to nil; to the caller that is
// indistinguishable from an explicit hold. The log line is the only place
// the two cases diverge.
func decodeDecision(text string, logger *zap.Logger) *models.TradeRequest {
	fragment, ok := extractJSONObject(text)
	if !ok {
		logger.Debug("No JSON fragment in model output")
		return nil
	}

	var decision rawDecision
	if err := json.Unmarshal([]byte(fragment), &decision); err != nil {
		logger.Debug("Undecodable decision payload", zap.Error(err))
		return nil
	}
	if decision.Action != "trade" {
		logger.Debug("Agent holding", zap.String("action", decision.Action))
		return nil
	}
	return requestFromDecision(decision, logger)
}

// requestFromDecision validates a decoded decision and builds the trade
// request. Missing required fields or values outside the enumerations
// discard the whole decision.
func requestFromDecision(decision rawDecision, logger *zap.Logger) *models.TradeRequest {
	platform := models.Platform(decision.Platform)
	tradeType := models.TradeType(decision.TradeType)
	if !platform.Valid() || !tradeType.Valid() {
		logger.Debug("Decision outside platform/trade type enums",
			zap.String("platform", decision.Platform),
			zap.String("trade_type", decision.TradeType))
		return nil
	}
	if decision.Symbol == "" || decision.Amount == 0 {
		logger.Debug("Decision missing required fields")
		return nil
	}

	slippage := models.DefaultSlippage
	if decision.Slippage != nil {
		slippage = *decision.Slippage
	}
	if slippage < 0 || slippage > 1 {
		logger.Debug("Decision slippage out of range", zap.Float64("slippage", slippage))
		return nil
	}

	return &models.TradeRequest{
		Platform:  platform,
		TradeType: tradeType,
		Symbol:    decision.Symbol,
		Amount:    decision.Amount,
		Price:     decision.Price,
		Slippage:  slippage,
		Metadata:  map[string]any{"reasoning": decision.Reasoning},
	}
}
