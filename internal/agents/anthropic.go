package agents

import (
	"context"
	"errors"

	anthropic "github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"

	"github.com/SyrupLabs-code/Syrup/internal/models"
)

// decisionFormat teaches the model the decision object decodeDecision
// expects, since the messages API has no function-calling equivalent here.
const decisionFormat = `

If you decide to execute a trade, respond with a JSON object in this format:
{
  "action": "trade",
  "platform": "solana|polymarket|kalshi",
  "trade_type": "buy|sell|swap",
  "symbol": "symbol/market identifier",
  "amount": 0.0,
  "price": 0.0 (optional),
  "slippage": 0.01,
  "reasoning": "your reasoning"
}

If you decide not to trade, respond with:
{
  "action": "hold",
  "reasoning": "your reasoning"
}
`

// AnthropicAgent delegates to the Anthropic messages API. Trade decisions
// are parsed out of the response text as embedded JSON.
type AnthropicAgent struct {
	cfg    *models.AgentConfig
	logger *zap.Logger
	client *anthropic.Client
}

var _ Agent = (*AnthropicAgent)(nil)

// NewAnthropicAgent builds the agent. The API key is required; a base_url
// metadata entry redirects the client.
func NewAnthropicAgent(cfg *models.AgentConfig, logger *zap.Logger) (*AnthropicAgent, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic api key is required")
	}

	opts := []anthropic.ClientOption{}
	if baseURL, ok := cfg.Metadata["base_url"].(string); ok && baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}

	return &AnthropicAgent{
		cfg:    cfg,
		logger: logger,
		client: anthropic.NewClient(cfg.APIKey, opts...),
	}, nil
}

// Config implements Agent.
func (a *AnthropicAgent) Config() *models.AgentConfig { return a.cfg }

// AnalyzeMarket implements Agent.
func (a *AnthropicAgent) AnalyzeMarket(ctx context.Context, marketData map[string]any, extra string) *Analysis {
	userMessage := buildTradeContext(a.cfg, marketData, nil) + "\n\n" + extra +
		"\n\nProvide market analysis and insights."
	temperature := float32(0.7)

	resp, err := a.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:       anthropic.Model(a.cfg.Model),
		System:      buildSystemPrompt(a.cfg),
		Messages:    []anthropic.Message{anthropic.NewUserTextMessage(userMessage)},
		MaxTokens:   2048,
		Temperature: &temperature,
	})
	if err != nil {
		a.logger.Warn("Anthropic analysis failed", zap.Error(err))
		return &Analysis{Error: err.Error()}
	}

	return &Analysis{
		Analysis:   resp.GetFirstContentText(),
		Model:      a.cfg.Model,
		TokensUsed: resp.Usage.InputTokens + resp.Usage.OutputTokens,
	}
}

// GenerateTradeDecision implements Agent.
func (a *AnthropicAgent) GenerateTradeDecision(ctx context.Context, marketData, portfolio map[string]any, extra string) *models.TradeRequest {
	userMessage := buildTradeContext(a.cfg, marketData, portfolio) + "\n\n" + extra +
		"\n\nShould we execute a trade?"
	temperature := float32(0.3)

	resp, err := a.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:       anthropic.Model(a.cfg.Model),
		System:      buildSystemPrompt(a.cfg) + decisionFormat,
		Messages:    []anthropic.Message{anthropic.NewUserTextMessage(userMessage)},
		MaxTokens:   1024,
		Temperature: &temperature,
	})
	if err != nil {
		a.logger.Warn("Anthropic decision failed", zap.Error(err))
		return nil
	}

	return decodeDecision(resp.GetFirstContentText(), a.logger)
}

// StreamAnalysis implements Agent.
func (a *AnthropicAgent) StreamAnalysis(ctx context.Context, marketData map[string]any, extra string) <-chan string {
	out := make(chan string)
	userMessage := buildTradeContext(a.cfg, marketData, nil) + "\n\n" + extra +
		"\n\nProvide detailed market analysis."
	temperature := float32(0.7)

	go func() {
		defer close(out)

		_, err := a.client.CreateMessagesStream(ctx, anthropic.MessagesStreamRequest{
			MessagesRequest: anthropic.MessagesRequest{
				Model:       anthropic.Model(a.cfg.Model),
				System:      buildSystemPrompt(a.cfg),
				Messages:    []anthropic.Message{anthropic.NewUserTextMessage(userMessage)},
				MaxTokens:   2048,
				Temperature: &temperature,
			},
			OnContentBlockDelta: func(data anthropic.MessagesEventContentBlockDeltaData) {
				if data.Delta.Text != nil {
					emit(ctx, out, *data.Delta.Text)
				}
			},
		})
		if err != nil && ctx.Err() == nil {
			emit(ctx, out, "Error: "+err.Error())
		}
	}()
	return out
}
