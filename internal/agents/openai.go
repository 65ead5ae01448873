package agents

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"go.uber.org/zap"

	"github.com/SyrupLabs-code/Syrup/internal/models"
)

// OpenAIAgent delegates to the OpenAI chat completion API. Trade decisions
// use function calling so the decision arrives as structured arguments
// rather than embedded JSON.
type OpenAIAgent struct {
	cfg    *models.AgentConfig
	logger *zap.Logger
	client *openai.Client
}

var _ Agent = (*OpenAIAgent)(nil)

// NewOpenAIAgent builds the agent. The API key is required; a base_url
// metadata entry redirects the client (proxies, tests).
func NewOpenAIAgent(cfg *models.AgentConfig, logger *zap.Logger) (*OpenAIAgent, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if baseURL, ok := cfg.Metadata["base_url"].(string); ok && baseURL != "" {
		clientCfg.BaseURL = baseURL
	}

	return &OpenAIAgent{
		cfg:    cfg,
		logger: logger,
		client: openai.NewClientWithConfig(clientCfg),
	}, nil
}

// Config implements Agent.
func (a *OpenAIAgent) Config() *models.AgentConfig { return a.cfg }

// AnalyzeMarket implements Agent.
func (a *OpenAIAgent) AnalyzeMarket(ctx context.Context, marketData map[string]any, extra string) *Analysis {
	userMessage := buildTradeContext(a.cfg, marketData, nil) + "\n\n" + extra +
		"\n\nProvide market analysis and insights."

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: buildSystemPrompt(a.cfg)},
			{Role: openai.ChatMessageRoleUser, Content: userMessage},
		},
		Temperature: 0.7,
	})
	if err != nil {
		a.logger.Warn("OpenAI analysis failed", zap.Error(err))
		return &Analysis{Error: err.Error()}
	}
	if len(resp.Choices) == 0 {
		return &Analysis{Error: "empty completion"}
	}

	return &Analysis{
		Analysis:   resp.Choices[0].Message.Content,
		Model:      a.cfg.Model,
		TokensUsed: resp.Usage.TotalTokens,
	}
}

// tradeFunction is the schema the model must satisfy to request a trade.
// The platform enum narrows choices to the agent's permitted venues.
func (a *OpenAIAgent) tradeFunction() openai.Tool {
	platformEnum := make([]string, 0, len(a.cfg.Platforms))
	for _, p := range a.cfg.Platforms {
		platformEnum = append(platformEnum, string(p))
	}

	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        "execute_trade",
			Description: "Execute a trade on a supported platform",
			Parameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"platform": {
						Type:        jsonschema.String,
						Enum:        platformEnum,
						Description: "Trading platform",
					},
					"trade_type": {
						Type:        jsonschema.String,
						Enum:        []string{"buy", "sell", "swap"},
						Description: "Type of trade",
					},
					"symbol": {
						Type:        jsonschema.String,
						Description: "Trading symbol or market identifier",
					},
					"amount": {
						Type:        jsonschema.Number,
						Description: "Amount to trade",
					},
					"price": {
						Type:        jsonschema.Number,
						Description: "Limit price (optional for market orders)",
					},
					"slippage": {
						Type:        jsonschema.Number,
						Description: "Acceptable slippage (0-1)",
					},
					"reasoning": {
						Type:        jsonschema.String,
						Description: "Reasoning for this trade",
					},
				},
				Required: []string{"platform", "trade_type", "symbol", "amount"},
			},
		},
	}
}

// GenerateTradeDecision implements Agent. No tool call means hold.
func (a *OpenAIAgent) GenerateTradeDecision(ctx context.Context, marketData, portfolio map[string]any, extra string) *models.TradeRequest {
	userMessage := buildTradeContext(a.cfg, marketData, portfolio) + "\n\n" + extra +
		"\n\nShould we execute a trade? If yes, provide trade details."

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: buildSystemPrompt(a.cfg)},
			{Role: openai.ChatMessageRoleUser, Content: userMessage},
		},
		Tools:       []openai.Tool{a.tradeFunction()},
		Temperature: 0.3,
	})
	if err != nil {
		a.logger.Warn("OpenAI decision failed", zap.Error(err))
		return nil
	}
	if len(resp.Choices) == 0 || len(resp.Choices[0].Message.ToolCalls) == 0 {
		return nil
	}

	var decision rawDecision
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.ToolCalls[0].Function.Arguments), &decision); err != nil {
		a.logger.Debug("Undecodable tool call arguments", zap.Error(err))
		return nil
	}
	decision.Action = "trade"
	return requestFromDecision(decision, a.logger)
}

// StreamAnalysis implements Agent.
func (a *OpenAIAgent) StreamAnalysis(ctx context.Context, marketData map[string]any, extra string) <-chan string {
	out := make(chan string)
	userMessage := buildTradeContext(a.cfg, marketData, nil) + "\n\n" + extra +
		"\n\nProvide detailed market analysis."

	go func() {
		defer close(out)

		stream, err := a.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
			Model: a.cfg.Model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: buildSystemPrompt(a.cfg)},
				{Role: openai.ChatMessageRoleUser, Content: userMessage},
			},
			Stream:      true,
			Temperature: 0.7,
		})
		if err != nil {
			emit(ctx, out, "Error: "+err.Error())
			return
		}
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				emit(ctx, out, "Error: "+err.Error())
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			if content := resp.Choices[0].Delta.Content; content != "" {
				if !emit(ctx, out, content) {
					return
				}
			}
		}
	}()
	return out
}

// emit sends one fragment unless the consumer has gone away.
func emit(ctx context.Context, out chan<- string, fragment string) bool {
	select {
	case out <- fragment:
		return true
	case <-ctx.Done():
		return false
	}
}
