package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/SyrupLabs-code/Syrup/internal/models"
)

// newOpenAITestAgent builds an agent pointed at a fake completion endpoint.
func newOpenAITestAgent(t *testing.T, serverURL string) *OpenAIAgent {
	t.Helper()
	agent, err := NewOpenAIAgent(&models.AgentConfig{
		Name:      "tester",
		AgentType: models.AgentTypeOpenAI,
		APIKey:    "test-key",
		Model:     "gpt-4-turbo-preview",
		Platforms: []models.Platform{models.PlatformSolana, models.PlatformKalshi},
		Metadata:  map[string]any{"base_url": serverURL + "/v1"},
	}, zap.NewNop())
	require.NoError(t, err)
	return agent
}

func TestOpenAIAnalyzeMarket(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Contains(t, req.Messages[0].Content, "Trading Guidelines:")
		assert.Contains(t, req.Messages[1].Content, "Market Data:")

		fmt.Fprint(w, `{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Momentum looks strong."},"finish_reason":"stop"}],"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`)
	}))
	defer server.Close()

	agent := newOpenAITestAgent(t, server.URL)
	analysis := agent.AnalyzeMarket(context.Background(), map[string]any{"SOL/USDC": 150.5}, "daily check")

	assert.Equal(t, "Momentum looks strong.", analysis.Analysis)
	assert.Equal(t, "gpt-4-turbo-preview", analysis.Model)
	assert.Equal(t, 15, analysis.TokensUsed)
	assert.Empty(t, analysis.Error)
}

func TestOpenAIAnalyzeMarket_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":{"message":"overloaded","type":"server_error"}}`)
	}))
	defer server.Close()

	agent := newOpenAITestAgent(t, server.URL)
	analysis := agent.AnalyzeMarket(context.Background(), nil, "")

	assert.Empty(t, analysis.Analysis)
	assert.NotEmpty(t, analysis.Error)
}

func TestOpenAIGenerateTradeDecision(t *testing.T) {
	t.Run("ToolCall", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Tools []struct {
					Function struct {
						Name string `json:"name"`
					} `json:"function"`
				} `json:"tools"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Len(t, req.Tools, 1)
			assert.Equal(t, "execute_trade", req.Tools[0].Function.Name)

			args := `{\"platform\":\"solana\",\"trade_type\":\"swap\",\"symbol\":\"SOL/USDC\",\"amount\":0.5,\"reasoning\":\"breakout\"}`
			fmt.Fprintf(w, `{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","tool_calls":[{"id":"call_1","type":"function","function":{"name":"execute_trade","arguments":"%s"}}]},"finish_reason":"tool_calls"}]}`, args)
		}))
		defer server.Close()

		agent := newOpenAITestAgent(t, server.URL)
		trade := agent.GenerateTradeDecision(context.Background(), map[string]any{"trend": "up"}, nil, "")

		require.NotNil(t, trade)
		assert.Equal(t, models.PlatformSolana, trade.Platform)
		assert.Equal(t, models.TradeTypeSwap, trade.TradeType)
		assert.Equal(t, "SOL/USDC", trade.Symbol)
		assert.Equal(t, 0.5, trade.Amount)
		assert.Equal(t, models.DefaultSlippage, trade.Slippage)
		assert.Equal(t, "breakout", trade.Metadata["reasoning"])
	})

	t.Run("NoToolCallMeansHold", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Holding for now."},"finish_reason":"stop"}]}`)
		}))
		defer server.Close()

		agent := newOpenAITestAgent(t, server.URL)
		assert.Nil(t, agent.GenerateTradeDecision(context.Background(), nil, nil, ""))
	})

	t.Run("APIErrorMeansHold", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		agent := newOpenAITestAgent(t, server.URL)
		assert.Nil(t, agent.GenerateTradeDecision(context.Background(), nil, nil, ""))
	})
}

func TestOpenAIStreamAnalysis(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"id\":\"1\",\"object\":\"chat.completion.chunk\",\"choices\":[{\"index\":0,\"delta\":{\"content\":\"Hello\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"id\":\"1\",\"object\":\"chat.completion.chunk\",\"choices\":[{\"index\":0,\"delta\":{\"content\":\" world\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	agent := newOpenAITestAgent(t, server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var fragments []string
	for fragment := range agent.StreamAnalysis(ctx, map[string]any{"trend": "up"}, "") {
		fragments = append(fragments, fragment)
	}

	assert.Equal(t, []string{"Hello", " world"}, fragments)
}

func TestOpenAIStreamAnalysis_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	agent := newOpenAITestAgent(t, server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var fragments []string
	for fragment := range agent.StreamAnalysis(ctx, nil, "") {
		fragments = append(fragments, fragment)
	}

	require.Len(t, fragments, 1)
	assert.Contains(t, fragments[0], "Error:")
}

func TestNewOpenAIAgent_RequiresKey(t *testing.T) {
	_, err := NewOpenAIAgent(&models.AgentConfig{}, zap.NewNop())
	assert.Error(t, err)
}

func TestNewAgent_Factory(t *testing.T) {
	t.Run("Unsupported", func(t *testing.T) {
		_, err := New(&models.AgentConfig{Name: "x", AgentType: "bard", APIKey: "k"}, zap.NewNop())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported agent type")
	})

	t.Run("DefaultsApplied", func(t *testing.T) {
		cfg := &models.AgentConfig{Name: "x", AgentType: models.AgentTypeOpenAI, APIKey: "k"}
		agent, err := New(cfg, zap.NewNop())
		require.NoError(t, err)
		assert.Equal(t, "gpt-4-turbo-preview", agent.Config().Model)
		assert.Equal(t, 1000.0, agent.Config().MaxPositionSize)
		assert.Equal(t, 0.1, agent.Config().RiskLimit)
		assert.NotEmpty(t, agent.Config().SystemPrompt)
	})
}
