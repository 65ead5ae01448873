package models

// AgentType selects the model provider backing an agent.
type AgentType string

const (
	AgentTypeOpenAI    AgentType = "openai"
	AgentTypeAnthropic AgentType = "anthropic"
)

// AgentConfig defines a trading agent's operating envelope. Immutable after
// creation; Name is the registry key.
type AgentConfig struct {
	Name            string         `json:"name"`
	AgentType       AgentType      `json:"agent_type"`
	APIKey          string         `json:"api_key,omitempty"`
	Model           string         `json:"model"`
	SystemPrompt    string         `json:"system_prompt"`
	MaxPositionSize float64        `json:"max_position_size"`
	RiskLimit       float64        `json:"risk_limit"`
	Platforms       []Platform     `json:"platforms"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// ApplyDefaults fills the same defaults the API documents for omitted fields.
func (c *AgentConfig) ApplyDefaults() {
	if c.Model == "" {
		c.Model = "gpt-4-turbo-preview"
	}
	if c.SystemPrompt == "" {
		c.SystemPrompt = "You are a trading agent."
	}
	if c.MaxPositionSize == 0 {
		c.MaxPositionSize = 1000.0
	}
	if c.RiskLimit == 0 {
		c.RiskLimit = 0.1
	}
}
