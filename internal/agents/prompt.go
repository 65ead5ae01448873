package agents

import (
	"fmt"
	"sort"
	"strings"

	"github.com/SyrupLabs-code/Syrup/internal/models"
)

// tradingGuidelines constrains model behavior identically across providers.
const tradingGuidelines = `

Trading Guidelines:
- Always consider risk management and position sizing
- Analyze market conditions before making decisions
- Consider slippage and fees in trade calculations
- Never exceed maximum position size or risk limits
- Provide clear reasoning for each trade decision

Available Platforms: `

// buildSystemPrompt concatenates the configured base prompt with the fixed
// guidelines and the agent's permitted platforms.
func buildSystemPrompt(cfg *models.AgentConfig) string {
	names := make([]string, 0, len(cfg.Platforms))
	for _, p := range cfg.Platforms {
		names = append(names, string(p))
	}
	return cfg.SystemPrompt + tradingGuidelines + strings.Join(names, ", ")
}

// buildTradeContext renders market data, the optional portfolio and the
// agent's risk envelope as the user-message preamble. Keys are sorted so the
// prompt is deterministic.
func buildTradeContext(cfg *models.AgentConfig, marketData, portfolio map[string]any) string {
	var b strings.Builder
	b.WriteString("Market Data:")
	for _, key := range sortedKeys(marketData) {
		fmt.Fprintf(&b, "\n- %s: %v", key, marketData[key])
	}

	if len(portfolio) > 0 {
		b.WriteString("\n\nPortfolio:")
		for _, key := range sortedKeys(portfolio) {
			fmt.Fprintf(&b, "\n- %s: %v", key, portfolio[key])
		}
	}

	fmt.Fprintf(&b, "\n\nMax Position Size: %v", cfg.MaxPositionSize)
	fmt.Fprintf(&b, "\nRisk Limit: %v%%", cfg.RiskLimit*100)
	return b.String()
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
