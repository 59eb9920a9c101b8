package llm

import (
	"fmt"
	"strings"

	"github.com/stellarlinkco/chestbench/internal/config"
)

// NewProviderFromConfig resolves a provider by name against the loaded
// configuration. An empty name selects the configured default provider.
func NewProviderFromConfig(cfg *config.Config, name string) (Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("llm: nil config")
	}

	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = strings.ToLower(strings.TrimSpace(cfg.LLM.DefaultProvider))
	}

	pcfg, err := cfg.Provider(key)
	if err != nil {
		return nil, err
	}

	switch key {
	case "openai":
		return NewOpenAIProvider(pcfg.APIKey, pcfg.BaseURL, pcfg.Model), nil
	case "claude", "anthropic":
		return NewClaudeProvider(pcfg.APIKey, pcfg.BaseURL, pcfg.Model), nil
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", name)
	}
}
