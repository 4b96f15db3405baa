package providers

import (
	"context"
	"fmt"

	"github.com/conductor-ai/conductor/internal/agent"
	"github.com/conductor-ai/conductor/internal/config"
)

// Build constructs the configured agent.Provider from a loaded Config.
func Build(ctx context.Context, cfg config.Config) (agent.Provider, error) {
	switch cfg.Provider {
	case config.ProviderAnthropic:
		return NewAnthropicProvider(AnthropicConfig{
			APIKey:       cfg.Anthropic.APIKey,
			BaseURL:      cfg.Anthropic.BaseURL,
			DefaultModel: cfg.Anthropic.Model,
		})
	case config.ProviderOpenAI:
		return NewOpenAIProvider(OpenAIConfig{
			APIKey:       cfg.OpenAI.APIKey,
			BaseURL:      cfg.OpenAI.BaseURL,
			DefaultModel: cfg.OpenAI.Model,
		})
	case config.ProviderBedrock:
		return NewBedrockProvider(ctx, BedrockConfig{
			Region:       cfg.Bedrock.Region,
			DefaultModel: cfg.Bedrock.Model,
		})
	default:
		return nil, fmt.Errorf("providers: unknown provider %q", cfg.Provider)
	}
}
