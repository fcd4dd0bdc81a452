package llm

import (
	"context"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/huimingz/shipit-go/internal/config"
)

// AnthropicDefaultBaseURL is Anthropic's OpenAI SDK compatibility endpoint
const AnthropicDefaultBaseURL = "https://api.anthropic.com/v1/"

// AnthropicProvider implements Provider for Anthropic through its OpenAI-compatible API
type AnthropicProvider struct {
	cfg  config.ModelConfig
	opts Options
}

// NewAnthropicProvider creates a new Anthropic provider
func NewAnthropicProvider(cfg config.ModelConfig, opts Options) *AnthropicProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = AnthropicDefaultBaseURL
	}
	return &AnthropicProvider{cfg: cfg, opts: opts}
}

// Name returns the provider id
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// GetConfig returns the model configuration
func (p *AnthropicProvider) GetConfig() config.ModelConfig {
	return p.cfg
}

// CreateChatModel creates an Eino ChatModel for Anthropic
func (p *AnthropicProvider) CreateChatModel(ctx context.Context) (model.ChatModel, error) {
	return openai.NewChatModel(ctx, compatChatModelConfig(p.cfg, p.opts))
}
