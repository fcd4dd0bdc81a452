package llm

import (
	"context"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/huimingz/shipit-go/internal/config"
)

// OpenAIProvider implements Provider for the OpenAI API
type OpenAIProvider struct {
	cfg  config.ModelConfig
	opts Options
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(cfg config.ModelConfig, opts Options) *OpenAIProvider {
	return &OpenAIProvider{cfg: cfg, opts: opts}
}

// Name returns the provider id
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// GetConfig returns the model configuration
func (p *OpenAIProvider) GetConfig() config.ModelConfig {
	return p.cfg
}

// CreateChatModel creates an Eino ChatModel for OpenAI
func (p *OpenAIProvider) CreateChatModel(ctx context.Context) (model.ChatModel, error) {
	return openai.NewChatModel(ctx, compatChatModelConfig(p.cfg, p.opts))
}

// compatChatModelConfig builds the eino OpenAI config shared by every OpenAI-compatible vendor
func compatChatModelConfig(cfg config.ModelConfig, opts Options) *openai.ChatModelConfig {
	mc := &openai.ChatModelConfig{
		APIKey:     cfg.APIKey,
		Model:      cfg.Model,
		BaseURL:    cfg.BaseURL,
		HTTPClient: newCompatHTTPClient(opts.StrictSchema),
	}
	if opts.ReasoningEffort != "" {
		mc.ReasoningEffort = openai.ReasoningEffortLevel(opts.ReasoningEffort)
	}
	if opts.DisableThinking {
		mc.ExtraFields = map[string]any{"thinking": map[string]any{"type": "disabled"}}
	}
	return mc
}
