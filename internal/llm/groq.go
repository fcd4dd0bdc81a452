package llm

import (
	"context"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/huimingz/shipit-go/internal/config"
)

// GroqDefaultBaseURL is the default API base URL for Groq
const GroqDefaultBaseURL = "https://api.groq.com/openai/v1"

// GroqProvider implements Provider for Groq, which serves an OpenAI-compatible API
type GroqProvider struct {
	cfg  config.ModelConfig
	opts Options
}

// NewGroqProvider creates a new Groq provider
func NewGroqProvider(cfg config.ModelConfig, opts Options) *GroqProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = GroqDefaultBaseURL
	}
	return &GroqProvider{cfg: cfg, opts: opts}
}

// Name returns the provider id
func (p *GroqProvider) Name() string {
	return "groq"
}

// GetConfig returns the model configuration
func (p *GroqProvider) GetConfig() config.ModelConfig {
	return p.cfg
}

// CreateChatModel creates an Eino ChatModel for Groq
func (p *GroqProvider) CreateChatModel(ctx context.Context) (model.ChatModel, error) {
	return openai.NewChatModel(ctx, compatChatModelConfig(p.cfg, p.opts))
}
