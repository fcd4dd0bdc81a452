package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/components/model"
	"github.com/huimingz/shipit-go/internal/config"
	"google.golang.org/genai"
)

// GeminiProvider implements Provider for Google Gemini
type GeminiProvider struct {
	cfg  config.ModelConfig
	opts Options
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(cfg config.ModelConfig, opts Options) *GeminiProvider {
	return &GeminiProvider{cfg: cfg, opts: opts}
}

// Name returns the provider id
func (p *GeminiProvider) Name() string {
	return "google"
}

// GetConfig returns the model configuration
func (p *GeminiProvider) GetConfig() config.ModelConfig {
	return p.cfg
}

// CreateChatModel creates an Eino ChatModel for Gemini
func (p *GeminiProvider) CreateChatModel(ctx context.Context) (model.ChatModel, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  p.cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if p.cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: p.cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return gemini.NewChatModel(ctx, geminiConfig(client, p.cfg, p.opts))
}

func geminiConfig(client *genai.Client, cfg config.ModelConfig, opts Options) *gemini.Config {
	gc := &gemini.Config{
		Client: client,
		Model:  cfg.Model,
	}
	if opts.ThinkingBudget != nil {
		gc.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: opts.ThinkingBudget}
	}
	return gc
}
