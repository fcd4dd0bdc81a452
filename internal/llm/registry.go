package llm

import (
	"strings"

	"github.com/huimingz/shipit-go/internal/config"
)

// Options tunes a provider for short structured responses
type Options struct {
	// ThinkingBudget caps Gemini thinking tokens; zero turns thinking off
	ThinkingBudget *int32
	// ReasoningEffort is sent as reasoning_effort by OpenAI-compatible clients
	ReasoningEffort string
	// DisableThinking asks Anthropic for a plain answer without extended thinking
	DisableThinking bool
	// StrictSchema marks the bound tool schema strict
	StrictSchema bool
}

// Descriptor describes a registered provider and its default model
type Descriptor struct {
	ID               string
	Label            string
	DefaultModelID   string
	DefaultModelName string
	APIKeyEnv        string
	Options          Options
	New              func(cfg config.ModelConfig, opts Options) Provider
}

func int32Ptr(v int32) *int32 { return &v }

// registry lists providers in fallback priority order
var registry = []Descriptor{
	{
		ID:               "google",
		Label:            "Google",
		DefaultModelID:   "gemini-3-flash-preview",
		DefaultModelName: "Gemini 3 Flash Preview",
		APIKeyEnv:        "GOOGLE_GENERATIVE_AI_API_KEY",
		Options:          Options{ThinkingBudget: int32Ptr(0)},
		New:              func(cfg config.ModelConfig, opts Options) Provider { return NewGeminiProvider(cfg, opts) },
	},
	{
		ID:               "openai",
		Label:            "OpenAI",
		DefaultModelID:   "gpt-5.1-codex-mini",
		DefaultModelName: "GPT-5.1 Codex Mini",
		APIKeyEnv:        "OPENAI_API_KEY",
		Options:          Options{ReasoningEffort: "low", StrictSchema: true},
		New:              func(cfg config.ModelConfig, opts Options) Provider { return NewOpenAIProvider(cfg, opts) },
	},
	{
		ID:               "anthropic",
		Label:            "Anthropic",
		DefaultModelID:   "claude-haiku-4-5",
		DefaultModelName: "Claude Haiku 4.5",
		APIKeyEnv:        "ANTHROPIC_API_KEY",
		Options:          Options{DisableThinking: true},
		New:              func(cfg config.ModelConfig, opts Options) Provider { return NewAnthropicProvider(cfg, opts) },
	},
	{
		ID:               "groq",
		Label:            "Groq",
		DefaultModelID:   "moonshotai/kimi-k2-instruct-0905",
		DefaultModelName: "Kimi K2 0905",
		APIKeyEnv:        "GROQ_API_KEY",
		Options:          Options{StrictSchema: true},
		New:              func(cfg config.ModelConfig, opts Options) Provider { return NewGroqProvider(cfg, opts) },
	},
}

// Registry returns the registered providers in priority order
func Registry() []Descriptor {
	out := make([]Descriptor, len(registry))
	copy(out, registry)
	return out
}

// Lookup finds a provider by exact id
func Lookup(id string) (Descriptor, bool) {
	for _, d := range registry {
		if d.ID == id {
			return d, true
		}
	}
	return Descriptor{}, false
}

// ProviderIDs returns the registered ids joined for messages
func ProviderIDs() string {
	ids := make([]string, 0, len(registry))
	for _, d := range registry {
		ids = append(ids, d.ID)
	}
	return strings.Join(ids, ", ")
}
