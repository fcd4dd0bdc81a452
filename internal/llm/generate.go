package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/huimingz/shipit-go/internal/log"
)

// Usage is the token accounting reported by the provider
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ToolCallGenerator produces structured output by binding a single submit tool
// to the chat model and reading its streamed arguments.
type ToolCallGenerator struct {
	provider Provider
	retry    RetryConfig

	chatModel model.ChatModel
	lastUsage Usage
}

// NewToolCallGenerator creates a generator for provider
func NewToolCallGenerator(provider Provider, retry RetryConfig) *ToolCallGenerator {
	return &ToolCallGenerator{provider: provider, retry: retry}
}

// LastUsage returns token usage of the most recent call
func (g *ToolCallGenerator) LastUsage() Usage {
	return g.lastUsage
}

// GenerateCommitGroups asks for an ordered list of commit groups
func (g *ToolCallGenerator) GenerateCommitGroups(ctx context.Context, system, user string) ([]CommitGroup, error) {
	raw, err := g.generate(ctx, commitGroupsTool(), system, user)
	if err != nil {
		return nil, err
	}
	return ParseCommitGroups(raw)
}

// GeneratePRDraft asks for a pull request title and body
func (g *ToolCallGenerator) GeneratePRDraft(ctx context.Context, system, user string) (*PRDraft, error) {
	raw, err := g.generate(ctx, prTool(), system, user)
	if err != nil {
		return nil, err
	}
	return ParsePRDraft(raw)
}

// streamResult is what one streamed call produced
type streamResult struct {
	arguments string
	content   string
	usage     Usage
}

func (g *ToolCallGenerator) generate(ctx context.Context, tool *schema.ToolInfo, system, user string) (string, error) {
	if g.chatModel == nil {
		chatModel, err := g.provider.CreateChatModel(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to create chat model: %w", err)
		}
		g.chatModel = chatModel
	}

	if err := g.chatModel.BindTools([]*schema.ToolInfo{tool}); err != nil {
		return "", fmt.Errorf("failed to bind tools: %w", err)
	}

	messages := []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(user),
	}

	start := time.Now()
	log.Debug("Sending request to %s (%s), tool %s", g.provider.Name(), g.provider.GetConfig().Model, tool.Name)

	result, err := WithRetryResult(ctx, g.retry, func() (*streamResult, error) {
		return g.stream(ctx, tool.Name, messages)
	})
	if err != nil {
		return "", err
	}

	g.lastUsage = result.usage
	log.DebugTokenUsage(result.usage.PromptTokens, result.usage.CompletionTokens, result.usage.TotalTokens)
	log.DebugDuration("LLM request", time.Since(start))

	if result.arguments != "" {
		log.DebugToolCall(tool.Name, result.arguments)
		return result.arguments, nil
	}

	// Some models answer in plain text even with a bound tool
	if strings.TrimSpace(result.content) != "" {
		log.Debug("No tool call found, using fallback parsing")
		return result.content, nil
	}

	return "", &OutputError{Reason: OutputMissing, Detail: "no tool call and no content"}
}

// stream reads one streamed response, accumulating tool call chunks by index
func (g *ToolCallGenerator) stream(ctx context.Context, toolName string, messages []*schema.Message) (*streamResult, error) {
	reader, err := g.chatModel.Stream(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("LLM stream failed: %w", err)
	}
	defer reader.Close()

	var content strings.Builder
	var toolCalls []*schema.ToolCall
	result := &streamResult{}

	for {
		chunk, err := reader.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("stream read error: %w", err)
		}

		content.WriteString(chunk.Content)

		for _, tc := range chunk.ToolCalls {
			idx := 0
			if tc.Index != nil {
				idx = *tc.Index
			}
			for len(toolCalls) <= idx {
				toolCalls = append(toolCalls, &schema.ToolCall{})
			}
			if tc.Function.Name != "" {
				toolCalls[idx].Function.Name = tc.Function.Name
			}
			toolCalls[idx].Function.Arguments += tc.Function.Arguments
		}

		if chunk.ResponseMeta != nil && chunk.ResponseMeta.Usage != nil {
			usage := chunk.ResponseMeta.Usage
			result.usage.PromptTokens = max(result.usage.PromptTokens, usage.PromptTokens)
			result.usage.CompletionTokens = max(result.usage.CompletionTokens, usage.CompletionTokens)
			result.usage.TotalTokens = max(result.usage.TotalTokens, usage.TotalTokens)
		}
	}

	result.content = content.String()
	for _, tc := range toolCalls {
		// Providers that stream a single call may omit the name after the first chunk
		if tc.Function.Name == toolName || (tc.Function.Name == "" && len(toolCalls) == 1) {
			result.arguments = tc.Function.Arguments
			break
		}
	}
	return result, nil
}
