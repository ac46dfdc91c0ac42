package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/skinbuddy/concierge/internal/config"
)

// Completer is the single capability handlers need from the language model:
// free text in, free text out. Handlers treat the output as untrusted and
// parse it defensively.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

const systemPrompt = "You are a structured-extraction engine for a skincare assistant. " +
	"Follow the instructions in the user message exactly. When asked for JSON, " +
	"return a single JSON object and nothing else."

// Service runs one-shot completions through a compiled eino chain.
type Service struct {
	chain   compose.Runnable[map[string]any, *schema.Message]
	timeout time.Duration
}

// NewService builds the completion chain from the configured chat model.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(systemPrompt),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile completion chain: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Service{chain: runnable, timeout: timeout}, nil
}

// Complete runs one completion with a bounded timeout. A hung upstream call
// surfaces as an error instead of stalling the caller's turn forever.
func (s *Service) Complete(ctx context.Context, query string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	msg, err := s.chain.Invoke(ctx, map[string]any{"query": query})
	if err != nil {
		return "", fmt.Errorf("failed to run completion chain: %w", err)
	}
	if msg == nil {
		return "", fmt.Errorf("completion chain returned no message")
	}
	return strings.TrimSpace(msg.Content), nil
}
