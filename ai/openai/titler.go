// Package openai provides a thread title generator backed by the OpenAI API.
package openai

import (
	"context"
	"fmt"
	"strings"

	oai "github.com/sashabaranov/go-openai"
)

const systemPrompt = `You name chat threads. Given the user's opening message,
respond with a concise title of at most six words. Respond with the title
only: no quotes, no trailing punctuation.`

// Titler generates thread titles with an OpenAI chat model.
type Titler struct {
	client *oai.Client
	model  string
}

// Option configures the titler.
type Option func(*Titler)

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(t *Titler) {
		t.model = model
	}
}

// New creates a titler around an OpenAI client.
func New(client *oai.Client, opts ...Option) *Titler {
	t := &Titler{
		client: client,
		model:  oai.GPT4oMini,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// GenerateTitle produces a short title for the opening message.
func (t *Titler) GenerateTitle(ctx context.Context, firstMessage string) (string, error) {
	resp, err := t.client.CreateChatCompletion(ctx, oai.ChatCompletionRequest{
		Model:     t.model,
		MaxTokens: 32,
		Messages: []oai.ChatCompletionMessage{
			{Role: oai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: oai.ChatMessageRoleUser, Content: firstMessage},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai title generation failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
