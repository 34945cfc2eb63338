// Package anthropic provides a thread title generator backed by Anthropic's API.
package anthropic

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const systemPrompt = `You name chat threads. Given the user's opening message,
respond with a concise title of at most six words. Respond with the title
only: no quotes, no trailing punctuation.`

// Titler generates thread titles with an Anthropic model.
type Titler struct {
	client anthropic.Client
	model  anthropic.Model
}

// Config for the titler.
type Config struct {
	APIKey  string
	BaseURL string
	Model   anthropic.Model
}

// New creates a titler with the given config.
func New(cfg Config) *Titler {
	var opts []option.RequestOption
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = anthropic.ModelClaude3_5HaikuLatest
	}

	return &Titler{
		client: anthropic.NewClient(opts...),
		model:  model,
	}
}

// NewFromEnv creates a titler using ANTHROPIC_API_KEY.
func NewFromEnv() *Titler {
	return New(Config{APIKey: os.Getenv("ANTHROPIC_API_KEY")})
}

// GenerateTitle produces a short title for the opening message.
func (t *Titler) GenerateTitle(ctx context.Context, firstMessage string) (string, error) {
	resp, err := t.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     t.model,
		MaxTokens: 32,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(firstMessage)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic title generation failed: %w", err)
	}

	var title strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			title.WriteString(block.Text)
		}
	}
	if title.Len() == 0 {
		return "", fmt.Errorf("anthropic returned no text content")
	}

	return strings.TrimSpace(title.String()), nil
}
