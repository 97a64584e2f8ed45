package llm

import (
	"context"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	defaultModel     = "claude-haiku-4-5-20251001"
	defaultMaxTokens = 1024
)

// Option configures the Anthropic-backed generator.
type Option func(*anthropicGenerator)

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(g *anthropicGenerator) {
		g.model = model
	}
}

// WithMaxTokens overrides the default completion budget.
func WithMaxTokens(n int64) Option {
	return func(g *anthropicGenerator) {
		g.maxTokens = n
	}
}

// anthropicGenerator implements Generator using the official anthropic-sdk-go.
type anthropicGenerator struct {
	client    sdk.Client
	model     string
	maxTokens int64
}

// NewAnthropicGenerator creates a Generator backed by the Anthropic API.
func NewAnthropicGenerator(apiKey string, opts ...Option) Generator {
	g := &anthropicGenerator{
		client: sdk.NewClient(
			option.WithAPIKey(apiKey),
		),
		model:     defaultModel,
		maxTokens: defaultMaxTokens,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

func (g *anthropicGenerator) GenerateText(ctx context.Context, dialog Dialog) (string, error) {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(g.model),
		MaxTokens: g.maxTokens,
	}

	for _, m := range dialog {
		switch m.Role {
		case "system":
			params.System = append(params.System, sdk.TextBlockParam{Text: m.Content})
		case "assistant":
			params.Messages = append(params.Messages, sdk.NewAssistantMessage(sdk.NewTextBlock(m.Content)))
		default:
			params.Messages = append(params.Messages, sdk.NewUserMessage(sdk.NewTextBlock(m.Content)))
		}
	}

	msg, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return "", eris.Wrap(err, "llm: create message")
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return "", eris.New("llm: empty response")
	}

	zap.L().Debug("llm: generation complete",
		zap.String("model", string(msg.Model)),
		zap.Int64("input_tokens", msg.Usage.InputTokens),
		zap.Int64("output_tokens", msg.Usage.OutputTokens),
	)

	return text, nil
}
