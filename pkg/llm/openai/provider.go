package openai

import (
	"context"
	"fmt"
	"strings"

	oa "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"carepathiq-be/pkg/llm"
)

type OpenAIProvider struct {
	ModelName string
	client    oa.Client
}

// Ensure OpenAIProvider implements LLMProvider
var _ llm.LLMProvider = &OpenAIProvider{}

// ValidKeyFormat is the cheap sanity check applied before any network call:
// secret keys start with "sk-" and are at least 20 characters.
func ValidKeyFormat(key string) bool {
	return strings.HasPrefix(key, "sk-") && len(key) >= 20
}

// NewOpenAIProvider builds a provider against api.openai.com, or against
// baseURL when set (self-hosted gateways, proxies).
func NewOpenAIProvider(apiKey, baseURL, modelName string) *OpenAIProvider {
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	return &OpenAIProvider{
		ModelName: modelName,
		client:    oa.NewClient(options...),
	}
}

func (p *OpenAIProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	params := p.buildParams(history, opts...)

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	return completion.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) ChatStream(ctx context.Context, history []llm.Message, handler llm.StreamHandler, opts ...llm.Option) (string, error) {
	params := p.buildParams(history, opts...)

	stream := p.client.Chat.Completions.NewStreaming(ctx, params)
	acc := oa.ChatCompletionAccumulator{}

	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)

		if len(chunk.Choices) > 0 {
			fragment := chunk.Choices[0].Delta.Content
			if fragment != "" && handler != nil {
				handler(fragment)
			}
		}
	}

	if err := stream.Err(); err != nil {
		return "", fmt.Errorf("openai stream failed: %w", err)
	}
	if err := stream.Close(); err != nil {
		return "", fmt.Errorf("close stream: %w", err)
	}
	if len(acc.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	return acc.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}

func (p *OpenAIProvider) buildParams(history []llm.Message, opts ...llm.Option) oa.ChatCompletionNewParams {
	options := &llm.Options{
		Temperature: 0.3, // Default
	}
	for _, opt := range opts {
		opt(options)
	}

	model := p.ModelName
	if options.Model != "" {
		model = options.Model
	}

	messages := make([]oa.ChatCompletionMessageParamUnion, 0, len(history))
	for _, msg := range history {
		switch msg.Role {
		case "system":
			messages = append(messages, oa.SystemMessage(msg.Content))
		case "assistant", "model":
			messages = append(messages, oa.AssistantMessage(msg.Content))
		default:
			messages = append(messages, oa.UserMessage(msg.Content))
		}
	}

	params := oa.ChatCompletionNewParams{
		Model:       model,
		Messages:    messages,
		Temperature: oa.Float(options.Temperature),
	}
	if options.MaxTokens > 0 {
		params.MaxCompletionTokens = oa.Int(int64(options.MaxTokens))
	}

	return params
}
