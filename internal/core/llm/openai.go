package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	groqBaseURL     = "https://api.groq.com/openai/v1"
	deepSeekBaseURL = "https://api.deepseek.com"
)

// ChatCompletionProvider talks to any OpenAI-compatible chat endpoint.
// OpenAI, Groq and DeepSeek differ only in base URL and defaults.
type ChatCompletionProvider struct {
	name        string
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

func NewOpenAIProvider(apiKey, model string, temperature float32, maxTokens int) *ChatCompletionProvider {
	return newChatCompletionProvider("OpenAI", openai.DefaultConfig(apiKey), orDefault(model, ProviderOpenAI), temperature, maxTokens)
}

func NewGroqProvider(apiKey, model string, temperature float32, maxTokens int) *ChatCompletionProvider {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = groqBaseURL
	return newChatCompletionProvider("Groq", config, orDefault(model, ProviderGroq), temperature, maxTokens)
}

func NewDeepSeekProvider(apiKey, model string, temperature float32, maxTokens int) *ChatCompletionProvider {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = deepSeekBaseURL
	// deepseek-chat is slow on long prompts
	config.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	return newChatCompletionProvider("DeepSeek", config, orDefault(model, ProviderDeepSeek), temperature, maxTokens)
}

func newChatCompletionProvider(name string, config openai.ClientConfig, model string, temperature float32, maxTokens int) *ChatCompletionProvider {
	if temperature == 0 {
		temperature = 0.7
	}
	if maxTokens == 0 {
		maxTokens = 1024
	}
	return &ChatCompletionProvider{
		name:        name,
		client:      openai.NewClientWithConfig(config),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

func orDefault(model string, t ProviderType) string {
	if model == "" {
		return DefaultModel(t)
	}
	return model
}

func (p *ChatCompletionProvider) GetProviderName() string {
	return p.name
}

func (p *ChatCompletionProvider) GenerateResponse(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: systemPrompt})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: userMessage})

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%s error: %w", p.name, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from %s", p.name)
	}

	return resp.Choices[0].Message.Content, nil
}
