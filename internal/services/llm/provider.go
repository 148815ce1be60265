package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sashabaranov/go-openai"
	"github.com/ternarybob/arbor"
	"google.golang.org/genai"

	"github.com/ternarybob/kabuka/internal/common"
	"github.com/ternarybob/kabuka/internal/interfaces"
)

// ProviderType represents the AI provider type
type ProviderType string

const (
	// ProviderGemini uses Google Gemini API
	ProviderGemini ProviderType = "gemini"
	// ProviderClaude uses Anthropic Claude API
	ProviderClaude ProviderType = "claude"
	// ProviderOpenAI uses the OpenAI chat completions API
	ProviderOpenAI ProviderType = "openai"
)

var providerPrefixes = map[string]ProviderType{
	"claude/":    ProviderClaude,
	"anthropic/": ProviderClaude,
	"gemini/":    ProviderGemini,
	"google/":    ProviderGemini,
	"openai/":    ProviderOpenAI,
}

// ProviderFactory routes content requests to Gemini, Claude or OpenAI and
// lazily creates the underlying clients.
type ProviderFactory struct {
	geminiConfig *common.GeminiConfig
	claudeConfig *common.ClaudeConfig
	openaiConfig *common.OpenAIConfig
	llmConfig    *common.LLMConfig
	retryConfig  *RetryConfig
	logger       arbor.ILogger

	mu           sync.Mutex
	geminiClient *genai.Client
	claudeClient *anthropic.Client
	openaiClient *openai.Client
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(config *common.Config, logger arbor.ILogger) *ProviderFactory {
	retryConfig := NewDefaultRetryConfig()
	if config.LLM.MaxRetries >= 0 {
		retryConfig.MaxRetries = config.LLM.MaxRetries
	}

	return &ProviderFactory{
		geminiConfig: &config.Gemini,
		claudeConfig: &config.Claude,
		openaiConfig: &config.OpenAI,
		llmConfig:    &config.LLM,
		retryConfig:  retryConfig,
		logger:       logger,
	}
}

// SetRetryConfig replaces the retry policy.
func (f *ProviderFactory) SetRetryConfig(cfg *RetryConfig) {
	f.retryConfig = cfg
}

// DetectProvider determines the provider type from a model string.
// Model strings can be:
// - "claude-sonnet-4-5" or "claude/claude-sonnet-4-5" -> Claude
// - "gemini-3-flash-preview" or "gemini/gemini-3-flash-preview" -> Gemini
// - "gpt-4o-search-preview" or "openai/gpt-4o-search-preview" -> OpenAI
// - Empty or unrecognised -> default provider from config
func (f *ProviderFactory) DetectProvider(model string) ProviderType {
	model = strings.ToLower(strings.TrimSpace(model))

	for prefix, provider := range providerPrefixes {
		if strings.HasPrefix(model, prefix) {
			return provider
		}
	}

	switch {
	case strings.HasPrefix(model, "claude-"):
		return ProviderClaude
	case strings.HasPrefix(model, "gemini-"):
		return ProviderGemini
	case strings.HasPrefix(model, "gpt-"), strings.HasPrefix(model, "o1"),
		strings.HasPrefix(model, "o3"), strings.HasPrefix(model, "o4"):
		return ProviderOpenAI
	}

	if f.llmConfig.DefaultProvider == "" {
		return ProviderOpenAI
	}
	return ProviderType(f.llmConfig.DefaultProvider)
}

// NormalizeModel removes a provider prefix from the model name if present
func (f *ProviderFactory) NormalizeModel(model string) string {
	model = strings.TrimSpace(model)
	lower := strings.ToLower(model)
	for prefix := range providerPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return model[len(prefix):]
		}
	}
	return model
}

// GetDefaultModel returns the default model for a provider
func (f *ProviderFactory) GetDefaultModel(provider ProviderType) string {
	switch provider {
	case ProviderClaude:
		return f.claudeConfig.Model
	case ProviderGemini:
		return f.geminiConfig.Model
	default:
		return f.openaiConfig.Model
	}
}

// Configured reports whether an API key resolves for the provider the configured model routes to.
func (f *ProviderFactory) Configured() bool {
	var err error
	switch f.DetectProvider(f.llmConfig.Model) {
	case ProviderClaude:
		_, err = common.ResolveAPIKey("anthropic_api_key", f.claudeConfig.APIKey)
	case ProviderGemini:
		_, err = common.ResolveAPIKey("gemini_api_key", f.geminiConfig.APIKey)
	default:
		_, err = common.ResolveAPIKey("openai_api_key", f.openaiConfig.APIKey)
	}
	return err == nil
}

// GenerateContent generates content using the provider selected by the request or configured model.
func (f *ProviderFactory) GenerateContent(ctx context.Context, request *interfaces.ContentRequest) (*interfaces.ContentResponse, error) {
	requested := request.Model
	if requested == "" {
		requested = f.llmConfig.Model
	}
	provider := f.DetectProvider(requested)
	model := f.NormalizeModel(requested)
	if model == "" {
		model = f.GetDefaultModel(provider)
	}

	f.logger.Debug().
		Str("provider", string(provider)).
		Str("model", model).
		Int("message_count", len(request.Messages)).
		Bool("web_search", request.WebSearch).
		Msg("Generating content with provider")

	switch provider {
	case ProviderClaude:
		return f.generateWithClaude(ctx, request, model)
	case ProviderGemini:
		return f.generateWithGemini(ctx, request, model)
	default:
		return f.generateWithOpenAI(ctx, request, model)
	}
}

func (f *ProviderFactory) getGeminiClient(ctx context.Context) (*genai.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.geminiClient != nil {
		return f.geminiClient, nil
	}

	apiKey, err := common.ResolveAPIKey("gemini_api_key", f.geminiConfig.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve Gemini API key: %w", err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %v: %w", err, common.ErrExternalUnavailable)
	}

	f.geminiClient = client
	return client, nil
}

func (f *ProviderFactory) getClaudeClient() (*anthropic.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.claudeClient != nil {
		return f.claudeClient, nil
	}

	apiKey, err := common.ResolveAPIKey("anthropic_api_key", f.claudeConfig.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve Anthropic API key: %w", err)
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	f.claudeClient = &client
	return f.claudeClient, nil
}

func (f *ProviderFactory) getOpenAIClient() (*openai.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.openaiClient != nil {
		return f.openaiClient, nil
	}

	apiKey, err := common.ResolveAPIKey("openai_api_key", f.openaiConfig.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve OpenAI API key: %w", err)
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if f.openaiConfig.BaseURL != "" {
		clientConfig.BaseURL = f.openaiConfig.BaseURL
	}

	f.openaiClient = openai.NewClientWithConfig(clientConfig)
	return f.openaiClient, nil
}

// generateWithGemini generates content using Gemini API
func (f *ProviderFactory) generateWithGemini(ctx context.Context, request *interfaces.ContentRequest, model string) (*interfaces.ContentResponse, error) {
	client, err := f.getGeminiClient(ctx)
	if err != nil {
		return nil, err
	}

	contents, systemText, err := convertMessagesToGemini(request.Messages)
	if err != nil {
		return nil, fmt.Errorf("failed to convert messages: %w", err)
	}
	if request.SystemInstruction != "" {
		systemText = request.SystemInstruction
	}

	temp := request.Temperature
	if temp <= 0 {
		temp = f.geminiConfig.Temperature
	}

	config := &genai.GenerateContentConfig{}
	if temp > 0 {
		config.Temperature = genai.Ptr(temp)
	}
	if systemText != "" {
		config.SystemInstruction = genai.NewContentFromText(systemText, genai.RoleUser)
	}
	if request.WebSearch && f.geminiConfig.GoogleSearch {
		config.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	resp, apiErr := withRetry(ctx, f.retryConfig, f.logger, ProviderGemini, func() (*genai.GenerateContentResponse, error) {
		return client.Models.GenerateContent(ctx, model, contents, config)
	})
	if apiErr != nil {
		return nil, &common.TransportError{Provider: string(ProviderGemini), Err: apiErr}
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("empty response from Gemini API: %w", common.ErrMalformedResponse)
	}

	return &interfaces.ContentResponse{
		Text:     strings.TrimSpace(resp.Text()),
		Provider: string(ProviderGemini),
		Model:    model,
	}, nil
}

// generateWithClaude generates content using Claude API
func (f *ProviderFactory) generateWithClaude(ctx context.Context, request *interfaces.ContentRequest, model string) (*interfaces.ContentResponse, error) {
	client, err := f.getClaudeClient()
	if err != nil {
		return nil, err
	}

	claudeMessages, systemText, err := convertMessagesToClaude(request.Messages)
	if err != nil {
		return nil, fmt.Errorf("failed to convert messages: %w", err)
	}
	if request.SystemInstruction != "" {
		systemText = request.SystemInstruction
	}

	maxTokens := request.MaxTokens
	if maxTokens <= 0 {
		maxTokens = f.claudeConfig.MaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages:  claudeMessages,
	}

	temp := request.Temperature
	if temp <= 0 {
		temp = f.claudeConfig.Temperature
	}
	if temp > 0 {
		params.Temperature = anthropic.Float(float64(temp))
	}
	if systemText != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemText}}
	}

	resp, apiErr := withRetry(ctx, f.retryConfig, f.logger, ProviderClaude, func() (*anthropic.Message, error) {
		return client.Messages.New(ctx, params)
	})
	if apiErr != nil {
		return nil, &common.TransportError{Provider: string(ProviderClaude), Err: apiErr}
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return &interfaces.ContentResponse{
		Text:     strings.TrimSpace(text.String()),
		Provider: string(ProviderClaude),
		Model:    model,
	}, nil
}

// generateWithOpenAI generates content using the OpenAI chat completions API
func (f *ProviderFactory) generateWithOpenAI(ctx context.Context, request *interfaces.ContentRequest, model string) (*interfaces.ContentResponse, error) {
	client, err := f.getOpenAIClient()
	if err != nil {
		return nil, err
	}

	messages, err := convertMessagesToOpenAI(request.Messages, request.SystemInstruction)
	if err != nil {
		return nil, fmt.Errorf("failed to convert messages: %w", err)
	}

	chatRequest := openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
	}
	// Search-preview models reject sampling parameters.
	temp := request.Temperature
	if temp <= 0 {
		temp = f.openaiConfig.Temperature
	}
	if temp > 0 && !strings.Contains(model, "search") {
		chatRequest.Temperature = temp
	}
	if request.MaxTokens > 0 {
		chatRequest.MaxCompletionTokens = request.MaxTokens
	}

	resp, apiErr := withRetry(ctx, f.retryConfig, f.logger, ProviderOpenAI, func() (openai.ChatCompletionResponse, error) {
		return client.CreateChatCompletion(ctx, chatRequest)
	})
	if apiErr != nil {
		return nil, &common.TransportError{Provider: string(ProviderOpenAI), Err: apiErr}
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from OpenAI API: %w", common.ErrMalformedResponse)
	}

	return &interfaces.ContentResponse{
		Text:     strings.TrimSpace(resp.Choices[0].Message.Content),
		Provider: string(ProviderOpenAI),
		Model:    model,
	}, nil
}

// Close drops all provider clients
func (f *ProviderFactory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.geminiClient = nil
	f.claudeClient = nil
	f.openaiClient = nil
	return nil
}
