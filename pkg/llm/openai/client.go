// Package openai реализует адаптер LLM провайдера для OpenAI-совместимых API.
//
// Через него работают все провайдеры проекта: Gemini (OpenAI-compatible endpoint),
// OpenAI, OpenRouter и локальный Ollama (/v1).
// Поддерживает Function Calling (tools) для tool-calling цикла агентов.
package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/ilkoid/poncho-travel/pkg/config"
	"github.com/ilkoid/poncho-travel/pkg/llm"
	"github.com/ilkoid/poncho-travel/pkg/tools"
	"github.com/ilkoid/poncho-travel/pkg/utils"
	openai "github.com/sashabaranov/go-openai"
)

// Client реализует интерфейс llm.Provider для OpenAI-совместимых API.
type Client struct {
	api      *openai.Client
	defaults llm.GenerateOptions
	timeout  time.Duration
}

// NewClient создает клиент на основе конфигурации модели.
//
// Правило 2: все настройки из конфигурации, никакого хардкода.
func NewClient(modelDef config.ModelDef) *Client {
	cfg := openai.DefaultConfig(modelDef.APIKey)
	if modelDef.BaseURL != "" {
		cfg.BaseURL = modelDef.BaseURL
	}

	return &Client{
		api: openai.NewClientWithConfig(cfg),
		defaults: llm.GenerateOptions{
			Model:       modelDef.ModelName,
			Temperature: modelDef.Temperature,
			MaxTokens:   modelDef.MaxTokens,
		},
		timeout: modelDef.Timeout,
	}
}

// Model возвращает имя модели у провайдера.
func (c *Client) Model() string {
	return c.defaults.Model
}

// Generate выполняет запрос к API и возвращает ответ модели.
//
// opts:
//   - []tools.ToolDefinition — включает Function Calling (tool_choice=auto)
//   - llm.GenerateOption — переопределяет параметры модели
//
// Правило 7: все ошибки возвращаются, никаких panic.
func (c *Client) Generate(ctx context.Context, messages []llm.Message, opts ...any) (llm.Message, error) {
	startTime := time.Now()

	var (
		toolDefs []tools.ToolDefinition
		genOpts  []llm.GenerateOption
	)
	for _, opt := range opts {
		switch v := opt.(type) {
		case []tools.ToolDefinition:
			toolDefs = v
		case llm.GenerateOption:
			genOpts = append(genOpts, v)
		case nil:
		default:
			return llm.Message{}, fmt.Errorf("invalid option type: %T", opt)
		}
	}
	params := c.defaults.Apply(genOpts...)

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	utils.Debug("LLM request started",
		"model", params.Model,
		"messages_count", len(messages),
		"tools_count", len(toolDefs))

	req := openai.ChatCompletionRequest{
		Model:       params.Model,
		Messages:    mapMessages(messages),
		Temperature: float32(params.Temperature),
		MaxTokens:   params.MaxTokens,
	}
	if params.Format == "json_object" {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	if len(toolDefs) > 0 {
		req.Tools = convertToolsToOpenAI(toolDefs)
		req.ToolChoice = "auto"
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		utils.Error("LLM API request failed",
			"error", err,
			"model", params.Model,
			"duration_ms", time.Since(startTime).Milliseconds())
		return llm.Message{}, fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return llm.Message{}, fmt.Errorf("no choices in response")
	}

	result := mapFromOpenAI(resp.Choices[0].Message)

	utils.Info("LLM response received",
		"model", params.Model,
		"tool_calls_count", len(result.ToolCalls),
		"content_length", len(result.Content),
		"duration_ms", time.Since(startTime).Milliseconds())

	return result, nil
}

// mapMessages конвертирует наши сообщения в формат SDK.
func mapMessages(messages []llm.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		msg := openai.ChatCompletionMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Args,
				},
			})
		}
		out[i] = msg
	}
	return out
}

// mapFromOpenAI конвертирует ответ SDK обратно в наш формат.
func mapFromOpenAI(choice openai.ChatCompletionMessage) llm.Message {
	result := llm.Message{
		Role:    llm.Role(choice.Role),
		Content: choice.Content,
	}
	if result.Role == "" {
		result.Role = llm.RoleAssistant
	}

	if len(choice.ToolCalls) > 0 {
		result.ToolCalls = make([]llm.ToolCall, len(choice.ToolCalls))
		for i, tc := range choice.ToolCalls {
			result.ToolCalls[i] = llm.ToolCall{
				ID:   tc.ID,
				Name: tc.Function.Name,
				Args: tc.Function.Arguments,
			}
		}
	}
	return result
}

// convertToolsToOpenAI конвертирует определения инструментов в формат
// OpenAI Function Calling. Parameters уже JSON Schema и передаётся как есть.
func convertToolsToOpenAI(defs []tools.ToolDefinition) []openai.Tool {
	result := make([]openai.Tool, len(defs))

	for i, def := range defs {
		result[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  def.Parameters,
			},
		}
	}

	return result
}
