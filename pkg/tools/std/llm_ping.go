package std

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ilkoid/poncho-travel/pkg/config"
	"github.com/ilkoid/poncho-travel/pkg/factory"
	"github.com/ilkoid/poncho-travel/pkg/tools"
)

// PingResult — результат проверки доступности LLM провайдера.
type PingResult struct {
	Available  bool   `json:"available"`
	Model      string `json:"model"`
	Provider   string `json:"provider,omitempty"`
	BaseURL    string `json:"base_url,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
	LatencyMs  int64  `json:"latency_ms,omitempty"`
	ErrorType  string `json:"error_type,omitempty"`
	Message    string `json:"message"`
}

// LLMPingTool — проверка доступности LLM провайдера (GET <base_url>/models).
//
// Используется командой `ping` и может быть выдан агенту как инструмент.
type LLMPingTool struct {
	cfg         *config.AppConfig
	httpClient  *http.Client
	description string
}

// NewLLMPingTool создает инструмент проверки провайдера.
func NewLLMPingTool(cfg *config.AppConfig, toolCfg config.ToolConfig) *LLMPingTool {
	timeout := toolCfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	desc := toolCfg.Description
	if desc == "" {
		desc = "Checks that an LLM provider is reachable and the API key is accepted."
	}
	return &LLMPingTool{
		cfg:         cfg,
		httpClient:  &http.Client{Timeout: timeout},
		description: desc,
	}
}

// Definition возвращает определение инструмента для function calling.
func (t *LLMPingTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:        "ping_llm_provider",
		Description: t.description,
		Parameters: tools.JSONSchema{
			"type": "object",
			"properties": map[string]any{
				"model": map[string]any{
					"type":        "string",
					"description": "Model alias to check. Empty means default_chat.",
				},
			},
		},
	}
}

// Execute выполняет инструмент согласно контракту "Raw In, String Out".
func (t *LLMPingTool) Execute(ctx context.Context, argsJSON string) (string, error) {
	var args struct {
		Model string `json:"model"`
	}
	// Пустой или битый JSON — проверяем default_chat
	_ = json.Unmarshal([]byte(argsJSON), &args)

	data, err := json.Marshal(t.Ping(ctx, args.Model))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Ping проверяет модель по алиасу (пусто = default_chat).
func (t *LLMPingTool) Ping(ctx context.Context, alias string) PingResult {
	if alias == "" {
		alias = t.cfg.Models.DefaultChat
	}

	modelDef, ok := t.cfg.GetModel(alias)
	if !ok {
		return PingResult{Model: alias, ErrorType: "MODEL_NOT_FOUND",
			Message: fmt.Sprintf("model '%s' is not defined in config", alias)}
	}
	if modelDef.RequiresAPIKey() && modelDef.APIKey == "" {
		return PingResult{Model: alias, Provider: modelDef.Provider, ErrorType: "API_KEY_MISSING",
			Message: (&config.CredentialError{Var: modelDef.APIKeyEnv, Purpose: "model:" + alias}).Error()}
	}

	baseURL := strings.TrimRight(factory.ResolveBaseURL(modelDef), "/")
	result := PingResult{Model: alias, Provider: modelDef.Provider, BaseURL: baseURL}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/models", nil)
	if err != nil {
		result.ErrorType = "REQUEST_ERROR"
		result.Message = err.Error()
		return result
	}
	if modelDef.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+modelDef.APIKey)
	}

	start := time.Now()
	resp, err := t.httpClient.Do(req)
	result.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		result.ErrorType = "CONNECTION_ERROR"
		result.Message = fmt.Sprintf("connection failed: %v", err)
		return result
	}
	defer resp.Body.Close()

	result.StatusCode = resp.StatusCode
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		result.Available = true
		result.Message = fmt.Sprintf("%s API is reachable, model '%s' (%s)", modelDef.Provider, alias, modelDef.ModelName)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		result.ErrorType = "AUTH_ERROR"
		result.Message = fmt.Sprintf("API key for model '%s' was rejected, check %s", alias, modelDef.APIKeyEnv)
	case resp.StatusCode == http.StatusTooManyRequests:
		result.ErrorType = "RATE_LIMIT_ERROR"
		result.Message = fmt.Sprintf("%s API rate limit exceeded", modelDef.Provider)
	default:
		result.ErrorType = "HTTP_ERROR"
		result.Message = fmt.Sprintf("%s API returned status %d", modelDef.Provider, resp.StatusCode)
	}
	return result
}
