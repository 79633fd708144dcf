package factory

import (
	"fmt"
	"strings"

	"github.com/ilkoid/poncho-travel/pkg/config"
	"github.com/ilkoid/poncho-travel/pkg/llm"
	"github.com/ilkoid/poncho-travel/pkg/llm/openai"
)

// Адреса OpenAI-совместимых endpoint'ов по умолчанию.
const (
	GeminiBaseURL     = "https://generativelanguage.googleapis.com/v1beta/openai"
	OpenRouterBaseURL = "https://openrouter.ai/api/v1"
	DefaultOllamaHost = "http://localhost:11434"
)

// IsSupported — провайдер известен фабрике.
func IsSupported(provider string) bool {
	switch provider {
	case "openai", "gemini", "openrouter", "ollama":
		return true
	}
	return false
}

// NewLLMProvider создает провайдера на основе конфигурации модели.
//
// Все поддерживаемые провайдеры говорят на OpenAI Chat Completions,
// отличаются только BaseURL и требованием ключа.
func NewLLMProvider(modelDef config.ModelDef) (llm.Provider, error) {
	switch modelDef.Provider {
	case "openai", "gemini", "openrouter":
		modelDef.BaseURL = ResolveBaseURL(modelDef)
		return openai.NewClient(modelDef), nil

	case "ollama":
		modelDef.BaseURL = ResolveBaseURL(modelDef)
		if modelDef.APIKey == "" {
			// Ollama ключ не проверяет, но SDK шлёт заголовок Authorization
			modelDef.APIKey = "ollama"
		}
		return openai.NewClient(modelDef), nil

	default:
		return nil, fmt.Errorf("unknown provider type: %s", modelDef.Provider)
	}
}

// ResolveBaseURL возвращает фактический адрес API модели с учётом дефолтов провайдера.
func ResolveBaseURL(modelDef config.ModelDef) string {
	switch modelDef.Provider {
	case "gemini":
		if modelDef.BaseURL == "" {
			return GeminiBaseURL
		}
	case "openrouter":
		if modelDef.BaseURL == "" {
			return OpenRouterBaseURL
		}
	case "openai":
		if modelDef.BaseURL == "" {
			return "https://api.openai.com/v1"
		}
	case "ollama":
		return OllamaBaseURL(modelDef.BaseURL)
	}
	return modelDef.BaseURL
}

// OllamaBaseURL превращает OLLAMA_HOST в адрес OpenAI-совместимого API.
//
//	""                       → http://localhost:11434/v1
//	"gpu-box:11434"          → http://gpu-box:11434/v1
//	"http://gpu-box:11434/"  → http://gpu-box:11434/v1
func OllamaBaseURL(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		host = DefaultOllamaHost
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	host = strings.TrimRight(host, "/")
	if !strings.HasSuffix(host, "/v1") {
		host += "/v1"
	}
	return host
}
