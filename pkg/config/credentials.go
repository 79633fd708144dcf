package config

import (
	"errors"
	"fmt"
)

// CredentialError — отсутствует обязательный ключ доступа.
//
// Фатальна для всей сессии: UI показывает сообщение вместо формы ввода.
type CredentialError struct {
	Var     string // Имя ENV переменной, например SERPAPI_API_KEY
	Purpose string // "search", "model:gemini-2.5-flash"
}

func (e *CredentialError) Error() string {
	if e.Var == "" {
		return fmt.Sprintf("missing credentials for %s", e.Purpose)
	}
	return fmt.Sprintf("Please set your %s environment variable.", e.Var)
}

// IsCredentialError проверяет, что ошибка вызвана отсутствием ключа.
func IsCredentialError(err error) bool {
	var target *CredentialError
	return errors.As(err, &target)
}

// CheckCredentials проверяет наличие ключей: сначала ключ поиска,
// затем ключ провайдера моделей.
//
// Проверяются только модели, которые реально используют роли агентов.
func (c *AppConfig) CheckCredentials() error {
	if c.Search.APIKey == "" {
		return &CredentialError{Var: c.Search.APIKeyEnv, Purpose: "search"}
	}

	for _, name := range c.AgentModels() {
		def, ok := c.Models.Definitions[name]
		if !ok || !def.RequiresAPIKey() {
			continue
		}
		if def.APIKey == "" {
			return &CredentialError{Var: def.APIKeyEnv, Purpose: "model:" + name}
		}
	}
	return nil
}
