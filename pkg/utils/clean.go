package utils

import (
	"encoding/json"
	"strings"
)

// CleanJsonBlock удаляет markdown-обёртку вокруг JSON.
//
// Модели иногда присылают аргументы tool call как
//
//	```json
//	{"query": "Paris attractions"}
//	```
func CleanJsonBlock(s string) string {
	s = strings.TrimSpace(s)

	for _, prefix := range []string{"```json", "```JSON", "```Json", "```"} {
		if strings.HasPrefix(s, prefix) {
			s = strings.TrimPrefix(s, prefix)
			break
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")

	return strings.TrimSpace(s)
}

// ExtractJSON находит первый сбалансированный JSON-объект в тексте.
//
// Возвращает пустую строку, если объекта нет. Скобки внутри строк учитываются.
func ExtractJSON(s string) string {
	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// NormalizeToolArgs приводит аргументы инструмента к валидному JSON-объекту.
//
// Пустые аргументы становятся "{}". Если после снятия обёртки JSON
// невалиден, пробуем вытащить объект из текста. Иначе возвращаем как есть,
// пусть инструмент сам вернёт ошибку разбора.
func NormalizeToolArgs(raw string) string {
	s := CleanJsonBlock(raw)
	if s == "" {
		return "{}"
	}
	if json.Valid([]byte(s)) {
		return s
	}
	if obj := ExtractJSON(s); obj != "" && json.Valid([]byte(obj)) {
		return obj
	}
	return s
}
