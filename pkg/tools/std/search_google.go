// Package std предоставляет стандартные инструменты для агентов.
package std

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ilkoid/poncho-travel/pkg/config"
	"github.com/ilkoid/poncho-travel/pkg/search"
	"github.com/ilkoid/poncho-travel/pkg/tools"
)

// Searcher — то, что нужно инструменту от поискового клиента.
type Searcher interface {
	Search(ctx context.Context, query string, num int) ([]search.Result, error)
}

// GoogleSearchTool — веб-поиск через SerpAPI для роли researcher.
type GoogleSearchTool struct {
	client      Searcher
	description string
}

const defaultSearchDescription = "Search Google for up-to-date information about a travel destination: " +
	"attractions, activities, accommodation options, local customs and seasonal events. " +
	"Returns a JSON array of results with title, link and snippet."

// NewGoogleSearchTool создает инструмент поиска.
//
// Описание берётся из config.yaml (tools.search_google.description),
// пустое заменяется встроенным.
func NewGoogleSearchTool(client Searcher, toolCfg config.ToolConfig) *GoogleSearchTool {
	desc := toolCfg.Description
	if desc == "" {
		desc = defaultSearchDescription
	}
	return &GoogleSearchTool{client: client, description: desc}
}

// Definition возвращает определение инструмента для function calling.
func (t *GoogleSearchTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:        "search_google",
		Description: t.description,
		Parameters: tools.JSONSchema{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "Search query, e.g. 'best things to do in Paris in spring'",
				},
				"num_results": map[string]any{
					"type":        "integer",
					"description": "How many results to return (optional)",
				},
			},
			"required": []string{"query"},
		},
	}
}

// searchItem — то, что видит модель (без служебных полей SerpAPI).
type searchItem struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Execute выполняет инструмент согласно контракту "Raw In, String Out".
func (t *GoogleSearchTool) Execute(ctx context.Context, argsJSON string) (string, error) {
	var args struct {
		Query      string `json:"query"`
		NumResults int    `json:"num_results"`
	}
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
		return "", fmt.Errorf("invalid search_google arguments: %w", err)
	}
	if strings.TrimSpace(args.Query) == "" {
		return "", fmt.Errorf("search_google: query is required")
	}

	results, err := t.client.Search(ctx, args.Query, args.NumResults)
	if err != nil {
		return "", fmt.Errorf("search_google: %w", err)
	}

	items := make([]searchItem, 0, len(results))
	for _, r := range results {
		items = append(items, searchItem{Title: r.Title, Link: r.Link, Snippet: r.Snippet})
	}

	data, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
