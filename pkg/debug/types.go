// Package debug записывает трейсы обработки запросов на планирование в JSON.
//
// Это диагностика для оператора: файлы пишутся только при app.debug=true
// и приложением обратно не читаются.
package debug

import "time"

// TripLog — полный трейс обработки одного запроса.
type TripLog struct {
	// RunID — уникальный идентификатор запуска (используется в имени файла)
	RunID string `json:"run_id"`

	// Timestamp — время начала обработки
	Timestamp time.Time `json:"timestamp"`

	Destination string `json:"destination"`
	Days        int    `json:"days"`

	// Duration — общая длительность в миллисекундах
	Duration int64 `json:"duration_ms"`

	// Stages — research и planning в порядке выполнения
	Stages []StageTrace `json:"stages"`

	Summary Summary `json:"summary"`

	// Notice — сообщение об ошибке, показанное пользователю
	Notice string `json:"notice,omitempty"`
}

// StageTrace — одна стадия (вызов одной роли агента).
type StageTrace struct {
	Name         string          `json:"name"`
	Model        string          `json:"model,omitempty"`
	Duration     int64           `json:"duration_ms"`
	Iterations   int             `json:"iterations,omitempty"`
	OutputLength int             `json:"output_length"`
	Tools        []ToolExecution `json:"tools_executed,omitempty"`
	Error        string          `json:"error,omitempty"`
}

// ToolExecution — один вызов инструмента.
type ToolExecution struct {
	Agent           string `json:"agent,omitempty"`
	Name            string `json:"name"`
	Args            string `json:"args,omitempty"`
	Result          string `json:"result,omitempty"`
	ResultTruncated bool   `json:"result_truncated,omitempty"`
	Duration        int64  `json:"duration_ms"`
	Success         bool   `json:"success"`
	Error           string `json:"error,omitempty"`
}

// Summary — агрегированная статистика.
type Summary struct {
	TotalToolCalls    int      `json:"total_tool_calls"`
	TotalToolDuration int64    `json:"total_tool_duration_ms"`
	VisitedTools      []string `json:"visited_tools"`
	Errors            []string `json:"errors,omitempty"`
}
