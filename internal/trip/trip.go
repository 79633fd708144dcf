// Package trip — доменные типы запроса на поездку и результатов стадий.
package trip

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MinDays     = 1
	MaxDays     = 30
	DefaultDays = 7

	// MaxDestinationLen — ограничение в рунах.
	MaxDestinationLen = 200
)

// ValidationError — некорректный ввод пользователя.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IsValidation проверяет, что ошибка — ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// Request — одна заявка на маршрут. Не меняется после New.
type Request struct {
	Destination string
	Days        int
}

// New валидирует ввод и создаёт Request.
func New(destination string, days int) (Request, error) {
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return Request{}, &ValidationError{Field: "destination", Message: "must not be empty"}
	}
	if utf8.RuneCountInString(destination) > MaxDestinationLen {
		return Request{}, &ValidationError{
			Field:   "destination",
			Message: fmt.Sprintf("must be at most %d characters", MaxDestinationLen),
		}
	}
	if days < MinDays || days > MaxDays {
		return Request{}, &ValidationError{
			Field:   "days",
			Message: fmt.Sprintf("must be between %d and %d", MinDays, MaxDays),
		}
	}
	return Request{Destination: destination, Days: days}, nil
}

// String — для логов.
func (r Request) String() string {
	return fmt.Sprintf("%s (%d days)", r.Destination, r.Days)
}

// ClampDays приводит число дней к [MinDays, MaxDays].
func ClampDays(n int) int {
	switch {
	case n < MinDays:
		return MinDays
	case n > MaxDays:
		return MaxDays
	default:
		return n
	}
}

// ParseDays разбирает ввод пользователя. Пустая строка = DefaultDays,
// значения вне диапазона зажимаются.
func ParseDays(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultDays, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ValidationError{Field: "days", Message: fmt.Sprintf("%q is not a whole number", raw)}
	}
	return ClampDays(n), nil
}

// CanSubmit — можно ли отправить форму.
func CanSubmit(destination string) bool {
	return strings.TrimSpace(destination) != ""
}

// ResearchResult — вывод исследователя. Живёт только в рамках запроса.
type ResearchResult struct {
	Content    string
	Model      string
	Iterations int
	ToolCalls  int
	Duration   time.Duration
}

// Itinerary — итоговый маршрут, текст планировщика без изменений.
type Itinerary struct {
	Content  string
	Model    string
	Duration time.Duration
}
