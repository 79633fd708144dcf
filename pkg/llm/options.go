// Package llm: functional options для параметров генерации.
package llm

// GenerateOptions — параметры одного запроса.
//
// Значения по умолчанию приходят из config.yaml (ModelDef),
// опции переопределяют их в runtime.
type GenerateOptions struct {
	// Model — идентификатор модели у провайдера.
	Model string

	// Temperature: 0.0 = детерминированно.
	Temperature float64

	// MaxTokens ограничивает длину ответа. 0 = дефолт провайдера.
	MaxTokens int

	// Format — "json_object" для структурированного ответа, пусто = текст.
	Format string
}

// GenerateOption is a functional option for configuring GenerateOptions.
type GenerateOption func(*GenerateOptions)

// WithModel sets the model for generation.
func WithModel(model string) GenerateOption {
	return func(o *GenerateOptions) {
		o.Model = model
	}
}

// WithTemperature sets the temperature for generation.
func WithTemperature(temp float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = temp
	}
}

// WithMaxTokens sets the maximum tokens for generation.
func WithMaxTokens(tokens int) GenerateOption {
	return func(o *GenerateOptions) {
		o.MaxTokens = tokens
	}
}

// WithFormat sets the response format for generation.
func WithFormat(format string) GenerateOption {
	return func(o *GenerateOptions) {
		o.Format = format
	}
}

// Apply применяет опции поверх базовых значений.
func (o GenerateOptions) Apply(opts ...GenerateOption) GenerateOptions {
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
