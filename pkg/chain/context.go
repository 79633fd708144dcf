package chain

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Context — состояние одного выполнения цепочки.
//
// Создаётся заново на каждый запрос, между запросами ничего не переносится.
// Thread-safe через sync.RWMutex (Rule 5).
type Context struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewContext создаёт пустой контекст выполнения.
func NewContext() *Context {
	return &Context{values: make(map[string]any)}
}

// Set сохраняет значение по ключу.
func (c *Context) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}

// Get возвращает значение по ключу.
func (c *Context) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// GetString возвращает строку по ключу; пусто если ключа нет или тип другой.
func (c *Context) GetString(key string) string {
	v, ok := c.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Keys возвращает отсортированные ключи.
func (c *Context) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String — для дебага, только ключи (значения могут быть большими).
func (c *Context) String() string {
	return fmt.Sprintf("Context{keys: [%s]}", strings.Join(c.Keys(), ", "))
}
