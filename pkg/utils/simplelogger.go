// Package utils предоставляет простой key=value логгер для консоли оператора.
//
// Формат строки: [YYYY-MM-DD HH:MM:SS] LEVEL: message key1=value1 key2=value2
//
// По умолчанию пишет в stderr. InitLogger дополнительно дублирует вывод в файл.
// Thread-safe через sync.Mutex.
package utils

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

var (
	logMutex   sync.Mutex
	logOut     io.Writer = os.Stderr
	logFile    *os.File
	debugLevel bool
)

// LoggerOptions конфигурирует логгер.
type LoggerOptions struct {
	// FilePath — путь к лог-файлу. Пусто = только консоль.
	FilePath string

	// Debug — писать ли DEBUG сообщения.
	Debug bool

	// Quiet — не писать в консоль (нужно TUI, чтобы не ломать экран).
	Quiet bool
}

// InitLogger настраивает вывод логгера.
//
// Повторный вызов закрывает предыдущий файл.
func InitLogger(opts LoggerOptions) error {
	logMutex.Lock()
	defer logMutex.Unlock()

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}

	debugLevel = opts.Debug

	var writers []io.Writer
	if !opts.Quiet {
		writers = append(writers, os.Stderr)
	}

	if opts.FilePath != "" {
		f, err := os.OpenFile(opts.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		logFile = f
		writers = append(writers, f)
	}

	switch len(writers) {
	case 0:
		logOut = io.Discard
	case 1:
		logOut = writers[0]
	default:
		logOut = io.MultiWriter(writers...)
	}

	return nil
}

// SetOutput перенаправляет вывод (используется в тестах).
func SetOutput(w io.Writer) {
	logMutex.Lock()
	defer logMutex.Unlock()
	logOut = w
}

// SetDebug включает или выключает DEBUG уровень.
func SetDebug(enabled bool) {
	logMutex.Lock()
	defer logMutex.Unlock()
	debugLevel = enabled
}

// Info - информационное сообщение.
func Info(msg string, keyvals ...any) {
	log("INFO", msg, keyvals...)
}

// Error - сообщение об ошибке.
func Error(msg string, keyvals ...any) {
	log("ERROR", msg, keyvals...)
}

// Debug - отладочное сообщение.
func Debug(msg string, keyvals ...any) {
	logMutex.Lock()
	enabled := debugLevel
	logMutex.Unlock()
	if !enabled {
		return
	}
	log("DEBUG", msg, keyvals...)
}

// Warn - предупреждение.
func Warn(msg string, keyvals ...any) {
	log("WARN", msg, keyvals...)
}

// log - внутренняя функция записи.
//
// Значения с пробелами берутся в кавычки, чтобы строку можно было грепать.
// Ошибка записи уходит в stderr.
func log(level, msg string, keyvals ...any) {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(time.Now().Format("2006-01-02 15:04:05"))
	b.WriteString("] ")
	b.WriteString(level)
	b.WriteString(": ")
	b.WriteString(msg)

	for i := 0; i < len(keyvals); i += 2 {
		if i+1 >= len(keyvals) {
			fmt.Fprintf(&b, " %v=<missing>", keyvals[i])
			break
		}
		fmt.Fprintf(&b, " %v=%s", keyvals[i], formatValue(keyvals[i+1]))
	}
	b.WriteString("\n")

	logMutex.Lock()
	defer logMutex.Unlock()

	if _, err := io.WriteString(logOut, b.String()); err != nil && logOut != os.Stderr {
		fmt.Fprintf(os.Stderr, "%s[LOGGER ERROR: write failed: %v]\n", b.String(), err)
	}
}

func formatValue(v any) string {
	s := fmt.Sprintf("%v", v)
	if strings.ContainsAny(s, " \t\n\"") {
		return fmt.Sprintf("%q", s)
	}
	return s
}

// Close закрывает лог-файл.
//
// Вызывается через defer в main().
func Close() {
	logMutex.Lock()
	defer logMutex.Unlock()

	if logFile != nil {
		if err := logFile.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "[LOGGER WARNING: Close failed: %v]\n", err)
		}
		logFile = nil
		logOut = os.Stderr
	}
}
