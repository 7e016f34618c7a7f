// Package logging настраивает slog для сервера и клиента.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Manager владеет корневым логгером и выдаёт логгеры компонентов
type Manager struct {
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewManager создаёт менеджер с текстовым выводом в out на уровне level
func NewManager(out io.Writer, level string) (*Manager, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = os.Stderr
	}

	m := &Manager{
		logger: slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: lvl})),
	}
	return m, nil
}

// SetDefault делает логгер менеджера логгером по умолчанию для slog
func (m *Manager) SetDefault() {
	m.mu.RLock()
	defer m.mu.RUnlock()

	slog.SetDefault(m.logger)
}

// Logger возвращает логгер с атрибутом component
func (m *Manager) Logger(component string) *slog.Logger {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.logger.With("component", component)
}

// Discard возвращает логгер, который ничего не пишет
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel разбирает уровень логирования из конфигурации
func ParseLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unsupported log level: %q", raw)
	}
}
