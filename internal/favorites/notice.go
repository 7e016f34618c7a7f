package favorites

import (
	"log/slog"

	"github.com/rajivgeraev/aqar/internal/messages"
)

// Level – важность уведомления
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notice – сообщение для пользователя
type Notice struct {
	Level   Level
	Code    messages.Code
	Message string
}

// Notifier показывает уведомления пользователю
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc позволяет использовать функцию как Notifier
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

type logNotifier struct {
	logger *slog.Logger
}

func (l logNotifier) Notify(n Notice) {
	if n.Level == LevelError {
		l.logger.Warn(n.Message, "code", n.Code)
		return
	}
	l.logger.Info(n.Message, "code", n.Code)
}
