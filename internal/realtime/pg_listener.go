package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/rajivgeraev/aqar/internal/models"
)

const reconnectInterval = 5 * time.Second

var errMissingUser = errors.New("notification without user_id")

// Publisher принимает разобранные уведомления
type Publisher interface {
	Publish(ev models.FavoriteChange)
}

// PGListener слушает канал NOTIFY и публикует изменения избранного в шину
type PGListener struct {
	connStr    string
	channel    string
	pub        Publisher
	logger     *slog.Logger
	shutdownCh chan struct{}
	done       chan struct{}
}

// NewPGListener создаёт слушателя канала channel
func NewPGListener(connStr, channel string, pub Publisher, logger *slog.Logger) *PGListener {
	return &PGListener{
		connStr:    connStr,
		channel:    channel,
		pub:        pub,
		logger:     logger,
		shutdownCh: make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start запускает прослушивание в фоне
func (l *PGListener) Start(ctx context.Context) {
	go l.listen(ctx)
	l.logger.Info("notification listener started", "channel", l.channel)
}

// Stop останавливает прослушивание и ждёт завершения
func (l *PGListener) Stop() {
	close(l.shutdownCh)
	<-l.done
	l.logger.Info("notification listener stopped", "channel", l.channel)
}

func (l *PGListener) listen(ctx context.Context) {
	defer close(l.done)

	for {
		select {
		case <-l.shutdownCh:
			return
		case <-ctx.Done():
			return
		default:
			l.connectAndListen(ctx)
		}

		select {
		case <-l.shutdownCh:
			return
		case <-ctx.Done():
			return
		case <-time.After(reconnectInterval):
			l.logger.Info("reconnecting notification listener", "channel", l.channel)
		}
	}
}

func (l *PGListener) connectAndListen(ctx context.Context) {
	listener := pq.NewListener(l.connStr, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventConnected:
			l.logger.Debug("listener connected")
		case pq.ListenerEventDisconnected:
			l.logger.Warn("listener disconnected", "error", err)
		case pq.ListenerEventReconnected:
			l.logger.Info("listener reconnected")
		case pq.ListenerEventConnectionAttemptFailed:
			l.logger.Warn("listener connection attempt failed", "error", err)
		}
	})
	defer listener.Close()

	if err := listener.Listen(l.channel); err != nil {
		l.logger.Error("listen failed", "channel", l.channel, "error", err)
		return
	}

	for {
		select {
		case <-l.shutdownCh:
			return
		case <-ctx.Done():
			return
		case n := <-listener.Notify:
			if n == nil {
				// pq сообщает так о переподключении: уведомления за это время
				// потеряны, но клиенты перезагрузят избранное при следующем событии
				continue
			}
			l.handle(n.Extra)
		case <-time.After(90 * time.Second):
			go func() {
				if err := listener.Ping(); err != nil {
					l.logger.Warn("listener ping failed", "error", err)
				}
			}()
		}
	}
}

func (l *PGListener) handle(payload string) {
	ev, err := ParseChange(payload)
	if err != nil {
		l.logger.Warn("bad notification payload", "payload", payload, "error", err)
		return
	}
	l.pub.Publish(ev)
}

// ParseChange разбирает полезную нагрузку NOTIFY
func ParseChange(payload string) (models.FavoriteChange, error) {
	var ev models.FavoriteChange
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return ev, err
	}
	if ev.UserID == "" {
		return ev, errMissingUser
	}
	return ev, nil
}
