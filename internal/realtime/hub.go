// Package realtime доставляет уведомления об изменении избранного:
// из PostgreSQL через LISTEN/NOTIFY в общую шину и дальше в websocket.
package realtime

import (
	"log/slog"
	"sync"

	"github.com/cskr/pubsub"

	"github.com/rajivgeraev/aqar/internal/models"
)

const (
	hubCapacity = 64
	// eventBuffer – сколько необработанных событий копит подписка,
	// лишние отбрасываются: одно ожидающее событие уже вызовет перезагрузку
	eventBuffer = 16
)

// Hub раздаёт изменения избранного подписчикам конкретного пользователя
type Hub struct {
	ps     *pubsub.PubSub
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewHub создаёт шину
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		ps:     pubsub.New(hubCapacity),
		logger: logger,
	}
}

func topic(userID string) string {
	return "favorites:" + userID
}

// Publish отправляет событие подписчикам ev.UserID
func (h *Hub) Publish(ev models.FavoriteChange) {
	if ev.UserID == "" {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return
	}
	h.logger.Debug("publish favorites change", "user_id", ev.UserID, "op", ev.Op)
	h.ps.Pub(ev, topic(ev.UserID))
}

// Subscribe подписывает на изменения избранного userID
func (h *Hub) Subscribe(userID string) *Subscription {
	s := &Subscription{
		hub:    h,
		topic:  topic(userID),
		events: make(chan models.FavoriteChange, eventBuffer),
		done:   make(chan struct{}),
	}

	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		close(s.events)
		close(s.done)
		return s
	}
	s.raw = h.ps.Sub(s.topic)
	h.mu.RUnlock()

	go s.forward()
	return s
}

// Close закрывает шину и все подписки
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	h.ps.Shutdown()
}

// Subscription – подписка на шину. Реализует favorites.Subscription.
type Subscription struct {
	hub    *Hub
	topic  string
	raw    chan interface{}
	events chan models.FavoriteChange
	done   chan struct{}
	once   sync.Once
}

// forward читает raw до закрытия, поэтому шина никогда не блокируется на этой подписке
func (s *Subscription) forward() {
	defer close(s.done)
	defer close(s.events)

	for msg := range s.raw {
		ev, ok := msg.(models.FavoriteChange)
		if !ok {
			continue
		}
		select {
		case s.events <- ev:
		default:
			s.hub.logger.Debug("subscriber busy, change coalesced", "topic", s.topic)
		}
	}
}

// Events возвращает канал событий; он закрывается после Close
func (s *Subscription) Events() <-chan models.FavoriteChange {
	return s.events
}

// Close отписывается от шины и ждёт завершения пересылки
func (s *Subscription) Close() error {
	s.once.Do(func() {
		if s.raw == nil {
			return
		}
		s.hub.mu.RLock()
		if !s.hub.closed {
			// после Shutdown канал уже закрыт, а Unsub заблокируется навсегда
			s.hub.ps.Unsub(s.raw, s.topic)
		}
		s.hub.mu.RUnlock()
	})
	<-s.done
	return nil
}
