package realtime

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Максимальное время ожидания для pong от клиента
	pongWait = 60 * time.Second

	// Отправлять ping-сообщения клиенту с этим интервалом
	pingPeriod = (pongWait * 9) / 10

	writeWait = 10 * time.Second

	// Клиент ничего не присылает, кроме control-фреймов
	maxMessageSize = 4 * 1024
)

// peer – одно websocket-соединение подписчика
type peer struct {
	id     uuid.UUID
	userID string
	conn   *websocket.Conn
	sub    *Subscription
	logger *slog.Logger
	closed chan struct{}
}

func newPeer(userID string, conn *websocket.Conn, sub *Subscription, logger *slog.Logger) *peer {
	id := uuid.New()
	return &peer{
		id:     id,
		userID: userID,
		conn:   conn,
		sub:    sub,
		logger: logger.With("peer_id", id, "user_id", userID),
		closed: make(chan struct{}),
	}
}

// serve обслуживает соединение до его закрытия
func (p *peer) serve() {
	p.logger.Info("websocket client connected")
	go p.readPump()
	p.writePump()

	_ = p.sub.Close()
	_ = p.conn.Close()
	p.logger.Info("websocket client disconnected")
}

// readPump нужен только для обработки pong и обнаружения закрытия
func (p *peer) readPump() {
	defer close(p.closed)

	p.conn.SetReadLimit(maxMessageSize)
	_ = p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := p.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				p.logger.Debug("unexpected close", "error", err)
			}
			return
		}
	}
}

func (p *peer) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	events := p.sub.Events()
	for {
		select {
		case ev, ok := <-events:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = p.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"))
				return
			}
			if err := p.conn.WriteJSON(ev); err != nil {
				p.logger.Debug("write failed", "error", err)
				return
			}
		case <-ticker.C:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-p.closed:
			return
		}
	}
}
