package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/rajivgeraev/aqar/internal/models"
)

// RemoteSubscription – подписка на избранное через websocket-шлюз.
// Реализует favorites.Subscription.
type RemoteSubscription struct {
	conn   *websocket.Conn
	events chan models.FavoriteChange
	done   chan struct{}
	once   sync.Once
	logger *slog.Logger
}

// Dial подключается к шлюзу по адресу rawURL с токеном token
func Dial(ctx context.Context, rawURL, token string, logger *slog.Logger) (*RemoteSubscription, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("realtime url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial realtime: %s: %w", resp.Status, err)
		}
		return nil, fmt.Errorf("dial realtime: %w", err)
	}

	s := &RemoteSubscription{
		conn:   conn,
		events: make(chan models.FavoriteChange, eventBuffer),
		done:   make(chan struct{}),
		logger: logger,
	}
	go s.read()
	return s, nil
}

func (s *RemoteSubscription) read() {
	defer close(s.done)
	defer close(s.events)

	for {
		var ev models.FavoriteChange
		if err := s.conn.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("realtime connection lost", "error", err)
			}
			return
		}
		select {
		case s.events <- ev:
		default:
		}
	}
}

// Events возвращает канал событий; он закрывается при разрыве соединения или Close
func (s *RemoteSubscription) Events() <-chan models.FavoriteChange {
	return s.events
}

// Close закрывает соединение и ждёт завершения чтения
func (s *RemoteSubscription) Close() error {
	var err error
	s.once.Do(func() {
		_ = s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		err = s.conn.Close()
	})
	<-s.done
	return err
}
