// Package identity отслеживает, кто вошёл в клиент.
package identity

import (
	"sync"

	"github.com/rajivgeraev/aqar/internal/kvstore"
	"github.com/rajivgeraev/aqar/internal/watch"
)

const storageKey = "auth_session"

// Kind – тип перехода
type Kind int

const (
	SignedIn Kind = iota + 1
	SignedOut
)

func (k Kind) String() string {
	switch k {
	case SignedIn:
		return "signed_in"
	case SignedOut:
		return "signed_out"
	default:
		return "unknown"
	}
}

// Event – смена пользователя
type Event struct {
	Kind   Kind
	UserID string
}

type session struct {
	UserID string `json:"user_id"`
	Token  string `json:"token"`
}

// Tracker хранит текущего пользователя и его токен. Сессия сохраняется
// в kvstore и переживает перезапуск.
type Tracker struct {
	mu      sync.RWMutex
	store   *kvstore.Store
	current session
	events  *watch.Broadcaster[Event]
}

// NewTracker восстанавливает сохранённую сессию из store
func NewTracker(store *kvstore.Store) *Tracker {
	t := &Tracker{
		store:  store,
		events: watch.NewBroadcaster[Event](),
	}
	if s, ok := kvstore.Get[session](store, storageKey); ok && s.UserID != "" {
		t.current = s
	}
	return t
}

// SignIn делает userID текущим пользователем
func (t *Tracker) SignIn(userID, token string) {
	t.mu.Lock()
	prev := t.current
	t.current = session{UserID: userID, Token: token}
	kvstore.Put(t.store, storageKey, t.current)
	t.mu.Unlock()

	if prev.UserID == userID {
		return
	}
	if prev.UserID != "" {
		t.events.Publish(Event{Kind: SignedOut, UserID: prev.UserID})
	}
	t.events.Publish(Event{Kind: SignedIn, UserID: userID})
}

// SignOut завершает сессию
func (t *Tracker) SignOut() {
	t.mu.Lock()
	prev := t.current
	t.current = session{}
	t.store.Delete(storageKey)
	t.mu.Unlock()

	if prev.UserID != "" {
		t.events.Publish(Event{Kind: SignedOut, UserID: prev.UserID})
	}
}

// Current возвращает id текущего пользователя или пустую строку
func (t *Tracker) Current() string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.current.UserID
}

// Token возвращает bearer-токен текущей сессии
func (t *Tracker) Token() string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.current.Token
}

// Subscribe подписывает на переходы вход/выход
func (t *Tracker) Subscribe() (<-chan Event, func()) {
	return t.events.Subscribe(8)
}

// Close закрывает каналы подписчиков
func (t *Tracker) Close() {
	t.events.Close()
}
