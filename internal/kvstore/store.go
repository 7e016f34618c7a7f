package kvstore

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// DefaultPrefix – общий префикс ключей приложения
const DefaultPrefix = "aqar_"

// Observer получает сведения о сбоях хранилища. Вызывающий код об ошибках
// не узнаёт, поэтому это единственный способ их увидеть.
type Observer interface {
	StoreFailed(op, key string, err error)
}

// Store – типизированный доступ к Backend через JSON
type Store struct {
	backend  Backend
	prefix   string
	observer Observer
}

// Option настраивает Store
type Option func(*Store)

// WithPrefix задаёт префикс ключей
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// WithObserver задаёт получателя сведений о сбоях
func WithObserver(o Observer) Option {
	return func(s *Store) {
		if o != nil {
			s.observer = o
		}
	}
}

// New создаёт Store поверх backend
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend:  backend,
		prefix:   DefaultPrefix,
		observer: LogObserver{Logger: slog.Default()},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get читает значение по ключу. Отсутствие ключа и битый JSON дают zero value и false.
func Get[T any](s *Store, key string) (T, bool) {
	var zero T

	raw, found, err := s.backend.Get(s.prefix + key)
	if err != nil {
		s.observer.StoreFailed("read", key, err)
		return zero, false
	}
	if !found {
		return zero, false
	}

	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		s.observer.StoreFailed("decode", key, err)
		return zero, false
	}
	return v, true
}

// Put сохраняет значение как JSON. Ошибки только уходят в Observer.
func Put[T any](s *Store, key string, v T) {
	data, err := json.Marshal(v)
	if err != nil {
		s.observer.StoreFailed("encode", key, err)
		return
	}
	if err := s.backend.Set(s.prefix+key, string(data)); err != nil {
		s.observer.StoreFailed("write", key, err)
	}
}

// Delete удаляет ключ, ошибки уходят в Observer
func (s *Store) Delete(key string) {
	if err := s.backend.Remove(s.prefix + key); err != nil {
		s.observer.StoreFailed("remove", key, err)
	}
}

// LogObserver пишет сбои хранилища в лог
type LogObserver struct {
	Logger *slog.Logger
}

func (o LogObserver) StoreFailed(op, key string, err error) {
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("storage operation failed", "op", op, "key", key, "error", err)
}

// CountingObserver считает сбои по операциям и при желании пересылает их дальше
type CountingObserver struct {
	Next Observer

	mu     sync.Mutex
	counts map[string]int
	last   error
}

func (o *CountingObserver) StoreFailed(op, key string, err error) {
	o.mu.Lock()
	if o.counts == nil {
		o.counts = make(map[string]int)
	}
	o.counts[op]++
	o.last = fmt.Errorf("%s %s: %w", op, key, err)
	o.mu.Unlock()

	if o.Next != nil {
		o.Next.StoreFailed(op, key, err)
	}
}

// Count возвращает число сбоев операции op
func (o *CountingObserver) Count(op string) int {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.counts[op]
}

// Total возвращает общее число сбоев
func (o *CountingObserver) Total() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	total := 0
	for _, n := range o.counts {
		total += n
	}
	return total
}

// LastError возвращает последний зафиксированный сбой
func (o *CountingObserver) LastError() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.last
}
