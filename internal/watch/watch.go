// Package watch рассылает уведомления об изменениях подписчикам.
package watch

import "sync"

// Broadcaster раздаёт значения всем подписчикам. Медленный подписчик
// не блокирует рассылку: при полном буфере самое старое значение вытесняется.
type Broadcaster[T any] struct {
	mu     sync.Mutex
	subs   map[int]chan T
	next   int
	closed bool
}

// NewBroadcaster создаёт рассыльщик без подписчиков
func NewBroadcaster[T any]() *Broadcaster[T] {
	return &Broadcaster[T]{subs: make(map[int]chan T)}
}

// Subscribe регистрирует подписчика с буфером buf. Возвращаемая функция
// отписывает и закрывает канал, повторный вызов безопасен.
func (b *Broadcaster[T]) Subscribe(buf int) (<-chan T, func()) {
	if buf < 1 {
		buf = 1
	}
	ch := make(chan T, buf)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.next
	b.next++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()

			if c, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(c)
			}
		})
	}
}

// Publish отправляет v всем подписчикам
func (b *Broadcaster[T]) Publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- v:
		default:
			// отправляет только Publish под мьютексом, поэтому после
			// вытеснения место в буфере гарантированно есть
			select {
			case <-ch:
			default:
			}
			ch <- v
		}
	}
}

// Close закрывает каналы всех подписчиков
func (b *Broadcaster[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
