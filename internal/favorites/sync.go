package favorites

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/rajivgeraev/aqar/internal/messages"
	"github.com/rajivgeraev/aqar/internal/models"
	"github.com/rajivgeraev/aqar/internal/watch"
)

// Option настраивает Sync
type Option func(*Sync)

// WithNotifier задаёт получателя уведомлений
func WithNotifier(n Notifier) Option {
	return func(s *Sync) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithLanguage задаёт источник языка уведомлений
func WithLanguage(lang func() string) Option {
	return func(s *Sync) {
		if lang != nil {
			s.language = lang
		}
	}
}

// WithLogger задаёт логгер
func WithLogger(l *slog.Logger) Option {
	return func(s *Sync) {
		if l != nil {
			s.logger = l
		}
	}
}

// Sync – избранное текущего пользователя
type Sync struct {
	remote   Remote
	notifier Notifier
	language func() string
	logger   *slog.Logger

	mu      sync.Mutex
	userID  string
	gen     uint64
	records []models.Listing
	ids     map[string]struct{}
	loading int
	watch   *watcher

	loaded *watch.Broadcaster[[]models.Listing]
}

type watcher struct {
	sub    Subscription
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSync создаёт пустое избранное без пользователя
func NewSync(remote Remote, opts ...Option) *Sync {
	s := &Sync{
		remote:   remote,
		language: func() string { return "en" },
		logger:   slog.Default(),
		ids:      make(map[string]struct{}),
		loaded:   watch.NewBroadcaster[[]models.Listing](),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.notifier == nil {
		s.notifier = logNotifier{logger: s.logger}
	}
	return s
}

// SetUser переключает избранное на userID. Пустой userID означает выход:
// подписка закрывается, состояние сбрасывается. При входе открывается
// подписка и выполняется полная загрузка.
func (s *Sync) SetUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	if userID == s.userID {
		s.mu.Unlock()
		return nil
	}
	s.gen++
	gen := s.gen
	s.userID = userID
	s.records = nil
	s.ids = make(map[string]struct{})
	old := s.watch
	s.watch = nil
	s.mu.Unlock()

	old.stop()

	if userID == "" {
		return nil
	}

	sub, err := s.remote.SubscribeFavorites(ctx, userID)
	if err != nil {
		s.logger.Warn("favorites subscription failed", "user_id", userID, "error", err)
	} else {
		s.attach(gen, sub)
	}

	return s.FetchAll(ctx)
}

// attach запускает обработку событий подписки, если пользователь не сменился
func (s *Sync) attach(gen uint64, sub Subscription) {
	wctx, cancel := context.WithCancel(context.Background())
	w := &watcher{sub: sub, cancel: cancel, done: make(chan struct{})}

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		cancel()
		_ = sub.Close()
		return
	}
	s.watch = w
	s.mu.Unlock()

	go s.consume(wctx, w)
}

// consume обрабатывает события по одному: каждое событие – одна полная загрузка
func (s *Sync) consume(ctx context.Context, w *watcher) {
	defer close(w.done)

	events := w.sub.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				// остановку через watcher.stop не считаем обрывом: ctx уже отменён
				if ctx.Err() == nil {
					s.logger.Warn("favorites live updates stopped", "user_id", s.User())
					s.notify(LevelError, messages.LiveUpdatesStopped)
				}
				return
			}
			s.logger.Debug("favorites changed remotely", "user_id", ev.UserID, "op", ev.Op)
			if err := s.FetchAll(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Debug("refetch after change failed", "error", err)
			}
		}
	}
}

func (w *watcher) stop() {
	if w == nil {
		return
	}
	w.cancel()
	_ = w.sub.Close()
	<-w.done
}

// FetchAll загружает избранное целиком и заменяет состояние.
// При ошибке состояние не меняется, пользователь получает уведомление.
func (s *Sync) FetchAll(ctx context.Context) error {
	s.mu.Lock()
	userID, gen := s.userID, s.gen
	if userID == "" {
		s.mu.Unlock()
		return ErrAuthRequired
	}
	s.loading++
	s.mu.Unlock()

	list, err := s.remote.ListFavorites(ctx, userID)

	s.mu.Lock()
	s.loading--
	if gen != s.gen {
		// ответ для прежнего пользователя
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		s.mu.Unlock()
		s.notify(LevelError, messages.FetchFailed)
		return fmt.Errorf("fetch favorites: %w", err)
	}

	records := make([]models.Listing, 0, len(list))
	ids := make(map[string]struct{}, len(list))
	for _, l := range list {
		id := l.ID.String()
		if _, dup := ids[id]; dup {
			continue
		}
		ids[id] = struct{}{}
		records = append(records, l)
	}
	s.records = records
	s.ids = ids
	s.mu.Unlock()

	snapshot := make([]models.Listing, len(records))
	copy(snapshot, records)
	s.loaded.Publish(snapshot)
	return nil
}

// Add добавляет объявление в избранное. Полная запись появится после следующей загрузки.
func (s *Sync) Add(ctx context.Context, listingID string) bool {
	userID, gen, ok := s.requireUser()
	if !ok {
		return false
	}

	err := s.remote.AddFavorite(ctx, userID, listingID)
	switch {
	case errors.Is(err, ErrAlreadyFavorited):
		s.notify(LevelInfo, messages.AlreadyFavorited)
		return false
	case errors.Is(err, ErrAuthRequired):
		s.notify(LevelError, messages.AuthRequired)
		return false
	case err != nil:
		s.logger.Warn("add favorite failed", "listing_id", listingID, "error", err)
		s.notify(LevelError, messages.AddFailed)
		return false
	}

	s.mu.Lock()
	if gen == s.gen {
		s.ids[listingID] = struct{}{}
	}
	s.mu.Unlock()

	s.notify(LevelInfo, messages.FavoriteAdded)
	return true
}

// Remove убирает объявление из избранного
func (s *Sync) Remove(ctx context.Context, listingID string) bool {
	userID, gen, ok := s.requireUser()
	if !ok {
		return false
	}

	err := s.remote.RemoveFavorite(ctx, userID, listingID)
	switch {
	case errors.Is(err, ErrNotFound):
		// запись уже удалена на сервере, локальное состояние догоняет его
		s.logger.Debug("favorite already removed remotely", "listing_id", listingID)
	case errors.Is(err, ErrAuthRequired):
		s.notify(LevelError, messages.AuthRequired)
		return false
	case err != nil:
		s.logger.Warn("remove favorite failed", "listing_id", listingID, "error", err)
		s.notify(LevelError, messages.RemoveFailed)
		return false
	}

	s.mu.Lock()
	if gen == s.gen {
		delete(s.ids, listingID)
		kept := s.records[:0:0]
		for _, l := range s.records {
			if l.ID.String() != listingID {
				kept = append(kept, l)
			}
		}
		s.records = kept
	}
	s.mu.Unlock()

	s.notify(LevelInfo, messages.FavoriteRemoved)
	return true
}

// Toggle добавляет или убирает объявление в зависимости от текущего состояния
func (s *Sync) Toggle(ctx context.Context, listingID string) bool {
	if s.IsFavorite(listingID) {
		return s.Remove(ctx, listingID)
	}
	return s.Add(ctx, listingID)
}

// IsFavorite проверяет, есть ли объявление в избранном
func (s *Sync) IsFavorite(listingID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.ids[listingID]
	return ok
}

// Records возвращает копию загруженных объявлений
func (s *Sync) Records() []models.Listing {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Listing, len(s.records))
	copy(out, s.records)
	return out
}

// IDs возвращает отсортированные id избранных объявлений
func (s *Sync) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Loading сообщает, идёт ли загрузка
func (s *Sync) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loading > 0
}

// User возвращает текущего пользователя
func (s *Sync) User() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.userID
}

// Subscribe отдаёт копию избранного после каждой успешной загрузки
func (s *Sync) Subscribe() (<-chan []models.Listing, func()) {
	return s.loaded.Subscribe(4)
}

// Close закрывает подписку. Ответы на уже отправленные запросы будут отброшены.
func (s *Sync) Close() {
	s.mu.Lock()
	s.gen++
	old := s.watch
	s.watch = nil
	s.mu.Unlock()

	old.stop()
	s.loaded.Close()
}

func (s *Sync) requireUser() (string, uint64, bool) {
	s.mu.Lock()
	userID, gen := s.userID, s.gen
	s.mu.Unlock()

	if userID == "" {
		s.notify(LevelError, messages.AuthRequired)
		return "", 0, false
	}
	return userID, gen, true
}

func (s *Sync) notify(level Level, code messages.Code) {
	s.notifier.Notify(Notice{
		Level:   level,
		Code:    code,
		Message: messages.Text(s.language(), code),
	})
}
