// Package app собирает клиентское состояние aqar: хранилище устройства,
// настройки, историю, поиск, сессию и избранное.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/rajivgeraev/aqar/internal/apiclient"
	"github.com/rajivgeraev/aqar/internal/config"
	"github.com/rajivgeraev/aqar/internal/favorites"
	"github.com/rajivgeraev/aqar/internal/history"
	"github.com/rajivgeraev/aqar/internal/identity"
	"github.com/rajivgeraev/aqar/internal/kvstore"
	"github.com/rajivgeraev/aqar/internal/messages"
	"github.com/rajivgeraev/aqar/internal/nav"
	"github.com/rajivgeraev/aqar/internal/prefs"
	"github.com/rajivgeraev/aqar/internal/search"
	"github.com/rajivgeraev/aqar/internal/session"
)

// Deps – внешние зависимости клиента. Пустые поля заполняются по конфигурации.
type Deps struct {
	// Backend – хранилище устройства; по умолчанию SQLite-файл из конфигурации
	Backend kvstore.Backend

	// Remote – сервер избранного; по умолчанию HTTP API
	Remote favorites.Remote

	// Prompter по умолчанию спрашивает в терминале
	Prompter session.Prompter

	Notifier  favorites.Notifier
	Direction prefs.DirectionSetter
	Logger    *slog.Logger
	Clock     session.Clock
}

// App – клиент целиком
type App struct {
	Store     *kvstore.Store
	Prefs     *prefs.Store
	History   *history.Navigation
	Search    *search.Cache
	Identity  *identity.Tracker
	Router    *nav.MemoryRouter
	Sessions  *session.Tracker
	Restorer  *session.Restorer
	Favorites *favorites.Sync

	// StoreFailures считает сбои хранилища устройства
	StoreFailures *kvstore.CountingObserver

	// API пуст, если Remote передан явно
	API *apiclient.Client

	logger  *slog.Logger
	closers []io.Closer

	followOnce sync.Once
	stopFollow context.CancelFunc
	followDone chan struct{}
}

// New собирает клиента. Маршрутизатор стартует со стартовой страницы "/".
func New(ctx context.Context, cfg config.Client, deps Deps) (*App, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{logger: logger}

	backend := deps.Backend
	if backend == nil {
		sqlite, err := kvstore.OpenSQLite(ctx, cfg.StorePath)
		if err != nil {
			return nil, fmt.Errorf("open device store: %w", err)
		}
		backend = sqlite
		a.closers = append(a.closers, sqlite)
	}

	a.StoreFailures = &kvstore.CountingObserver{Next: kvstore.LogObserver{Logger: logger.With("component", "kvstore")}}
	a.Store = kvstore.New(backend, kvstore.WithObserver(a.StoreFailures))
	a.Prefs = prefs.NewStore(a.Store, deps.Direction)
	a.History = history.NewNavigation(a.Store)
	a.Search = search.NewCache(a.Store, a.Prefs)
	a.Identity = identity.NewTracker(a.Store)
	a.Router = nav.NewMemoryRouter("/")

	var sessionOpts []session.Option
	sessionOpts = append(sessionOpts, session.WithLogger(logger.With("component", "session")))
	if deps.Clock != nil {
		sessionOpts = append(sessionOpts, session.WithClock(deps.Clock))
	}
	a.Sessions = session.NewTracker(a.Store, a.History, sessionOpts...)

	restoreCfg := session.DefaultRestoreConfig()
	restoreCfg.MaxAge = cfg.SessionMaxAge
	restoreCfg.Question = func(target string) string {
		return messages.Text(a.Prefs.Get().Language, messages.ResumePrompt, target)
	}
	prompter := deps.Prompter
	if prompter == nil {
		prompter = session.NewStdinPrompter(os.Stdin, os.Stdout)
	}
	a.Restorer = session.NewRestorer(a.Sessions, a.Identity, a.Router, prompter, restoreCfg, sessionOpts...)

	remote := deps.Remote
	if remote == nil {
		a.API = apiclient.New(cfg.APIURL, cfg.RealtimeURL, a.Identity,
			apiclient.WithLogger(logger.With("component", "apiclient")))
		remote = a.API
	}
	a.Favorites = favorites.NewSync(remote,
		favorites.WithNotifier(deps.Notifier),
		favorites.WithLanguage(func() string { return a.Prefs.Get().Language }),
		favorites.WithLogger(logger.With("component", "favorites")),
	)

	a.Prefs.Apply()
	return a, nil
}

// Start подключает избранное к текущему пользователю и следит за входом и выходом.
// Ошибка загрузки не мешает работе: пользователь уже получил уведомление.
func (a *App) Start(ctx context.Context) {
	a.followOnce.Do(func() {
		events, cancel := a.Identity.Subscribe()
		fctx, stop := context.WithCancel(ctx)
		a.stopFollow = stop
		a.followDone = make(chan struct{})

		if err := a.Favorites.SetUser(fctx, a.Identity.Current()); err != nil {
			a.logger.Debug("initial favorites load failed", "error", err)
		}

		go func() {
			defer close(a.followDone)
			defer cancel()
			for {
				select {
				case <-fctx.Done():
					return
				case ev, ok := <-events:
					if !ok {
						return
					}
					a.followIdentity(fctx, ev)
				}
			}
		}()
	})
}

func (a *App) followIdentity(ctx context.Context, ev identity.Event) {
	userID := ""
	if ev.Kind == identity.SignedIn {
		userID = ev.UserID
	}
	// SignedOut при смене пользователя сразу сменяется SignedIn
	if ev.Kind == identity.SignedOut && a.Identity.Current() != "" {
		return
	}
	if err := a.Favorites.SetUser(ctx, userID); err != nil {
		a.logger.Debug("favorites reload failed", "user_id", userID, "error", err)
	}
}

// Visit переходит на маршрут и сразу сохраняет снимок сессии
func (a *App) Visit(to string) nav.Route {
	a.Router.Navigate(to)
	route := a.Router.Current()
	a.Sessions.RouteChanged(route)
	return route
}

// Resume предлагает вернуться к последнему сохранённому маршруту
func (a *App) Resume(ctx context.Context) session.Outcome {
	outcome := a.Restorer.Evaluate(ctx)
	if outcome == session.Restored {
		a.Sessions.RouteChanged(a.Router.Current())
	}
	return outcome
}

// Run предлагает восстановить сессию и затем фиксирует переходы,
// пока ctx не завершён
func (a *App) Run(ctx context.Context) error {
	a.Start(ctx)
	a.Restorer.Evaluate(ctx)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.Sessions.Observe(ctx, a.Router)
	}()

	err := a.Restorer.Run(ctx)
	wg.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Login обменивает init data Telegram на сессию
func (a *App) Login(ctx context.Context, initData string) (string, error) {
	if a.API == nil {
		return "", errors.New("login requires the HTTP API")
	}
	token, user, err := a.API.LoginTelegram(ctx, initData)
	if err != nil {
		return "", err
	}
	a.Identity.SignIn(user.ID.String(), token)
	return user.ID.String(), nil
}

// Logout завершает сессию
func (a *App) Logout() {
	a.Identity.SignOut()
}

// Close останавливает фоновые задачи и закрывает хранилище
func (a *App) Close() error {
	if a.stopFollow != nil {
		a.stopFollow()
		<-a.followDone
	}
	a.Favorites.Close()
	a.Identity.Close()
	a.Router.Close()

	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
