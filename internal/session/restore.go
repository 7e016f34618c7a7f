package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rajivgeraev/aqar/internal/identity"
	"github.com/rajivgeraev/aqar/internal/nav"
)

// Outcome – результат проверки снимка
type Outcome int

const (
	NoSnapshot Outcome = iota
	Expired
	SamePath
	Excluded
	Unauthenticated
	AlreadyPrompted
	Declined
	Restored
)

func (o Outcome) String() string {
	switch o {
	case NoSnapshot:
		return "no_snapshot"
	case Expired:
		return "expired"
	case SamePath:
		return "same_path"
	case Excluded:
		return "excluded"
	case Unauthenticated:
		return "unauthenticated"
	case AlreadyPrompted:
		return "already_prompted"
	case Declined:
		return "declined"
	case Restored:
		return "restored"
	default:
		return "unknown"
	}
}

// SnapshotSource отдаёт последний снимок
type SnapshotSource interface {
	Latest() (Snapshot, bool)
}

// Identity – текущий пользователь и его смены
type Identity interface {
	Current() string
	Subscribe() (<-chan identity.Event, func())
}

// Prompter задаёт пользователю вопрос да/нет
type Prompter interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

// RestoreConfig – правила восстановления
type RestoreConfig struct {
	MaxAge time.Duration
	// AuthPrefixes – страницы входа, сам префикс и всё под ним
	AuthPrefixes []string
	// LandingPaths – стартовые страницы, точное совпадение
	LandingPaths []string
	// Question формирует текст вопроса для адреса target
	Question func(target string) string
}

// DefaultRestoreConfig возвращает правила по умолчанию
func DefaultRestoreConfig() RestoreConfig {
	return RestoreConfig{
		MaxAge:       24 * time.Hour,
		AuthPrefixes: []string{"/auth", "/login", "/register"},
		LandingPaths: []string{"/", "/landing", "/welcome"},
		Question: func(target string) string {
			return "Resume where you left off at " + target + "?"
		},
	}
}

// Restorer решает, предложить ли вернуться к последнему маршруту
type Restorer struct {
	source   SnapshotSource
	identity Identity
	router   nav.Router
	prompter Prompter
	cfg      RestoreConfig
	now      Clock
	logger   *slog.Logger

	mu       sync.Mutex
	prompted map[string]bool
}

// NewRestorer создаёт Restorer. Нулевые поля cfg заменяются значениями по умолчанию.
func NewRestorer(source SnapshotSource, ident Identity, router nav.Router, prompter Prompter, cfg RestoreConfig, opts ...Option) *Restorer {
	def := DefaultRestoreConfig()
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = def.MaxAge
	}
	if cfg.AuthPrefixes == nil {
		cfg.AuthPrefixes = def.AuthPrefixes
	}
	if cfg.LandingPaths == nil {
		cfg.LandingPaths = def.LandingPaths
	}
	if cfg.Question == nil {
		cfg.Question = def.Question
	}

	o := buildOptions(opts)
	return &Restorer{
		source:   source,
		identity: ident,
		router:   router,
		prompter: prompter,
		cfg:      cfg,
		now:      o.now,
		logger:   o.logger,
		prompted: make(map[string]bool),
	}
}

// Evaluate проверяет снимок и при необходимости спрашивает пользователя.
// Один и тот же снимок предлагается не больше одного раза; сам снимок не удаляется.
func (r *Restorer) Evaluate(ctx context.Context) Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap, ok := r.source.Latest()
	if !ok {
		return NoSnapshot
	}
	if r.now().Sub(snap.Timestamp) >= r.cfg.MaxAge {
		return Expired
	}
	if snap.Path == r.router.Current().Path {
		return SamePath
	}
	if r.excluded(snap.Path) {
		return Excluded
	}
	if r.identity.Current() == "" {
		return Unauthenticated
	}

	key := snap.Target() + "@" + snap.Timestamp.Format(time.RFC3339Nano)
	if r.prompted[key] {
		return AlreadyPrompted
	}
	r.prompted[key] = true

	yes, err := r.prompter.Confirm(ctx, r.cfg.Question(snap.Target()))
	if err != nil {
		r.logger.Debug("restore prompt failed", "target", snap.Target(), "error", err)
		return Declined
	}
	if !yes {
		return Declined
	}

	r.router.Navigate(snap.Target())
	r.logger.Info("session restored", "target", snap.Target())
	return Restored
}

// Run проверяет снимок сразу и затем при каждой смене пользователя или пути.
// Возвращается, когда ctx завершён или оба источника событий закрыты.
func (r *Restorer) Run(ctx context.Context) error {
	users, cancelUsers := r.identity.Subscribe()
	defer cancelUsers()
	routes, cancelRoutes := r.router.Subscribe()
	defer cancelRoutes()

	lastUser := r.identity.Current()
	lastPath := r.router.Current().Path
	r.Evaluate(ctx)

	for users != nil || routes != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-users:
			if !ok {
				users = nil
				continue
			}
			user := r.identity.Current()
			if user == lastUser {
				continue
			}
			lastUser = user
		case route, ok := <-routes:
			if !ok {
				routes = nil
				continue
			}
			if route.Path == lastPath {
				continue
			}
			lastPath = route.Path
		}
		r.Evaluate(ctx)
	}
	return nil
}

func (r *Restorer) excluded(path string) bool {
	for _, p := range r.cfg.LandingPaths {
		if path == p {
			return true
		}
	}
	for _, p := range r.cfg.AuthPrefixes {
		if path == p || strings.HasPrefix(path, strings.TrimSuffix(p, "/")+"/") {
			return true
		}
	}
	return false
}
