package realtime

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/rajivgeraev/aqar/internal/utils"
)

// FavoritesPath – путь websocket-подписки на избранное
const FavoritesPath = "/realtime/favorites"

// Gateway принимает websocket-подписки и пересылает в них события шины
type Gateway struct {
	hub      *Hub
	jwt      *utils.JWTService
	logger   *slog.Logger
	upgrader websocket.Upgrader
	router   chi.Router
}

// NewGateway создаёт шлюз. allowOrigins со значением "*" разрешает любой Origin.
func NewGateway(hub *Hub, jwt *utils.JWTService, allowOrigins []string, logger *slog.Logger) *Gateway {
	g := &Gateway{
		hub:    hub,
		jwt:    jwt,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowOrigins),
		},
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get(FavoritesPath, g.serveFavorites)
	g.router = r
	return g
}

// Handler возвращает http.Handler шлюза
func (g *Gateway) Handler() http.Handler {
	return g.router
}

func (g *Gateway) serveFavorites(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}

	userID, err := g.jwt.ExtractUserID(token)
	if err != nil {
		http.Error(w, "invalid or expired token", http.StatusUnauthorized)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отвечает клиенту
		g.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	newPeer(userID, conn, g.hub.Subscribe(userID), g.logger).serve()
}

func originChecker(allowOrigins []string) func(r *http.Request) bool {
	allowed := make(map[string]bool, len(allowOrigins))
	for _, o := range allowOrigins {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[strings.TrimSuffix(o, "/")] = true
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// не браузерные клиенты Origin не присылают
		return origin == "" || allowed[origin]
	}
}
