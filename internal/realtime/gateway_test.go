package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajivgeraev/aqar/internal/logging"
	"github.com/rajivgeraev/aqar/internal/models"
	"github.com/rajivgeraev/aqar/internal/utils"
)

const testUser = "3f0e4a52-5a1c-4b8e-8d6f-1c2b3a4d5e6f"

func startGateway(t *testing.T) (*Hub, *utils.JWTService, string) {
	t.Helper()
	hub := NewHub(logging.Discard())
	jwt := utils.NewJWTService("secret")
	srv := httptest.NewServer(NewGateway(hub, jwt, []string{"*"}, logging.Discard()).Handler())
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, jwt, "ws" + strings.TrimPrefix(srv.URL, "http") + FavoritesPath
}

func TestGateway_ForwardsHubEvents(t *testing.T) {
	hub, jwt, url := startGateway(t)
	token, err := jwt.GenerateToken(testUser)
	require.NoError(t, err)

	sub, err := Dial(context.Background(), url, token, logging.Discard())
	require.NoError(t, err)
	defer sub.Close()

	// подписка на сервере появляется чуть позже рукопожатия
	var got models.FavoriteChange
	require.Eventually(t, func() bool {
		hub.Publish(models.FavoriteChange{UserID: testUser, Op: models.FavoriteOpInsert})
		select {
		case got = <-sub.Events():
			return true
		case <-time.After(20 * time.Millisecond):
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, testUser, got.UserID)
	assert.Equal(t, models.FavoriteOpInsert, got.Op)
}

func TestGateway_RejectsBadToken(t *testing.T) {
	_, _, url := startGateway(t)

	_, err := Dial(context.Background(), url, "nope", logging.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestGateway_HubShutdownClosesClient(t *testing.T) {
	hub, jwt, url := startGateway(t)
	token, err := jwt.GenerateToken(testUser)
	require.NoError(t, err)

	sub, err := Dial(context.Background(), url, token, logging.Discard())
	require.NoError(t, err)
	defer sub.Close()

	// дождаться серверной подписки
	require.Eventually(t, func() bool {
		hub.Publish(models.FavoriteChange{UserID: testUser, Op: models.FavoriteOpInsert})
		select {
		case <-sub.Events():
			return true
		case <-time.After(20 * time.Millisecond):
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)

	hub.Close()

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-sub.Events():
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestGateway_Healthz(t *testing.T) {
	g := NewGateway(NewHub(logging.Discard()), utils.NewJWTService("s"), []string{"*"}, logging.Discard())
	rec := httptest.NewRecorder()

	g.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://aqar.example/"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://aqar.example")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, check(req))
}
