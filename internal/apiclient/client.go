// Package apiclient обращается к REST API aqar и его websocket-шлюзу.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rajivgeraev/aqar/internal/favorites"
	"github.com/rajivgeraev/aqar/internal/models"
	"github.com/rajivgeraev/aqar/internal/realtime"
)

// ErrUnexpectedStatus – сервер ответил кодом, которого клиент не ждал
var ErrUnexpectedStatus = errors.New("unexpected status")

// TokenSource отдаёт bearer-токен текущей сессии
type TokenSource interface {
	Token() string
}

// Client – клиент API. Реализует favorites.Remote.
type Client struct {
	baseURL     string
	realtimeURL string
	tokens      TokenSource
	http        *http.Client
	logger      *slog.Logger
}

// Option настраивает Client
type Option func(*Client)

// WithHTTPClient подменяет http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger задаёт логгер
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New создаёт клиента для API по адресу baseURL
func New(baseURL, realtimeURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		realtimeURL: realtimeURL,
		tokens:      tokens,
		http:        &http.Client{Timeout: 15 * time.Second},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// apiError – тело ошибки API
type apiError struct {
	Error string `json:"error"`
}

// LoginTelegram обменивает init data Telegram на токен
func (c *Client) LoginTelegram(ctx context.Context, initData string) (string, models.User, error) {
	var out struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	status, err := c.do(ctx, http.MethodPost, "/api/auth/telegram", map[string]string{"init_data": initData}, false, &out)
	if err != nil {
		return "", models.User{}, err
	}
	if status != http.StatusOK {
		return "", models.User{}, fmt.Errorf("login: %w %d", ErrUnexpectedStatus, status)
	}
	return out.Token, out.User, nil
}

// ListFavorites возвращает избранное пользователя, которому принадлежит токен
func (c *Client) ListFavorites(ctx context.Context, _ string) ([]models.Listing, error) {
	var out models.FavoriteResponse
	status, err := c.do(ctx, http.MethodGet, "/api/favorites", nil, true, &out)
	if err != nil {
		return nil, err
	}
	if err := statusError("list favorites", status, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Listings(), nil
}

func (c *Client) AddFavorite(ctx context.Context, _ string, listingID string) error {
	status, err := c.do(ctx, http.MethodPost, "/api/favorites", map[string]string{"listing_id": listingID}, true, nil)
	if err != nil {
		return err
	}
	return statusError("add favorite", status, http.StatusCreated)
}

func (c *Client) RemoveFavorite(ctx context.Context, _ string, listingID string) error {
	status, err := c.do(ctx, http.MethodDelete, "/api/favorites/"+url.PathEscape(listingID), nil, true, nil)
	if err != nil {
		return err
	}
	return statusError("remove favorite", status, http.StatusOK)
}

// CheckFavorite спрашивает сервер, в избранном ли объявление
func (c *Client) CheckFavorite(ctx context.Context, listingID string) (bool, error) {
	var out struct {
		IsFavorite bool `json:"is_favorite"`
	}
	status, err := c.do(ctx, http.MethodGet, "/api/favorites/"+url.PathEscape(listingID)+"/check", nil, true, &out)
	if err != nil {
		return false, err
	}
	if err := statusError("check favorite", status, http.StatusOK); err != nil {
		return false, err
	}
	return out.IsFavorite, nil
}

func (c *Client) SubscribeFavorites(ctx context.Context, _ string) (favorites.Subscription, error) {
	token := c.tokens.Token()
	if token == "" {
		return nil, favorites.ErrAuthRequired
	}
	sub, err := realtime.Dial(ctx, c.realtimeURL, token, c.logger)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func statusError(op string, got, want int) error {
	switch got {
	case want:
		return nil
	case http.StatusUnauthorized:
		return fmt.Errorf("%s: %w", op, favorites.ErrAuthRequired)
	case http.StatusConflict:
		return fmt.Errorf("%s: %w", op, favorites.ErrAlreadyFavorited)
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", op, favorites.ErrNotFound)
	default:
		return fmt.Errorf("%s: %w %d", op, ErrUnexpectedStatus, got)
	}
}

// do выполняет запрос и декодирует тело успешного ответа в out
func (c *Client) do(ctx context.Context, method, path string, body any, auth bool, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		token := c.tokens.Token()
		if token == "" {
			return 0, favorites.ErrAuthRequired
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e apiError
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&e)
		c.logger.Debug("api error", "method", method, "path", path, "status", resp.StatusCode, "error", e.Error)
		return resp.StatusCode, nil
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	return resp.StatusCode, nil
}
