package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajivgeraev/aqar/internal/favorites"
	"github.com/rajivgeraev/aqar/internal/logging"
	"github.com/rajivgeraev/aqar/internal/models"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

var listingID = uuid.MustParse("9b2d7c1e-0f4a-4e3b-8c5d-6a7b8c9d0e1f")

func newClient(t *testing.T, h http.HandlerFunc, token string) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", "ws://unused", staticToken(token), WithLogger(logging.Discard()))
}

func TestListFavorites(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/favorites", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(models.FavoriteResponse{
			Favorites: []models.Favorite{{ListingID: listingID, Listing: &models.Listing{ID: listingID, Title: "Camry 2021"}}},
			Total:     1,
		})
	}, "tok")

	list, err := c.ListFavorites(context.Background(), "ignored")

	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Camry 2021", list[0].Title)
}

func TestAddFavorite_StatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusCreated, nil},
		{http.StatusConflict, favorites.ErrAlreadyFavorited},
		{http.StatusNotFound, favorites.ErrNotFound},
		{http.StatusUnauthorized, favorites.ErrAuthRequired},
		{http.StatusBadGateway, ErrUnexpectedStatus},
	}

	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				var body map[string]string
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, listingID.String(), body["listing_id"])
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(`{"error":"x"}`))
			}, "tok")

			err := c.AddFavorite(context.Background(), "u", listingID.String())
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestRemoveAndCheck(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodDelete && r.URL.Path == "/api/favorites/"+listingID.String():
			_, _ = w.Write([]byte(`{"success":true}`))
		case r.Method == http.MethodGet && r.URL.Path == "/api/favorites/"+listingID.String()+"/check":
			_, _ = w.Write([]byte(`{"is_favorite":true}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}, "tok")

	require.NoError(t, c.RemoveFavorite(context.Background(), "u", listingID.String()))
	ok, err := c.CheckFavorite(context.Background(), listingID.String())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRequiresToken(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("request must not be sent without a token")
	}, "")

	_, err := c.ListFavorites(context.Background(), "u")
	assert.ErrorIs(t, err, favorites.ErrAuthRequired)

	_, err = c.SubscribeFavorites(context.Background(), "u")
	assert.ErrorIs(t, err, favorites.ErrAuthRequired)
}

func TestLoginTelegram(t *testing.T) {
	userID := uuid.New()
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["init_data"] != "good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token": "jwt",
			"user":  models.User{ID: userID, Username: "khalid"},
		})
	}, "")

	token, user, err := c.LoginTelegram(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "jwt", token)
	assert.Equal(t, userID, user.ID)

	_, _, err = c.LoginTelegram(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
}
