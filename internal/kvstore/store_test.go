package kvstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newTestStore(t *testing.T, backend Backend) (*Store, *CountingObserver) {
	t.Helper()
	obs := &CountingObserver{}
	return New(backend, WithObserver(obs)), obs
}

func TestStore_PutGetRoundTrip(t *testing.T) {
	backend := NewMemory(0)
	s, obs := newTestStore(t, backend)

	Put(s, "thing", record{Name: "villa", Count: 3})

	got, ok := Get[record](s, "thing")
	require.True(t, ok)
	assert.Equal(t, record{Name: "villa", Count: 3}, got)

	raw, found, err := backend.Get("aqar_thing")
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `{"name":"villa","count":3}`, raw)
	assert.Zero(t, obs.Total())
}

func TestStore_GetMissingKey(t *testing.T) {
	s, obs := newTestStore(t, NewMemory(0))

	got, ok := Get[[]string](s, "nothing")
	assert.False(t, ok)
	assert.Nil(t, got)
	assert.Zero(t, obs.Total())
}

func TestStore_GetCorruptValueReturnsFalse(t *testing.T) {
	backend := NewMemory(0)
	require.NoError(t, backend.Set("aqar_broken", "{not json"))
	s, obs := newTestStore(t, backend)

	_, ok := Get[record](s, "broken")
	assert.False(t, ok)
	assert.Equal(t, 1, obs.Count("decode"))
}

func TestStore_PutQuotaExceededIsSwallowed(t *testing.T) {
	backend := NewMemory(16)
	s, obs := newTestStore(t, backend)

	Put(s, "big", record{Name: "a very long listing title that will not fit"})

	_, ok := Get[record](s, "big")
	assert.False(t, ok)
	assert.Equal(t, 1, obs.Count("write"))
	assert.True(t, errors.Is(obs.LastError(), ErrQuotaExceeded))
}

func TestStore_PutUnencodableValue(t *testing.T) {
	s, obs := newTestStore(t, NewMemory(0))

	Put(s, "chan", make(chan int))

	assert.Equal(t, 1, obs.Count("encode"))
}

func TestStore_DeleteAndPrefix(t *testing.T) {
	backend := NewMemory(0)
	s := New(backend, WithPrefix("test_"), WithObserver(&CountingObserver{}))

	Put(s, "k", 42)
	_, found, _ := backend.Get("test_k")
	require.True(t, found)

	s.Delete("k")
	_, ok := Get[int](s, "k")
	assert.False(t, ok)
	assert.Zero(t, backend.Len())
}

type failingBackend struct{ err error }

func (f failingBackend) Get(string) (string, bool, error) { return "", false, f.err }
func (f failingBackend) Set(string, string) error         { return f.err }
func (f failingBackend) Remove(string) error              { return f.err }

func TestStore_BackendErrorsAreObserved(t *testing.T) {
	next := &CountingObserver{}
	obs := &CountingObserver{Next: next}
	s := New(failingBackend{err: errors.New("disk gone")}, WithObserver(obs))

	Put(s, "a", 1)
	_, ok := Get[int](s, "a")
	s.Delete("a")

	assert.False(t, ok)
	assert.Equal(t, 1, obs.Count("write"))
	assert.Equal(t, 1, obs.Count("read"))
	assert.Equal(t, 1, obs.Count("remove"))
	assert.Equal(t, 3, next.Total())
}

func TestMemory_QuotaAccountsForOverwrite(t *testing.T) {
	m := NewMemory(10)

	require.NoError(t, m.Set("k", "12345678"))
	require.NoError(t, m.Set("k", "87654321"))
	assert.ErrorIs(t, m.Set("k2", "x"), ErrQuotaExceeded)

	require.NoError(t, m.Remove("k"))
	assert.NoError(t, m.Set("k2", "x"))
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "store.db")

	db, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	s := New(db, WithObserver(&CountingObserver{}))
	Put(s, "navigation_history", []string{"/favorites", "/properties?search=villa"})
	require.NoError(t, db.Close())

	db, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	s = New(db)
	got, ok := Get[[]string](s, "navigation_history")
	require.True(t, ok)
	assert.Equal(t, []string{"/favorites", "/properties?search=villa"}, got)

	s.Delete("navigation_history")
	_, ok = Get[[]string](s, "navigation_history")
	assert.False(t, ok)
}
