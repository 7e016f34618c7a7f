package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajivgeraev/aqar/internal/logging"
	"github.com/rajivgeraev/aqar/internal/models"
)

func recv(t *testing.T, ch <-chan models.FavoriteChange) models.FavoriteChange {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return models.FavoriteChange{}
	}
}

func TestHub_DeliversOnlyToOwner(t *testing.T) {
	hub := NewHub(logging.Discard())
	defer hub.Close()

	mine := hub.Subscribe("u-1")
	defer mine.Close()
	theirs := hub.Subscribe("u-2")
	defer theirs.Close()

	hub.Publish(models.FavoriteChange{UserID: "u-1", Op: models.FavoriteOpInsert})

	assert.Equal(t, models.FavoriteChange{UserID: "u-1", Op: models.FavoriteOpInsert}, recv(t, mine.Events()))
	assert.Never(t, func() bool { return len(theirs.Events()) > 0 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestHub_CloseSubscriptionClosesEvents(t *testing.T) {
	hub := NewHub(logging.Discard())
	defer hub.Close()
	sub := hub.Subscribe("u-1")

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())

	_, ok := <-sub.Events()
	assert.False(t, ok)

	hub.Publish(models.FavoriteChange{UserID: "u-1", Op: models.FavoriteOpDelete})
}

func TestHub_CloseEndsSubscriptions(t *testing.T) {
	hub := NewHub(logging.Discard())
	sub := hub.Subscribe("u-1")

	hub.Close()
	hub.Close()

	_, ok := <-sub.Events()
	assert.False(t, ok)
	assert.NoError(t, sub.Close())

	late := hub.Subscribe("u-1")
	_, ok = <-late.Events()
	assert.False(t, ok)
	assert.NoError(t, late.Close())
	hub.Publish(models.FavoriteChange{UserID: "u-1"})
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	hub := NewHub(logging.Discard())
	defer hub.Close()
	slow := hub.Subscribe("u-1")
	defer slow.Close()
	fast := hub.Subscribe("u-2")
	defer fast.Close()

	for i := 0; i < eventBuffer*4; i++ {
		hub.Publish(models.FavoriteChange{UserID: "u-1", Op: models.FavoriteOpInsert})
	}
	hub.Publish(models.FavoriteChange{UserID: "u-2", Op: models.FavoriteOpInsert})

	assert.Equal(t, "u-2", recv(t, fast.Events()).UserID)
	assert.LessOrEqual(t, len(slow.Events()), eventBuffer)
}

func TestParseChange(t *testing.T) {
	ev, err := ParseChange(`{"user_id":"u-1","op":"DELETE"}`)
	require.NoError(t, err)
	assert.Equal(t, models.FavoriteChange{UserID: "u-1", Op: "DELETE"}, ev)

	_, err = ParseChange(`{"op":"DELETE"}`)
	assert.ErrorIs(t, err, errMissingUser)

	_, err = ParseChange(`not json`)
	assert.Error(t, err)
}

type recordingPublisher struct {
	events []models.FavoriteChange
}

func (r *recordingPublisher) Publish(ev models.FavoriteChange) {
	r.events = append(r.events, ev)
}

func TestPGListener_HandleSkipsBadPayload(t *testing.T) {
	pub := &recordingPublisher{}
	l := NewPGListener("postgres://unused", "favorites_changed", pub, logging.Discard())

	l.handle(`{"user_id":"u-1","op":"INSERT"}`)
	l.handle(`{}`)
	l.handle(`garbage`)

	assert.Equal(t, []models.FavoriteChange{{UserID: "u-1", Op: "INSERT"}}, pub.events)
}
