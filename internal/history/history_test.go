package history

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rajivgeraev/aqar/internal/kvstore"
)

func newNavigation() *Navigation {
	return NewNavigation(kvstore.New(kvstore.NewMemory(0)))
}

func TestRecord_RevisitMovesToFront(t *testing.T) {
	n := newNavigation()

	n.Record("/properties?search=villa")
	n.Record("/favorites")
	n.Record("/properties?search=villa")

	assert.Equal(t, []string{"/properties?search=villa", "/favorites"}, n.List())
}

func TestRecord_SameRouteIsIdempotent(t *testing.T) {
	n := newNavigation()

	n.Record("/cars")
	n.Record("/cars")
	n.Record("/cars")

	assert.Equal(t, []string{"/cars"}, n.List())
}

func TestRecord_CapsAtMaxEntries(t *testing.T) {
	n := newNavigation()

	for i := 0; i < 25; i++ {
		n.Record(fmt.Sprintf("/listing/%d", i))
	}

	list := n.List()
	assert.Len(t, list, MaxEntries)
	assert.Equal(t, "/listing/24", list[0])
	assert.Equal(t, "/listing/15", list[MaxEntries-1])
}

func TestClear(t *testing.T) {
	n := newNavigation()
	n.Record("/furniture")

	n.Clear()

	assert.Empty(t, n.List())
}

func TestList_EmptyWhenNothingStored(t *testing.T) {
	assert.Equal(t, []string{}, newNavigation().List())
}
