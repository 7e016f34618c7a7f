package recent

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPush_MovesExistingToFront(t *testing.T) {
	got := Push([]string{"a", "b", "c"}, "c", 10)
	assert.Equal(t, []string{"c", "a", "b"}, got)
}

func TestPush_TruncatesToLimit(t *testing.T) {
	got := Push([]string{"a", "b", "c"}, "d", 3)
	assert.Equal(t, []string{"d", "a", "b"}, got)
}

func TestPush_DoesNotMutateInput(t *testing.T) {
	in := []string{"a", "b"}
	_ = Push(in, "b", 5)
	assert.Equal(t, []string{"a", "b"}, in)
}

func TestPush_DropsDuplicatesFromCorruptInput(t *testing.T) {
	got := Push([]string{"a", "a", "b", "b"}, "c", 10)
	assert.Equal(t, []string{"c", "a", "b"}, got)
}

func TestPush_ZeroLimit(t *testing.T) {
	assert.Empty(t, Push([]string{"a"}, "b", 0))
}

func TestPush_HoldsOverLongSequence(t *testing.T) {
	var list []string
	for i := 0; i < 200; i++ {
		item := fmt.Sprintf("/route/%d", (i*7)%13)
		list = Push(list, item, 10)

		assert.LessOrEqual(t, len(list), 10)
		assert.Equal(t, item, list[0])
		seen := map[string]bool{}
		for _, v := range list {
			assert.False(t, seen[v], "duplicate %q", v)
			seen[v] = true
		}
	}
}
