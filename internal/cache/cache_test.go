package cache

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingCleaner struct {
	calls atomic.Int32
}

func (c *countingCleaner) CleanExpired() int {
	c.calls.Add(1)
	return 1
}

func TestManager_CleansPeriodically(t *testing.T) {
	m := NewManager(nil)
	c := &countingCleaner{}
	m.Register(c)
	m.StartCleanup(5 * time.Millisecond)
	defer m.Stop()

	assert.Eventually(t, func() bool { return c.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestManager_CleanNow(t *testing.T) {
	m := NewManager(nil)
	m.Register(&countingCleaner{})
	m.Register(&countingCleaner{})
	assert.Equal(t, 2, m.CleanNow())
}

func TestManager_StopWithoutStart(t *testing.T) {
	m := NewManager(nil)
	m.Stop()
	m.Stop()
}

func TestLRUCache(t *testing.T) {
	c := NewLRUCache[int](2)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok, "least recently used key is evicted")
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	removed := c.RemoveIf(func(_ string, v int) bool { return v > 2 })
	assert.Equal(t, []string{"c"}, removed)
	assert.Equal(t, 1, c.Size())

	c.Delete("a")
	assert.Equal(t, 0, c.Size())
}
