package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type sample struct{ Page int }

func TestGet(t *testing.T) {
	c := NewCache(time.Minute, time.Minute)
	c.Set("a", sample{Page: 3}, DefaultExpiration)
	c.Set("b", "text", DefaultExpiration)

	got, ok := Get[sample](c, "a")
	assert.True(t, ok)
	assert.Equal(t, 3, got.Page)

	_, ok = Get[sample](c, "b")
	assert.False(t, ok, "wrong type")

	_, ok = Get[sample](c, "missing")
	assert.False(t, ok)
	assert.Equal(t, 2, c.ItemCount())
}

func TestExpiration(t *testing.T) {
	c := NewCache(time.Minute, time.Minute)
	c.Set("short", sample{Page: 1}, time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get("short")
	assert.False(t, ok)
}
