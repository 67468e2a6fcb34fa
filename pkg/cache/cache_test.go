package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSetGet(t *testing.T) {
	c := New(Options{DefaultExpiration: time.Minute})
	defer c.Close()

	c.Set("a", 1)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestExpiration(t *testing.T) {
	c := New(Options{})
	defer c.Close()

	c.SetWithExpiration("short", "x", time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get("short")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Count())

	c.DeleteExpired()
	assert.Equal(t, 0, c.Count())
}

func TestEvictsWhenFull(t *testing.T) {
	c := New(Options{MaxItems: 2})
	defer c.Close()

	var evicted []string
	c.SetOnEvicted(func(k string, _ any) { evicted = append(evicted, k) })

	c.SetWithExpiration("soon", 1, time.Minute)
	c.SetWithExpiration("later", 2, time.Hour)
	c.SetWithExpiration("new", 3, time.Hour)

	assert.Equal(t, 2, c.Count())
	assert.Equal(t, []string{"soon"}, evicted)
	_, ok := c.Get("later")
	assert.True(t, ok)
}

func TestOverwriteDoesNotEvict(t *testing.T) {
	c := New(Options{MaxItems: 1})
	defer c.Close()

	c.Set("a", 1)
	c.Set("a", 2)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}
