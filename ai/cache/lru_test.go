package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUCacheBasic(t *testing.T) {
	testCases := []struct {
		name     string
		capacity int
		sets     map[string]string
		getKey   string
		wantVal  string
		wantOK   bool
	}{
		{
			name:     "hit",
			capacity: 10,
			sets:     map[string]string{"a": "1", "b": "2"},
			getKey:   "a",
			wantVal:  "1",
			wantOK:   true,
		},
		{
			name:     "miss",
			capacity: 10,
			sets:     map[string]string{"a": "1"},
			getKey:   "z",
			wantOK:   false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewLRUCache[string, string](tc.capacity, time.Minute)
			for k, v := range tc.sets {
				c.Set(k, v, 0)
			}

			got, ok := c.Get(tc.getKey)
			assert.Equal(t, tc.wantOK, ok)
			if tc.wantOK {
				assert.Equal(t, tc.wantVal, got)
			}
		})
	}
}

func TestLRUCacheEviction(t *testing.T) {
	c := NewLRUCache[string, int](3, time.Minute)
	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("k%d", i), i, 0)
	}
	require.Equal(t, 3, c.Size())

	// Touch k0 so k1 becomes the oldest
	_, ok := c.Get("k0")
	require.True(t, ok)

	c.Set("k3", 3, 0)
	assert.Equal(t, 3, c.Size())
	assert.True(t, c.Contains("k0"), "recently used entry must survive eviction")
	assert.False(t, c.Contains("k1"), "least recently used entry must be evicted")
}

func TestLRUCacheTTL(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewLRUCacheWithClock[string, string](10, time.Minute, clock)

	c.Set("short", "v", 10*time.Second)
	c.Set("long", "v", 10*time.Minute)

	clock.Advance(30 * time.Second)

	_, ok := c.Get("short")
	assert.False(t, ok, "expired entry must not be returned")
	_, ok = c.Get("long")
	assert.True(t, ok)

	clock.Advance(time.Hour)
	removed := c.CleanupExpired()
	assert.Equal(t, 1, removed)
	assert.Equal(t, 0, c.Size())
}

func TestLRUCacheInvalidate(t *testing.T) {
	testCases := []struct {
		name        string
		pattern     string
		wantRemoved int
		wantLeft    int
	}{
		{name: "exact", pattern: "op:alice:a", wantRemoved: 1, wantLeft: 2},
		{name: "wildcard", pattern: "op:alice:*", wantRemoved: 2, wantLeft: 1},
		{name: "no match", pattern: "op:carol:*", wantRemoved: 0, wantLeft: 3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewLRUCache[string, string](10, time.Minute)
			c.Set("op:alice:a", "1", 0)
			c.Set("op:alice:b", "2", 0)
			c.Set("op:bob:a", "3", 0)

			removed := c.Invalidate(tc.pattern)
			assert.Equal(t, tc.wantRemoved, removed)
			assert.Equal(t, tc.wantLeft, c.Size())
		})
	}
}
