package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestSetGet(t *testing.T) {
	c := New(true)
	defer c.Close()

	etag := c.Set("library", []byte(`[]`), time.Minute)
	data, got, ok := c.Get("library")
	require.True(t, ok)
	assert.Equal(t, []byte(`[]`), data)
	assert.Equal(t, etag, got)
	assert.Equal(t, ComputeETag([]byte(`[]`)), etag)
}

func TestExpiredEntryMisses(t *testing.T) {
	c := New(true)
	defer c.Close()

	c.Set("k", []byte("v"), -time.Second)
	_, _, ok := c.Get("k")
	assert.False(t, ok)

	c.evict()
	assert.Equal(t, 0, c.Stats()["total_keys"])
}

func TestDisabledCache(t *testing.T) {
	c := New(false)
	etag := c.Set("k", []byte("v"), time.Minute)
	assert.NotEmpty(t, etag)

	_, _, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, false, c.Stats()["enabled"])
}

func TestPurge(t *testing.T) {
	c := New(true)
	defer c.Close()

	c.Set("a", []byte("1"), time.Minute)
	c.Set("b", []byte("2"), time.Minute)
	assert.Equal(t, 2, c.Purge())

	_, _, ok := c.Get("a")
	assert.False(t, ok)
}

func TestCloseStopsEviction(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := New(true)
	c.Close()
	c.Close()
}

func TestCheckETagMatch(t *testing.T) {
	etag := ComputeETag([]byte("body"))

	testCases := []struct {
		name   string
		header string
		want   bool
	}{
		{name: "empty", header: "", want: false},
		{name: "wildcard", header: "*", want: true},
		{name: "exact", header: etag, want: true},
		{name: "other", header: `W/"0000"`, want: false},
		{name: "list", header: `W/"0000", ` + etag, want: true},
		{name: "comma inside quotes", header: `W/"a,b"`, want: false},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, CheckETagMatch(test.header, etag))
		})
	}
}
