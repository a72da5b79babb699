package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetFromCache(t *testing.T) {
	c := NewCache(time.Minute, time.Minute)
	c.Set("price", 12.5, time.Minute)
	c.Set("symbols", []string{"AAPL"}, time.Minute)

	price, ok := GetFromCache[float64](c, "price")
	assert.True(t, ok)
	assert.Equal(t, 12.5, price)

	symbols, ok := GetFromCache[[]string](c, "symbols")
	assert.True(t, ok)
	assert.Equal(t, []string{"AAPL"}, symbols)

	_, ok = GetFromCache[string](c, "price")
	assert.False(t, ok, "wrong type must miss")

	_, ok = GetFromCache[float64](c, "missing")
	assert.False(t, ok)

	c.Delete("price")
	_, ok = GetFromCache[float64](c, "price")
	assert.False(t, ok)
}
