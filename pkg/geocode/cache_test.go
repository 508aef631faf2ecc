package geocode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheKeyDeterministic(t *testing.T) {
	a := CacheKey("Rum Point, Grand Cayman")
	b := CacheKey("Rum Point, Grand Cayman")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestCacheKeyNormalizes(t *testing.T) {
	base := CacheKey("rum point, grand cayman")
	assert.Equal(t, base, CacheKey("Rum Point, Grand Cayman"))
	assert.Equal(t, base, CacheKey("  rum point, grand cayman\n"))
}

func TestCacheKeyDistinctQueries(t *testing.T) {
	assert.NotEqual(t, CacheKey("Rum Point"), CacheKey("Starfish Point"))
}
