package aggregator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procura/smartfill/internal/model"
)

func testDefault(text string) model.FieldDefault {
	return model.FieldDefault{
		Value:      model.TextValue(text),
		Source:     model.SourceContextual,
		Confidence: 0.8,
	}
}

func TestDefaultCache_SetAndGet(t *testing.T) {
	cache := newDefaultCache(time.Minute)
	defer cache.close()

	_, ok := cache.get(model.FieldDepartment)
	assert.False(t, ok)

	cache.set(model.FieldDepartment, testDefault("Engineering"))

	got, ok := cache.get(model.FieldDepartment)
	require.True(t, ok)
	assert.Equal(t, "Engineering", got.Value.Text)
	assert.Equal(t, 1, cache.size())
}

func TestDefaultCache_ExpiredEntryNeverReturned(t *testing.T) {
	cache := newDefaultCache(20 * time.Millisecond)
	defer cache.close()

	cache.set(model.FieldDepartment, testDefault("Engineering"))

	_, ok := cache.get(model.FieldDepartment)
	require.True(t, ok)

	time.Sleep(50 * time.Millisecond)

	_, ok = cache.get(model.FieldDepartment)
	assert.False(t, ok)
	// Lazy eviction dropped the entry on read.
	assert.Equal(t, 0, cache.size())
}

func TestDefaultCache_Invalidate(t *testing.T) {
	cache := newDefaultCache(time.Minute)
	defer cache.close()

	cache.set(model.FieldDepartment, testDefault("Engineering"))
	cache.set(model.FieldCostCenter, testDefault("CC-100"))

	cache.invalidate(model.FieldDepartment)

	_, ok := cache.get(model.FieldDepartment)
	assert.False(t, ok)
	_, ok = cache.get(model.FieldCostCenter)
	assert.True(t, ok, "invalidation must not touch other fields")
}

func TestDefaultCache_Clear(t *testing.T) {
	cache := newDefaultCache(time.Minute)
	defer cache.close()

	cache.set(model.FieldDepartment, testDefault("Engineering"))
	cache.set(model.FieldCostCenter, testDefault("CC-100"))

	cache.clear()
	assert.Equal(t, 0, cache.size())
}

func TestDefaultCache_SetRefreshesExpiry(t *testing.T) {
	cache := newDefaultCache(60 * time.Millisecond)
	defer cache.close()

	cache.set(model.FieldDepartment, testDefault("Engineering"))
	time.Sleep(40 * time.Millisecond)

	cache.set(model.FieldDepartment, testDefault("Operations"))
	time.Sleep(40 * time.Millisecond)

	// 80ms after the first set but only 40ms after the refresh.
	got, ok := cache.get(model.FieldDepartment)
	require.True(t, ok)
	assert.Equal(t, "Operations", got.Value.Text)
}
