package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_Getters(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("chunking.chunk_size", int64(800)))
	require.NoError(t, store.Set("llm.temperature", 0.2))
	require.NoError(t, store.Set("llm.model", "gpt-4"))

	assert.Equal(t, 800, store.GetInt("chunking.chunk_size"))
	assert.InDelta(t, 800.0, store.GetFloat("chunking.chunk_size"), 1e-9)
	assert.InDelta(t, 0.2, store.GetFloat("llm.temperature"), 1e-9)
	assert.Equal(t, "gpt-4", store.GetString("llm.model"))
}

func TestConfigStore_MissingAndWrongType(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("llm.model", 42))

	_, ok := store.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, "", store.GetString("llm.model"))
	assert.Equal(t, 0, store.GetInt("missing"))
	assert.Equal(t, 0.0, store.GetFloat("llm.model_name"))
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = store.Set(fmt.Sprintf("key.%d", n), n)
		}(i)
		go func(n int) {
			defer wg.Done()
			_ = store.GetInt(fmt.Sprintf("key.%d", n))
		}(i)
	}
	wg.Wait()

	for i := 0; i < 50; i++ {
		assert.Equal(t, i, store.GetInt(fmt.Sprintf("key.%d", i)))
	}
}
