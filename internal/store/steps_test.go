package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/xreader/internal/types"
)

func TestStepOutput_SaveAndLoadLatest(t *testing.T) {
	c := NewCache(t.TempDir())

	_, err := SaveStepOutput(c, StepPosts, []types.Post{{ID: "old"}})
	require.NoError(t, err)
	path, err := SaveStepOutput(c, StepPosts, []types.Post{{ID: "new"}})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(c.Dir(), string(StepPosts)), filepath.Dir(path))

	posts, loadedFrom, err := LoadLatestStepOutput[[]types.Post](c, StepPosts)
	require.NoError(t, err)
	assert.Equal(t, path, loadedFrom)
	require.Len(t, posts, 1)
	assert.Equal(t, "new", posts[0].ID)
}

func TestStepOutput_Missing(t *testing.T) {
	c := NewCache(t.TempDir())
	_, _, err := LoadLatestStepOutput[[]types.Post](c, StepSummary)
	assert.Error(t, err)
}

func TestSaveLLMExchange(t *testing.T) {
	c := NewCache(t.TempDir())
	path, err := c.SaveLLMExchange(LLMExchange{Provider: "anthropic", Prompt: "p", Response: "r"})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"provider": "anthropic"`)
	assert.Equal(t, c.LLMCacheDir(), filepath.Dir(path))
}
