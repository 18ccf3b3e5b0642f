package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// LLMExchange represents a prompt/response pair for caching
type LLMExchange struct {
	Timestamp time.Time `json:"timestamp"`
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
	Prompt    string    `json:"prompt"`
	Response  string    `json:"response"`
	Error     string    `json:"error,omitempty"`
}

// LLMCacheDir returns the path to the LLM cache directory.
func (c *Cache) LLMCacheDir() string {
	return filepath.Join(c.dir, "llm")
}

// SaveLLMExchange writes an exchange to a timestamped file and returns its path.
func (c *Cache) SaveLLMExchange(exchange LLMExchange) (string, error) {
	dir := c.LLMCacheDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, generateFilename(".json"))

	data, err := json.MarshalIndent(exchange, "", "  ")
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}

	return path, nil
}
