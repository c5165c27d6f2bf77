package vision

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/openai/openai-go/option"
	"github.com/raine/listing-generator/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleAnswer = `{"brand":"Dyson","model":"V15","category":"Home","condition":"Like New","features":["Cordless"],"estimated_value_range":"$400-550"}`

func TestOpenAIClient_Describe(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		raw, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.NoError(t, json.Unmarshal(raw, &body))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": `+jsonString(sampleAnswer)+`}}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 20, "total_tokens": 30}
		}`)
	}))
	defer server.Close()

	c := NewOpenAIClient("sk-test", "gpt-4o-mini", 300, option.WithBaseURL(server.URL+"/"))

	text, err := c.Describe(context.Background(), []byte("img"), "image/png", Instruction)
	require.NoError(t, err)
	assert.Equal(t, sampleAnswer, text)

	assert.Equal(t, "gpt-4o-mini", body["model"])
	assert.EqualValues(t, 300, body["max_tokens"])

	messages := body["messages"].([]any)
	require.Len(t, messages, 1)
	parts := messages[0].(map[string]any)["content"].([]any)
	require.Len(t, parts, 2)
	assert.Equal(t, Instruction, parts[0].(map[string]any)["text"])
	imageURL := parts[1].(map[string]any)["image_url"].(map[string]any)["url"].(string)
	assert.Equal(t, "data:image/png;base64,aW1n", imageURL)
}

func TestOpenAIClient_Describe_HTTPError(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error": {"message": "boom", "type": "server_error"}}`)
	}))
	defer server.Close()

	c := NewOpenAIClient("sk-test", "gpt-4o-mini", 300, option.WithBaseURL(server.URL+"/"))

	_, err := c.Describe(context.Background(), []byte("img"), "image/jpeg", Instruction)
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestGeminiClient_Describe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "gemini-2.5-flash:generateContent"), r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"candidates": [{"content": {"role": "model", "parts": [{"text": `+jsonString(sampleAnswer)+`}]}}],
			"usageMetadata": {"promptTokenCount": 5, "candidatesTokenCount": 7, "totalTokenCount": 12}
		}`)
	}))
	defer server.Close()

	c, err := NewGeminiClientWithBaseURL(context.Background(), "g-test", "gemini-2.5-flash", 300, server.URL+"/")
	require.NoError(t, err)

	text, err := c.Describe(context.Background(), []byte("img"), "image/jpeg", Instruction)
	require.NoError(t, err)
	assert.Equal(t, sampleAnswer, text)
}

func TestGeminiClient_Describe_Empty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates": []}`)
	}))
	defer server.Close()

	c, err := NewGeminiClientWithBaseURL(context.Background(), "g-test", "gemini-2.5-flash", 300, server.URL+"/")
	require.NoError(t, err)

	_, err = c.Describe(context.Background(), []byte("img"), "image/jpeg", Instruction)
	assert.ErrorContains(t, err, "no response from Gemini")
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]*storage.VisionCacheEntry
	getErr  error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]*storage.VisionCacheEntry{}}
}

func (m *memoryCache) GetVisionCache(hash string) (*storage.VisionCacheEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.entries[hash], nil
}

func (m *memoryCache) SetVisionCache(hash string, e *storage.VisionCacheEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[hash] = e
	return nil
}

func TestCachedClient(t *testing.T) {
	inner := &fakeClient{text: sampleAnswer}
	cache := newMemoryCache()
	c := NewCachedClient(inner, cache, "gpt-4o-mini")

	first, err := c.Describe(context.Background(), []byte("img"), "image/jpeg", Instruction)
	require.NoError(t, err)
	second, err := c.Describe(context.Background(), []byte("img"), "image/jpeg", Instruction)
	require.NoError(t, err)

	assert.Equal(t, sampleAnswer, first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls)
	require.Len(t, cache.entries, 1)
	for _, e := range cache.entries {
		assert.Equal(t, "gpt-4o-mini", e.Model)
	}

	_, err = c.Describe(context.Background(), []byte("img"), "image/png", Instruction)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedClient_SkipsMalformedAndErrors(t *testing.T) {
	cache := newMemoryCache()

	malformed := &fakeClient{text: "no json here"}
	_, err := NewCachedClient(malformed, cache, "m").Describe(context.Background(), []byte("a"), "image/jpeg", Instruction)
	require.NoError(t, err)
	assert.Empty(t, cache.entries)

	failing := &fakeClient{err: errors.New("timeout")}
	_, err = NewCachedClient(failing, cache, "m").Describe(context.Background(), []byte("a"), "image/jpeg", Instruction)
	assert.Error(t, err)
	assert.Empty(t, cache.entries)
}

func TestCachedClient_CacheReadErrorFallsThrough(t *testing.T) {
	cache := newMemoryCache()
	cache.getErr = errors.New("database is locked")
	inner := &fakeClient{text: sampleAnswer}

	text, err := NewCachedClient(inner, cache, "m").Describe(context.Background(), []byte("a"), "image/jpeg", Instruction)
	require.NoError(t, err)
	assert.Equal(t, sampleAnswer, text)
	assert.Equal(t, 1, inner.calls)
}

func TestHashImage_NoBoundaryCollision(t *testing.T) {
	assert.NotEqual(t, hashImage([]byte("abc"), "image/png", "m"), hashImage([]byte("abci"), "mage/png", "m"))
	assert.NotEqual(t, hashImage([]byte("abc"), "image/png", "m"), hashImage([]byte("abc"), "image/pngm", ""))
	assert.Equal(t, hashImage([]byte("abc"), "image/png", "m"), hashImage([]byte("abc"), "image/png", "m"))
}

func TestHashImage_IncludesModel(t *testing.T) {
	assert.NotEqual(t, hashImage([]byte("abc"), "image/png", "gpt-4o-mini"), hashImage([]byte("abc"), "image/png", "gemini-2.0-flash"))
}

func TestCachedClient_DifferentModelMisses(t *testing.T) {
	cache := newMemoryCache()
	openai := &fakeClient{text: sampleAnswer}
	gemini := &fakeClient{text: sampleAnswer}

	_, err := NewCachedClient(openai, cache, "gpt-4o-mini").Describe(context.Background(), []byte("img"), "image/jpeg", Instruction)
	require.NoError(t, err)
	_, err = NewCachedClient(gemini, cache, "gemini-2.0-flash").Describe(context.Background(), []byte("img"), "image/jpeg", Instruction)
	require.NoError(t, err)

	assert.Equal(t, 1, openai.calls)
	assert.Equal(t, 1, gemini.calls)
	assert.Len(t, cache.entries, 2)
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
