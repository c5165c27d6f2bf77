package vision

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/raine/listing-generator/internal/config"
	"github.com/raine/listing-generator/internal/fallback"
	"github.com/raine/listing-generator/internal/listing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	text      string
	err       error
	calls     int
	mediaType string
	block     bool
}

func (f *fakeClient) Describe(ctx context.Context, image []byte, mediaType, instruction string) (string, error) {
	f.calls++
	f.mediaType = mediaType
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.text, f.err
}

func writeImage(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("fake image bytes"), 0o600))
	return path
}

func isArchetype(a listing.ItemAnalysis) bool {
	for _, arch := range Archetypes {
		if arch.Brand == a.Brand && arch.Model == a.Model {
			return true
		}
	}
	return false
}

func TestMediaType(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"photo.png", "image/png"},
		{"photo.PNG", "image/png"},
		{"anim.gif", "image/gif"},
		{"pic.webp", "image/webp"},
		{"photo.jpg", "image/jpeg"},
		{"photo.jpeg", "image/jpeg"},
		{"noext", "image/jpeg"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, MediaType(tt.path))
		})
	}
}

func TestParseAnalysis(t *testing.T) {
	text := "```json\n" + `{"brand":"Sony","model":"WH-1000XM4","category":"Electronics > Audio","condition":"Very Good","features":["Wireless","ANC","Black"],"estimated_value_range":"$250-350"}` + "\n```"

	a, err := ParseAnalysis(text)
	require.NoError(t, err)

	assert.Equal(t, listing.ItemAnalysis{
		Brand:               "Sony",
		Model:               "WH-1000XM4",
		Category:            "Electronics > Audio",
		Condition:           "Very Good",
		Features:            []string{"Wireless", "ANC", "Black"},
		EstimatedValueRange: "$250-350",
	}, a)
}

func TestParseAnalysis_MissingFeatures(t *testing.T) {
	a, err := ParseAnalysis(`{"brand":"Unknown","model":"Mug"}`)
	require.NoError(t, err)
	assert.Equal(t, []string{}, a.Features)
}

func TestParseAnalysis_Malformed(t *testing.T) {
	for _, text := range []string{"", "I cannot identify this item.", "{not json}", "} {"} {
		_, err := ParseAnalysis(text)
		assert.ErrorIs(t, err, ErrMalformedResponse, "text %q", text)
	}
}

func TestDefaultAnalysis(t *testing.T) {
	raw := strings.Repeat("ä", 60)

	a := DefaultAnalysis(raw)

	assert.Equal(t, "Unknown", a.Brand)
	assert.Equal(t, "Item", a.Model)
	assert.Equal(t, "Other", a.Category)
	assert.Equal(t, "Good", a.Condition)
	assert.Equal(t, "Unknown", a.EstimatedValueRange)
	require.Len(t, a.Features, 1)
	assert.Equal(t, strings.Repeat("ä", 50), a.Features[0])

	assert.Equal(t, []string{"short"}, DefaultAnalysis("short").Features)
}

func TestMockAnalyzer_ReturnsArchetypeCopies(t *testing.T) {
	m := &MockAnalyzer{intN: func(n int) int { return 1 }}

	a := m.Analyze()
	assert.Equal(t, "Sony", a.Brand)
	assert.Equal(t, "WH-1000XM4 Headphones", a.Model)

	a.Features[0] = "changed"
	assert.Equal(t, "Noise cancelling", Archetypes[1].Features[0])
}

func TestMockAnalyzer_CoversAllArchetypes(t *testing.T) {
	for i := range Archetypes {
		m := &MockAnalyzer{intN: func(n int) int { return i }}
		assert.Equal(t, Archetypes[i].Model, m.Analyze().Model)
	}
}

func TestAdapter_ConfiguredMock(t *testing.T) {
	a := NewMockAdapter(nil)

	res := a.Analyze(context.Background(), "/does/not/exist.jpg")

	assert.Equal(t, fallback.StatusOK, res.Status)
	assert.Equal(t, fallback.SourceMock, res.Source)
	assert.NoError(t, res.Reason)
	assert.True(t, isArchetype(res.Value))
}

func TestAdapter_MissingCredentials(t *testing.T) {
	a := NewMockAdapter(ErrMissingCredentials)

	res := a.Analyze(context.Background(), "/does/not/exist.jpg")

	assert.Equal(t, fallback.StatusDegraded, res.Status)
	assert.Equal(t, fallback.SourceMock, res.Source)
	assert.ErrorIs(t, res.Reason, ErrMissingCredentials)
	assert.True(t, isArchetype(res.Value))
}

func TestAdapter_Live(t *testing.T) {
	client := &fakeClient{text: `{"brand":"Canon","model":"EOS R6","category":"Cameras","condition":"Good","features":["4K"],"estimated_value_range":"$1500-1800"}`}
	a := NewLiveAdapter(client, time.Second)

	res := a.Analyze(context.Background(), writeImage(t, "camera.png"))

	assert.Equal(t, fallback.StatusOK, res.Status)
	assert.Equal(t, fallback.SourceLive, res.Source)
	assert.Equal(t, "Canon", res.Value.Brand)
	assert.Equal(t, "EOS R6", res.Value.Model)
	assert.Equal(t, "image/png", client.mediaType)
}

func TestAdapter_TransportFailureFallsBackToMock(t *testing.T) {
	client := &fakeClient{err: errors.New("502 bad gateway")}
	a := NewLiveAdapter(client, time.Second)

	res := a.Analyze(context.Background(), writeImage(t, "item.jpg"))

	assert.Equal(t, fallback.StatusDegraded, res.Status)
	assert.Equal(t, fallback.SourceMock, res.Source)
	assert.ErrorContains(t, res.Reason, "502 bad gateway")
	assert.True(t, isArchetype(res.Value))
}

func TestAdapter_MalformedResponseUsesDefaultRecord(t *testing.T) {
	client := &fakeClient{text: "Sorry, I can't help with that request right now, please try again."}
	a := NewLiveAdapter(client, time.Second)

	res := a.Analyze(context.Background(), writeImage(t, "item.jpg"))

	assert.Equal(t, fallback.StatusDegraded, res.Status)
	assert.Equal(t, fallback.SourceDefault, res.Source)
	assert.ErrorIs(t, res.Reason, ErrMalformedResponse)
	assert.Equal(t, "Unknown", res.Value.Brand)
	assert.Equal(t, "Item", res.Value.Model)
	assert.Equal(t, []string{"Sorry, I can't help with that request right now, p"}, res.Value.Features)
}

func TestAdapter_UnreadableImage(t *testing.T) {
	client := &fakeClient{}
	a := NewLiveAdapter(client, time.Second)

	res := a.Analyze(context.Background(), filepath.Join(t.TempDir(), "missing.jpg"))

	assert.Equal(t, fallback.StatusDegraded, res.Status)
	assert.Equal(t, fallback.SourceMock, res.Source)
	assert.ErrorIs(t, res.Reason, os.ErrNotExist)
	assert.Equal(t, 0, client.calls)
}

func TestAdapter_Timeout(t *testing.T) {
	client := &fakeClient{block: true}
	a := NewLiveAdapter(client, 20*time.Millisecond)

	res := a.Analyze(context.Background(), writeImage(t, "item.jpg"))

	assert.Equal(t, fallback.StatusDegraded, res.Status)
	assert.ErrorIs(t, res.Reason, context.DeadlineExceeded)
}

func TestNewLiveAdapter_NonPositiveTimeoutUsesDefault(t *testing.T) {
	assert.Equal(t, DefaultTimeout, NewLiveAdapter(&fakeClient{}, 0).timeout)
	assert.Equal(t, DefaultTimeout, NewLiveAdapter(&fakeClient{}, -time.Second).timeout)
}

func TestNewAdapter_Selection(t *testing.T) {
	t.Run("mock flag", func(t *testing.T) {
		a, err := NewAdapter(context.Background(), &config.Config{VisionMock: true, OpenAIAPIKey: "sk"}, nil)
		require.NoError(t, err)
		assert.Nil(t, a.client)
		assert.NoError(t, a.reason)
	})

	t.Run("missing key", func(t *testing.T) {
		a, err := NewAdapter(context.Background(), &config.Config{VisionProvider: config.ProviderOpenAI}, nil)
		require.NoError(t, err)
		assert.Nil(t, a.client)
		assert.ErrorIs(t, a.reason, ErrMissingCredentials)
	})

	t.Run("openai with cache", func(t *testing.T) {
		cfg := &config.Config{
			VisionProvider:  config.ProviderOpenAI,
			OpenAIAPIKey:    "sk-test",
			OpenAIModel:     "gpt-4o-mini",
			VisionCache:     true,
			VisionTimeout:   time.Second,
			VisionMaxTokens: 300,
		}
		a, err := NewAdapter(context.Background(), cfg, newMemoryCache())
		require.NoError(t, err)
		cached, ok := a.client.(*CachedClient)
		require.True(t, ok)
		assert.IsType(t, &OpenAIClient{}, cached.inner)
		assert.Equal(t, time.Second, a.timeout)
	})

	t.Run("gemini without cache", func(t *testing.T) {
		cfg := &config.Config{
			VisionProvider: config.ProviderGemini,
			GeminiAPIKey:   "g-test",
			GeminiModel:    "gemini-2.5-flash",
		}
		a, err := NewAdapter(context.Background(), cfg, nil)
		require.NoError(t, err)
		assert.IsType(t, &GeminiClient{}, a.client)
	})
}
