// Package vision turns an item photo into a structured listing.ItemAnalysis
// using a vision-capable language model, falling back to mock data when the
// model is unavailable.
package vision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/raine/listing-generator/internal/config"
	"github.com/raine/listing-generator/internal/fallback"
	"github.com/raine/listing-generator/internal/listing"
	"github.com/rs/zerolog/log"
)

var (
	// ErrMissingCredentials means the selected provider has no API key.
	ErrMissingCredentials = errors.New("vision api key not configured")
	// ErrMalformedResponse means the model answered but not with a usable JSON object.
	ErrMalformedResponse = errors.New("malformed vision response")
)

// Instruction is sent with every image.
const Instruction = `Analyze this item photo and provide a structured JSON response with:
- brand: the brand name (or "Unknown" if not identifiable)
- model: the model name or product type
- category: the most fitting eBay category
- condition: one of New, Like New, Very Good, Good, Acceptable
- features: a list of 3-5 key features
- estimated_value_range: the estimated resale value, e.g. "$25-50"

Return ONLY valid JSON, no extra text.`

const rawExcerptLength = 50

// Client is a vision model that answers an instruction about an image.
type Client interface {
	Describe(ctx context.Context, image []byte, mediaType, instruction string) (string, error)
}

// Adapter produces an ItemAnalysis for an image file. It either calls a live
// Client or substitutes mock data; it never returns a failed result.
type Adapter struct {
	client  Client
	mock    *MockAnalyzer
	reason  error
	timeout time.Duration
}

// DefaultTimeout bounds a live call when no positive timeout is given.
const DefaultTimeout = 30 * time.Second

// NewLiveAdapter returns an adapter that calls client with the given timeout.
// A non-positive timeout means DefaultTimeout.
func NewLiveAdapter(client Client, timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Adapter{client: client, mock: NewMockAnalyzer(), timeout: timeout}
}

// NewMockAdapter returns an adapter that always answers from the mock
// catalog. A nil reason marks the results OK (mock mode was asked for); a
// non-nil reason marks them degraded.
func NewMockAdapter(reason error) *Adapter {
	return &Adapter{mock: NewMockAnalyzer(), reason: reason}
}

// NewAdapter selects the mock or live variant from cfg. cache may be nil.
func NewAdapter(ctx context.Context, cfg *config.Config, cache CacheStore) (*Adapter, error) {
	if cfg.VisionMock {
		log.Info().Msg("vision mock mode enabled")
		return NewMockAdapter(nil), nil
	}
	if cfg.VisionAPIKey() == "" {
		log.Warn().Str("provider", cfg.VisionProvider).Msg("vision api key missing, using mock analysis")
		return NewMockAdapter(ErrMissingCredentials), nil
	}

	var client Client
	switch cfg.VisionProvider {
	case config.ProviderGemini:
		gc, err := NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.VisionMaxTokens)
		if err != nil {
			return nil, err
		}
		client = gc
	default:
		client = NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.VisionMaxTokens)
	}

	if cfg.VisionCache && cache != nil {
		client = NewCachedClient(client, cache, cfg.VisionModel())
	}

	log.Info().Str("provider", cfg.VisionProvider).Str("model", cfg.VisionModel()).Msg("vision client ready")
	return NewLiveAdapter(client, cfg.VisionTimeout), nil
}

// Analyze describes the image at imagePath.
//
// Mock mode yields an OK mock archetype. Missing credentials, an unreadable
// image or a failed model call yield a degraded mock archetype. A model answer
// that holds no parseable JSON object yields the degraded default record.
func (a *Adapter) Analyze(ctx context.Context, imagePath string) fallback.Result[listing.ItemAnalysis] {
	if a.client == nil {
		v := a.mock.Analyze()
		if a.reason != nil {
			return fallback.Degraded(v, fallback.SourceMock, a.reason)
		}
		return fallback.OK(v, fallback.SourceMock)
	}

	image, err := os.ReadFile(imagePath)
	if err != nil {
		err = fmt.Errorf("failed to read image: %w", err)
		log.Warn().Err(err).Str("path", imagePath).Msg("vision falling back to mock")
		return fallback.Degraded(a.mock.Analyze(), fallback.SourceMock, err)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	text, err := a.client.Describe(ctx, image, MediaType(imagePath), Instruction)
	if err != nil {
		err = fmt.Errorf("failed to analyze image: %w", err)
		log.Warn().Err(err).Str("path", imagePath).Msg("vision falling back to mock")
		return fallback.Degraded(a.mock.Analyze(), fallback.SourceMock, err)
	}

	analysis, err := ParseAnalysis(text)
	if err != nil {
		log.Warn().Err(err).Msg("vision response unusable, using default record")
		return fallback.Degraded(DefaultAnalysis(text), fallback.SourceDefault, err)
	}

	log.Info().
		Str("brand", analysis.Brand).
		Str("model", analysis.Model).
		Str("category", analysis.Category).
		Msg("image analyzed")
	return fallback.OK(analysis, fallback.SourceLive)
}

// MediaType infers the image media type from the file extension.
func MediaType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

// ParseAnalysis decodes the JSON object embedded in a model answer.
func ParseAnalysis(text string) (listing.ItemAnalysis, error) {
	jsonStr, err := extractJSONObject(text)
	if err != nil {
		return listing.ItemAnalysis{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	var a listing.ItemAnalysis
	if err := json.Unmarshal([]byte(jsonStr), &a); err != nil {
		return listing.ItemAnalysis{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if a.Features == nil {
		a.Features = []string{}
	}
	return a, nil
}

// DefaultAnalysis is the record used when the model answer cannot be parsed.
// Its only feature is the start of the raw answer.
func DefaultAnalysis(raw string) listing.ItemAnalysis {
	excerpt := raw
	if r := []rune(raw); len(r) > rawExcerptLength {
		excerpt = string(r[:rawExcerptLength])
	}
	return listing.ItemAnalysis{
		Brand:               "Unknown",
		Model:               "Item",
		Category:            "Other",
		Condition:           listing.ConditionGood,
		Features:            []string{excerpt},
		EstimatedValueRange: "Unknown",
	}
}

// extractJSONObject extracts a JSON object from text that may contain markdown
// code blocks or other formatting.
func extractJSONObject(text string) (string, error) {
	text = strings.TrimSpace(text)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON object found in response: %q", text)
	}
	return text[start : end+1], nil
}
