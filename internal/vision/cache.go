package vision

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/raine/listing-generator/internal/storage"
	"github.com/rs/zerolog/log"
)

// CacheStore persists raw model answers by image hash.
type CacheStore interface {
	GetVisionCache(imageHash string) (*storage.VisionCacheEntry, error)
	SetVisionCache(imageHash string, entry *storage.VisionCacheEntry) error
}

// CachedClient wraps a Client with a response cache. Cache failures are
// logged and otherwise ignored.
type CachedClient struct {
	inner Client
	store CacheStore
	model string
}

func NewCachedClient(inner Client, store CacheStore, model string) *CachedClient {
	return &CachedClient{inner: inner, store: store, model: model}
}

// hashImage hashes the image together with its media type and the model that
// answered. Each variable-length field is prefixed with its length.
func hashImage(image []byte, mediaType, model string) string {
	h := sha256.New()
	for _, field := range [][]byte{image, []byte(mediaType), []byte(model)} {
		binary.Write(h, binary.LittleEndian, int64(len(field)))
		h.Write(field)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (c *CachedClient) Describe(ctx context.Context, image []byte, mediaType, instruction string) (string, error) {
	hash := hashImage(image, mediaType, c.model)

	cached, err := c.store.GetVisionCache(hash)
	if err != nil {
		log.Warn().Err(err).Msg("failed to check vision cache")
	} else if cached != nil {
		log.Debug().Str("hash", hash[:16]).Msg("vision cache hit")
		return cached.Response, nil
	}

	text, err := c.inner.Describe(ctx, image, mediaType, instruction)
	if err != nil {
		return "", err
	}

	// Only cache answers that parse; a malformed answer may be transient
	if _, perr := ParseAnalysis(text); perr == nil {
		if err := c.store.SetVisionCache(hash, &storage.VisionCacheEntry{Response: text, Model: c.model}); err != nil {
			log.Warn().Err(err).Msg("failed to cache vision result")
		} else {
			log.Debug().Str("hash", hash[:16]).Msg("cached vision result")
		}
	}

	return text, nil
}
