package ebay

import (
	"context"
	"fmt"
	"time"

	"github.com/raine/listing-generator/internal/config"
	"github.com/raine/listing-generator/internal/fallback"
	"github.com/raine/listing-generator/internal/listing"
	"github.com/rs/zerolog/log"
)

// DefaultLimit is the number of comparables requested when none is given.
const DefaultLimit = 5

// Searcher is a live source of comparable listings.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]listing.Comparable, error)
}

// Adapter finds comparables through a live Searcher or the mock catalog. Live
// failures are replaced by mock data; the result is never failed.
type Adapter struct {
	live    Searcher
	mock    *MockSearcher
	reason  error
	timeout time.Duration
}

// DefaultTimeout bounds a live search when no positive timeout is given.
const DefaultTimeout = 10 * time.Second

// NewLiveAdapter returns an adapter around live. A non-positive timeout means
// DefaultTimeout.
func NewLiveAdapter(live Searcher, timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Adapter{live: live, mock: NewMockSearcher(), timeout: timeout}
}

// NewMockAdapter returns an adapter that always answers from the mock
// catalog. A nil reason marks the results OK; a non-nil reason marks them
// degraded.
func NewMockAdapter(reason error) *Adapter {
	return &Adapter{mock: NewMockSearcher(), reason: reason}
}

// NewAdapter selects the mock or live variant from cfg. cache may be nil.
func NewAdapter(cfg *config.Config, cache Cache) *Adapter {
	if cfg.EbayMock {
		log.Info().Msg("ebay mock mode enabled")
		return NewMockAdapter(nil)
	}
	if !cfg.HasEbayCredentials() {
		log.Warn().Msg("ebay credentials missing, using mock comparables")
		return NewMockAdapter(ErrMissingCredentials)
	}

	var live Searcher = NewClientFromConfig(cfg)
	if cache != nil {
		live = NewCachedSearcher(live, cache, cfg.SearchCacheTTL)
	}

	log.Info().Bool("sandbox", cfg.EbaySandbox).Msg("ebay client ready")
	return NewLiveAdapter(live, cfg.SearchTimeout)
}

// Search returns at most limit comparables for query; limit <= 0 means
// DefaultLimit.
func (a *Adapter) Search(ctx context.Context, query string, limit int) fallback.Result[[]listing.Comparable] {
	if limit <= 0 {
		limit = DefaultLimit
	}

	if a.live == nil {
		v := a.mock.Search(query, limit)
		if a.reason != nil {
			return fallback.Degraded(v, fallback.SourceMock, a.reason)
		}
		return fallback.OK(v, fallback.SourceMock)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	comparables, err := a.live.Search(ctx, query, limit)
	if err != nil {
		err = fmt.Errorf("failed to search comparables: %w", err)
		log.Warn().Err(err).Str("query", query).Msg("ebay search falling back to mock")
		return fallback.Degraded(a.mock.Search(query, limit), fallback.SourceMock, err)
	}
	if len(comparables) > limit {
		comparables = comparables[:limit]
	}

	log.Info().Str("query", query).Int("count", len(comparables)).Msg("found comparables")
	return fallback.OK(comparables, fallback.SourceLive)
}
