// Package pipeline turns a photo into a persisted draft listing: analyze,
// search comparables, price, build the payload, save.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/raine/listing-generator/internal/fallback"
	"github.com/raine/listing-generator/internal/listing"
	"github.com/raine/listing-generator/internal/pricing"
	"github.com/raine/listing-generator/internal/storage"
	"github.com/rs/zerolog/log"
)

const (
	MessageSuccess = "Listing generated and saved successfully!"
	MessageFailure = "Failed to generate listing"
)

type Analyzer interface {
	Analyze(ctx context.Context, imagePath string) fallback.Result[listing.ItemAnalysis]
}

type Searcher interface {
	Search(ctx context.Context, query string, limit int) fallback.Result[[]listing.Comparable]
}

type ListingSaver interface {
	SaveListing(l *storage.NewListing) (int64, error)
}

// Draft holds the artifacts of the four generation stages.
type Draft struct {
	Analysis       listing.ItemAnalysis
	Comparables    []listing.Comparable
	SuggestedPrice float64
	Estimate       pricing.Estimate
	Payload        listing.Payload
	Warnings       []string
}

// Result is the outcome of one Process call.
type Result struct {
	Success        bool                 `json:"success"`
	ListingID      int64                `json:"listing_id"`
	Analysis       listing.ItemAnalysis `json:"analysis"`
	Comparables    []listing.Comparable `json:"comparable_listings"`
	SuggestedPrice float64              `json:"suggested_price"`
	Estimate       pricing.Estimate     `json:"price_estimate"`
	Payload        listing.Payload      `json:"payload"`
	Message        string               `json:"message"`
	Warnings       []string             `json:"warnings,omitempty"`
	Error          string               `json:"error,omitempty"`
}

// MarshalJSON encodes failures as {success, error, message} only.
func (r Result) MarshalJSON() ([]byte, error) {
	if !r.Success {
		return json.Marshal(struct {
			Success bool   `json:"success"`
			Error   string `json:"error"`
			Message string `json:"message"`
		}{r.Success, r.Error, r.Message})
	}
	type plain Result
	return json.Marshal(plain(r))
}

type Orchestrator struct {
	analyzer Analyzer
	searcher Searcher
	saver    ListingSaver
	builder  *listing.Builder
	limit    int
}

// New creates an orchestrator. limit is the number of comparables requested
// per run; non-positive means the searcher's default.
func New(analyzer Analyzer, searcher Searcher, saver ListingSaver, builder *listing.Builder, limit int) *Orchestrator {
	return &Orchestrator{
		analyzer: analyzer,
		searcher: searcher,
		saver:    saver,
		builder:  builder,
		limit:    limit,
	}
}

// Generate runs the analysis, search, pricing and payload stages without
// persisting anything.
func (o *Orchestrator) Generate(ctx context.Context, imagePath string) (*Draft, error) {
	var warnings []string

	analysisRes := o.analyzer.Analyze(ctx, imagePath)
	if analysisRes.Status == fallback.StatusFailed {
		return nil, stageError("analyze image", analysisRes.Reason)
	}
	warnings = appendWarning(warnings, "analysis", analysisRes)
	analysis := analysisRes.Value

	query := analysis.SearchQuery()
	searchRes := o.searcher.Search(ctx, query, o.limit)
	if searchRes.Status == fallback.StatusFailed {
		return nil, stageError("search comparables", searchRes.Reason)
	}
	warnings = appendWarning(warnings, "search", searchRes)
	comparables := searchRes.Value
	if comparables == nil {
		comparables = []listing.Comparable{}
	}

	price := pricing.SuggestPrice(comparables)
	estimate := pricing.Summarize(comparables)

	// Comparables that did not come from the live marketplace get a mock SKU.
	builder := o.builder
	if searchRes.Source != fallback.SourceLive {
		builder = builder.WithMockSKU()
	}
	payload := builder.Build(
		analysis.Title(),
		listing.FormatDescription(analysis),
		price,
		listing.InventoryCondition(analysis.Condition),
	)

	log.Info().
		Str("query", query).
		Str("analysisSource", string(analysisRes.Source)).
		Str("searchSource", string(searchRes.Source)).
		Int("comparables", len(comparables)).
		Float64("suggestedPrice", price).
		Msg("listing draft generated")

	return &Draft{
		Analysis:       analysis,
		Comparables:    comparables,
		SuggestedPrice: price,
		Estimate:       estimate,
		Payload:        payload,
		Warnings:       warnings,
	}, nil
}

// Process generates a draft for the image and persists it. Any stage error or
// panic stops the run before persistence and yields a failure result.
func (o *Orchestrator) Process(ctx context.Context, imagePath, filename string) (res *Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("filename", filename).Msg("pipeline panicked")
			res = failure(fmt.Errorf("panic: %v", r))
		}
	}()

	draft, err := o.Generate(ctx, imagePath)
	if err != nil {
		log.Error().Err(err).Str("filename", filename).Msg("pipeline failed")
		return failure(err)
	}

	id, err := o.saver.SaveListing(&storage.NewListing{
		Title:               draft.Analysis.Title(),
		Filename:            filename,
		Category:            draft.Analysis.Category,
		Condition:           draft.Analysis.Condition,
		Brand:               draft.Analysis.Brand,
		Model:               draft.Analysis.Model,
		Features:            draft.Analysis.Features,
		EstimatedValueRange: draft.Analysis.EstimatedValueRange,
		SuggestedPrice:      draft.SuggestedPrice,
		Comparables:         draft.Comparables,
		Payload:             draft.Payload,
	})
	if err != nil {
		log.Error().Err(err).Str("filename", filename).Msg("pipeline failed")
		return failure(err)
	}

	log.Info().Int64("listingID", id).Str("filename", filename).Msg("listing saved")

	return &Result{
		Success:        true,
		ListingID:      id,
		Analysis:       draft.Analysis,
		Comparables:    draft.Comparables,
		SuggestedPrice: draft.SuggestedPrice,
		Estimate:       draft.Estimate,
		Payload:        draft.Payload,
		Message:        MessageSuccess,
		Warnings:       draft.Warnings,
	}
}

func failure(err error) *Result {
	if err == nil {
		err = errors.New("unknown error")
	}
	return &Result{
		Success: false,
		Error:   err.Error(),
		Message: MessageFailure,
	}
}

func stageError(stage string, reason error) error {
	if reason == nil {
		return fmt.Errorf("failed to %s", stage)
	}
	return fmt.Errorf("failed to %s: %w", stage, reason)
}

func appendWarning[T any](warnings []string, stage string, r fallback.Result[T]) []string {
	if r.Status != fallback.StatusDegraded {
		return warnings
	}
	reason := "unknown reason"
	if r.Reason != nil {
		reason = r.Reason.Error()
	}
	return append(warnings, fmt.Sprintf("%s used %s data: %s", stage, r.Source, reason))
}
