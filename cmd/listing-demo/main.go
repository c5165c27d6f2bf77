// listing-demo runs the generation stages on a photo without persisting
// anything and prints the listing payload.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/raine/listing-generator/internal/config"
	"github.com/raine/listing-generator/internal/ebay"
	"github.com/raine/listing-generator/internal/listing"
	"github.com/raine/listing-generator/internal/pipeline"
	"github.com/raine/listing-generator/internal/pricing"
	"github.com/raine/listing-generator/internal/vision"
)

// placeholderPrice stands in for a missing suggestion so the printed payload
// looks publishable.
const placeholderPrice = 50.00

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <image-path>\n", os.Args[0])
		os.Exit(1)
	}
	imagePath := os.Args[1]

	config.LoadEnvFile()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	analyzer, err := vision.NewAdapter(ctx, cfg, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	builder := listing.NewBuilder(false)
	o := pipeline.New(analyzer, ebay.NewAdapter(cfg, nil), nil, builder, cfg.SearchLimit)

	draft, err := o.Generate(ctx, imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	payload := draft.Payload
	if draft.SuggestedPrice == pricing.NoData {
		payload.Price.Value = listing.FormatDecimal(placeholderPrice)
	}

	fmt.Printf("Item: %s\n", draft.Analysis.Title())
	fmt.Printf("Comparables: %d\n", len(draft.Comparables))
	for _, w := range draft.Warnings {
		fmt.Printf("Warning: %s\n", w)
	}
	fmt.Println()

	out, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
