package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/raine/listing-generator/internal/config"
	"github.com/raine/listing-generator/internal/ebay"
	"github.com/raine/listing-generator/internal/listing"
	"github.com/raine/listing-generator/internal/pricing"
)

func main() {
	query := flag.String("q", "", "Search query")
	limit := flag.Int("limit", ebay.DefaultLimit, "Number of results")
	rawJSON := flag.Bool("json", false, "Output raw JSON only")
	flag.Parse()

	if *query == "" {
		fmt.Fprintln(os.Stderr, "Error: -q is required")
		flag.Usage()
		os.Exit(1)
	}

	config.LoadEnvFile()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	res := ebay.NewAdapter(cfg, nil).Search(context.Background(), *query, *limit)

	if *rawJSON {
		jsonBytes, _ := json.MarshalIndent(res.Value, "", "  ")
		fmt.Println(string(jsonBytes))
		return
	}

	fmt.Printf("Found %d results (source: %s, status: %s)\n", len(res.Value), res.Source, res.Status)
	if res.Reason != nil {
		fmt.Printf("Reason: %v\n", res.Reason)
	}
	fmt.Println()

	for i, c := range res.Value {
		fmt.Printf("%d. %s - %s\n", i+1, c.Title, listing.FormatPrice(c.Price))
		fmt.Printf("   %s\n", c.URL)
	}

	if len(res.Value) > 0 {
		fmt.Printf("\nSuggested price: %s\n", listing.FormatPrice(pricing.SuggestPrice(res.Value)))
	}
}
