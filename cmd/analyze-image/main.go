package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/raine/listing-generator/internal/config"
	"github.com/raine/listing-generator/internal/vision"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <image-path> [openai|gemini]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment variables:\n")
		fmt.Fprintf(os.Stderr, "  OPENAI_API_KEY - Required for OpenAI\n")
		fmt.Fprintf(os.Stderr, "  GEMINI_API_KEY - Required for Gemini\n")
		os.Exit(1)
	}
	imagePath := os.Args[1]

	config.LoadEnvFile()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(os.Args) >= 3 {
		cfg.VisionProvider = os.Args[2]
	}
	cfg.VisionMock = false

	ctx := context.Background()
	adapter, err := vision.NewAdapter(ctx, cfg, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	res := adapter.Analyze(ctx, imagePath)

	fmt.Printf("=== %s (%s, %s) ===\n", strings.ToUpper(cfg.VisionProvider), res.Source, res.Status)
	if res.Reason != nil {
		fmt.Printf("Reason: %v\n", res.Reason)
	}
	a := res.Value
	fmt.Printf("Brand: %s\n", a.Brand)
	fmt.Printf("Model: %s\n", a.Model)
	fmt.Printf("Category: %s\n", a.Category)
	fmt.Printf("Condition: %s\n", a.Condition)
	fmt.Printf("Estimated value: %s\n", a.EstimatedValueRange)
	fmt.Printf("Features:\n")
	for _, f := range a.Features {
		fmt.Printf("  - %s\n", f)
	}
}
