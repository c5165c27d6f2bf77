package listing

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// MaxTitleLength is the marketplace limit for listing titles.
	MaxTitleLength = 80

	DefaultCondition = "USED_GOOD"
	Currency         = "USD"

	liveSKU = "AUTO_GENERATED_SKU"
)

// Payload is a draft listing in the shape of the eBay Sell Inventory API
// (simplified).
type Payload struct {
	SKU          string       `json:"sku"`
	Product      Product      `json:"product"`
	Availability Availability `json:"availability"`
	Price        Price        `json:"price"`
	Condition    string       `json:"condition"`
}

type Product struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type Availability struct {
	ShipToLocationAvailability ShipToLocationAvailability `json:"shipToLocationAvailability"`
}

type ShipToLocationAvailability struct {
	Quantity int `json:"quantity"`
}

// Price holds the amount as a decimal string so that no binary float reaches
// the marketplace.
type Price struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// Builder assembles listing payloads. In mock mode it generates randomized
// SKUs; otherwise every payload carries the placeholder SKU that the
// marketplace replaces on publish.
type Builder struct {
	mockSKU bool
	intN    func(n int) int
}

// NewBuilder creates a payload builder. mockSKU selects the SKU strategy.
func NewBuilder(mockSKU bool) *Builder {
	return &Builder{mockSKU: mockSKU, intN: rand.IntN}
}

// WithMockSKU returns a copy of b that generates mock SKUs.
func (b *Builder) WithMockSKU() *Builder {
	return &Builder{mockSKU: true, intN: b.intN}
}

// Build creates a listing payload. The title is truncated to MaxTitleLength
// characters without regard to word boundaries. An empty condition becomes
// DefaultCondition.
func (b *Builder) Build(title, description string, price float64, condition string) Payload {
	if condition == "" {
		condition = DefaultCondition
	}
	return Payload{
		SKU: b.sku(),
		Product: Product{
			Title:       truncate(title, MaxTitleLength),
			Description: description,
		},
		Availability: Availability{
			ShipToLocationAvailability: ShipToLocationAvailability{Quantity: 1},
		},
		Price: Price{
			Value:    FormatDecimal(price),
			Currency: Currency,
		},
		Condition: condition,
	}
}

func (b *Builder) sku() string {
	if !b.mockSKU {
		return liveSKU
	}
	return fmt.Sprintf("MOCK_SKU_%d", 100000+b.intN(900000))
}

// FormatDecimal renders a price with exactly two decimal places, rounding
// half to even like the price suggestion does.
func FormatDecimal(price float64) string {
	return decimal.NewFromFloat(price).StringFixedBank(2)
}

// InventoryCondition maps a vision condition label to the marketplace's
// inventory condition enum. Unknown labels map to DefaultCondition.
func InventoryCondition(condition string) string {
	switch strings.ToLower(strings.TrimSpace(condition)) {
	case "new":
		return "NEW"
	case "like new":
		return "LIKE_NEW"
	case "very good":
		return "USED_VERY_GOOD"
	case "good":
		return "USED_GOOD"
	case "acceptable":
		return "USED_ACCEPTABLE"
	}
	return DefaultCondition
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
