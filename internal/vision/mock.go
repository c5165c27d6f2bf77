package vision

import (
	"math/rand/v2"
	"slices"

	"github.com/raine/listing-generator/internal/listing"
)

// Archetypes is the fixed catalog the mock analyzer picks from.
var Archetypes = []listing.ItemAnalysis{
	{
		Brand:               "Apple",
		Model:               "MacBook Air M2 2023",
		Category:            "Electronics > Computers",
		Condition:           listing.ConditionLikeNew,
		Features:            []string{"13-inch display", "16GB RAM", "256GB SSD", "Silver"},
		EstimatedValueRange: "$800-1000",
	},
	{
		Brand:               "Sony",
		Model:               "WH-1000XM4 Headphones",
		Category:            "Electronics > Audio",
		Condition:           listing.ConditionVeryGood,
		Features:            []string{"Noise cancelling", "Wireless", "30hr battery", "Black"},
		EstimatedValueRange: "$250-350",
	},
	{
		Brand:               "Canon",
		Model:               "EOS R6 DSLR Camera",
		Category:            "Photography > Cameras",
		Condition:           listing.ConditionGood,
		Features:            []string{"20MP full-frame", "4K video", "Mirrorless", "Body only"},
		EstimatedValueRange: "$1500-1800",
	},
	{
		Brand:               "Patagonia",
		Model:               "Down Jacket",
		Category:            "Clothing > Outerwear",
		Condition:           listing.ConditionVeryGood,
		Features:            []string{"Size Large", "Lightweight", "Blue", "Water resistant"},
		EstimatedValueRange: "$100-150",
	},
	{
		Brand:               "Dyson",
		Model:               "V15 Vacuum",
		Category:            "Home & Garden > Cleaning",
		Condition:           listing.ConditionLikeNew,
		Features:            []string{"Cordless", "HEPA filter", "60 min runtime", "Silver"},
		EstimatedValueRange: "$400-550",
	},
}

// MockAnalyzer picks an archetype uniformly at random.
type MockAnalyzer struct {
	intN func(n int) int
}

func NewMockAnalyzer() *MockAnalyzer {
	return &MockAnalyzer{intN: rand.IntN}
}

// Analyze returns a copy of a random archetype.
func (m *MockAnalyzer) Analyze() listing.ItemAnalysis {
	a := Archetypes[m.intN(len(Archetypes))]
	a.Features = slices.Clone(a.Features)
	return a
}
