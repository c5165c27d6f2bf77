package ebay

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/raine/listing-generator/internal/listing"
)

type mockItem struct {
	title string
	price float64
}

type mockCategory struct {
	name     string
	keywords []string
	items    []mockItem
}

// mockCategories are checked in order; the first category with a keyword
// contained in the query wins.
var mockCategories = []mockCategory{
	{
		name:     "electronics",
		keywords: []string{"laptop", "computer", "macbook", "intel"},
		items: []mockItem{
			{`Laptop 13" i7 16GB RAM`, 650},
			{`Laptop 13" i7 512GB SSD`, 720},
			{`Laptop 13" Intel Core i7`, 695},
			{"Laptop 13 inch Silver", 750},
			{`Computer Portable 13"`, 680},
		},
	},
	{
		name:     "audio",
		keywords: []string{"headphone", "audio", "speaker"},
		items: []mockItem{
			{"Wireless Over Ear Headphones", 280},
			{"Noise Cancelling Headphones Black", 265},
			{"Premium Audio Headphones", 295},
			{"Noise Cancel Headphones", 275},
			{"Wireless Headphones Premium", 320},
		},
	},
	{
		name:     "camera",
		keywords: []string{"camera", "dslr", "mirrorless"},
		items: []mockItem{
			{"Mirrorless Camera Full Frame", 1600},
			{"DSLR Camera Professional", 1750},
			{"Digital Camera Mirrorless", 1650},
			{"Full Frame Mirrorless Camera", 1550},
			{"Camera 4K Mirrorless", 1700},
		},
	},
	{
		name:     "clothing",
		keywords: []string{"jacket", "coat", "clothing"},
		items: []mockItem{
			{"Down Jacket Winter Coat", 125},
			{"Waterproof Jacket Outdoor", 135},
			{"Puffer Jacket Blue", 110},
			{"Winter Down Jacket", 140},
			{"Insulated Jacket Breathable", 130},
		},
	},
	{
		name:     "vacuum",
		keywords: []string{"vacuum", "cleaner"},
		items: []mockItem{
			{"Cordless Vacuum Cleaner", 480},
			{"Powerful Cordless Stick Vacuum", 520},
			{"Vacuum Cordless Handheld", 450},
			{"Digital Cordless Vacuum", 500},
			{"Wireless Vacuum Cleaner Pro", 490},
		},
	},
}

// MockSearcher answers searches from the fixed catalogs. Queries that match
// no keyword get a random category.
type MockSearcher struct {
	intN func(n int) int
}

func NewMockSearcher() *MockSearcher {
	return &MockSearcher{intN: rand.IntN}
}

// Search returns the first min(limit, 5) entries of the matching category.
// A non-positive limit means DefaultLimit.
func (m *MockSearcher) Search(query string, limit int) []listing.Comparable {
	if limit <= 0 {
		limit = DefaultLimit
	}

	cat := m.category(query)
	n := min(limit, len(cat.items))

	out := make([]listing.Comparable, n)
	for i := range n {
		out[i] = listing.Comparable{
			Title: cat.items[i].title,
			Price: cat.items[i].price,
			URL:   fmt.Sprintf("https://www.ebay.com/itm/mock-%d", i),
		}
	}
	return out
}

func (m *MockSearcher) category(query string) mockCategory {
	q := strings.ToLower(query)
	for _, cat := range mockCategories {
		for _, kw := range cat.keywords {
			if strings.Contains(q, kw) {
				return cat
			}
		}
	}
	return mockCategories[m.intN(len(mockCategories))]
}
