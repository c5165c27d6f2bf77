// Package pricing derives a suggested price from comparable listings.
package pricing

import (
	"sort"

	"github.com/raine/listing-generator/internal/listing"
	"github.com/shopspring/decimal"
)

// NoData is the suggested price when there are no comparables. Real prices are
// expected to be positive, so callers can tell it apart.
const NoData = 0.00

// Estimate summarizes the comparable prices behind a suggestion.
type Estimate struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
}

// SuggestPrice returns the median price of the listings rounded to two decimal
// places (half to even), or NoData for an empty input. An even count uses the
// mean of the two middle prices. Prices are taken at their shortest decimal
// form, so 20.02 and 20.07 give 20.04.
func SuggestPrice(listings []listing.Comparable) float64 {
	if len(listings) == 0 {
		return NoData
	}
	return median(sortedPrices(listings))
}

// Summarize returns the suggestion together with the price range. The zero
// Estimate is returned for an empty input.
func Summarize(listings []listing.Comparable) Estimate {
	if len(listings) == 0 {
		return Estimate{}
	}
	prices := sortedPrices(listings)
	return Estimate{
		Count:  len(prices),
		Min:    prices[0],
		Max:    prices[len(prices)-1],
		Median: median(prices),
	}
}

func sortedPrices(listings []listing.Comparable) []float64 {
	prices := make([]float64, len(listings))
	for i, l := range listings {
		prices[i] = l.Price
	}
	sort.Float64s(prices)
	return prices
}

// median returns the rounded median of sorted prices.
func median(sorted []float64) float64 {
	n := len(sorted)
	m := decimal.NewFromFloat(sorted[n/2])
	if n%2 == 0 {
		m = decimal.NewFromFloat(sorted[n/2-1]).Add(m).Div(decimal.NewFromInt(2))
	}
	return m.RoundBank(2).InexactFloat64()
}
