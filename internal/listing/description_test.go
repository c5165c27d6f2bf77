package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatDescription_AllFields(t *testing.T) {
	a := ItemAnalysis{
		Brand:     "Sony",
		Model:     "WH-1000XM4 Headphones",
		Category:  "Electronics > Audio",
		Condition: "Very Good",
		Features:  []string{"Noise cancelling", "Wireless"},
	}

	want := "**Category**: Electronics > Audio\n\n" +
		"**Condition**: Very Good\n\n" +
		"**Features**:\n• Noise cancelling\n• Wireless\n\n" +
		"**Brand**: Sony\n\n" +
		"**Model**: WH-1000XM4 Headphones"

	assert.Equal(t, want, FormatDescription(a))
}

func TestFormatDescription_OmitsEmptyFields(t *testing.T) {
	a := ItemAnalysis{Category: "Other", Model: "Item"}

	assert.Equal(t, "**Category**: Other\n\n**Model**: Item", FormatDescription(a))
}

func TestFormatDescription_Empty(t *testing.T) {
	assert.Equal(t, "", FormatDescription(ItemAnalysis{}))
}

func TestSearchQueryAndTitle(t *testing.T) {
	tests := []struct {
		name      string
		analysis  ItemAnalysis
		wantQuery string
		wantTitle string
	}{
		{"brand and model", ItemAnalysis{Brand: "Sony", Model: "WH-1000XM4"}, "Sony WH-1000XM4", "Sony WH-1000XM4"},
		{"model only", ItemAnalysis{Model: "Down Jacket"}, "Down Jacket", "Down Jacket"},
		{"brand only", ItemAnalysis{Brand: "Dyson"}, "Dyson", "Dyson"},
		{"neither", ItemAnalysis{}, "", "Item"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantQuery, tt.analysis.SearchQuery())
			assert.Equal(t, tt.wantTitle, tt.analysis.Title())
		})
	}
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "$280.00", FormatPrice(280))
	assert.Equal(t, "$0.00", FormatPrice(0))
	assert.Equal(t, "$1650.50", FormatPrice(1650.5))
}

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		max   int
		want  string
	}{
		{"short", "  Canon EOS R6  ", 80, "Canon EOS R6"},
		{"word boundary", "Apple MacBook Air M2 2023", 15, "Apple MacBook"},
		{"no space", "Supercalifragilistic", 5, "Super"},
		{"exact length", "abcde", 5, "abcde"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanTitle(tt.title, tt.max))
		})
	}
}
