package listing

import (
	"fmt"
	"strings"
)

// FormatDescription renders an analysis as the listing description. Sections
// appear in the order category, condition, features, brand, model; empty
// fields are omitted and sections are separated by a blank line.
func FormatDescription(a ItemAnalysis) string {
	var parts []string

	if a.Category != "" {
		parts = append(parts, fmt.Sprintf("**Category**: %s", a.Category))
	}
	if a.Condition != "" {
		parts = append(parts, fmt.Sprintf("**Condition**: %s", a.Condition))
	}
	if len(a.Features) > 0 {
		lines := make([]string, len(a.Features))
		for i, f := range a.Features {
			lines[i] = "• " + f
		}
		parts = append(parts, "**Features**:\n"+strings.Join(lines, "\n"))
	}
	if a.Brand != "" {
		parts = append(parts, fmt.Sprintf("**Brand**: %s", a.Brand))
	}
	if a.Model != "" {
		parts = append(parts, fmt.Sprintf("**Model**: %s", a.Model))
	}

	return strings.Join(parts, "\n\n")
}

// FormatPrice formats a price as US dollars, e.g. "$280.00".
func FormatPrice(price float64) string {
	return "$" + FormatDecimal(price)
}

// CleanTitle trims whitespace and shortens the title to at most maxLength
// characters, cutting at the last word boundary. This is for display; payload
// titles are truncated raw by Builder.Build.
func CleanTitle(title string, maxLength int) string {
	title = strings.TrimSpace(title)
	r := []rune(title)
	if len(r) <= maxLength {
		return title
	}
	cut := string(r[:maxLength])
	if i := strings.LastIndex(cut, " "); i >= 0 {
		return cut[:i]
	}
	return cut
}

func trimJoin(a, b string) string {
	return strings.TrimSpace(a + " " + b)
}
