package listing

// Conditions the vision model is asked to choose from.
const (
	ConditionNew        = "New"
	ConditionLikeNew    = "Like New"
	ConditionVeryGood   = "Very Good"
	ConditionGood       = "Good"
	ConditionAcceptable = "Acceptable"
)

// ItemAnalysis is the structured description of an item produced from a photo.
type ItemAnalysis struct {
	Brand               string   `json:"brand"`
	Model               string   `json:"model"`
	Category            string   `json:"category"`
	Condition           string   `json:"condition"`
	Features            []string `json:"features"`
	EstimatedValueRange string   `json:"estimated_value_range"`
}

// Comparable is a marketplace listing used as a pricing reference point.
type Comparable struct {
	Title string  `json:"title"`
	Price float64 `json:"price"`
	URL   string  `json:"url"`
}

// Status is the lifecycle flag of a persisted listing.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// SearchQuery builds the marketplace query for an analysis: brand and model
// joined by a space and trimmed.
func (a ItemAnalysis) SearchQuery() string {
	return trimJoin(a.Brand, a.Model)
}

// Title returns the listing title for an analysis, "Item" if both brand and
// model are empty.
func (a ItemAnalysis) Title() string {
	if t := trimJoin(a.Brand, a.Model); t != "" {
		return t
	}
	return "Item"
}
