package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/raine/listing-generator/internal/listing"
)

// NewListing is the bundle persisted at the end of a successful pipeline run.
type NewListing struct {
	Title               string
	Filename            string
	Category            string
	Condition           string
	Brand               string
	Model               string
	Features            []string
	EstimatedValueRange string
	SuggestedPrice      float64
	Comparables         []listing.Comparable
	Payload             listing.Payload
}

// Listing is a stored listing with its generated artifacts.
type Listing struct {
	ID                  int64                `json:"id"`
	Title               string               `json:"title"`
	Filename            string               `json:"filename"`
	Category            string               `json:"category"`
	Condition           string               `json:"condition"`
	Brand               string               `json:"brand"`
	Model               string               `json:"model"`
	Features            []string             `json:"features"`
	EstimatedValueRange string               `json:"estimated_value_range"`
	SuggestedPrice      float64              `json:"suggested_price"`
	Comparables         []listing.Comparable `json:"comparable_listings"`
	Payload             *listing.Payload     `json:"payload"`
	Status              listing.Status       `json:"status"`
	CreatedAt           time.Time            `json:"created_at"`
	UpdatedAt           time.Time            `json:"updated_at"`
}

// ListingSummary is the row shape returned by ListListings.
type ListingSummary struct {
	ID             int64          `json:"id"`
	Title          string         `json:"title"`
	Category       string         `json:"category"`
	SuggestedPrice float64        `json:"suggested_price"`
	Status         listing.Status `json:"status"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Stats counts stored listings by status.
type Stats struct {
	Total     int `json:"total"`
	Drafts    int `json:"drafts"`
	Published int `json:"published"`
}

// SaveListing inserts a new draft listing and returns its ID.
func (s *SQLiteStore) SaveListing(l *NewListing) (int64, error) {
	features, err := json.Marshal(nonNil(l.Features))
	if err != nil {
		return 0, fmt.Errorf("failed to marshal features: %w", err)
	}
	comparables, err := json.Marshal(nonNil(l.Comparables))
	if err != nil {
		return 0, fmt.Errorf("failed to marshal comparables: %w", err)
	}
	payload, err := json.Marshal(l.Payload)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal payload: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	result, err := s.db.Exec(`
		INSERT INTO listings (
			title, filename, category, condition, brand, model, features,
			estimated_value_range, suggested_price, comparable_listings, payload,
			status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, l.Title, l.Filename, l.Category, l.Condition, l.Brand, l.Model, string(features),
		l.EstimatedValueRange, l.SuggestedPrice, string(comparables), string(payload),
		string(listing.StatusDraft), now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to insert listing: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get listing id: %w", err)
	}
	return id, nil
}

// ListListings returns all listings, newest first.
func (s *SQLiteStore) ListListings() ([]ListingSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, title, category, suggested_price, status, created_at
		FROM listings ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer rows.Close()

	listings := []ListingSummary{}
	for rows.Next() {
		var l ListingSummary
		var category sql.NullString
		var price sql.NullFloat64
		var status string
		if err := rows.Scan(&l.ID, &l.Title, &category, &price, &status, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		l.Category = category.String
		l.SuggestedPrice = price.Float64
		l.Status = listing.Status(status)
		listings = append(listings, l)
	}

	return listings, rows.Err()
}

// GetListing retrieves a listing by ID.
// Returns nil, nil if the listing doesn't exist.
func (s *SQLiteStore) GetListing(id int64) (*Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var l Listing
	var filename, category, condition, brand, model, valueRange sql.NullString
	var features, comparables, payload sql.NullString
	var price sql.NullFloat64
	var status string

	err := s.db.QueryRow(`
		SELECT id, title, filename, category, condition, brand, model, features,
			estimated_value_range, suggested_price, comparable_listings, payload,
			status, created_at, updated_at
		FROM listings WHERE id = ?
	`, id).Scan(&l.ID, &l.Title, &filename, &category, &condition, &brand, &model, &features,
		&valueRange, &price, &comparables, &payload, &status, &l.CreatedAt, &l.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query listing: %w", err)
	}

	l.Filename = filename.String
	l.Category = category.String
	l.Condition = condition.String
	l.Brand = brand.String
	l.Model = model.String
	l.EstimatedValueRange = valueRange.String
	l.SuggestedPrice = price.Float64
	l.Status = listing.Status(status)

	if err := unmarshalColumn(features, &l.Features); err != nil {
		return nil, fmt.Errorf("failed to unmarshal features: %w", err)
	}
	if err := unmarshalColumn(comparables, &l.Comparables); err != nil {
		return nil, fmt.Errorf("failed to unmarshal comparables: %w", err)
	}
	if payload.Valid && payload.String != "" {
		var p listing.Payload
		if err := json.Unmarshal([]byte(payload.String), &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
		}
		l.Payload = &p
	}

	return &l, nil
}

// UpdateListingStatus sets the status of a listing and bumps updated_at.
func (s *SQLiteStore) UpdateListingStatus(id int64, status listing.Status) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec(
		"UPDATE listings SET status = ?, updated_at = ? WHERE id = ?",
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update listing status: %w", err)
	}
	return requireAffected(result)
}

// DeleteListing removes a listing by ID.
func (s *SQLiteStore) DeleteListing(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec("DELETE FROM listings WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	return requireAffected(result)
}

// Stats returns listing counts by status.
func (s *SQLiteStore) Stats() (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st Stats
	err := s.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0)
		FROM listings
	`, string(listing.StatusDraft), string(listing.StatusPublished)).Scan(&st.Total, &st.Drafts, &st.Published)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to query stats: %w", err)
	}
	return st, nil
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return ErrListingNotFound
	}
	return nil
}

func unmarshalColumn[T any](col sql.NullString, dst *[]T) error {
	*dst = []T{}
	if !col.Valid || col.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(col.String), dst)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
