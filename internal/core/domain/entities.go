package domain

import (
	"time"
)

// Fact statuses as stored in Postgres.
const (
	FactStatusPending  = "pending"
	FactStatusVerified = "verified"
	FactStatusRejected = "rejected"
)

// Fact is a geotagged story submitted by a contributor.
type Fact struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Content       string         `json:"content,omitempty"`
	Latitude      float64        `json:"latitude"`
	Longitude     float64        `json:"longitude"`
	CategoryID    string         `json:"category_id,omitempty"`
	AuthorID      string         `json:"author_id,omitempty"`
	AuthorName    string         `json:"author_name,omitempty"`
	Status        string         `json:"status"`
	VoteCountUp   int            `json:"vote_count_up"`
	VoteCountDown int            `json:"vote_count_down"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Marker converts a fact row into its map representation.
func (f Fact) Marker() FactMarker {
	return FactMarker{
		ID:         f.ID,
		Title:      f.Title,
		Latitude:   f.Latitude,
		Longitude:  f.Longitude,
		Category:   f.CategoryID,
		Verified:   f.Status == FactStatusVerified,
		VoteScore:  f.VoteCountUp - f.VoteCountDown,
		AuthorName: f.AuthorName,
		CreatedAt:  f.CreatedAt,
	}
}

// FactMarker is the read-only map-pin projection of a fact.
type FactMarker struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Category   string    `json:"category,omitempty"`
	Verified   bool      `json:"verified"`
	VoteScore  int       `json:"vote_score"`
	AuthorName string    `json:"author_name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// MarkerCluster is a derived aggregate of nearby markers for one zoom level.
// Never mutated after construction; Markers is a read-only view into the input.
type MarkerCluster struct {
	ID      string       `json:"id"`
	Center  [2]float64   `json:"center"` // [lng, lat]
	Markers []FactMarker `json:"markers,omitempty"`
	Count   int          `json:"count"`
	Bounds  Bounds       `json:"bounds"`
	Zoom    int          `json:"zoom"`
}

// Category groups facts thematically (history, legend, nature, ...).
type Category struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Vote directions.
const (
	VoteUp   = "up"
	VoteDown = "down"
)

// Reward is a contributor payout credit issued when a fact gets verified.
type Reward struct {
	ID          string     `json:"id"`
	FactID      string     `json:"fact_id"`
	UserID      string     `json:"user_id"`
	Code        string     `json:"code"`
	AmountCents int        `json:"amount_cents"`
	IssuedAt    time.Time  `json:"issued_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
	RevokedAt   *time.Time `json:"revoked_at,omitempty"`
}

// FactEvent is published to the message broker on fact lifecycle changes.
type FactEvent struct {
	Type      string    `json:"type"` // submitted | voted | verified
	FactID    string    `json:"fact_id"`
	Category  string    `json:"category,omitempty"`
	AuthorID  string    `json:"author_id,omitempty"`
	Direction string    `json:"direction,omitempty"` // for votes
	VoteScore int       `json:"vote_score,omitempty"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	At        time.Time `json:"at"`
}
