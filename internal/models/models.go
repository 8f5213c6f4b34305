package models

import (
	"time"

	"github.com/google/uuid"
)

// Page is a publishable site page persisted by the storage layer.
type Page struct {
	ID        uuid.UUID  `json:"id"`
	Slug      string     `json:"slug,omitempty"`
	Title     string     `json:"title"`
	Published bool       `json:"published"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Row is the projection of one collection record that a sitemap needs.
type Row struct {
	ID        string
	Slug      string
	CreatedAt *time.Time
	UpdatedAt *time.Time
}

// LastModified prefers the update timestamp over the creation timestamp.
func (r Row) LastModified() *time.Time {
	if r.UpdatedAt != nil {
		return r.UpdatedAt
	}
	return r.CreatedAt
}
