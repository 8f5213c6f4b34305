package models

import (
	"time"

	"github.com/google/uuid"
)

// NewPage creates a new published page with generated UUID and timestamps
func NewPage(title, slug string) *Page {
	now := time.Now().UTC()
	return &Page{
		ID:        uuid.New(),
		Slug:      slug,
		Title:     title,
		Published: true,
		CreatedAt: now,
		UpdatedAt: &now,
	}
}
