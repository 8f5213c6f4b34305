package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewPage(t *testing.T) {
	t.Parallel()
	p := NewPage("About us", "about-us")
	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.True(t, p.Published)
	assert.Equal(t, "about-us", p.Slug)
	assert.NotNil(t, p.UpdatedAt)
	assert.Equal(t, p.CreatedAt, *p.UpdatedAt)
}

func TestRow_LastModified(t *testing.T) {
	t.Parallel()
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	updated := created.Add(48 * time.Hour)

	assert.Equal(t, &updated, Row{CreatedAt: &created, UpdatedAt: &updated}.LastModified())
	assert.Equal(t, &created, Row{CreatedAt: &created}.LastModified())
	assert.Nil(t, Row{}.LastModified())
}
