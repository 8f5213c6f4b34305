package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/romangod6/sitemapgen/internal/models"
)

type Store interface {
	Initialize() error
	Close() error

	// Page operations
	CreatePage(ctx context.Context, page *models.Page) error
	GetPage(ctx context.Context, id uuid.UUID) (*models.Page, error)
	ListPages(ctx context.Context, limit, offset int) ([]*models.Page, error)

	// Collection queries used by sitemap sources
	QueryRows(ctx context.Context, sel Selection) ([]models.Row, error)
}

// Open connects to the database named by driver ("sqlite3" or "postgres").
func Open(driver, dsn string) (Store, error) {
	switch driver {
	case "sqlite3", "sqlite":
		return NewSQLiteStore(dsn)
	case "postgres", "postgresql":
		return NewPostgresStore(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}
