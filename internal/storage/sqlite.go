package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/romangod6/sitemapgen/internal/models"
)

type SQLiteStore struct {
	db *sql.DB
}

var sqliteDialect = dialect{
	placeholder: func(int) string { return "?" },
	quote: func(name string) string {
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	},
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Initialize() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS pages (
            id TEXT PRIMARY KEY,
            slug TEXT UNIQUE,
            title TEXT NOT NULL,
            published BOOLEAN NOT NULL DEFAULT 1,
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME
        )`,
		`CREATE INDEX IF NOT EXISTS idx_pages_published ON pages(published)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}

	return nil
}

func (s *SQLiteStore) CreatePage(ctx context.Context, page *models.Page) error {
	query := `
        INSERT INTO pages (id, slug, title, published, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            slug = excluded.slug,
            title = excluded.title,
            published = excluded.published,
            updated_at = excluded.updated_at
    `

	_, err := s.db.ExecContext(ctx, query,
		page.ID.String(),
		nilIfBlank(page.Slug),
		page.Title,
		page.Published,
		page.CreatedAt,
		nilIfZero(page.UpdatedAt),
	)

	return err
}

func (s *SQLiteStore) GetPage(ctx context.Context, id uuid.UUID) (*models.Page, error) {
	query := `
        SELECT id, slug, title, published, created_at, updated_at
        FROM pages
        WHERE id = ?
    `

	pages, err := s.queryPages(ctx, query, id.String())
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, nil
	}
	return pages[0], nil
}

func (s *SQLiteStore) ListPages(ctx context.Context, limit, offset int) ([]*models.Page, error) {
	query := `
        SELECT id, slug, title, published, created_at, updated_at
        FROM pages
        ORDER BY created_at DESC
        LIMIT ? OFFSET ?
    `

	return s.queryPages(ctx, query, limit, offset)
}

func (s *SQLiteStore) QueryRows(ctx context.Context, sel Selection) ([]models.Row, error) {
	query, args, err := buildSelect(sqliteDialect, sel)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", sel.Table, err)
	}
	return scanRows(rows, sel)
}

func (s *SQLiteStore) queryPages(ctx context.Context, query string, args ...interface{}) ([]*models.Page, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []*models.Page
	for rows.Next() {
		var page models.Page
		var idStr string
		var slug sql.NullString
		var updated sql.NullTime

		err := rows.Scan(
			&idStr,
			&slug,
			&page.Title,
			&page.Published,
			&page.CreatedAt,
			&updated,
		)

		if err != nil {
			return nil, err
		}

		page.ID, _ = uuid.Parse(idStr)
		page.Slug = slug.String
		if updated.Valid {
			page.UpdatedAt = &updated.Time
		}

		pages = append(pages, &page)
	}

	return pages, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nilIfBlank(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nilIfZero(t *time.Time) interface{} {
	if t == nil || t.IsZero() {
		return nil
	}
	return *t
}
