package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/romangod6/sitemapgen/internal/models"
)

type PostgresStore struct {
	db *sql.DB
}

var postgresDialect = dialect{
	placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	quote:       pq.QuoteIdentifier,
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Initialize() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS pages (
            id UUID PRIMARY KEY,
            slug VARCHAR(255) UNIQUE,
            title VARCHAR(255) NOT NULL,
            published BOOLEAN NOT NULL DEFAULT TRUE,
            created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP
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

func (s *PostgresStore) CreatePage(ctx context.Context, page *models.Page) error {
	query := `
        INSERT INTO pages (id, slug, title, published, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (id) DO UPDATE SET
            slug = EXCLUDED.slug,
            title = EXCLUDED.title,
            published = EXCLUDED.published,
            updated_at = EXCLUDED.updated_at
    `

	_, err := s.db.ExecContext(ctx, query,
		page.ID,
		nilIfBlank(page.Slug),
		page.Title,
		page.Published,
		page.CreatedAt,
		nilIfZero(page.UpdatedAt),
	)

	return err
}

func (s *PostgresStore) GetPage(ctx context.Context, id uuid.UUID) (*models.Page, error) {
	query := `
        SELECT id, slug, title, published, created_at, updated_at
        FROM pages
        WHERE id = $1
    `

	page := &models.Page{}
	var slug sql.NullString
	var updated sql.NullTime

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&page.ID,
		&slug,
		&page.Title,
		&page.Published,
		&page.CreatedAt,
		&updated,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	page.Slug = slug.String
	if updated.Valid {
		page.UpdatedAt = &updated.Time
	}

	return page, nil
}

func (s *PostgresStore) ListPages(ctx context.Context, limit, offset int) ([]*models.Page, error) {
	query := `
        SELECT id, slug, title, published, created_at, updated_at
        FROM pages
        ORDER BY created_at DESC
        LIMIT $1 OFFSET $2
    `

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []*models.Page
	for rows.Next() {
		var page models.Page
		var slug sql.NullString
		var updated sql.NullTime

		if err := rows.Scan(
			&page.ID,
			&slug,
			&page.Title,
			&page.Published,
			&page.CreatedAt,
			&updated,
		); err != nil {
			return nil, err
		}

		page.Slug = slug.String
		if updated.Valid {
			page.UpdatedAt = &updated.Time
		}
		pages = append(pages, &page)
	}

	return pages, rows.Err()
}

func (s *PostgresStore) QueryRows(ctx context.Context, sel Selection) ([]models.Row, error) {
	query, args, err := buildSelect(postgresDialect, sel)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", sel.Table, err)
	}
	return scanRows(rows, sel)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
