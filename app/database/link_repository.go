package database

import (
	"context"
	"fmt"

	"github.com/lysyi3m/rss-bsky/app/dedup"
)

// LinkRepository stores published links in sqlite
type LinkRepository struct {
	db *DB
}

var _ dedup.Backend = (*LinkRepository)(nil)

func NewLinkRepository(db *DB) *LinkRepository {
	return &LinkRepository{db: db}
}

func (r *LinkRepository) LoadLinks(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT link
		FROM published_links
		ORDER BY published_at, rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get published links: %w", err)
	}
	defer rows.Close()

	var links []string
	for rows.Next() {
		var link string
		if err := rows.Scan(&link); err != nil {
			return nil, fmt.Errorf("failed to scan link row: %w", err)
		}
		links = append(links, link)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating link rows: %w", err)
	}

	return links, nil
}

func (r *LinkRepository) AppendLink(ctx context.Context, link string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO published_links (link)
		VALUES (?)
	`, link)
	if err != nil {
		return fmt.Errorf("failed to insert published link: %w", err)
	}

	return nil
}
