package db

import (
	"context"
	"fmt"

	"github.com/0xhubed/agent-engineering/internal/core/domain"
)

const sqlRecordPromoted = `
		INSERT INTO promoted_urls (url, item_id, category)
		VALUES ($1, $2, $3)
		ON CONFLICT (url) DO NOTHING
	`

const sqlPromotedURLs = `SELECT url FROM promoted_urls ORDER BY promoted_at`

// RecordPromoted stores promoted resource URLs. Existing URLs are kept as
// first promoted. It returns the number of new rows.
func (db *DB) RecordPromoted(ctx context.Context, resources []domain.Resource) (int, error) {
	added := 0

	for _, r := range resources {
		tag, err := db.Pool.Exec(ctx, sqlRecordPromoted, SanitizeUTF8(r.URL), r.ItemID, string(r.Category))
		if err != nil {
			return added, fmt.Errorf("record promoted url %s: %w", r.URL, err)
		}

		added += int(tag.RowsAffected())
	}

	return added, nil
}

// PromotedURLs returns every URL ever promoted.
func (db *DB) PromotedURLs(ctx context.Context) ([]string, error) {
	rows, err := db.Pool.Query(ctx, sqlPromotedURLs)
	if err != nil {
		return nil, fmt.Errorf("get promoted urls: %w", err)
	}
	defer rows.Close()

	var urls []string

	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scan promoted url: %w", err)
		}

		urls = append(urls, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate promoted urls: %w", err)
	}

	return urls, nil
}
