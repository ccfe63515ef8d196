package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/tubegate/tubegate/internal/repository"
)

type wordFilterRepository struct {
	db *sql.DB
}

func NewWordFilterRepository(db *sql.DB) repository.WordFilterRepository {
	return &wordFilterRepository{db: db}
}

func (r *wordFilterRepository) Add(ctx context.Context, word string) (bool, error) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return false, fmt.Errorf("word filter must not be empty")
	}
	query := `INSERT INTO word_filters (word, created_at) VALUES ($1, $2)
		ON CONFLICT (word) DO NOTHING`
	result, err := r.db.ExecContext(ctx, query, word, time.Now())
	if err != nil {
		return false, fmt.Errorf("failed to add word filter: %w", err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

func (r *wordFilterRepository) Remove(ctx context.Context, word string) (bool, error) {
	word = strings.ToLower(strings.TrimSpace(word))
	result, err := r.db.ExecContext(ctx, `DELETE FROM word_filters WHERE word = $1`, word)
	if err != nil {
		return false, fmt.Errorf("failed to remove word filter: %w", err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

func (r *wordFilterRepository) List(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT word FROM word_filters ORDER BY word`)
	if err != nil {
		return nil, fmt.Errorf("failed to query word filters: %w", err)
	}
	defer rows.Close()

	var words []string
	for rows.Next() {
		var word string
		if err := rows.Scan(&word); err != nil {
			return nil, fmt.Errorf("failed to scan word filter: %w", err)
		}
		words = append(words, word)
	}
	return words, rows.Err()
}
