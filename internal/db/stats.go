package db

import (
	"context"
	"fmt"
)

var targetTables = []string{
	"artists",
	"albums",
	"tracks",
	"audio_features",
	"listening_history",
}

// TableCounts returns the current row count of every target table.
func (s *Store) TableCounts(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64, len(targetTables))
	for _, table := range targetTables {
		var n int64
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s", table)
		if err := s.db.QueryRow(ctx, query).Scan(&n); err != nil {
			return nil, fmt.Errorf("counting %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}
