package blueprints

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

// PGStore loads the corpus from the blueprints table. Each row carries the
// blueprint record as JSONB plus its grouping type.
type PGStore struct {
	DB *sql.DB
}

// Load reads every row and validates the assembled corpus.
func (s PGStore) Load(ctx context.Context) ([]Blueprint, error) {
	const query = `SELECT payload, grouping_type FROM blueprints ORDER BY grouping_type, payload->>'name'`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("blueprints: query blueprints: %w", err)
	}
	defer rows.Close()

	var out []Blueprint
	for rows.Next() {
		var payload []byte
		var groupType sql.NullString
		if err := rows.Scan(&payload, &groupType); err != nil {
			return nil, fmt.Errorf("blueprints: scan blueprints row: %w", err)
		}
		var bp Blueprint
		if err := json.Unmarshal(payload, &bp); err != nil {
			return nil, fmt.Errorf("blueprints: decode blueprint: %w", err)
		}
		if groupType.Valid && strings.TrimSpace(groupType.String) != "" {
			bp.Type = groupType.String
		}
		if strings.TrimSpace(bp.Type) == "" {
			bp.Type = DefaultType
		}
		if err := validate(bp); err != nil {
			return nil, fmt.Errorf("blueprints: %w", err)
		}
		out = append(out, bp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("blueprints: iterate blueprints: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("blueprints: empty corpus")
	}
	return out, nil
}
