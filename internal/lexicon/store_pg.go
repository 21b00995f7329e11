package lexicon

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// PGStore loads the corpus from the tech_entities table. Each row carries
// the canonical name and the full entity record as JSONB.
type PGStore struct {
	DB *sql.DB
}

// Load reads every row and validates the assembled corpus.
func (s PGStore) Load(ctx context.Context) (*Lexicon, error) {
	const query = `SELECT name, payload FROM tech_entities ORDER BY name`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("lexicon: query tech_entities: %w", err)
	}
	defer rows.Close()

	raw := make(map[string]TechEntity)
	for rows.Next() {
		var name string
		var payload []byte
		if err := rows.Scan(&name, &payload); err != nil {
			return nil, fmt.Errorf("lexicon: scan tech_entities row: %w", err)
		}
		var entity TechEntity
		if err := json.Unmarshal(payload, &entity); err != nil {
			return nil, fmt.Errorf("lexicon: decode entity %q: %w", name, err)
		}
		raw[name] = entity
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("lexicon: iterate tech_entities: %w", err)
	}
	return New(raw)
}
