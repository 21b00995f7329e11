package blueprints

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGStoreLoad(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"payload", "grouping_type"}).
		AddRow([]byte(`{"name":"AWS Configure","path":"cloud/aws","description":"AWS bootstrap","tags":["AWS"]}`), "cloud").
		AddRow([]byte(`{"name":"React SPA","path":"frontend/react","description":"React scaffold","tags":["React"]}`), nil)
	mock.ExpectQuery(`SELECT payload, grouping_type FROM blueprints`).WillReturnRows(rows)

	store := PGStore{DB: db}
	corpus, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(corpus) != 2 {
		t.Fatalf("expected 2 blueprints, got %d", len(corpus))
	}
	if corpus[0].Type != "cloud" {
		t.Fatalf("expected grouping_type override, got %q", corpus[0].Type)
	}
	if corpus[1].Type != DefaultType {
		t.Fatalf("expected default type for null grouping, got %q", corpus[1].Type)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
