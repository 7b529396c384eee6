package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/comply/internal/db"
	"github.com/alexanderramin/comply/internal/domain"
)

// SQLiteSnapshotRepo implements CatalogueSnapshotRepo.
type SQLiteSnapshotRepo struct {
	db db.DBTX
}

func NewSQLiteSnapshotRepo(db db.DBTX) *SQLiteSnapshotRepo {
	return &SQLiteSnapshotRepo{db: db}
}

func (r *SQLiteSnapshotRepo) Save(ctx context.Context, s *domain.CatalogueSnapshot) error {
	query := `INSERT INTO catalogue_snapshots (scope, variant, org_id, payload, item_count, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(scope) DO UPDATE SET
			variant = excluded.variant,
			org_id = excluded.org_id,
			payload = excluded.payload,
			item_count = excluded.item_count,
			fetched_at = excluded.fetched_at`
	_, err := r.db.ExecContext(ctx, query,
		s.Scope,
		string(s.Variant),
		nullableString(s.OrgID),
		string(s.Payload),
		s.ItemCount,
		formatTime(s.FetchedAt),
	)
	if err != nil {
		return fmt.Errorf("saving catalogue snapshot: %w", err)
	}
	return nil
}

func (r *SQLiteSnapshotRepo) Get(ctx context.Context, scope string) (*domain.CatalogueSnapshot, error) {
	query := `SELECT scope, variant, org_id, payload, item_count, fetched_at
		FROM catalogue_snapshots WHERE scope = ?`
	s, err := scanSnapshot(r.db.QueryRowContext(ctx, query, scope))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("catalogue snapshot %q: %w", scope, ErrNotFound)
	}
	return s, err
}

func (r *SQLiteSnapshotRepo) List(ctx context.Context) ([]*domain.CatalogueSnapshot, error) {
	query := `SELECT scope, variant, org_id, payload, item_count, fetched_at
		FROM catalogue_snapshots ORDER BY fetched_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing catalogue snapshots: %w", err)
	}
	defer rows.Close()

	var out []*domain.CatalogueSnapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating catalogue snapshots: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (*domain.CatalogueSnapshot, error) {
	var (
		s          domain.CatalogueSnapshot
		variant    string
		orgID      sql.NullString
		payload    string
		fetchedStr string
	)
	if err := row.Scan(&s.Scope, &variant, &orgID, &payload, &s.ItemCount, &fetchedStr); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning catalogue snapshot: %w", err)
	}
	fetched, err := parseTime(fetchedStr)
	if err != nil {
		return nil, fmt.Errorf("parsing fetched_at: %w", err)
	}
	s.Variant = domain.CatalogueVariant(variant)
	s.OrgID = parseNullableString(orgID)
	s.Payload = []byte(payload)
	s.FetchedAt = fetched
	return &s, nil
}
