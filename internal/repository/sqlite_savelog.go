package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/comply/internal/db"
	"github.com/alexanderramin/comply/internal/domain"
)

// SQLiteSaveLogRepo implements SaveLogRepo over the instance_saves table.
type SQLiteSaveLogRepo struct {
	db db.DBTX
}

func NewSQLiteSaveLogRepo(db db.DBTX) *SQLiteSaveLogRepo {
	return &SQLiteSaveLogRepo{db: db}
}

const saveColumns = `id, user_id, assignment_id, instance_ids, outcome, reason, created_at`

func (r *SQLiteSaveLogRepo) Create(ctx context.Context, rec *domain.SaveRecord) error {
	ids, err := encodeList(rec.InstanceIDs)
	if err != nil {
		return err
	}
	query := `INSERT INTO instance_saves (` + saveColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		rec.ID,
		rec.UserID,
		rec.AssignmentID,
		ids,
		string(rec.Outcome),
		rec.Reason,
		formatTime(rec.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting instance save: %w", err)
	}
	return nil
}

func (r *SQLiteSaveLogRepo) GetByID(ctx context.Context, id string) (*domain.SaveRecord, error) {
	query := `SELECT ` + saveColumns + ` FROM instance_saves WHERE id = ?`
	rec, err := scanSave(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("instance save: %w", ErrNotFound)
	}
	return rec, err
}

func (r *SQLiteSaveLogRepo) ListRecent(ctx context.Context, limit int) ([]*domain.SaveRecord, error) {
	query := `SELECT ` + saveColumns + ` FROM instance_saves
		ORDER BY created_at DESC, rowid DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, normaliseLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("listing instance saves: %w", err)
	}
	defer rows.Close()
	return scanSaves(rows)
}

func (r *SQLiteSaveLogRepo) ListByAssignment(ctx context.Context, assignmentID string, limit int) ([]*domain.SaveRecord, error) {
	query := `SELECT ` + saveColumns + ` FROM instance_saves
		WHERE assignment_id = ?
		ORDER BY created_at DESC, rowid DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, assignmentID, normaliseLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("listing instance saves by assignment: %w", err)
	}
	defer rows.Close()
	return scanSaves(rows)
}

func (r *SQLiteSaveLogRepo) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	query := `DELETE FROM instance_saves WHERE rowid NOT IN (
		SELECT rowid FROM instance_saves ORDER BY created_at DESC, rowid DESC LIMIT ?)`
	res, err := r.db.ExecContext(ctx, query, keep)
	if err != nil {
		return 0, fmt.Errorf("pruning instance saves: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting pruned instance saves: %w", err)
	}
	return n, nil
}

func scanSave(row rowScanner) (*domain.SaveRecord, error) {
	var (
		rec        domain.SaveRecord
		ids        string
		outcome    string
		createdStr string
	)
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.AssignmentID, &ids, &outcome, &rec.Reason, &createdStr); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning instance save: %w", err)
	}
	var err error
	if rec.InstanceIDs, err = decodeList(ids); err != nil {
		return nil, fmt.Errorf("instance save %s ids: %w", rec.ID, err)
	}
	if rec.CreatedAt, err = parseTime(createdStr); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	rec.Outcome = domain.Outcome(outcome)
	return &rec, nil
}

func scanSaves(rows *sql.Rows) ([]*domain.SaveRecord, error) {
	var out []*domain.SaveRecord
	for rows.Next() {
		rec, err := scanSave(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating instance saves: %w", err)
	}
	return out, nil
}
