package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/comply/internal/db"
	"github.com/alexanderramin/comply/internal/domain"
)

// SQLiteSubmissionRepo implements SubmissionRepo.
type SQLiteSubmissionRepo struct {
	db db.DBTX
}

func NewSQLiteSubmissionRepo(db db.DBTX) *SQLiteSubmissionRepo {
	return &SQLiteSubmissionRepo{db: db}
}

const submissionColumns = `id, user_id, org_id, codes, outcome, reason, created_at`

func (r *SQLiteSubmissionRepo) Create(ctx context.Context, rec *domain.SubmissionRecord) error {
	codes, err := encodeList(rec.Codes)
	if err != nil {
		return err
	}
	query := `INSERT INTO submissions (` + submissionColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		rec.ID,
		rec.UserID,
		nullableString(rec.OrgID),
		codes,
		string(rec.Outcome),
		rec.Reason,
		formatTime(rec.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting submission: %w", err)
	}
	return nil
}

func (r *SQLiteSubmissionRepo) GetByID(ctx context.Context, id string) (*domain.SubmissionRecord, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = ?`
	rec, err := scanSubmission(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("submission: %w", ErrNotFound)
	}
	return rec, err
}

func (r *SQLiteSubmissionRepo) ListRecent(ctx context.Context, limit int) ([]*domain.SubmissionRecord, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions
		ORDER BY created_at DESC, rowid DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, normaliseLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("listing submissions: %w", err)
	}
	defer rows.Close()
	return scanSubmissions(rows)
}

func (r *SQLiteSubmissionRepo) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.SubmissionRecord, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, userID, normaliseLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("listing submissions by user: %w", err)
	}
	defer rows.Close()
	return scanSubmissions(rows)
}

func (r *SQLiteSubmissionRepo) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	query := `DELETE FROM submissions WHERE rowid NOT IN (
		SELECT rowid FROM submissions ORDER BY created_at DESC, rowid DESC LIMIT ?)`
	res, err := r.db.ExecContext(ctx, query, keep)
	if err != nil {
		return 0, fmt.Errorf("pruning submissions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting pruned submissions: %w", err)
	}
	return n, nil
}

func scanSubmission(row rowScanner) (*domain.SubmissionRecord, error) {
	var (
		rec        domain.SubmissionRecord
		orgID      sql.NullString
		codes      string
		outcome    string
		createdStr string
	)
	if err := row.Scan(&rec.ID, &rec.UserID, &orgID, &codes, &outcome, &rec.Reason, &createdStr); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning submission: %w", err)
	}
	var err error
	if rec.Codes, err = decodeList(codes); err != nil {
		return nil, fmt.Errorf("submission %s codes: %w", rec.ID, err)
	}
	if rec.CreatedAt, err = parseTime(createdStr); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	rec.OrgID = parseNullableString(orgID)
	rec.Outcome = domain.Outcome(outcome)
	return &rec, nil
}

func scanSubmissions(rows *sql.Rows) ([]*domain.SubmissionRecord, error) {
	var out []*domain.SubmissionRecord
	for rows.Next() {
		rec, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating submissions: %w", err)
	}
	return out, nil
}
