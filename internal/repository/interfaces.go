package repository

import (
	"context"

	"github.com/alexanderramin/comply/internal/domain"
)

type CatalogueSnapshotRepo interface {
	// Save replaces the snapshot stored for s.Scope.
	Save(ctx context.Context, s *domain.CatalogueSnapshot) error
	Get(ctx context.Context, scope string) (*domain.CatalogueSnapshot, error)
	List(ctx context.Context) ([]*domain.CatalogueSnapshot, error)
}

type SubmissionRepo interface {
	Create(ctx context.Context, r *domain.SubmissionRecord) error
	GetByID(ctx context.Context, id string) (*domain.SubmissionRecord, error)
	ListRecent(ctx context.Context, limit int) ([]*domain.SubmissionRecord, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]*domain.SubmissionRecord, error)
	// Prune keeps the newest keep records and deletes the rest.
	Prune(ctx context.Context, keep int) (int64, error)
}

type SaveLogRepo interface {
	Create(ctx context.Context, r *domain.SaveRecord) error
	GetByID(ctx context.Context, id string) (*domain.SaveRecord, error)
	ListRecent(ctx context.Context, limit int) ([]*domain.SaveRecord, error)
	ListByAssignment(ctx context.Context, assignmentID string, limit int) ([]*domain.SaveRecord, error)
	Prune(ctx context.Context, keep int) (int64, error)
}
