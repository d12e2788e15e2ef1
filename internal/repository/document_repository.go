package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/radpulse/radpulse-api/internal/models"
	appErrors "github.com/radpulse/radpulse-api/pkg/errors"
)

type DocumentRepository struct {
	db *sqlx.DB
}

func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	query := `
		INSERT INTO documents (id, study_id, doc_type, file_name, content_type, size_bytes, storage_key, uploaded_by, created_at)
		VALUES (:id, :study_id, :doc_type, :file_name, :content_type, :size_bytes, :storage_key, :uploaded_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, doc); err != nil {
		return appErrors.Wrap(err, "DB_ERROR", 500, "failed to insert document")
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, documentID string) (*models.Document, error) {
	var doc models.Document
	err := r.db.GetContext(ctx, &doc, `SELECT * FROM documents WHERE id = $1`, documentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.ErrNotFound
	}
	if err != nil {
		return nil, appErrors.Wrap(err, "DB_ERROR", 500, "failed to fetch document")
	}
	return &doc, nil
}

func (r *DocumentRepository) ListByStudy(ctx context.Context, studyID string) ([]models.Document, error) {
	docs := []models.Document{}
	query := `SELECT * FROM documents WHERE study_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &docs, query, studyID); err != nil {
		return nil, appErrors.Wrap(err, "DB_ERROR", 500, "failed to list documents")
	}
	return docs, nil
}

// LatestReport returns the newest report artifact for a study.
func (r *DocumentRepository) LatestReport(ctx context.Context, studyID string) (*models.Document, error) {
	var doc models.Document
	query := `
		SELECT * FROM documents
		WHERE study_id = $1 AND doc_type = $2
		ORDER BY created_at DESC
		LIMIT 1`
	err := r.db.GetContext(ctx, &doc, query, studyID, models.DocumentTypeReport)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.ErrNotFound
	}
	if err != nil {
		return nil, appErrors.Wrap(err, "DB_ERROR", 500, "failed to fetch report document")
	}
	return &doc, nil
}

// Delete removes the row and reports whether it existed.
func (r *DocumentRepository) Delete(ctx context.Context, documentID string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, documentID)
	if err != nil {
		return false, appErrors.Wrap(err, "DB_ERROR", 500, "failed to delete document")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, appErrors.Wrap(err, "DB_ERROR", 500, "failed to read delete result")
	}
	return rows > 0, nil
}
