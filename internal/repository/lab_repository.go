package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/radpulse/radpulse-api/internal/models"
	appErrors "github.com/radpulse/radpulse-api/pkg/errors"
)

type LabRepository struct {
	db *sqlx.DB
}

func NewLabRepository(db *sqlx.DB) *LabRepository {
	return &LabRepository{db: db}
}

func (r *LabRepository) GetByID(ctx context.Context, labID string) (*models.Lab, error) {
	var lab models.Lab
	err := r.db.GetContext(ctx, &lab, `SELECT * FROM labs WHERE id = $1`, labID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.ErrNotFound
	}
	if err != nil {
		return nil, appErrors.Wrap(err, "DB_ERROR", 500, "failed to fetch lab")
	}
	return &lab, nil
}

func (r *LabRepository) List(ctx context.Context) ([]models.Lab, error) {
	labs := []models.Lab{}
	if err := r.db.SelectContext(ctx, &labs, `SELECT * FROM labs WHERE is_active = TRUE ORDER BY name ASC`); err != nil {
		return nil, appErrors.Wrap(err, "DB_ERROR", 500, "failed to list labs")
	}
	return labs, nil
}
