package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/radpulse/radpulse-api/internal/models"
	appErrors "github.com/radpulse/radpulse-api/pkg/errors"
)

type PatientRepository struct {
	db *sqlx.DB
}

func NewPatientRepository(db *sqlx.DB) *PatientRepository {
	return &PatientRepository{db: db}
}

func (r *PatientRepository) GetByID(ctx context.Context, patientID string) (*models.Patient, error) {
	var patient models.Patient
	err := r.db.GetContext(ctx, &patient, `SELECT * FROM patients WHERE id = $1`, patientID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.ErrNotFound
	}
	if err != nil {
		return nil, appErrors.Wrap(err, "DB_ERROR", 500, "failed to fetch patient")
	}
	return &patient, nil
}
