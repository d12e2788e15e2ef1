package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/radpulse/radpulse-api/internal/models"
	appErrors "github.com/radpulse/radpulse-api/pkg/errors"
)

type DoctorRepository struct {
	db *sqlx.DB
}

func NewDoctorRepository(db *sqlx.DB) *DoctorRepository {
	return &DoctorRepository{db: db}
}

// GetWithUser joins the doctor profile with its account row so callers
// can check account state before assigning work.
func (r *DoctorRepository) GetWithUser(ctx context.Context, doctorID string) (*models.DoctorWithUser, error) {
	query := `
		SELECT d.*, u.is_active AS user_is_active, u.email AS user_email
		FROM doctors d
		JOIN users u ON u.id = d.user_id
		WHERE d.id = $1`

	var doctor models.DoctorWithUser
	err := r.db.GetContext(ctx, &doctor, query, doctorID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.ErrNotFound
	}
	if err != nil {
		return nil, appErrors.Wrap(err, "DB_ERROR", 500, "failed to fetch doctor")
	}
	return &doctor, nil
}

// List returns active doctors ordered by open workload so assignment
// screens can surface the least loaded first.
func (r *DoctorRepository) List(ctx context.Context) ([]models.DoctorWithUser, error) {
	query := `
		SELECT d.*, u.is_active AS user_is_active, u.email AS user_email
		FROM doctors d
		JOIN users u ON u.id = d.user_id
		WHERE u.is_active = TRUE
		ORDER BY (d.assigned_count - d.completed_count) ASC, d.full_name ASC`

	doctors := []models.DoctorWithUser{}
	if err := r.db.SelectContext(ctx, &doctors, query); err != nil {
		return nil, appErrors.Wrap(err, "DB_ERROR", 500, "failed to list doctors")
	}
	return doctors, nil
}
