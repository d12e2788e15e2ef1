package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/radpulse/radpulse-api/internal/models"
	appErrors "github.com/radpulse/radpulse-api/pkg/errors"
)

// StudyUnit is the transactional surface for workflow mutations. All
// methods run inside one database transaction with the study row
// locked, so a transition, its history entry and its side effects
// commit or roll back together.
type StudyUnit interface {
	StudyForUpdate(ctx context.Context, studyID string) (*models.Study, error)
	UpdateStudy(ctx context.Context, study *models.Study, expectedVersion int64) error
	AppendStatusHistory(ctx context.Context, entry *models.StatusHistoryEntry) error
	AppendAssignment(ctx context.Context, assignment *models.StudyAssignment) error
	ReleaseAssignment(ctx context.Context, studyID string, releaseNote *string) error
	UpdatePatientPointer(ctx context.Context, patientID, studyID string, status models.Status) error
	BumpDoctorAssigned(ctx context.Context, doctorID string, delta int) error
	BumpDoctorCompleted(ctx context.Context, doctorID string) error
}

// StudyUnitRunner executes a function against a StudyUnit inside a
// transaction.
type StudyUnitRunner interface {
	Run(ctx context.Context, fn func(unit StudyUnit) error) error
}

type StudyRepository struct {
	db *sqlx.DB
}

func NewStudyRepository(db *sqlx.DB) *StudyRepository {
	return &StudyRepository{db: db}
}

// Create inserts a new study in its initial status along with the
// opening history entry.
func (r *StudyRepository) Create(ctx context.Context, study *models.Study) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, "DB_ERROR", 500, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO studies (
			id, lab_id, patient_id, accession_no, modality, study_desc,
			study_date, study_time, priority, status, version, calculated_tat,
			created_at, updated_at
		) VALUES (
			:id, :lab_id, :patient_id, :accession_no, :modality, :study_desc,
			:study_date, :study_time, :priority, :status, :version, :calculated_tat,
			:created_at, :updated_at
		)`
	if _, err := tx.NamedExecContext(ctx, query, study); err != nil {
		return appErrors.Wrap(err, "DB_ERROR", 500, "failed to insert study")
	}

	historyQuery := `
		INSERT INTO study_status_history (id, study_id, from_status, to_status, actor_id, actor_name, note, created_at)
		VALUES (gen_random_uuid(), $1, NULL, $2, NULL, NULL, NULL, $3)`
	if _, err := tx.ExecContext(ctx, historyQuery, study.ID, study.Status, study.CreatedAt); err != nil {
		return appErrors.Wrap(err, "DB_ERROR", 500, "failed to insert status history")
	}

	patientQuery := `
		UPDATE patients
		SET current_study_id = $1, current_status = $2, status_changed_at = $3, updated_at = NOW()
		WHERE id = $4`
	if _, err := tx.ExecContext(ctx, patientQuery, study.ID, study.Status, study.CreatedAt, study.PatientID); err != nil {
		return appErrors.Wrap(err, "DB_ERROR", 500, "failed to update patient pointer")
	}

	if err := tx.Commit(); err != nil {
		return appErrors.Wrap(err, "DB_ERROR", 500, "failed to commit transaction")
	}
	return nil
}

// GetByID fetches a single study.
func (r *StudyRepository) GetByID(ctx context.Context, studyID string) (*models.Study, error) {
	var study models.Study
	err := r.db.GetContext(ctx, &study, `SELECT * FROM studies WHERE id = $1`, studyID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.ErrNotFound
	}
	if err != nil {
		return nil, appErrors.Wrap(err, "DB_ERROR", 500, "failed to fetch study")
	}
	return &study, nil
}

// GetStatusHistory returns the audit trail oldest first.
func (r *StudyRepository) GetStatusHistory(ctx context.Context, studyID string) ([]models.StatusHistoryEntry, error) {
	entries := []models.StatusHistoryEntry{}
	query := `
		SELECT * FROM study_status_history
		WHERE study_id = $1
		ORDER BY created_at ASC, id ASC`
	if err := r.db.SelectContext(ctx, &entries, query, studyID); err != nil {
		return nil, appErrors.Wrap(err, "DB_ERROR", 500, "failed to fetch status history")
	}
	return entries, nil
}

// GetAssignments returns the assignment history newest first.
func (r *StudyRepository) GetAssignments(ctx context.Context, studyID string) ([]models.StudyAssignment, error) {
	assignments := []models.StudyAssignment{}
	query := `
		SELECT * FROM study_assignments
		WHERE study_id = $1
		ORDER BY assigned_at DESC`
	if err := r.db.SelectContext(ctx, &assignments, query, studyID); err != nil {
		return nil, appErrors.Wrap(err, "DB_ERROR", 500, "failed to fetch assignments")
	}
	return assignments, nil
}

// Run executes fn inside a transaction. Any error rolls everything
// back.
func (r *StudyRepository) Run(ctx context.Context, fn func(unit StudyUnit) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, "DB_ERROR", 500, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&studyUnit{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return appErrors.Wrap(err, "DB_ERROR", 500, "failed to commit transaction")
	}
	return nil
}

type studyUnit struct {
	tx *sqlx.Tx
}

func (u *studyUnit) StudyForUpdate(ctx context.Context, studyID string) (*models.Study, error) {
	var study models.Study
	err := u.tx.GetContext(ctx, &study, `SELECT * FROM studies WHERE id = $1 FOR UPDATE`, studyID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.ErrNotFound
	}
	if err != nil {
		return nil, appErrors.Wrap(err, "DB_ERROR", 500, "failed to lock study")
	}
	return &study, nil
}

// UpdateStudy persists the workflow columns of a mutated study. The
// WHERE clause pins the version the caller read; zero rows affected
// means another writer got there first.
func (u *studyUnit) UpdateStudy(ctx context.Context, study *models.Study, expectedVersion int64) error {
	query := `
		UPDATE studies SET
			status = :status,
			version = version + 1,
			priority = :priority,
			current_doctor_id = :current_doctor_id,
			current_doctor_name = :current_doctor_name,
			assigned_at = :assigned_at,
			report_due_at = :report_due_at,
			report_started_at = :report_started_at,
			report_drafted_at = :report_drafted_at,
			report_finalized_at = :report_finalized_at,
			report_downloaded_at = :report_downloaded_at,
			archived_at = :archived_at,
			reporter_name = :reporter_name,
			calculated_tat = :calculated_tat,
			updated_at = NOW()
		WHERE id = :id AND version = :expected_version`

	arg := struct {
		*models.Study
		ExpectedVersion int64 `db:"expected_version"`
	}{Study: study, ExpectedVersion: expectedVersion}

	result, err := u.tx.NamedExecContext(ctx, query, arg)
	if err != nil {
		return appErrors.Wrap(err, "DB_ERROR", 500, "failed to update study")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return appErrors.Wrap(err, "DB_ERROR", 500, "failed to read update result")
	}
	if rows == 0 {
		return appErrors.ErrConcurrentModification
	}

	study.Version = expectedVersion + 1
	return nil
}

func (u *studyUnit) AppendStatusHistory(ctx context.Context, entry *models.StatusHistoryEntry) error {
	query := `
		INSERT INTO study_status_history (id, study_id, from_status, to_status, actor_id, actor_name, note, created_at)
		VALUES (:id, :study_id, :from_status, :to_status, :actor_id, :actor_name, :note, :created_at)`
	if _, err := u.tx.NamedExecContext(ctx, query, entry); err != nil {
		return appErrors.Wrap(err, "DB_ERROR", 500, "failed to insert status history")
	}
	return nil
}

func (u *studyUnit) AppendAssignment(ctx context.Context, assignment *models.StudyAssignment) error {
	query := `
		INSERT INTO study_assignments (id, study_id, doctor_id, doctor_name, assigned_by, assigned_at, due_at)
		VALUES (:id, :study_id, :doctor_id, :doctor_name, :assigned_by, :assigned_at, :due_at)`
	if _, err := u.tx.NamedExecContext(ctx, query, assignment); err != nil {
		return appErrors.Wrap(err, "DB_ERROR", 500, "failed to insert assignment")
	}
	return nil
}

func (u *studyUnit) ReleaseAssignment(ctx context.Context, studyID string, releaseNote *string) error {
	query := `
		UPDATE study_assignments
		SET released_at = NOW(), release_note = $2
		WHERE study_id = $1 AND released_at IS NULL`
	if _, err := u.tx.ExecContext(ctx, query, studyID, releaseNote); err != nil {
		return appErrors.Wrap(err, "DB_ERROR", 500, "failed to release assignment")
	}
	return nil
}

func (u *studyUnit) UpdatePatientPointer(ctx context.Context, patientID, studyID string, status models.Status) error {
	query := `
		UPDATE patients
		SET current_study_id = $2, current_status = $3, status_changed_at = NOW(), updated_at = NOW()
		WHERE id = $1`
	if _, err := u.tx.ExecContext(ctx, query, patientID, studyID, status); err != nil {
		return appErrors.Wrap(err, "DB_ERROR", 500, "failed to update patient pointer")
	}
	return nil
}

func (u *studyUnit) BumpDoctorAssigned(ctx context.Context, doctorID string, delta int) error {
	query := `
		UPDATE doctors
		SET assigned_count = GREATEST(assigned_count + $2, 0), updated_at = NOW()
		WHERE id = $1`
	if _, err := u.tx.ExecContext(ctx, query, doctorID, delta); err != nil {
		return appErrors.Wrap(err, "DB_ERROR", 500, "failed to update doctor workload")
	}
	return nil
}

func (u *studyUnit) BumpDoctorCompleted(ctx context.Context, doctorID string) error {
	query := `
		UPDATE doctors
		SET completed_count = completed_count + 1, updated_at = NOW()
		WHERE id = $1`
	if _, err := u.tx.ExecContext(ctx, query, doctorID); err != nil {
		return appErrors.Wrap(err, "DB_ERROR", 500, "failed to update doctor workload")
	}
	return nil
}
