package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radpulse/radpulse-api/internal/models"
	appErrors "github.com/radpulse/radpulse-api/pkg/errors"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func studyColumns() []string {
	return []string{"id", "lab_id", "patient_id", "accession_no", "modality", "priority", "status", "version", "created_at", "updated_at"}
}

func TestStudyRepositoryGetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStudyRepository(db)

	now := time.Now()
	mock.ExpectQuery(`SELECT \* FROM studies WHERE id = \$1`).
		WithArgs("study-1").
		WillReturnRows(sqlmock.NewRows(studyColumns()).
			AddRow("study-1", "lab-1", "patient-1", "ACC001", "CT", "NORMAL", "received", 1, now, now))

	study, err := repo.GetByID(context.Background(), "study-1")
	require.NoError(t, err)
	assert.Equal(t, "study-1", study.ID)
	assert.Equal(t, models.StatusReceived, study.Status)
	assert.Equal(t, int64(1), study.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudyRepositoryGetByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStudyRepository(db)

	mock.ExpectQuery(`SELECT \* FROM studies WHERE id = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(studyColumns()))

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudyRepositoryRunCommits(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStudyRepository(db)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM studies WHERE id = \$1 FOR UPDATE`).
		WithArgs("study-1").
		WillReturnRows(sqlmock.NewRows(studyColumns()).
			AddRow("study-1", "lab-1", "patient-1", "ACC001", "CT", "NORMAL", "received", 3, now, now))
	mock.ExpectExec(`UPDATE studies SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO study_status_history`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Run(context.Background(), func(unit StudyUnit) error {
		study, err := unit.StudyForUpdate(context.Background(), "study-1")
		if err != nil {
			return err
		}
		study.Status = models.StatusPendingAssignment
		if err := unit.UpdateStudy(context.Background(), study, 3); err != nil {
			return err
		}
		assert.Equal(t, int64(4), study.Version)
		return unit.AppendStatusHistory(context.Background(), &models.StatusHistoryEntry{
			ID:       "hist-1",
			StudyID:  study.ID,
			ToStatus: study.Status,
		})
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudyRepositoryRunRollsBackOnVersionConflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStudyRepository(db)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM studies WHERE id = \$1 FOR UPDATE`).
		WithArgs("study-1").
		WillReturnRows(sqlmock.NewRows(studyColumns()).
			AddRow("study-1", "lab-1", "patient-1", "ACC001", "CT", "NORMAL", "assigned", 5, now, now))
	mock.ExpectExec(`UPDATE studies SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Run(context.Background(), func(unit StudyUnit) error {
		study, err := unit.StudyForUpdate(context.Background(), "study-1")
		if err != nil {
			return err
		}
		return unit.UpdateStudy(context.Background(), study, 4)
	})

	assert.ErrorIs(t, err, appErrors.ErrConcurrentModification)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudyRepositoryGetStatusHistoryOrdered(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStudyRepository(db)

	now := time.Now()
	mock.ExpectQuery(`SELECT \* FROM study_status_history WHERE study_id = \$1 ORDER BY created_at ASC`).
		WithArgs("study-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "study_id", "to_status", "created_at"}).
			AddRow("h1", "study-1", "received", now.Add(-time.Hour)).
			AddRow("h2", "study-1", "assigned", now))

	entries, err := repo.GetStatusHistory(context.Background(), "study-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.StatusReceived, entries[0].ToStatus)
	assert.Equal(t, models.StatusAssigned, entries[1].ToStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}
