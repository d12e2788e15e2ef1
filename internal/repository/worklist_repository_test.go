package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radpulse/radpulse-api/internal/models"
)

func strPtr(s string) *string { return &s }

func worklistColumns() []string {
	return []string{"study_id", "accession_no", "patient_code", "patient_name", "lab_id", "lab_name", "modality", "priority", "status", "created_at"}
}

func TestWorklistListUnrestrictedScope(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewWorklistRepository(db)

	now := time.Now()
	mock.ExpectQuery(`SELECT .+ FROM studies s JOIN patients p ON p\.id = s\.patient_id JOIN labs l ON l\.id = s\.lab_id ORDER BY s\.created_at DESC LIMIT \$1 OFFSET \$2`).
		WithArgs(50, 0).
		WillReturnRows(sqlmock.NewRows(worklistColumns()).
			AddRow("study-1", "ACC001", "P001", "Jane Roe", "lab-1", "City Imaging", "CT", "NORMAL", "received", now))

	scope := models.AccessScope{Role: models.RoleAdmin, UserID: "admin-1"}
	rows, err := repo.List(context.Background(), scope, WorklistFilter{}, 50, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "study-1", rows[0].StudyID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorklistListLabScope(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewWorklistRepository(db)

	mock.ExpectQuery(`WHERE s\.lab_id = \$1 AND s\.modality = \$2 ORDER BY s\.created_at DESC LIMIT \$3 OFFSET \$4`).
		WithArgs("lab-1", "MRI", 25, 25).
		WillReturnRows(sqlmock.NewRows(worklistColumns()))

	scope := models.AccessScope{Role: models.RoleLabStaff, UserID: "staff-1", LabID: strPtr("lab-1")}
	rows, err := repo.List(context.Background(), scope, WorklistFilter{Modality: "MRI"}, 25, 25)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorklistLabStaffWithoutLabSeesNothing(t *testing.T) {
	where, args := buildWhere(models.AccessScope{Role: models.RoleLabStaff, UserID: "staff-1"}, WorklistFilter{})
	assert.Equal(t, " WHERE FALSE", where)
	assert.Empty(t, args)

	db, mock := newMockDB(t)
	repo := NewWorklistRepository(db)

	mock.ExpectQuery(`WHERE FALSE ORDER BY s\.created_at DESC LIMIT \$1 OFFSET \$2`).
		WithArgs(50, 0).
		WillReturnRows(sqlmock.NewRows(worklistColumns()))

	rows, err := repo.List(context.Background(), models.AccessScope{Role: models.RoleLabStaff, UserID: "staff-1"}, WorklistFilter{}, 50, 0)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorklistListDoctorScope(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewWorklistRepository(db)

	mock.ExpectQuery(`WHERE \(EXISTS \(SELECT 1 FROM study_assignments sa WHERE sa\.study_id = s\.id AND sa\.doctor_id = \$1\) OR EXISTS \(SELECT 1 FROM documents d WHERE d\.study_id = s\.id AND d\.uploaded_by = \$2\)\)`).
		WithArgs("doc-1", "user-9", 50, 0).
		WillReturnRows(sqlmock.NewRows(worklistColumns()))

	scope := models.AccessScope{Role: models.RoleDoctor, UserID: "user-9", DoctorID: strPtr("doc-1")}
	_, err := repo.List(context.Background(), scope, WorklistFilter{}, 50, 0)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorklistStatusCounts(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewWorklistRepository(db)

	mock.ExpectQuery(`SELECT s\.status, COUNT\(\*\) AS count FROM studies s .+ GROUP BY s\.status`).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("received", 4).
			AddRow("assigned", 2).
			AddRow("final_report_downloaded", 7))

	scope := models.AccessScope{Role: models.RoleAdmin, UserID: "admin-1"}
	counts, err := repo.StatusCounts(context.Background(), scope, WorklistFilter{})
	require.NoError(t, err)
	require.Len(t, counts, 3)
	assert.Equal(t, 7, counts[2].Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorklistTATAverages(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewWorklistRepository(db)

	mock.ExpectQuery(`AVG\(\(s\.calculated_tat->>'uploadToReportMinutes'\)::bigint\) AS avg_upload_to_report`).
		WillReturnRows(sqlmock.NewRows([]string{"study_count", "reported_count", "avg_upload_to_assignment", "avg_assignment_to_report", "avg_upload_to_report", "avg_study_to_report"}).
			AddRow(10, 6, 42.5, 120.0, 162.5, nil))

	scope := models.AccessScope{Role: models.RoleAdmin, UserID: "admin-1"}
	avg, err := repo.TATAverages(context.Background(), scope, WorklistFilter{})
	require.NoError(t, err)
	assert.Equal(t, 10, avg.StudyCount)
	assert.Equal(t, 6, avg.ReportedCount)
	require.NotNil(t, avg.AvgUploadToReportMins)
	assert.InDelta(t, 162.5, *avg.AvgUploadToReportMins, 0.001)
	assert.Nil(t, avg.AvgStudyToReportMins)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorklistDateRangeUsesSelectedBasis(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewWorklistRepository(db)

	mock.ExpectQuery(`WHERE to_date\(s\.study_date, 'YYYYMMDD'\) >= \$1::date AND to_date\(s\.study_date, 'YYYYMMDD'\) < \$2::date \+ INTERVAL '1 day'`).
		WithArgs("2025-06-01", "2025-06-30").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	scope := models.AccessScope{Role: models.RoleAdmin, UserID: "admin-1"}
	total, err := repo.Count(context.Background(), scope, WorklistFilter{
		DateType: DateTypeStudy,
		From:     "2025-06-01",
		To:       "2025-06-30",
	})
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorklistOverdueCount(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewWorklistRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM studies s\s+WHERE s\.report_due_at < NOW\(\)`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	total, err := repo.OverdueCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorklistStream(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewWorklistRepository(db)

	now := time.Now()
	mock.ExpectQuery(`ORDER BY s\.created_at DESC$`).
		WillReturnRows(sqlmock.NewRows(worklistColumns()).
			AddRow("study-1", "ACC001", "P001", "Jane Roe", "lab-1", "City Imaging", "CT", "NORMAL", "assigned", now).
			AddRow("study-2", "ACC002", "P002", "John Doe", "lab-1", "City Imaging", "XR", "STAT", "received", now))

	scope := models.AccessScope{Role: models.RoleAdmin, UserID: "admin-1"}
	var seen []string
	err := repo.Stream(context.Background(), scope, WorklistFilter{}, func(row *models.WorklistRow) error {
		seen = append(seen, row.StudyID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"study-1", "study-2"}, seen)
	assert.NoError(t, mock.ExpectationsWereMet())
}
