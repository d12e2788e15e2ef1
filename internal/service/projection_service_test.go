package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radpulse/radpulse-api/internal/dto"
	"github.com/radpulse/radpulse-api/internal/models"
	"github.com/radpulse/radpulse-api/pkg/config"
	appErrors "github.com/radpulse/radpulse-api/pkg/errors"
	"github.com/radpulse/radpulse-api/pkg/export"
)

func newProjectionService(source *fakeWorklistSource, cache *CacheService) *ProjectionService {
	cfg := config.WorklistConfig{MaxPageSize: 100, DefaultPageSize: 10, ProjectionTimeout: time.Second}
	return NewProjectionService(source, cache, nil, export.NewCSVExporter(), export.NewPDFExporter(), cfg, zap.NewNop())
}

func adminScope() models.AccessScope {
	return models.AccessScope{Role: models.RoleAdmin, UserID: "admin-1"}
}

func f64(v float64) *float64 { return &v }

func sampleRows() []models.WorklistRow {
	return []models.WorklistRow{
		{
			StudyID:     "study-1",
			AccessionNo: "ACC001",
			PatientCode: "PAT-88812",
			PatientName: "Jane Roe",
			LabName:     "City Imaging",
			Modality:    "CT",
			Status:      models.StatusAssigned,
			CalculatedTAT: &models.CalculatedTAT{
				UploadToAssignment: "30m",
				AssignmentToReport: "N/A",
				UploadToReport:     "N/A",
				StudyToReport:      "N/A",
			},
		},
		{
			StudyID:     "study-2",
			AccessionNo: "ACC002",
			PatientCode: "PAT-99901",
			PatientName: "John Doe",
			LabName:     "City Imaging",
			Modality:    "XR",
			Status:      models.StatusFinalDownloaded,
		},
	}
}

func TestWorklistDecoratesCategories(t *testing.T) {
	source := &fakeWorklistSource{rows: sampleRows(), total: 2}
	svc := newProjectionService(source, nil)

	rows, pagination, err := svc.Worklist(context.Background(), adminScope(), dto.WorklistQuery{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, models.CategoryInProgress, rows[0].Category)
	assert.Equal(t, models.CategoryCompleted, rows[1].Category)
	assert.Equal(t, "Jane Roe", rows[0].PatientName, "admin sees unmasked identifiers")
	assert.Equal(t, 2, pagination.Total)
	assert.Equal(t, 1, pagination.TotalPages)
}

func TestWorklistMasksIdentifiersForDoctors(t *testing.T) {
	source := &fakeWorklistSource{rows: sampleRows(), total: 2}
	svc := newProjectionService(source, nil)

	doctorID := "doc-1"
	scope := models.AccessScope{Role: models.RoleDoctor, UserID: "user-1", DoctorID: &doctorID}
	rows, _, err := svc.Worklist(context.Background(), scope, dto.WorklistQuery{})
	require.NoError(t, err)
	assert.Equal(t, "Ja****oe", rows[0].PatientName)
	assert.Equal(t, "PA*****12", rows[0].PatientCode)
}

func TestWorklistPageBoundsClamped(t *testing.T) {
	rows := make([]models.WorklistRow, 150)
	for i := range rows {
		rows[i] = models.WorklistRow{StudyID: "s", Status: models.StatusReceived}
	}
	source := &fakeWorklistSource{rows: rows, total: 150}
	svc := newProjectionService(source, nil)

	got, pagination, err := svc.Worklist(context.Background(), adminScope(), dto.WorklistQuery{PerPage: 9999})
	require.NoError(t, err)
	assert.Len(t, got, 100, "per-page capped at the configured maximum")
	assert.Equal(t, 100, pagination.PerPage)
}

func TestWorklistRejectsUnknownStatusFilter(t *testing.T) {
	svc := newProjectionService(&fakeWorklistSource{}, nil)

	_, _, err := svc.Worklist(context.Background(), adminScope(), dto.WorklistQuery{Status: "bogus"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSummaryBucketsSumToTotal(t *testing.T) {
	source := &fakeWorklistSource{counts: []models.StatusCount{
		{Status: models.StatusReceived, Count: 3},
		{Status: models.StatusPendingAssignment, Count: 2},
		{Status: models.StatusAssigned, Count: 4},
		{Status: models.StatusReportUploaded, Count: 1},
		{Status: models.StatusFinalDownloaded, Count: 5},
		{Status: models.StatusArchived, Count: 2},
	}}
	svc := newProjectionService(source, nil)

	summary, err := svc.Summary(context.Background(), adminScope(), dto.WorklistQuery{})
	require.NoError(t, err)

	assert.Equal(t, 17, summary.Total)
	assert.Equal(t, 5, summary.Categories[models.CategoryPending])
	assert.Equal(t, 5, summary.Categories[models.CategoryInProgress])
	assert.Equal(t, 5, summary.Categories[models.CategoryCompleted])
	assert.Equal(t, 2, summary.Categories[models.CategoryUnknown], "archived studies land in unknown, not completed")

	sum := 0
	for _, n := range summary.Categories {
		sum += n
	}
	assert.Equal(t, summary.Total, sum)
}

func TestTATReportFormatsAverages(t *testing.T) {
	source := &fakeWorklistSource{
		rows:  sampleRows(),
		total: 2,
		averages: &models.TATAverages{
			StudyCount:                2,
			ReportedCount:             1,
			AvgUploadToAssignmentMins: f64(30.2),
			AvgAssignmentToReportMins: f64(90.4),
			AvgUploadToReportMins:     f64(120.6),
		},
	}
	svc := newProjectionService(source, nil)

	report, pagination, err := svc.TATReport(context.Background(), adminScope(), dto.TATReportQuery{})
	require.NoError(t, err)

	assert.Equal(t, "30m", report.FormattedAverages["uploadToAssignment"])
	assert.Equal(t, "1h 30m", report.FormattedAverages["assignmentToReport"])
	assert.Equal(t, "2h 1m", report.FormattedAverages["uploadToReport"])
	assert.Equal(t, "N/A", report.FormattedAverages["studyToReport"])
	assert.Equal(t, 2, pagination.Total)
}

func TestExportTATStreamsCSV(t *testing.T) {
	source := &fakeWorklistSource{rows: sampleRows()}
	svc := newProjectionService(source, nil)

	var buf bytes.Buffer
	err := svc.ExportTAT(context.Background(), adminScope(), dto.TATReportQuery{}, "csv", &buf)
	require.NoError(t, err)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, exportHeaders, records[0])
	assert.Equal(t, "ACC001", records[1][0])
	assert.Equal(t, "30m", records[1][8])
	assert.Equal(t, "N/A", records[2][8], "missing snapshot renders N/A")
}

func TestProjectionTimeoutMapped(t *testing.T) {
	source := &fakeWorklistSource{err: context.DeadlineExceeded}
	svc := newProjectionService(source, nil)

	_, _, err := svc.Worklist(context.Background(), adminScope(), dto.WorklistQuery{})
	assert.ErrorIs(t, err, appErrors.ErrProjectionTimeout)
}

func TestWorklistServedFromCache(t *testing.T) {
	store := newFakeCacheStore()
	cacheCfg := config.CacheConfig{Enabled: true, DefaultTTL: time.Minute, WorklistTTL: time.Minute}
	cacheSvc := NewCacheService(store, cacheCfg, nil, zap.NewNop())

	source := &fakeWorklistSource{rows: sampleRows(), total: 2}
	svc := newProjectionService(source, cacheSvc)

	_, _, err := svc.Worklist(context.Background(), adminScope(), dto.WorklistQuery{})
	require.NoError(t, err)

	// Second read must not hit the source.
	source.err = context.DeadlineExceeded
	rows, _, err := svc.Worklist(context.Background(), adminScope(), dto.WorklistQuery{})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestDoctorScopeBypassesCache(t *testing.T) {
	store := newFakeCacheStore()
	cacheCfg := config.CacheConfig{Enabled: true, DefaultTTL: time.Minute, WorklistTTL: time.Minute}
	cacheSvc := NewCacheService(store, cacheCfg, nil, zap.NewNop())

	source := &fakeWorklistSource{rows: sampleRows(), total: 2}
	svc := newProjectionService(source, cacheSvc)

	doctorID := "doc-1"
	scope := models.AccessScope{Role: models.RoleDoctor, UserID: "user-1", DoctorID: &doctorID}
	_, _, err := svc.Worklist(context.Background(), scope, dto.WorklistQuery{})
	require.NoError(t, err)
	assert.Empty(t, store.values, "doctor worklists are never cached")
}
